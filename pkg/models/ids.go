package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ContentID is a typed ID for contents (threads and comments)
type ContentID struct {
	uuid uuid.UUID
}

func NewContentID() ContentID {
	return ContentID{uuid: uuid.New()}
}

func NewContentIDFromUUID(id uuid.UUID) ContentID {
	return ContentID{uuid: id}
}

func ParseContentID(s string) (ContentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ContentID{}, fmt.Errorf("invalid content ID: %w", err)
	}
	return ContentID{uuid: id}, nil
}

func (c ContentID) UUID() uuid.UUID { return c.uuid }
func (c ContentID) String() string  { return c.uuid.String() }
func (c ContentID) IsZero() bool    { return c.uuid == uuid.Nil }

func (c ContentID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "contents",
		ID:    c.uuid.String(),
	}
}

func (c ContentID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.uuid.String())
}

func (c *ContentID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	c.uuid = id
	return nil
}

func (c ContentID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"contents", c.uuid.String()},
	})
}

func (c *ContentID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "contents", &c.uuid)
}

func (c ContentID) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return c.uuid.String(), nil
}

func (c *ContentID) Scan(value any) error {
	return scanUUID(value, &c.uuid)
}

func (ContentID) GormDataType() string { return "uuid" }

// DraftID is a typed ID for drafts
type DraftID struct {
	uuid uuid.UUID
}

func NewDraftID() DraftID {
	return DraftID{uuid: uuid.New()}
}

func NewDraftIDFromUUID(id uuid.UUID) DraftID {
	return DraftID{uuid: id}
}

func ParseDraftID(s string) (DraftID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return DraftID{}, fmt.Errorf("invalid draft ID: %w", err)
	}
	return DraftID{uuid: id}, nil
}

func (d DraftID) UUID() uuid.UUID { return d.uuid }
func (d DraftID) String() string  { return d.uuid.String() }
func (d DraftID) IsZero() bool    { return d.uuid == uuid.Nil }

func (d DraftID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "drafts",
		ID:    d.uuid.String(),
	}
}

func (d DraftID) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.uuid.String())
}

func (d *DraftID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	d.uuid = id
	return nil
}

func (d DraftID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"drafts", d.uuid.String()},
	})
}

func (d *DraftID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "drafts", &d.uuid)
}

func (d DraftID) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.uuid.String(), nil
}

func (d *DraftID) Scan(value any) error {
	return scanUUID(value, &d.uuid)
}

func (DraftID) GormDataType() string { return "uuid" }

// CollectionID is a typed ID for collections (favorites and emoji reactions)
type CollectionID struct {
	uuid uuid.UUID
}

func NewCollectionID() CollectionID {
	return CollectionID{uuid: uuid.New()}
}

func NewCollectionIDFromUUID(id uuid.UUID) CollectionID {
	return CollectionID{uuid: id}
}

func ParseCollectionID(s string) (CollectionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CollectionID{}, fmt.Errorf("invalid collection ID: %w", err)
	}
	return CollectionID{uuid: id}, nil
}

func (c CollectionID) UUID() uuid.UUID { return c.uuid }
func (c CollectionID) String() string  { return c.uuid.String() }
func (c CollectionID) IsZero() bool    { return c.uuid == uuid.Nil }

func (c CollectionID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "collections",
		ID:    c.uuid.String(),
	}
}

func (c CollectionID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.uuid.String())
}

func (c *CollectionID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	c.uuid = id
	return nil
}

func (c CollectionID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"collections", c.uuid.String()},
	})
}

func (c *CollectionID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "collections", &c.uuid)
}

func (c CollectionID) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return c.uuid.String(), nil
}

func (c *CollectionID) Scan(value any) error {
	return scanUUID(value, &c.uuid)
}

func (CollectionID) GormDataType() string { return "uuid" }

// MemberID is a typed ID for workspace members
type MemberID struct {
	uuid uuid.UUID
}

func NewMemberID() MemberID {
	return MemberID{uuid: uuid.New()}
}

func NewMemberIDFromUUID(id uuid.UUID) MemberID {
	return MemberID{uuid: id}
}

func ParseMemberID(s string) (MemberID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return MemberID{}, fmt.Errorf("invalid member ID: %w", err)
	}
	return MemberID{uuid: id}, nil
}

func (m MemberID) UUID() uuid.UUID { return m.uuid }
func (m MemberID) String() string  { return m.uuid.String() }
func (m MemberID) IsZero() bool    { return m.uuid == uuid.Nil }

func (m MemberID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "members",
		ID:    m.uuid.String(),
	}
}

func (m MemberID) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.uuid.String())
}

func (m *MemberID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	m.uuid = id
	return nil
}

func (m MemberID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"members", m.uuid.String()},
	})
}

func (m *MemberID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "members", &m.uuid)
}

func (m MemberID) Value() (driver.Value, error) {
	if m.IsZero() {
		return nil, nil
	}
	return m.uuid.String(), nil
}

func (m *MemberID) Scan(value any) error {
	return scanUUID(value, &m.uuid)
}

func (MemberID) GormDataType() string { return "uuid" }

// WorkspaceID is a typed ID for workspaces
type WorkspaceID struct {
	uuid uuid.UUID
}

func NewWorkspaceID() WorkspaceID {
	return WorkspaceID{uuid: uuid.New()}
}

func NewWorkspaceIDFromUUID(id uuid.UUID) WorkspaceID {
	return WorkspaceID{uuid: id}
}

func ParseWorkspaceID(s string) (WorkspaceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return WorkspaceID{}, fmt.Errorf("invalid workspace ID: %w", err)
	}
	return WorkspaceID{uuid: id}, nil
}

func (w WorkspaceID) UUID() uuid.UUID { return w.uuid }
func (w WorkspaceID) String() string  { return w.uuid.String() }
func (w WorkspaceID) IsZero() bool    { return w.uuid == uuid.Nil }

func (w WorkspaceID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "workspaces",
		ID:    w.uuid.String(),
	}
}

func (w WorkspaceID) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.uuid.String())
}

func (w *WorkspaceID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	w.uuid = id
	return nil
}

func (w WorkspaceID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"workspaces", w.uuid.String()},
	})
}

func (w *WorkspaceID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "workspaces", &w.uuid)
}

func (w WorkspaceID) Value() (driver.Value, error) {
	if w.IsZero() {
		return nil, nil
	}
	return w.uuid.String(), nil
}

func (w *WorkspaceID) Scan(value any) error {
	return scanUUID(value, &w.uuid)
}

func (WorkspaceID) GormDataType() string { return "uuid" }

// UserID is a typed ID for users
type UserID struct {
	uuid uuid.UUID
}

func NewUserID() UserID {
	return UserID{uuid: uuid.New()}
}

func NewUserIDFromUUID(id uuid.UUID) UserID {
	return UserID{uuid: id}
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user ID: %w", err)
	}
	return UserID{uuid: id}, nil
}

func (u UserID) UUID() uuid.UUID { return u.uuid }
func (u UserID) String() string  { return u.uuid.String() }
func (u UserID) IsZero() bool    { return u.uuid == uuid.Nil }

func (u UserID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "users",
		ID:    u.uuid.String(),
	}
}

func (u UserID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.uuid.String())
}

func (u *UserID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	u.uuid = id
	return nil
}

func (u UserID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"users", u.uuid.String()},
	})
}

func (u *UserID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "users", &u.uuid)
}

func (u UserID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.uuid.String(), nil
}

func (u *UserID) Scan(value any) error {
	return scanUUID(value, &u.uuid)
}

func (UserID) GormDataType() string { return "uuid" }

// Helper functions

// scanUUID is a helper for implementing sql.Scanner interface for PostgreSQL/GORM
func scanUUID(value any, target *uuid.UUID) error {
	if value == nil {
		*target = uuid.Nil
		return nil
	}

	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*target = id
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*target = id
	default:
		return fmt.Errorf("cannot scan type %T into UUID", value)
	}
	return nil
}

// unmarshalCBORID is a helper for unmarshaling SurrealDB RecordID from CBOR.
// SurrealDB uses CBOR tag 8 to identify RecordID types in its binary protocol.
// The RecordID is encoded as [table_name, id_string] within the tag.
func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// Check if this is a CBOR tag (major type 6)
	majorType := data[0] >> 5
	if majorType != 6 {
		return fmt.Errorf("expected CBOR tag for RecordID, got major type %d", majorType)
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}

	// SurrealDB uses tag 8 for RecordID
	if tag.Number != 8 {
		return fmt.Errorf("expected RecordID tag (8), got %d", tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}

	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: table name must be string")
	}

	if table != expectedTable {
		return fmt.Errorf("expected table %s, got %s", expectedTable, table)
	}

	idStr, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}

	parsedUUID, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid UUID in RecordID: %w", err)
	}

	*target = parsedUUID
	return nil
}
