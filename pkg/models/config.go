package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// CipherText is an AES-GCM encrypted field: base64 ciphertext plus the nonce
// used to seal it. Stored as a JSON object in both backends so that "field
// absent" (never encrypted / cleared) stays distinguishable from a present
// ciphertext.
type CipherText struct {
	CipherText string `json:"cipherText"`
	Nonce      string `json:"nonce"`
}

func (c CipherText) Value() (driver.Value, error) { return jsonValue(c) }
func (c *CipherText) Scan(value any) error        { return jsonScan(value, c) }
func (CipherText) GormDataType() string           { return "jsonb" }

// EmojiEntry is one emoji's count within a content's reaction breakdown.
// EncodeStr is the emoji passed through URL percent-encoding.
type EmojiEntry struct {
	EncodeStr string `json:"encodeStr"`
	Num       int    `json:"num"`
}

// EmojiData is the denormalized reaction aggregate carried by every content.
type EmojiData struct {
	Total  int          `json:"total"`
	System []EmojiEntry `json:"system"`
}

// Apply adjusts the aggregate by delta for one emoji. Counts clamp at zero,
// and an entry that reaches zero stays in the breakdown; a new entry is only
// appended when delta is positive.
func (e *EmojiData) Apply(encodeStr string, delta int) {
	e.Total += delta
	if e.Total < 0 {
		e.Total = 0
	}
	for i := range e.System {
		if e.System[i].EncodeStr != encodeStr {
			continue
		}
		e.System[i].Num += delta
		if e.System[i].Num < 0 {
			e.System[i].Num = 0
		}
		return
	}
	if delta > 0 {
		e.System = append(e.System, EmojiEntry{EncodeStr: encodeStr, Num: delta})
	}
}

func (e EmojiData) Value() (driver.Value, error) { return jsonValue(e) }
func (e *EmojiData) Scan(value any) error        { return jsonScan(value, e) }
func (EmojiData) GormDataType() string           { return "jsonb" }

// RemindMe describes when a content should fire a reminder.
type RemindMe struct {
	Type          string `json:"type"` // early, later or specific_time
	EarlyMinute   *int   `json:"early_minute,omitempty"`
	Later         string `json:"later,omitempty"`
	SpecificStamp *int64 `json:"specific_stamp,omitempty"`
}

func (r RemindMe) Value() (driver.Value, error) { return jsonValue(r) }
func (r *RemindMe) Scan(value any) error        { return jsonScan(value, r) }
func (RemindMe) GormDataType() string           { return "jsonb" }

// StateItem is one column of a workspace's kanban state board.
type StateItem struct {
	ID            string   `json:"id"`
	Text          string   `json:"text,omitempty"`
	Color         string   `json:"color,omitempty"`
	ShowInIndex   bool     `json:"showInIndex"`
	ContentIDs    []string `json:"contentIds,omitempty"`
	ShowFireworks bool     `json:"showFireworks,omitempty"`
	UpdatedStamp  int64    `json:"updatedStamp"`
}

// StateConfig is a workspace's kanban definition. UpdatedStamp is the
// optimistic-concurrency guard for the whole structure.
type StateConfig struct {
	StateList    []StateItem `json:"stateList"`
	UpdatedStamp int64       `json:"updatedStamp"`
}

func (s StateConfig) Value() (driver.Value, error) { return jsonValue(s) }
func (s *StateConfig) Scan(value any) error        { return jsonScan(value, s) }
func (StateConfig) GormDataType() string           { return "jsonb" }

// TagView is one node of a workspace's tag tree.
type TagView struct {
	TagID        string    `json:"tagId"`
	Text         string    `json:"text"`
	Icon         string    `json:"icon,omitempty"`
	OState       string    `json:"oState"` // OK or REMOVED
	CreatedStamp int64     `json:"createdStamp"`
	UpdatedStamp int64     `json:"updatedStamp"`
	Children     []TagView `json:"children,omitempty"`
}

// TagList is a workspace's tag tree, stored as one JSON document.
type TagList []TagView

func (t TagList) Value() (driver.Value, error) { return jsonValue(t) }
func (t *TagList) Scan(value any) error        { return jsonScan(value, t) }
func (TagList) GormDataType() string           { return "jsonb" }

// StringList is a JSON-encoded list of plain strings (tag ids and the like).
type StringList []string

func (s StringList) Value() (driver.Value, error) { return jsonValue(s) }
func (s *StringList) Scan(value any) error        { return jsonScan(value, s) }
func (StringList) GormDataType() string           { return "jsonb" }

// ContentConfig is the free-form config bag on a content. Every mutable field
// group carries its own "last operated" stamp here; an atom whose operateStamp
// is not strictly greater than the matching stamp is stale.
type ContentConfig struct {
	ShowCountdown *bool `json:"showCountdown,omitempty"`
	AllowComment  *bool `json:"allowComment,omitempty"`

	LastToggleCountdown   int64 `json:"lastToggleCountdown,omitempty"`
	LastOStateStamp       int64 `json:"lastOStateStamp,omitempty"`
	LastOperateStateID    int64 `json:"lastOperateStateId,omitempty"`
	LastOperatePin        int64 `json:"lastOperatePin,omitempty"`
	LastOperateTag        int64 `json:"lastOperateTag,omitempty"`
	LastOperateWhenRemind int64 `json:"lastOperateWhenRemind,omitempty"`
	LastUpdateEmojiData   int64 `json:"lastUpdateEmojiData,omitempty"`
	LastUpdateLevelNum    int64 `json:"lastUpdateLevelNum,omitempty"`
}

func (c ContentConfig) Value() (driver.Value, error) { return jsonValue(c) }
func (c *ContentConfig) Scan(value any) error        { return jsonScan(value, c) }
func (ContentConfig) GormDataType() string           { return "jsonb" }

// WorkspaceConfig carries workspace-level guard stamps.
type WorkspaceConfig struct {
	LastOperateTag int64 `json:"lastOperateTag,omitempty"`
}

func (c WorkspaceConfig) Value() (driver.Value, error) { return jsonValue(c) }
func (c *WorkspaceConfig) Scan(value any) error        { return jsonScan(value, c) }
func (WorkspaceConfig) GormDataType() string           { return "jsonb" }

// MemberConfig carries member-level guard stamps and search preferences.
type MemberConfig struct {
	SearchKeywords  []string `json:"searchKeywords,omitempty"`
	SearchTagIDs    []string `json:"searchTagIds,omitempty"`
	LastOperateName int64    `json:"lastOperateName,omitempty"`
}

func (c MemberConfig) Value() (driver.Value, error) { return jsonValue(c) }
func (c *MemberConfig) Scan(value any) error        { return jsonScan(value, c) }
func (MemberConfig) GormDataType() string           { return "jsonb" }

// ImageStore describes one uploaded image.
type ImageStore struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	URL      string `json:"url"`
	Blurhash string `json:"blurhash,omitempty"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
}

func (i ImageStore) Value() (driver.Value, error) { return jsonValue(i) }
func (i *ImageStore) Scan(value any) error        { return jsonScan(value, i) }
func (ImageStore) GormDataType() string           { return "jsonb" }

// jsonValue implements driver.Valuer for JSON document columns.
func jsonValue(v any) (driver.Value, error) {
	return json.Marshal(v)
}

// jsonScan implements sql.Scanner for JSON document columns.
func jsonScan(value any, target any) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan type %T into %T", value, target)
	}
	return json.Unmarshal(bytes, target)
}
