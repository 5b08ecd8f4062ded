// Package surrealstore implements [store.Store] on SurrealDB using native
// SurrealQL through the official SDK.
//
// The connection is configured with the surrealcbor codec so typed IDs
// marshal to RecordIDs and optional fields survive the round trip. Partial
// updates translate [store.FieldPatch] directly into SET/UNSET clauses, which
// is what preserves the absent-versus-null distinction the sync layer relies
// on: a removed field is gone from the document, not null.
//
// Queries are always parameterized; the only strings interpolated into query
// text are canonical field names from the store package's fixed constant set.
package surrealstore

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

// Store implements store.Store on a SurrealDB connection.
type Store struct {
	db *surrealdb.DB
}

// New connects to SurrealDB over WebSocket and selects the given namespace
// and database.
func New(ctx context.Context, wsURL, namespace, database, username, password string) (*Store, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parsing SurrealDB URL: %w", err)
	}

	conf := connection.NewConfig(u)

	// The surrealcbor codec is what makes typed IDs marshal to RecordIDs
	// and keeps optional fields intact.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)
	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("connecting to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("authenticating with SurrealDB: %w", err)
		}
	}
	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("selecting namespace/database: %w", err)
	}

	return &Store{db: db}, nil
}

// notFound reports whether err is the SDK's way of saying the record does not
// exist.
func notFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Expected a single or multiple results but got 0") ||
		strings.Contains(msg, "cannot unmarshal array into Go value")
}

// queryOne runs a SurrealQL query expected to yield at most one row.
func queryOne[T any](ctx context.Context, s *Store, query string, params map[string]any) (*T, error) {
	result, err := surrealdb.Query[[]T](ctx, s.db, query, params)
	if err != nil {
		return nil, err
	}
	if result == nil || len(*result) == 0 || len((*result)[0].Result) == 0 {
		return nil, store.ErrNotFound
	}
	row := (*result)[0].Result[0]
	return &row, nil
}

// queryMany runs a SurrealQL query returning any number of rows.
func queryMany[T any](ctx context.Context, s *Store, query string, params map[string]any) ([]*T, error) {
	result, err := surrealdb.Query[[]T](ctx, s.db, query, params)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0)
	if result != nil && len(*result) > 0 {
		for i := range (*result)[0].Result {
			out = append(out, &(*result)[0].Result[i])
		}
	}
	return out, nil
}

// patchQuery builds "UPDATE $id SET ... UNSET ..." from a patch. Field names
// come from the store package's constants, never from user input.
func patchQuery(patch store.FieldPatch) (string, map[string]any) {
	fields := make([]string, 0, len(patch))
	for f := range patch {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var sets, unsets []string
	params := map[string]any{}
	for _, f := range fields {
		op := patch[f]
		if op.IsRemove() {
			unsets = append(unsets, f)
			continue
		}
		param := "p_" + strings.ReplaceAll(f, "-", "_")
		sets = append(sets, fmt.Sprintf("%s = $%s", f, param))
		params[param] = op.Value()
	}

	var b strings.Builder
	b.WriteString("UPDATE $id")
	if len(sets) > 0 {
		b.WriteString(" SET ")
		b.WriteString(strings.Join(sets, ", "))
	}
	if len(unsets) > 0 {
		b.WriteString(" UNSET ")
		b.WriteString(strings.Join(unsets, ", "))
	}
	return b.String(), params
}

func (s *Store) patch(ctx context.Context, rid surrealdb_models.RecordID, patch store.FieldPatch) error {
	if len(patch) == 0 {
		return nil
	}
	query, params := patchQuery(patch)
	params["id"] = rid
	if _, err := surrealdb.Query[any](ctx, s.db, query, params); err != nil {
		return err
	}
	return nil
}

// Content operations

func (s *Store) CreateContent(ctx context.Context, content *models.Content) error {
	if content.ID.IsZero() {
		content.ID = models.NewContentID()
	}
	if _, err := surrealdb.Create[models.Content](ctx, s.db, "contents", content); err != nil {
		return fmt.Errorf("creating content: %w", err)
	}
	return nil
}

func (s *Store) GetContent(ctx context.Context, id models.ContentID) (*models.Content, error) {
	content, err := surrealdb.Select[models.Content](ctx, s.db, id.RecordID())
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("content %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting content: %w", err)
	}
	if content == nil {
		return nil, fmt.Errorf("content %s: %w", id, store.ErrNotFound)
	}
	return content, nil
}

func (s *Store) FindContentByFirstID(ctx context.Context, userID models.UserID, firstID string) (*models.Content, error) {
	row, err := queryOne[models.Content](ctx, s,
		"SELECT * FROM contents WHERE user = $user AND first_id = $first_id LIMIT 1",
		map[string]any{"user": userID.RecordID(), "first_id": firstID})
	if err != nil {
		return nil, fmt.Errorf("finding content by first_id: %w", err)
	}
	return row, nil
}

func (s *Store) PatchContent(ctx context.Context, id models.ContentID, patch store.FieldPatch) error {
	if err := s.patch(ctx, id.RecordID(), patch); err != nil {
		return fmt.Errorf("patching content %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteContent(ctx context.Context, id models.ContentID) error {
	if _, err := surrealdb.Delete[models.Content](ctx, s.db, id.RecordID()); err != nil {
		return fmt.Errorf("deleting content %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListContents(ctx context.Context, filter store.ContentFilter) ([]*models.Content, error) {
	var where []string
	params := map[string]any{}

	if !filter.SpaceID.IsZero() {
		where = append(where, "spaceId = $space")
		params["space"] = filter.SpaceID.RecordID()
	}
	if filter.UserID != nil {
		where = append(where, "user = $user")
		params["user"] = filter.UserID.RecordID()
	}
	if filter.InfoType != "" {
		where = append(where, "infoType = $info_type")
		params["info_type"] = string(filter.InfoType)
	}
	if filter.OState != nil {
		where = append(where, "oState = $o_state")
		params["o_state"] = string(*filter.OState)
	}
	if len(filter.IDs) > 0 {
		where = append(where, "id IN $ids")
		params["ids"] = recordIDs(filter.IDs)
	}
	if len(filter.ExcludedIDs) > 0 {
		where = append(where, "id NOT IN $excluded_ids")
		params["excluded_ids"] = recordIDs(filter.ExcludedIDs)
	}
	if filter.ParentThread != nil {
		where = append(where, "parentThread = $parent_thread")
		params["parent_thread"] = filter.ParentThread.RecordID()
	}
	if filter.ParentComment != nil {
		where = append(where, "parentComment = $parent_comment")
		params["parent_comment"] = filter.ParentComment.RecordID()
	}
	if filter.ReplyToComment != nil {
		where = append(where, "replyToComment = $reply_to")
		params["reply_to"] = filter.ReplyToComment.RecordID()
	}
	if filter.NoParentComment {
		where = append(where, "parentComment = NONE")
	}
	if filter.NoReplyToComment {
		where = append(where, "replyToComment = NONE")
	}
	if filter.TagID != "" {
		where = append(where, "$tag IN tagSearched")
		params["tag"] = filter.TagID
	}
	if filter.StateID != nil {
		where = append(where, "stateId = $state_id")
		params["state_id"] = *filter.StateID
	}
	if filter.Pinned != nil {
		if *filter.Pinned {
			where = append(where, "pinStamp > 0")
		} else {
			where = append(where, "(pinStamp = NONE OR pinStamp = 0)")
		}
	}
	if filter.OnCalendar {
		where = append(where, "calendarStamp != NONE")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = store.FieldCreatedStamp
	}
	if filter.MinStamp != nil {
		where = append(where, fmt.Sprintf("%s > $min_stamp", sortBy))
		params["min_stamp"] = *filter.MinStamp
	}
	if filter.MaxStamp != nil {
		where = append(where, fmt.Sprintf("%s < $max_stamp", sortBy))
		params["max_stamp"] = *filter.MaxStamp
	}

	var b strings.Builder
	b.WriteString("SELECT * FROM contents")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(fmt.Sprintf(" ORDER BY %s", sortBy))
	if filter.SortWay != models.SortAsc {
		b.WriteString(" DESC")
	}
	if filter.Limit > 0 {
		b.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
	}
	if filter.Skip > 0 {
		b.WriteString(fmt.Sprintf(" START %d", filter.Skip))
	}

	rows, err := queryMany[models.Content](ctx, s, b.String(), params)
	if err != nil {
		return nil, fmt.Errorf("listing contents: %w", err)
	}
	return rows, nil
}

func recordIDs(ids []models.ContentID) []surrealdb_models.RecordID {
	out := make([]surrealdb_models.RecordID, len(ids))
	for i, id := range ids {
		out[i] = id.RecordID()
	}
	return out
}

// Draft operations

func (s *Store) CreateDraft(ctx context.Context, draft *models.Draft) error {
	if draft.ID.IsZero() {
		draft.ID = models.NewDraftID()
	}
	if _, err := surrealdb.Create[models.Draft](ctx, s.db, "drafts", draft); err != nil {
		return fmt.Errorf("creating draft: %w", err)
	}
	return nil
}

func (s *Store) GetDraft(ctx context.Context, id models.DraftID) (*models.Draft, error) {
	draft, err := surrealdb.Select[models.Draft](ctx, s.db, id.RecordID())
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("draft %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting draft: %w", err)
	}
	if draft == nil {
		return nil, fmt.Errorf("draft %s: %w", id, store.ErrNotFound)
	}
	return draft, nil
}

func (s *Store) FindDraftByFirstID(ctx context.Context, userID models.UserID, firstID string) (*models.Draft, error) {
	row, err := queryOne[models.Draft](ctx, s,
		"SELECT * FROM drafts WHERE user = $user AND first_id = $first_id LIMIT 1",
		map[string]any{"user": userID.RecordID(), "first_id": firstID})
	if err != nil {
		return nil, fmt.Errorf("finding draft by first_id: %w", err)
	}
	return row, nil
}

func (s *Store) PatchDraft(ctx context.Context, id models.DraftID, patch store.FieldPatch) error {
	if err := s.patch(ctx, id.RecordID(), patch); err != nil {
		return fmt.Errorf("patching draft %s: %w", id, err)
	}
	return nil
}

func (s *Store) FindDraft(ctx context.Context, filter store.DraftFilter) (*models.Draft, error) {
	where := []string{"user = $user"}
	params := map[string]any{"user": filter.UserID.RecordID()}

	if filter.ID != nil {
		where = append(where, "id = $id")
		params["id"] = filter.ID.RecordID()
	}
	if filter.ThreadEdited != nil {
		where = append(where, "threadEdited = $thread_edited")
		params["thread_edited"] = filter.ThreadEdited.RecordID()
	}
	if filter.CommentEdited != nil {
		where = append(where, "commentEdited = $comment_edited")
		params["comment_edited"] = filter.CommentEdited.RecordID()
	}
	if filter.SpaceID != nil {
		where = append(where, "spaceId = $space")
		params["space"] = filter.SpaceID.RecordID()
	}
	if filter.InfoType != "" {
		where = append(where, "infoType = $info_type")
		params["info_type"] = string(filter.InfoType)
	}
	if filter.OState != nil {
		where = append(where, "oState = $o_state")
		params["o_state"] = string(*filter.OState)
	}
	if filter.NoEditedRefs {
		where = append(where, "threadEdited = NONE AND commentEdited = NONE")
	}

	query := fmt.Sprintf(
		"SELECT * FROM drafts WHERE %s ORDER BY editedStamp DESC LIMIT 1",
		strings.Join(where, " AND "))
	row, err := queryOne[models.Draft](ctx, s, query, params)
	if err != nil {
		return nil, fmt.Errorf("finding draft: %w", err)
	}
	return row, nil
}

// Collection operations

func (s *Store) CreateCollection(ctx context.Context, collection *models.Collection) error {
	if collection.ID.IsZero() {
		collection.ID = models.NewCollectionID()
	}
	if _, err := surrealdb.Create[models.Collection](ctx, s.db, "collections", collection); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

func (s *Store) GetCollection(ctx context.Context, id models.CollectionID) (*models.Collection, error) {
	collection, err := surrealdb.Select[models.Collection](ctx, s.db, id.RecordID())
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("collection %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting collection: %w", err)
	}
	if collection == nil {
		return nil, fmt.Errorf("collection %s: %w", id, store.ErrNotFound)
	}
	return collection, nil
}

func (s *Store) FindCollectionByFirstID(ctx context.Context, userID models.UserID, firstID string) (*models.Collection, error) {
	row, err := queryOne[models.Collection](ctx, s,
		"SELECT * FROM collections WHERE user = $user AND first_id = $first_id LIMIT 1",
		map[string]any{"user": userID.RecordID(), "first_id": firstID})
	if err != nil {
		return nil, fmt.Errorf("finding collection by first_id: %w", err)
	}
	return row, nil
}

func (s *Store) FindUserCollection(ctx context.Context, userID models.UserID, contentID models.ContentID, infoType models.CollectionType) (*models.Collection, error) {
	row, err := queryOne[models.Collection](ctx, s,
		"SELECT * FROM collections WHERE user = $user AND content_id = $content AND infoType = $info_type LIMIT 1",
		map[string]any{
			"user":      userID.RecordID(),
			"content":   contentID.RecordID(),
			"info_type": string(infoType),
		})
	if err != nil {
		return nil, fmt.Errorf("finding user collection: %w", err)
	}
	return row, nil
}

func (s *Store) PatchCollection(ctx context.Context, id models.CollectionID, patch store.FieldPatch) error {
	if err := s.patch(ctx, id.RecordID(), patch); err != nil {
		return fmt.Errorf("patching collection %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListCollections(ctx context.Context, filter store.CollectionFilter) ([]*models.Collection, error) {
	var where []string
	params := map[string]any{}

	if !filter.UserID.IsZero() {
		where = append(where, "user = $user")
		params["user"] = filter.UserID.RecordID()
	}
	if !filter.SpaceID.IsZero() {
		where = append(where, "spaceId = $space")
		params["space"] = filter.SpaceID.RecordID()
	}
	if filter.InfoType != "" {
		where = append(where, "infoType = $info_type")
		params["info_type"] = string(filter.InfoType)
	}
	if filter.ForType != "" {
		where = append(where, "forType = $for_type")
		params["for_type"] = string(filter.ForType)
	}
	if filter.OState != nil {
		where = append(where, "oState = $o_state")
		params["o_state"] = string(*filter.OState)
	}
	if filter.Emoji != "" {
		where = append(where, "emoji = $emoji")
		params["emoji"] = filter.Emoji
	}
	if len(filter.ContentIDs) > 0 {
		where = append(where, "content_id IN $content_ids")
		params["content_ids"] = recordIDs(filter.ContentIDs)
	}
	if filter.MinStamp != nil {
		where = append(where, "sortStamp > $min_stamp")
		params["min_stamp"] = *filter.MinStamp
	}
	if filter.MaxStamp != nil {
		where = append(where, "sortStamp < $max_stamp")
		params["max_stamp"] = *filter.MaxStamp
	}

	var b strings.Builder
	b.WriteString("SELECT * FROM collections")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY sortStamp")
	if filter.SortWay != models.SortAsc {
		b.WriteString(" DESC")
	}
	if filter.Limit > 0 {
		b.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
	}

	rows, err := queryMany[models.Collection](ctx, s, b.String(), params)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	return rows, nil
}

// Member and workspace operations

func (s *Store) CreateMember(ctx context.Context, member *models.Member) error {
	if member.ID.IsZero() {
		member.ID = models.NewMemberID()
	}
	if _, err := surrealdb.Create[models.Member](ctx, s.db, "members", member); err != nil {
		return fmt.Errorf("creating member: %w", err)
	}
	return nil
}

func (s *Store) GetMember(ctx context.Context, id models.MemberID) (*models.Member, error) {
	member, err := surrealdb.Select[models.Member](ctx, s.db, id.RecordID())
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("member %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting member: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("member %s: %w", id, store.ErrNotFound)
	}
	return member, nil
}

func (s *Store) FindMember(ctx context.Context, userID models.UserID, spaceID models.WorkspaceID) (*models.Member, error) {
	row, err := queryOne[models.Member](ctx, s,
		"SELECT * FROM members WHERE user = $user AND spaceId = $space LIMIT 1",
		map[string]any{"user": userID.RecordID(), "space": spaceID.RecordID()})
	if err != nil {
		return nil, fmt.Errorf("finding member: %w", err)
	}
	return row, nil
}

func (s *Store) ListMemberSpaceIDs(ctx context.Context, userID models.UserID) ([]models.WorkspaceID, error) {
	rows, err := queryMany[models.Member](ctx, s,
		"SELECT * FROM members WHERE user = $user AND oState = 'OK'",
		map[string]any{"user": userID.RecordID()})
	if err != nil {
		return nil, fmt.Errorf("listing member spaces: %w", err)
	}
	out := make([]models.WorkspaceID, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.SpaceID)
	}
	return out, nil
}

func (s *Store) PatchMember(ctx context.Context, id models.MemberID, patch store.FieldPatch) error {
	if err := s.patch(ctx, id.RecordID(), patch); err != nil {
		return fmt.Errorf("patching member %s: %w", id, err)
	}
	return nil
}

func (s *Store) CreateWorkspace(ctx context.Context, workspace *models.Workspace) error {
	if workspace.ID.IsZero() {
		workspace.ID = models.NewWorkspaceID()
	}
	if _, err := surrealdb.Create[models.Workspace](ctx, s.db, "workspaces", workspace); err != nil {
		return fmt.Errorf("creating workspace: %w", err)
	}
	return nil
}

func (s *Store) GetWorkspace(ctx context.Context, id models.WorkspaceID) (*models.Workspace, error) {
	workspace, err := surrealdb.Select[models.Workspace](ctx, s.db, id.RecordID())
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("workspace %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting workspace: %w", err)
	}
	if workspace == nil {
		return nil, fmt.Errorf("workspace %s: %w", id, store.ErrNotFound)
	}
	return workspace, nil
}

func (s *Store) PatchWorkspace(ctx context.Context, id models.WorkspaceID, patch store.FieldPatch) error {
	if err := s.patch(ctx, id.RecordID(), patch); err != nil {
		return fmt.Errorf("patching workspace %s: %w", id, err)
	}
	return nil
}

// User and session operations

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = models.NewUserID()
	}
	if _, err := surrealdb.Create[models.User](ctx, s.db, "users", user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	user, err := surrealdb.Select[models.User](ctx, s.db, id.RecordID())
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row, err := queryOne[models.User](ctx, s,
		"SELECT * FROM users WHERE email = $email LIMIT 1",
		map[string]any{"email": email})
	if err != nil {
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	return row, nil
}

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	if _, err := surrealdb.Create[models.Session](ctx, s.db, "sessions", session); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, token string) (*models.Session, error) {
	row, err := queryOne[models.Session](ctx, s,
		"SELECT * FROM sessions WHERE token = $token LIMIT 1",
		map[string]any{"token": token})
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}
	return row, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := surrealdb.Query[any](ctx, s.db,
		"DELETE sessions WHERE token = $token",
		map[string]any{"token": token}); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Migrate defines the indexes the hot query paths rely on. SurrealDB creates
// tables lazily, so there is no table DDL here and the statements are
// idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		"DEFINE INDEX IF NOT EXISTS contents_first_id ON TABLE contents FIELDS user, first_id",
		"DEFINE INDEX IF NOT EXISTS contents_space ON TABLE contents FIELDS spaceId, infoType",
		"DEFINE INDEX IF NOT EXISTS collections_content ON TABLE collections FIELDS user, content_id",
		"DEFINE INDEX IF NOT EXISTS members_user ON TABLE members FIELDS user, spaceId",
		"DEFINE INDEX IF NOT EXISTS users_email ON TABLE users FIELDS email UNIQUE",
		"DEFINE INDEX IF NOT EXISTS sessions_token ON TABLE sessions FIELDS token UNIQUE",
	}
	for _, stmt := range statements {
		if _, err := surrealdb.Query[any](ctx, s.db, stmt, nil); err != nil {
			return fmt.Errorf("defining index: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close(context.Background())
}
