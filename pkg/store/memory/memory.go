// Package memory provides an in-process Store used by tests and local
// development. Rows are cloned on the way in and out so callers never share
// memory with the store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

// Store keeps every table in a map guarded by one mutex. It implements
// store.Store.
type Store struct {
	mu sync.RWMutex

	contents    map[models.ContentID]*models.Content
	drafts      map[models.DraftID]*models.Draft
	collections map[models.CollectionID]*models.Collection
	members     map[models.MemberID]*models.Member
	workspaces  map[models.WorkspaceID]*models.Workspace
	users       map[models.UserID]*models.User
	sessions    map[string]*models.Session
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		contents:    make(map[models.ContentID]*models.Content),
		drafts:      make(map[models.DraftID]*models.Draft),
		collections: make(map[models.CollectionID]*models.Collection),
		members:     make(map[models.MemberID]*models.Member),
		workspaces:  make(map[models.WorkspaceID]*models.Workspace),
		users:       make(map[models.UserID]*models.User),
		sessions:    make(map[string]*models.Session),
	}
}

// clone deep-copies a row through JSON so store and caller never alias.
func clone[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("cloning row: %v", err))
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("cloning row: %v", err))
	}
	return out
}

func (s *Store) CreateContent(ctx context.Context, content *models.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if content.ID.IsZero() {
		content.ID = models.NewContentID()
	}
	if _, ok := s.contents[content.ID]; ok {
		return fmt.Errorf("content %s: %w", content.ID, store.ErrConflict)
	}
	s.contents[content.ID] = clone(content)
	return nil
}

func (s *Store) GetContent(ctx context.Context, id models.ContentID) (*models.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contents[id]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", id, store.ErrNotFound)
	}
	return clone(c), nil
}

func (s *Store) FindContentByFirstID(ctx context.Context, userID models.UserID, firstID string) (*models.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contents {
		if c.UserID == userID && c.FirstID == firstID {
			return clone(c), nil
		}
	}
	return nil, fmt.Errorf("content with first_id %s: %w", firstID, store.ErrNotFound)
}

func (s *Store) PatchContent(ctx context.Context, id models.ContentID, patch store.FieldPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contents[id]
	if !ok {
		return fmt.Errorf("content %s: %w", id, store.ErrNotFound)
	}
	return store.ApplyContentPatch(c, patch)
}

func (s *Store) DeleteContent(ctx context.Context, id models.ContentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contents[id]; !ok {
		return fmt.Errorf("content %s: %w", id, store.ErrNotFound)
	}
	delete(s.contents, id)
	return nil
}

// sortKey extracts the pagination key for one content row; absent optional
// stamps sort as zero.
func sortKey(c *models.Content, sortBy string) int64 {
	switch sortBy {
	case "", store.FieldCreatedStamp:
		return c.CreatedStamp
	case store.FieldEditedStamp:
		return c.EditedStamp
	case store.FieldUpdatedStamp:
		return c.UpdatedStamp
	case store.FieldWhenStamp:
		if c.WhenStamp != nil {
			return *c.WhenStamp
		}
	case store.FieldCalendarStamp:
		if c.CalendarStamp != nil {
			return *c.CalendarStamp
		}
	case store.FieldPinStamp:
		if c.PinStamp != nil {
			return *c.PinStamp
		}
	case store.FieldRemovedStamp:
		if c.RemovedStamp != nil {
			return *c.RemovedStamp
		}
	}
	return 0
}

func (s *Store) ListContents(ctx context.Context, filter store.ContentFilter) ([]*models.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := map[models.ContentID]bool{}
	for _, id := range filter.IDs {
		wanted[id] = true
	}
	excluded := map[models.ContentID]bool{}
	for _, id := range filter.ExcludedIDs {
		excluded[id] = true
	}

	matched := make([]*models.Content, 0)
	for _, c := range s.contents {
		if !contentMatches(c, filter, wanted, excluded) {
			continue
		}
		matched = append(matched, c)
	}

	desc := filter.SortWay != models.SortAsc
	sort.Slice(matched, func(i, j int) bool {
		a, b := sortKey(matched[i], filter.SortBy), sortKey(matched[j], filter.SortBy)
		if a == b {
			// stable tiebreak so pagination never flaps
			return matched[i].ID.String() < matched[j].ID.String()
		}
		if desc {
			return a > b
		}
		return a < b
	})

	out := make([]*models.Content, 0, len(matched))
	skipped := 0
	for _, c := range matched {
		if skipped < filter.Skip {
			skipped++
			continue
		}
		out = append(out, clone(c))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func contentMatches(c *models.Content, f store.ContentFilter, wanted, excluded map[models.ContentID]bool) bool {
	if !f.SpaceID.IsZero() && c.SpaceID != f.SpaceID {
		return false
	}
	if f.UserID != nil && c.UserID != *f.UserID {
		return false
	}
	if f.InfoType != "" && c.InfoType != f.InfoType {
		return false
	}
	if f.OState != nil && c.OState != *f.OState {
		return false
	}
	if len(wanted) > 0 && !wanted[c.ID] {
		return false
	}
	if excluded[c.ID] {
		return false
	}
	if f.ParentThread != nil && (c.ParentThread == nil || *c.ParentThread != *f.ParentThread) {
		return false
	}
	if f.ParentComment != nil && (c.ParentComment == nil || *c.ParentComment != *f.ParentComment) {
		return false
	}
	if f.ReplyToComment != nil && (c.ReplyToComment == nil || *c.ReplyToComment != *f.ReplyToComment) {
		return false
	}
	if f.NoParentComment && c.ParentComment != nil {
		return false
	}
	if f.NoReplyToComment && c.ReplyToComment != nil {
		return false
	}
	if f.TagID != "" && !containsTag(c.TagSearched, f.TagID) {
		return false
	}
	if f.StateID != nil && (c.StateID == nil || *c.StateID != *f.StateID) {
		return false
	}
	if f.Pinned != nil {
		pinned := c.PinStamp != nil && *c.PinStamp > 0
		if pinned != *f.Pinned {
			return false
		}
	}
	if f.OnCalendar && c.CalendarStamp == nil {
		return false
	}
	key := sortKey(c, f.SortBy)
	if f.MinStamp != nil && key <= *f.MinStamp {
		return false
	}
	if f.MaxStamp != nil && key >= *f.MaxStamp {
		return false
	}
	return true
}

func containsTag(tags []string, tagID string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tagID) {
			return true
		}
	}
	return false
}

func (s *Store) CreateDraft(ctx context.Context, draft *models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if draft.ID.IsZero() {
		draft.ID = models.NewDraftID()
	}
	if _, ok := s.drafts[draft.ID]; ok {
		return fmt.Errorf("draft %s: %w", draft.ID, store.ErrConflict)
	}
	s.drafts[draft.ID] = clone(draft)
	return nil
}

func (s *Store) GetDraft(ctx context.Context, id models.DraftID) (*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, store.ErrNotFound)
	}
	return clone(d), nil
}

func (s *Store) FindDraftByFirstID(ctx context.Context, userID models.UserID, firstID string) (*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.drafts {
		if d.UserID == userID && d.FirstID == firstID {
			return clone(d), nil
		}
	}
	return nil, fmt.Errorf("draft with first_id %s: %w", firstID, store.ErrNotFound)
}

func (s *Store) PatchDraft(ctx context.Context, id models.DraftID, patch store.FieldPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return fmt.Errorf("draft %s: %w", id, store.ErrNotFound)
	}
	return store.ApplyDraftPatch(d, patch)
}

func (s *Store) FindDraft(ctx context.Context, filter store.DraftFilter) (*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Draft
	for _, d := range s.drafts {
		if d.UserID != filter.UserID {
			continue
		}
		if filter.ID != nil && d.ID != *filter.ID {
			continue
		}
		if filter.ThreadEdited != nil && (d.ThreadEdited == nil || *d.ThreadEdited != *filter.ThreadEdited) {
			continue
		}
		if filter.CommentEdited != nil && (d.CommentEdited == nil || *d.CommentEdited != *filter.CommentEdited) {
			continue
		}
		if filter.SpaceID != nil && d.SpaceID != *filter.SpaceID {
			continue
		}
		if filter.InfoType != "" && d.InfoType != filter.InfoType {
			continue
		}
		if filter.OState != nil && d.OState != *filter.OState {
			continue
		}
		if filter.NoEditedRefs && (d.ThreadEdited != nil || d.CommentEdited != nil) {
			continue
		}
		if best == nil || d.EditedStamp > best.EditedStamp {
			best = d
		}
	}
	if best == nil {
		return nil, fmt.Errorf("draft: %w", store.ErrNotFound)
	}
	return clone(best), nil
}

func (s *Store) CreateCollection(ctx context.Context, collection *models.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if collection.ID.IsZero() {
		collection.ID = models.NewCollectionID()
	}
	if _, ok := s.collections[collection.ID]; ok {
		return fmt.Errorf("collection %s: %w", collection.ID, store.ErrConflict)
	}
	s.collections[collection.ID] = clone(collection)
	return nil
}

func (s *Store) GetCollection(ctx context.Context, id models.CollectionID) (*models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[id]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", id, store.ErrNotFound)
	}
	return clone(c), nil
}

func (s *Store) FindCollectionByFirstID(ctx context.Context, userID models.UserID, firstID string) (*models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.collections {
		if c.UserID == userID && c.FirstID == firstID {
			return clone(c), nil
		}
	}
	return nil, fmt.Errorf("collection with first_id %s: %w", firstID, store.ErrNotFound)
}

func (s *Store) FindUserCollection(ctx context.Context, userID models.UserID, contentID models.ContentID, infoType models.CollectionType) (*models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.collections {
		if c.UserID == userID && c.ContentID == contentID && c.InfoType == infoType {
			return clone(c), nil
		}
	}
	return nil, fmt.Errorf("collection for content %s: %w", contentID, store.ErrNotFound)
}

func (s *Store) PatchCollection(ctx context.Context, id models.CollectionID, patch store.FieldPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[id]
	if !ok {
		return fmt.Errorf("collection %s: %w", id, store.ErrNotFound)
	}
	return store.ApplyCollectionPatch(c, patch)
}

func (s *Store) ListCollections(ctx context.Context, filter store.CollectionFilter) ([]*models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := map[models.ContentID]bool{}
	for _, id := range filter.ContentIDs {
		wanted[id] = true
	}

	matched := make([]*models.Collection, 0)
	for _, c := range s.collections {
		if !filter.UserID.IsZero() && c.UserID != filter.UserID {
			continue
		}
		if !filter.SpaceID.IsZero() && c.SpaceID != filter.SpaceID {
			continue
		}
		if filter.InfoType != "" && c.InfoType != filter.InfoType {
			continue
		}
		if filter.ForType != "" && c.ForType != filter.ForType {
			continue
		}
		if filter.OState != nil && c.OState != *filter.OState {
			continue
		}
		if filter.Emoji != "" && c.Emoji != filter.Emoji {
			continue
		}
		if len(wanted) > 0 && !wanted[c.ContentID] {
			continue
		}
		if filter.MinStamp != nil && c.SortStamp <= *filter.MinStamp {
			continue
		}
		if filter.MaxStamp != nil && c.SortStamp >= *filter.MaxStamp {
			continue
		}
		matched = append(matched, c)
	}

	desc := filter.SortWay != models.SortAsc
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SortStamp == matched[j].SortStamp {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		if desc {
			return matched[i].SortStamp > matched[j].SortStamp
		}
		return matched[i].SortStamp < matched[j].SortStamp
	})

	out := make([]*models.Collection, 0, len(matched))
	for _, c := range matched {
		out = append(out, clone(c))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) CreateMember(ctx context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if member.ID.IsZero() {
		member.ID = models.NewMemberID()
	}
	if _, ok := s.members[member.ID]; ok {
		return fmt.Errorf("member %s: %w", member.ID, store.ErrConflict)
	}
	s.members[member.ID] = clone(member)
	return nil
}

func (s *Store) GetMember(ctx context.Context, id models.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, store.ErrNotFound)
	}
	return clone(m), nil
}

func (s *Store) FindMember(ctx context.Context, userID models.UserID, spaceID models.WorkspaceID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.members {
		if m.UserID == userID && m.SpaceID == spaceID {
			return clone(m), nil
		}
	}
	return nil, fmt.Errorf("member of %s: %w", spaceID, store.ErrNotFound)
}

func (s *Store) ListMemberSpaceIDs(ctx context.Context, userID models.UserID) ([]models.WorkspaceID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.WorkspaceID, 0)
	for _, m := range s.members {
		if m.UserID == userID && m.OState == models.MemberOK {
			out = append(out, m.SpaceID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *Store) PatchMember(ctx context.Context, id models.MemberID, patch store.FieldPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return fmt.Errorf("member %s: %w", id, store.ErrNotFound)
	}
	return store.ApplyMemberPatch(m, patch)
}

func (s *Store) CreateWorkspace(ctx context.Context, workspace *models.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if workspace.ID.IsZero() {
		workspace.ID = models.NewWorkspaceID()
	}
	if _, ok := s.workspaces[workspace.ID]; ok {
		return fmt.Errorf("workspace %s: %w", workspace.ID, store.ErrConflict)
	}
	s.workspaces[workspace.ID] = clone(workspace)
	return nil
}

func (s *Store) GetWorkspace(ctx context.Context, id models.WorkspaceID) (*models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workspaces[id]
	if !ok {
		return nil, fmt.Errorf("workspace %s: %w", id, store.ErrNotFound)
	}
	return clone(w), nil
}

func (s *Store) PatchWorkspace(ctx context.Context, id models.WorkspaceID, patch store.FieldPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workspaces[id]
	if !ok {
		return fmt.Errorf("workspace %s: %w", id, store.ErrNotFound)
	}
	return store.ApplyWorkspacePatch(w, patch)
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = models.NewUserID()
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, store.ErrConflict)
		}
	}
	s.users[user.ID] = clone(user)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return clone(u), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
}

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = clone(session)
	return nil
}

func (s *Store) GetSession(ctx context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, fmt.Errorf("session: %w", store.ErrNotFound)
	}
	return clone(sess), nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Store) Migrate(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }
