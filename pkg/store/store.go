// Package store defines the persistence boundary of the sync backend.
//
// The [Store] interface abstracts the three backends the application runs on:
// PostgreSQL through GORM, SurrealDB through its native SDK, and an in-memory
// implementation used by tests and local development. The sync layer never
// talks to a database directly; it accumulates [FieldPatch] partial updates in
// its batch cache and flushes them through this interface.
//
// Get methods return [ErrNotFound] (wrapped) for missing rows. List methods
// return empty slices, never nil. Patch methods apply partial updates with
// set/remove semantics; see [FieldPatch].
package store

import (
	"context"

	"github.com/flashnote/flashnote/pkg/models"
)

// ContentFilter selects content rows for list queries. Zero values mean "no
// constraint" unless the field is a pointer, in which case nil means
// unconstrained. Stamp bounds are strict (exclusive) because they page from
// the last item a client already holds.
type ContentFilter struct {
	SpaceID  models.WorkspaceID
	UserID   *models.UserID
	InfoType models.InfoType
	OState   *models.OState

	IDs         []models.ContentID
	ExcludedIDs []models.ContentID

	ParentThread    *models.ContentID
	ParentComment   *models.ContentID
	ReplyToComment  *models.ContentID
	NoParentComment  bool // top-level comments only
	NoReplyToComment bool

	TagID      string  // matches within tagSearched
	StateID    *string
	Pinned     *bool // pinStamp present and positive, or not
	OnCalendar bool  // calendarStamp present

	// SortBy is one of the canonical stamp field names; createdStamp when
	// empty. MinStamp/MaxStamp bound the sort key exclusively.
	SortBy   string
	SortWay  models.SortWay
	MinStamp *int64
	MaxStamp *int64

	Limit int
	Skip  int
}

// CollectionFilter selects collection rows. Stamp bounds apply to sortStamp.
type CollectionFilter struct {
	UserID   models.UserID
	SpaceID  models.WorkspaceID
	InfoType models.CollectionType
	ForType  models.InfoType
	OState   *models.OStateCollection
	Emoji    string

	ContentIDs []models.ContentID

	SortWay  models.SortWay
	MinStamp *int64
	MaxStamp *int64
	Limit    int
}

// DraftFilter selects one draft, the most recently edited match. Exactly one
// of ID, ThreadEdited, CommentEdited or SpaceID is set; UserID always
// constrains. The SpaceID path additionally narrows by InfoType, OState and
// NoEditedRefs to find the draft of a brand-new thread in a workspace.
type DraftFilter struct {
	UserID        models.UserID
	ID            *models.DraftID
	ThreadEdited  *models.ContentID
	CommentEdited *models.ContentID
	SpaceID       *models.WorkspaceID

	InfoType models.InfoType
	OState   *models.OStateDraft
	// NoEditedRefs restricts to drafts not attached to an existing
	// thread or comment.
	NoEditedRefs bool
}

// Store is the persistence interface of the sync backend.
type Store interface {
	// Content operations. Contents hold both threads and comments;
	// DeleteContent is the physical removal behind delete_forever, all
	// other removals are oState patches.

	CreateContent(ctx context.Context, content *models.Content) error
	GetContent(ctx context.Context, id models.ContentID) (*models.Content, error)
	// FindContentByFirstID resolves a client-generated id back to the row
	// it created, scoped to the owner. Used for duplicate-create detection.
	FindContentByFirstID(ctx context.Context, userID models.UserID, firstID string) (*models.Content, error)
	PatchContent(ctx context.Context, id models.ContentID, patch FieldPatch) error
	DeleteContent(ctx context.Context, id models.ContentID) error
	ListContents(ctx context.Context, filter ContentFilter) ([]*models.Content, error)

	// Draft operations. A user has at most one live draft per edited
	// target, which is why FindDraft returns a single row.

	CreateDraft(ctx context.Context, draft *models.Draft) error
	GetDraft(ctx context.Context, id models.DraftID) (*models.Draft, error)
	FindDraftByFirstID(ctx context.Context, userID models.UserID, firstID string) (*models.Draft, error)
	PatchDraft(ctx context.Context, id models.DraftID, patch FieldPatch) error
	FindDraft(ctx context.Context, filter DraftFilter) (*models.Draft, error)

	// Collection operations.

	CreateCollection(ctx context.Context, collection *models.Collection) error
	GetCollection(ctx context.Context, id models.CollectionID) (*models.Collection, error)
	FindCollectionByFirstID(ctx context.Context, userID models.UserID, firstID string) (*models.Collection, error)
	// FindUserCollection returns the user's favorite or reaction row for
	// one content, regardless of its oState.
	FindUserCollection(ctx context.Context, userID models.UserID, contentID models.ContentID, infoType models.CollectionType) (*models.Collection, error)
	PatchCollection(ctx context.Context, id models.CollectionID, patch FieldPatch) error
	ListCollections(ctx context.Context, filter CollectionFilter) ([]*models.Collection, error)

	// Member and workspace operations.

	CreateMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, id models.MemberID) (*models.Member, error)
	// FindMember returns the caller's membership in one workspace.
	FindMember(ctx context.Context, userID models.UserID, spaceID models.WorkspaceID) (*models.Member, error)
	// ListMemberSpaceIDs returns the workspaces the user belongs to with
	// an OK membership; the sync layer caches this per request.
	ListMemberSpaceIDs(ctx context.Context, userID models.UserID) ([]models.WorkspaceID, error)
	PatchMember(ctx context.Context, id models.MemberID, patch FieldPatch) error

	CreateWorkspace(ctx context.Context, workspace *models.Workspace) error
	GetWorkspace(ctx context.Context, id models.WorkspaceID) (*models.Workspace, error)
	PatchWorkspace(ctx context.Context, id models.WorkspaceID, patch FieldPatch) error

	// User and session operations.

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error

	// Migrate initializes or updates the backend schema. Idempotent.
	Migrate(ctx context.Context) error

	// Close releases connections. The store is unusable afterwards.
	Close() error
}
