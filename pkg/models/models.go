package models

import (
	"gorm.io/gorm"
)

// Content is a thread (top-level post) or a comment; InfoType tells them
// apart. Payload fields are encrypted at rest and only decrypted when a
// download parcel is assembled. Rows are soft-deleted through OState and only
// physically removed by delete_forever.
type Content struct {
	ID       ContentID   `gorm:"type:uuid;primary_key" json:"id"`
	FirstID  string      `gorm:"index;not null" json:"first_id"`
	UserID   UserID      `gorm:"type:uuid;not null;index" json:"user"`
	MemberID *MemberID   `gorm:"type:uuid" json:"member,omitempty"`
	SpaceID  WorkspaceID `gorm:"type:uuid;not null;index" json:"spaceId"`

	SpaceType    SpaceType    `gorm:"not null" json:"spaceType"`
	InfoType     InfoType     `gorm:"not null;index" json:"infoType"`
	OState       OState       `gorm:"not null" json:"oState"`
	VisScope     VisScope     `gorm:"not null" json:"visScope"`
	StorageState StorageState `gorm:"not null" json:"storageState"`

	EncTitle  *CipherText `gorm:"type:jsonb" json:"enc_title,omitempty"`
	EncDesc   *CipherText `gorm:"type:jsonb" json:"enc_desc,omitempty"`
	EncImages *CipherText `gorm:"type:jsonb" json:"enc_images,omitempty"`
	EncFiles  *CipherText `gorm:"type:jsonb" json:"enc_files,omitempty"`

	CalendarStamp *int64    `json:"calendarStamp,omitempty"`
	RemindStamp   *int64    `json:"remindStamp,omitempty"`
	WhenStamp     *int64    `json:"whenStamp,omitempty"`
	RemindMe      *RemindMe `gorm:"type:jsonb" json:"remindMe,omitempty"`

	EmojiData EmojiData `gorm:"type:jsonb" json:"emojiData"`

	ParentThread   *ContentID `gorm:"type:uuid;index" json:"parentThread,omitempty"`
	ParentComment  *ContentID `gorm:"type:uuid" json:"parentComment,omitempty"`
	ReplyToComment *ContentID `gorm:"type:uuid" json:"replyToComment,omitempty"`

	PinStamp     *int64 `json:"pinStamp,omitempty"` // 0 means unpinned
	CreatedStamp int64  `gorm:"not null;index" json:"createdStamp"`
	EditedStamp  int64  `gorm:"not null;index" json:"editedStamp"`
	RemovedStamp *int64 `json:"removedStamp,omitempty"`

	TagIDs      StringList `gorm:"type:jsonb" json:"tagIds,omitempty"`
	TagSearched StringList `gorm:"type:jsonb" json:"tagSearched,omitempty"`
	StateID     *string    `json:"stateId,omitempty"`
	StateStamp  *int64     `json:"stateStamp,omitempty"`

	Config *ContentConfig `gorm:"type:jsonb" json:"config,omitempty"`

	LevelOne       int `gorm:"not null;default:0" json:"levelOne"`
	LevelOneAndTwo int `gorm:"not null;default:0" json:"levelOneAndTwo"`

	InsertedStamp int64 `gorm:"not null" json:"insertedStamp"`
	UpdatedStamp  int64 `gorm:"not null" json:"updatedStamp"`
}

// BeforeCreate hook to generate ID if not set
func (c *Content) BeforeCreate(tx *gorm.DB) error {
	if c.ID.IsZero() {
		c.ID = NewContentID()
	}
	return nil
}

// IsThread reports whether this content is a top-level post.
func (c *Content) IsThread() bool { return c.InfoType == InfoThread }

// GuardConfig returns the config bag, allocating it on first use.
func (c *Content) GuardConfig() *ContentConfig {
	if c.Config == nil {
		c.Config = &ContentConfig{}
	}
	return c.Config
}

// Draft is an in-progress, unpublished content. It is superseded once the
// content it edits is posted, or discarded by the client.
type Draft struct {
	ID       DraftID     `gorm:"type:uuid;primary_key" json:"id"`
	FirstID  string      `gorm:"index;not null" json:"first_id"`
	UserID   UserID      `gorm:"type:uuid;not null;index" json:"user"`
	SpaceID  WorkspaceID `gorm:"type:uuid;not null;index" json:"spaceId"`

	SpaceType SpaceType   `gorm:"not null" json:"spaceType"`
	InfoType  InfoType    `gorm:"not null" json:"infoType"`
	OState    OStateDraft `gorm:"not null" json:"oState"`
	VisScope  VisScope    `json:"visScope,omitempty"`

	ThreadEdited   *ContentID `gorm:"type:uuid;index" json:"threadEdited,omitempty"`
	CommentEdited  *ContentID `gorm:"type:uuid;index" json:"commentEdited,omitempty"`
	ParentThread   *ContentID `gorm:"type:uuid" json:"parentThread,omitempty"`
	ParentComment  *ContentID `gorm:"type:uuid" json:"parentComment,omitempty"`
	ReplyToComment *ContentID `gorm:"type:uuid" json:"replyToComment,omitempty"`

	EncTitle  *CipherText `gorm:"type:jsonb" json:"enc_title,omitempty"`
	EncDesc   *CipherText `gorm:"type:jsonb" json:"enc_desc,omitempty"`
	EncImages *CipherText `gorm:"type:jsonb" json:"enc_images,omitempty"`
	EncFiles  *CipherText `gorm:"type:jsonb" json:"enc_files,omitempty"`

	WhenStamp  *int64     `json:"whenStamp,omitempty"`
	RemindMe   *RemindMe  `gorm:"type:jsonb" json:"remindMe,omitempty"`
	TagIDs     StringList `gorm:"type:jsonb" json:"tagIds,omitempty"`
	StateID    *string    `json:"stateId,omitempty"`
	StateStamp *int64     `json:"stateStamp,omitempty"`

	// EditedStamp is when the user actually touched the draft; it is the
	// staleness guard for draft-set and draft-clear.
	EditedStamp int64 `gorm:"not null" json:"editedStamp"`

	InsertedStamp int64 `gorm:"not null" json:"insertedStamp"`
	UpdatedStamp  int64 `gorm:"not null" json:"updatedStamp"`
}

// BeforeCreate hook to generate ID if not set
func (d *Draft) BeforeCreate(tx *gorm.DB) error {
	if d.ID.IsZero() {
		d.ID = NewDraftID()
	}
	return nil
}

// Collection is one user's relationship to one content: a favorite or an
// emoji reaction. OperateStamp is its optimistic-concurrency guard and
// SortStamp orders the favorites list.
type Collection struct {
	ID       CollectionID `gorm:"type:uuid;primary_key" json:"id"`
	FirstID  string       `gorm:"index;not null" json:"first_id"`
	UserID   UserID       `gorm:"type:uuid;not null;index" json:"user"`
	MemberID *MemberID    `gorm:"type:uuid" json:"member,omitempty"`
	SpaceID  WorkspaceID  `gorm:"type:uuid;not null" json:"spaceId"`

	SpaceType SpaceType        `gorm:"not null" json:"spaceType"`
	InfoType  CollectionType   `gorm:"not null" json:"infoType"`
	ForType   InfoType         `gorm:"not null" json:"forType"`
	OState    OStateCollection `gorm:"not null" json:"oState"`

	ContentID    ContentID `gorm:"type:uuid;not null;index" json:"content_id"`
	Emoji        string    `json:"emoji,omitempty"` // percent-encoded
	OperateStamp int64     `gorm:"not null" json:"operateStamp"`
	SortStamp    int64     `gorm:"not null;index" json:"sortStamp"`

	InsertedStamp int64 `gorm:"not null" json:"insertedStamp"`
	UpdatedStamp  int64 `gorm:"not null" json:"updatedStamp"`
}

// BeforeCreate hook to generate ID if not set
func (c *Collection) BeforeCreate(tx *gorm.DB) error {
	if c.ID.IsZero() {
		c.ID = NewCollectionID()
	}
	return nil
}

// Member is a user's identity within one workspace, distinct from the global
// User account.
type Member struct {
	ID      MemberID    `gorm:"type:uuid;primary_key" json:"id"`
	UserID  UserID      `gorm:"type:uuid;not null;index" json:"user"`
	SpaceID WorkspaceID `gorm:"type:uuid;not null;index" json:"spaceId"`

	SpaceType SpaceType    `gorm:"not null" json:"spaceType"`
	OState    OStateMember `gorm:"not null" json:"oState"`

	Name   string      `json:"name,omitempty"`
	Avatar *ImageStore `gorm:"type:jsonb" json:"avatar,omitempty"`

	Config      *MemberConfig `gorm:"type:jsonb" json:"config,omitempty"`
	EditedStamp int64         `json:"editedStamp,omitempty"`

	InsertedStamp int64 `gorm:"not null" json:"insertedStamp"`
	UpdatedStamp  int64 `gorm:"not null" json:"updatedStamp"`
}

// BeforeCreate hook to generate ID if not set
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID.IsZero() {
		m.ID = NewMemberID()
	}
	return nil
}

// GuardConfig returns the config bag, allocating it on first use.
func (m *Member) GuardConfig() *MemberConfig {
	if m.Config == nil {
		m.Config = &MemberConfig{}
	}
	return m.Config
}

// Workspace is the tenant boundary. Shared structures (tag tree, kanban
// states) live here, each guarded by its own stamp.
type Workspace struct {
	ID      WorkspaceID `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID UserID      `gorm:"type:uuid;not null;index" json:"owner"`

	InfoType SpaceType `gorm:"not null" json:"infoType"`
	OState   OState    `gorm:"not null" json:"oState"`

	Name   string      `json:"name,omitempty"`
	Avatar *ImageStore `gorm:"type:jsonb" json:"avatar,omitempty"`

	StateConfig *StateConfig     `gorm:"type:jsonb" json:"stateConfig,omitempty"`
	TagList     TagList          `gorm:"type:jsonb" json:"tagList,omitempty"`
	Config      *WorkspaceConfig `gorm:"type:jsonb" json:"config,omitempty"`
	EditedStamp int64            `json:"editedStamp,omitempty"`

	InsertedStamp int64 `gorm:"not null" json:"insertedStamp"`
	UpdatedStamp  int64 `gorm:"not null" json:"updatedStamp"`
}

// BeforeCreate hook to generate ID if not set
func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.ID.IsZero() {
		w.ID = NewWorkspaceID()
	}
	return nil
}

// GuardConfig returns the config bag, allocating it on first use.
func (w *Workspace) GuardConfig() *WorkspaceConfig {
	if w.Config == nil {
		w.Config = &WorkspaceConfig{}
	}
	return w.Config
}

// User is a global account; workspace-local identity lives on Member.
type User struct {
	ID     UserID     `gorm:"type:uuid;primary_key" json:"id"`
	Email  string     `gorm:"unique;not null" json:"email"`
	Name   string     `json:"name,omitempty"`
	OState OStateUser `gorm:"not null" json:"oState"`

	InsertedStamp int64 `gorm:"not null" json:"insertedStamp"`
	UpdatedStamp  int64 `gorm:"not null" json:"updatedStamp"`
}

// BeforeCreate hook to generate ID if not set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID.IsZero() {
		u.ID = NewUserID()
	}
	return nil
}

// Session is an issued bearer token. The serial lives in the cache for the
// fast path; this row is the durable fallback across restarts.
type Session struct {
	Token       string `gorm:"primary_key" json:"token"`
	UserID      UserID `gorm:"type:uuid;not null;index" json:"userId"`
	ExpireStamp int64  `gorm:"not null" json:"expireStamp"`
	IsOn        bool   `gorm:"not null" json:"isOn"`

	InsertedStamp int64 `gorm:"not null" json:"insertedStamp"`
	UpdatedStamp  int64 `gorm:"not null" json:"updatedStamp"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(nowStamp int64) bool {
	return !s.IsOn || nowStamp >= s.ExpireStamp
}
