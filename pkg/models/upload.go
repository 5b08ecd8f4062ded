package models

import "encoding/json"

// Atom is one client-submitted mutation within a sync-set batch. Exactly one
// of the entity payloads must be present, determined by TaskType.
type Atom struct {
	TaskType TaskType `json:"taskType"`
	TaskID   string   `json:"taskId"`

	Thread     *UploadThread     `json:"thread,omitempty"`
	Comment    *UploadComment    `json:"comment,omitempty"`
	Draft      *UploadDraft      `json:"draft,omitempty"`
	Member     *UploadMember     `json:"member,omitempty"`
	Workspace  *UploadWorkspace  `json:"workspace,omitempty"`
	Collection *UploadCollection `json:"collection,omitempty"`

	// OperateStamp is when the client performed the operation; it is
	// compared against per-field guard stamps on the server.
	OperateStamp int64 `json:"operateStamp"`
}

// AtomResult is the per-atom outcome reported back to the client, in input
// order. FirstID and NewID are only set when a create allocated a server id.
type AtomResult struct {
	Code    Code   `json:"code"`
	TaskID  string `json:"taskId,omitempty"`
	ErrMsg  string `json:"errMsg,omitempty"`
	FirstID string `json:"first_id,omitempty"`
	NewID   string `json:"new_id,omitempty"`
}

// UploadBase carries the fields shared by thread, comment and draft payloads.
// ID is the server id for already-synced rows; FirstID is the client's
// permanent temporary id, required on creates. Desc, Images and Files are
// structured payloads the server seals before persisting.
type UploadBase struct {
	ID      string `json:"id,omitempty"`
	FirstID string `json:"first_id,omitempty"`
	SpaceID string `json:"spaceId,omitempty"`

	Desc   json.RawMessage `json:"desc,omitempty"`
	Images json.RawMessage `json:"images,omitempty"`
	Files  json.RawMessage `json:"files,omitempty"`

	EditedStamp *int64 `json:"editedStamp,omitempty"`
}

// UploadThread is the thread payload of an atom.
type UploadThread struct {
	UploadBase

	// OState is only meaningful on thread-post; DELETED is rejected there.
	OState OState `json:"oState,omitempty"`

	Title         string    `json:"title,omitempty"`
	CalendarStamp *int64    `json:"calendarStamp,omitempty"`
	RemindStamp   *int64    `json:"remindStamp,omitempty"`
	WhenStamp     *int64    `json:"whenStamp,omitempty"`
	RemindMe      *RemindMe `json:"remindMe,omitempty"`
	PinStamp      *int64    `json:"pinStamp,omitempty"`

	CreatedStamp *int64 `json:"createdStamp,omitempty"`
	RemovedStamp *int64 `json:"removedStamp,omitempty"`

	TagIDs      []string `json:"tagIds,omitempty"`
	TagSearched []string `json:"tagSearched,omitempty"`
	StateID     *string  `json:"stateId,omitempty"`
	StateStamp  *int64   `json:"stateStamp,omitempty"`

	EmojiData *EmojiData     `json:"emojiData,omitempty"`
	Config    *ContentConfig `json:"config,omitempty"`

	// ShowCountdown is only meaningful on thread-hourglass.
	ShowCountdown *bool `json:"showCountdown,omitempty"`
}

// UploadComment is the comment payload of an atom.
type UploadComment struct {
	UploadBase

	ParentThread   string `json:"parentThread,omitempty"`
	ParentComment  string `json:"parentComment,omitempty"`
	ReplyToComment string `json:"replyToComment,omitempty"`
	CreatedStamp   *int64 `json:"createdStamp,omitempty"`

	// EmojiData is only meaningful on comment-post.
	EmojiData *EmojiData `json:"emojiData,omitempty"`
}

// UploadDraft is the draft payload of an atom.
type UploadDraft struct {
	UploadBase

	OState   OStateDraft `json:"oState,omitempty"`
	InfoType InfoType    `json:"infoType,omitempty"` // required on first draft-set

	ThreadEdited   string `json:"threadEdited,omitempty"`
	CommentEdited  string `json:"commentEdited,omitempty"`
	ParentThread   string `json:"parentThread,omitempty"`
	ParentComment  string `json:"parentComment,omitempty"`
	ReplyToComment string `json:"replyToComment,omitempty"`

	Title      string    `json:"title,omitempty"`
	WhenStamp  *int64    `json:"whenStamp,omitempty"`
	RemindMe   *RemindMe `json:"remindMe,omitempty"`
	TagIDs     []string  `json:"tagIds,omitempty"`
	StateID    *string   `json:"stateId,omitempty"`
	StateStamp *int64    `json:"stateStamp,omitempty"`
}

// UploadMember is the member payload of an atom.
type UploadMember struct {
	ID     string      `json:"id"`
	Name   string      `json:"name,omitempty"`
	Avatar *ImageStore `json:"avatar,omitempty"`
}

// UploadWorkspace is the workspace payload of an atom.
type UploadWorkspace struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Avatar      *ImageStore  `json:"avatar,omitempty"`
	StateConfig *StateConfig `json:"stateConfig,omitempty"`
	TagList     []TagView    `json:"tagList,omitempty"`
}

// UploadCollection is the collection payload of an atom.
type UploadCollection struct {
	ID        string           `json:"id,omitempty"`
	FirstID   string           `json:"first_id"`
	OState    OStateCollection `json:"oState"`
	ContentID string           `json:"content_id"`
	Emoji     string           `json:"emoji,omitempty"`
	SortStamp int64            `json:"sortStamp"`
}
