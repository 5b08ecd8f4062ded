package models

import "encoding/json"

// QueryAtom is one read query within a sync-get batch. TaskType selects the
// query; the remaining fields are interpreted per task.
type QueryAtom struct {
	TaskType QueryTask `json:"taskType"`
	TaskID   string    `json:"taskId"`

	// thread_list / content_list
	SpaceID       string         `json:"spaceId,omitempty"`
	ViewType      ListViewType   `json:"viewType,omitempty"`
	LoadType      string         `json:"loadType,omitempty"`
	Limit         int            `json:"limit,omitempty"`
	Skip          int            `json:"skip,omitempty"`
	CollectType   CollectionType `json:"collectType,omitempty"`
	EmojiSpecific string         `json:"emojiSpecific,omitempty"`
	TagID         string         `json:"tagId,omitempty"`
	Sort          SortWay        `json:"sort,omitempty"`
	LastItemStamp *int64         `json:"lastItemStamp,omitempty"`
	SpecificIDs   []string       `json:"specific_ids,omitempty"`
	ExcludedIDs   []string       `json:"excluded_ids,omitempty"`
	StateID       string         `json:"stateId,omitempty"`

	// thread_data / comment_list / check_contents
	ID           string   `json:"id,omitempty"`
	IDs          []string `json:"ids,omitempty"`
	TargetThread string   `json:"targetThread,omitempty"`
	CommentID    string   `json:"commentId,omitempty"`
	ParentWeWant string   `json:"parentWeWant,omitempty"`
	Grandparent  string   `json:"grandparent,omitempty"`
	BatchNum     int      `json:"batchNum,omitempty"`

	// draft_data
	DraftID       string `json:"draft_id,omitempty"`
	ThreadEdited  string `json:"threadEdited,omitempty"`
	CommentEdited string `json:"commentEdited,omitempty"`
}

// QueryTask is the closed vocabulary of sync-get queries.
type QueryTask string

const (
	QueryThreadList    QueryTask = "thread_list"
	QueryContentList   QueryTask = "content_list"
	QueryThreadData    QueryTask = "thread_data"
	QueryCommentList   QueryTask = "comment_list"
	QueryCheckContents QueryTask = "check_contents"
	QueryDraftData     QueryTask = "draft_data"
)

// Comment list load modes.
const (
	LoadUnderThread  = "under_thread"
	LoadFindChildren = "find_children"
	LoadFindParent   = "find_parent"
	LoadFindHottest  = "find_hottest"
)

// Content list load modes.
const (
	LoadEditFirst   = "EDIT_FIRST"
	LoadCreateFirst = "CREATE_FIRST"
)

// ParcelStatus tells the client whether a parcel carries data.
type ParcelStatus string

const (
	ParcelHasData  ParcelStatus = "has_data"
	ParcelNotFound ParcelStatus = "not_found"
	ParcelNoAuth   ParcelStatus = "no_auth"
)

// DownloadParcel wraps one content or draft in a sync-get result. A parcel
// whose status is not has_data carries only the id, so clients can drop rows
// they no longer may see.
type DownloadParcel struct {
	ID         string           `json:"id"`
	Status     ParcelStatus     `json:"status"`
	ParcelType string           `json:"parcelType"` // content or draft
	Content    *DownloadContent `json:"content,omitempty"`
	Draft      *DownloadDraft   `json:"draft,omitempty"`
}

// DownloadAuthor identifies who wrote a content, resolved against the
// author's own workspace membership.
type DownloadAuthor struct {
	SpaceID      string        `json:"space_id"`
	UserID       string        `json:"user_id"`
	MemberID     string        `json:"member_id,omitempty"`
	MemberName   string        `json:"member_name,omitempty"`
	MemberAvatar *ImageStore   `json:"member_avatar,omitempty"`
	MemberOState *OStateMember `json:"member_oState,omitempty"`
}

// DownloadCollection is the caller's own favorite or reaction attached to a
// downloaded content.
type DownloadCollection struct {
	ID           string           `json:"_id"`
	FirstID      string           `json:"first_id"`
	UserID       string           `json:"user"`
	MemberID     string           `json:"member,omitempty"`
	OState       OStateCollection `json:"oState"`
	Emoji        string           `json:"emoji,omitempty"`
	OperateStamp int64            `json:"operateStamp"`
	SortStamp    int64            `json:"sortStamp"`
}

// DownloadContent is a fully assembled content: decrypted payloads, author
// identity and the caller's own collection state.
type DownloadContent struct {
	ID      string `json:"_id"`
	FirstID string `json:"first_id"`

	IsMine bool           `json:"isMine"`
	Author DownloadAuthor `json:"author"`

	SpaceID   string    `json:"spaceId"`
	SpaceType SpaceType `json:"spaceType"`

	InfoType     InfoType     `json:"infoType"`
	OState       OState       `json:"oState"`
	VisScope     VisScope     `json:"visScope"`
	StorageState StorageState `json:"storageState"`

	Title  string          `json:"title,omitempty"`
	Desc   json.RawMessage `json:"desc,omitempty"`
	Images json.RawMessage `json:"images,omitempty"`
	Files  json.RawMessage `json:"files,omitempty"`

	CalendarStamp *int64    `json:"calendarStamp,omitempty"`
	RemindStamp   *int64    `json:"remindStamp,omitempty"`
	WhenStamp     *int64    `json:"whenStamp,omitempty"`
	RemindMe      *RemindMe `json:"remindMe,omitempty"`

	EmojiData EmojiData `json:"emojiData"`

	ParentThread   string `json:"parentThread,omitempty"`
	ParentComment  string `json:"parentComment,omitempty"`
	ReplyToComment string `json:"replyToComment,omitempty"`

	PinStamp     *int64 `json:"pinStamp,omitempty"`
	CreatedStamp int64  `json:"createdStamp"`
	EditedStamp  int64  `json:"editedStamp"`
	RemovedStamp *int64 `json:"removedStamp,omitempty"`

	TagIDs      []string `json:"tagIds,omitempty"`
	TagSearched []string `json:"tagSearched,omitempty"`
	StateID     *string  `json:"stateId,omitempty"`
	StateStamp  *int64   `json:"stateStamp,omitempty"`

	Config *ContentConfig `json:"config,omitempty"`

	LevelOne       int `json:"levelOne"`
	LevelOneAndTwo int `json:"levelOneAndTwo"`

	MyFavorite *DownloadCollection `json:"myFavorite,omitempty"`
	MyEmoji    *DownloadCollection `json:"myEmoji,omitempty"`
}

// DownloadDraft is a decrypted draft belonging to the caller.
type DownloadDraft struct {
	ID      string `json:"_id"`
	FirstID string `json:"first_id"`

	InfoType  InfoType    `json:"infoType"`
	OState    OStateDraft `json:"oState"`
	UserID    string      `json:"user"`
	SpaceID   string      `json:"spaceId"`
	SpaceType SpaceType   `json:"spaceType"`

	ThreadEdited   string `json:"threadEdited,omitempty"`
	CommentEdited  string `json:"commentEdited,omitempty"`
	ParentThread   string `json:"parentThread,omitempty"`
	ParentComment  string `json:"parentComment,omitempty"`
	ReplyToComment string `json:"replyToComment,omitempty"`

	VisScope VisScope `json:"visScope,omitempty"`

	Title  string          `json:"title,omitempty"`
	Desc   json.RawMessage `json:"desc,omitempty"`
	Images json.RawMessage `json:"images,omitempty"`
	Files  json.RawMessage `json:"files,omitempty"`

	WhenStamp   *int64    `json:"whenStamp,omitempty"`
	RemindMe    *RemindMe `json:"remindMe,omitempty"`
	TagIDs      []string  `json:"tagIds,omitempty"`
	StateID     *string   `json:"stateId,omitempty"`
	StateStamp  *int64    `json:"stateStamp,omitempty"`
	EditedStamp int64     `json:"editedStamp"`
}

// QueryResult is the per-query outcome of a sync-get batch.
type QueryResult struct {
	Code   Code             `json:"code"`
	TaskID string           `json:"taskId"`
	ErrMsg string           `json:"errMsg,omitempty"`
	List   []DownloadParcel `json:"list,omitempty"`
}
