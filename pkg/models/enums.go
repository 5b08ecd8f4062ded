package models

// OState represents the lifecycle state of a content row
type OState string

const (
	OStateOK      OState = "OK"
	OStateRemoved OState = "REMOVED"
	OStateDeleted OState = "DELETED"
)

// OStateCollection represents the lifecycle state of a collection row
type OStateCollection string

const (
	CollectionOK       OStateCollection = "OK"
	CollectionCanceled OStateCollection = "CANCELED"
)

// OStateMember represents the lifecycle state of a member row
type OStateMember string

const (
	MemberOK          OStateMember = "OK"
	MemberLeft        OStateMember = "LEFT"
	MemberDeactivated OStateMember = "DEACTIVATED"
	MemberDeleted     OStateMember = "DELETED"
)

// OStateDraft represents the lifecycle state of a draft row
type OStateDraft string

const (
	DraftOK      OStateDraft = "OK"
	DraftPosted  OStateDraft = "POSTED"
	DraftDeleted OStateDraft = "DELETED"
	DraftLocal   OStateDraft = "LOCAL"
)

// OStateUser represents the lifecycle state of a user account
type OStateUser string

const (
	UserNormal      OStateUser = "NORMAL"
	UserDeactivated OStateUser = "DEACTIVATED"
	UserLocked      OStateUser = "LOCK"
	UserRemoved     OStateUser = "REMOVED"
	UserDeleted     OStateUser = "DELETED"
)

// InfoType distinguishes threads from comments within the contents table
type InfoType string

const (
	InfoThread  InfoType = "THREAD"
	InfoComment InfoType = "COMMENT"
)

// CollectionType distinguishes emoji reactions from favorites
type CollectionType string

const (
	CollectionExpress  CollectionType = "EXPRESS"
	CollectionFavorite CollectionType = "FAVORITE"
)

// SpaceType represents the kind of workspace
type SpaceType string

const (
	SpaceMe   SpaceType = "ME"
	SpaceTeam SpaceType = "TEAM"
)

// VisScope represents who may view a content
type VisScope string

const (
	VisDefault       VisScope = "DEFAULT"
	VisPublic        VisScope = "PUBLIC"
	VisLoginRequired VisScope = "LOGIN_REQUIRED"
)

// StorageState tells whether a content's payload lives on the server
type StorageState string

const (
	StorageCloud     StorageState = "CLOUD"
	StorageOnlyLocal StorageState = "ONLY_LOCAL"
)

// SortWay is the requested ordering for list queries
type SortWay string

const (
	SortDesc SortWay = "desc"
	SortAsc  SortWay = "asc"
)

// ListViewType selects which thread list a client is paging through
type ListViewType string

const (
	ViewIndex       ListViewType = "INDEX"
	ViewPinned      ListViewType = "PINNED"
	ViewFavorite    ListViewType = "FAVORITE"
	ViewTrash       ListViewType = "TRASH"
	ViewTag         ListViewType = "TAG"
	ViewState       ListViewType = "STATE"
	ViewCalendar    ListViewType = "CALENDAR"
	ViewTodayFuture ListViewType = "TODAY_FUTURE"
	ViewPast        ListViewType = "PAST"
)
