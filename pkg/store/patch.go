package store

// FieldOp is one tagged operation within a partial update: either set the
// field to a value or remove it from the row. A field absent from the patch
// is left untouched. The three states matter because the document backend
// distinguishes "field absent" from "field present with null", and the
// encrypted-payload logic depends on absence.
type FieldOp struct {
	value  any
	remove bool
}

// Set returns an op that writes value into the field.
func Set(value any) FieldOp { return FieldOp{value: value} }

// Remove is the op that removes the field from the row.
var Remove = FieldOp{remove: true}

// IsRemove reports whether the op removes the field.
func (op FieldOp) IsRemove() bool { return op.remove }

// Value returns the value to set; only meaningful when IsRemove is false.
func (op FieldOp) Value() any { return op.value }

// FieldPatch is a partial update: canonical field name to operation. Backends
// translate it into their own idiom (SET/UNSET clauses, UPDATE maps with
// NULLs, in-place struct mutation).
type FieldPatch map[string]FieldOp

// Merge folds other into p, with other winning on shared fields.
func (p FieldPatch) Merge(other FieldPatch) {
	for k, op := range other {
		p[k] = op
	}
}

// Canonical field names, shared by every backend and the sync batch cache.
// They match the JSON wire names of the entities.
const (
	FieldOState       = "oState"
	FieldVisScope     = "visScope"
	FieldStorageState = "storageState"
	FieldInfoType     = "infoType"

	FieldEncTitle  = "enc_title"
	FieldEncDesc   = "enc_desc"
	FieldEncImages = "enc_images"
	FieldEncFiles  = "enc_files"

	FieldCalendarStamp = "calendarStamp"
	FieldCreatedStamp  = "createdStamp"
	FieldRemindStamp   = "remindStamp"
	FieldWhenStamp     = "whenStamp"
	FieldRemindMe      = "remindMe"
	FieldPinStamp      = "pinStamp"
	FieldEditedStamp   = "editedStamp"
	FieldRemovedStamp  = "removedStamp"
	FieldStateStamp    = "stateStamp"
	FieldOperateStamp  = "operateStamp"
	FieldSortStamp     = "sortStamp"
	FieldUpdatedStamp  = "updatedStamp"

	FieldEmojiData      = "emojiData"
	FieldEmoji          = "emoji"
	FieldTagIDs         = "tagIds"
	FieldTagSearched    = "tagSearched"
	FieldStateID        = "stateId"
	FieldConfig         = "config"
	FieldLevelOne       = "levelOne"
	FieldLevelOneAndTwo = "levelOneAndTwo"

	FieldName        = "name"
	FieldAvatar      = "avatar"
	FieldTagList     = "tagList"
	FieldStateConfig = "stateConfig"

	FieldThreadEdited   = "threadEdited"
	FieldCommentEdited  = "commentEdited"
	FieldParentThread   = "parentThread"
	FieldParentComment  = "parentComment"
	FieldReplyToComment = "replyToComment"
)
