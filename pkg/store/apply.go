package store

import (
	"fmt"

	"github.com/flashnote/flashnote/pkg/models"
)

// The Apply*Patch functions mutate an entity in place according to a patch.
// The memory backend persists through them, and the sync batch cache uses
// them to keep its cached rows consistent with the updates it accumulates.
//
// Value conventions per field kind:
//   - plain stamps and counters: int64 / int
//   - optional stamps and strings: the plain value; apply takes its address
//   - document fields (configs, remindMe, ciphertexts): the pointer type
//   - removal: [Remove], which zeroes the field

// ApplyContentPatch applies patch to a content row.
func ApplyContentPatch(c *models.Content, patch FieldPatch) error {
	for field, op := range patch {
		switch field {
		case FieldOState:
			if op.IsRemove() {
				return fmt.Errorf("cannot remove field %s", field)
			}
			c.OState = op.Value().(models.OState)
		case FieldVisScope:
			if op.IsRemove() {
				return fmt.Errorf("cannot remove field %s", field)
			}
			c.VisScope = op.Value().(models.VisScope)
		case FieldStorageState:
			if op.IsRemove() {
				return fmt.Errorf("cannot remove field %s", field)
			}
			c.StorageState = op.Value().(models.StorageState)
		case FieldEncTitle:
			c.EncTitle = cipherOf(op)
		case FieldEncDesc:
			c.EncDesc = cipherOf(op)
		case FieldEncImages:
			c.EncImages = cipherOf(op)
		case FieldEncFiles:
			c.EncFiles = cipherOf(op)
		case FieldCalendarStamp:
			c.CalendarStamp = stampOf(op)
		case FieldRemindStamp:
			c.RemindStamp = stampOf(op)
		case FieldWhenStamp:
			c.WhenStamp = stampOf(op)
		case FieldPinStamp:
			c.PinStamp = stampOf(op)
		case FieldRemovedStamp:
			c.RemovedStamp = stampOf(op)
		case FieldStateStamp:
			c.StateStamp = stampOf(op)
		case FieldEditedStamp:
			c.EditedStamp = mustStamp(op)
		case FieldUpdatedStamp:
			c.UpdatedStamp = mustStamp(op)
		case FieldRemindMe:
			if op.IsRemove() {
				c.RemindMe = nil
			} else {
				c.RemindMe = op.Value().(*models.RemindMe)
			}
		case FieldEmojiData:
			if op.IsRemove() {
				return fmt.Errorf("cannot remove field %s", field)
			}
			c.EmojiData = op.Value().(models.EmojiData)
		case FieldTagIDs:
			c.TagIDs = stringsOf(op)
		case FieldTagSearched:
			c.TagSearched = stringsOf(op)
		case FieldStateID:
			if op.IsRemove() {
				c.StateID = nil
			} else {
				v := op.Value().(string)
				c.StateID = &v
			}
		case FieldConfig:
			if op.IsRemove() {
				c.Config = nil
			} else {
				c.Config = op.Value().(*models.ContentConfig)
			}
		case FieldLevelOne:
			c.LevelOne = mustInt(op)
		case FieldLevelOneAndTwo:
			c.LevelOneAndTwo = mustInt(op)
		default:
			return fmt.Errorf("unknown content field %q", field)
		}
	}
	return nil
}

// ApplyDraftPatch applies patch to a draft row.
func ApplyDraftPatch(d *models.Draft, patch FieldPatch) error {
	for field, op := range patch {
		switch field {
		case FieldOState:
			if op.IsRemove() {
				return fmt.Errorf("cannot remove field %s", field)
			}
			d.OState = op.Value().(models.OStateDraft)
		case FieldInfoType:
			if op.IsRemove() {
				return fmt.Errorf("cannot remove field %s", field)
			}
			d.InfoType = op.Value().(models.InfoType)
		case FieldVisScope:
			if op.IsRemove() {
				d.VisScope = ""
			} else {
				d.VisScope = op.Value().(models.VisScope)
			}
		case FieldEncTitle:
			d.EncTitle = cipherOf(op)
		case FieldEncDesc:
			d.EncDesc = cipherOf(op)
		case FieldEncImages:
			d.EncImages = cipherOf(op)
		case FieldEncFiles:
			d.EncFiles = cipherOf(op)
		case FieldThreadEdited:
			d.ThreadEdited = contentIDOf(op)
		case FieldCommentEdited:
			d.CommentEdited = contentIDOf(op)
		case FieldParentThread:
			d.ParentThread = contentIDOf(op)
		case FieldParentComment:
			d.ParentComment = contentIDOf(op)
		case FieldReplyToComment:
			d.ReplyToComment = contentIDOf(op)
		case FieldWhenStamp:
			d.WhenStamp = stampOf(op)
		case FieldStateStamp:
			d.StateStamp = stampOf(op)
		case FieldEditedStamp:
			d.EditedStamp = mustStamp(op)
		case FieldUpdatedStamp:
			d.UpdatedStamp = mustStamp(op)
		case FieldRemindMe:
			if op.IsRemove() {
				d.RemindMe = nil
			} else {
				d.RemindMe = op.Value().(*models.RemindMe)
			}
		case FieldTagIDs:
			d.TagIDs = stringsOf(op)
		case FieldStateID:
			if op.IsRemove() {
				d.StateID = nil
			} else {
				v := op.Value().(string)
				d.StateID = &v
			}
		default:
			return fmt.Errorf("unknown draft field %q", field)
		}
	}
	return nil
}

// ApplyCollectionPatch applies patch to a collection row.
func ApplyCollectionPatch(c *models.Collection, patch FieldPatch) error {
	for field, op := range patch {
		switch field {
		case FieldOState:
			if op.IsRemove() {
				return fmt.Errorf("cannot remove field %s", field)
			}
			c.OState = op.Value().(models.OStateCollection)
		case FieldEmoji:
			if op.IsRemove() {
				c.Emoji = ""
			} else {
				c.Emoji = op.Value().(string)
			}
		case FieldOperateStamp:
			c.OperateStamp = mustStamp(op)
		case FieldSortStamp:
			c.SortStamp = mustStamp(op)
		case FieldUpdatedStamp:
			c.UpdatedStamp = mustStamp(op)
		default:
			return fmt.Errorf("unknown collection field %q", field)
		}
	}
	return nil
}

// ApplyMemberPatch applies patch to a member row.
func ApplyMemberPatch(m *models.Member, patch FieldPatch) error {
	for field, op := range patch {
		switch field {
		case FieldOState:
			if op.IsRemove() {
				return fmt.Errorf("cannot remove field %s", field)
			}
			m.OState = op.Value().(models.OStateMember)
		case FieldName:
			if op.IsRemove() {
				m.Name = ""
			} else {
				m.Name = op.Value().(string)
			}
		case FieldAvatar:
			if op.IsRemove() {
				m.Avatar = nil
			} else {
				m.Avatar = op.Value().(*models.ImageStore)
			}
		case FieldConfig:
			if op.IsRemove() {
				m.Config = nil
			} else {
				m.Config = op.Value().(*models.MemberConfig)
			}
		case FieldEditedStamp:
			m.EditedStamp = mustStamp(op)
		case FieldUpdatedStamp:
			m.UpdatedStamp = mustStamp(op)
		default:
			return fmt.Errorf("unknown member field %q", field)
		}
	}
	return nil
}

// ApplyWorkspacePatch applies patch to a workspace row.
func ApplyWorkspacePatch(w *models.Workspace, patch FieldPatch) error {
	for field, op := range patch {
		switch field {
		case FieldOState:
			if op.IsRemove() {
				return fmt.Errorf("cannot remove field %s", field)
			}
			w.OState = op.Value().(models.OState)
		case FieldName:
			if op.IsRemove() {
				w.Name = ""
			} else {
				w.Name = op.Value().(string)
			}
		case FieldAvatar:
			if op.IsRemove() {
				w.Avatar = nil
			} else {
				w.Avatar = op.Value().(*models.ImageStore)
			}
		case FieldTagList:
			if op.IsRemove() {
				w.TagList = nil
			} else {
				w.TagList = op.Value().(models.TagList)
			}
		case FieldStateConfig:
			if op.IsRemove() {
				w.StateConfig = nil
			} else {
				w.StateConfig = op.Value().(*models.StateConfig)
			}
		case FieldConfig:
			if op.IsRemove() {
				w.Config = nil
			} else {
				w.Config = op.Value().(*models.WorkspaceConfig)
			}
		case FieldEditedStamp:
			w.EditedStamp = mustStamp(op)
		case FieldUpdatedStamp:
			w.UpdatedStamp = mustStamp(op)
		default:
			return fmt.Errorf("unknown workspace field %q", field)
		}
	}
	return nil
}

func cipherOf(op FieldOp) *models.CipherText {
	if op.IsRemove() {
		return nil
	}
	return op.Value().(*models.CipherText)
}

func stampOf(op FieldOp) *int64 {
	if op.IsRemove() {
		return nil
	}
	v := mustStamp(op)
	return &v
}

func mustStamp(op FieldOp) int64 {
	switch v := op.Value().(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	panic(fmt.Sprintf("stamp field holds %T", op.Value()))
}

func mustInt(op FieldOp) int {
	switch v := op.Value().(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	panic(fmt.Sprintf("counter field holds %T", op.Value()))
}

func stringsOf(op FieldOp) models.StringList {
	if op.IsRemove() {
		return nil
	}
	switch v := op.Value().(type) {
	case models.StringList:
		return v
	case []string:
		return models.StringList(v)
	}
	panic(fmt.Sprintf("string list field holds %T", op.Value()))
}

func contentIDOf(op FieldOp) *models.ContentID {
	if op.IsRemove() {
		return nil
	}
	switch v := op.Value().(type) {
	case models.ContentID:
		return &v
	case *models.ContentID:
		return v
	}
	panic(fmt.Sprintf("content id field holds %T", op.Value()))
}
