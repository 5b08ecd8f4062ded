package sync

import (
	"context"
	"errors"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

// postComment creates a comment and bumps the denormalized reply counters of
// its superiors. Duplicate delivery is caught by the first_id check before
// any counter moves.
func (b *batch) postComment(ctx context.Context, comment *models.UploadComment, opt operationOpt) (models.AtomResult, error) {
	if comment.FirstID == "" || comment.SpaceID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "spaceId and first_id are required"), nil
	}
	if comment.CreatedStamp == nil || comment.EditedStamp == nil {
		return errResult(models.CodeBadRequest, opt.taskID, "createdStamp and editedStamp are required"), nil
	}

	spaceID, err := models.ParseWorkspaceID(comment.SpaceID)
	if err != nil {
		return errResult(models.CodeNotFound, opt.taskID, "workspace not found"), nil
	}
	if !b.inSpace(spaceID) {
		return errResult(models.CodeForbidden, opt.taskID, "you are not in the workspace"), nil
	}
	memberID, err := b.myMemberID(ctx, spaceID)
	if err != nil {
		return models.AtomResult{}, err
	}
	if memberID == nil {
		return errResult(models.CodeForbidden, opt.taskID, "you do not have a membership in the workspace"), nil
	}

	spaceType, res, ok, err := b.checkSpace(ctx, opt.taskID, spaceID)
	if err != nil || !ok {
		return res, err
	}

	dup, err := b.isDuplicateCreate(ctx, comment.FirstID, *comment.CreatedStamp)
	if err != nil {
		return models.AtomResult{}, err
	}
	if dup {
		return duplicateResult(opt.taskID), nil
	}

	sealed, err := b.sealPayload("", comment.UploadBase)
	if err != nil {
		return models.AtomResult{}, err
	}

	row := &models.Content{
		FirstID:  comment.FirstID,
		UserID:   b.user.ID,
		MemberID: memberID,
		SpaceID:  spaceID,

		SpaceType:    spaceType,
		InfoType:     models.InfoComment,
		OState:       models.OStateOK,
		VisScope:     models.VisDefault,
		StorageState: models.StorageCloud,

		EncDesc:   sealed.desc,
		EncImages: sealed.images,
		EncFiles:  sealed.files,

		CreatedStamp: *comment.CreatedStamp,
		EditedStamp:  *comment.EditedStamp,

		ParentThread:   parseOptionalContentID(comment.ParentThread),
		ParentComment:  parseOptionalContentID(comment.ParentComment),
		ReplyToComment: parseOptionalContentID(comment.ReplyToComment),
	}
	if comment.EmojiData != nil {
		row.EmojiData = *comment.EmojiData
	}

	if err := b.insertContent(ctx, row); err != nil {
		return models.AtomResult{}, err
	}
	if err := b.bumpSuperiorCounts(ctx, row); err != nil {
		return models.AtomResult{}, err
	}
	return createdResult(opt.taskID, comment.FirstID, row.ID.String()), nil
}

// commentEdit replaces the comment's payload, guarded by editedStamp.
func (b *batch) commentEdit(ctx context.Context, comment *models.UploadComment, opt operationOpt) (models.AtomResult, error) {
	if comment.ID == "" || comment.EditedStamp == nil {
		return errResult(models.CodeBadRequest, opt.taskID, "id and editedStamp are required"), nil
	}
	content, res, ok, err := b.findEditableContent(ctx, opt.taskID, comment.ID)
	if err != nil || !ok {
		return res, err
	}
	if content.EditedStamp > *comment.EditedStamp {
		return staleResult(opt.taskID), nil
	}

	sealed, err := b.sealPayload("", comment.UploadBase)
	if err != nil {
		return models.AtomResult{}, err
	}

	patch := store.FieldPatch{
		store.FieldEditedStamp: store.Set(*comment.EditedStamp),
	}
	sealed.patch(patch, false)

	if err := b.updateContent(ctx, content.ID, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// commentDelete flips the comment to DELETED through the shared lifecycle
// path, then walks its superiors to take back the counters its creation
// added.
func (b *batch) commentDelete(ctx context.Context, comment *models.UploadComment, opt operationOpt) (models.AtomResult, error) {
	res, err := b.contentOState(ctx, contentTarget{comment: comment}, opt, models.OStateDeleted)
	if err != nil || res.Code != models.CodeOK {
		return res, err
	}

	id, err := models.ParseContentID(comment.ID)
	if err != nil {
		return res, nil
	}
	deleted, err := b.getContent(ctx, id)
	if err != nil {
		return models.AtomResult{}, err
	}

	parentThread := deleted.ParentThread
	parentComment := deleted.ParentComment
	replyToComment := deleted.ReplyToComment

	if parentThread != nil && parentComment == nil && replyToComment == nil {
		if err := b.dropCommentCount(ctx, *parentThread, 1, 1); err != nil {
			return models.AtomResult{}, err
		}
		return res, nil
	}
	if replyToComment != nil {
		if err := b.dropCommentCount(ctx, *replyToComment, 1, 1); err != nil {
			return models.AtomResult{}, err
		}
	}
	if parentComment != nil {
		if replyToComment == nil || *parentComment != *replyToComment {
			if err := b.dropCommentCount(ctx, *parentComment, 0, 1); err != nil {
				return models.AtomResult{}, err
			}
		} else if parentThread != nil {
			if err := b.dropCommentCount(ctx, *parentThread, 0, 1); err != nil {
				return models.AtomResult{}, err
			}
		}
	}
	return res, nil
}

// bumpSuperiorCounts distributes a new comment across the reply counters: a
// top-level comment counts against its thread for both levels; a reply
// counts against the comment it replies to, and one more level lands on the
// parent comment or, when parent and reply target coincide, on the thread.
func (b *batch) bumpSuperiorCounts(ctx context.Context, comment *models.Content) error {
	parentThread := comment.ParentThread
	parentComment := comment.ParentComment
	replyToComment := comment.ReplyToComment
	stamp := comment.CreatedStamp

	if parentThread != nil && parentComment == nil && replyToComment == nil {
		return b.addCommentCount(ctx, *parentThread, stamp, 1, 1)
	}
	if replyToComment != nil {
		if err := b.addCommentCount(ctx, *replyToComment, stamp, 1, 1); err != nil {
			return err
		}
	}
	if parentComment != nil {
		if replyToComment == nil || *parentComment != *replyToComment {
			return b.addCommentCount(ctx, *parentComment, stamp, 0, 1)
		}
		if parentThread != nil {
			return b.addCommentCount(ctx, *parentThread, stamp, 0, 1)
		}
	}
	return nil
}

// addCommentCount bumps a superior's counters. A missing superior is
// ignored; the comment still exists, its superior may have been deleted
// concurrently.
func (b *batch) addCommentCount(ctx context.Context, id models.ContentID, stamp int64, levelOne, levelOneAndTwo int) error {
	content, err := b.getContent(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	cfg := content.GuardConfig()
	if stamp > cfg.LastUpdateLevelNum {
		cfg.LastUpdateLevelNum = stamp
	}

	patch := store.FieldPatch{
		store.FieldLevelOne:       store.Set(content.LevelOne + levelOne),
		store.FieldLevelOneAndTwo: store.Set(content.LevelOneAndTwo + levelOneAndTwo),
		store.FieldConfig:         store.Set(cfg),
	}
	return b.updateContent(ctx, id, patch)
}

// dropCommentCount takes counters back, clamping at zero.
func (b *batch) dropCommentCount(ctx context.Context, id models.ContentID, levelOne, levelOneAndTwo int) error {
	content, err := b.getContent(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	num1 := content.LevelOne - levelOne
	if num1 < 0 {
		num1 = 0
	}
	num2 := content.LevelOneAndTwo - levelOneAndTwo
	if num2 < 0 {
		num2 = 0
	}

	patch := store.FieldPatch{
		store.FieldLevelOne:       store.Set(num1),
		store.FieldLevelOneAndTwo: store.Set(num2),
	}
	return b.updateContent(ctx, id, patch)
}

// parseOptionalContentID turns a wire id into a typed id, nil when absent or
// unresolvable (a first_id whose create never reached the server).
func parseOptionalContentID(s string) *models.ContentID {
	if s == "" {
		return nil
	}
	id, err := models.ParseContentID(s)
	if err != nil {
		return nil
	}
	return &id
}
