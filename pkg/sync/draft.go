package sync

import (
	"context"
	"errors"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

// draftSet upserts a draft: without a server id it creates, with one it
// edits. The guard is the draft's own editedStamp.
func (b *batch) draftSet(ctx context.Context, draft *models.UploadDraft, opt operationOpt) (models.AtomResult, error) {
	if draft.ID == "" && draft.FirstID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "id or first_id is required"), nil
	}
	if draft.EditedStamp == nil {
		return errResult(models.CodeBadRequest, opt.taskID, "editedStamp is required"), nil
	}

	if draft.ID == "" || draft.ID == draft.FirstID {
		if draft.FirstID == "" || draft.SpaceID == "" || draft.InfoType == "" {
			return errResult(models.CodeBadRequest, opt.taskID,
				"first_id, spaceId and infoType are required to create a draft"), nil
		}
		return b.draftCreate(ctx, draft, opt)
	}
	return b.draftEdit(ctx, draft, opt)
}

func (b *batch) draftCreate(ctx context.Context, draft *models.UploadDraft, opt operationOpt) (models.AtomResult, error) {
	// when the draft edits an existing content, the caller must be allowed
	// to edit that content
	editedID := draft.ThreadEdited
	if editedID == "" {
		editedID = draft.CommentEdited
	}
	if editedID != "" {
		id, err := models.ParseContentID(editedID)
		if err != nil {
			return errResult(models.CodeNotFound, opt.taskID, "content not found"), nil
		}
		content, err := b.getContent(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errResult(models.CodeNotFound, opt.taskID, "content not found"), nil
			}
			return models.AtomResult{}, err
		}
		if !b.canEditContent(content) {
			return errResult(models.CodeForbidden, opt.taskID, "permission denied"), nil
		}
	}

	spaceID, err := models.ParseWorkspaceID(draft.SpaceID)
	if err != nil {
		return errResult(models.CodeNotFound, opt.taskID, "workspace not found"), nil
	}
	spaceType, res, ok, err := b.checkSpace(ctx, opt.taskID, spaceID)
	if err != nil || !ok {
		return res, err
	}

	sealed, err := b.sealPayload(draft.Title, draft.UploadBase)
	if err != nil {
		return models.AtomResult{}, err
	}

	row := &models.Draft{
		FirstID: draft.FirstID,
		UserID:  b.user.ID,
		SpaceID: spaceID,

		SpaceType: spaceType,
		InfoType:  draft.InfoType,
		OState:    models.DraftOK,

		ThreadEdited:   parseOptionalContentID(draft.ThreadEdited),
		CommentEdited:  parseOptionalContentID(draft.CommentEdited),
		ParentThread:   parseOptionalContentID(draft.ParentThread),
		ParentComment:  parseOptionalContentID(draft.ParentComment),
		ReplyToComment: parseOptionalContentID(draft.ReplyToComment),

		EncTitle:  sealed.title,
		EncDesc:   sealed.desc,
		EncImages: sealed.images,
		EncFiles:  sealed.files,

		WhenStamp:   draft.WhenStamp,
		RemindMe:    draft.RemindMe,
		TagIDs:      models.StringList(draft.TagIDs),
		StateID:     draft.StateID,
		StateStamp:  draft.StateStamp,
		EditedStamp: *draft.EditedStamp,
	}
	if err := b.insertDraft(ctx, row); err != nil {
		return models.AtomResult{}, err
	}
	return createdResult(opt.taskID, draft.FirstID, row.ID.String()), nil
}

func (b *batch) draftEdit(ctx context.Context, draft *models.UploadDraft, opt operationOpt) (models.AtomResult, error) {
	id, err := models.ParseDraftID(draft.ID)
	if err != nil {
		return errResult(models.CodeNotFound, opt.taskID, "draft not found"), nil
	}
	old, err := b.getDraft(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(models.CodeNotFound, opt.taskID, "draft not found"), nil
		}
		return models.AtomResult{}, err
	}

	if old.UserID != b.user.ID {
		return errResult(models.CodeForbidden, opt.taskID, "no permission to edit the draft"), nil
	}
	if old.OState == models.DraftPosted {
		return errResult(models.CodeForbidden, opt.taskID, "draft has been posted"), nil
	}
	if old.OState == models.DraftDeleted {
		return errResult(models.CodeForbidden, opt.taskID, "draft has been deleted"), nil
	}
	if old.EditedStamp >= *draft.EditedStamp {
		return staleResult(opt.taskID), nil
	}

	sealed, err := b.sealPayload(draft.Title, draft.UploadBase)
	if err != nil {
		return models.AtomResult{}, err
	}

	patch := store.FieldPatch{
		store.FieldOState:      store.Set(models.DraftOK),
		store.FieldEditedStamp: store.Set(*draft.EditedStamp),
	}
	sealed.patch(patch, true)
	setOrRemoveStamp(patch, store.FieldWhenStamp, draft.WhenStamp)
	setOrRemoveRemindMe(patch, store.FieldRemindMe, draft.RemindMe)
	setOrRemoveStrings(patch, store.FieldTagIDs, draft.TagIDs)
	setOrRemoveString(patch, store.FieldStateID, draft.StateID)
	setOrRemoveStamp(patch, store.FieldStateStamp, draft.StateStamp)

	if err := b.updateDraft(ctx, id, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// draftClear retires a draft: POSTED when its content went out, DELETED or
// LOCAL when the client discarded it. OK is not a valid target. The id may
// still be the client's first_id when the create never round-tripped, so an
// unknown id falls back to a first_id lookup. Clearing drops every encrypted
// field.
func (b *batch) draftClear(ctx context.Context, draft *models.UploadDraft, opt operationOpt) (models.AtomResult, error) {
	if draft.ID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "id is required"), nil
	}
	newOState := draft.OState
	switch newOState {
	case models.DraftPosted, models.DraftDeleted, models.DraftLocal:
	case models.DraftOK:
		return errResult(models.CodeBadRequest, opt.taskID, "oState cannot be OK"), nil
	default:
		return errResult(models.CodeBadRequest, opt.taskID, "oState is required"), nil
	}

	var old *models.Draft
	if id, err := models.ParseDraftID(draft.ID); err == nil {
		old, err = b.getDraft(ctx, id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return models.AtomResult{}, err
		}
	}
	if old == nil {
		found, err := b.sy.store.FindDraftByFirstID(ctx, b.user.ID, draft.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errResult(models.CodeNotFound, opt.taskID, "draft not found"), nil
			}
			return models.AtomResult{}, err
		}
		old = found
		if _, ok := b.drafts[old.ID]; !ok {
			b.drafts[old.ID] = &cachedRow[models.Draft]{data: old, patch: store.FieldPatch{}}
		}
	}

	if old.UserID != b.user.ID {
		return errResult(models.CodeForbidden, opt.taskID, "no permission to edit the draft"), nil
	}
	if old.OState == newOState {
		return duplicateResult(opt.taskID), nil
	}

	patch := store.FieldPatch{
		store.FieldOState:      store.Set(newOState),
		store.FieldEncTitle:    store.Remove,
		store.FieldEncDesc:     store.Remove,
		store.FieldEncImages:   store.Remove,
		store.FieldEncFiles:    store.Remove,
		store.FieldEditedStamp: store.Set(opt.operateStamp),
	}
	if err := b.updateDraft(ctx, old.ID, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}
