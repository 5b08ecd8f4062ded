package sync

import (
	"context"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

// postThread creates a thread from an upload. Re-delivered atoms are caught
// by the first_id duplicate check and answered with "0001".
func (b *batch) postThread(ctx context.Context, thread *models.UploadThread, opt operationOpt) (models.AtomResult, error) {
	// thread-post only accepts live or trashed rows
	if thread.OState != "" && thread.OState != models.OStateOK && thread.OState != models.OStateRemoved {
		return errResult(models.CodeBadRequest, opt.taskID, "oState must be OK or REMOVED"), nil
	}
	if thread.FirstID == "" || thread.SpaceID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "spaceId and first_id are required"), nil
	}
	if thread.CreatedStamp == nil || thread.EditedStamp == nil {
		return errResult(models.CodeBadRequest, opt.taskID, "createdStamp and editedStamp are required"), nil
	}

	spaceID, err := models.ParseWorkspaceID(thread.SpaceID)
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

	dup, err := b.isDuplicateCreate(ctx, thread.FirstID, *thread.CreatedStamp)
	if err != nil {
		return models.AtomResult{}, err
	}
	if dup {
		return duplicateResult(opt.taskID), nil
	}

	sealed, err := b.sealPayload(thread.Title, thread.UploadBase)
	if err != nil {
		return models.AtomResult{}, err
	}

	oState := thread.OState
	if oState == "" {
		oState = models.OStateOK
	}
	row := &models.Content{
		FirstID:  thread.FirstID,
		UserID:   b.user.ID,
		MemberID: memberID,
		SpaceID:  spaceID,

		SpaceType:    spaceType,
		InfoType:     models.InfoThread,
		OState:       oState,
		VisScope:     models.VisDefault,
		StorageState: models.StorageCloud,

		EncTitle:  sealed.title,
		EncDesc:   sealed.desc,
		EncImages: sealed.images,
		EncFiles:  sealed.files,

		CalendarStamp: thread.CalendarStamp,
		RemindStamp:   thread.RemindStamp,
		WhenStamp:     thread.WhenStamp,
		RemindMe:      thread.RemindMe,
		PinStamp:      thread.PinStamp,

		CreatedStamp: *thread.CreatedStamp,
		EditedStamp:  *thread.EditedStamp,
		RemovedStamp: thread.RemovedStamp,

		TagIDs:      models.StringList(thread.TagIDs),
		TagSearched: models.StringList(thread.TagSearched),
		StateID:     thread.StateID,
		StateStamp:  thread.StateStamp,
		Config:      thread.Config,
	}
	if thread.EmojiData != nil {
		row.EmojiData = *thread.EmojiData
	}

	if err := b.insertContent(ctx, row); err != nil {
		return models.AtomResult{}, err
	}
	return createdResult(opt.taskID, thread.FirstID, row.ID.String()), nil
}

// threadEdit replaces the thread's payload and schedule fields. The guard is
// the row's own editedStamp: an older edit loses with "0002". Fields absent
// from the upload are cleared, not kept.
func (b *batch) threadEdit(ctx context.Context, thread *models.UploadThread, opt operationOpt) (models.AtomResult, error) {
	if thread.ID == "" || thread.EditedStamp == nil {
		return errResult(models.CodeBadRequest, opt.taskID, "id and editedStamp are required"), nil
	}

	content, res, ok, err := b.findEditableContent(ctx, opt.taskID, thread.ID)
	if err != nil || !ok {
		return res, err
	}
	if content.EditedStamp > *thread.EditedStamp {
		return staleResult(opt.taskID), nil
	}

	sealed, err := b.sealPayload(thread.Title, thread.UploadBase)
	if err != nil {
		return models.AtomResult{}, err
	}

	patch := store.FieldPatch{
		store.FieldEditedStamp: store.Set(*thread.EditedStamp),
	}
	sealed.patch(patch, true)
	setOrRemoveStamp(patch, store.FieldCalendarStamp, thread.CalendarStamp)
	setOrRemoveStamp(patch, store.FieldRemindStamp, thread.RemindStamp)
	setOrRemoveStamp(patch, store.FieldWhenStamp, thread.WhenStamp)
	setOrRemoveRemindMe(patch, store.FieldRemindMe, thread.RemindMe)
	setOrRemoveString(patch, store.FieldStateID, thread.StateID)
	setOrRemoveStamp(patch, store.FieldStateStamp, thread.StateStamp)
	setOrRemoveStrings(patch, store.FieldTagIDs, thread.TagIDs)
	setOrRemoveStrings(patch, store.FieldTagSearched, thread.TagSearched)

	if err := b.updateContent(ctx, content.ID, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// threadOnlyLocal takes the thread's payload off the server: the storage
// state flips to ONLY_LOCAL and every encrypted field is dropped. Repeating
// the operation is a "0001" no-op.
func (b *batch) threadOnlyLocal(ctx context.Context, thread *models.UploadThread, opt operationOpt) (models.AtomResult, error) {
	if thread.ID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "id is required"), nil
	}
	content, res, ok, err := b.findEditableContent(ctx, opt.taskID, thread.ID)
	if err != nil || !ok {
		return res, err
	}
	if content.StorageState == models.StorageOnlyLocal {
		return duplicateResult(opt.taskID), nil
	}

	patch := store.FieldPatch{
		store.FieldStorageState: store.Set(models.StorageOnlyLocal),
		store.FieldEncTitle:     store.Remove,
		store.FieldEncDesc:      store.Remove,
		store.FieldEncImages:    store.Remove,
		store.FieldEncFiles:     store.Remove,
	}
	if err := b.updateContent(ctx, content.ID, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// threadHourglass toggles the countdown display, guarded by
// lastToggleCountdown. Undo uses the same path with the opposite flag.
func (b *batch) threadHourglass(ctx context.Context, thread *models.UploadThread, opt operationOpt) (models.AtomResult, error) {
	if thread.ID == "" || thread.ShowCountdown == nil {
		return errResult(models.CodeBadRequest, opt.taskID, "id and showCountdown are required"), nil
	}
	content, res, ok, err := b.findEditableContent(ctx, opt.taskID, thread.ID)
	if err != nil || !ok {
		return res, err
	}

	cfg := content.GuardConfig()
	if guardStamp(cfg.LastToggleCountdown) >= opt.operateStamp {
		return staleResult(opt.taskID), nil
	}
	cfg.ShowCountdown = thread.ShowCountdown
	cfg.LastToggleCountdown = opt.operateStamp

	patch := store.FieldPatch{store.FieldConfig: store.Set(cfg)}
	if err := b.updateContent(ctx, content.ID, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// threadWhenRemind rewrites the schedule group (calendar/when/remind),
// guarded by lastOperateWhenRemind.
func (b *batch) threadWhenRemind(ctx context.Context, thread *models.UploadThread, opt operationOpt) (models.AtomResult, error) {
	if thread.ID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "id is required"), nil
	}
	content, res, ok, err := b.findEditableContent(ctx, opt.taskID, thread.ID)
	if err != nil || !ok {
		return res, err
	}

	cfg := content.GuardConfig()
	if guardStamp(cfg.LastOperateWhenRemind) >= opt.operateStamp {
		return staleResult(opt.taskID), nil
	}
	cfg.LastOperateWhenRemind = opt.operateStamp

	patch := store.FieldPatch{store.FieldConfig: store.Set(cfg)}
	setOrRemoveStamp(patch, store.FieldCalendarStamp, thread.CalendarStamp)
	setOrRemoveStamp(patch, store.FieldWhenStamp, thread.WhenStamp)
	setOrRemoveStamp(patch, store.FieldRemindStamp, thread.RemindStamp)
	setOrRemoveRemindMe(patch, store.FieldRemindMe, thread.RemindMe)

	if err := b.updateContent(ctx, content.ID, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// contentOState drives every lifecycle change of a content: trash (REMOVED),
// restore (OK) and delete_forever (DELETED). The guard is lastOStateStamp;
// the same target state twice is "0001". DELETED also drops every encrypted
// field, REMOVED keeps them so restore can bring the row back whole.
func (b *batch) contentOState(ctx context.Context, target contentTarget, opt operationOpt, newOState models.OState) (models.AtomResult, error) {
	if target.id() == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "id is required"), nil
	}
	content, res, ok, err := b.findEditableContent(ctx, opt.taskID, target.id())
	if err != nil || !ok {
		return res, err
	}

	if content.OState == newOState {
		return duplicateResult(opt.taskID), nil
	}
	cfg := content.GuardConfig()
	if guardStamp(cfg.LastOStateStamp) >= opt.operateStamp {
		return staleResult(opt.taskID), nil
	}
	cfg.LastOStateStamp = opt.operateStamp

	patch := store.FieldPatch{
		store.FieldOState: store.Set(newOState),
		store.FieldConfig: store.Set(cfg),
	}
	switch newOState {
	case models.OStateOK:
		patch[store.FieldRemovedStamp] = store.Remove
	case models.OStateRemoved:
		setOrRemoveStamp(patch, store.FieldRemovedStamp, target.removedStamp())
	case models.OStateDeleted:
		patch[store.FieldEncTitle] = store.Remove
		patch[store.FieldEncDesc] = store.Remove
		patch[store.FieldEncImages] = store.Remove
		patch[store.FieldEncFiles] = store.Remove
	}

	if err := b.updateContent(ctx, content.ID, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// threadState moves the thread on the kanban board, guarded by
// lastOperateStateId. Setting the same state and stamp again is "0001".
func (b *batch) threadState(ctx context.Context, thread *models.UploadThread, opt operationOpt) (models.AtomResult, error) {
	if thread.ID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "id is required"), nil
	}
	content, res, ok, err := b.findEditableContent(ctx, opt.taskID, thread.ID)
	if err != nil || !ok {
		return res, err
	}

	if equalStringPtr(content.StateID, thread.StateID) && equalStampPtr(content.StateStamp, thread.StateStamp) {
		return duplicateResult(opt.taskID), nil
	}
	cfg := content.GuardConfig()
	if guardStamp(cfg.LastOperateStateID) >= opt.operateStamp {
		return staleResult(opt.taskID), nil
	}
	cfg.LastOperateStateID = opt.operateStamp

	patch := store.FieldPatch{store.FieldConfig: store.Set(cfg)}
	setOrRemoveString(patch, store.FieldStateID, thread.StateID)
	setOrRemoveStamp(patch, store.FieldStateStamp, thread.StateStamp)

	if err := b.updateContent(ctx, content.ID, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// threadPin pins or unpins, guarded by lastOperatePin. The same pinStamp
// again is "0001".
func (b *batch) threadPin(ctx context.Context, thread *models.UploadThread, opt operationOpt) (models.AtomResult, error) {
	if thread.ID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "id is required"), nil
	}
	content, res, ok, err := b.findEditableContent(ctx, opt.taskID, thread.ID)
	if err != nil || !ok {
		return res, err
	}

	if equalStampPtr(content.PinStamp, thread.PinStamp) {
		return duplicateResult(opt.taskID), nil
	}
	cfg := content.GuardConfig()
	if guardStamp(cfg.LastOperatePin) >= opt.operateStamp {
		return staleResult(opt.taskID), nil
	}
	cfg.LastOperatePin = opt.operateStamp

	patch := store.FieldPatch{store.FieldConfig: store.Set(cfg)}
	setOrRemoveStamp(patch, store.FieldPinStamp, thread.PinStamp)

	if err := b.updateContent(ctx, content.ID, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// threadTag rewrites the thread's tags, guarded by lastOperateTag on the
// content config.
func (b *batch) threadTag(ctx context.Context, thread *models.UploadThread, opt operationOpt) (models.AtomResult, error) {
	if thread.ID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "id is required"), nil
	}
	content, res, ok, err := b.findEditableContent(ctx, opt.taskID, thread.ID)
	if err != nil || !ok {
		return res, err
	}

	cfg := content.GuardConfig()
	if guardStamp(cfg.LastOperateTag) >= opt.operateStamp {
		return staleResult(opt.taskID), nil
	}
	cfg.LastOperateTag = opt.operateStamp

	patch := store.FieldPatch{store.FieldConfig: store.Set(cfg)}
	setOrRemoveStrings(patch, store.FieldTagIDs, thread.TagIDs)
	setOrRemoveStrings(patch, store.FieldTagSearched, thread.TagSearched)

	if err := b.updateContent(ctx, content.ID, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// guardStamp treats an unset guard as 1, so a zero operateStamp can never
// pass a guard.
func guardStamp(v int64) int64 {
	if v == 0 {
		return 1
	}
	return v
}

func equalStampPtr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
