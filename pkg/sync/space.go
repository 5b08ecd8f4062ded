package sync

import (
	"context"
	"errors"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

// findMyMember resolves a wire id to a member row the caller owns and may
// still edit.
func (b *batch) findMyMember(ctx context.Context, taskID, idStr string) (*models.Member, models.AtomResult, bool, error) {
	id, err := models.ParseMemberID(idStr)
	if err != nil {
		return nil, errResult(models.CodeNotFound, taskID, "the member cannot be found"), false, nil
	}
	member, err := b.getMember(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errResult(models.CodeNotFound, taskID, "the member cannot be found"), false, nil
		}
		return nil, models.AtomResult{}, false, err
	}
	if member.UserID != b.user.ID {
		return nil, errResult(models.CodeForbidden, taskID, "no permission of the member"), false, nil
	}
	if member.OState == models.MemberDeactivated || member.OState == models.MemberDeleted {
		return nil, errResult(models.CodeForbidden, taskID, "the member is deactivated or deleted"), false, nil
	}
	return member, models.AtomResult{}, true, nil
}

// memberAvatar replaces (or clears) the caller's avatar in one workspace.
func (b *batch) memberAvatar(ctx context.Context, member *models.UploadMember, opt operationOpt) (models.AtomResult, error) {
	if member.ID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "id is required"), nil
	}
	old, res, ok, err := b.findMyMember(ctx, opt.taskID, member.ID)
	if err != nil || !ok {
		return res, err
	}

	patch := store.FieldPatch{}
	if member.Avatar != nil {
		patch[store.FieldAvatar] = store.Set(member.Avatar)
	} else {
		patch[store.FieldAvatar] = store.Remove
	}
	if err := b.updateMember(ctx, old.ID, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// memberNickname renames the caller within one workspace, guarded by
// lastOperateName.
func (b *batch) memberNickname(ctx context.Context, member *models.UploadMember, opt operationOpt) (models.AtomResult, error) {
	if member.ID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "id is required"), nil
	}
	old, res, ok, err := b.findMyMember(ctx, opt.taskID, member.ID)
	if err != nil || !ok {
		return res, err
	}

	cfg := old.GuardConfig()
	if guardStamp(cfg.LastOperateName) >= opt.operateStamp {
		return staleResult(opt.taskID), nil
	}
	cfg.LastOperateName = opt.operateStamp

	patch := store.FieldPatch{
		store.FieldName:   store.Set(member.Name),
		store.FieldConfig: store.Set(cfg),
	}
	if err := b.updateMember(ctx, old.ID, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// workspaceTag replaces the workspace's tag tree, guarded by lastOperateTag
// on the workspace config. Any member of the space may edit tags.
func (b *batch) workspaceTag(ctx context.Context, workspace *models.UploadWorkspace, opt operationOpt) (models.AtomResult, error) {
	if workspace.ID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "id is required"), nil
	}
	id, err := models.ParseWorkspaceID(workspace.ID)
	if err != nil {
		return errResult(models.CodeNotFound, opt.taskID, "the workspace cannot be found"), nil
	}
	if !b.inSpace(id) {
		return errResult(models.CodeForbidden, opt.taskID, "no permission of the workspace"), nil
	}

	old, err := b.getWorkspace(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(models.CodeNotFound, opt.taskID, "the workspace cannot be found"), nil
		}
		return models.AtomResult{}, err
	}

	cfg := old.GuardConfig()
	if guardStamp(cfg.LastOperateTag) >= opt.operateStamp {
		return staleResult(opt.taskID), nil
	}
	cfg.LastOperateTag = opt.operateStamp

	patch := store.FieldPatch{store.FieldConfig: store.Set(cfg)}
	if workspace.TagList != nil {
		patch[store.FieldTagList] = store.Set(models.TagList(workspace.TagList))
	} else {
		patch[store.FieldTagList] = store.Remove
	}
	if err := b.updateWorkspace(ctx, id, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}

// workspaceStateConfig replaces the kanban definition. The guard is the
// structure's own updatedStamp, compared whole; there is no per-column
// merge.
func (b *batch) workspaceStateConfig(ctx context.Context, workspace *models.UploadWorkspace, opt operationOpt) (models.AtomResult, error) {
	if workspace.ID == "" || workspace.StateConfig == nil {
		return errResult(models.CodeBadRequest, opt.taskID, "id and stateConfig are required"), nil
	}
	id, err := models.ParseWorkspaceID(workspace.ID)
	if err != nil {
		return errResult(models.CodeNotFound, opt.taskID, "the workspace cannot be found"), nil
	}
	if !b.inSpace(id) {
		return errResult(models.CodeForbidden, opt.taskID, "no permission of the workspace"), nil
	}

	old, err := b.getWorkspace(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(models.CodeNotFound, opt.taskID, "the workspace cannot be found"), nil
		}
		return models.AtomResult{}, err
	}

	var oldStamp int64
	if old.StateConfig != nil {
		oldStamp = old.StateConfig.UpdatedStamp
	}
	if guardStamp(oldStamp) >= workspace.StateConfig.UpdatedStamp {
		return staleResult(opt.taskID), nil
	}

	patch := store.FieldPatch{
		store.FieldStateConfig: store.Set(workspace.StateConfig),
	}
	if err := b.updateWorkspace(ctx, id, patch); err != nil {
		return models.AtomResult{}, err
	}
	return okResult(opt.taskID), nil
}
