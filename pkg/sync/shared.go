package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

// duplicateWindowMillis is how close two createdStamps must be for a repeated
// create with the same first_id to count as the same client operation.
const duplicateWindowMillis = 1000

// contentTarget lets the shared oState handler accept either payload kind.
type contentTarget struct {
	thread  *models.UploadThread
	comment *models.UploadComment
}

func (t contentTarget) id() string {
	if t.thread != nil {
		return t.thread.ID
	}
	return t.comment.ID
}

func (t contentTarget) removedStamp() *int64 {
	if t.thread != nil {
		return t.thread.RemovedStamp
	}
	return nil
}

// canEditContent is the write-permission rule for existing contents: deleted
// rows are immutable, removed comments too, the owner may always write, other
// users never touch comments and reach threads only through workspace
// membership.
func (b *batch) canEditContent(c *models.Content) bool {
	if c.OState == models.OStateDeleted {
		return false
	}
	if c.InfoType == models.InfoComment && c.OState == models.OStateRemoved {
		return false
	}
	if c.UserID == b.user.ID {
		return true
	}
	if c.InfoType == models.InfoComment {
		return false
	}
	return b.inSpace(c.SpaceID)
}

// findEditableContent resolves a wire id to a content the caller may write.
// An unparseable or unknown id is E4004; a row the caller may not touch is
// E4003. ok is false when the returned result should be reported as is.
func (b *batch) findEditableContent(ctx context.Context, taskID, idStr string) (*models.Content, models.AtomResult, bool, error) {
	id, err := models.ParseContentID(idStr)
	if err != nil {
		return nil, errResult(models.CodeNotFound, taskID, "the content cannot be found"), false, nil
	}
	content, err := b.getContent(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errResult(models.CodeNotFound, taskID, "the content cannot be found"), false, nil
		}
		return nil, models.AtomResult{}, false, err
	}
	if !b.canEditContent(content) {
		return nil, errResult(models.CodeForbidden, taskID, "no permission to edit the content"), false, nil
	}
	return content, models.AtomResult{}, true, nil
}

// checkSpace verifies the target workspace exists and is alive, returning
// its space type. (errResult, false) reports the failure.
func (b *batch) checkSpace(ctx context.Context, taskID string, spaceID models.WorkspaceID) (models.SpaceType, models.AtomResult, bool, error) {
	workspace, err := b.getWorkspace(ctx, spaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", errResult(models.CodeNotFound, taskID, "workspace not found"), false, nil
		}
		return "", models.AtomResult{}, false, err
	}
	if workspace.OState == models.OStateRemoved || workspace.OState == models.OStateDeleted {
		return "", errResult(models.CodeForbidden, taskID, "workspace is removed or deleted"), false, nil
	}
	return workspace.InfoType, models.AtomResult{}, true, nil
}

// isDuplicateCreate reports whether the same user already created a row for
// this first_id around the same client time. Repeated delivery of a create
// atom lands here and is answered with "0001" instead of a second row.
func (b *batch) isDuplicateCreate(ctx context.Context, firstID string, createdStamp int64) (bool, error) {
	existing, err := b.sy.store.FindContentByFirstID(ctx, b.user.ID, firstID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	diff := existing.CreatedStamp - createdStamp
	if diff < 0 {
		diff = -diff
	}
	return diff < duplicateWindowMillis, nil
}

// sealedPayload is the encrypted form of an uploaded title/desc/images/files
// group. Absent inputs stay nil so the patch can remove the stored field.
type sealedPayload struct {
	title  *models.CipherText
	desc   *models.CipherText
	images *models.CipherText
	files  *models.CipherText
}

// sealPayload encrypts the plaintext payload of an upload with the backend
// key.
func (b *batch) sealPayload(title string, base models.UploadBase) (sealedPayload, error) {
	var p sealedPayload
	var err error
	if p.title, err = b.sy.codec.SealString(title); err != nil {
		return p, fmt.Errorf("sealing title: %w", err)
	}
	if p.desc, err = b.sy.codec.SealJSON(base.Desc); err != nil {
		return p, fmt.Errorf("sealing desc: %w", err)
	}
	if p.images, err = b.sy.codec.SealJSON(base.Images); err != nil {
		return p, fmt.Errorf("sealing images: %w", err)
	}
	if p.files, err = b.sy.codec.SealJSON(base.Files); err != nil {
		return p, fmt.Errorf("sealing files: %w", err)
	}
	return p, nil
}

// patchPayload writes the sealed payload into patch; nil members remove the
// stored field.
func (p sealedPayload) patch(patch store.FieldPatch, withTitle bool) {
	if withTitle {
		setOrRemoveCipher(patch, store.FieldEncTitle, p.title)
	}
	setOrRemoveCipher(patch, store.FieldEncDesc, p.desc)
	setOrRemoveCipher(patch, store.FieldEncImages, p.images)
	setOrRemoveCipher(patch, store.FieldEncFiles, p.files)
}

// Set-or-remove helpers: an absent upload value clears the stored field.

func setOrRemoveCipher(patch store.FieldPatch, field string, ct *models.CipherText) {
	if ct != nil {
		patch[field] = store.Set(ct)
	} else {
		patch[field] = store.Remove
	}
}

func setOrRemoveStamp(patch store.FieldPatch, field string, v *int64) {
	if v != nil {
		patch[field] = store.Set(*v)
	} else {
		patch[field] = store.Remove
	}
}

func setOrRemoveString(patch store.FieldPatch, field string, v *string) {
	if v != nil {
		patch[field] = store.Set(*v)
	} else {
		patch[field] = store.Remove
	}
}

func setOrRemoveStrings(patch store.FieldPatch, field string, v []string) {
	if v != nil {
		patch[field] = store.Set(models.StringList(v))
	} else {
		patch[field] = store.Remove
	}
}

func setOrRemoveRemindMe(patch store.FieldPatch, field string, v *models.RemindMe) {
	if v != nil {
		patch[field] = store.Set(v)
	} else {
		patch[field] = store.Remove
	}
}
