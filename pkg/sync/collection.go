package sync

import (
	"context"
	"errors"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

// collectionFavorite toggles a favorite. With a server id the row is patched
// under its operateStamp guard; without one a new row is created.
func (b *batch) collectionFavorite(ctx context.Context, collection *models.UploadCollection, opt operationOpt) (models.AtomResult, error) {
	if collection.FirstID == "" || collection.ContentID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "first_id and content_id are required"), nil
	}
	if collection.OState != models.CollectionOK && collection.OState != models.CollectionCanceled {
		return errResult(models.CodeBadRequest, opt.taskID, "oState must be OK or CANCELED"), nil
	}

	if collection.ID != "" && collection.ID != collection.FirstID {
		old, res, ok, err := b.findMyCollection(ctx, opt.taskID, collection.ID)
		if err != nil || !ok {
			return res, err
		}
		if old.OState == collection.OState {
			return duplicateResult(opt.taskID), nil
		}
		if guardStamp(old.OperateStamp) >= opt.operateStamp {
			return staleResult(opt.taskID), nil
		}
		patch := store.FieldPatch{
			store.FieldOState:       store.Set(collection.OState),
			store.FieldOperateStamp: store.Set(opt.operateStamp),
			store.FieldSortStamp:    store.Set(collection.SortStamp),
		}
		if err := b.updateCollection(ctx, old.ID, patch); err != nil {
			return models.AtomResult{}, err
		}
		return okResult(opt.taskID), nil
	}

	return b.createCollection(ctx, collection, opt, models.CollectionFavorite)
}

// collectionReact sets, changes or cancels an emoji reaction. Counter moves
// on the target content mirror the row transition: the old emoji is taken
// back when it was live, the new one is added when the row lands OK.
func (b *batch) collectionReact(ctx context.Context, collection *models.UploadCollection, opt operationOpt) (models.AtomResult, error) {
	if collection.FirstID == "" || collection.ContentID == "" {
		return errResult(models.CodeBadRequest, opt.taskID, "first_id and content_id are required"), nil
	}
	if collection.OState != models.CollectionOK && collection.OState != models.CollectionCanceled {
		return errResult(models.CodeBadRequest, opt.taskID, "oState must be OK or CANCELED"), nil
	}

	if collection.ID != "" && collection.ID != collection.FirstID {
		return b.reactWithID(ctx, collection, opt)
	}
	return b.createCollection(ctx, collection, opt, models.CollectionExpress)
}

func (b *batch) reactWithID(ctx context.Context, collection *models.UploadCollection, opt operationOpt) (models.AtomResult, error) {
	old, res, ok, err := b.findMyCollection(ctx, opt.taskID, collection.ID)
	if err != nil || !ok {
		return res, err
	}

	if old.Emoji == collection.Emoji && old.OState == collection.OState {
		return duplicateResult(opt.taskID), nil
	}
	if guardStamp(old.OperateStamp) >= opt.operateStamp {
		return staleResult(opt.taskID), nil
	}

	contentID := old.ContentID
	if old.OState == models.CollectionOK && old.Emoji != "" {
		if err := b.applyEmojiDelta(ctx, contentID, old.Emoji, opt.operateStamp, -1); err != nil {
			return models.AtomResult{}, err
		}
	}

	patch := store.FieldPatch{
		store.FieldOState:       store.Set(collection.OState),
		store.FieldOperateStamp: store.Set(opt.operateStamp),
		store.FieldSortStamp:    store.Set(collection.SortStamp),
	}
	if collection.Emoji != "" {
		patch[store.FieldEmoji] = store.Set(collection.Emoji)
	} else {
		patch[store.FieldEmoji] = store.Remove
	}
	if err := b.updateCollection(ctx, old.ID, patch); err != nil {
		return models.AtomResult{}, err
	}

	if collection.OState == models.CollectionOK && collection.Emoji != "" {
		if err := b.applyEmojiDelta(ctx, contentID, collection.Emoji, opt.operateStamp, 1); err != nil {
			return models.AtomResult{}, err
		}
	}
	return okResult(opt.taskID), nil
}

// createCollection is the shared create path for favorites and reactions.
// The target content gates the operation: its owner may always collect it,
// workspace members may, and beyond that only PUBLIC contents are open.
func (b *batch) createCollection(ctx context.Context, collection *models.UploadCollection, opt operationOpt, infoType models.CollectionType) (models.AtomResult, error) {
	contentID, err := models.ParseContentID(collection.ContentID)
	if err != nil {
		return errResult(models.CodeNotFound, opt.taskID, "the content cannot be found"), nil
	}
	content, err := b.getContent(ctx, contentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errResult(models.CodeNotFound, opt.taskID, "the content cannot be found"), nil
		}
		return models.AtomResult{}, err
	}

	var memberID *models.MemberID
	switch {
	case content.UserID == b.user.ID:
		memberID = content.MemberID
	case b.inSpace(content.SpaceID):
		memberID, err = b.myMemberID(ctx, content.SpaceID)
		if err != nil {
			return models.AtomResult{}, err
		}
	case content.VisScope == models.VisPublic:
		// anyone may react to a public content
	default:
		return errResult(models.CodeForbidden, opt.taskID, "no permission to collect the content"), nil
	}

	row := &models.Collection{
		FirstID:  collection.FirstID,
		UserID:   b.user.ID,
		MemberID: memberID,
		SpaceID:  content.SpaceID,

		SpaceType: content.SpaceType,
		InfoType:  infoType,
		ForType:   content.InfoType,
		OState:    collection.OState,

		ContentID:    contentID,
		Emoji:        collection.Emoji,
		OperateStamp: opt.operateStamp,
		SortStamp:    collection.SortStamp,
	}
	if err := b.insertCollection(ctx, row); err != nil {
		return models.AtomResult{}, err
	}

	if infoType == models.CollectionExpress && collection.Emoji != "" {
		if err := b.applyEmojiDelta(ctx, contentID, collection.Emoji, opt.operateStamp, 1); err != nil {
			return models.AtomResult{}, err
		}
	}
	return createdResult(opt.taskID, collection.FirstID, row.ID.String()), nil
}

// findMyCollection resolves a wire id to a collection the caller owns.
func (b *batch) findMyCollection(ctx context.Context, taskID, idStr string) (*models.Collection, models.AtomResult, bool, error) {
	id, err := models.ParseCollectionID(idStr)
	if err != nil {
		return nil, errResult(models.CodeNotFound, taskID, "the collection cannot be found"), false, nil
	}
	collection, err := b.getCollection(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errResult(models.CodeNotFound, taskID, "the collection cannot be found"), false, nil
		}
		return nil, models.AtomResult{}, false, err
	}
	if collection.UserID != b.user.ID {
		return nil, errResult(models.CodeForbidden, taskID, "no permission to edit the collection"), false, nil
	}
	return collection, models.AtomResult{}, true, nil
}

// applyEmojiDelta moves the reaction aggregate on a content by delta for one
// emoji. lastUpdateEmojiData only ever moves forward: a stamp behind the
// stored one is bumped past it rather than rejected, because the aggregate
// itself is already ordered by the collection row's guard.
func (b *batch) applyEmojiDelta(ctx context.Context, contentID models.ContentID, encodeStr string, stamp int64, delta int) error {
	content, err := b.getContent(ctx, contentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	emojiData := content.EmojiData
	emojiData.Apply(encodeStr, delta)

	cfg := content.GuardConfig()
	if cfg.LastUpdateEmojiData > stamp {
		stamp = cfg.LastUpdateEmojiData + 1
	}
	cfg.LastUpdateEmojiData = stamp

	patch := store.FieldPatch{
		store.FieldEmojiData: store.Set(emojiData),
		store.FieldConfig:    store.Set(cfg),
	}
	return b.updateContent(ctx, contentID, patch)
}
