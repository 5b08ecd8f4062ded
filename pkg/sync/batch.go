package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

// cachedRow pairs the current in-memory state of a row with the accumulated
// partial update that will be flushed once for the whole batch, no matter how
// many atoms touched the row.
type cachedRow[T any] struct {
	data  *T
	patch store.FieldPatch
}

// batch is the per-request working set of a sync-set call. Rows read once
// stay cached for the rest of the batch, updates accumulate into per-row
// patches, and nothing is written until flush. Creates are the exception:
// they insert immediately because later atoms need the allocated id.
type batch struct {
	sy   *Syncer
	user *models.User

	// spaceIDs is the caller's workspace membership, loaded once.
	spaceIDs []models.WorkspaceID

	// memberIDs caches the caller's member id per workspace.
	memberIDs map[models.WorkspaceID]*models.MemberID

	lastStamp int64

	contents    map[models.ContentID]*cachedRow[models.Content]
	drafts      map[models.DraftID]*cachedRow[models.Draft]
	collections map[models.CollectionID]*cachedRow[models.Collection]
	members     map[models.MemberID]*cachedRow[models.Member]
	workspaces  map[models.WorkspaceID]*cachedRow[models.Workspace]
}

func (sy *Syncer) newBatch(ctx context.Context, user *models.User) (*batch, error) {
	spaceIDs, err := sy.store.ListMemberSpaceIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("loading workspace memberships: %w", err)
	}
	return &batch{
		sy:          sy,
		user:        user,
		spaceIDs:    spaceIDs,
		memberIDs:   map[models.WorkspaceID]*models.MemberID{},
		contents:    map[models.ContentID]*cachedRow[models.Content]{},
		drafts:      map[models.DraftID]*cachedRow[models.Draft]{},
		collections: map[models.CollectionID]*cachedRow[models.Collection]{},
		members:     map[models.MemberID]*cachedRow[models.Member]{},
		workspaces:  map[models.WorkspaceID]*cachedRow[models.Workspace]{},
	}, nil
}

// stamp returns a millisecond timestamp never handed out twice within the
// batch, so rows created or updated back to back stay ordered.
func (b *batch) stamp() int64 {
	now := time.Now().UnixMilli()
	if now <= b.lastStamp {
		now = b.lastStamp + 1
	}
	b.lastStamp = now
	return now
}

func (b *batch) inSpace(spaceID models.WorkspaceID) bool {
	for _, id := range b.spaceIDs {
		if id == spaceID {
			return true
		}
	}
	return false
}

// myMemberID resolves the caller's member id within a workspace, nil when
// the caller has no membership there.
func (b *batch) myMemberID(ctx context.Context, spaceID models.WorkspaceID) (*models.MemberID, error) {
	if id, ok := b.memberIDs[spaceID]; ok {
		return id, nil
	}
	member, err := b.sy.store.FindMember(ctx, b.user.ID, spaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.memberIDs[spaceID] = nil
			return nil, nil
		}
		return nil, err
	}
	id := member.ID
	b.memberIDs[spaceID] = &id
	b.members[member.ID] = &cachedRow[models.Member]{data: member, patch: store.FieldPatch{}}
	return &id, nil
}

// Read-through getters. A row is fetched at most once per batch.

func (b *batch) getContent(ctx context.Context, id models.ContentID) (*models.Content, error) {
	if row, ok := b.contents[id]; ok {
		return row.data, nil
	}
	content, err := b.sy.store.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}
	b.contents[id] = &cachedRow[models.Content]{data: content, patch: store.FieldPatch{}}
	return content, nil
}

func (b *batch) getDraft(ctx context.Context, id models.DraftID) (*models.Draft, error) {
	if row, ok := b.drafts[id]; ok {
		return row.data, nil
	}
	draft, err := b.sy.store.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	b.drafts[id] = &cachedRow[models.Draft]{data: draft, patch: store.FieldPatch{}}
	return draft, nil
}

func (b *batch) getCollection(ctx context.Context, id models.CollectionID) (*models.Collection, error) {
	if row, ok := b.collections[id]; ok {
		return row.data, nil
	}
	collection, err := b.sy.store.GetCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	b.collections[id] = &cachedRow[models.Collection]{data: collection, patch: store.FieldPatch{}}
	return collection, nil
}

func (b *batch) getMember(ctx context.Context, id models.MemberID) (*models.Member, error) {
	if row, ok := b.members[id]; ok {
		return row.data, nil
	}
	member, err := b.sy.store.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	b.members[id] = &cachedRow[models.Member]{data: member, patch: store.FieldPatch{}}
	return member, nil
}

func (b *batch) getWorkspace(ctx context.Context, id models.WorkspaceID) (*models.Workspace, error) {
	if row, ok := b.workspaces[id]; ok {
		return row.data, nil
	}
	workspace, err := b.sy.store.GetWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}
	b.workspaces[id] = &cachedRow[models.Workspace]{data: workspace, patch: store.FieldPatch{}}
	return workspace, nil
}

// Update accumulators. Each merges the patch into the row's pending update
// and mutates the cached row so later atoms in the batch observe the change.
// An updatedStamp is stamped in unless the caller already set one.

func (b *batch) updateContent(ctx context.Context, id models.ContentID, patch store.FieldPatch) error {
	if _, err := b.getContent(ctx, id); err != nil {
		return err
	}
	row := b.contents[id]
	b.stampPatch(patch)
	row.patch.Merge(patch)
	return store.ApplyContentPatch(row.data, patch)
}

func (b *batch) updateDraft(ctx context.Context, id models.DraftID, patch store.FieldPatch) error {
	if _, err := b.getDraft(ctx, id); err != nil {
		return err
	}
	row := b.drafts[id]
	b.stampPatch(patch)
	row.patch.Merge(patch)
	return store.ApplyDraftPatch(row.data, patch)
}

func (b *batch) updateCollection(ctx context.Context, id models.CollectionID, patch store.FieldPatch) error {
	if _, err := b.getCollection(ctx, id); err != nil {
		return err
	}
	row := b.collections[id]
	b.stampPatch(patch)
	row.patch.Merge(patch)
	return store.ApplyCollectionPatch(row.data, patch)
}

func (b *batch) updateMember(ctx context.Context, id models.MemberID, patch store.FieldPatch) error {
	if _, err := b.getMember(ctx, id); err != nil {
		return err
	}
	row := b.members[id]
	b.stampPatch(patch)
	row.patch.Merge(patch)
	return store.ApplyMemberPatch(row.data, patch)
}

func (b *batch) updateWorkspace(ctx context.Context, id models.WorkspaceID, patch store.FieldPatch) error {
	if _, err := b.getWorkspace(ctx, id); err != nil {
		return err
	}
	row := b.workspaces[id]
	b.stampPatch(patch)
	row.patch.Merge(patch)
	return store.ApplyWorkspacePatch(row.data, patch)
}

func (b *batch) stampPatch(patch store.FieldPatch) {
	if _, ok := patch[store.FieldUpdatedStamp]; !ok {
		patch[store.FieldUpdatedStamp] = store.Set(b.stamp())
	}
}

// Inserts write immediately so that later atoms can reference the new id;
// the created row joins the cache with an empty pending patch.

func (b *batch) insertContent(ctx context.Context, content *models.Content) error {
	now := b.stamp()
	content.InsertedStamp = now
	content.UpdatedStamp = now
	if err := b.sy.store.CreateContent(ctx, content); err != nil {
		return err
	}
	b.contents[content.ID] = &cachedRow[models.Content]{data: content, patch: store.FieldPatch{}}
	return nil
}

func (b *batch) insertDraft(ctx context.Context, draft *models.Draft) error {
	now := b.stamp()
	draft.InsertedStamp = now
	draft.UpdatedStamp = now
	if err := b.sy.store.CreateDraft(ctx, draft); err != nil {
		return err
	}
	b.drafts[draft.ID] = &cachedRow[models.Draft]{data: draft, patch: store.FieldPatch{}}
	return nil
}

func (b *batch) insertCollection(ctx context.Context, collection *models.Collection) error {
	now := b.stamp()
	collection.InsertedStamp = now
	collection.UpdatedStamp = now
	if err := b.sy.store.CreateCollection(ctx, collection); err != nil {
		return err
	}
	b.collections[collection.ID] = &cachedRow[models.Collection]{data: collection, patch: store.FieldPatch{}}
	return nil
}

// flush writes every accumulated patch, one store call per touched row.
func (b *batch) flush(ctx context.Context) error {
	for id, row := range b.contents {
		if len(row.patch) == 0 {
			continue
		}
		if err := b.sy.store.PatchContent(ctx, id, row.patch); err != nil {
			return fmt.Errorf("flushing content %s: %w", id, err)
		}
	}
	for id, row := range b.drafts {
		if len(row.patch) == 0 {
			continue
		}
		if err := b.sy.store.PatchDraft(ctx, id, row.patch); err != nil {
			return fmt.Errorf("flushing draft %s: %w", id, err)
		}
	}
	for id, row := range b.workspaces {
		if len(row.patch) == 0 {
			continue
		}
		if err := b.sy.store.PatchWorkspace(ctx, id, row.patch); err != nil {
			return fmt.Errorf("flushing workspace %s: %w", id, err)
		}
	}
	for id, row := range b.members {
		if len(row.patch) == 0 {
			continue
		}
		if err := b.sy.store.PatchMember(ctx, id, row.patch); err != nil {
			return fmt.Errorf("flushing member %s: %w", id, err)
		}
	}
	for id, row := range b.collections {
		if len(row.patch) == 0 {
			continue
		}
		if err := b.sy.store.PatchCollection(ctx, id, row.patch); err != nil {
			return fmt.Errorf("flushing collection %s: %w", id, err)
		}
	}
	return nil
}
