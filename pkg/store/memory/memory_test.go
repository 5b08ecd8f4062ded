package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

func seedContent(t *testing.T, s *Store, c *models.Content) *models.Content {
	t.Helper()
	require.NoError(t, s.CreateContent(context.Background(), c))
	return c
}

func TestContentCRUD(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	userID := models.NewUserID()
	spaceID := models.NewWorkspaceID()

	c := seedContent(t, s, &models.Content{
		FirstID:      "local-1",
		UserID:       userID,
		SpaceID:      spaceID,
		InfoType:     models.InfoThread,
		OState:       models.OStateOK,
		CreatedStamp: 1000,
		EditedStamp:  1000,
	})
	require.False(t, c.ID.IsZero())

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := s.GetContent(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "local-1", got.FirstID)

		got.FirstID = "tampered"
		again, err := s.GetContent(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "local-1", again.FirstID)
	})

	t.Run("find by first_id is scoped to the user", func(t *testing.T) {
		got, err := s.FindContentByFirstID(ctx, userID, "local-1")
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)

		_, err = s.FindContentByFirstID(ctx, models.NewUserID(), "local-1")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("patch sets and removes", func(t *testing.T) {
		require.NoError(t, s.PatchContent(ctx, c.ID, store.FieldPatch{
			store.FieldOState:       store.Set(models.OStateRemoved),
			store.FieldRemovedStamp: store.Set(int64(2000)),
		}))
		got, err := s.GetContent(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OStateRemoved, got.OState)
		require.NotNil(t, got.RemovedStamp)
		assert.Equal(t, int64(2000), *got.RemovedStamp)

		require.NoError(t, s.PatchContent(ctx, c.ID, store.FieldPatch{
			store.FieldRemovedStamp: store.Remove,
		}))
		got, err = s.GetContent(ctx, c.ID)
		require.NoError(t, err)
		assert.Nil(t, got.RemovedStamp)
	})

	t.Run("unknown ids fail with ErrNotFound", func(t *testing.T) {
		missing := models.NewContentID()
		_, err := s.GetContent(ctx, missing)
		assert.ErrorIs(t, err, store.ErrNotFound)
		err = s.PatchContent(ctx, missing, store.FieldPatch{})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestListContents(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	userID := models.NewUserID()
	spaceID := models.NewWorkspaceID()
	okState := models.OStateOK

	pin := int64(500)
	stateA := "kanban-a"
	threads := []*models.Content{
		{UserID: userID, SpaceID: spaceID, InfoType: models.InfoThread, OState: models.OStateOK, CreatedStamp: 1000, EditedStamp: 1000, TagSearched: models.StringList{"tag-go"}},
		{UserID: userID, SpaceID: spaceID, InfoType: models.InfoThread, OState: models.OStateOK, CreatedStamp: 2000, EditedStamp: 2000, PinStamp: &pin},
		{UserID: userID, SpaceID: spaceID, InfoType: models.InfoThread, OState: models.OStateOK, CreatedStamp: 3000, EditedStamp: 3000, StateID: &stateA},
		{UserID: userID, SpaceID: spaceID, InfoType: models.InfoThread, OState: models.OStateRemoved, CreatedStamp: 4000, EditedStamp: 4000},
		{UserID: userID, SpaceID: models.NewWorkspaceID(), InfoType: models.InfoThread, OState: models.OStateOK, CreatedStamp: 5000, EditedStamp: 5000},
	}
	for _, c := range threads {
		seedContent(t, s, c)
	}

	list := func(f store.ContentFilter) []int64 {
		t.Helper()
		out, err := s.ListContents(ctx, f)
		require.NoError(t, err)
		stamps := make([]int64, 0, len(out))
		for _, c := range out {
			stamps = append(stamps, c.CreatedStamp)
		}
		return stamps
	}

	t.Run("space and state filters with desc sort", func(t *testing.T) {
		got := list(store.ContentFilter{
			SpaceID: spaceID,
			OState:  &okState,
			SortBy:  store.FieldCreatedStamp,
			SortWay: models.SortDesc,
		})
		assert.Equal(t, []int64{3000, 2000, 1000}, got)
	})

	t.Run("pinned filter", func(t *testing.T) {
		pinned := true
		got := list(store.ContentFilter{SpaceID: spaceID, Pinned: &pinned})
		assert.Equal(t, []int64{2000}, got)

		pinned = false
		got = list(store.ContentFilter{SpaceID: spaceID, OState: &okState, Pinned: &pinned, SortBy: store.FieldCreatedStamp, SortWay: models.SortAsc})
		assert.Equal(t, []int64{1000, 3000}, got)
	})

	t.Run("tag lookup is case-insensitive", func(t *testing.T) {
		got := list(store.ContentFilter{SpaceID: spaceID, TagID: "TAG-GO"})
		assert.Equal(t, []int64{1000}, got)
	})

	t.Run("state id", func(t *testing.T) {
		got := list(store.ContentFilter{SpaceID: spaceID, StateID: &stateA})
		assert.Equal(t, []int64{3000}, got)
	})

	t.Run("exclusive stamp bounds", func(t *testing.T) {
		min, max := int64(1000), int64(3000)
		got := list(store.ContentFilter{
			SpaceID:  spaceID,
			OState:   &okState,
			SortBy:   store.FieldCreatedStamp,
			SortWay:  models.SortAsc,
			MinStamp: &min,
			MaxStamp: &max,
		})
		assert.Equal(t, []int64{2000}, got)
	})

	t.Run("limit and skip", func(t *testing.T) {
		got := list(store.ContentFilter{
			SpaceID: spaceID,
			OState:  &okState,
			SortBy:  store.FieldCreatedStamp,
			SortWay: models.SortDesc,
			Limit:   1,
			Skip:    1,
		})
		assert.Equal(t, []int64{2000}, got)
	})

	t.Run("specific and excluded ids", func(t *testing.T) {
		got := list(store.ContentFilter{IDs: []models.ContentID{threads[0].ID}})
		assert.Equal(t, []int64{1000}, got)

		got = list(store.ContentFilter{
			SpaceID:     spaceID,
			OState:      &okState,
			ExcludedIDs: []models.ContentID{threads[0].ID},
			SortBy:      store.FieldCreatedStamp,
			SortWay:     models.SortAsc,
		})
		assert.Equal(t, []int64{2000, 3000}, got)
	})
}

func TestFindDraft(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	userID := models.NewUserID()
	spaceID := models.NewWorkspaceID()
	threadID := models.NewContentID()
	okDraft := models.DraftOK

	editDraft := &models.Draft{
		FirstID:      "d-1",
		UserID:       userID,
		SpaceID:      spaceID,
		InfoType:     models.InfoThread,
		OState:       models.DraftOK,
		ThreadEdited: &threadID,
		EditedStamp:  1000,
	}
	require.NoError(t, s.CreateDraft(ctx, editDraft))

	freshDraft := &models.Draft{
		FirstID:     "d-2",
		UserID:      userID,
		SpaceID:     spaceID,
		InfoType:    models.InfoThread,
		OState:      models.DraftOK,
		EditedStamp: 2000,
	}
	require.NoError(t, s.CreateDraft(ctx, freshDraft))

	t.Run("by edited thread", func(t *testing.T) {
		got, err := s.FindDraft(ctx, store.DraftFilter{UserID: userID, ThreadEdited: &threadID})
		require.NoError(t, err)
		assert.Equal(t, editDraft.ID, got.ID)
	})

	t.Run("brand-new thread draft in a workspace", func(t *testing.T) {
		got, err := s.FindDraft(ctx, store.DraftFilter{
			UserID:       userID,
			SpaceID:      &spaceID,
			InfoType:     models.InfoThread,
			OState:       &okDraft,
			NoEditedRefs: true,
		})
		require.NoError(t, err)
		assert.Equal(t, freshDraft.ID, got.ID)
	})

	t.Run("other users see nothing", func(t *testing.T) {
		_, err := s.FindDraft(ctx, store.DraftFilter{UserID: models.NewUserID(), ThreadEdited: &threadID})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestCollections(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	userID := models.NewUserID()
	spaceID := models.NewWorkspaceID()
	contentID := models.NewContentID()

	fav := &models.Collection{
		FirstID:      "c-1",
		UserID:       userID,
		SpaceID:      spaceID,
		InfoType:     models.CollectionFavorite,
		ForType:      models.InfoThread,
		OState:       models.CollectionOK,
		ContentID:    contentID,
		OperateStamp: 1000,
		SortStamp:    1000,
	}
	require.NoError(t, s.CreateCollection(ctx, fav))

	react := &models.Collection{
		FirstID:      "c-2",
		UserID:       userID,
		SpaceID:      spaceID,
		InfoType:     models.CollectionExpress,
		ForType:      models.InfoThread,
		OState:       models.CollectionOK,
		ContentID:    contentID,
		Emoji:        "%F0%9F%91%8D",
		OperateStamp: 2000,
		SortStamp:    2000,
	}
	require.NoError(t, s.CreateCollection(ctx, react))

	t.Run("find the user's row per kind", func(t *testing.T) {
		got, err := s.FindUserCollection(ctx, userID, contentID, models.CollectionFavorite)
		require.NoError(t, err)
		assert.Equal(t, fav.ID, got.ID)

		got, err = s.FindUserCollection(ctx, userID, contentID, models.CollectionExpress)
		require.NoError(t, err)
		assert.Equal(t, react.ID, got.ID)
	})

	t.Run("list by content ids", func(t *testing.T) {
		got, err := s.ListCollections(ctx, store.CollectionFilter{
			UserID:     userID,
			ContentIDs: []models.ContentID{contentID},
		})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("list favorites of a kind", func(t *testing.T) {
		okState := models.CollectionOK
		got, err := s.ListCollections(ctx, store.CollectionFilter{
			UserID:   userID,
			SpaceID:  spaceID,
			InfoType: models.CollectionFavorite,
			ForType:  models.InfoThread,
			OState:   &okState,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, fav.ID, got[0].ID)
	})
}

func TestMembersAndWorkspaces(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	userID := models.NewUserID()

	ws := &models.Workspace{OwnerID: userID, InfoType: models.SpaceMe, OState: models.OStateOK}
	require.NoError(t, s.CreateWorkspace(ctx, ws))

	member := &models.Member{UserID: userID, SpaceID: ws.ID, SpaceType: models.SpaceMe, OState: models.MemberOK}
	require.NoError(t, s.CreateMember(ctx, member))

	t.Run("find member by user and space", func(t *testing.T) {
		got, err := s.FindMember(ctx, userID, ws.ID)
		require.NoError(t, err)
		assert.Equal(t, member.ID, got.ID)
	})

	t.Run("list member space ids", func(t *testing.T) {
		ids, err := s.ListMemberSpaceIDs(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []models.WorkspaceID{ws.ID}, ids)
	})

	t.Run("strangers have no memberships", func(t *testing.T) {
		ids, err := s.ListMemberSpaceIDs(ctx, models.NewUserID())
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestUsersAndSessions(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	user := &models.User{Email: "amy@example.com", OState: models.UserNormal}
	require.NoError(t, s.CreateUser(ctx, user))

	t.Run("duplicate email conflicts", func(t *testing.T) {
		err := s.CreateUser(ctx, &models.User{Email: "amy@example.com", OState: models.UserNormal})
		assert.ErrorIs(t, err, store.ErrConflict)
	})

	t.Run("lookup by email", func(t *testing.T) {
		got, err := s.GetUserByEmail(ctx, "amy@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("session round trip", func(t *testing.T) {
		sess := &models.Session{Token: "tok-1", UserID: user.ID, ExpireStamp: 9999, IsOn: true}
		require.NoError(t, s.CreateSession(ctx, sess))

		got, err := s.GetSession(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.UserID)

		require.NoError(t, s.DeleteSession(ctx, "tok-1"))
		_, err = s.GetSession(ctx, "tok-1")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
