package sync

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/secrets"
	"github.com/flashnote/flashnote/pkg/store/memory"
)

// fixture is one user with a personal workspace against a fresh in-memory
// store.
type fixture struct {
	sy     *Syncer
	st     *memory.Store
	codec  *secrets.Codec
	user   *models.User
	member *models.Member
	space  models.WorkspaceID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st := memory.NewStore()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, 32))
	codec, err := secrets.NewCodec(key)
	require.NoError(t, err)

	now := time.Now().UnixMilli()
	user := &models.User{
		ID:            models.NewUserID(),
		Email:         "amy@example.com",
		Name:          "amy",
		OState:        models.UserNormal,
		InsertedStamp: now,
		UpdatedStamp:  now,
	}
	require.NoError(t, st.CreateUser(ctx, user))

	workspace := &models.Workspace{
		ID:            models.NewWorkspaceID(),
		OwnerID:       user.ID,
		InfoType:      models.SpaceMe,
		OState:        models.OStateOK,
		InsertedStamp: now,
		UpdatedStamp:  now,
	}
	require.NoError(t, st.CreateWorkspace(ctx, workspace))

	member := &models.Member{
		ID:            models.NewMemberID(),
		UserID:        user.ID,
		SpaceID:       workspace.ID,
		SpaceType:     models.SpaceMe,
		OState:        models.MemberOK,
		Name:          "amy",
		InsertedStamp: now,
		UpdatedStamp:  now,
	}
	require.NoError(t, st.CreateMember(ctx, member))

	return &fixture{
		sy:     New(st, codec, zerolog.Nop()),
		st:     st,
		codec:  codec,
		user:   user,
		member: member,
		space:  workspace.ID,
	}
}

func stamp(v int64) *int64 { return &v }

func (f *fixture) threadPostAtom(firstID, title string, createdStamp int64) models.Atom {
	return models.Atom{
		TaskType:     models.TaskThreadPost,
		TaskID:       "task-" + firstID,
		OperateStamp: createdStamp,
		Thread: &models.UploadThread{
			UploadBase: models.UploadBase{
				FirstID:     firstID,
				SpaceID:     f.space.String(),
				Desc:        json.RawMessage(`[{"type":"text","text":"hello"}]`),
				EditedStamp: stamp(createdStamp),
			},
			Title:        title,
			CreatedStamp: stamp(createdStamp),
		},
	}
}

func (f *fixture) commentPostAtom(firstID, parentThread string, createdStamp int64) models.Atom {
	return models.Atom{
		TaskType:     models.TaskCommentPost,
		TaskID:       "task-" + firstID,
		OperateStamp: createdStamp,
		Comment: &models.UploadComment{
			UploadBase: models.UploadBase{
				FirstID:     firstID,
				SpaceID:     f.space.String(),
				Desc:        json.RawMessage(`[{"type":"text","text":"nice"}]`),
				EditedStamp: stamp(createdStamp),
			},
			ParentThread: parentThread,
			CreatedStamp: stamp(createdStamp),
		},
	}
}

// postThread runs a single thread-post and returns the allocated server id.
func (f *fixture) postThread(t *testing.T, firstID, title string, createdStamp int64) models.ContentID {
	t.Helper()
	results, err := f.sy.SyncSet(context.Background(), f.user, OperateGeneral,
		[]models.Atom{f.threadPostAtom(firstID, title, createdStamp)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, models.CodeOK, results[0].Code, results[0].ErrMsg)
	id, err := models.ParseContentID(results[0].NewID)
	require.NoError(t, err)
	return id
}

func TestValidateAtoms(t *testing.T) {
	one := []models.Atom{{
		TaskType: models.TaskThreadPin,
		Thread:   &models.UploadThread{},
	}}

	t.Run("accepts general and single", func(t *testing.T) {
		assert.NoError(t, ValidateAtoms(OperateGeneral, one))
		assert.NoError(t, ValidateAtoms(OperateSingle, one))
	})

	t.Run("rejects unknown operate type", func(t *testing.T) {
		assert.Error(t, ValidateAtoms(OperateType("bulk_sync"), one))
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		assert.Error(t, ValidateAtoms(OperateGeneral, nil))
	})

	t.Run("rejects oversized batch", func(t *testing.T) {
		atoms := make([]models.Atom, maxGeneralAtoms+1)
		for i := range atoms {
			atoms[i] = one[0]
		}
		assert.Error(t, ValidateAtoms(OperateGeneral, atoms))
		assert.Error(t, ValidateAtoms(OperateSingle, atoms[:2]))
	})

	t.Run("rejects unknown task type", func(t *testing.T) {
		atoms := []models.Atom{{TaskType: "thread-teleport", Thread: &models.UploadThread{}}}
		assert.Error(t, ValidateAtoms(OperateGeneral, atoms))
	})

	t.Run("rejects missing payload", func(t *testing.T) {
		atoms := []models.Atom{{TaskType: models.TaskThreadPost}}
		assert.Error(t, ValidateAtoms(OperateGeneral, atoms))
	})
}

func TestThreadPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.postThread(t, "local-1", "groceries", 1000)

	row, err := f.st.GetContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "local-1", row.FirstID)
	assert.Equal(t, f.user.ID, row.UserID)
	assert.Equal(t, f.space, row.SpaceID)
	assert.Equal(t, models.InfoThread, row.InfoType)
	assert.Equal(t, models.OStateOK, row.OState)
	assert.Equal(t, models.StorageCloud, row.StorageState)
	assert.Equal(t, int64(1000), row.CreatedStamp)

	// the payload is stored sealed, not in the clear
	require.NotNil(t, row.EncTitle)
	title, err := f.codec.OpenString(row.EncTitle)
	require.NoError(t, err)
	assert.Equal(t, "groceries", title)
	require.NotNil(t, row.EncDesc)
}

func TestThreadPostValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("missing first_id", func(t *testing.T) {
		a := f.threadPostAtom("local-1", "x", 1000)
		a.Thread.FirstID = ""
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{a})
		require.NoError(t, err)
		assert.Equal(t, models.CodeBadRequest, results[0].Code)
	})

	t.Run("deleted oState rejected", func(t *testing.T) {
		a := f.threadPostAtom("local-2", "x", 1000)
		a.Thread.OState = models.OStateDeleted
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{a})
		require.NoError(t, err)
		assert.Equal(t, models.CodeBadRequest, results[0].Code)
	})

	t.Run("foreign workspace rejected", func(t *testing.T) {
		a := f.threadPostAtom("local-3", "x", 1000)
		a.Thread.SpaceID = models.NewWorkspaceID().String()
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{a})
		require.NoError(t, err)
		assert.Equal(t, models.CodeForbidden, results[0].Code)
	})
}

func TestThreadPostDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.postThread(t, "local-1", "once", 5000)

	t.Run("same first_id near the same time is a no-op", func(t *testing.T) {
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral,
			[]models.Atom{f.threadPostAtom("local-1", "once", 5600)})
		require.NoError(t, err)
		assert.Equal(t, models.CodeDuplicate, results[0].Code)
		assert.Empty(t, results[0].NewID)
	})

	t.Run("same first_id much later creates a second row", func(t *testing.T) {
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral,
			[]models.Atom{f.threadPostAtom("local-1", "again", 9000)})
		require.NoError(t, err)
		assert.Equal(t, models.CodeOK, results[0].Code)
		assert.NotEmpty(t, results[0].NewID)
	})
}

func TestThreadEditGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.postThread(t, "local-1", "v1", 1000)

	edit := func(title string, editedStamp int64) models.AtomResult {
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{{
			TaskType:     models.TaskThreadEdit,
			TaskID:       "edit",
			OperateStamp: editedStamp,
			Thread: &models.UploadThread{
				UploadBase: models.UploadBase{
					ID:          id.String(),
					EditedStamp: stamp(editedStamp),
				},
				Title: title,
			},
		}})
		require.NoError(t, err)
		return results[0]
	}

	assert.Equal(t, models.CodeOK, edit("v2", 2000).Code)

	// an edit older than the stored one loses
	assert.Equal(t, models.CodeStale, edit("v0", 1500).Code)

	row, err := f.st.GetContent(ctx, id)
	require.NoError(t, err)
	title, err := f.codec.OpenString(row.EncTitle)
	require.NoError(t, err)
	assert.Equal(t, "v2", title)
	assert.Equal(t, int64(2000), row.EditedStamp)
}

func TestThreadPinGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.postThread(t, "local-1", "pinned", 1000)

	pin := func(pinStamp *int64, operateStamp int64) models.AtomResult {
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{{
			TaskType:     models.TaskThreadPin,
			TaskID:       "pin",
			OperateStamp: operateStamp,
			Thread: &models.UploadThread{
				UploadBase: models.UploadBase{ID: id.String()},
				PinStamp:   pinStamp,
			},
		}})
		require.NoError(t, err)
		return results[0]
	}

	assert.Equal(t, models.CodeOK, pin(stamp(3000), 3000).Code)

	t.Run("same pinStamp again is a no-op", func(t *testing.T) {
		assert.Equal(t, models.CodeDuplicate, pin(stamp(3000), 4000).Code)
	})

	t.Run("older operation loses", func(t *testing.T) {
		assert.Equal(t, models.CodeStale, pin(nil, 2000).Code)
	})

	t.Run("newer unpin wins", func(t *testing.T) {
		assert.Equal(t, models.CodeOK, pin(nil, 5000).Code)
		row, err := f.st.GetContent(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, row.PinStamp)
	})
}

func TestThreadLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.postThread(t, "local-1", "doomed", 1000)

	run := func(taskType models.TaskType, operateStamp int64, removedStamp *int64) models.AtomResult {
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{{
			TaskType:     taskType,
			TaskID:       string(taskType),
			OperateStamp: operateStamp,
			Thread: &models.UploadThread{
				UploadBase:   models.UploadBase{ID: id.String()},
				RemovedStamp: removedStamp,
			},
		}})
		require.NoError(t, err)
		return results[0]
	}

	t.Run("trash keeps the payload", func(t *testing.T) {
		assert.Equal(t, models.CodeOK, run(models.TaskThreadDelete, 2000, stamp(2000)).Code)
		row, err := f.st.GetContent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.OStateRemoved, row.OState)
		assert.NotNil(t, row.EncTitle)
		require.NotNil(t, row.RemovedStamp)
		assert.Equal(t, int64(2000), *row.RemovedStamp)
	})

	t.Run("trashing again is a no-op", func(t *testing.T) {
		assert.Equal(t, models.CodeDuplicate, run(models.TaskThreadDelete, 3000, stamp(3000)).Code)
	})

	t.Run("restore brings the row back", func(t *testing.T) {
		assert.Equal(t, models.CodeOK, run(models.TaskThreadRestore, 4000, nil).Code)
		row, err := f.st.GetContent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.OStateOK, row.OState)
		assert.Nil(t, row.RemovedStamp)
		assert.NotNil(t, row.EncTitle)
	})

	t.Run("delete forever drops the payload", func(t *testing.T) {
		assert.Equal(t, models.CodeOK, run(models.TaskThreadDeleteForever, 5000, nil).Code)
		row, err := f.st.GetContent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.OStateDeleted, row.OState)
		assert.Nil(t, row.EncTitle)
		assert.Nil(t, row.EncDesc)
		assert.Nil(t, row.EncImages)
		assert.Nil(t, row.EncFiles)
	})

	t.Run("deleted rows are immutable", func(t *testing.T) {
		assert.Equal(t, models.CodeForbidden, run(models.TaskThreadRestore, 6000, nil).Code)
	})
}

func TestBatchIDRemap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// the comment references the thread by the client-generated id; the
	// server id allocated by the first atom must be substituted in
	results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{
		f.threadPostAtom("local-t", "thread", 1000),
		f.commentPostAtom("local-c", "local-t", 1001),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, models.CodeOK, results[0].Code, results[0].ErrMsg)
	require.Equal(t, models.CodeOK, results[1].Code, results[1].ErrMsg)

	threadID, err := models.ParseContentID(results[0].NewID)
	require.NoError(t, err)
	commentID, err := models.ParseContentID(results[1].NewID)
	require.NoError(t, err)

	comment, err := f.st.GetContent(ctx, commentID)
	require.NoError(t, err)
	require.NotNil(t, comment.ParentThread)
	assert.Equal(t, threadID, *comment.ParentThread)

	// the counter bump lands through the same remapped reference
	thread, err := f.st.GetContent(ctx, threadID)
	require.NoError(t, err)
	assert.Equal(t, 1, thread.LevelOne)
	assert.Equal(t, 1, thread.LevelOneAndTwo)
}

func TestCommentCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	threadID := f.postThread(t, "local-t", "discussed", 1000)

	post := func(a models.Atom) models.ContentID {
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{a})
		require.NoError(t, err)
		require.Equal(t, models.CodeOK, results[0].Code, results[0].ErrMsg)
		id, err := models.ParseContentID(results[0].NewID)
		require.NoError(t, err)
		return id
	}
	counts := func(id models.ContentID) (int, int) {
		row, err := f.st.GetContent(ctx, id)
		require.NoError(t, err)
		return row.LevelOne, row.LevelOneAndTwo
	}

	c1 := post(f.commentPostAtom("local-c1", threadID.String(), 2000))

	one, oneAndTwo := counts(threadID)
	assert.Equal(t, 1, one)
	assert.Equal(t, 1, oneAndTwo)

	// a reply to c1 counts on c1 at both levels and once more on the thread
	reply := f.commentPostAtom("local-c2", threadID.String(), 3000)
	reply.Comment.ParentComment = c1.String()
	reply.Comment.ReplyToComment = c1.String()
	c2 := post(reply)

	one, oneAndTwo = counts(c1)
	assert.Equal(t, 1, one)
	assert.Equal(t, 1, oneAndTwo)
	one, oneAndTwo = counts(threadID)
	assert.Equal(t, 1, one)
	assert.Equal(t, 2, oneAndTwo)

	// deleting the reply takes both moves back
	results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{{
		TaskType:     models.TaskCommentDelete,
		TaskID:       "del",
		OperateStamp: 4000,
		Comment: &models.UploadComment{
			UploadBase: models.UploadBase{ID: c2.String()},
		},
	}})
	require.NoError(t, err)
	require.Equal(t, models.CodeOK, results[0].Code, results[0].ErrMsg)

	one, oneAndTwo = counts(c1)
	assert.Equal(t, 0, one)
	assert.Equal(t, 0, oneAndTwo)
	one, oneAndTwo = counts(threadID)
	assert.Equal(t, 1, one)
	assert.Equal(t, 1, oneAndTwo)
}

func TestCollectionFavorite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	threadID := f.postThread(t, "local-t", "liked", 1000)

	results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{{
		TaskType:     models.TaskCollectionFavorite,
		TaskID:       "fav",
		OperateStamp: 2000,
		Collection: &models.UploadCollection{
			FirstID:   "local-f",
			OState:    models.CollectionOK,
			ContentID: threadID.String(),
			SortStamp: 2000,
		},
	}})
	require.NoError(t, err)
	require.Equal(t, models.CodeOK, results[0].Code, results[0].ErrMsg)
	favID, err := models.ParseCollectionID(results[0].NewID)
	require.NoError(t, err)

	row, err := f.st.GetCollection(ctx, favID)
	require.NoError(t, err)
	assert.Equal(t, models.CollectionFavorite, row.InfoType)
	assert.Equal(t, models.InfoThread, row.ForType)
	assert.Equal(t, threadID, row.ContentID)

	t.Run("cancel under the guard", func(t *testing.T) {
		cancel := func(operateStamp int64) models.AtomResult {
			results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{{
				TaskType:     models.TaskCollectionFavorite,
				TaskID:       "cancel",
				OperateStamp: operateStamp,
				Collection: &models.UploadCollection{
					ID:        favID.String(),
					FirstID:   "local-f",
					OState:    models.CollectionCanceled,
					ContentID: threadID.String(),
				},
			}})
			require.NoError(t, err)
			return results[0]
		}

		assert.Equal(t, models.CodeStale, cancel(1500).Code)
		assert.Equal(t, models.CodeOK, cancel(3000).Code)
		assert.Equal(t, models.CodeDuplicate, cancel(4000).Code)

		row, err := f.st.GetCollection(ctx, favID)
		require.NoError(t, err)
		assert.Equal(t, models.CollectionCanceled, row.OState)
	})
}

func TestCollectionReact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	threadID := f.postThread(t, "local-t", "reacted", 1000)

	react := func(taskID, id, emoji string, oState models.OStateCollection, operateStamp int64) models.AtomResult {
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{{
			TaskType:     models.TaskCollectionReact,
			TaskID:       taskID,
			OperateStamp: operateStamp,
			Collection: &models.UploadCollection{
				ID:        id,
				FirstID:   "local-r",
				OState:    oState,
				ContentID: threadID.String(),
				Emoji:     emoji,
			},
		}})
		require.NoError(t, err)
		return results[0]
	}
	emoji := func() models.EmojiData {
		row, err := f.st.GetContent(ctx, threadID)
		require.NoError(t, err)
		return row.EmojiData
	}

	res := react("react", "", "%F0%9F%91%8D", models.CollectionOK, 2000)
	require.Equal(t, models.CodeOK, res.Code, res.ErrMsg)
	reactID := res.NewID
	require.NotEmpty(t, reactID)

	data := emoji()
	assert.Equal(t, 1, data.Total)
	require.Len(t, data.System, 1)
	assert.Equal(t, "%F0%9F%91%8D", data.System[0].EncodeStr)
	assert.Equal(t, 1, data.System[0].Num)

	t.Run("changing the emoji moves the aggregate", func(t *testing.T) {
		res := react("change", reactID, "%E2%9D%A4", models.CollectionOK, 3000)
		require.Equal(t, models.CodeOK, res.Code, res.ErrMsg)

		data := emoji()
		assert.Equal(t, 1, data.Total)
		require.Len(t, data.System, 2)
		assert.Equal(t, 0, data.System[0].Num)
		assert.Equal(t, "%E2%9D%A4", data.System[1].EncodeStr)
		assert.Equal(t, 1, data.System[1].Num)
	})

	t.Run("canceling takes the count back", func(t *testing.T) {
		res := react("cancel", reactID, "%E2%9D%A4", models.CollectionCanceled, 4000)
		require.Equal(t, models.CodeOK, res.Code, res.ErrMsg)

		data := emoji()
		assert.Equal(t, 0, data.Total)
		// zeroed entries stay in the breakdown
		require.Len(t, data.System, 2)
		assert.Equal(t, 0, data.System[1].Num)
	})

	t.Run("canceling again is a no-op", func(t *testing.T) {
		res := react("cancel-again", reactID, "%E2%9D%A4", models.CollectionCanceled, 5000)
		assert.Equal(t, models.CodeDuplicate, res.Code)
		assert.Equal(t, 0, emoji().Total)
	})
}

func TestAfterThreadPostHook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	posted := make(chan models.ContentID, 1)
	f.sy.AfterThreadPost = func(id models.ContentID) { posted <- id }

	results, err := f.sy.SyncSet(ctx, f.user, OperateSingle,
		[]models.Atom{f.threadPostAtom("local-1", "hooked", 1000)})
	require.NoError(t, err)
	require.Equal(t, models.CodeOK, results[0].Code)

	select {
	case id := <-posted:
		assert.Equal(t, results[0].NewID, id.String())
	case <-time.After(time.Second):
		t.Fatal("AfterThreadPost never fired")
	}
}

func TestDraftSetAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	set := func(firstID, id string, title string, editedStamp int64) models.AtomResult {
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{{
			TaskType:     models.TaskDraftSet,
			TaskID:       "set",
			OperateStamp: editedStamp,
			Draft: &models.UploadDraft{
				UploadBase: models.UploadBase{
					ID:          id,
					FirstID:     firstID,
					SpaceID:     f.space.String(),
					EditedStamp: stamp(editedStamp),
				},
				OState:   models.DraftOK,
				InfoType: models.InfoThread,
				Title:    title,
			},
		}})
		require.NoError(t, err)
		return results[0]
	}

	res := set("local-d", "", "wip", 1000)
	require.Equal(t, models.CodeOK, res.Code, res.ErrMsg)
	draftID, err := models.ParseDraftID(res.NewID)
	require.NoError(t, err)

	row, err := f.st.GetDraft(ctx, draftID)
	require.NoError(t, err)
	title, err := f.codec.OpenString(row.EncTitle)
	require.NoError(t, err)
	assert.Equal(t, "wip", title)

	t.Run("older save loses", func(t *testing.T) {
		res := set("local-d", draftID.String(), "old", 500)
		assert.Equal(t, models.CodeStale, res.Code)
	})

	t.Run("clear empties the draft", func(t *testing.T) {
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{{
			TaskType:     models.TaskDraftClear,
			TaskID:       "clear",
			OperateStamp: 2000,
			Draft: &models.UploadDraft{
				UploadBase: models.UploadBase{ID: draftID.String()},
				OState:     models.DraftDeleted,
			},
		}})
		require.NoError(t, err)
		require.Equal(t, models.CodeOK, results[0].Code, results[0].ErrMsg)

		row, err := f.st.GetDraft(ctx, draftID)
		require.NoError(t, err)
		assert.Equal(t, models.DraftDeleted, row.OState)
		assert.Nil(t, row.EncTitle)
	})

	t.Run("clearing into the same state is a no-op", func(t *testing.T) {
		results, err := f.sy.SyncSet(ctx, f.user, OperateGeneral, []models.Atom{{
			TaskType:     models.TaskDraftClear,
			TaskID:       "clear-again",
			OperateStamp: 3000,
			Draft: &models.UploadDraft{
				UploadBase: models.UploadBase{ID: draftID.String()},
				OState:     models.DraftDeleted,
			},
		}})
		require.NoError(t, err)
		assert.Equal(t, models.CodeDuplicate, results[0].Code)
	})
}
