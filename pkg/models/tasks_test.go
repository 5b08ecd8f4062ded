package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskTypeValid(t *testing.T) {
	t.Run("base tasks", func(t *testing.T) {
		assert.True(t, TaskThreadPost.Valid())
		assert.True(t, TaskCommentDelete.Valid())
		assert.True(t, TaskDraftClear.Valid())
	})

	t.Run("undo variants of undoable tasks", func(t *testing.T) {
		assert.True(t, TaskType("undo_thread-pin").Valid())
		assert.True(t, TaskType("undo_collection-react").Valid())
	})

	t.Run("undo variants of non-undoable tasks", func(t *testing.T) {
		assert.False(t, TaskType("undo_thread-post").Valid())
		assert.False(t, TaskType("undo_draft-set").Valid())
	})

	t.Run("unknown tasks", func(t *testing.T) {
		assert.False(t, TaskType("thread-teleport").Valid())
		assert.False(t, TaskType("").Valid())
	})
}

func TestTaskTypeBase(t *testing.T) {
	assert.Equal(t, TaskThreadPin, TaskType("undo_thread-pin").Base())
	assert.Equal(t, TaskThreadPin, TaskThreadPin.Base())
	assert.True(t, TaskType("undo_thread-pin").IsUndo())
	assert.False(t, TaskThreadPin.IsUndo())
}

func TestTaskTypeRequiredPart(t *testing.T) {
	cases := map[TaskType]AtomPart{
		TaskThreadPost:           PartThread,
		TaskCommentEdit:          PartComment,
		TaskCollectionFavorite:   PartCollection,
		TaskWorkspaceStateConfig: PartWorkspace,
		TaskMemberNickname:       PartMember,
		TaskDraftSet:             PartDraft,
		TaskType("undo_thread-delete"): PartThread,
	}
	for task, part := range cases {
		assert.Equal(t, part, task.RequiredPart(), string(task))
	}
}

func TestAtomHasPart(t *testing.T) {
	assert.True(t, (&Atom{TaskType: TaskThreadPost, Thread: &UploadThread{}}).HasPart())
	assert.False(t, (&Atom{TaskType: TaskThreadPost}).HasPart())
	assert.False(t, (&Atom{TaskType: TaskThreadPost, Comment: &UploadComment{}}).HasPart())
}

func TestEmojiDataApply(t *testing.T) {
	var e EmojiData

	e.Apply("%F0%9F%91%8D", 1)
	assert.Equal(t, 1, e.Total)
	assert.Equal(t, []EmojiEntry{{EncodeStr: "%F0%9F%91%8D", Num: 1}}, e.System)

	e.Apply("%F0%9F%91%8D", 1)
	assert.Equal(t, 2, e.Total)
	assert.Equal(t, 2, e.System[0].Num)

	t.Run("counts clamp at zero", func(t *testing.T) {
		e.Apply("%F0%9F%91%8D", -1)
		e.Apply("%F0%9F%91%8D", -1)
		e.Apply("%F0%9F%91%8D", -1)
		assert.Equal(t, 0, e.Total)
		assert.Equal(t, 0, e.System[0].Num)
	})

	t.Run("negative delta never creates an entry", func(t *testing.T) {
		e.Apply("%E2%9D%A4", -1)
		assert.Len(t, e.System, 1)
	})
}

func TestSessionExpired(t *testing.T) {
	s := &Session{IsOn: true, ExpireStamp: 1000}
	assert.False(t, s.Expired(999))
	assert.True(t, s.Expired(1000))

	s.IsOn = false
	assert.True(t, s.Expired(0))
}

func TestContentIDJSON(t *testing.T) {
	id := NewContentID()
	data, err := id.MarshalJSON()
	assert.NoError(t, err)

	var out ContentID
	assert.NoError(t, out.UnmarshalJSON(data))
	assert.Equal(t, id, out)
}
