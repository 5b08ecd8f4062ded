package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashnote/flashnote/pkg/models"
)

func TestApplyContentPatch(t *testing.T) {
	pin := int64(42)
	c := &models.Content{
		OState:   models.OStateOK,
		EncTitle: &models.CipherText{Nonce: "n", CipherText: "c"},
		PinStamp: &pin,
		LevelOne: 3,
	}

	t.Run("set and remove", func(t *testing.T) {
		err := ApplyContentPatch(c, FieldPatch{
			FieldOState:      Set(models.OStateRemoved),
			FieldEncTitle:    Remove,
			FieldPinStamp:    Remove,
			FieldStateID:     Set("kanban-1"),
			FieldEditedStamp: Set(int64(900)),
			FieldLevelOne:    Set(4),
		})
		require.NoError(t, err)
		assert.Equal(t, models.OStateRemoved, c.OState)
		assert.Nil(t, c.EncTitle)
		assert.Nil(t, c.PinStamp)
		require.NotNil(t, c.StateID)
		assert.Equal(t, "kanban-1", *c.StateID)
		assert.Equal(t, int64(900), c.EditedStamp)
		assert.Equal(t, 4, c.LevelOne)
	})

	t.Run("untouched fields stay", func(t *testing.T) {
		assert.Equal(t, 4, c.LevelOne)
		require.NoError(t, ApplyContentPatch(c, FieldPatch{FieldLevelOneAndTwo: Set(7)}))
		assert.Equal(t, 4, c.LevelOne)
		assert.Equal(t, 7, c.LevelOneAndTwo)
	})

	t.Run("mandatory fields cannot be removed", func(t *testing.T) {
		assert.Error(t, ApplyContentPatch(c, FieldPatch{FieldOState: Remove}))
		assert.Error(t, ApplyContentPatch(c, FieldPatch{FieldEmojiData: Remove}))
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		assert.Error(t, ApplyContentPatch(c, FieldPatch{"favouriteColor": Set("green")}))
	})
}

func TestApplyCollectionPatch(t *testing.T) {
	c := &models.Collection{OState: models.CollectionOK, Emoji: "%F0%9F%91%8D"}

	require.NoError(t, ApplyCollectionPatch(c, FieldPatch{
		FieldOState:       Set(models.CollectionCanceled),
		FieldEmoji:        Remove,
		FieldOperateStamp: Set(int64(5000)),
	}))
	assert.Equal(t, models.CollectionCanceled, c.OState)
	assert.Empty(t, c.Emoji)
	assert.Equal(t, int64(5000), c.OperateStamp)
}

func TestFieldPatchMerge(t *testing.T) {
	p := FieldPatch{
		FieldEditedStamp: Set(int64(100)),
		FieldEncTitle:    Remove,
	}
	p.Merge(FieldPatch{
		FieldEditedStamp: Set(int64(200)),
		FieldPinStamp:    Set(int64(300)),
	})

	// the later patch wins on shared fields, the rest accumulates
	assert.Equal(t, int64(200), p[FieldEditedStamp].Value())
	assert.True(t, p[FieldEncTitle].IsRemove())
	assert.Equal(t, int64(300), p[FieldPinStamp].Value())
}
