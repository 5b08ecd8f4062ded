package secrets

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashnote/flashnote/pkg/models"
)

func testCodec(t *testing.T, fill byte) *Codec {
	t.Helper()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{fill}, 32))
	codec, err := NewCodec(key)
	require.NoError(t, err)
	return codec
}

func TestNewCodec(t *testing.T) {
	t.Run("rejects garbage base64", func(t *testing.T) {
		_, err := NewCodec("not base64!!!")
		assert.Error(t, err)
	})

	t.Run("rejects wrong key length", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("too short"))
		_, err := NewCodec(short)
		assert.Error(t, err)
	})
}

func TestSealOpen(t *testing.T) {
	codec := testCodec(t, 0x01)

	ct, err := codec.Seal([]byte("a private note"))
	require.NoError(t, err)
	assert.NotEmpty(t, ct.CipherText)
	assert.NotEmpty(t, ct.Nonce)

	data, err := codec.Open(ct)
	require.NoError(t, err)
	assert.Equal(t, "a private note", string(data))

	t.Run("fresh nonce every time", func(t *testing.T) {
		again, err := codec.Seal([]byte("a private note"))
		require.NoError(t, err)
		assert.NotEqual(t, ct.Nonce, again.Nonce)
		assert.NotEqual(t, ct.CipherText, again.CipherText)
	})

	t.Run("another key cannot open it", func(t *testing.T) {
		other := testCodec(t, 0x02)
		_, err := other.Open(ct)
		assert.Error(t, err)
	})

	t.Run("tampering is detected", func(t *testing.T) {
		bad := ct
		bad.CipherText = base64.StdEncoding.EncodeToString([]byte("flipped"))
		_, err := codec.Open(bad)
		assert.Error(t, err)
	})
}

func TestStringAndJSONHelpers(t *testing.T) {
	codec := testCodec(t, 0x03)

	t.Run("empty string stays absent", func(t *testing.T) {
		ct, err := codec.SealString("")
		require.NoError(t, err)
		assert.Nil(t, ct)

		s, err := codec.OpenString(nil)
		require.NoError(t, err)
		assert.Empty(t, s)
	})

	t.Run("string round trip", func(t *testing.T) {
		ct, err := codec.SealString("groceries")
		require.NoError(t, err)
		require.NotNil(t, ct)

		s, err := codec.OpenString(ct)
		require.NoError(t, err)
		assert.Equal(t, "groceries", s)
	})

	t.Run("json round trip", func(t *testing.T) {
		raw := json.RawMessage(`[{"type":"text","text":"hi"}]`)
		ct, err := codec.SealJSON(raw)
		require.NoError(t, err)
		require.NotNil(t, ct)

		out, err := codec.OpenJSON(ct)
		require.NoError(t, err)
		assert.JSONEq(t, string(raw), string(out))

		none, err := codec.OpenJSON(nil)
		require.NoError(t, err)
		assert.Nil(t, none)
	})
}

func TestEnvelope(t *testing.T) {
	codec := testCodec(t, 0x04)

	atoms := []models.Atom{{
		TaskType: models.TaskThreadPin,
		TaskID:   "t1",
		Thread: &models.UploadThread{
			UploadBase: models.UploadBase{ID: "abc"},
		},
		OperateStamp: 42,
	}}

	ct, err := codec.SealValue(atoms)
	require.NoError(t, err)
	require.NotNil(t, ct)

	var out []models.Atom
	require.NoError(t, codec.OpenValue(*ct, &out))
	require.Len(t, out, 1)
	assert.Equal(t, models.TaskThreadPin, out[0].TaskType)
	assert.Equal(t, "abc", out[0].Thread.ID)
	assert.Equal(t, int64(42), out[0].OperateStamp)
}
