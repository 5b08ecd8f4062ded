package flashnote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashnote/flashnote/pkg/models"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, 32))
	app, err := New(context.Background(), &Config{
		Backend: BackendMemory,
		AESKey:  key,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

type testEnvelope struct {
	Code   models.Code     `json:"code"`
	Data   json.RawMessage `json:"data,omitempty"`
	ErrMsg string          `json:"errMsg,omitempty"`
}

// do posts body as JSON and decodes the uniform response envelope.
func do(t *testing.T, h http.Handler, method, path, token string, body any) (int, testEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env testEnvelope
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func login(t *testing.T, h http.Handler, email string) (token, spaceID string) {
	t.Helper()
	status, env := do(t, h, "POST", "/api/auth/login", "", map[string]string{"email": email})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, models.CodeOK, env.Code, env.ErrMsg)

	var data loginResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	require.NotEmpty(t, data.SpaceID)
	return data.Token, data.SpaceID
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	h := app.router()

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, BackendMemory, body["backend"])
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	h := app.router()

	t.Run("first login bootstraps the account", func(t *testing.T) {
		token, spaceID := login(t, h, "amy@example.com")
		assert.NotEmpty(t, token)
		assert.NotEmpty(t, spaceID)
	})

	t.Run("second login reuses the account", func(t *testing.T) {
		_, firstSpace := login(t, h, "bob@example.com")
		_, secondSpace := login(t, h, "bob@example.com")
		assert.Equal(t, firstSpace, secondSpace)
	})

	t.Run("rejects an invalid email", func(t *testing.T) {
		status, env := do(t, h, "POST", "/api/auth/login", "", map[string]string{"email": "not an email"})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, models.CodeBadRequest, env.Code)
	})
}

func TestSyncRoundTrip(t *testing.T) {
	app := newTestApp(t)
	h := app.router()
	token, spaceID := login(t, h, "amy@example.com")

	created := int64(1000)
	setReq := map[string]any{
		"operateType": "general_sync",
		"atoms": []models.Atom{{
			TaskType:     models.TaskThreadPost,
			TaskID:       "t1",
			OperateStamp: created,
			Thread: &models.UploadThread{
				UploadBase: models.UploadBase{
					FirstID:     "local-1",
					SpaceID:     spaceID,
					Desc:        json.RawMessage(`[{"type":"text","text":"hi"}]`),
					EditedStamp: &created,
				},
				Title:        "from the wire",
				CreatedStamp: &created,
			},
		}},
	}

	status, env := do(t, h, "POST", "/api/sync/set", token, setReq)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, models.CodeOK, env.Code, env.ErrMsg)

	var setData struct {
		Results []models.AtomResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &setData))
	require.Len(t, setData.Results, 1)
	require.Equal(t, models.CodeOK, setData.Results[0].Code, setData.Results[0].ErrMsg)
	assert.Equal(t, "local-1", setData.Results[0].FirstID)
	require.NotEmpty(t, setData.Results[0].NewID)

	t.Run("the thread comes back through sync-get", func(t *testing.T) {
		getReq := map[string]any{
			"operateType": "general_sync",
			"atoms": []models.QueryAtom{{
				TaskType: models.QueryThreadList,
				TaskID:   "q1",
				SpaceID:  spaceID,
			}},
		}
		status, env := do(t, h, "POST", "/api/sync/get", token, getReq)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, models.CodeOK, env.Code, env.ErrMsg)

		var getData struct {
			Results []models.QueryResult `json:"results"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &getData))
		require.Len(t, getData.Results, 1)
		require.Equal(t, models.CodeOK, getData.Results[0].Code)
		require.Len(t, getData.Results[0].List, 1)
		assert.Equal(t, "from the wire", getData.Results[0].List[0].Content.Title)
	})

	t.Run("sync-get rejects other operate types", func(t *testing.T) {
		status, env := do(t, h, "POST", "/api/sync/get", token, map[string]any{
			"operateType": "single_sync",
			"atoms":       []models.QueryAtom{{TaskType: models.QueryThreadList, SpaceID: spaceID}},
		})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, models.CodeBadRequest, env.Code)
	})
}

func TestSyncSetSealedEnvelope(t *testing.T) {
	app := newTestApp(t)
	h := app.router()
	token, spaceID := login(t, h, "amy@example.com")

	created := int64(1000)
	atoms := []models.Atom{{
		TaskType:     models.TaskThreadPost,
		TaskID:       "t1",
		OperateStamp: created,
		Thread: &models.UploadThread{
			UploadBase: models.UploadBase{
				FirstID:     "local-1",
				SpaceID:     spaceID,
				EditedStamp: &created,
			},
			Title:        "sealed",
			CreatedStamp: &created,
		},
	}}
	sealed, err := app.codec.SealValue(atoms)
	require.NoError(t, err)

	status, env := do(t, h, "POST", "/api/sync/set", token, map[string]any{
		"operateType":   "general_sync",
		"plz_enc_atoms": sealed,
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, models.CodeOK, env.Code, env.ErrMsg)

	// sealed in, sealed out
	var data struct {
		Results       json.RawMessage    `json:"results"`
		PlzEncResults *models.CipherText `json:"plz_enc_results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Empty(t, data.Results)
	require.NotNil(t, data.PlzEncResults)

	var results []models.AtomResult
	require.NoError(t, app.codec.OpenValue(*data.PlzEncResults, &results))
	require.Len(t, results, 1)
	assert.Equal(t, models.CodeOK, results[0].Code, results[0].ErrMsg)

	t.Run("a mangled envelope is rejected", func(t *testing.T) {
		bad := *sealed
		bad.CipherText = base64.StdEncoding.EncodeToString([]byte("garbage"))
		status, env := do(t, h, "POST", "/api/sync/set", token, map[string]any{
			"operateType":   "general_sync",
			"plz_enc_atoms": bad,
		})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, models.CodeBadDecrypt, env.Code)
	})
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t)
	h := app.router()

	body := map[string]any{"operateType": "general_sync"}

	t.Run("missing token", func(t *testing.T) {
		status, _ := do(t, h, "POST", "/api/sync/set", "", body)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("unknown token", func(t *testing.T) {
		status, _ := do(t, h, "POST", "/api/sync/set", "deadbeef", body)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		token, _ := login(t, h, "amy@example.com")

		status, env := do(t, h, "POST", "/api/auth/logout", token, nil)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, models.CodeOK, env.Code)

		status, _ = do(t, h, "POST", "/api/sync/set", token, body)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}
