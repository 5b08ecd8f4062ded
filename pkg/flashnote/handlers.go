package flashnote

import (
	"encoding/json"
	"net/http"

	"github.com/flashnote/flashnote/pkg/models"
	syncpkg "github.com/flashnote/flashnote/pkg/sync"
)

// envelope is the uniform response body. Every endpoint answers HTTP 200
// with a result code; transport-level statuses are reserved for auth and
// malformed JSON.
type envelope struct {
	Code   models.Code `json:"code"`
	Data   any         `json:"data,omitempty"`
	ErrMsg string      `json:"errMsg,omitempty"`
}

type syncSetRequest struct {
	OperateType string             `json:"operateType"`
	Atoms       []models.Atom      `json:"atoms,omitempty"`
	PlzEncAtoms *models.CipherText `json:"plz_enc_atoms,omitempty"`
}

type syncGetRequest struct {
	OperateType string             `json:"operateType"`
	Atoms       []models.QueryAtom `json:"atoms,omitempty"`
	PlzEncAtoms *models.CipherText `json:"plz_enc_atoms,omitempty"`
}

// syncData carries sync results back to the client. When the request arrived
// sealed, the results go back sealed too and the plain field stays empty.
type syncData struct {
	Results       any                `json:"results,omitempty"`
	PlzEncResults *models.CipherText `json:"plz_enc_results,omitempty"`
}

func (a *App) handleSyncSet(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req syncSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondCode(w, envelope{Code: models.CodeBadRequest, ErrMsg: "invalid request payload"})
		return
	}

	sealed := req.PlzEncAtoms != nil
	if sealed {
		if err := a.codec.OpenValue(*req.PlzEncAtoms, &req.Atoms); err != nil {
			respondCode(w, envelope{Code: models.CodeBadDecrypt, ErrMsg: "cannot decrypt atoms"})
			return
		}
	}

	operateType := syncpkg.OperateType(req.OperateType)
	if err := syncpkg.ValidateAtoms(operateType, req.Atoms); err != nil {
		respondCode(w, envelope{Code: models.CodeBadRequest, ErrMsg: err.Error()})
		return
	}

	results, err := a.syncer.SyncSet(r.Context(), user, operateType, req.Atoms)
	if err != nil {
		a.log.Error().Err(err).Str("user", user.ID.String()).Msg("sync-set failed")
		respondCode(w, envelope{Code: models.CodeServerError, ErrMsg: "sync failed"})
		return
	}
	a.respondResults(w, sealed, results)
}

func (a *App) handleSyncGet(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req syncGetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondCode(w, envelope{Code: models.CodeBadRequest, ErrMsg: "invalid request payload"})
		return
	}
	if req.OperateType != string(syncpkg.OperateGeneral) {
		respondCode(w, envelope{Code: models.CodeBadRequest, ErrMsg: "operateType must be general_sync"})
		return
	}

	sealed := req.PlzEncAtoms != nil
	if sealed {
		if err := a.codec.OpenValue(*req.PlzEncAtoms, &req.Atoms); err != nil {
			respondCode(w, envelope{Code: models.CodeBadDecrypt, ErrMsg: "cannot decrypt atoms"})
			return
		}
	}

	if err := syncpkg.ValidateQueryAtoms(req.Atoms); err != nil {
		respondCode(w, envelope{Code: models.CodeBadRequest, ErrMsg: err.Error()})
		return
	}

	results, err := a.syncer.SyncGet(r.Context(), user, req.Atoms)
	if err != nil {
		a.log.Error().Err(err).Str("user", user.ID.String()).Msg("sync-get failed")
		respondCode(w, envelope{Code: models.CodeServerError, ErrMsg: "sync failed"})
		return
	}
	a.respondResults(w, sealed, results)
}

func (a *App) respondResults(w http.ResponseWriter, sealed bool, results any) {
	data := syncData{}
	if sealed {
		ct, err := a.codec.SealValue(results)
		if err != nil {
			a.log.Error().Err(err).Msg("sealing results failed")
			respondCode(w, envelope{Code: models.CodeServerError, ErrMsg: "sealing results failed"})
			return
		}
		data.PlzEncResults = ct
	} else {
		data.Results = results
	}
	respondCode(w, envelope{Code: models.CodeOK, Data: data})
}

func respondCode(w http.ResponseWriter, env envelope) {
	respondJSON(w, http.StatusOK, env)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
