package flashnote

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/store"
)

const (
	sessionTTL      = 30 * 24 * time.Hour
	sessionCacheTTL = 15 * time.Minute
	cacheKeyPrefix  = "session:"
)

type loginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type loginResponse struct {
	Token       string       `json:"token"`
	UserID      string       `json:"userId"`
	SpaceID     string       `json:"spaceId"`
	ExpireStamp int64        `json:"expireStamp"`
	User        *models.User `json:"user"`
}

// generateToken returns a 64-character hex token with 256 bits of entropy.
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// handleLogin issues a bearer token for an email address. First login
// bootstraps the account: the user row, their personal workspace and its
// member row.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondCode(w, envelope{Code: models.CodeBadRequest, ErrMsg: "invalid request payload"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		respondCode(w, envelope{Code: models.CodeBadRequest, ErrMsg: "a valid email is required"})
		return
	}

	ctx := r.Context()
	user, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.log.Error().Err(err).Msg("looking up user failed")
			respondCode(w, envelope{Code: models.CodeServerError, ErrMsg: "login failed"})
			return
		}
		user, err = a.signUp(ctx, email, req.Name)
		if err != nil {
			a.log.Error().Err(err).Msg("creating account failed")
			respondCode(w, envelope{Code: models.CodeServerError, ErrMsg: "login failed"})
			return
		}
	}
	if user.OState != models.UserNormal {
		respondCode(w, envelope{Code: models.CodeForbidden, ErrMsg: "account is not active"})
		return
	}

	token, err := generateToken()
	if err != nil {
		respondCode(w, envelope{Code: models.CodeServerError, ErrMsg: "login failed"})
		return
	}
	now := time.Now().UnixMilli()
	session := &models.Session{
		Token:         token,
		UserID:        user.ID,
		ExpireStamp:   now + sessionTTL.Milliseconds(),
		IsOn:          true,
		InsertedStamp: now,
		UpdatedStamp:  now,
	}
	if err := a.store.CreateSession(ctx, session); err != nil {
		a.log.Error().Err(err).Msg("creating session failed")
		respondCode(w, envelope{Code: models.CodeServerError, ErrMsg: "login failed"})
		return
	}
	_ = a.cache.Set(ctx, cacheKeyPrefix+token, user.ID.String(), sessionCacheTTL)

	spaceIDs, err := a.store.ListMemberSpaceIDs(ctx, user.ID)
	if err != nil {
		a.log.Error().Err(err).Msg("loading memberships failed")
		respondCode(w, envelope{Code: models.CodeServerError, ErrMsg: "login failed"})
		return
	}
	var spaceID string
	if len(spaceIDs) > 0 {
		spaceID = spaceIDs[0].String()
	}

	respondCode(w, envelope{Code: models.CodeOK, Data: loginResponse{
		Token:       token,
		UserID:      user.ID.String(),
		SpaceID:     spaceID,
		ExpireStamp: session.ExpireStamp,
		User:        user,
	}})
}

// signUp creates the user, their personal workspace and its member row.
func (a *App) signUp(ctx context.Context, email, name string) (*models.User, error) {
	now := time.Now().UnixMilli()
	user := &models.User{
		ID:            models.NewUserID(),
		Email:         email,
		Name:          name,
		OState:        models.UserNormal,
		InsertedStamp: now,
		UpdatedStamp:  now,
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	workspace := &models.Workspace{
		ID:            models.NewWorkspaceID(),
		OwnerID:       user.ID,
		InfoType:      models.SpaceMe,
		OState:        models.OStateOK,
		InsertedStamp: now,
		UpdatedStamp:  now,
	}
	if err := a.store.CreateWorkspace(ctx, workspace); err != nil {
		return nil, err
	}

	member := &models.Member{
		ID:            models.NewMemberID(),
		UserID:        user.ID,
		SpaceID:       workspace.ID,
		SpaceType:     models.SpaceMe,
		OState:        models.MemberOK,
		Name:          name,
		InsertedStamp: now,
		UpdatedStamp:  now,
	}
	if err := a.store.CreateMember(ctx, member); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	ctx := r.Context()
	_ = a.cache.Delete(ctx, cacheKeyPrefix+token)
	if err := a.store.DeleteSession(ctx, token); err != nil && !errors.Is(err, store.ErrNotFound) {
		a.log.Error().Err(err).Msg("deleting session failed")
		respondCode(w, envelope{Code: models.CodeServerError, ErrMsg: "logout failed"})
		return
	}
	respondCode(w, envelope{Code: models.CodeOK})
}

// requireUser resolves the caller from the bearer token: cache fast path,
// session row fallback. A miss answers 401 and returns false.
func (a *App) requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	token := bearerToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}

	ctx := r.Context()
	if cached, found, err := a.cache.Get(ctx, cacheKeyPrefix+token); err == nil && found {
		if userID, err := models.ParseUserID(cached); err == nil {
			if user, err := a.store.GetUser(ctx, userID); err == nil {
				return user, true
			}
		}
	}

	session, err := a.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return nil, false
		}
		a.log.Error().Err(err).Msg("loading session failed")
		respondError(w, http.StatusInternalServerError, "auth lookup failed")
		return nil, false
	}
	if !session.IsOn || session.Expired(time.Now().UnixMilli()) {
		respondError(w, http.StatusUnauthorized, "token expired")
		return nil, false
	}

	user, err := a.store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return nil, false
		}
		a.log.Error().Err(err).Msg("loading user failed")
		respondError(w, http.StatusInternalServerError, "auth lookup failed")
		return nil, false
	}
	if user.OState != models.UserNormal {
		respondError(w, http.StatusUnauthorized, "account is not active")
		return nil, false
	}

	_ = a.cache.Set(ctx, cacheKeyPrefix+token, user.ID.String(), sessionCacheTTL)
	return user, true
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
