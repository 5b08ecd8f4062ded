package flashnote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Run starts the HTTP server and blocks until the context is cancelled or a
// fatal server error occurs. On shutdown, active requests get up to five
// seconds to complete.
//
// Endpoints:
//
//	GET  /health           - Service health status
//	POST /api/auth/login   - Issue a bearer token for an email
//	POST /api/auth/logout  - Revoke the caller's token
//	POST /api/sync/set     - Run a batch of mutation atoms
//	POST /api/sync/get     - Run a batch of read queries
//
// Both sync endpoints require a bearer token and accept either plaintext
// atoms or a plz_enc_atoms envelope sealed with the shared key.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	router := a.router()

	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.log.Info().Str("addr", addr).Str("backend", a.config.Backend).Msg("starting server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (a *App) router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", a.handleLogin).Methods("POST")
	api.HandleFunc("/auth/logout", a.handleLogout).Methods("POST")
	api.HandleFunc("/sync/set", a.handleSyncSet).Methods("POST")
	api.HandleFunc("/sync/get", a.handleSyncGet).Methods("POST")

	router.HandleFunc("/health", a.handleHealth).Methods("GET")
	return router
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"backend": a.config.Backend,
	})
}
