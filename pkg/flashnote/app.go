// Package flashnote wires the sync backend together: configuration, store
// selection, the HTTP surface and the auth layer around the sync engine.
package flashnote

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/flashnote/flashnote/pkg/cache"
	"github.com/flashnote/flashnote/pkg/models"
	"github.com/flashnote/flashnote/pkg/secrets"
	"github.com/flashnote/flashnote/pkg/store"
	"github.com/flashnote/flashnote/pkg/store/memory"
	"github.com/flashnote/flashnote/pkg/store/postgres"
	"github.com/flashnote/flashnote/pkg/store/surrealstore"
	syncpkg "github.com/flashnote/flashnote/pkg/sync"
)

// Backend names accepted by Config.Backend.
const (
	BackendPostgres = "postgres"
	BackendSurreal  = "surreal"
	BackendMemory   = "memory"
)

// Config holds application configuration, populated from flags and
// environment variables by Parse.
type Config struct {
	Backend string

	PostgresDSN string

	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	// AESKey is the base64-encoded 256-bit shared secret for the request
	// envelope and payload encryption at rest.
	AESKey string

	ServerPort string
}

// App holds the application state: the selected store, the payload codec,
// the session cache and the sync engine.
type App struct {
	config *Config
	store  store.Store
	codec  *secrets.Codec
	cache  cache.Cache
	log    zerolog.Logger
	syncer *syncpkg.Syncer
}

// New creates an application from the configuration: connects the selected
// backend, builds the codec and wires the sync engine.
func New(ctx context.Context, config *Config) (*App, error) {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	var appStore store.Store
	var err error
	switch config.Backend {
	case BackendSurreal:
		appStore, err = surrealstore.New(
			ctx,
			config.SurrealDBURL,
			config.SurrealDBNS,
			config.SurrealDBDB,
			config.SurrealDBUser,
			config.SurrealDBPass,
		)
		if err != nil {
			return nil, fmt.Errorf("connecting to SurrealDB: %w", err)
		}
		log.Info().Str("url", config.SurrealDBURL).Msg("connected to SurrealDB")
	case BackendPostgres:
		appStore, err = postgres.NewPostgresStore(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		log.Info().Msg("connected to PostgreSQL")
	case BackendMemory:
		appStore = memory.NewStore()
		log.Info().Msg("using in-memory store")
	default:
		return nil, fmt.Errorf("unknown backend %q", config.Backend)
	}

	codec, err := secrets.NewCodec(config.AESKey)
	if err != nil {
		appStore.Close()
		return nil, fmt.Errorf("building payload codec: %w", err)
	}

	app := &App{
		config: config,
		store:  appStore,
		codec:  codec,
		cache:  cache.NewMemory(),
		log:    log,
		syncer: syncpkg.New(appStore, codec, log),
	}
	app.syncer.AfterThreadPost = app.afterThreadPost
	return app, nil
}

// afterThreadPost is the post-commit seam for freshly posted threads. The
// downstream consumer (notification fanout, assistant replies) subscribes
// here; the default just records the event.
func (a *App) afterThreadPost(id models.ContentID) {
	a.log.Info().Str("content", id.String()).Msg("thread posted")
}

// Close closes the application and its resources.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store returns the underlying store, useful for tests.
func (a *App) Store() store.Store { return a.store }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
