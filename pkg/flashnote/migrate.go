package flashnote

import "context"

// Migrate initializes or updates the schema of the configured backend: GORM
// AutoMigrate on PostgreSQL, index definitions on SurrealDB. Idempotent, safe
// to run on every deploy.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	a.log.Info().Str("backend", a.config.Backend).Msg("running migrations")
	if err := a.store.Migrate(ctx); err != nil {
		return err
	}
	a.log.Info().Msg("migrations complete")
	return nil
}
