package cli

import (
	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/store"
)

// buildClient constructs the backend client from the effective config.
func buildClient(cfg config.Config) *api.Client {
	return api.NewClient(api.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout(),
		Policy: api.RetryPolicy{
			MaxRetries:   cfg.Retry.MaxRetries,
			InitialDelay: cfg.Retry.InitialDelay(),
			Multiplier:   cfg.Retry.Multiplier,
			MaxDelay:     cfg.Retry.MaxDelay(),
		},
		Tenant: api.NewTenantScope(cfg.Tenant),
		Logger: log,
	})
}

// openStore opens the local transcript cache. A failure is not fatal to
// chatting; callers treat a nil store as "no cache".
func openStore(cfg config.Config) (*store.DB, *store.TranscriptStore) {
	path := cfg.Database.Path
	if path == "" {
		path = paths.Database
	}
	db, err := store.Open(path, log)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("transcript cache unavailable")
		return nil, nil
	}
	return db, store.NewTranscriptStore(db)
}
