package repository

import (
	"context"
	"time"

	"github.com/statelayer/edgebase/internal/database"
	"github.com/statelayer/edgebase/internal/errs"
)

// ConfigRepository persists runtime key/value configuration in the store's
// config table. Distinct from internal/config, which is the process
// environment.
type ConfigRepository struct {
	db *database.Database
}

// Get returns the value for key or errs.ErrNotFound.
func (r *ConfigRepository) Get(ctx context.Context, key string) (string, error) {
	res, err := r.db.QueryOne(ctx, "SELECT value FROM config WHERE key = ?", key)
	if err != nil {
		return "", err
	}
	if res.Row == nil {
		return "", errs.ErrNotFound
	}
	return rowString(res.Row, "value"), nil
}

// Set upserts the value for key.
func (r *ConfigRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.Execute(ctx,
		`INSERT INTO config (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTime(time.Now().UTC()),
	)
	return err
}

// All returns the full table as a map.
func (r *ConfigRepository) All(ctx context.Context) (map[string]string, error) {
	res, err := r.db.Query(ctx, "SELECT key, value FROM config")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(res.Rows))
	for _, row := range res.Rows {
		out[rowString(row, "key")] = rowString(row, "value")
	}
	return out, nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (r *ConfigRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.Execute(ctx, "DELETE FROM config WHERE key = ?", key)
	return err
}
