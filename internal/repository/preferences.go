package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PreferencesRepository stores opaque per-client preference values.
type PreferencesRepository struct {
	pool *pgxpool.Pool
}

// Get returns the stored value for a client's preference key.
func (r *PreferencesRepository) Get(ctx context.Context, clientID, key string) ([]byte, error) {
	const query = `
        SELECT value
        FROM preferences
        WHERE client_id = $1 AND pref_key = $2
    `
	var value []byte
	err := r.pool.QueryRow(ctx, query, clientID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return value, nil
}

// Upsert writes a value and reports whether the row was newly created.
func (r *PreferencesRepository) Upsert(ctx context.Context, clientID, key string, value []byte) (bool, error) {
	const query = `
        INSERT INTO preferences (client_id, pref_key, value)
        VALUES ($1,$2,$3)
        ON CONFLICT (client_id, pref_key)
        DO UPDATE SET value = EXCLUDED.value, updated_at = now()
        RETURNING (xmax = 0) AS inserted
    `
	var inserted bool
	if err := r.pool.QueryRow(ctx, query, clientID, key, value).Scan(&inserted); err != nil {
		return false, fmt.Errorf("upsert preference: %w", err)
	}
	return inserted, nil
}

// Delete removes a client's preference; deleting a missing key is not an error.
func (r *PreferencesRepository) Delete(ctx context.Context, clientID, key string) error {
	const query = `DELETE FROM preferences WHERE client_id = $1 AND pref_key = $2`
	if _, err := r.pool.Exec(ctx, query, clientID, key); err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	return nil
}
