package prefs

import (
	"context"
	"errors"

	"github.com/Clark-Hu/reelpick/internal/metrics"
	"github.com/Clark-Hu/reelpick/internal/repository"
	"github.com/Clark-Hu/reelpick/internal/store"
)

// PostgresStore adapts the preferences repository to Store.
type PostgresStore struct {
	repo    *repository.PreferencesRepository
	db      *store.Store
	metrics *metrics.Metrics
}

// NewPostgresStore builds a Store over an open database. db may be nil when
// only the repository is available, in which case no health check runs.
// m may be nil.
func NewPostgresStore(repo *repository.PreferencesRepository, db *store.Store, m *metrics.Metrics) *PostgresStore {
	return &PostgresStore{repo: repo, db: db, metrics: m}
}

func (s *PostgresStore) Get(ctx context.Context, clientID, name string) ([]byte, error) {
	v, err := s.repo.Get(ctx, clientID, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *PostgresStore) Set(ctx context.Context, clientID, name string, value []byte) error {
	inserted, err := s.repo.Upsert(ctx, clientID, name, value)
	if err != nil {
		return err
	}
	s.metrics.IncPreferenceWrite(inserted)
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, clientID, name string) error {
	return s.repo.Delete(ctx, clientID, name)
}

// HealthCheck pings the database.
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.HealthCheck(ctx)
}
