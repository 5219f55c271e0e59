// Package prefs persists small per-client preference values, chiefly the
// user's streaming-service selection.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/reelpick/internal/domain"
)

// ServicesKey names the streaming-service selection preference.
const ServicesKey = "services"

// ErrNotFound is returned by Store.Get when nothing is stored for the key.
var ErrNotFound = errors.New("prefs: not found")

// Store is an opaque key/value store scoped by client id.
type Store interface {
	Get(ctx context.Context, clientID, name string) ([]byte, error)
	Set(ctx context.Context, clientID, name string, value []byte) error
	Delete(ctx context.Context, clientID, name string) error
}

// HealthChecker is implemented by backends that depend on a remote service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// LoadServices reads a client's service selection. Missing, unreadable, or
// corrupted values all read as an empty selection.
func LoadServices(ctx context.Context, st Store, clientID string, logger logrus.FieldLogger) []int {
	raw, err := st.Get(ctx, clientID, ServicesKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && logger != nil {
			logger.WithError(err).WithField("client_id", clientID).Warn("read service selection failed")
		}
		return []int{}
	}

	var ids []int
	if err := json.Unmarshal(raw, &ids); err != nil {
		if logger != nil {
			logger.WithError(err).WithField("client_id", clientID).Warn("discarding corrupted service selection")
		}
		return []int{}
	}
	return SanitizeServiceIDs(ids)
}

// SaveServices stores the sanitized selection and returns what was stored.
func SaveServices(ctx context.Context, st Store, clientID string, ids []int) ([]int, error) {
	clean := SanitizeServiceIDs(ids)
	payload, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("encode service selection: %w", err)
	}
	if err := st.Set(ctx, clientID, ServicesKey, payload); err != nil {
		return nil, fmt.Errorf("save service selection: %w", err)
	}
	return clean, nil
}

// ClearServices drops a client's selection.
func ClearServices(ctx context.Context, st Store, clientID string) error {
	if err := st.Delete(ctx, clientID, ServicesKey); err != nil {
		return fmt.Errorf("clear service selection: %w", err)
	}
	return nil
}

// SanitizeServiceIDs keeps ids from the static service table, first
// occurrence wins.
func SanitizeServiceIDs(ids []int) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := domain.LookupService(id); !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
