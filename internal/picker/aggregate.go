package picker

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/reelpick/internal/catalog"
	"github.com/Clark-Hu/reelpick/internal/domain"
)

// Aggregate queries every provider for one random genre and page, then merges
// the results. Any failing provider fails the call once every query has
// finished; in-flight queries are not cancelled.
func (s *Service) Aggregate(ctx context.Context, providerIDs []int) ([]domain.Movie, error) {
	ids := NormalizeProviderIDs(providerIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one provider id is required", ErrInvalidInput)
	}

	genres := domain.PopularGenres()
	genre := genres[s.rnd.IntN(len(genres))]
	page := s.rnd.IntN(discoverPages) + 1

	results := make([][]domain.Movie, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			movies, err := s.catalog.Discover(ctx, catalog.DiscoverParams{
				ProviderID: id,
				GenreID:    genre.ID,
				Page:       page,
			})
			if err != nil {
				return fmt.Errorf("discover provider %d: %w", id, err)
			}
			results[i] = movies
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, catalog.ErrMissingCredential) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	merged := MergeCandidates(results, MaxCandidates)
	s.logger.WithField("providers", ids).
		WithField("genre", genre.Name).
		WithField("page", page).
		WithField("count", len(merged)).
		Debug("aggregated candidates")
	return merged, nil
}

// MergeCandidates concatenates lists in order, keeps the first occurrence of
// each movie ID, sorts by popularity descending and truncates to limit.
// Equal popularity keeps first-seen order.
func MergeCandidates(lists [][]domain.Movie, limit int) []domain.Movie {
	total := 0
	for _, list := range lists {
		total += len(list)
	}

	seen := make(map[int]struct{}, total)
	merged := make([]domain.Movie, 0, total)
	for _, list := range lists {
		for _, movie := range list {
			if _, ok := seen[movie.ID]; ok {
				continue
			}
			seen[movie.ID] = struct{}{}
			merged = append(merged, movie)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Popularity > merged[j].Popularity
	})
	if limit >= 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// NormalizeProviderIDs drops non-positive IDs and duplicates, preserving order.
func NormalizeProviderIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
