package picker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Clark-Hu/reelpick/internal/catalog"
	"github.com/Clark-Hu/reelpick/internal/domain"
)

// Search finds up to MaxSearchResults titles with a poster, in catalog
// relevance order, and marks which of the caller's services stream each one.
// A failed availability lookup only degrades its own title.
func (s *Service) Search(ctx context.Context, query string, providerIDs []int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}

	titles, err := s.catalog.Search(ctx, query)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingCredential) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: search %q: %w", ErrUpstream, query, err)
	}

	movies := make([]domain.Movie, 0, MaxSearchResults)
	for _, title := range titles {
		movie, ok := title.Movie()
		if !ok {
			continue
		}
		movies = append(movies, movie)
		if len(movies) == MaxSearchResults {
			break
		}
	}

	requested := make(map[int]struct{}, len(providerIDs))
	for _, id := range providerIDs {
		requested[id] = struct{}{}
	}

	results := make([]domain.SearchResult, len(movies))
	var wg sync.WaitGroup
	for i, movie := range movies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flatrate, err := s.catalog.FlatrateProviders(ctx, movie.ID)
			if err != nil {
				s.logger.WithError(err).WithField("movie_id", movie.ID).Warn("availability lookup failed")
				results[i] = domain.NewSearchResult(movie, nil)
				return
			}
			results[i] = domain.NewSearchResult(movie, availableOn(flatrate, requested))
		}()
	}
	wg.Wait()

	return results, nil
}

// availableOn lists, in service-table order, the names of services that are
// both requested and streaming the title.
func availableOn(flatrate []int, requested map[int]struct{}) []string {
	streaming := make(map[int]struct{}, len(flatrate))
	for _, id := range flatrate {
		streaming[id] = struct{}{}
	}
	names := make([]string, 0)
	for _, svc := range domain.StreamingServices() {
		if _, ok := requested[svc.ID]; !ok {
			continue
		}
		if _, ok := streaming[svc.ID]; !ok {
			continue
		}
		names = append(names, svc.Name)
	}
	return names
}
