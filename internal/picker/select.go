package picker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Clark-Hu/reelpick/internal/catalog"
	"github.com/Clark-Hu/reelpick/internal/domain"
)

// Pick is the outcome of a winner selection.
type Pick struct {
	Winner domain.Movie
	Method domain.PickMethod
	// Runtimes is only populated for PickShortestRuntime.
	Runtimes domain.RuntimeMap
	// FellBack is set when no runtime was known and the winner was drawn at random.
	FellBack bool
}

// SelectWinner chooses one of candidates using method. Ties go to the earliest
// candidate. Shortest-runtime first looks up every runtime concurrently; lookup
// failures count as unknown and never abort the selection.
func (s *Service) SelectWinner(ctx context.Context, candidates []domain.Movie, method domain.PickMethod) (Pick, error) {
	if err := validateCandidates(candidates); err != nil {
		return Pick{}, err
	}

	pick := Pick{Method: method}
	switch method {
	case domain.PickRandom:
		pick.Winner = pickRandom(candidates, s.rnd)
	case domain.PickHighestRated:
		pick.Winner = pickHighestRated(candidates)
	case domain.PickMostPopular:
		pick.Winner = pickMostPopular(candidates)
	case domain.PickShortestRuntime:
		runtimes, err := s.fetchRuntimes(ctx, candidates)
		if err != nil {
			return Pick{}, err
		}
		pick.Runtimes = runtimes
		pick.Winner, pick.FellBack = pickShortestRuntime(candidates, runtimes, s.rnd)
		if pick.FellBack {
			s.metrics.IncRuntimeFallback()
		}
	default:
		return Pick{}, fmt.Errorf("%w: unknown pick method %q", ErrInvalidInput, method)
	}

	s.metrics.IncPick(method.String())
	return pick, nil
}

// Runtime looks up a single title's runtime in minutes. Lookup failures yield
// nil; only a missing credential is reported as an error.
func (s *Service) Runtime(ctx context.Context, id int) (*int, error) {
	details, err := s.catalog.Details(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrMissingCredential) {
			return nil, err
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			s.logger.WithError(err).WithField("movie_id", id).Warn("runtime lookup failed")
		}
		return nil, nil
	}
	return details.Runtime, nil
}

func (s *Service) fetchRuntimes(ctx context.Context, candidates []domain.Movie) (domain.RuntimeMap, error) {
	runtimes := make([]*int, len(candidates))
	errs := make([]error, len(candidates))

	var wg sync.WaitGroup
	for i, movie := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runtimes[i], errs[i] = s.Runtime(ctx, movie.ID)
		}()
	}
	wg.Wait()

	out := make(domain.RuntimeMap, len(candidates))
	for i, movie := range candidates {
		if errs[i] != nil {
			return nil, errs[i]
		}
		out[movie.ID] = runtimes[i]
	}
	return out, nil
}

func validateCandidates(candidates []domain.Movie) error {
	if len(candidates) < MinPickCandidates || len(candidates) > MaxPickCandidates {
		return fmt.Errorf("%w: need %d to %d candidates, got %d",
			ErrInvalidInput, MinPickCandidates, MaxPickCandidates, len(candidates))
	}
	seen := make(map[int]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate candidate %d", ErrInvalidInput, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

func pickRandom(candidates []domain.Movie, rnd Randomizer) domain.Movie {
	return candidates[rnd.IntN(len(candidates))]
}

// foldBest walks candidates left to right and replaces the running best only
// when better reports a strict improvement. candidates must be non-empty.
func foldBest(candidates []domain.Movie, better func(next, best domain.Movie) bool) domain.Movie {
	best := candidates[0]
	for _, m := range candidates[1:] {
		if better(m, best) {
			best = m
		}
	}
	return best
}

func pickHighestRated(candidates []domain.Movie) domain.Movie {
	return foldBest(candidates, func(next, best domain.Movie) bool {
		return next.VoteAverage > best.VoteAverage
	})
}

func pickMostPopular(candidates []domain.Movie) domain.Movie {
	return foldBest(candidates, func(next, best domain.Movie) bool {
		return next.Popularity > best.Popularity
	})
}

// pickShortestRuntime folds over candidates with a known runtime. With none
// known it draws from the full candidate list and reports the fallback.
func pickShortestRuntime(candidates []domain.Movie, runtimes domain.RuntimeMap, rnd Randomizer) (domain.Movie, bool) {
	known := make([]domain.Movie, 0, len(candidates))
	for _, m := range candidates {
		if runtimes[m.ID] != nil {
			known = append(known, m)
		}
	}
	if len(known) == 0 {
		return pickRandom(candidates, rnd), true
	}
	return foldBest(known, func(next, best domain.Movie) bool {
		return *runtimes[next.ID] < *runtimes[best.ID]
	}), false
}
