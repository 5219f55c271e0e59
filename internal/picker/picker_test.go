package picker

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/Clark-Hu/reelpick/internal/catalog"
	"github.com/Clark-Hu/reelpick/internal/domain"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Discover(ctx context.Context, params catalog.DiscoverParams) ([]domain.Movie, error) {
	args := m.Called(ctx, params)
	movies, _ := args.Get(0).([]domain.Movie)
	return movies, args.Error(1)
}

func (m *mockCatalog) Search(ctx context.Context, query string) ([]catalog.Title, error) {
	args := m.Called(ctx, query)
	titles, _ := args.Get(0).([]catalog.Title)
	return titles, args.Error(1)
}

func (m *mockCatalog) Details(ctx context.Context, id int) (*catalog.Details, error) {
	args := m.Called(ctx, id)
	details, _ := args.Get(0).(*catalog.Details)
	return details, args.Error(1)
}

func (m *mockCatalog) FlatrateProviders(ctx context.Context, id int) ([]int, error) {
	args := m.Called(ctx, id)
	ids, _ := args.Get(0).([]int)
	return ids, args.Error(1)
}

// seqRandomizer replays fixed draws, wrapping each into [0, n).
type seqRandomizer struct {
	mu     sync.Mutex
	values []int
	next   int
}

func (r *seqRandomizer) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.values[r.next%len(r.values)]
	r.next++
	return v % n
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestService(client catalog.Client, draws ...int) *Service {
	opts := []Option{WithLogger(quietLogger())}
	if len(draws) > 0 {
		opts = append(opts, WithRandomizer(&seqRandomizer{values: draws}))
	}
	return New(client, opts...)
}

func movie(id int, rating, popularity float64) domain.Movie {
	return domain.Movie{
		ID:          id,
		Title:       "Movie",
		PosterPath:  "/poster.jpg",
		VoteAverage: rating,
		Popularity:  popularity,
	}
}

func details(id int, runtime *int) *catalog.Details {
	return &catalog.Details{Title: catalog.Title{ID: id}, Runtime: runtime}
}

func minutes(v int) *int {
	return &v
}

func poster(p string) *string {
	return &p
}
