// Package picker implements the candidate pipeline: aggregating provider
// catalogs, annotating search results with availability, and choosing a winner.
package picker

import (
	"errors"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/reelpick/internal/catalog"
	"github.com/Clark-Hu/reelpick/internal/metrics"
)

var (
	// ErrInvalidInput marks caller errors; no upstream query is issued.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream marks a catalog failure that aborts the whole operation.
	ErrUpstream = errors.New("upstream failure")
)

const (
	// MaxCandidates caps the merged browse list.
	MaxCandidates = 20
	// MaxSearchResults caps the annotated search list.
	MaxSearchResults = 5
	// MinPickCandidates and MaxPickCandidates bound the winner selection input.
	MinPickCandidates = 2
	MaxPickCandidates = 5

	discoverPages = 3
)

// Randomizer supplies uniform draws in [0, n).
type Randomizer interface {
	IntN(n int) int
}

type globalRandomizer struct{}

// math/rand/v2 top-level functions are safe for concurrent use.
func (globalRandomizer) IntN(n int) int {
	return rand.IntN(n)
}

// Service runs the pipeline against a catalog client. It holds no mutable state
// between calls and is safe for concurrent use.
type Service struct {
	catalog catalog.Client
	rnd     Randomizer
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// Option customizes a Service.
type Option func(*Service)

// WithRandomizer replaces the default random source.
func WithRandomizer(r Randomizer) Option {
	return func(s *Service) {
		if r != nil {
			s.rnd = r
		}
	}
}

// WithLogger sets the logger used for degraded per-item lookups.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics enables pick counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service backed by client.
func New(client catalog.Client, opts ...Option) *Service {
	s := &Service{
		catalog: client,
		rnd:     globalRandomizer{},
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "picker")
	return s
}
