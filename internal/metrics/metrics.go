package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors shared by the catalog client and the pipeline.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	Picks            *prometheus.CounterVec
	RuntimeFallbacks prometheus.Counter
	PreferenceWrites *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil registerer falls back to the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reelpick_catalog_requests_total",
			Help: "Catalog API requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reelpick_catalog_request_duration_seconds",
			Help:    "Catalog API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		Picks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reelpick_picks_total",
			Help: "Winners selected by pick method",
		}, []string{"method"}),
		RuntimeFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelpick_runtime_fallbacks_total",
			Help: "Shortest-runtime picks that fell back to a random draw",
		}),
		PreferenceWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reelpick_preference_writes_total",
			Help: "Stored preference writes by result (created or updated)",
		}, []string{"result"}),
	}
}

// ObserveUpstream records one catalog call. Safe on a nil receiver.
func (m *Metrics) ObserveUpstream(endpoint, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamLatency.WithLabelValues(endpoint).Observe(took.Seconds())
}

// IncPick counts a completed selection. Safe on a nil receiver.
func (m *Metrics) IncPick(method string) {
	if m == nil {
		return
	}
	m.Picks.WithLabelValues(method).Inc()
}

// IncRuntimeFallback counts a shortest-runtime pick with no known runtimes.
func (m *Metrics) IncRuntimeFallback() {
	if m == nil {
		return
	}
	m.RuntimeFallbacks.Inc()
}

// IncPreferenceWrite counts a stored preference write. Safe on a nil receiver.
func (m *Metrics) IncPreferenceWrite(created bool) {
	if m == nil {
		return
	}
	result := "updated"
	if created {
		result = "created"
	}
	m.PreferenceWrites.WithLabelValues(result).Inc()
}
