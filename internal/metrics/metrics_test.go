package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveUpstream("discover", "ok", 20*time.Millisecond)
	m.ObserveUpstream("discover", "ok", 10*time.Millisecond)
	m.ObserveUpstream("search", "error", time.Millisecond)
	m.IncPick("random")
	m.IncRuntimeFallback()
	m.IncPreferenceWrite(true)
	m.IncPreferenceWrite(false)
	m.IncPreferenceWrite(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("discover", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("search", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Picks.WithLabelValues("random")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuntimeFallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PreferenceWrites.WithLabelValues("created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PreferenceWrites.WithLabelValues("updated")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpstream("discover", "ok", time.Second)
		m.IncPick("random")
		m.IncRuntimeFallback()
		m.IncPreferenceWrite(true)
	})
}
