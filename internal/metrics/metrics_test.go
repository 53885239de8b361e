package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheLookup(true)
		m.Resolution("found")
		m.RoundTrip()
		m.ObserveStage("fiat", time.Now())
		m.Evaluated("fiat", 1, 2)
		m.Error("transport")
	})
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "poolfilter")

	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.RoundTrip()
	m.Evaluated("reference", 3, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PriceCacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PriceCacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoundTrips))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PoolsEvaluated.WithLabelValues("reference", "kept")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PoolsEvaluated.WithLabelValues("reference", "dropped")))
}
