// Package metrics holds the Prometheus instruments shared by the filter stages.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all the Prometheus metrics for a filter run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// --- Price discovery ---
	PriceCacheLookups *prometheus.CounterVec
	PriceResolutions  *prometheus.CounterVec

	// --- Valuation ---
	RoundTrips    prometheus.Counter
	StageDuration *prometheus.HistogramVec

	// --- Results ---
	PoolsEvaluated *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics on reg under the given subsystem.
func NewMetrics(reg prometheus.Registerer, subsystem string) *Metrics {
	return &Metrics{
		PriceCacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "price_cache_lookups_total",
			Help:      "Price cache lookups, labeled by hit or miss.",
		}, []string{"result"}),

		PriceResolutions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "price_resolutions_total",
			Help:      "Reference price resolutions against the exchanges, labeled by outcome.",
		}, []string{"outcome"}),

		RoundTrips: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "batch_round_trips_total",
			Help:      "Batched value queries sent to the node.",
		}),

		StageDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each filter stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),

		PoolsEvaluated: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "pools_evaluated_total",
			Help:      "Pools seen by a filter stage, labeled by whether they were kept.",
		}, []string{"stage", "outcome"}),

		ErrorsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Errors encountered while filtering, labeled by error type.",
		}, []string{"type"}),
	}
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.PriceCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Resolution(outcome string) {
	if m == nil {
		return
	}
	m.PriceResolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RoundTrip() {
	if m == nil {
		return
	}
	m.RoundTrips.Inc()
}

// ObserveStage records the time elapsed since start for stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Evaluated(stage string, kept, dropped int) {
	if m == nil {
		return
	}
	m.PoolsEvaluated.WithLabelValues(stage, "kept").Add(float64(kept))
	m.PoolsEvaluated.WithLabelValues(stage, "dropped").Add(float64(dropped))
}

func (m *Metrics) Error(kind string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}
