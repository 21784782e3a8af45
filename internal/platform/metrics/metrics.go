// Package metrics provides prometheus observability for attribute
// resolution. All methods are nil-safe so wiring metrics stays optional.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers source queries and the caching layer.
type Metrics struct {
	// SourceLatency tracks per-source query durations.
	SourceLatency *prometheus.HistogramVec

	// SourceFailures counts source-level failures by source name.
	SourceFailures *prometheus.CounterVec

	// ResolutionOutcomes counts resolutions by operation and outcome
	// ("found", "absent", "error").
	ResolutionOutcomes *prometheus.CounterVec

	// CacheEvents counts cache decorator events by kind
	// ("hit", "miss", "put", "remove", "flush").
	CacheEvents *prometheus.CounterVec
}

// New registers all resolution metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SourceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "persondir_source_query_duration_seconds",
			Help:    "Duration of backend source queries by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}),

		SourceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "persondir_source_failures_total",
			Help: "Total source query failures by source",
		}, []string{"source"}),

		ResolutionOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "persondir_resolution_outcomes_total",
			Help: "Total resolutions by operation and outcome",
		}, []string{"operation", "outcome"}),

		CacheEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "persondir_cache_events_total",
			Help: "Total caching decorator events by kind",
		}, []string{"kind"}),
	}
}

// ObserveSourceLatency records the duration of one source query.
func (m *Metrics) ObserveSourceLatency(sourceName string, d time.Duration) {
	if m != nil {
		m.SourceLatency.WithLabelValues(sourceName).Observe(d.Seconds())
	}
}

// IncrementSourceFailure records a failed source query.
func (m *Metrics) IncrementSourceFailure(sourceName string) {
	if m != nil {
		m.SourceFailures.WithLabelValues(sourceName).Inc()
	}
}

// IncrementOutcome records a resolution outcome.
func (m *Metrics) IncrementOutcome(operation, outcome string) {
	if m != nil {
		m.ResolutionOutcomes.WithLabelValues(operation, outcome).Inc()
	}
}

// IncrementCacheEvent records a caching decorator event.
func (m *Metrics) IncrementCacheEvent(kind string) {
	if m != nil {
		m.CacheEvents.WithLabelValues(kind).Inc()
	}
}
