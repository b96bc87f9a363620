package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics provides observability for credit lookups.
type Metrics struct {
	Lookups        *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
}

// New creates the credit lookup metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credito_lookups_total",
			Help: "Total number of credit lookups by query kind and outcome",
		}, []string{"kind", "outcome"}),
		LookupDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credito_lookup_duration_seconds",
			Help:    "Duration of credit lookups including store access",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),
	}
}

// ObserveLookup records one lookup. Call with time.Now() at the start of the
// operation.
func (m *Metrics) ObserveLookup(kind, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(kind, outcome).Inc()
	m.LookupDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
