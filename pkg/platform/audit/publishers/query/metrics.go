package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure and drop reasons used as metric labels.
const (
	ReasonSerialize   = "serialize"
	ReasonBufferFull  = "buffer_full"
	ReasonDelivery    = "delivery"
	ReasonClosed      = "closed"
	ReasonCircuitOpen = "circuit_open"
)

// Metrics holds Prometheus metrics for query-audit publishing.
type Metrics struct {
	Published           prometheus.Counter
	Failures            *prometheus.CounterVec
	Dropped             *prometheus.CounterVec
	DeliveryDuration    prometheus.Histogram
	CircuitBreakerState prometheus.Gauge
}

// NewMetrics registers the publisher metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounter(prometheus.CounterOpts{
			Name: "credito_audit_query_published_total",
			Help: "Total number of query-audit events acknowledged by the broker",
		}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credito_audit_query_failures_total",
			Help: "Total number of query-audit events lost after hand-off was attempted",
		}, []string{"reason"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credito_audit_query_dropped_total",
			Help: "Total number of query-audit events dropped before hand-off",
		}, []string{"reason"}),
		DeliveryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "credito_audit_query_delivery_duration_seconds",
			Help:    "Time from hand-off to broker acknowledgement",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		CircuitBreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "credito_audit_query_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
	}
}

func (m *Metrics) incPublished() {
	if m == nil {
		return
	}
	m.Published.Inc()
}

func (m *Metrics) incFailure(reason string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(reason).Inc()
}

func (m *Metrics) incDropped(reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeDelivery(seconds float64) {
	if m == nil {
		return
	}
	m.DeliveryDuration.Observe(seconds)
}

func (m *Metrics) setCircuitBreakerState(state BreakerState) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.Set(float64(state))
}
