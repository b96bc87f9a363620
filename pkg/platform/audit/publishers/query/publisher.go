// Package query publishes query-audit events to Kafka with fire-and-forget
// semantics.
//
// PublishQuery never blocks on the broker and never reports failure to the
// caller: loss of an audit event must not fail a successful read. Records are
// handed to the broker client with TryProduce, which only buffers; delivery
// guarantees (acks, retries, idempotence) come from the client configuration.
// Every failure is logged and counted.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "credito/pkg/platform/audit"
)

// Record header keys. event_id lets consumers drop redelivered duplicates.
const (
	HeaderEventID     = "event_id"
	HeaderContentType = "content-type"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	TryProduce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
}

// Publisher emits query-audit events onto a single topic.
type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
	metrics  *Metrics
	breaker  *CircuitBreaker
	clock    *clock
	closed   atomic.Bool
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for delivery reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithCircuitBreaker drops events without hand-off while deliveries keep failing.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(p *Publisher) {
		p.breaker = cb
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.clock = newClock(now)
	}
}

// New creates a publisher targeting topic.
func New(producer Producer, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		logger:   slog.New(slog.DiscardHandler),
		clock:    newClock(time.Now),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishQuery announces that a lookup of kind with parameter happened. A nil
// parameter is published as null.
func (p *Publisher) PublishQuery(ctx context.Context, kind audit.QueryKind, parameter *string) {
	// The record outlives the request; keep its values but not its deadline.
	ctx = context.WithoutCancel(ctx)

	if p.closed.Load() {
		p.metrics.incDropped(ReasonClosed)
		p.logger.WarnContext(ctx, "query audit dropped: publisher closed", "tipo_consulta", kind)
		return
	}
	if p.breaker != nil {
		if !p.breaker.Allow() {
			p.metrics.incDropped(ReasonCircuitOpen)
			p.logger.DebugContext(ctx, "query audit dropped: circuit open", "tipo_consulta", kind)
			return
		}
		p.metrics.setCircuitBreakerState(p.breaker.State())
	}

	event := audit.QueryEvent{
		Kind:      kind,
		Parameter: parameter,
		Timestamp: p.clock.Now(),
		Actor:     audit.SystemActor,
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.metrics.incFailure(ReasonSerialize)
		p.logger.ErrorContext(ctx, "query audit serialization failed",
			"tipo_consulta", kind,
			"error", err,
		)
		return
	}

	eventID := uuid.NewString()
	record := &kgo.Record{
		Topic: p.topic,
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: HeaderEventID, Value: []byte(eventID)},
			{Key: HeaderContentType, Value: []byte("application/json")},
		},
	}
	if parameter != nil {
		record.Key = []byte(*parameter)
	}

	start := time.Now()
	p.producer.TryProduce(ctx, record, func(_ *kgo.Record, err error) {
		p.onDelivery(ctx, kind, eventID, start, err)
	})
}

func (p *Publisher) onDelivery(ctx context.Context, kind audit.QueryKind, eventID string, start time.Time, err error) {
	if err == nil {
		if p.breaker != nil {
			p.breaker.RecordSuccess()
			p.metrics.setCircuitBreakerState(BreakerClosed)
		}
		p.metrics.incPublished()
		p.metrics.observeDelivery(time.Since(start).Seconds())
		return
	}

	reason := ReasonDelivery
	switch {
	case errors.Is(err, kgo.ErrMaxBuffered):
		reason = ReasonBufferFull
	case errors.Is(err, kgo.ErrClientClosed):
		reason = ReasonClosed
	}
	if p.breaker != nil {
		p.breaker.RecordFailure()
		p.metrics.setCircuitBreakerState(p.breaker.State())
	}
	p.metrics.incFailure(reason)
	p.logger.WarnContext(ctx, "query audit delivery failed",
		"topic", p.topic,
		"tipo_consulta", kind,
		"event_id", eventID,
		"reason", reason,
		"error", err,
	)
}

// Close stops accepting events and waits for buffered records to be delivered
// or for ctx to end.
func (p *Publisher) Close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.producer.Flush(ctx)
}

// clock hands out non-decreasing timestamps even if the wall clock steps back.
type clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newClock(now func() time.Time) *clock {
	return &clock{now: now}
}

func (c *clock) Now() time.Time {
	t := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
