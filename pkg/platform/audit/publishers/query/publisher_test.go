package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "credito/pkg/platform/audit"
)

const testTopic = "creditos-consultas"

// fakeProducer records every hand-off and completes the promise inline.
type fakeProducer struct {
	mu       sync.Mutex
	records  []*kgo.Record
	ctxs     []context.Context
	err      error
	flushed  bool
	deferred bool
	pending  []func()
}

func (f *fakeProducer) TryProduce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.mu.Lock()
	f.records = append(f.records, r)
	f.ctxs = append(f.ctxs, ctx)
	err := f.err
	if f.deferred {
		f.pending = append(f.pending, func() { promise(r, err) })
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	promise(r, err)
}

func (f *fakeProducer) Flush(context.Context) error {
	f.mu.Lock()
	pending := f.pending
	f.pending = nil
	f.flushed = true
	f.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
	return nil
}

func (f *fakeProducer) wire(t *testing.T, i int) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Greater(t, len(f.records), i)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(f.records[i].Value, &wire))
	return wire
}

func strPtr(s string) *string { return &s }

func newTestPublisher(producer Producer, opts ...Option) (*Publisher, *Metrics) {
	m := NewMetrics(prometheus.NewRegistry())
	opts = append([]Option{WithMetrics(m), WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))}, opts...)
	return New(producer, testTopic, opts...), m
}

func TestPublishQuery_WireEvent(t *testing.T) {
	producer := &fakeProducer{}
	pub, m := newTestPublisher(producer)

	pub.PublishQuery(context.Background(), audit.QueryByNumeroNfse, strPtr("7891011"))

	require.Len(t, producer.records, 1)
	record := producer.records[0]
	assert.Equal(t, testTopic, record.Topic)
	assert.Equal(t, []byte("7891011"), record.Key)

	wire := producer.wire(t, 0)
	assert.Len(t, wire, 4)
	assert.Equal(t, "CONSULTA_POR_NFSE", wire["tipoConsulta"])
	assert.Equal(t, "7891011", wire["parametro"])
	assert.Equal(t, "sistema", wire["usuario"])
	ts, ok := wire["timestamp"].(string)
	require.True(t, ok)
	_, err := time.ParseInLocation(audit.TimestampLayout, ts, time.Local)
	assert.NoError(t, err)

	assert.Equal(t, float64(1), promtest.ToFloat64(m.Published))
}

func TestPublishQuery_Headers(t *testing.T) {
	producer := &fakeProducer{}
	pub, _ := newTestPublisher(producer)

	pub.PublishQuery(context.Background(), audit.QueryByNumeroCredito, strPtr("123456"))
	pub.PublishQuery(context.Background(), audit.QueryByNumeroCredito, strPtr("123456"))

	require.Len(t, producer.records, 2)
	ids := make([]string, 0, 2)
	for _, r := range producer.records {
		headers := map[string]string{}
		for _, h := range r.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "application/json", headers[HeaderContentType])
		require.NotEmpty(t, headers[HeaderEventID])
		ids = append(ids, headers[HeaderEventID])
	}
	assert.NotEqual(t, ids[0], ids[1], "each event gets its own id")
}

func TestPublishQuery_ParameterEmptyVersusNull(t *testing.T) {
	producer := &fakeProducer{}
	pub, _ := newTestPublisher(producer)

	pub.PublishQuery(context.Background(), audit.QueryByNumeroCredito, strPtr(""))
	pub.PublishQuery(context.Background(), audit.QueryByNumeroCredito, nil)

	empty := producer.wire(t, 0)
	value, present := empty["parametro"]
	require.True(t, present)
	assert.Equal(t, "", value)
	assert.NotNil(t, producer.records[0].Key)
	assert.Empty(t, producer.records[0].Key)

	null := producer.wire(t, 1)
	value, present = null["parametro"]
	require.True(t, present, "null parametro is still serialized")
	assert.Nil(t, value)
	assert.Nil(t, producer.records[1].Key)
}

func TestPublishQuery_WhitespacePassesThrough(t *testing.T) {
	producer := &fakeProducer{}
	pub, _ := newTestPublisher(producer)

	pub.PublishQuery(context.Background(), audit.QueryByNumeroCredito, strPtr(" ABC 123 "))

	assert.Equal(t, " ABC 123 ", producer.wire(t, 0)["parametro"])
}

func TestPublishQuery_TimestampsNonDecreasing(t *testing.T) {
	base := time.Date(2024, 2, 25, 10, 0, 0, 0, time.Local)
	ticks := []time.Time{
		base,
		base.Add(time.Second),
		base.Add(500 * time.Millisecond), // wall clock stepped back
		base.Add(2 * time.Second),
	}
	i := 0
	now := func() time.Time {
		tick := ticks[i]
		i++
		return tick
	}

	producer := &fakeProducer{}
	pub, _ := newTestPublisher(producer, WithClock(now))
	for range ticks {
		pub.PublishQuery(context.Background(), audit.QueryByNumeroNfse, strPtr("k"))
	}

	var prev time.Time
	for n := range ticks {
		ts, err := time.ParseInLocation(audit.TimestampLayout, producer.wire(t, n)["timestamp"].(string), time.Local)
		require.NoError(t, err)
		assert.False(t, ts.Before(prev), "timestamp %d went backwards", n)
		prev = ts
	}
}

func TestPublishQuery_RequestCancellationDoesNotReachProducer(t *testing.T) {
	producer := &fakeProducer{}
	pub, _ := newTestPublisher(producer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub.PublishQuery(ctx, audit.QueryByNumeroNfse, strPtr("k"))

	require.Len(t, producer.ctxs, 1)
	assert.NoError(t, producer.ctxs[0].Err())
}

func TestPublishQuery_FailuresAreSwallowed(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		reason string
	}{
		{name: "buffer full", err: kgo.ErrMaxBuffered, reason: ReasonBufferFull},
		{name: "client closed", err: kgo.ErrClientClosed, reason: ReasonClosed},
		{name: "broker error", err: errors.New("broker unreachable"), reason: ReasonDelivery},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			producer := &fakeProducer{err: tc.err}
			m := NewMetrics(prometheus.NewRegistry())
			pub := New(producer, testTopic, WithMetrics(m), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

			assert.NotPanics(t, func() {
				pub.PublishQuery(context.Background(), audit.QueryByNumeroNfse, strPtr("k"))
			})

			assert.Equal(t, float64(1), promtest.ToFloat64(m.Failures.WithLabelValues(tc.reason)))
			assert.Equal(t, float64(0), promtest.ToFloat64(m.Published))
			assert.Contains(t, logs.String(), "query audit delivery failed")
		})
	}
}

func TestPublishQuery_CircuitBreakerDrops(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	cb := NewCircuitBreaker(2, time.Minute)
	pub, m := newTestPublisher(producer, WithCircuitBreaker(cb))

	for range 5 {
		pub.PublishQuery(context.Background(), audit.QueryByNumeroNfse, strPtr("k"))
	}

	assert.Len(t, producer.records, 2, "hand-off stops once the circuit opens")
	assert.True(t, cb.IsOpen())
	assert.Equal(t, float64(3), promtest.ToFloat64(m.Dropped.WithLabelValues(ReasonCircuitOpen)))
	assert.Equal(t, float64(1), promtest.ToFloat64(m.CircuitBreakerState))
}

func TestPublishQuery_CircuitRecoversThroughTrial(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	producer := &fakeProducer{err: errors.New("broker down"), deferred: true}
	cb := NewCircuitBreaker(1, time.Minute)
	cb.now = func() time.Time { return now }
	pub, m := newTestPublisher(producer, WithCircuitBreaker(cb))

	pub.PublishQuery(context.Background(), audit.QueryByNumeroNfse, strPtr("a"))
	require.NoError(t, producer.Flush(context.Background()))
	require.True(t, cb.IsOpen())

	now = now.Add(2 * time.Minute)
	producer.err = nil
	pub.PublishQuery(context.Background(), audit.QueryByNumeroNfse, strPtr("b"))
	pub.PublishQuery(context.Background(), audit.QueryByNumeroNfse, strPtr("c"))
	assert.Len(t, producer.records, 2, "only the trial record is handed off while half-open")
	assert.Equal(t, float64(BreakerHalfOpen), promtest.ToFloat64(m.CircuitBreakerState))

	require.NoError(t, producer.Flush(context.Background()))
	assert.Equal(t, BreakerClosed, cb.State())
	assert.Equal(t, float64(BreakerClosed), promtest.ToFloat64(m.CircuitBreakerState))
	assert.Equal(t, float64(1), promtest.ToFloat64(m.Dropped.WithLabelValues(ReasonCircuitOpen)))
}

func TestClose_FlushesAndRejects(t *testing.T) {
	producer := &fakeProducer{deferred: true}
	pub, m := newTestPublisher(producer)

	pub.PublishQuery(context.Background(), audit.QueryByNumeroNfse, strPtr("k"))
	assert.Equal(t, float64(0), promtest.ToFloat64(m.Published), "not acknowledged before flush")

	require.NoError(t, pub.Close(context.Background()))
	assert.True(t, producer.flushed)
	assert.Equal(t, float64(1), promtest.ToFloat64(m.Published))

	pub.PublishQuery(context.Background(), audit.QueryByNumeroNfse, strPtr("k"))
	assert.Len(t, producer.records, 1)
	assert.Equal(t, float64(1), promtest.ToFloat64(m.Dropped.WithLabelValues(ReasonClosed)))

	assert.NoError(t, pub.Close(context.Background()), "second close is a no-op")
}

func TestPublishQuery_Concurrent(t *testing.T) {
	producer := &fakeProducer{}
	pub, m := newTestPublisher(producer)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pub.PublishQuery(context.Background(), audit.QueryByNumeroCredito, strPtr("123456"))
		}()
	}
	wg.Wait()

	assert.Len(t, producer.records, 50)
	assert.Equal(t, float64(50), promtest.ToFloat64(m.Published))
}

func TestPublishQuery_NilMetrics(t *testing.T) {
	producer := &fakeProducer{err: errors.New("boom")}
	pub := New(producer, testTopic)

	assert.NotPanics(t, func() {
		pub.PublishQuery(context.Background(), audit.QueryByNumeroNfse, nil)
	})
}
