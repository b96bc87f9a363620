package query

import (
	"sync"
	"time"
)

// BreakerState is the position of a CircuitBreaker. The values are exported
// as the circuit breaker gauge.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreaker stops hand-off to the broker client while deliveries keep
// failing.
//
// Closed: every record passes; threshold consecutive failures open it.
// Open: every record is refused until cooldown elapses.
// HalfOpen: a single trial record passes. Its delivery result closes the
// circuit or re-opens it for another cooldown. A trial that never reports
// back is replaced by a new one after cooldown.
type CircuitBreaker struct {
	mu sync.Mutex

	threshold int
	cooldown  time.Duration
	now       func() time.Time

	state      BreakerState
	failures   int
	openUntil  time.Time
	trialStart time.Time
	trialOut   bool
}

// NewCircuitBreaker creates a closed circuit breaker. Non-positive arguments
// fall back to 5 failures and 30s.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Allow reports whether a record may be handed to the broker client. In the
// half-open state only the trial record is allowed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	switch cb.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if now.Before(cb.openUntil) {
			return false
		}
		cb.state = BreakerHalfOpen
		return cb.startTrial(now)
	default:
		if cb.trialOut && now.Before(cb.trialStart.Add(cb.cooldown)) {
			return false
		}
		return cb.startTrial(now)
	}
}

func (cb *CircuitBreaker) startTrial(now time.Time) bool {
	cb.trialOut = true
	cb.trialStart = now
	return true
}

// RecordSuccess closes the circuit and resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.trialOut = false
	cb.state = BreakerClosed
}

// RecordFailure counts a failed delivery. It opens a closed circuit at
// threshold and re-opens a half-open one immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerHalfOpen:
		cb.open()
	case BreakerClosed:
		cb.failures++
		if cb.failures >= cb.threshold {
			cb.open()
		}
	}
}

func (cb *CircuitBreaker) open() {
	cb.state = BreakerOpen
	cb.trialOut = false
	cb.openUntil = cb.now().Add(cb.cooldown)
}

// State returns the current position of the circuit.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// IsOpen reports whether records are currently being refused outright.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == BreakerOpen
}
