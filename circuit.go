package cliorch

import (
	"sync"
	"time"
)

// CircuitState is the closed/open/half-open state of a single provider's
// breaker. See §3 and §4.B.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker is a per-provider fault-tolerance state machine, owned
// exclusively by the ProviderManager for that provider. All mutation happens
// under a single mutex so that a failure tipping failure_count past the
// threshold atomically opens the circuit and resets the counter — concurrent
// failures racing past the threshold cannot cause a double "circuit_open"
// emission (§5).
type CircuitBreaker struct {
	mu     sync.Mutex
	cfg    CircuitBreakerConfig
	state  CircuitState
	fails  int
	succs  int
	opened time.Time

	onOpen  func()
	onClose func()
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(cfg CircuitBreakerConfig, onOpen, onClose func()) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, state: StateClosed, onOpen: onOpen, onClose: onClose}
}

// Open reports whether the circuit currently rejects calls. It performs the
// lazy open→half_open transition when cfg.Timeout has elapsed since the
// circuit opened (§4.B, I2): "no earlier read" transitions it, only the
// first read at or after the deadline.
func (b *CircuitBreaker) Open() bool {
	if !b.cfg.Enabled {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeTransitionToHalfOpenLocked()
	return b.state == StateOpen
}

// Closed reports whether the circuit is in the closed state. It is a pure
// read and does not itself trigger the open→half_open transition (callers
// needing that should use Open()).
func (b *CircuitBreaker) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateClosed
}

// HalfOpen reports whether the circuit is half-open, after performing the
// same lazy transition Open() does.
func (b *CircuitBreaker) HalfOpen() bool {
	if !b.cfg.Enabled {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeTransitionToHalfOpenLocked()
	return b.state == StateHalfOpen
}

func (b *CircuitBreaker) maybeTransitionToHalfOpenLocked() {
	if b.state == StateOpen && !b.opened.IsZero() && time.Since(b.opened) >= b.cfg.Timeout {
		b.state = StateHalfOpen
		b.succs = 0
	}
}

// RecordSuccess records a successful call. In half_open, it may close the
// circuit once HalfOpenMaxCalls consecutive successes have been observed
// (§4.B I3).
func (b *CircuitBreaker) RecordSuccess() {
	if !b.cfg.Enabled {
		return
	}
	b.mu.Lock()
	b.maybeTransitionToHalfOpenLocked()

	switch b.state {
	case StateHalfOpen:
		b.succs++
		if b.succs >= b.cfg.HalfOpenMaxCalls {
			b.state = StateClosed
			b.fails = 0
			b.succs = 0
			b.opened = time.Time{}
			b.mu.Unlock()
			if b.onClose != nil {
				b.onClose()
			}
			return
		}
	case StateClosed:
		b.fails = 0
	}
	b.mu.Unlock()
}

// RecordFailure records a failed call. In closed state it may open the
// circuit once failure_count reaches the threshold (§4.B I1); in half_open,
// a single failure re-opens it immediately (§4.B I3).
func (b *CircuitBreaker) RecordFailure() {
	if !b.cfg.Enabled {
		return
	}
	b.mu.Lock()
	b.maybeTransitionToHalfOpenLocked()

	switch b.state {
	case StateHalfOpen:
		b.openLocked()
		b.mu.Unlock()
		if b.onOpen != nil {
			b.onOpen()
		}
		return
	case StateClosed:
		b.fails++
		if b.fails >= b.cfg.FailureThreshold {
			b.openLocked()
			b.mu.Unlock()
			if b.onOpen != nil {
				b.onOpen()
			}
			return
		}
	}
	b.mu.Unlock()
}

func (b *CircuitBreaker) openLocked() {
	b.state = StateOpen
	b.opened = time.Now()
	b.fails = 0
}

// Reset returns the breaker to its initial closed state.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.fails = 0
	b.succs = 0
	b.opened = time.Time{}
}

// Snapshot returns a read-only view of the breaker's current fields, for
// health_status() reporting.
type CircuitSnapshot struct {
	State        CircuitState
	FailureCount int
	SuccessCount int
	OpenedAt     *time.Time
}

func (b *CircuitBreaker) Snapshot() CircuitSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	var openedAt *time.Time
	if !b.opened.IsZero() {
		t := b.opened
		openedAt = &t
	}
	return CircuitSnapshot{State: b.state, FailureCount: b.fails, SuccessCount: b.succs, OpenedAt: openedAt}
}
