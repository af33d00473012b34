package cliorch

import (
	"sync"
	"time"
)

// SwitchEvent records one provider-switch decision, kept for reporting
// (§3 MetricsSnapshot: "recent switches, last 10").
type SwitchEvent struct {
	From   ProviderName
	To     ProviderName
	Reason string
	At     time.Time
}

type providerCounters struct {
	Attempts  int64
	Successes int64
	Failures  int64
	Durations []time.Duration
}

// Metrics is the thread-safe counters sink the Conductor owns. Every
// mutation is guarded by a single mutex so snapshots are read-consistent
// (§4.E).
type Metrics struct {
	mu sync.Mutex

	totalAttempts  int64
	totalSuccesses int64
	totalFailures  int64
	totalSwitches  int64

	perProvider map[ProviderName]*providerCounters
	errorCounts map[string]int64

	lastSuccess time.Time
	lastFailure time.Time

	switches []SwitchEvent
}

// NewMetrics creates an empty Metrics sink.
func NewMetrics() *Metrics {
	return &Metrics{
		perProvider: make(map[ProviderName]*providerCounters),
		errorCounts: make(map[string]int64),
	}
}

func (m *Metrics) providerLocked(p ProviderName) *providerCounters {
	pc, ok := m.perProvider[p]
	if !ok {
		pc = &providerCounters{}
		m.perProvider[p] = pc
	}
	return pc
}

// RecordAttempt increments the attempt counters for p.
func (m *Metrics) RecordAttempt(p ProviderName) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalAttempts++
	m.providerLocked(p).Attempts++
}

// RecordSuccess increments the success counters for p and records duration.
func (m *Metrics) RecordSuccess(p ProviderName, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalSuccesses++
	m.lastSuccess = time.Now()
	pc := m.providerLocked(p)
	pc.Successes++
	pc.Durations = append(pc.Durations, duration)
}

// RecordFailure increments the failure counters for p and, when err is
// non-nil, bumps the error-class count keyed by its taxonomy category.
func (m *Metrics) RecordFailure(p ProviderName, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalFailures++
	m.lastFailure = time.Now()
	m.providerLocked(p).Failures++
	if err != nil {
		cat := classifyTypedError(err)
		m.errorCounts[string(cat)]++
	}
}

// RecordSwitch increments the switch counter and appends to the bounded
// last-10 switch history.
func (m *Metrics) RecordSwitch(from, to ProviderName, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalSwitches++
	m.switches = append(m.switches, SwitchEvent{From: from, To: to, Reason: reason, At: time.Now()})
	if len(m.switches) > 10 {
		m.switches = m.switches[len(m.switches)-10:]
	}
}

// PerProviderSnapshot is the reporting shape of one provider's counters.
type PerProviderSnapshot struct {
	Attempts  int64
	Successes int64
	Failures  int64
	Durations []time.Duration
}

// MetricsSnapshot is a read-consistent copy of Metrics at one instant.
type MetricsSnapshot struct {
	TotalAttempts  int64
	TotalSuccesses int64
	TotalFailures  int64
	TotalSwitches  int64
	PerProvider    map[ProviderName]PerProviderSnapshot
	ErrorCounts    map[string]int64
	LastSuccess    time.Time
	LastFailure    time.Time
	RecentSwitches []SwitchEvent
}

// Snapshot returns a deep copy safe for the caller to inspect without
// racing further mutation. §8 I6: total_attempts == Σ attempts[p], etc —
// this holds by construction since both are updated under the same lock.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	pp := make(map[ProviderName]PerProviderSnapshot, len(m.perProvider))
	for name, pc := range m.perProvider {
		durs := make([]time.Duration, len(pc.Durations))
		copy(durs, pc.Durations)
		pp[name] = PerProviderSnapshot{Attempts: pc.Attempts, Successes: pc.Successes, Failures: pc.Failures, Durations: durs}
	}

	ec := make(map[string]int64, len(m.errorCounts))
	for k, v := range m.errorCounts {
		ec[k] = v
	}

	sw := make([]SwitchEvent, len(m.switches))
	copy(sw, m.switches)

	return MetricsSnapshot{
		TotalAttempts:  m.totalAttempts,
		TotalSuccesses: m.totalSuccesses,
		TotalFailures:  m.totalFailures,
		TotalSwitches:  m.totalSwitches,
		PerProvider:    pp,
		ErrorCounts:    ec,
		LastSuccess:    m.lastSuccess,
		LastFailure:    m.lastFailure,
		RecentSwitches: sw,
	}
}

// Reset clears all counters back to zero.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalAttempts = 0
	m.totalSuccesses = 0
	m.totalFailures = 0
	m.totalSwitches = 0
	m.perProvider = make(map[ProviderName]*providerCounters)
	m.errorCounts = make(map[string]int64)
	m.lastSuccess = time.Time{}
	m.lastFailure = time.Time{}
	m.switches = nil
}

// classifyTypedError maps one of this package's typed errors back to an
// ErrorCategory for metrics bucketing, falling back to Classify on the
// error's message for anything else.
func classifyTypedError(err error) ErrorCategory {
	switch err.(type) {
	case *RateLimitError:
		return CategoryRateLimited
	case *AuthenticationError:
		return CategoryAuthExpired
	case *TimeoutError:
		return CategoryTimeout
	case *CircuitOpenError:
		return CategoryUnknown
	default:
		return Classify(err.Error(), nil, nil)
	}
}
