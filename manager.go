package cliorch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cliorch/cliorch/executor"
	"golang.org/x/sync/errgroup"
)

// ProviderManager owns, exclusively, one CircuitBreaker, RateLimitState and
// HealthWindow per enabled provider, plus the cached adapter instances
// (§4.H, §5). The Configuration it was built from is read-only thereafter.
type ProviderManager struct {
	mu sync.Mutex

	cfg       Configuration
	registry  *Registry
	exec      executor.Executor
	callbacks *CallbackBus

	circuits       map[ProviderName]*CircuitBreaker
	rateLimits     map[ProviderName]*RateLimitState
	health         map[ProviderName]*HealthWindow
	adapters       map[ProviderName]Adapter
	fallbackChains map[ProviderName][]ProviderName

	currentProvider ProviderName
}

// NewProviderManager builds a manager for cfg. registry must already have
// every provider named in cfg.Providers registered (via
// providers.RegisterBuiltins and/or Builder.RegisterProvider) — adapters are
// instantiated lazily from the registry, not eagerly here.
func NewProviderManager(cfg Configuration, registry *Registry, exec executor.Executor) (*ProviderManager, error) {
	if len(cfg.Providers) == 0 {
		return nil, NewConfigurationError("providers must not be empty")
	}
	if _, ok := cfg.Providers[cfg.DefaultProvider]; !ok {
		return nil, NewConfigurationError(fmt.Sprintf("default_provider %q is not in providers", cfg.DefaultProvider))
	}

	m := &ProviderManager{
		cfg:             cfg,
		registry:        registry,
		exec:            exec,
		callbacks:       cfg.Callbacks,
		circuits:        make(map[ProviderName]*CircuitBreaker),
		rateLimits:      make(map[ProviderName]*RateLimitState),
		health:          make(map[ProviderName]*HealthWindow),
		adapters:        make(map[ProviderName]Adapter),
		fallbackChains:  make(map[ProviderName][]ProviderName),
		currentProvider: cfg.DefaultProvider,
	}

	for name, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}
		p := name
		m.circuits[name] = NewCircuitBreaker(cfg.Orchestration.CircuitBreaker,
			func() { m.emitCircuit(EventCircuitOpen, p) },
			func() { m.emitCircuit(EventCircuitClose, p) },
		)
		m.rateLimits[name] = NewRateLimitState(cfg.Orchestration.RateLimit.DefaultResetTime)
		m.health[name] = NewHealthWindow(cfg.Orchestration.Health)
		m.fallbackChains[name] = computeFallbackChain(name, cfg)
	}

	return m, nil
}

// sortedProviderNames returns providers' keys sorted for deterministic
// iteration, mirroring Registry.All().
func sortedProviderNames(providers map[ProviderName]ProviderConfig) []ProviderName {
	names := make([]ProviderName, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// computeFallbackChain builds [p] ++ cfg.FallbackProviders ++
// cfg.Providers.keys (sorted), deduplicated preserving first occurrence
// (§4.H — tests depend on this exact order). NewProviderManager memoizes
// the result per enabled provider; fallbackChain falls back to calling this
// directly for a provider that wasn't memoized (e.g. a disabled default).
func computeFallbackChain(p ProviderName, cfg Configuration) []ProviderName {
	seen := make(map[ProviderName]bool)
	chain := make([]ProviderName, 0, len(cfg.Providers)+1)

	add := func(name ProviderName) {
		if !seen[name] {
			seen[name] = true
			chain = append(chain, name)
		}
	}

	add(p)
	for _, f := range cfg.FallbackProviders {
		add(f)
	}
	for _, name := range sortedProviderNames(cfg.Providers) {
		add(name)
	}
	return chain
}

func (m *ProviderManager) emitCircuit(event string, p ProviderName) {
	if m.callbacks != nil {
		m.callbacks.Emit(event, CircuitEventData{Provider: p})
	}
}

// CurrentProvider returns the provider select() would currently prefer in
// the absence of an explicit preference.
func (m *ProviderManager) CurrentProvider() ProviderName {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentProvider
}

func (m *ProviderManager) circuitOpen(p ProviderName) bool {
	cb, ok := m.circuits[p]
	return ok && cb.Open()
}

func (m *ProviderManager) rateLimited(p ProviderName) bool {
	rl, ok := m.rateLimits[p]
	return ok && rl.Limited()
}

func (m *ProviderManager) healthy(p ProviderName) bool {
	hw, ok := m.health[p]
	return !ok || hw.Healthy()
}

// Select is the central routing decision (§4.H). preferred == "" means "use
// the current provider".
func (m *ProviderManager) Select(preferred ProviderName) (Adapter, error) {
	p := preferred
	if p == "" {
		p = m.CurrentProvider()
	}

	switch {
	case m.circuitOpen(p):
		return m.selectFallback(p, "circuit_open")
	case m.rateLimited(p):
		return m.selectFallback(p, "rate_limited")
	case !m.healthy(p):
		return m.selectFallback(p, "unhealthy")
	default:
		return m.adapterFor(p)
	}
}

// fallbackChain returns p's memoized chain from NewProviderManager.
func (m *ProviderManager) fallbackChain(p ProviderName) []ProviderName {
	if chain, ok := m.fallbackChains[p]; ok {
		return chain
	}
	return computeFallbackChain(p, m.cfg)
}

// selectFallback walks p's fallback chain, skipping p itself and any
// candidate whose circuit is open, rate-limited or unhealthy, and returns
// the first survivor (§4.H).
func (m *ProviderManager) selectFallback(p ProviderName, reason string) (Adapter, error) {
	attempted := []ProviderName{p}
	errs := map[ProviderName]string{p: reason}

	for _, candidate := range m.fallbackChain(p) {
		if candidate == p {
			continue
		}
		if m.circuitOpen(candidate) {
			attempted = append(attempted, candidate)
			errs[candidate] = "circuit_open"
			continue
		}
		if m.rateLimited(candidate) {
			attempted = append(attempted, candidate)
			errs[candidate] = "rate_limited"
			continue
		}
		if !m.healthy(candidate) {
			attempted = append(attempted, candidate)
			errs[candidate] = "unhealthy"
			continue
		}
		return m.adapterFor(candidate)
	}

	return nil, NewNoProvidersAvailableError(attempted, errs)
}

// SwitchProvider finds a fallback for the current provider, updates it, and
// emits a provider_switch event (§4.H).
func (m *ProviderManager) SwitchProvider(reason string, context map[string]string) (Adapter, error) {
	from := m.CurrentProvider()
	adapter, err := m.selectFallback(from, reason)
	if err != nil {
		return nil, err
	}

	to := adapter.Name()
	m.mu.Lock()
	m.currentProvider = to
	m.mu.Unlock()

	if m.callbacks != nil {
		m.callbacks.Emit(EventProviderSwitch, ProviderSwitchData{From: from, To: to, Reason: reason, Context: context})
	}
	return adapter, nil
}

func (m *ProviderManager) adapterFor(p ProviderName) (Adapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.adapters[p]; ok {
		return a, nil
	}

	pc, ok := m.cfg.Providers[p]
	if !ok {
		return nil, NewProviderNotFoundError(p)
	}
	factory, err := m.registry.Get(p)
	if err != nil {
		return nil, err
	}

	a := factory(m.exec, pc)
	m.adapters[p] = a
	return a, nil
}

// RecordSuccess updates the health window and circuit breaker for p.
func (m *ProviderManager) RecordSuccess(p ProviderName) {
	if hw, ok := m.health[p]; ok {
		hw.RecordSuccess()
	}
	if cb, ok := m.circuits[p]; ok {
		cb.RecordSuccess()
	}
}

// RecordFailure updates the health window and circuit breaker for p; may
// transition the circuit to open.
func (m *ProviderManager) RecordFailure(p ProviderName) {
	if hw, ok := m.health[p]; ok {
		hw.RecordFailure()
	}
	if cb, ok := m.circuits[p]; ok {
		cb.RecordFailure()
	}
}

// MarkRateLimited sets p's rate-limit state, per resetAt if given.
func (m *ProviderManager) MarkRateLimited(p ProviderName, resetAt *time.Time) {
	if rl, ok := m.rateLimits[p]; ok {
		rl.MarkLimited(resetAt, 0)
	}
}

// AvailableProviders returns the names whose circuit is closed, not
// rate-limited, and healthy.
func (m *ProviderManager) AvailableProviders() []ProviderName {
	var out []ProviderName
	for _, name := range sortedProviderNames(m.cfg.Providers) {
		if !m.circuitOpen(name) && !m.rateLimited(name) && m.healthy(name) {
			out = append(out, name)
		}
	}
	return out
}

// ProviderHealthStatus is one entry of HealthStatus()'s report.
type ProviderHealthStatus struct {
	Provider    ProviderName
	Healthy     bool
	CircuitOpen bool
	RateLimited bool
	Circuit     CircuitSnapshot
	Successes   int
	Failures    int
}

// HealthStatus reports per-provider health, circuit and rate-limit state.
func (m *ProviderManager) HealthStatus() []ProviderHealthStatus {
	var out []ProviderHealthStatus
	for _, name := range sortedProviderNames(m.cfg.Providers) {
		s, f := 0, 0
		if hw, ok := m.health[name]; ok {
			s, f, _ = hw.Counts()
		}
		var snap CircuitSnapshot
		if cb, ok := m.circuits[name]; ok {
			snap = cb.Snapshot()
		}
		out = append(out, ProviderHealthStatus{
			Provider:    name,
			Healthy:     m.healthy(name),
			CircuitOpen: m.circuitOpen(name),
			RateLimited: m.rateLimited(name),
			Circuit:     snap,
			Successes:   s,
			Failures:    f,
		})
	}
	return out
}

// Probe fans out one lightweight availability check per configured provider,
// feeding the result into the same record_success/record_failure path a real
// call would use (only enabled providers have state to record into).
// HealthConfig.ActiveProbe is not consulted here or by Conductor.ProbeAll;
// ProviderManager itself never schedules this — §9's "no background tasks"
// means Probe only runs when something calls it.
func (m *ProviderManager) Probe(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for name := range m.cfg.Providers {
		p := name
		g.Go(func() error {
			adapter, err := m.adapterFor(p)
			if err != nil {
				m.RecordFailure(p)
				return nil
			}
			if adapter.Available() {
				m.RecordSuccess(p)
			} else {
				m.RecordFailure(p)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return nil
			}
		})
	}
	return g.Wait()
}

// Reset resets every circuit breaker, rate-limit state and health window,
// and returns current_provider to the configured default (§4.H).
func (m *ProviderManager) Reset() {
	for _, cb := range m.circuits {
		cb.Reset()
	}
	for _, rl := range m.rateLimits {
		rl.Reset()
	}
	for _, hw := range m.health {
		hw.Reset()
	}
	m.mu.Lock()
	m.currentProvider = m.cfg.DefaultProvider
	m.mu.Unlock()
}
