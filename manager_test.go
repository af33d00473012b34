package cliorch_test

import (
	"context"
	"testing"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
	"github.com/cliorch/cliorch/providers/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerMock(t *testing.T, reg *cliorch.Registry, name cliorch.ProviderName, opts ...mock.Option) *mock.Provider {
	t.Helper()
	p := mock.NewWithOptions(append([]mock.Option{mock.WithName(name)}, opts...)...)
	reg.Register(name, func(exec executor.Executor, cfg cliorch.ProviderConfig) cliorch.Adapter { return p })
	return p
}

func buildManager(t *testing.T, reg *cliorch.Registry, cfg cliorch.Configuration) *cliorch.ProviderManager {
	t.Helper()
	m, err := cliorch.NewProviderManager(cfg, reg, executor.NewOSExecutor())
	require.NoError(t, err)
	return m
}

func TestProviderManager_SelectReturnsCurrentWhenHealthy(t *testing.T) {
	reg := cliorch.NewRegistry()
	registerMock(t, reg, "a")
	registerMock(t, reg, "b")

	cfg, err := cliorch.NewBuilder(reg).
		DefaultProvider("a").
		FallbackProviders("b").
		Provider("a").Done().
		Provider("b").Done().
		Build()
	require.NoError(t, err)

	m := buildManager(t, reg, cfg)
	adapter, err := m.Select("")
	require.NoError(t, err)
	assert.Equal(t, cliorch.ProviderName("a"), adapter.Name())
}

func TestProviderManager_FallbackChainOrder(t *testing.T) {
	reg := cliorch.NewRegistry()
	registerMock(t, reg, "a")
	registerMock(t, reg, "b")
	registerMock(t, reg, "c")

	cfg, err := cliorch.NewBuilder(reg).
		DefaultProvider("a").
		FallbackProviders("c", "b").
		Provider("a").Done().
		Provider("b").Done().
		Provider("c").Done().
		Build()
	require.NoError(t, err)

	// Open a's circuit so select must fall back; per spec the chain is
	// [a] ++ fallback_providers(c, b) ++ all providers, deduped, so the
	// first survivor after a must be c.
	cfg.Orchestration.CircuitBreaker = cliorch.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, Timeout: time.Hour, HalfOpenMaxCalls: 1}
	m := buildManager(t, reg, cfg)
	m.RecordFailure("a")

	adapter, err := m.Select("a")
	require.NoError(t, err)
	assert.Equal(t, cliorch.ProviderName("c"), adapter.Name())
}

func TestProviderManager_FallbackChainOrderIsDeterministicAcrossCalls(t *testing.T) {
	reg := cliorch.NewRegistry()
	registerMock(t, reg, "a")
	registerMock(t, reg, "b")
	registerMock(t, reg, "c")
	registerMock(t, reg, "d")
	registerMock(t, reg, "e")

	// fallback_providers names only "e"; "b", "c", "d" fall into the
	// all-remaining-providers tail, where map iteration used to make the
	// survivor order vary run to run.
	cfg, err := cliorch.NewBuilder(reg).
		DefaultProvider("a").
		FallbackProviders("e").
		Provider("a").Done().
		Provider("b").Done().
		Provider("c").Done().
		Provider("d").Done().
		Provider("e").Done().
		Build()
	require.NoError(t, err)
	cfg.Orchestration.CircuitBreaker = cliorch.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, Timeout: time.Hour, HalfOpenMaxCalls: 1}

	var results []cliorch.ProviderName
	for i := 0; i < 20; i++ {
		m := buildManager(t, reg, cfg)
		m.RecordFailure("a")
		m.RecordFailure("e")
		adapter, err := m.Select("a")
		require.NoError(t, err)
		results = append(results, adapter.Name())
	}

	for _, r := range results {
		assert.Equal(t, results[0], r, "fallback survivor must be the same every run, not dependent on map iteration order")
	}
	assert.Equal(t, cliorch.ProviderName("b"), results[0], "tail after fallback_providers is sorted, so b comes before c/d")
}

func TestProviderManager_NoProvidersAvailable(t *testing.T) {
	reg := cliorch.NewRegistry()
	registerMock(t, reg, "a")

	cfg, err := cliorch.NewBuilder(reg).
		DefaultProvider("a").
		Provider("a").Done().
		Build()
	require.NoError(t, err)
	cfg.Orchestration.CircuitBreaker = cliorch.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, Timeout: time.Hour, HalfOpenMaxCalls: 1}

	m := buildManager(t, reg, cfg)
	m.RecordFailure("a")

	_, err = m.Select("a")
	var noProviders *cliorch.NoProvidersAvailableError
	require.ErrorAs(t, err, &noProviders)
	assert.Contains(t, noProviders.AttemptedProviders, cliorch.ProviderName("a"))
}

func TestProviderManager_SwitchProviderEmitsEvent(t *testing.T) {
	reg := cliorch.NewRegistry()
	registerMock(t, reg, "a")
	registerMock(t, reg, "b")

	cfg, err := cliorch.NewBuilder(reg).
		DefaultProvider("a").
		FallbackProviders("b").
		Provider("a").Done().
		Provider("b").Done().
		Build()
	require.NoError(t, err)

	var seen cliorch.ProviderSwitchData
	cfg.Callbacks.OnProviderSwitch(func(d cliorch.ProviderSwitchData) { seen = d })

	m := buildManager(t, reg, cfg)
	adapter, err := m.SwitchProvider("manual", map[string]string{"message": "test"})
	require.NoError(t, err)
	assert.Equal(t, cliorch.ProviderName("b"), adapter.Name())
	assert.Equal(t, cliorch.ProviderName("a"), seen.From)
	assert.Equal(t, cliorch.ProviderName("b"), seen.To)
	assert.Equal(t, cliorch.ProviderName("b"), m.CurrentProvider())
}

func TestProviderManager_Reset(t *testing.T) {
	reg := cliorch.NewRegistry()
	registerMock(t, reg, "a")
	registerMock(t, reg, "b")

	cfg, err := cliorch.NewBuilder(reg).
		DefaultProvider("a").
		FallbackProviders("b").
		Provider("a").Done().
		Provider("b").Done().
		Build()
	require.NoError(t, err)
	cfg.Orchestration.CircuitBreaker = cliorch.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, Timeout: time.Hour, HalfOpenMaxCalls: 1}

	m := buildManager(t, reg, cfg)
	m.RecordFailure("a")
	_, _ = m.SwitchProvider("failure", nil)
	require.Equal(t, cliorch.ProviderName("b"), m.CurrentProvider())

	m.Reset()
	assert.Equal(t, cliorch.ProviderName("a"), m.CurrentProvider())
	status := m.HealthStatus()
	for _, s := range status {
		assert.False(t, s.CircuitOpen)
	}
}

func TestProviderManager_ProbeRecordsPerProviderAvailability(t *testing.T) {
	reg := cliorch.NewRegistry()
	registerMock(t, reg, "a", mock.WithAvailable(true))
	registerMock(t, reg, "b", mock.WithAvailable(false))

	cfg, err := cliorch.NewBuilder(reg).
		DefaultProvider("a").
		Provider("a").Done().
		Provider("b").Done().
		HealthCheck(cliorch.HealthConfig{Enabled: true, WindowSize: 10, Threshold: 0.5}).
		Build()
	require.NoError(t, err)

	m := buildManager(t, reg, cfg)
	require.NoError(t, m.Probe(context.Background()))

	var healthyA, healthyB bool
	for _, s := range m.HealthStatus() {
		switch s.Provider {
		case "a":
			healthyA = s.Healthy
		case "b":
			healthyB = s.Healthy
		}
	}
	assert.True(t, healthyA)
	assert.False(t, healthyB)
}
