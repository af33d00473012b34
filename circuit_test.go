package cliorch_test

import (
	"sync"
	"testing"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	var opened int
	cb := cliorch.NewCircuitBreaker(cliorch.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 3,
		Timeout:          time.Minute,
		HalfOpenMaxCalls: 1,
	}, func() { opened++ }, nil)

	require.True(t, cb.Closed())
	cb.RecordFailure()
	cb.RecordFailure()
	assert.True(t, cb.Closed())
	cb.RecordFailure()

	assert.True(t, cb.Open())
	assert.Equal(t, 1, opened)
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := cliorch.NewCircuitBreaker(cliorch.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		Timeout:          10 * time.Millisecond,
		HalfOpenMaxCalls: 2,
	}, nil, nil)

	cb.RecordFailure()
	require.True(t, cb.Open())

	time.Sleep(15 * time.Millisecond)
	assert.True(t, cb.HalfOpen())
}

func TestCircuitBreaker_HalfOpenClosesAfterSuccesses(t *testing.T) {
	var closed int
	cb := cliorch.NewCircuitBreaker(cliorch.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		Timeout:          5 * time.Millisecond,
		HalfOpenMaxCalls: 2,
	}, nil, func() { closed++ })

	cb.RecordFailure()
	time.Sleep(10 * time.Millisecond)
	require.True(t, cb.HalfOpen())

	cb.RecordSuccess()
	assert.True(t, cb.HalfOpen())
	cb.RecordSuccess()
	assert.True(t, cb.Closed())
	assert.Equal(t, 1, closed)
}

func TestCircuitBreaker_HalfOpenFailureReopensImmediately(t *testing.T) {
	cb := cliorch.NewCircuitBreaker(cliorch.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		Timeout:          5 * time.Millisecond,
		HalfOpenMaxCalls: 3,
	}, nil, nil)

	cb.RecordFailure()
	time.Sleep(10 * time.Millisecond)
	require.True(t, cb.HalfOpen())

	cb.RecordFailure()
	assert.True(t, cb.Open())
}

func TestCircuitBreaker_ConcurrentFailuresOpenExactlyOnce(t *testing.T) {
	var opened int
	var mu sync.Mutex
	cb := cliorch.NewCircuitBreaker(cliorch.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		Timeout:          time.Minute,
		HalfOpenMaxCalls: 1,
	}, func() {
		mu.Lock()
		opened++
		mu.Unlock()
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cb.RecordFailure()
		}()
	}
	wg.Wait()

	assert.True(t, cb.Open())
	assert.Equal(t, 1, opened)
}

func TestCircuitBreaker_DisabledNeverOpens(t *testing.T) {
	cb := cliorch.NewCircuitBreaker(cliorch.CircuitBreakerConfig{Enabled: false, FailureThreshold: 1}, nil, nil)
	cb.RecordFailure()
	cb.RecordFailure()
	assert.False(t, cb.Open())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := cliorch.NewCircuitBreaker(cliorch.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, Timeout: time.Minute}, nil, nil)
	cb.RecordFailure()
	require.True(t, cb.Open())
	cb.Reset()
	assert.True(t, cb.Closed())
}
