package cliorch

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Conductor is the outer control loop: select provider, invoke, classify
// failure, update state, retry or switch, bounded by retry policy (§4.I).
// It owns the Metrics sink and the ProviderManager; Configuration is shared,
// read-only, with the manager.
type Conductor struct {
	cfg     Configuration
	manager *ProviderManager
	metrics *Metrics
}

// NewConductor assembles a Conductor from an already-built manager.
func NewConductor(cfg Configuration, manager *ProviderManager) *Conductor {
	return &Conductor{cfg: cfg, manager: manager, metrics: NewMetrics()}
}

// Manager exposes the underlying ProviderManager, mostly for tests and for
// Status().
func (c *Conductor) Manager() *ProviderManager { return c.manager }

// Metrics exposes the underlying Metrics sink.
func (c *Conductor) Metrics() *Metrics { return c.metrics }

// Send runs the full orchestrated path: select → invoke → classify → record
// → retry/switch, per §4.I. preferred and model may be empty.
func (c *Conductor) Send(ctx context.Context, prompt string, preferred ProviderName, model string, opts SendOptions) (Response, error) {
	retries := 0
	max := c.cfg.Orchestration.Retry.MaxAttempts
	requestID := uuid.NewString()

	for {
		adapter, err := c.manager.Select(preferred)
		if err != nil {
			// NoProvidersAvailableError surfaces verbatim, never wrapped (§7).
			return Response{}, err
		}
		preferred = adapter.Name()
		c.metrics.RecordAttempt(preferred)

		callOpts := opts
		callOpts.Model = model

		start := time.Now()
		response, sendErr := adapter.Send(ctx, prompt, callOpts)
		elapsed := time.Since(start)

		if sendErr == nil {
			c.metrics.RecordSuccess(preferred, elapsed)
			c.manager.RecordSuccess(preferred)
			if response.Tokens != nil {
				c.emitTokens(preferred, model, requestID, response)
			}
			return response, nil
		}

		var rateLimitErr *RateLimitError
		var circuitOpenErr *CircuitOpenError
		var timeoutErr *TimeoutError
		var providerErr *ProviderError
		var noProvidersErr *NoProvidersAvailableError

		switch {
		case errors.As(sendErr, &noProvidersErr):
			return Response{}, sendErr

		case errors.As(sendErr, &rateLimitErr):
			c.manager.MarkRateLimited(preferred, rateLimitErr.ResetTime)
			c.handleFailure(sendErr, preferred, strategySwitch)
			if !c.shouldRetry(&retries, max) {
				return Response{}, sendErr
			}

		case errors.As(sendErr, &circuitOpenErr):
			c.handleFailure(sendErr, preferred, strategySwitch)
			if !c.shouldRetry(&retries, max) {
				return Response{}, sendErr
			}

		case errors.As(sendErr, &timeoutErr) || errors.As(sendErr, &providerErr):
			c.manager.RecordFailure(preferred)
			c.handleFailure(sendErr, preferred, strategyRetry)
			if !c.shouldRetry(&retries, max) {
				return Response{}, sendErr
			}

		default:
			c.metrics.RecordFailure(preferred, sendErr)
			c.manager.RecordFailure(preferred)
			c.handleFailure(sendErr, preferred, strategySwitch)
			if !c.shouldRetry(&retries, max) {
				return Response{}, NewProviderError(preferred, sendErr, nil)
			}
		}
	}
}

// ExecuteDirect bypasses orchestration entirely: no fallback, no retry, no
// circuit/health updates. The adapter's error surfaces directly (§4.I, §7).
func (c *Conductor) ExecuteDirect(ctx context.Context, prompt string, provider ProviderName, opts SendOptions) (Response, error) {
	adapter, err := c.manager.adapterFor(provider)
	if err != nil {
		return Response{}, err
	}
	return adapter.Send(ctx, prompt, opts)
}

type failureStrategy int

const (
	strategyRetry failureStrategy = iota
	strategySwitch
)

// handleFailure records the failure in metrics, and on strategySwitch tries
// to hand current_provider off to a fallback; on strategyRetry it sleeps
// calculateRetryDelay() (§4.I).
func (c *Conductor) handleFailure(err error, p ProviderName, strategy failureStrategy) {
	c.metrics.RecordFailure(p, err)

	switch strategy {
	case strategySwitch:
		if c.cfg.Orchestration.AutoSwitchOnError {
			newAdapter, switchErr := c.manager.SwitchProvider(classifyErrorName(err), map[string]string{"message": err.Error()})
			if switchErr == nil {
				c.metrics.RecordSwitch(p, newAdapter.Name(), classifyErrorName(err))
			}
			// NoProvidersAvailableError here is swallowed; the outer loop's
			// next Select (or retry exhaustion) surfaces it.
		}
	case strategyRetry:
		if d := c.calculateRetryDelay(); d > 0 {
			time.Sleep(d)
		}
	}
}

func (c *Conductor) shouldRetry(retries *int, max int) bool {
	*retries++
	return c.cfg.Orchestration.Retry.Enabled && *retries < max
}

// calculateRetryDelay returns min(max_delay, base_delay * (1 + rand()*0.5))
// when jitter is enabled, else min(max_delay, base_delay). It deliberately
// does not compound by exponential_base^attempt — see RetryConfig's doc
// comment and §9.
func (c *Conductor) calculateRetryDelay() time.Duration {
	r := c.cfg.Orchestration.Retry
	base := r.BaseDelay
	if r.Jitter {
		base = time.Duration(float64(base) * (1 + rand.Float64()*0.5))
	}
	if r.MaxDelay > 0 && base > r.MaxDelay {
		return r.MaxDelay
	}
	return base
}

func classifyErrorName(err error) string {
	var rateLimitErr *RateLimitError
	var circuitOpenErr *CircuitOpenError
	var timeoutErr *TimeoutError
	var authErr *AuthenticationError
	switch {
	case errors.As(err, &rateLimitErr):
		return "RateLimitError"
	case errors.As(err, &circuitOpenErr):
		return "CircuitOpenError"
	case errors.As(err, &timeoutErr):
		return "TimeoutError"
	case errors.As(err, &authErr):
		return "AuthenticationError"
	default:
		return "ProviderError"
	}
}

func (c *Conductor) emitTokens(p ProviderName, model, requestID string, resp Response) {
	if c.cfg.Callbacks == nil {
		return
	}
	c.cfg.Callbacks.Emit(EventTokensUsed, TokenEvent{
		Provider:  p,
		Model:     model,
		Input:     resp.Tokens.Input,
		Output:    resp.Tokens.Output,
		Total:     resp.Tokens.Total,
		At:        time.Now(),
		RequestID: requestID,
	})
}

// ConductorStatus is Status()'s return shape (§4.I).
type ConductorStatus struct {
	CurrentProvider    ProviderName
	AvailableProviders []ProviderName
	Health             []ProviderHealthStatus
	Metrics            MetricsSnapshot
}

// Status reports the conductor's current provider, available providers,
// per-provider health, and a metrics snapshot.
func (c *Conductor) Status() ConductorStatus {
	return ConductorStatus{
		CurrentProvider:    c.manager.CurrentProvider(),
		AvailableProviders: c.manager.AvailableProviders(),
		Health:             c.manager.HealthStatus(),
		Metrics:            c.metrics.Snapshot(),
	}
}

// ProbeAll triggers ProviderManager.Probe, the caller-driven active health
// check (§ Supplemented features). Never called implicitly by Send or Status.
func (c *Conductor) ProbeAll(ctx context.Context) error {
	return c.manager.Probe(ctx)
}

// Reset resets the manager and the metrics sink.
func (c *Conductor) Reset() {
	c.manager.Reset()
	c.metrics.Reset()
}
