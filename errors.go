package cliorch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// baseError is the base type every typed error in this package embeds. It
// carries the original cause (when one exists) and free-form context for
// diagnostics, without ever losing errors.Is/errors.As compatibility.
type baseError struct {
	Message  string
	Original error
	Context  map[string]string
}

func (e *baseError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("cliorch: %s: %v", e.Message, e.Original)
	}
	return "cliorch: " + e.Message
}

func (e *baseError) Unwrap() error { return e.Original }

func newError(message string, original error, context map[string]string) *baseError {
	return &baseError{Message: message, Original: original, Context: context}
}

// ProviderError wraps an adapter-level failure that the taxonomy classified
// as neither rate-limited, auth-related nor a timeout. It is the catch-all
// typed error §7 says unrecognized exceptions are wrapped into on final
// surface.
type ProviderError struct {
	*baseError
	Provider ProviderName
}

func NewProviderError(provider ProviderName, original error, context map[string]string) *ProviderError {
	return &ProviderError{baseError: newError(fmt.Sprintf("provider %q failed", provider), original, context), Provider: provider}
}

// ProviderNotFoundError is returned by the ProviderManager when asked for a
// provider that is not in its Configuration's providers map. (An unregistered
// name in the Registry yields a ConfigurationError instead.)
type ProviderNotFoundError struct {
	*baseError
	Provider ProviderName
}

func NewProviderNotFoundError(provider ProviderName) *ProviderNotFoundError {
	return &ProviderNotFoundError{baseError: newError(fmt.Sprintf("provider %q is not registered", provider), nil, nil), Provider: provider}
}

// ProviderUnavailableError means the adapter's binary could not be located
// on PATH (Adapter.Available() returned false) or validate_config failed.
type ProviderUnavailableError struct {
	*baseError
	Provider ProviderName
}

func NewProviderUnavailableError(provider ProviderName, original error) *ProviderUnavailableError {
	return &ProviderUnavailableError{baseError: newError(fmt.Sprintf("provider %q unavailable", provider), original, nil), Provider: provider}
}

// TimeoutError means the subprocess did not exit before its deadline.
type TimeoutError struct {
	*baseError
	Provider ProviderName
	Timeout  time.Duration
}

func NewTimeoutError(provider ProviderName, timeout time.Duration, original error) *TimeoutError {
	return &TimeoutError{baseError: newError(fmt.Sprintf("provider %q timed out after %s", provider, timeout), original, nil), Provider: provider, Timeout: timeout}
}

// CommandExecutionError wraps a failure to even launch the subprocess (e.g.
// the executor returned an OS-level error unrelated to the agent's own
// exit code).
type CommandExecutionError struct {
	*baseError
	Provider ProviderName
	Argv     []string
}

func NewCommandExecutionError(provider ProviderName, argv []string, original error) *CommandExecutionError {
	return &CommandExecutionError{baseError: newError(fmt.Sprintf("provider %q: command execution failed", provider), original, nil), Provider: provider, Argv: argv}
}

// RateLimitError means the provider told us (via taxonomy classification of
// its textual output) that it is rate limited. ResetTime, when known, feeds
// directly into RateLimitState.MarkLimited.
type RateLimitError struct {
	*baseError
	Provider  ProviderName
	ResetTime *time.Time
}

func NewRateLimitError(provider ProviderName, resetTime *time.Time, original error) *RateLimitError {
	return &RateLimitError{baseError: newError(fmt.Sprintf("provider %q is rate limited", provider), original, nil), Provider: provider, ResetTime: resetTime}
}

// CircuitOpenError means ProviderManager.select refused to hand out an
// adapter because its circuit is open (or half-open and exhausted).
type CircuitOpenError struct {
	*baseError
	Provider ProviderName
}

func NewCircuitOpenError(provider ProviderName) *CircuitOpenError {
	return &CircuitOpenError{baseError: newError(fmt.Sprintf("provider %q circuit is open", provider), nil, nil), Provider: provider}
}

// AuthenticationError means the taxonomy classified the failure as
// auth_expired. This is a §4.A "permanent-ish" category but still
// switch_provider, never retry_with_backoff, on the theory that a stale
// token on one provider says nothing about another provider's tokens.
type AuthenticationError struct {
	*baseError
	Provider ProviderName
}

func NewAuthenticationError(provider ProviderName, original error) *AuthenticationError {
	return &AuthenticationError{baseError: newError(fmt.Sprintf("provider %q authentication failed", provider), original, nil), Provider: provider}
}

// ConfigurationError is returned by Configuration.Validate,
// NewProviderManager, and Registry.Get for a name that is not registered.
type ConfigurationError struct {
	*baseError
}

func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{baseError: newError(message, nil, nil)}
}

// NoProvidersAvailableError is terminal: §9 says do not retry around it and
// do not wrap it. It carries the full chain of attempts so the caller can
// see exactly what was tried and why each candidate was skipped.
type NoProvidersAvailableError struct {
	*baseError
	AttemptedProviders []ProviderName
	Errors             map[ProviderName]string
	DiagnosticID       string
}

func NewNoProvidersAvailableError(attempted []ProviderName, reasons map[ProviderName]string) *NoProvidersAvailableError {
	diagnosticID := uuid.NewString()
	message := fmt.Sprintf("no providers available (diagnostic_id=%s), attempted=%v errors=%v", diagnosticID, attempted, reasons)
	return &NoProvidersAvailableError{
		baseError:          newError(message, nil, nil),
		AttemptedProviders: attempted,
		Errors:             reasons,
		DiagnosticID:       diagnosticID,
	}
}
