package cliorch

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Validate checks the invariants §4.J requires: providers must be
// non-empty, and default_provider must name one of them.
func (c Configuration) Validate() error {
	if len(c.Providers) == 0 {
		return NewConfigurationError("providers must not be empty")
	}
	if _, ok := c.Providers[c.DefaultProvider]; !ok {
		return NewConfigurationError(fmt.Sprintf("default_provider %q is not in providers", c.DefaultProvider))
	}
	return nil
}

// Builder assembles a Configuration via chained, typed setters, mirroring
// the source's `configure { ... }` DSL (§4.J).
type Builder struct {
	cfg      Configuration
	registry *Registry
}

// NewBuilder starts a Builder. registry receives any providers registered
// via RegisterProvider; pass DefaultRegistry if the caller has no reason to
// isolate registrations.
func NewBuilder(registry *Registry) *Builder {
	return &Builder{
		cfg: Configuration{
			Providers: make(map[ProviderName]ProviderConfig),
			Callbacks: NewCallbackBus(nil),
		},
		registry: registry,
	}
}

// DefaultProvider sets the provider used when Conductor.Send's preferred
// argument is empty.
func (b *Builder) DefaultProvider(name ProviderName) *Builder {
	b.cfg.DefaultProvider = name
	return b
}

// FallbackProviders sets the ordered fallback list consulted before "all
// remaining providers" in the fallback chain (§4.H).
func (b *Builder) FallbackProviders(names ...ProviderName) *Builder {
	b.cfg.FallbackProviders = names
	return b
}

// ProviderBuilder configures a single ProviderConfig entry.
type ProviderBuilder struct {
	parent *Builder
	pc     ProviderConfig
}

// Provider opens a sub-builder for the named provider, defaulting Enabled
// to true.
func (b *Builder) Provider(name ProviderName) *ProviderBuilder {
	return &ProviderBuilder{parent: b, pc: ProviderConfig{Name: name, Enabled: true}}
}

func (pb *ProviderBuilder) Priority(p int) *ProviderBuilder           { pb.pc.Priority = p; return pb }
func (pb *ProviderBuilder) Models(models ...string) *ProviderBuilder { pb.pc.Models = models; return pb }
func (pb *ProviderBuilder) Model(m string) *ProviderBuilder           { pb.pc.Model = m; return pb }
func (pb *ProviderBuilder) DefaultFlags(flags ...string) *ProviderBuilder {
	pb.pc.DefaultFlags = flags
	return pb
}
func (pb *ProviderBuilder) Timeout(d time.Duration) *ProviderBuilder { pb.pc.Timeout = d; return pb }
func (pb *ProviderBuilder) Enabled(v bool) *ProviderBuilder          { pb.pc.Enabled = v; return pb }

// Done commits this provider's config and returns to the parent Builder.
func (pb *ProviderBuilder) Done() *Builder {
	pb.parent.cfg.Providers[pb.pc.Name] = pb.pc
	return pb.parent
}

// RegisterProvider feeds a caller-supplied factory into the registry this
// Builder was constructed with, under name.
func (b *Builder) RegisterProvider(name ProviderName, factory AdapterFactory, aliases ...ProviderName) *Builder {
	b.registry.Register(name, factory, aliases...)
	return b
}

// CircuitBreaker configures the orchestration-wide circuit breaker
// defaults applied to every provider's CircuitBreaker.
func (b *Builder) CircuitBreaker(cfg CircuitBreakerConfig) *Builder {
	b.cfg.Orchestration.CircuitBreaker = cfg
	return b
}

// Retry configures the Conductor's retry/backoff behavior.
func (b *Builder) Retry(cfg RetryConfig) *Builder {
	b.cfg.Orchestration.Retry = cfg
	return b
}

// RateLimit configures per-provider RateLimitState defaults.
func (b *Builder) RateLimit(cfg RateLimitConfig) *Builder {
	b.cfg.Orchestration.RateLimit = cfg
	return b
}

// HealthCheck configures per-provider HealthWindow behavior.
func (b *Builder) HealthCheck(cfg HealthConfig) *Builder {
	b.cfg.Orchestration.Health = cfg
	return b
}

// AutoSwitchOnError toggles whether handle_failure's switch strategy
// actually attempts ProviderManager.SwitchProvider.
func (b *Builder) AutoSwitchOnError(v bool) *Builder {
	b.cfg.Orchestration.AutoSwitchOnError = v
	return b
}

// Callbacks exposes the CallbackBus so callers can register on_* listeners
// before Build.
func (b *Builder) Callbacks() *CallbackBus { return b.cfg.Callbacks }

// Build returns the assembled Configuration, or a ConfigurationError if it
// fails Validate().
func (b *Builder) Build() (Configuration, error) {
	if err := b.cfg.Validate(); err != nil {
		return Configuration{}, err
	}
	return b.cfg, nil
}

// fileConfig is the shape LoadConfigFile parses from YAML or TOML before
// translating it into a Configuration — the file format mirrors the
// builder's fields directly rather than forcing callers to hand-write Go.
type fileConfig struct {
	DefaultProvider   string                      `yaml:"default_provider" toml:"default_provider"`
	FallbackProviders []string                    `yaml:"fallback_providers" toml:"fallback_providers"`
	Providers         map[string]fileProviderSpec `yaml:"providers" toml:"providers"`
	Orchestration     fileOrchestrationSpec       `yaml:"orchestration" toml:"orchestration"`
}

type fileProviderSpec struct {
	Enabled      bool     `yaml:"enabled" toml:"enabled"`
	Priority     int      `yaml:"priority" toml:"priority"`
	Models       []string `yaml:"models" toml:"models"`
	Model        string   `yaml:"model" toml:"model"`
	DefaultFlags []string `yaml:"default_flags" toml:"default_flags"`
	TimeoutSec   int      `yaml:"timeout_seconds" toml:"timeout_seconds"`
}

type fileOrchestrationSpec struct {
	CircuitBreaker struct {
		Enabled          bool `yaml:"enabled" toml:"enabled"`
		FailureThreshold int  `yaml:"failure_threshold" toml:"failure_threshold"`
		TimeoutSec       int  `yaml:"timeout_seconds" toml:"timeout_seconds"`
		HalfOpenMaxCalls int  `yaml:"half_open_max_calls" toml:"half_open_max_calls"`
	} `yaml:"circuit_breaker" toml:"circuit_breaker"`
	Retry struct {
		Enabled         bool    `yaml:"enabled" toml:"enabled"`
		MaxAttempts     int     `yaml:"max_attempts" toml:"max_attempts"`
		BaseDelayMS     int     `yaml:"base_delay_ms" toml:"base_delay_ms"`
		MaxDelayMS      int     `yaml:"max_delay_ms" toml:"max_delay_ms"`
		Jitter          bool    `yaml:"jitter" toml:"jitter"`
		ExponentialBase float64 `yaml:"exponential_base" toml:"exponential_base"`
	} `yaml:"retry" toml:"retry"`
	RateLimit struct {
		DefaultResetSec int `yaml:"default_reset_seconds" toml:"default_reset_seconds"`
	} `yaml:"rate_limit" toml:"rate_limit"`
	Health struct {
		Enabled     bool    `yaml:"enabled" toml:"enabled"`
		WindowSize  int     `yaml:"window_size" toml:"window_size"`
		Threshold   float64 `yaml:"threshold" toml:"threshold"`
		ActiveProbe bool    `yaml:"active_probe" toml:"active_probe"`
	} `yaml:"health_check" toml:"health_check"`
	AutoSwitchOnError bool `yaml:"auto_switch_on_error" toml:"auto_switch_on_error"`
}

// LoadConfigFile reads a YAML or TOML configuration file (selected by
// extension; .toml uses BurntSushi/toml, anything else is parsed as YAML)
// and builds a Configuration against registry. Environment variables in
// the form ${VAR} are expanded before parsing, matching the teacher's
// LoadConfig convention.
func LoadConfigFile(path string, registry *Registry) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("cliorch: read config: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	var fc fileConfig
	if isTOML(path) {
		if _, err := toml.Decode(expanded, &fc); err != nil {
			return Configuration{}, fmt.Errorf("cliorch: parse toml config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &fc); err != nil {
			return Configuration{}, fmt.Errorf("cliorch: parse yaml config: %w", err)
		}
	}

	b := NewBuilder(registry)
	b.DefaultProvider(ProviderName(fc.DefaultProvider))

	fallback := make([]ProviderName, 0, len(fc.FallbackProviders))
	for _, f := range fc.FallbackProviders {
		fallback = append(fallback, ProviderName(f))
	}
	b.FallbackProviders(fallback...)

	for name, spec := range fc.Providers {
		b.Provider(ProviderName(name)).
			Enabled(spec.Enabled).
			Priority(spec.Priority).
			Models(spec.Models...).
			Model(spec.Model).
			DefaultFlags(spec.DefaultFlags...).
			Timeout(secondsToDuration(spec.TimeoutSec)).
			Done()
	}

	o := fc.Orchestration
	b.CircuitBreaker(CircuitBreakerConfig{
		Enabled:          o.CircuitBreaker.Enabled,
		FailureThreshold: o.CircuitBreaker.FailureThreshold,
		Timeout:          secondsToDuration(o.CircuitBreaker.TimeoutSec),
		HalfOpenMaxCalls: o.CircuitBreaker.HalfOpenMaxCalls,
	})
	b.Retry(RetryConfig{
		Enabled:         o.Retry.Enabled,
		MaxAttempts:     o.Retry.MaxAttempts,
		BaseDelay:       millisToDuration(o.Retry.BaseDelayMS),
		MaxDelay:        millisToDuration(o.Retry.MaxDelayMS),
		Jitter:          o.Retry.Jitter,
		ExponentialBase: o.Retry.ExponentialBase,
	})
	b.RateLimit(RateLimitConfig{DefaultResetTime: secondsToDuration(o.RateLimit.DefaultResetSec)})
	b.HealthCheck(HealthConfig{
		Enabled:     o.Health.Enabled,
		WindowSize:  o.Health.WindowSize,
		Threshold:   o.Health.Threshold,
		ActiveProbe: o.Health.ActiveProbe,
	})
	b.AutoSwitchOnError(o.AutoSwitchOnError)

	return b.Build()
}

func isTOML(path string) bool {
	return len(path) >= 5 && path[len(path)-5:] == ".toml"
}

func secondsToDuration(s int) time.Duration { return time.Duration(s) * time.Second }
func millisToDuration(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }
