package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/providers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func buildRegistry() *cliorch.Registry {
	r := cliorch.NewRegistry()
	providers.RegisterBuiltins(r)
	return r
}

// loadConfiguration merges, in increasing precedence, built-in defaults, an
// optional config file resolved the way Alphie resolves its own config path,
// and flag/env overrides for default_provider and fallback_providers.
func loadConfiguration(cmd *cobra.Command, registry *cliorch.Registry) (cliorch.Configuration, error) {
	v := viper.New()
	v.SetEnvPrefix("cliorch")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlag("config", cmd.Flags().Lookup("config")); err != nil {
		return cliorch.Configuration{}, err
	}
	if err := v.BindPFlag("default-provider", cmd.Flags().Lookup("default-provider")); err != nil {
		return cliorch.Configuration{}, err
	}
	if err := v.BindPFlag("fallback-providers", cmd.Flags().Lookup("fallback-providers")); err != nil {
		return cliorch.Configuration{}, err
	}

	var cfg cliorch.Configuration
	var err error

	if path := v.GetString("config"); path != "" {
		cfg, err = cliorch.LoadConfigFile(path, registry)
		if err != nil {
			return cliorch.Configuration{}, fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg, err = defaultConfiguration(registry)
		if err != nil {
			return cliorch.Configuration{}, err
		}
	}

	if dp := v.GetString("default-provider"); dp != "" {
		cfg.DefaultProvider = cliorch.ProviderName(dp)
	}
	if fb := v.GetString("fallback-providers"); fb != "" {
		var names []cliorch.ProviderName
		for _, n := range strings.Split(fb, ",") {
			n = strings.TrimSpace(n)
			if n != "" {
				names = append(names, cliorch.ProviderName(n))
			}
		}
		cfg.FallbackProviders = names
	}

	if err := cfg.Validate(); err != nil {
		return cliorch.Configuration{}, err
	}
	return cfg, nil
}

// defaultConfiguration builds a single-provider-preferred configuration that
// falls back through every other built-in, for ad hoc use without a config
// file on disk.
func defaultConfiguration(registry *cliorch.Registry) (cliorch.Configuration, error) {
	all := []cliorch.ProviderName{"claude", "codex", "gemini", "cursor", "copilot", "aider", "opencode", "kilocode"}

	b := cliorch.NewBuilder(registry).
		DefaultProvider("claude").
		FallbackProviders(all[1:]...).
		Retry(cliorch.RetryConfig{Enabled: true, MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second, Jitter: true}).
		CircuitBreaker(cliorch.CircuitBreakerConfig{Enabled: true, FailureThreshold: 3, Timeout: 30 * time.Second, HalfOpenMaxCalls: 1}).
		RateLimit(cliorch.RateLimitConfig{DefaultResetTime: time.Minute}).
		AutoSwitchOnError(true)

	for _, name := range all {
		b.Provider(name).Done()
	}

	return b.Build()
}
