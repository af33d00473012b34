// Package kilocode adapts the Kilo Code CLI to the cliorch Adapter
// contract. Like opencode, it exposes the minimal binary contract. Kilo
// Code's non-zero exits are overwhelmingly local failures (a rejected
// edit, a failing lint/test gate it ran itself) rather than provider
// failures, so this adapter opts into the pass-through partial-failure
// policy instead of throwing on every failed run.
package kilocode

import (
	"context"
	"regexp"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
)

const binaryName = "kilocode"

// Provider is the Kilo Code CLI adapter.
type Provider struct {
	cliorch.BaseAdapter
}

var _ cliorch.Adapter = (*Provider)(nil)

func New(exec executor.Executor, cfg cliorch.ProviderConfig) cliorch.Adapter {
	p := &Provider{}
	p.BaseAdapter = cliorch.BaseAdapter{
		ProviderName: "kilocode",
		Display:      "Kilo Code",
		Binary:       binaryName,
		Exec:         exec,
		Config:       cfg,
		Builder:      p,
		Patterns: cliorch.ProviderPatterns{
			cliorch.CategoryRateLimited: {regexp.MustCompile(`rate limit|429`)},
		},
		PatternOrder:          []cliorch.ErrorCategory{cliorch.CategoryRateLimited},
		PassThroughExitErrors: true,
	}
	return p
}

func (p *Provider) Capabilities() cliorch.Capabilities {
	return cliorch.Capabilities{ToolUse: true}
}

func (p *Provider) SupportsMCP() bool { return false }

func (p *Provider) FetchMCPServers(ctx context.Context) ([]cliorch.MCPServerStatus, error) {
	return nil, nil
}

func (p *Provider) SupportsDangerousMode() bool  { return false }
func (p *Provider) DangerousModeFlags() []string { return nil }
func (p *Provider) SupportsSessions() bool       { return false }
func (p *Provider) SessionFlags(string) []string { return nil }

func (p *Provider) ValidateConfig() (bool, []string) { return true, nil }

func (p *Provider) HealthStatus() (bool, string) {
	if !p.Available() {
		return false, "kilocode binary not found on PATH"
	}
	return true, "ok"
}

func (p *Provider) FirewallRequirements() cliorch.FirewallRequirements {
	return cliorch.FirewallRequirements{}
}

func (p *Provider) InstructionFilePaths() []cliorch.InstructionFile { return nil }

func (p *Provider) DiscoverModels(ctx context.Context) []cliorch.ModelInfo { return nil }

// BuildCommand implements cliorch.CommandBuilder.
func (p *Provider) BuildCommand(prompt string, opts cliorch.SendOptions) (argv []string, stdin []byte) {
	argv = append(argv, p.Config.DefaultFlags...)
	argv = append(argv, opts.Flags...)

	model := opts.Model
	if model == "" {
		model = p.Config.Model
	}
	if model != "" {
		argv = append(argv, "--model", model)
	}

	argv = append(argv, "--prompt", prompt)
	return argv, nil
}

func (p *Provider) BuildEnv(opts cliorch.SendOptions) map[string]string {
	return opts.Env
}

func (p *Provider) ParseResponse(result executor.Result, duration time.Duration) cliorch.Response {
	return cliorch.DefaultParseResponse(result, duration)
}
