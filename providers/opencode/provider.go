// Package opencode adapts the OpenCode CLI to the cliorch Adapter
// contract. OpenCode exposes the minimal binary contract (a --prompt flag,
// no sessions, no MCP, no dangerous-mode flag) that several newer CLI
// agents share; this mirrors the teacher's openaicompat.New(name, baseURL)
// shape, generalized to "most of the Adapter surface is boilerplate,
// BuildCommand is the only thing that varies".
package opencode

import (
	"context"
	"regexp"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
)

const binaryName = "opencode"

// Provider is the OpenCode CLI adapter.
type Provider struct {
	cliorch.BaseAdapter
}

var _ cliorch.Adapter = (*Provider)(nil)

func New(exec executor.Executor, cfg cliorch.ProviderConfig) cliorch.Adapter {
	p := &Provider{}
	p.BaseAdapter = cliorch.BaseAdapter{
		ProviderName: "opencode",
		Display:      "OpenCode",
		Binary:       binaryName,
		Exec:         exec,
		Config:       cfg,
		Builder:      p,
		Patterns: cliorch.ProviderPatterns{
			cliorch.CategoryRateLimited: {regexp.MustCompile(`rate limit|429`)},
		},
		PatternOrder: []cliorch.ErrorCategory{cliorch.CategoryRateLimited},
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
		return false, "opencode binary not found on PATH"
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
