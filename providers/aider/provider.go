// Package aider adapts the Aider CLI to the cliorch Adapter contract.
package aider

import (
	"context"
	"regexp"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
)

const binaryName = "aider"

// Provider is the Aider CLI adapter.
type Provider struct {
	cliorch.BaseAdapter
}

var _ cliorch.Adapter = (*Provider)(nil)

func New(exec executor.Executor, cfg cliorch.ProviderConfig) cliorch.Adapter {
	p := &Provider{}
	p.BaseAdapter = cliorch.BaseAdapter{
		ProviderName: "aider",
		Display:      "Aider",
		Binary:       binaryName,
		Exec:         exec,
		Config:       cfg,
		Builder:      p,
		Patterns: cliorch.ProviderPatterns{
			cliorch.CategoryRateLimited: {regexp.MustCompile(`rate limit|429`)},
			cliorch.CategoryAuthExpired: {regexp.MustCompile(`api key|authentication`)},
		},
		PatternOrder: []cliorch.ErrorCategory{cliorch.CategoryRateLimited, cliorch.CategoryAuthExpired},
	}
	return p
}

func (p *Provider) Capabilities() cliorch.Capabilities {
	return cliorch.Capabilities{ToolUse: true, Sessions: true}
}

func (p *Provider) SupportsMCP() bool { return false }

func (p *Provider) FetchMCPServers(ctx context.Context) ([]cliorch.MCPServerStatus, error) {
	return nil, nil
}

func (p *Provider) SupportsDangerousMode() bool  { return false }
func (p *Provider) DangerousModeFlags() []string { return nil }

func (p *Provider) SupportsSessions() bool { return true }

func (p *Provider) SessionFlags(sessionID string) []string {
	if sessionID == "" {
		return nil
	}
	return []string{"--restore-chat-history", sessionID}
}

func (p *Provider) ValidateConfig() (bool, []string) { return true, nil }

func (p *Provider) HealthStatus() (bool, string) {
	if !p.Available() {
		return false, "aider binary not found on PATH"
	}
	return true, "ok"
}

func (p *Provider) FirewallRequirements() cliorch.FirewallRequirements {
	return cliorch.FirewallRequirements{Domains: []string{"api.openai.com", "api.anthropic.com"}}
}

func (p *Provider) InstructionFilePaths() []cliorch.InstructionFile {
	return []cliorch.InstructionFile{{Path: ".aider.conf.yml", Description: "per-project aider settings"}}
}

func (p *Provider) DiscoverModels(ctx context.Context) []cliorch.ModelInfo {
	return []cliorch.ModelInfo{
		{Name: "gpt-4o", DisplayName: "GPT-4o"},
		{Name: "claude-3-5-sonnet-20241022", DisplayName: "Claude 3.5 Sonnet"},
	}
}

// BuildCommand implements cliorch.CommandBuilder. Aider always runs
// non-interactively (--yes) since a dispatched call has no terminal to
// prompt a human at.
func (p *Provider) BuildCommand(prompt string, opts cliorch.SendOptions) (argv []string, stdin []byte) {
	argv = append(argv, "--yes")
	argv = append(argv, p.Config.DefaultFlags...)
	argv = append(argv, opts.Flags...)

	model := opts.Model
	if model == "" {
		model = p.Config.Model
	}
	if model != "" {
		argv = append(argv, "--model", model)
	}

	argv = append(argv, "--message", prompt)
	return argv, nil
}

func (p *Provider) BuildEnv(opts cliorch.SendOptions) map[string]string {
	return opts.Env
}

func (p *Provider) ParseResponse(result executor.Result, duration time.Duration) cliorch.Response {
	return cliorch.DefaultParseResponse(result, duration)
}
