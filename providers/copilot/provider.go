// Package copilot adapts the GitHub Copilot CLI to the cliorch Adapter
// contract.
package copilot

import (
	"context"
	"regexp"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
)

const binaryName = "copilot"

// Provider is the GitHub Copilot CLI adapter.
type Provider struct {
	cliorch.BaseAdapter
}

var _ cliorch.Adapter = (*Provider)(nil)

func New(exec executor.Executor, cfg cliorch.ProviderConfig) cliorch.Adapter {
	p := &Provider{}
	p.BaseAdapter = cliorch.BaseAdapter{
		ProviderName: "copilot",
		Display:      "GitHub Copilot",
		Binary:       binaryName,
		Exec:         exec,
		Config:       cfg,
		Builder:      p,
		Patterns: cliorch.ProviderPatterns{
			cliorch.CategoryRateLimited: {regexp.MustCompile(`secondary rate limit|429`)},
			cliorch.CategoryAuthExpired: {regexp.MustCompile(`bad credentials|not authenticated|gh auth login`)},
		},
		PatternOrder: []cliorch.ErrorCategory{cliorch.CategoryRateLimited, cliorch.CategoryAuthExpired},
	}
	return p
}

func (p *Provider) Capabilities() cliorch.Capabilities {
	return cliorch.Capabilities{ToolUse: true, DangerousMode: true, Sessions: true}
}

func (p *Provider) SupportsMCP() bool { return false }

func (p *Provider) FetchMCPServers(ctx context.Context) ([]cliorch.MCPServerStatus, error) {
	return nil, nil
}

func (p *Provider) SupportsDangerousMode() bool { return true }

func (p *Provider) DangerousModeFlags() []string { return []string{"--allow-all-tools"} }

func (p *Provider) SupportsSessions() bool { return true }

func (p *Provider) SessionFlags(sessionID string) []string {
	if sessionID == "" {
		return nil
	}
	return []string{"--resume", sessionID}
}

func (p *Provider) ValidateConfig() (bool, []string) { return true, nil }

func (p *Provider) HealthStatus() (bool, string) {
	if !p.Available() {
		return false, "copilot binary not found on PATH"
	}
	return true, "ok"
}

func (p *Provider) FirewallRequirements() cliorch.FirewallRequirements {
	return cliorch.FirewallRequirements{Domains: []string{"api.githubcopilot.com", "api.github.com"}}
}

func (p *Provider) InstructionFilePaths() []cliorch.InstructionFile {
	return []cliorch.InstructionFile{
		{Path: ".github/copilot-instructions.md", Description: "project instructions read by copilot"},
	}
}

func (p *Provider) DiscoverModels(ctx context.Context) []cliorch.ModelInfo {
	return []cliorch.ModelInfo{
		{Name: "gpt-4o", DisplayName: "GPT-4o"},
		{Name: "claude-3.5-sonnet", DisplayName: "Claude 3.5 Sonnet"},
	}
}

// BuildCommand implements cliorch.CommandBuilder.
func (p *Provider) BuildCommand(prompt string, opts cliorch.SendOptions) (argv []string, stdin []byte) {
	argv = append(argv, p.Config.DefaultFlags...)
	argv = append(argv, opts.Flags...)
	argv = append(argv, "-p", prompt)
	return argv, nil
}

func (p *Provider) BuildEnv(opts cliorch.SendOptions) map[string]string {
	return opts.Env
}

func (p *Provider) ParseResponse(result executor.Result, duration time.Duration) cliorch.Response {
	return cliorch.DefaultParseResponse(result, duration)
}
