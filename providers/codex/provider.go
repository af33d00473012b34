// Package codex adapts the OpenAI Codex CLI to the cliorch Adapter
// contract.
package codex

import (
	"context"
	"regexp"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
)

const binaryName = "codex"

// Provider is the OpenAI Codex CLI adapter.
type Provider struct {
	cliorch.BaseAdapter
}

var _ cliorch.Adapter = (*Provider)(nil)

func New(exec executor.Executor, cfg cliorch.ProviderConfig) cliorch.Adapter {
	p := &Provider{}
	p.BaseAdapter = cliorch.BaseAdapter{
		ProviderName: "codex",
		Display:      "OpenAI Codex",
		Binary:       binaryName,
		Exec:         exec,
		Config:       cfg,
		Builder:      p,
		Patterns: cliorch.ProviderPatterns{
			cliorch.CategoryRateLimited:   {regexp.MustCompile(`rate_limit_exceeded|429`)},
			cliorch.CategoryQuotaExceeded: {regexp.MustCompile(`insufficient_quota`)},
			cliorch.CategoryAuthExpired:   {regexp.MustCompile(`invalid_api_key|not logged in`)},
		},
		PatternOrder: []cliorch.ErrorCategory{
			cliorch.CategoryRateLimited,
			cliorch.CategoryQuotaExceeded,
			cliorch.CategoryAuthExpired,
		},
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
	return []string{"--session", sessionID}
}

func (p *Provider) ValidateConfig() (bool, []string) { return true, nil }

func (p *Provider) HealthStatus() (bool, string) {
	if !p.Available() {
		return false, "codex binary not found on PATH"
	}
	return true, "ok"
}

func (p *Provider) FirewallRequirements() cliorch.FirewallRequirements {
	return cliorch.FirewallRequirements{Domains: []string{"api.openai.com"}}
}

func (p *Provider) InstructionFilePaths() []cliorch.InstructionFile {
	return []cliorch.InstructionFile{{Path: "AGENTS.md", Description: "project instructions read by codex"}}
}

func (p *Provider) DiscoverModels(ctx context.Context) []cliorch.ModelInfo {
	return []cliorch.ModelInfo{
		{Name: "o1", DisplayName: "o1"},
		{Name: "gpt-4.1", DisplayName: "GPT-4.1"},
	}
}

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
