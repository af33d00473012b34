// Package claude adapts the Anthropic Claude Code CLI to the cliorch
// Adapter contract.
package claude

import (
	"context"
	"regexp"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
)

const binaryName = "claude"

var dateSuffix = regexp.MustCompile(`-\d{8}$`)

// Provider is the Claude Code CLI adapter. The prompt is delivered as an
// argv flag (--prompt), never stdin, per §6's binary contract table.
type Provider struct {
	cliorch.BaseAdapter
}

var _ cliorch.Adapter = (*Provider)(nil)

// New constructs the Claude adapter. exec is the subprocess executor the
// ProviderManager injects; cfg is this provider's slice of Configuration.
func New(exec executor.Executor, cfg cliorch.ProviderConfig) cliorch.Adapter {
	p := &Provider{}
	p.BaseAdapter = cliorch.BaseAdapter{
		ProviderName: "claude",
		Display:      "Anthropic Claude",
		Binary:       binaryName,
		Exec:         exec,
		Config:       cfg,
		Builder:      p,
		Patterns:     errorPatterns(),
		PatternOrder: []cliorch.ErrorCategory{
			cliorch.CategoryRateLimited,
			cliorch.CategoryAuthExpired,
			cliorch.CategoryQuotaExceeded,
			cliorch.CategoryTimeout,
		},
	}
	return p
}

func errorPatterns() cliorch.ProviderPatterns {
	return cliorch.ProviderPatterns{
		cliorch.CategoryRateLimited:   {regexp.MustCompile(`rate limit|429`)},
		cliorch.CategoryAuthExpired:   {regexp.MustCompile(`invalid api key|unauthorized|please run /login`)},
		cliorch.CategoryQuotaExceeded: {regexp.MustCompile(`usage limit|credit balance`)},
		cliorch.CategoryTimeout:       {regexp.MustCompile(`timed out`)},
	}
}

func (p *Provider) Capabilities() cliorch.Capabilities {
	return cliorch.Capabilities{ToolUse: true, JSONMode: true, MCP: true, DangerousMode: true, Sessions: true}
}

func (p *Provider) SupportsMCP() bool { return true }

func (p *Provider) FetchMCPServers(ctx context.Context) ([]cliorch.MCPServerStatus, error) {
	return nil, nil
}

func (p *Provider) SupportsDangerousMode() bool { return true }

func (p *Provider) DangerousModeFlags() []string { return []string{"--dangerously-skip-permissions"} }

func (p *Provider) SupportsSessions() bool { return true }

func (p *Provider) SessionFlags(sessionID string) []string {
	if sessionID == "" {
		return nil
	}
	return []string{"--resume", sessionID}
}

func (p *Provider) ValidateConfig() (bool, []string) {
	return true, nil
}

func (p *Provider) HealthStatus() (bool, string) {
	if !p.Available() {
		return false, "claude binary not found on PATH"
	}
	return true, "ok"
}

func (p *Provider) FirewallRequirements() cliorch.FirewallRequirements {
	return cliorch.FirewallRequirements{Domains: []string{"api.anthropic.com", "statsig.anthropic.com"}}
}

func (p *Provider) InstructionFilePaths() []cliorch.InstructionFile {
	return []cliorch.InstructionFile{{Path: "CLAUDE.md", Description: "project instructions read by claude"}}
}

func (p *Provider) DiscoverModels(ctx context.Context) []cliorch.ModelInfo {
	return []cliorch.ModelInfo{
		{Name: "claude-opus-4", DisplayName: "Claude Opus 4"},
		{Name: "claude-sonnet-4", DisplayName: "Claude Sonnet 4"},
	}
}

// BuildCommand implements cliorch.CommandBuilder.
func (p *Provider) BuildCommand(prompt string, opts cliorch.SendOptions) (argv []string, stdin []byte) {
	argv = append(argv, "--print", "--output-format=text")
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

// BuildEnv implements cliorch.CommandBuilder; Claude needs no extra env by
// default.
func (p *Provider) BuildEnv(opts cliorch.SendOptions) map[string]string {
	return opts.Env
}

// ParseResponse implements cliorch.CommandBuilder.
func (p *Provider) ParseResponse(result executor.Result, duration time.Duration) cliorch.Response {
	return cliorch.DefaultParseResponse(result, duration)
}

// ModelFamily strips Anthropic's trailing -YYYYMMDD date suffix, per §6.
func ModelFamily(model string) string {
	return dateSuffix.ReplaceAllString(model, "")
}
