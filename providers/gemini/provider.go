// Package gemini adapts the Google Gemini CLI to the cliorch Adapter
// contract.
package gemini

import (
	"context"
	"regexp"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
)

const binaryName = "gemini"

var trailingBuild = regexp.MustCompile(`-\d{3,}$`)

// Provider is the Gemini CLI adapter.
type Provider struct {
	cliorch.BaseAdapter
}

var _ cliorch.Adapter = (*Provider)(nil)

func New(exec executor.Executor, cfg cliorch.ProviderConfig) cliorch.Adapter {
	p := &Provider{}
	p.BaseAdapter = cliorch.BaseAdapter{
		ProviderName: "gemini",
		Display:      "Google Gemini",
		Binary:       binaryName,
		Exec:         exec,
		Config:       cfg,
		Builder:      p,
		Patterns: cliorch.ProviderPatterns{
			cliorch.CategoryRateLimited:   {regexp.MustCompile(`resource_exhausted|quota exceeded for|429`)},
			cliorch.CategoryQuotaExceeded: {regexp.MustCompile(`daily limit`)},
			cliorch.CategoryAuthExpired:   {regexp.MustCompile(`permission_denied|api key not valid`)},
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
	return cliorch.Capabilities{ToolUse: true, Vision: true, JSONMode: true}
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
		return false, "gemini binary not found on PATH"
	}
	return true, "ok"
}

func (p *Provider) FirewallRequirements() cliorch.FirewallRequirements {
	return cliorch.FirewallRequirements{Domains: []string{"generativelanguage.googleapis.com"}}
}

func (p *Provider) InstructionFilePaths() []cliorch.InstructionFile {
	return []cliorch.InstructionFile{{Path: "GEMINI.md", Description: "project instructions read by gemini"}}
}

func (p *Provider) DiscoverModels(ctx context.Context) []cliorch.ModelInfo {
	return []cliorch.ModelInfo{
		{Name: "gemini-1.5-pro", DisplayName: "Gemini 1.5 Pro"},
		{Name: "gemini-1.5-flash", DisplayName: "Gemini 1.5 Flash"},
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

// ModelFamily strips Gemini's trailing build number (gemini-1.5-pro-002 ->
// gemini-1.5-pro), per §6.
func ModelFamily(model string) string {
	return trailingBuild.ReplaceAllString(model, "")
}
