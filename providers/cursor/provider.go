// Package cursor adapts the Cursor CLI (cursor-agent) to the cliorch
// Adapter contract. Cursor is the one built-in provider that delivers its
// prompt over stdin rather than an argv flag — a capability flag on
// BuildCommand/Send, not a special case in orchestration (§9).
package cursor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
)

const binaryName = "cursor-agent"

var versionDots = regexp.MustCompile(`(\d+)\.(\d+)`)

// Provider is the Cursor CLI adapter.
type Provider struct {
	cliorch.BaseAdapter
}

var _ cliorch.Adapter = (*Provider)(nil)

func New(exec executor.Executor, cfg cliorch.ProviderConfig) cliorch.Adapter {
	p := &Provider{}
	p.BaseAdapter = cliorch.BaseAdapter{
		ProviderName: "cursor",
		Display:      "Cursor",
		Binary:       binaryName,
		Exec:         exec,
		Config:       cfg,
		Builder:      p,
		Patterns: cliorch.ProviderPatterns{
			cliorch.CategoryRateLimited: {regexp.MustCompile(`rate.limited|429`)},
			cliorch.CategoryAuthExpired: {regexp.MustCompile(`not logged in|unauthorized`)},
		},
		PatternOrder: []cliorch.ErrorCategory{cliorch.CategoryRateLimited, cliorch.CategoryAuthExpired},
	}
	return p
}

func (p *Provider) Capabilities() cliorch.Capabilities {
	return cliorch.Capabilities{ToolUse: true, MCP: true, PromptViaStdin: true}
}

func (p *Provider) SupportsMCP() bool { return true }

// FetchMCPServers shells out to `cursor-agent mcp list`, falling back to
// parsing ~/.cursor/mcp.json when that subcommand is unavailable, per §6.
func (p *Provider) FetchMCPServers(ctx context.Context) ([]cliorch.MCPServerStatus, error) {
	res, err := p.Exec.Run(ctx, executor.Request{Argv: []string{binaryName, "mcp", "list"}, Timeout: 10 * time.Second})
	if err == nil && res.ExitCode == 0 {
		return parseMCPListOutput(res.Stdout), nil
	}
	return fetchMCPServersFromConfigFile()
}

func parseMCPListOutput(output string) []cliorch.MCPServerStatus {
	var servers []cliorch.MCPServerStatus
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		servers = append(servers, cliorch.MCPServerStatus{Name: line, Status: "unknown", Enabled: true})
	}
	return servers
}

type cursorMCPConfig struct {
	MCPServers map[string]struct {
		Command string   `json:"command"`
		Args    []string `json:"args"`
	} `json:"mcpServers"`
}

func fetchMCPServersFromConfigFile() ([]cliorch.MCPServerStatus, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(home, ".cursor", "mcp.json"))
	if err != nil {
		return nil, nil
	}
	var cfg cursorMCPConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	servers := make([]cliorch.MCPServerStatus, 0, len(cfg.MCPServers))
	for name := range cfg.MCPServers {
		servers = append(servers, cliorch.MCPServerStatus{Name: name, Status: "configured", Enabled: true})
	}
	return servers, nil
}

func (p *Provider) SupportsDangerousMode() bool   { return false }
func (p *Provider) DangerousModeFlags() []string  { return nil }
func (p *Provider) SupportsSessions() bool        { return false }
func (p *Provider) SessionFlags(string) []string  { return nil }

func (p *Provider) ValidateConfig() (bool, []string) { return true, nil }

func (p *Provider) HealthStatus() (bool, string) {
	if !p.Available() {
		return false, "cursor-agent binary not found on PATH"
	}
	return true, "ok"
}

func (p *Provider) FirewallRequirements() cliorch.FirewallRequirements {
	return cliorch.FirewallRequirements{Domains: []string{"api2.cursor.sh", "cursor.sh"}}
}

func (p *Provider) InstructionFilePaths() []cliorch.InstructionFile {
	return []cliorch.InstructionFile{{Path: ".cursorrules", Description: "project instructions read by cursor-agent"}}
}

func (p *Provider) DiscoverModels(ctx context.Context) []cliorch.ModelInfo {
	return []cliorch.ModelInfo{{Name: "claude-3-5-sonnet", DisplayName: "Claude 3.5 Sonnet"}}
}

// BuildCommand implements cliorch.CommandBuilder. Cursor takes `-p` with no
// argument and reads the prompt from stdin.
func (p *Provider) BuildCommand(prompt string, opts cliorch.SendOptions) (argv []string, stdin []byte) {
	argv = append(argv, "-p")
	argv = append(argv, p.Config.DefaultFlags...)
	argv = append(argv, opts.Flags...)
	return argv, []byte(prompt)
}

func (p *Provider) BuildEnv(opts cliorch.SendOptions) map[string]string { return opts.Env }

func (p *Provider) ParseResponse(result executor.Result, duration time.Duration) cliorch.Response {
	return cliorch.DefaultParseResponse(result, duration)
}

// ModelFamily translates Cursor's dot-separated version numbers to the
// hyphen form other providers use, per §6 (claude-3.5-sonnet -> claude-3-5-sonnet).
func ModelFamily(model string) string {
	return versionDots.ReplaceAllString(model, "$1-$2")
}

// ProviderModelName is ModelFamily's inverse: hyphen form back to dotted,
// so model_family(provider_model_name(family)) == family holds for the one
// dotted/hyphenated pair Cursor normalizes (§8 round-trip property).
func ProviderModelName(family string) string {
	parts := strings.Split(family, "-")
	for i := 0; i < len(parts)-1; i++ {
		if isNumeric(parts[i]) && isNumeric(parts[i+1]) {
			parts[i] = parts[i] + "." + parts[i+1]
			parts = append(parts[:i+1], parts[i+2:]...)
			break
		}
	}
	return strings.Join(parts, "-")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
