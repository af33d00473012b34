// Package mock provides a test-double Adapter for exercising the
// orchestration core without shelling out to a real CLI, grounded on the
// teacher's provider/mock package.
package mock

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
)

var errMockFailure = errors.New("mock failure after threshold")

// Provider is a mock CLI-agent adapter for tests.
type Provider struct {
	cliorch.BaseAdapter

	name      cliorch.ProviderName
	latency   time.Duration
	failAfter int
	callCount atomic.Int64
	staticErr error
	output    string
	available bool
	onSend    func(prompt string, opts cliorch.SendOptions) (cliorch.Response, error)
}

var _ cliorch.Adapter = (*Provider)(nil)

// Option configures a mock Provider.
type Option func(*Provider)

// New creates a mock adapter. Unlike the other built-ins it ignores exec
// and cfg beyond recording the name, since it never actually execs anything.
func New(exec executor.Executor, cfg cliorch.ProviderConfig) cliorch.Adapter {
	name := cfg.Name
	if name == "" {
		name = "mock"
	}
	p := &Provider{name: name, output: "mock response", available: true}
	p.BaseAdapter = cliorch.BaseAdapter{
		ProviderName: name,
		Display:      "Mock",
		Binary:       "true",
		Exec:         exec,
		Config:       cfg,
		Builder:      p,
	}
	return p
}

// NewWithOptions builds a mock adapter directly, for use in tests that want
// WithFailAfter/WithError/WithLatency without going through a Configuration.
func NewWithOptions(opts ...Option) *Provider {
	p := &Provider{name: "mock", output: "mock response", available: true}
	p.BaseAdapter = cliorch.BaseAdapter{
		ProviderName: p.name,
		Display:      "Mock",
		Binary:       "true",
		Exec:         nil,
		Builder:      p,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.BaseAdapter.ProviderName = p.name
	return p
}

// WithName sets the provider name.
func WithName(name cliorch.ProviderName) Option {
	return func(p *Provider) { p.name = name }
}

// WithLatency adds simulated latency before each Send returns.
func WithLatency(d time.Duration) Option {
	return func(p *Provider) { p.latency = d }
}

// WithFailAfter makes Send fail with a generic provider error after n
// successful calls. Overridden by WithError, which fails unconditionally.
func WithFailAfter(n int) Option {
	return func(p *Provider) { p.failAfter = n }
}

// WithError sets an error Send returns on every call, taking precedence
// over WithFailAfter.
func WithError(err error) Option {
	return func(p *Provider) { p.staticErr = err }
}

// WithOutput sets the Response.Output text for successful calls.
func WithOutput(output string) Option {
	return func(p *Provider) { p.output = output }
}

// WithAvailable overrides Available(), for exercising ProviderManager.Probe
// against a provider whose binary is missing without touching PATH.
func WithAvailable(available bool) Option {
	return func(p *Provider) { p.available = available }
}

// WithSendFunc overrides Send's behavior entirely.
func WithSendFunc(fn func(prompt string, opts cliorch.SendOptions) (cliorch.Response, error)) Option {
	return func(p *Provider) { p.onSend = fn }
}

// CallCount returns the number of Send invocations so far.
func (p *Provider) CallCount() int64 { return p.callCount.Load() }

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

func (p *Provider) HealthStatus() (bool, string) { return true, "ok" }

func (p *Provider) FirewallRequirements() cliorch.FirewallRequirements {
	return cliorch.FirewallRequirements{}
}

func (p *Provider) InstructionFilePaths() []cliorch.InstructionFile { return nil }

func (p *Provider) DiscoverModels(ctx context.Context) []cliorch.ModelInfo {
	return []cliorch.ModelInfo{{Name: "mock-model", DisplayName: "Mock Model"}}
}

func (p *Provider) Available() bool { return p.available }

// Send overrides BaseAdapter.Send entirely: a mock provider never execs a
// real subprocess, so it has no use for the BuildCommand/ParseResponse
// split.
func (p *Provider) Send(ctx context.Context, prompt string, opts cliorch.SendOptions) (cliorch.Response, error) {
	if p.latency > 0 {
		select {
		case <-time.After(p.latency):
		case <-ctx.Done():
			return cliorch.Response{}, ctx.Err()
		}
	}

	count := p.callCount.Add(1)

	if p.onSend != nil {
		return p.onSend(prompt, opts)
	}

	if p.staticErr != nil {
		return cliorch.Response{Provider: p.name, Error: p.staticErr}, p.staticErr
	}

	if p.failAfter > 0 && int(count) > p.failAfter {
		err := cliorch.NewProviderError(p.name, errMockFailure, nil)
		return cliorch.Response{Provider: p.name, Error: err}, err
	}

	return cliorch.Response{
		Output:   p.output,
		ExitCode: 0,
		Provider: p.name,
		Model:    opts.Model,
	}, nil
}

// BuildCommand, BuildEnv and ParseResponse exist only to satisfy
// CommandBuilder; Send above bypasses them.
func (p *Provider) BuildCommand(prompt string, opts cliorch.SendOptions) ([]string, []byte) {
	return []string{"true"}, nil
}

func (p *Provider) BuildEnv(opts cliorch.SendOptions) map[string]string { return nil }

func (p *Provider) ParseResponse(result executor.Result, duration time.Duration) cliorch.Response {
	return cliorch.DefaultParseResponse(result, duration)
}
