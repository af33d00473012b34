package cliorch

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/cliorch/cliorch/executor"
)

// Capabilities describes what one adapter instance can do. All fields
// default to false; PromptViaStdin is the capability flag §9 calls out
// explicitly so Cursor's stdin-delivered prompt is not a special case in
// orchestration logic.
type Capabilities struct {
	Streaming      bool
	FileUpload     bool
	Vision         bool
	ToolUse        bool
	JSONMode       bool
	MCP            bool
	DangerousMode  bool
	Sessions       bool
	PromptViaStdin bool
}

// InstructionFile describes one instruction/context file an adapter's
// binary reads from the project, e.g. CLAUDE.md or .cursorrules.
type InstructionFile struct {
	Path        string
	Description string
	Symlink     bool
}

// FirewallRequirements is informational metadata about network access an
// adapter's binary needs, surfaced for operators sandboxing the host.
type FirewallRequirements struct {
	Domains  []string
	IPRanges []string
}

// ModelInfo describes one model an adapter's binary can target.
type ModelInfo struct {
	Name        string
	DisplayName string
}

// MCPServerStatus describes one MCP server an adapter discovered.
type MCPServerStatus struct {
	Name    string
	Status  string
	Enabled bool
}

// SendOptions carries the per-call overrides a caller may pass to
// Conductor.Send, layered over ProviderConfig per the tie-break rule in
// §4.F: options.X overrides config.X.
type SendOptions struct {
	Model   string
	Timeout time.Duration
	Env     map[string]string
	Flags   []string
}

// Adapter is the uniform contract every CLI wrapper exposes (§4.F). One
// concrete type implements this per provider; BaseAdapter supplies the
// shared Send algorithm so concrete adapters only need to provide
// BuildCommand/BuildEnv/ParseResponse.
type Adapter interface {
	// Name is the canonical, lowercase provider identifier.
	Name() ProviderName
	// DisplayName is a human-readable name for status output.
	DisplayName() string
	// BinaryName is the executable this adapter shells out to.
	BinaryName() string
	// Available reports whether BinaryName() is on PATH.
	Available() bool

	Capabilities() Capabilities
	ErrorPatterns() (ProviderPatterns, []ErrorCategory)

	SupportsMCP() bool
	FetchMCPServers(ctx context.Context) ([]MCPServerStatus, error)

	SupportsDangerousMode() bool
	DangerousModeFlags() []string

	SupportsSessions() bool
	SessionFlags(sessionID string) []string

	ValidateConfig() (valid bool, errs []string)
	HealthStatus() (healthy bool, message string)

	FirewallRequirements() FirewallRequirements
	InstructionFilePaths() []InstructionFile
	DiscoverModels(ctx context.Context) []ModelInfo

	// Send runs the adapter end to end: build argv/env, invoke the
	// executor, parse the result, and classify+wrap any failure.
	Send(ctx context.Context, prompt string, opts SendOptions) (Response, error)
}

// CommandBuilder is implemented by each concrete adapter to translate a
// prompt and options into argv, as data specific to that CLI's flags —
// never orchestration logic (§1 scope).
type CommandBuilder interface {
	// BuildCommand returns the argv (excluding the binary name itself,
	// which BaseAdapter prepends) and, when the adapter delivers the
	// prompt over stdin, the bytes to write there.
	BuildCommand(prompt string, opts SendOptions) (argv []string, stdin []byte)
	// BuildEnv returns additional environment variables for the
	// subprocess. The default is no additions.
	BuildEnv(opts SendOptions) map[string]string
	// ParseResponse turns a raw executor.Result into a Response. The
	// default implementation (used by adapters that don't override it)
	// populates Output from stdout and Error from stderr on failure.
	ParseResponse(result executor.Result, duration time.Duration) Response
}

// BaseAdapter implements the Send algorithm from §4.F step by step, and is
// embedded by every concrete provider adapter. Concrete adapters supply a
// CommandBuilder, their own Capabilities/error patterns, and the fields
// BaseAdapter needs to build argv.
type BaseAdapter struct {
	ProviderName ProviderName
	Display      string
	Binary       string
	Exec         executor.Executor
	Config       ProviderConfig
	Builder      CommandBuilder
	Patterns     ProviderPatterns
	PatternOrder []ErrorCategory

	// PassThroughExitErrors selects the §7 partial-failure policy: a
	// non-zero exit is returned as Response data (exit_code/error set,
	// Go error nil) instead of being classified and thrown. Most adapters
	// leave this false, since a dispatcher whose whole point is detecting
	// rate limits/auth failures from CLI text needs to throw on them to
	// trigger the retry/switch path; an adapter sets it true when a
	// non-zero exit from its binary routinely means something unrelated
	// to provider health (a bad local edit, a lint failure) that the
	// retry/switch machinery shouldn't react to.
	PassThroughExitErrors bool
}

func (b *BaseAdapter) Name() ProviderName { return b.ProviderName }
func (b *BaseAdapter) DisplayName() string {
	if b.Display != "" {
		return b.Display
	}
	return string(b.ProviderName)
}
func (b *BaseAdapter) BinaryName() string { return b.Binary }

func (b *BaseAdapter) Available() bool {
	_, ok := b.Exec.Which(b.Binary)
	return ok
}

func (b *BaseAdapter) ErrorPatterns() (ProviderPatterns, []ErrorCategory) {
	return b.Patterns, b.PatternOrder
}

// Send implements the seven steps of §4.F's base Send algorithm.
func (b *BaseAdapter) Send(ctx context.Context, prompt string, opts SendOptions) (Response, error) {
	// Step 1: argv = build_command(prompt, options).
	argv, stdin := b.Builder.BuildCommand(prompt, opts)
	fullArgv := append([]string{b.Binary}, argv...)

	// Step 2: env = build_env(options).
	env := b.Builder.BuildEnv(opts)

	// Step 3: t = options.timeout ?? config.timeout ?? default_timeout.
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = b.Config.Timeout
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	// Step 4: call the executor; compute duration.
	start := time.Now()
	result, err := b.Exec.Run(ctx, executor.Request{
		Argv:    fullArgv,
		Env:     env,
		Stdin:   stdin,
		Timeout: timeout,
	})
	duration := time.Since(start)

	if err != nil {
		return Response{}, b.classifyAndWrap(err, fullArgv, timeout)
	}

	// Step 5: response = parse_response(result, duration).
	response := b.Builder.ParseResponse(result, duration)
	response.Provider = b.ProviderName
	if response.Model == "" {
		response.Model = opts.Model
	}

	// Step 6: emit token-usage event when present. Callers without a
	// configured callback bus simply get no emission.
	// (handled by the Conductor, which has access to Configuration.Callbacks)

	// Step 7: classify a failed response's text and throw, unless this
	// adapter opted into pass-through via PassThroughExitErrors, in which
	// case the non-zero exit is returned as Response data per §7's
	// alternate, non-throwing partial-failure policy.
	if response.Error != nil && !b.PassThroughExitErrors {
		return response, b.classifyAndWrap(response.Error, fullArgv, timeout)
	}

	return response, nil
}

// classifyAndWrap implements step 7 of §4.F: classify the failure using
// this adapter's error_patterns, then return the matching typed error,
// always wrapping the original.
func (b *BaseAdapter) classifyAndWrap(cause error, argv []string, timeout time.Duration) error {
	if executor.IsTimeout(cause) {
		return NewTimeoutError(b.ProviderName, timeout, cause)
	}

	cat := Classify(cause.Error(), b.Patterns, b.PatternOrder)
	switch cat {
	case CategoryRateLimited:
		return NewRateLimitError(b.ProviderName, nil, cause)
	case CategoryAuthExpired:
		return NewAuthenticationError(b.ProviderName, cause)
	case CategoryTimeout:
		return NewTimeoutError(b.ProviderName, timeout, cause)
	default:
		if executor.IsLaunchFailure(cause) {
			return NewCommandExecutionError(b.ProviderName, argv, cause)
		}
		return NewProviderError(b.ProviderName, cause, map[string]string{"category": string(cat)})
	}
}

// DefaultParseResponse is the base ParseResponse behavior §4.F describes:
// output=stdout, exit_code from the result, error=stderr when the process
// failed. Concrete adapters that need to parse structured stdout (JSON,
// etc.) override ParseResponse and may call this as a fallback.
func DefaultParseResponse(result executor.Result, duration time.Duration) Response {
	resp := Response{
		Output:   result.Stdout,
		ExitCode: result.ExitCode,
		Duration: duration,
	}
	if result.ExitCode != 0 {
		msg := result.Stderr
		if msg == "" {
			msg = result.Stdout
		}
		resp.Error = fmt.Errorf("exit status %d: %s", result.ExitCode, msg)
	}
	return resp
}

// compilePatterns is a small helper concrete adapters use to build a
// ProviderPatterns map once at construction time, per §9 "compile them
// once at startup".
func compilePatterns(specs map[ErrorCategory][]string) ProviderPatterns {
	out := make(ProviderPatterns, len(specs))
	for cat, raws := range specs {
		res := make([]*regexp.Regexp, 0, len(raws))
		for _, raw := range raws {
			res = append(res, regexp.MustCompile(raw))
		}
		out[cat] = res
	}
	return out
}
