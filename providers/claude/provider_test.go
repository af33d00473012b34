package claude

import (
	"testing"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
	"github.com/stretchr/testify/assert"
)

func TestModelFamily_StripsDateSuffix(t *testing.T) {
	assert.Equal(t, "claude-sonnet-4", ModelFamily("claude-sonnet-4-20250514"))
	assert.Equal(t, "claude-opus-4", ModelFamily("claude-opus-4"))
}

func TestBuildCommand_PromptIsArgvFlag(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{Model: "claude-sonnet-4"}).(*Provider)

	argv, stdin := p.BuildCommand("fix the bug", cliorch.SendOptions{})
	assert.Nil(t, stdin, "claude takes its prompt as an argv flag, never stdin")
	assert.Contains(t, argv, "--print")
	assert.Contains(t, argv, "claude-sonnet-4")
	assert.Equal(t, "fix the bug", argv[len(argv)-1])
}

func TestBuildCommand_OptionsModelOverridesConfig(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{Model: "claude-opus-4"}).(*Provider)

	argv, _ := p.BuildCommand("hi", cliorch.SendOptions{Model: "claude-sonnet-4"})
	assert.Contains(t, argv, "claude-sonnet-4")
	assert.NotContains(t, argv, "claude-opus-4")
}

func TestCapabilities(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	caps := p.Capabilities()
	assert.True(t, caps.ToolUse)
	assert.True(t, caps.MCP)
	assert.True(t, caps.DangerousMode)
	assert.True(t, caps.Sessions)
	assert.False(t, caps.PromptViaStdin)
}

func TestSessionFlags(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	assert.Nil(t, p.SessionFlags(""))
	assert.Equal(t, []string{"--resume", "abc123"}, p.SessionFlags("abc123"))
}

func TestErrorPatterns_ClassifyRateLimit(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	patterns, order := p.ErrorPatterns()
	got := cliorch.Classify("Error: rate limit reached, please retry", patterns, order)
	assert.Equal(t, cliorch.CategoryRateLimited, got)
}
