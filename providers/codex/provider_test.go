package codex

import (
	"testing"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
	"github.com/stretchr/testify/assert"
)

func TestBuildCommand_ModelFlagFromConfig(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{Model: "o1"}).(*Provider)
	argv, stdin := p.BuildCommand("write a test", cliorch.SendOptions{})
	assert.Nil(t, stdin)
	assert.Contains(t, argv, "o1")
	assert.Equal(t, "write a test", argv[len(argv)-1])
}

func TestSessionFlags(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	assert.True(t, p.SupportsSessions())
	assert.Nil(t, p.SessionFlags(""))
	assert.Equal(t, []string{"--session", "sess-1"}, p.SessionFlags("sess-1"))
}

func TestErrorPatterns_QuotaExceeded(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	patterns, order := p.ErrorPatterns()
	assert.Equal(t, cliorch.CategoryQuotaExceeded, cliorch.Classify("error: insufficient_quota", patterns, order))
}
