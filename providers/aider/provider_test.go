package aider

import (
	"testing"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
	"github.com/stretchr/testify/assert"
)

func TestBuildCommand_AlwaysNonInteractive(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	argv, stdin := p.BuildCommand("add a test", cliorch.SendOptions{})
	assert.Nil(t, stdin)
	assert.Contains(t, argv, "--yes")
	assert.Contains(t, argv, "--message")
	assert.Equal(t, "add a test", argv[len(argv)-1])
}

func TestSessionFlags(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	assert.Equal(t, []string{"--restore-chat-history", "abc"}, p.SessionFlags("abc"))
}
