package opencode

import (
	"testing"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
	"github.com/stretchr/testify/assert"
)

func TestBuildCommand(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{Model: "default-model"}).(*Provider)
	argv, stdin := p.BuildCommand("hi", cliorch.SendOptions{})
	assert.Nil(t, stdin)
	assert.Contains(t, argv, "default-model")
	assert.Equal(t, "hi", argv[len(argv)-1])
}

func TestMinimalBinaryContract(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	assert.False(t, p.SupportsMCP())
	assert.False(t, p.SupportsDangerousMode())
	assert.False(t, p.SupportsSessions())
}
