package copilot

import (
	"testing"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
	"github.com/stretchr/testify/assert"
)

func TestBuildCommand(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	argv, stdin := p.BuildCommand("review this diff", cliorch.SendOptions{})
	assert.Nil(t, stdin)
	assert.Contains(t, argv, "-p")
	assert.Equal(t, "review this diff", argv[len(argv)-1])
}

func TestDangerousMode(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	assert.True(t, p.SupportsDangerousMode())
	assert.Equal(t, []string{"--allow-all-tools"}, p.DangerousModeFlags())
}
