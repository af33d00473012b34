package cursor

import (
	"testing"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
	"github.com/stretchr/testify/assert"
)

func TestBuildCommand_PromptViaStdin(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)

	argv, stdin := p.BuildCommand("explain this function", cliorch.SendOptions{})
	assert.Equal(t, []byte("explain this function"), stdin)
	assert.Contains(t, argv, "-p")
	assert.NotContains(t, argv, "explain this function", "the prompt must not also appear in argv")
}

func TestCapabilities_PromptViaStdinFlagSet(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	assert.True(t, p.Capabilities().PromptViaStdin)
}

func TestModelFamily_DotsToHyphens(t *testing.T) {
	assert.Equal(t, "claude-3-5-sonnet", ModelFamily("claude-3.5-sonnet"))
}

func TestProviderModelName_IsModelFamilyInverse(t *testing.T) {
	families := []string{"claude-3-5-sonnet", "gpt-4o", "o1"}
	for _, family := range families {
		roundTripped := ModelFamily(ProviderModelName(family))
		assert.Equal(t, family, roundTripped, family)
	}
}

func TestSessionFlags_CursorDoesNotSupportSessions(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	assert.False(t, p.SupportsSessions())
	assert.Nil(t, p.SessionFlags("anything"))
}
