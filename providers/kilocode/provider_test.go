package kilocode

import (
	"context"
	"testing"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	result executor.Result
}

func (f fakeExecutor) Run(ctx context.Context, req executor.Request) (executor.Result, error) {
	return f.result, nil
}

func (f fakeExecutor) Which(binary string) (string, bool) { return "/usr/bin/" + binary, true }

func TestBuildCommand(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{Model: "kilo-default"}).(*Provider)
	argv, stdin := p.BuildCommand("hi", cliorch.SendOptions{})
	assert.Nil(t, stdin)
	assert.Contains(t, argv, "kilo-default")
	assert.Equal(t, "hi", argv[len(argv)-1])
}

func TestErrorPatterns_RateLimit(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	patterns, order := p.ErrorPatterns()
	assert.Equal(t, cliorch.CategoryRateLimited, cliorch.Classify("429 rate limit", patterns, order))
}

func TestSend_NonZeroExitPassesThroughWithoutThrowing(t *testing.T) {
	exec := fakeExecutor{result: executor.Result{Stderr: "lint gate failed", ExitCode: 1}}
	p := New(exec, cliorch.ProviderConfig{})

	resp, err := p.Send(context.Background(), "fix the lint error", cliorch.SendOptions{})
	require.NoError(t, err, "kilocode opts into PassThroughExitErrors, so a non-zero exit must not throw")
	assert.Equal(t, 1, resp.ExitCode)
	assert.Error(t, resp.Error)
}
