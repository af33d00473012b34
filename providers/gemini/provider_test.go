package gemini

import (
	"testing"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
	"github.com/stretchr/testify/assert"
)

func TestModelFamily_StripsTrailingBuildNumber(t *testing.T) {
	assert.Equal(t, "gemini-1.5-pro", ModelFamily("gemini-1.5-pro-002"))
	assert.Equal(t, "gemini-1.5-flash", ModelFamily("gemini-1.5-flash"))
}

func TestBuildCommand_NoModelMeansNoModelFlag(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	argv, stdin := p.BuildCommand("hello", cliorch.SendOptions{})
	assert.Nil(t, stdin)
	assert.NotContains(t, argv, "--model")
	assert.Equal(t, "hello", argv[len(argv)-1])
}

func TestErrorPatterns_RateLimitOrderedBeforeQuota(t *testing.T) {
	p := New(executor.NewOSExecutor(), cliorch.ProviderConfig{}).(*Provider)
	patterns, order := p.ErrorPatterns()
	got := cliorch.Classify("daily limit reached, resource_exhausted", patterns, order)
	assert.Equal(t, cliorch.CategoryRateLimited, got, "rate_limited is ordered before quota_exceeded in gemini's PatternOrder")
}
