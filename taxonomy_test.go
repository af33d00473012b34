package cliorch_test

import (
	"regexp"
	"testing"

	"github.com/cliorch/cliorch"
	"github.com/stretchr/testify/assert"
)

func TestClassify_GenericPatterns(t *testing.T) {
	cases := map[string]cliorch.ErrorCategory{
		"Error: rate limit exceeded, please slow down": cliorch.CategoryRateLimited,
		"HTTP 429 Too Many Requests":                    cliorch.CategoryRateLimited,
		"quota exceeded for this billing period":        cliorch.CategoryQuotaExceeded,
		"401 Unauthorized: invalid api key":              cliorch.CategoryAuthExpired,
		"connection timed out after 30s":                 cliorch.CategoryTimeout,
		"503 Service Unavailable, please retry":           cliorch.CategoryTransient,
		"400 Bad Request: malformed input":                cliorch.CategoryPermanent,
		"something completely unrecognized happened":      cliorch.CategoryUnknown,
	}
	for msg, want := range cases {
		assert.Equal(t, want, cliorch.Classify(msg, nil, nil), msg)
	}
}

func TestClassify_ProviderPatternsTakePriority(t *testing.T) {
	patterns := cliorch.ProviderPatterns{
		cliorch.CategoryPermanent: {regexp.MustCompile(`usage limit`)},
	}
	order := []cliorch.ErrorCategory{cliorch.CategoryPermanent}

	// "usage limit" would generically classify as quota_exceeded, but this
	// provider's own pattern for permanent wins because provider patterns
	// are tried first.
	got := cliorch.Classify("usage limit reached", patterns, order)
	assert.Equal(t, cliorch.CategoryPermanent, got)
}

func TestClassify_CaseInsensitive(t *testing.T) {
	a := cliorch.Classify("RATE LIMIT EXCEEDED", nil, nil)
	b := cliorch.Classify("rate limit exceeded", nil, nil)
	assert.Equal(t, a, b)
	assert.Equal(t, cliorch.CategoryRateLimited, a)
}

func TestActionAndRetryable(t *testing.T) {
	assert.Equal(t, cliorch.ActionSwitchProvider, cliorch.ActionFor(cliorch.CategoryRateLimited))
	assert.Equal(t, cliorch.ActionRetryWithBackoff, cliorch.ActionFor(cliorch.CategoryTimeout))
	assert.Equal(t, cliorch.ActionEscalate, cliorch.ActionFor(cliorch.CategoryPermanent))
	assert.True(t, cliorch.Retryable(cliorch.CategoryUnknown))
	assert.False(t, cliorch.Retryable(cliorch.CategoryAuthExpired))
}
