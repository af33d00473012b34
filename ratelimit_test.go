package cliorch_test

import (
	"testing"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitState_MarkAndAutoClear(t *testing.T) {
	rl := cliorch.NewRateLimitState(time.Hour)

	assert.False(t, rl.Limited())

	soon := time.Now().Add(10 * time.Millisecond)
	rl.MarkLimited(&soon, 0)
	require.True(t, rl.Limited())
	assert.Equal(t, 1, rl.LimitCount())

	time.Sleep(15 * time.Millisecond)
	assert.False(t, rl.Limited())
}

func TestRateLimitState_DefaultResetWhenNoneGiven(t *testing.T) {
	rl := cliorch.NewRateLimitState(50 * time.Millisecond)
	rl.MarkLimited(nil, 0)
	assert.True(t, rl.Limited())
	assert.Greater(t, rl.TimeUntilReset(), time.Duration(0))
}

func TestRateLimitState_ClearLimit(t *testing.T) {
	rl := cliorch.NewRateLimitState(time.Hour)
	rl.MarkLimited(nil, time.Hour)
	require.True(t, rl.Limited())
	rl.ClearLimit()
	assert.False(t, rl.Limited())
}

func TestRateLimitState_Reset(t *testing.T) {
	rl := cliorch.NewRateLimitState(time.Hour)
	rl.MarkLimited(nil, time.Hour)
	rl.Reset()
	assert.False(t, rl.Limited())
	assert.Equal(t, 0, rl.LimitCount())
}
