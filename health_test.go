package cliorch_test

import (
	"testing"

	"github.com/cliorch/cliorch"
	"github.com/stretchr/testify/assert"
)

func TestHealthWindow_EmptyIsHealthy(t *testing.T) {
	hw := cliorch.NewHealthWindow(cliorch.HealthConfig{Enabled: true, WindowSize: 5, Threshold: 0.5})
	assert.True(t, hw.Healthy())
	assert.Equal(t, 1.0, hw.SuccessRate())
}

func TestHealthWindow_UnhealthyBelowThreshold(t *testing.T) {
	hw := cliorch.NewHealthWindow(cliorch.HealthConfig{Enabled: true, WindowSize: 4, Threshold: 0.5})
	hw.RecordFailure()
	hw.RecordFailure()
	hw.RecordFailure()
	hw.RecordSuccess()
	assert.False(t, hw.Healthy())
	assert.Equal(t, 0.25, hw.SuccessRate())
}

func TestHealthWindow_RingBufferEvictsOldest(t *testing.T) {
	hw := cliorch.NewHealthWindow(cliorch.HealthConfig{Enabled: true, WindowSize: 2, Threshold: 0.5})
	hw.RecordFailure()
	hw.RecordFailure()
	// Window is full of failures; pushing two successes should evict both
	// failures and leave the window entirely healthy.
	hw.RecordSuccess()
	hw.RecordSuccess()

	s, f, total := hw.Counts()
	assert.Equal(t, 2, s)
	assert.Equal(t, 0, f)
	assert.Equal(t, 2, total)
	assert.True(t, hw.Healthy())
}

func TestHealthWindow_DisabledAlwaysHealthy(t *testing.T) {
	hw := cliorch.NewHealthWindow(cliorch.HealthConfig{Enabled: false})
	for i := 0; i < 10; i++ {
		hw.RecordFailure()
	}
	assert.True(t, hw.Healthy())
}

func TestHealthWindow_DefaultsApplied(t *testing.T) {
	hw := cliorch.NewHealthWindow(cliorch.HealthConfig{Enabled: true})
	hw.RecordSuccess()
	_, _, total := hw.Counts()
	assert.Equal(t, 1, total)
}

func TestHealthWindow_Reset(t *testing.T) {
	hw := cliorch.NewHealthWindow(cliorch.HealthConfig{Enabled: true, WindowSize: 3, Threshold: 0.5})
	hw.RecordFailure()
	hw.Reset()
	s, f, total := hw.Counts()
	assert.Zero(t, s)
	assert.Zero(t, f)
	assert.Zero(t, total)
	assert.True(t, hw.Healthy())
}
