package main

import (
	"errors"
	"testing"

	"github.com/cliorch/cliorch"
	"github.com/stretchr/testify/assert"
)

func TestCategoryDescription_ProviderErrorWithCategory(t *testing.T) {
	err := cliorch.NewProviderError("claude", errors.New("boom"), map[string]string{"category": string(cliorch.CategoryPermanent)})

	desc, ok := categoryDescription(err)
	assert.True(t, ok)
	assert.Equal(t, cliorch.DescriptionFor(cliorch.CategoryPermanent), desc)
}

func TestCategoryDescription_NonProviderError(t *testing.T) {
	_, ok := categoryDescription(errors.New("plain"))
	assert.False(t, ok)
}

func TestCategoryDescription_ProviderErrorWithoutCategory(t *testing.T) {
	err := cliorch.NewProviderError("claude", errors.New("boom"), nil)
	_, ok := categoryDescription(err)
	assert.False(t, ok)
}
