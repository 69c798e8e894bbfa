package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-sync/pkg/validator"
)

type item struct {
	Sku string `validate:"required,sku,max=16"`
}

func TestDefaultValidator(t *testing.T) {
	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	t.Run("Should accept a plain sku", func(t *testing.T) {
		assert.NoError(t, v.Validate(item{Sku: "ABC-1"}))
	})

	t.Run("Should reject a blank sku", func(t *testing.T) {
		err := v.Validate(item{Sku: "   "})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))
	})

	t.Run("Should reject control characters", func(t *testing.T) {
		assert.Error(t, v.Validate(item{Sku: "AB\nC"}))
	})

	t.Run("Should reject an overlong sku", func(t *testing.T) {
		assert.Error(t, v.Validate(item{Sku: "ABCDEFGHIJKLMNOPQ"}))
	})
}
