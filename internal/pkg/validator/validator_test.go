package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	type input struct {
		Name    string `validate:"required"`
		Amount  int    `validate:"gte=0"`
		Comment string
	}

	t.Run("passes a valid struct", func(t *testing.T) {
		err := Validate(input{Name: "coin", Amount: 1})
		assert.NoError(t, err)
	})

	t.Run("fails with ErrValidationFailed on missing required field", func(t *testing.T) {
		err := Validate(input{Amount: 1})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("reports every rejected field", func(t *testing.T) {
		err := Validate(input{Amount: -1})

		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "Name")
		assert.Contains(t, err.Error(), "Amount")
	})
}
