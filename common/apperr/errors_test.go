package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationf(t *testing.T) {
	err := Validationf("field %s is required", "state")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "field state is required")
}

func TestNotFoundf(t *testing.T) {
	err := NotFoundf("reservation %d", 42)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "reservation 42")
}

func TestRetriable(t *testing.T) {
	assert.True(t, Retriable(ErrConcurrencyConflict))
	assert.True(t, Retriable(fmt.Errorf("add to queue: %w", ErrConcurrencyConflict)))

	assert.False(t, Retriable(ErrValidation))
	assert.False(t, Retriable(ErrInvalidStateTransition))
	assert.False(t, Retriable(errors.New("something else")))
	assert.False(t, Retriable(nil))
}
