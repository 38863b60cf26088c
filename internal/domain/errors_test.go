package domain

import (
	"errors"
	"fmt"
	"testing"

	"rentalhub/internal/database"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err      error
		kind     Kind
		sentinel error
		message  string
	}{
		{NotFound("booking", 7), KindNotFound, ErrNotFound, "booking 7 not found"},
		{Validation("rating must be between %d and %d", 1, 5), KindValidation, ErrValidation, "rating must be between 1 and 5"},
		{Auth("invalid email or password"), KindAuth, ErrAuth, "invalid email or password"},
		{Conflict("retry", nil), KindConflict, ErrConflict, "retry"},
	}

	for _, tt := range tests {
		wrapped := fmt.Errorf("handler: %w", tt.err)
		assert.Equal(t, tt.kind, KindOf(wrapped))
		assert.ErrorIs(t, wrapped, tt.sentinel)
		assert.Equal(t, tt.message, MessageOf(wrapped))
	}

	assert.False(t, errors.Is(NotFound("x", 1), ErrValidation))
}

func TestKindOf_Infrastructure(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))

	conflict := fmt.Errorf("add: %w", database.ErrConcurrentModification)
	assert.Equal(t, KindConflict, KindOf(conflict))

	cause := errors.New("disk full")
	assert.Equal(t, KindInternal, KindOf(cause))
	assert.Equal(t, "internal error", MessageOf(cause))

	internal := Internal("failed to save", cause)
	assert.ErrorIs(t, internal, cause)
	assert.ErrorIs(t, internal, ErrInternal)
	assert.Equal(t, "failed to save: disk full", internal.Error())
}
