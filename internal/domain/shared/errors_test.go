package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches by code regardless of message", func(t *testing.T) {
		err := NewDomainError(CodeNotFound, "No product found for productId: 13")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrInvalidInput))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("lookup failed: %w", NewDomainError(CodeConcurrencyConflict, "stale"))
		assert.True(t, errors.Is(err, ErrConcurrencyConflict))
	})

	t.Run("does not match plain errors", func(t *testing.T) {
		assert.False(t, errors.Is(errors.New("boom"), ErrNotFound))
	})
}

func TestWrapDomainError(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapDomainError(CodeUnavailable, "product service unavailable", cause)

	assert.Equal(t, "product service unavailable", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidInput, CodeOf(fmt.Errorf("x: %w", NewDomainErrorf(CodeInvalidInput, "bad %d", 1))))
	assert.Empty(t, CodeOf(errors.New("plain")))
	assert.Empty(t, CodeOf(nil))
}

func TestValidateProductID(t *testing.T) {
	tests := []struct {
		name    string
		id      int
		wantErr bool
	}{
		{"positive", 1, false},
		{"large", 1_000_000, false},
		{"zero", 0, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProductID(tt.id)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Equal(t, fmt.Sprintf("Invalid productId: %d", tt.id), err.Error())
		})
	}
}
