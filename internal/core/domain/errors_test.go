package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrPathEscape", ErrPathEscape},
		{"ErrOpen", ErrOpen},
		{"ErrIO", ErrIO},
		{"ErrEmptyQuery", ErrEmptyQuery},
		{"ErrQueryTooLong", ErrQueryTooLong},
		{"ErrInvalidFormat", ErrInvalidFormat},
		{"ErrSearchUnavailable", ErrSearchUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(fmt.Errorf("entry A/Foo: %w", ErrNotFound), ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrPathEscape))
}

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"empty query", ErrEmptyQuery, true},
		{"wrapped too long", fmt.Errorf("search: %w", ErrQueryTooLong), true},
		{"invalid input", ErrInvalidInput, true},
		{"invalid format", ErrInvalidFormat, true},
		{"path escape", ErrPathEscape, true},
		{"not found", ErrNotFound, false},
		{"open", ErrOpen, false},
		{"unrelated", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidationError(tt.err))
		})
	}
}
