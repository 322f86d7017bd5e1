package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  New(CodeInternal, "something broke"),
			want: "something broke",
		},
		{
			name: "with cause",
			err:  Wrap(fmt.Errorf("disk full"), CodeInternal, "write failed"),
			want: "write failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(cause, CodeParse, "parse failed")

	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewValidationError("threshold", "must be positive"))

	assert.True(t, errors.Is(err, New(CodeValidation, "")))
	assert.False(t, errors.Is(err, New(CodeParse, "")))
}

func TestNewValidationError_CarriesField(t *testing.T) {
	err := NewValidationError("fuzzy_distance", "must be non-negative")

	require.NotNil(t, err.Details)
	detail, ok := err.Details.(ValidationDetail)
	require.True(t, ok)
	assert.Equal(t, "fuzzy_distance", detail.Field)
}
