package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"validation error",
			validationErrorf("order size must be positive"),
			"ValidationError: order size must be positive",
		},
		{
			"numeric parse error",
			&NumericParseError{Field: "size"},
			"NumericParseError: invalid numeric value for size",
		},
		{
			"dispatch error",
			dispatchError("order", errors.New("connection refused")),
			"DispatchError: order dispatch failed: connection refused",
		},
		{
			"wrapped validation error",
			fmt.Errorf("placing order: %w", validationErrorf("bad input")),
			"ValidationError: bad input",
		},
		{
			"plain error",
			errors.New("something else"),
			"Error: something else",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.err))
		})
	}
}

func TestNumericParseErrorOmitsValue(t *testing.T) {
	cause := errors.New(`strconv.ParseFloat: parsing "secret-value": invalid syntax`)
	err := &NumericParseError{Field: "price", cause: cause}

	// The message names the field only; the cause stays unwrappable for
	// callers but never renders in the error string
	assert.Equal(t, "invalid numeric value for price", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestDispatchErrorUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := dispatchError("meta", cause)
	assert.ErrorIs(t, err, cause)
}
