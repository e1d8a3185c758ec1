package response

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type query struct {
	Budget   *float64 `validate:"required,gte=0"`
	Currency string   `validate:"required,len=3,alpha"`
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	negative := -1.0

	testCases := []struct {
		name     string
		in       query
		expected string
	}{
		{
			name:     "missing both",
			in:       query{},
			expected: "field Budget is a required field, field Currency is a required field",
		},
		{
			name:     "negative budget",
			in:       query{Budget: &negative, Currency: "USD"},
			expected: "field Budget must not be negative",
		},
		{
			name:     "bad currency",
			in:       query{Budget: new(float64), Currency: "US1"},
			expected: "field Currency is not a valid currency code",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := validator.New().Struct(tc.in)
			require.Error(t, err)

			resp := ValidationError(err.(validator.ValidationErrors))
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tc.expected, resp.Error)
		})
	}
}

func TestOKAndError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Response{Status: "OK"}, OK())
	assert.Equal(t, Response{Status: "Error", Error: "boom"}, Error("boom"))
}
