package shared

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckMoneyScale(t *testing.T) {
	for _, ok := range []string{"0", "10", "10.5", "10.55", "10.500", "-3.10"} {
		assert.NoError(t, CheckMoneyScale("Amount", decimal.RequireFromString(ok)), ok)
	}
	for _, bad := range []string{"0.005", "10.555", "99.9999"} {
		err := CheckMoneyScale("Amount", decimal.RequireFromString(bad))
		assert.True(t, errors.Is(err, ErrInvalidInput), bad)
		assert.Equal(t, "INVALID_INPUT", CodeOf(err))
	}
}
