package shared

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places every stored amount and
// percentage carries
const MoneyPlaces = 2

// CheckMoneyScale rejects values with more than two decimal places. Such
// values are never rounded on the way in, since the stored copy must
// reproduce exactly what was priced.
func CheckMoneyScale(field string, d decimal.Decimal) error {
	if d.Exponent() >= -MoneyPlaces {
		return nil
	}
	// 1.500 has exponent -3 but is representable; only real extra digits count.
	if d.Equal(d.Truncate(MoneyPlaces)) {
		return nil
	}
	return NewDomainError("INVALID_INPUT", fmt.Sprintf("%s %s has more than %d decimal places", field, d.String(), MoneyPlaces))
}
