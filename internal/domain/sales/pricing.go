package sales

import (
	"fmt"

	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the rounding precision for every monetary amount
const CurrencyPlaces = shared.MoneyPlaces

var hundred = decimal.NewFromInt(100)

// round2 rounds half away from zero to currency precision
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// ValidateDiscountPercent rejects values outside [0,100] or with more than
// two decimal places. Out-of-range values are never clamped.
func ValidateDiscountPercent(d decimal.Decimal) error {
	if d.IsNegative() || d.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Discount percent %s is outside 0-100", d.String()))
	}
	return shared.CheckMoneyScale("Discount percent", d)
}

// LineTotal computes round2(price * qty * (1 - discount/100))
func LineTotal(price decimal.Decimal, qty int, discountPercent decimal.Decimal) (decimal.Decimal, error) {
	if qty < 1 {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT", "Quantity must be at least 1")
	}
	if price.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT", "Price cannot be negative")
	}
	if err := shared.CheckMoneyScale("Price", price); err != nil {
		return decimal.Zero, err
	}
	if err := ValidateDiscountPercent(discountPercent); err != nil {
		return decimal.Zero, err
	}

	gross := price.Mul(decimal.NewFromInt(int64(qty)))
	// Shift(-2) divides by 100 exactly, keeping the result free of
	// division-precision artifacts before the final rounding.
	net := gross.Mul(hundred.Sub(discountPercent)).Shift(-2)
	return round2(net), nil
}

// PriceLine fills in LineTotal from the line's frozen price, quantity and discount
func PriceLine(line *SaleLine) error {
	total, err := LineTotal(line.Price, line.Quantity, line.DiscountPercent)
	if err != nil {
		return err
	}
	line.LineTotal = total
	return nil
}

// BillTotals returns subtotal = sum(lineTotals) and total = subtotal - discount + tax
func BillTotals(lineTotals []decimal.Decimal, discount, tax decimal.Decimal) (subtotal, total decimal.Decimal, err error) {
	if discount.IsNegative() {
		return decimal.Zero, decimal.Zero, shared.NewDomainError("INVALID_INPUT", "Bill discount cannot be negative")
	}
	if tax.IsNegative() {
		return decimal.Zero, decimal.Zero, shared.NewDomainError("INVALID_INPUT", "Tax cannot be negative")
	}
	if err := shared.CheckMoneyScale("Bill discount", discount); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := shared.CheckMoneyScale("Tax", tax); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	subtotal = decimal.Zero
	for _, lt := range lineTotals {
		subtotal = subtotal.Add(lt)
	}
	subtotal = round2(subtotal)
	total = round2(subtotal.Sub(discount).Add(tax))
	if total.IsNegative() {
		return decimal.Zero, decimal.Zero, shared.NewDomainError("INVALID_INPUT", "Bill discount exceeds subtotal plus tax")
	}
	return subtotal, total, nil
}

// VerifySale recomputes every line and the bill totals from the stored
// inputs and fails if anything differs from what the sale carries.
func VerifySale(s *Sale) error {
	lineTotals := make([]decimal.Decimal, len(s.Lines))
	for i, l := range s.Lines {
		want, err := LineTotal(l.Price, l.Quantity, l.DiscountPercent)
		if err != nil {
			return &LineError{Index: i, MedicineID: l.MedicineID, Err: err}
		}
		if !want.Equal(l.LineTotal) {
			return &LineError{Index: i, MedicineID: l.MedicineID, Err: shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("line total %s does not match recomputed %s", l.LineTotal, want))}
		}
		lineTotals[i] = want
	}

	subtotal, total, err := BillTotals(lineTotals, s.Discount, s.Tax)
	if err != nil {
		return err
	}
	if !subtotal.Equal(s.Subtotal) || !total.Equal(s.Total) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("bill totals %s/%s do not match recomputed %s/%s", s.Subtotal, s.Total, subtotal, total))
	}
	return nil
}
