package calc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DiscountKind says how a discount value is read.
type DiscountKind string

const (
	DiscountFixed   DiscountKind = "fixed"
	DiscountPercent DiscountKind = "percent"
)

// Discount is one discount source applied to a cart (a coupon, a manual
// cashier discount).
type Discount struct {
	Source string
	Kind   DiscountKind
	Value  decimal.Decimal
}

var ErrInvalidDiscount = errors.New("calc: invalid discount")

// ResolveDiscount folds every discount source into the single amount
// CalculateTotals expects. Percent discounts are taken on the undiscounted
// subtotal, so sources never compound. The sum may exceed the subtotal;
// CalculateTotals clamps it.
func ResolveDiscount(subtotal decimal.Decimal, discounts []Discount) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, d := range discounts {
		if d.Value.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: source %d (%s) is negative", ErrInvalidDiscount, i, d.Source)
		}
		switch d.Kind {
		case DiscountFixed:
			total = total.Add(d.Value)
		case DiscountPercent:
			if d.Value.GreaterThan(hundred) {
				return decimal.Zero, fmt.Errorf("%w: source %d (%s) above 100%%", ErrInvalidDiscount, i, d.Source)
			}
			total = total.Add(subtotal.Mul(d.Value).Div(hundred))
		default:
			return decimal.Zero, fmt.Errorf("%w: unknown kind %q", ErrInvalidDiscount, d.Kind)
		}
	}
	return total, nil
}

// Subtotal returns Σ basePrice × quantity; used to resolve percent discounts
// before the full calculation runs.
func Subtotal(lines []Line) decimal.Decimal {
	s := decimal.Zero
	for _, l := range lines {
		s = s.Add(l.BasePrice.Mul(l.Quantity))
	}
	return s
}
