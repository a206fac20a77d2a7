// Package calc holds the pure money math of the checkout and the cash drawer:
// order totals with proportional discounts, session summaries and
// denomination counting. Nothing here touches storage or configuration;
// every input arrives as an argument.
package calc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeInput is returned when a price, quantity, rate, discount or
	// shipping amount is below zero.
	ErrNegativeInput = errors.New("calc: negative input")

	hundred = decimal.NewFromInt(100)
)

// Line is one priced cart line.
type Line struct {
	BasePrice        decimal.Decimal
	Quantity         decimal.Decimal
	TaxRatePercent   decimal.Decimal
	PriceIncludesTax bool
}

// LineTotals is the computed breakdown of a single line.
type LineTotals struct {
	Gross            decimal.Decimal // base price × quantity
	EffectivePrice   decimal.Decimal // gross × discount ratio
	Tax              decimal.Decimal
	TaxRatePercent   decimal.Decimal
	PriceIncludesTax bool
}

// Totals is the full breakdown of an order. Values are unrounded until
// Rounded is called.
type Totals struct {
	Subtotal              decimal.Decimal
	Discount              decimal.Decimal // discount actually applied, never above Subtotal
	SubtotalAfterDiscount decimal.Decimal
	DiscountRatio         decimal.Decimal
	TaxTotal              decimal.Decimal
	TaxToAdd              decimal.Decimal
	Shipping              decimal.Decimal
	GrandTotal            decimal.Decimal
	Lines                 []LineTotals
}

// CalculateTotals prices a cart.
//
// The discount is applied cart-wide as a ratio of the subtotal and the same
// ratio scales every line, whatever that line's tax mode or rate. Tax on
// inclusive lines is extracted from the effective price and is already part
// of the subtotal, so only exclusive-line tax is added to the grand total.
// A discount at or above the subtotal clamps the ratio to zero and the grand
// total to the shipping amount.
func CalculateTotals(lines []Line, discount, shipping decimal.Decimal) (Totals, error) {
	if discount.IsNegative() {
		return Totals{}, fmt.Errorf("%w: discount %s", ErrNegativeInput, discount)
	}
	if shipping.IsNegative() {
		return Totals{}, fmt.Errorf("%w: shipping %s", ErrNegativeInput, shipping)
	}

	subtotal := decimal.Zero
	gross := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		switch {
		case l.BasePrice.IsNegative():
			return Totals{}, fmt.Errorf("%w: line %d price %s", ErrNegativeInput, i, l.BasePrice)
		case l.Quantity.IsNegative():
			return Totals{}, fmt.Errorf("%w: line %d quantity %s", ErrNegativeInput, i, l.Quantity)
		case l.TaxRatePercent.IsNegative():
			return Totals{}, fmt.Errorf("%w: line %d tax rate %s", ErrNegativeInput, i, l.TaxRatePercent)
		}
		gross[i] = l.BasePrice.Mul(l.Quantity)
		subtotal = subtotal.Add(gross[i])
	}

	afterDiscount := decimal.Max(decimal.Zero, subtotal.Sub(discount))
	ratio := decimal.Zero
	if subtotal.IsPositive() {
		ratio = afterDiscount.Div(subtotal)
	}

	t := Totals{
		Subtotal:              subtotal,
		Discount:              subtotal.Sub(afterDiscount),
		SubtotalAfterDiscount: afterDiscount,
		DiscountRatio:         ratio,
		TaxTotal:              decimal.Zero,
		TaxToAdd:              decimal.Zero,
		Shipping:              shipping,
		Lines:                 make([]LineTotals, len(lines)),
	}

	for i, l := range lines {
		effective := gross[i].Mul(ratio)
		tax := lineTax(effective, l.TaxRatePercent, l.PriceIncludesTax)
		t.TaxTotal = t.TaxTotal.Add(tax)
		if !l.PriceIncludesTax {
			t.TaxToAdd = t.TaxToAdd.Add(tax)
		}
		t.Lines[i] = LineTotals{
			Gross:            gross[i],
			EffectivePrice:   effective,
			Tax:              tax,
			TaxRatePercent:   l.TaxRatePercent,
			PriceIncludesTax: l.PriceIncludesTax,
		}
	}

	t.GrandTotal = afterDiscount.Add(t.TaxToAdd).Add(shipping)
	return t, nil
}

func lineTax(effective, ratePercent decimal.Decimal, inclusive bool) decimal.Decimal {
	if ratePercent.IsZero() || effective.IsZero() {
		return decimal.Zero
	}
	if inclusive {
		net := effective.Div(decimal.NewFromInt(1).Add(ratePercent.Div(hundred)))
		return effective.Sub(net)
	}
	return effective.Mul(ratePercent).Div(hundred)
}

// Rounded returns a copy with every monetary value rounded half-up to the
// currency's minor unit. The discount ratio is kept at four places.
func (t Totals) Rounded(places int32) Totals {
	r := Totals{
		Subtotal:              t.Subtotal.Round(places),
		Discount:              t.Discount.Round(places),
		SubtotalAfterDiscount: t.SubtotalAfterDiscount.Round(places),
		DiscountRatio:         t.DiscountRatio.Round(4),
		TaxTotal:              t.TaxTotal.Round(places),
		TaxToAdd:              t.TaxToAdd.Round(places),
		Shipping:              t.Shipping.Round(places),
		GrandTotal:            t.GrandTotal.Round(places),
		Lines:                 make([]LineTotals, len(t.Lines)),
	}
	for i, l := range t.Lines {
		r.Lines[i] = LineTotals{
			Gross:            l.Gross.Round(places),
			EffectivePrice:   l.EffectivePrice.Round(places),
			Tax:              l.Tax.Round(places),
			TaxRatePercent:   l.TaxRatePercent,
			PriceIncludesTax: l.PriceIncludesTax,
		}
	}
	return r
}
