package calc

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"cashdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownDenomination = errors.New("calc: unknown denomination")
	ErrNegativeCount       = errors.New("calc: negative denomination count")
)

var maxCount = decimal.NewFromInt(math.MaxInt)

// Breakdown is a suggested cash count. Remainder is what the denomination
// set could not express; it is never silently dropped.
type Breakdown struct {
	Counts    model.DenominationCounts
	Remainder decimal.Decimal
}

// DenominationTotal returns Σ value × count over a counted breakdown.
func DenominationTotal(counts model.DenominationCounts, denominations []model.Denomination) (decimal.Decimal, error) {
	byID := make(map[uuid.UUID]decimal.Decimal, len(denominations))
	for _, d := range denominations {
		byID[d.ID] = d.Value
	}

	total := decimal.Zero
	for id, n := range counts {
		if n < 0 {
			return decimal.Zero, fmt.Errorf("%w: %s has %d", ErrNegativeCount, id, n)
		}
		value, ok := byID[id]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownDenomination, id)
		}
		total = total.Add(value.Mul(decimal.NewFromInt(int64(n))))
	}
	return total, nil
}

// SuggestBreakdown allocates amount greedily, largest denomination first.
// It performs one division per denomination, so it is bounded by the size
// of the set rather than by the amount. Inactive and non-positive
// denominations are ignored. The input slice is not modified.
func SuggestBreakdown(amount decimal.Decimal, denominations []model.Denomination) (Breakdown, error) {
	if amount.IsNegative() {
		return Breakdown{}, fmt.Errorf("%w: amount %s", ErrNegativeInput, amount)
	}

	usable := make([]model.Denomination, 0, len(denominations))
	for _, d := range denominations {
		if d.Active && d.Value.IsPositive() {
			usable = append(usable, d)
		}
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].Value.GreaterThan(usable[j].Value)
	})

	b := Breakdown{Counts: model.DenominationCounts{}, Remainder: amount}
	for _, d := range usable {
		n := b.Remainder.Div(d.Value).Floor()
		if !n.IsPositive() {
			continue
		}
		// A count must fit in an int; whatever it cannot express stays in
		// the remainder for the smaller denominations.
		if n.GreaterThan(maxCount) {
			n = maxCount
		}
		b.Counts[d.ID] = int(n.IntPart())
		b.Remainder = b.Remainder.Sub(d.Value.Mul(n))
	}
	return b, nil
}
