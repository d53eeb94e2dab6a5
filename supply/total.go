package supply

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// TOTAL / CURRENCY COMPUTATION
// =============================================================================

// RoundCents rounds to 2 decimal places, half away from zero.
// Applied at the line level AND at every accumulation step so that
// display rounding and sum rounding cannot drift apart.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// parseAmount converts a flex field to a decimal, treating anything
// unparseable as zero. A wrong zero is less disruptive in a report than
// a crashed render pass.
func parseAmount(f FlexNumber) decimal.Decimal {
	if f.Raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(f.Raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// EffectiveTotal returns the line's monetary total rounded to cents.
//
// The stored total wins when present and strictly positive; otherwise the
// total is quantity x unit price. Both paths re-round to cents.
func EffectiveTotal(l SupplyLine) decimal.Decimal {
	if stored := parseAmount(l.Total); stored.IsPositive() {
		return RoundCents(stored)
	}
	qty := parseAmount(l.Quantity)
	price := parseAmount(l.UnitPrice)
	return RoundCents(qty.Mul(price))
}
