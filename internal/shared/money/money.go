// Package money converts between decimal amounts and provider minor units.
package money

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FromMinor converts integer cents to a two-place decimal amount.
func FromMinor(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ToMinor converts an amount to integer cents, rounding half away from zero.
func ToMinor(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// Fixed renders an amount with exactly two decimals ("69.12").
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Format renders a display amount ("$69.12").
func Format(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// Parse accepts "69.12", "69" and similar; blank is zero.
func Parse(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// WithinCent reports whether two amounts differ by at most one cent.
func WithinCent(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(decimal.New(1, -2))
}
