// Package money centralises decimal arithmetic conventions for the ledger.
// All monetary amounts are exact decimals with two fractional digits at the
// boundary; comparisons never go through binary floating point.
package money

import "github.com/shopspring/decimal"

// Epsilon is the maximum tolerated debit/credit imbalance on a journal
// entry. Amounts themselves are exact; the tolerance only absorbs rounding
// introduced by tax and unit-cost computations.
var Epsilon = decimal.NewFromFloat(0.001)

// Round2 normalises an amount to two fractional digits.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// WithinEpsilon reports whether two totals agree within Epsilon.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// SafeDiv divides num by den, returning zero when den is zero.
func SafeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}
