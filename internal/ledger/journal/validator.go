package journal

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/money"
)

// Totals carries the validated debit and credit sums for persistence.
type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// ValidateLines verifies a proposed entry is balanced and well-formed:
// at least two lines, every amount non-negative, and exactly one nonzero
// side per line. On success it returns the two totals for persistence.
func ValidateLines(lines []LineInput) (Totals, error) {
	if len(lines) < 2 {
		return Totals{}, shared.ErrTooFewLines
	}
	debit := decimal.Zero
	credit := decimal.Zero
	for idx, line := range lines {
		if line.AccountID == 0 {
			return Totals{}, &shared.MalformedLineError{Index: idx, Reason: "missing account"}
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return Totals{}, &shared.MalformedLineError{Index: idx, Reason: "negative amount"}
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return Totals{}, &shared.MalformedLineError{Index: idx, Reason: "cannot be both debit and credit"}
		}
		if line.Debit.IsZero() && line.Credit.IsZero() {
			return Totals{}, &shared.MalformedLineError{Index: idx, Reason: "line has no amount"}
		}
		if line.PartyKind != nil && !line.PartyKind.Valid() {
			return Totals{}, &shared.MalformedLineError{Index: idx, Reason: "invalid party kind"}
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !money.WithinEpsilon(debit, credit) {
		return Totals{}, &shared.UnbalancedError{Debit: debit, Credit: credit}
	}
	return Totals{Debit: debit, Credit: credit}, nil
}
