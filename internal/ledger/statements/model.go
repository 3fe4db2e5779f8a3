package statements

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountBalance models a general ledger account with aggregated posted
// totals over the statement period.
type AccountBalance struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Opening decimal.Decimal `json:"opening"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
}

// Closing computes the closing balance for the account on the debit-normal
// convention. Credit-normal accounts close negative here; the statement
// builders flip the sign where presentation requires it.
func (a AccountBalance) Closing() decimal.Decimal {
	return a.Opening.Add(a.Debit).Sub(a.Credit)
}

// GroupKey returns a key used for grouping trial balance rows.
func (a AccountBalance) GroupKey() string {
	if idx := strings.Index(a.Code, "."); idx > 0 {
		return a.Code[:idx]
	}
	if len(a.Code) >= 2 {
		return a.Code[:2]
	}
	return a.Code
}

func isCOGS(code string) bool {
	return strings.HasPrefix(code, "51")
}
