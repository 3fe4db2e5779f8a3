package journal

import (
	"context"

	"github.com/meridian-erp/meridian-erp/internal/money"
)

// IntegrityReport summarises a full-ledger consistency scan.
type IntegrityReport struct {
	TotalDebit  string       `json:"total_debit"`
	TotalCredit string       `json:"total_credit"`
	Balanced    bool         `json:"balanced"`
	PartyDrifts []PartyDrift `json:"party_drifts,omitempty"`
}

// IntegrityChecker replays the ledger to verify the invariants postings
// must preserve: total debits equal total credits, and every stored party
// balance equals the fold of that party's lines from zero.
type IntegrityChecker struct {
	repo Repository
}

// NewIntegrityChecker builds the checker.
func NewIntegrityChecker(repo Repository) *IntegrityChecker {
	return &IntegrityChecker{repo: repo}
}

// Check runs the scan against a committed snapshot.
func (c *IntegrityChecker) Check(ctx context.Context) (IntegrityReport, error) {
	totals, err := c.repo.LedgerTotals(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}
	drifts, err := c.repo.ListPartyDrifts(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}
	return IntegrityReport{
		TotalDebit:  totals.Debit.StringFixed(2),
		TotalCredit: totals.Credit.StringFixed(2),
		Balanced:    money.WithinEpsilon(totals.Debit, totals.Credit),
		PartyDrifts: drifts,
	}, nil
}

// Healthy reports whether the scan found nothing wrong.
func (r IntegrityReport) Healthy() bool {
	return r.Balanced && len(r.PartyDrifts) == 0
}
