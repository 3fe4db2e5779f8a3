package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = errors.New("ledger: journal entry not found")
	// ErrInvalidStatus indicates action can't proceed from the current status.
	ErrInvalidStatus = errors.New("ledger: invalid status transition")
	// ErrAccountNotFound indicates an unknown account code.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrConcurrentBalanceConflict indicates a posting lost the race on a
	// party balance twice in a row.
	ErrConcurrentBalanceConflict = errors.New("ledger: concurrent balance update conflict")
	// ErrNothingToPost indicates a posting request that produced no lines.
	ErrNothingToPost = errors.New("ledger: nothing to post")
	// ErrSourceAlreadyLinked indicates idempotency conflict on the source ref.
	ErrSourceAlreadyLinked = errors.New("ledger: source already linked")
)

// Party and product sentinels are defined here rather than in their
// domain packages so the HTTP error mapper stays a leaf dependency; the
// domain packages re-export them under their own names.
var (
	// ErrPartyNotFound indicates a stale party reference.
	ErrPartyNotFound = errors.New("parties: party not found")
	// ErrInvalidPartyKind indicates an unknown party kind.
	ErrInvalidPartyKind = errors.New("parties: invalid party kind")
	// ErrProductNotFound indicates a stale product reference.
	ErrProductNotFound = errors.New("inventory: product not found")
	// ErrNegativeStock triggered when a movement would drive quantity on
	// hand below zero and negative stock is not enabled.
	ErrNegativeStock = errors.New("inventory: negative stock not allowed")
	// ErrInvalidQuantity indicates a zero or wrongly signed quantity.
	ErrInvalidQuantity = errors.New("inventory: invalid quantity")
	// ErrInvalidUnitCost indicates a negative cost value.
	ErrInvalidUnitCost = errors.New("inventory: unit cost must be >= 0")
)

// MalformedLineError reports a line that is zero, dual-sided, negative,
// or missing its account. Malformed lines are rejected before any
// persistence.
type MalformedLineError struct {
	Index  int
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("ledger: line %d: %s", e.Index, e.Reason)
}

// UnbalancedError reports a debit/credit mismatch beyond the tolerance.
// The delta is surfaced verbatim so the caller can report which side is
// off and by how much.
type UnbalancedError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Delta returns debit minus credit.
func (e *UnbalancedError) Delta() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("ledger: entry off by %s (debit %s, credit %s)",
		e.Delta().StringFixed(2), e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

// AccountNotConfiguredError reports a required chart-of-accounts code
// missing at posting time. Callers must surface it and refuse to post;
// substituting a different account would corrupt the ledger.
type AccountNotConfiguredError struct {
	Code string
}

func (e *AccountNotConfiguredError) Error() string {
	return fmt.Sprintf("ledger: required account %s is not configured", e.Code)
}
