package parties

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// Kind distinguishes the two party ledgers.
type Kind string

const (
	KindCustomer Kind = "CUSTOMER"
	KindSupplier Kind = "SUPPLIER"
)

// Valid reports whether the kind is one of the known values.
func (k Kind) Valid() bool {
	return k == KindCustomer || k == KindSupplier
}

// Party is a customer or supplier with an independently tracked running
// balance. For a customer a positive balance means they owe the business;
// for a supplier it means the business owes them. The balance is mutated
// only inside a journal posting transaction and must always be
// reconstructable by replaying the party's lines from zero.
type Party struct {
	ID        int64           `json:"id"`
	Kind      Kind            `json:"kind"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StatementLine is one posted journal line attributed to a party.
type StatementLine struct {
	Date        time.Time       `json:"date"`
	EntryID     int64           `json:"entry_id"`
	EntryNumber int64           `json:"entry_number"`
	LineID      int64           `json:"line_id"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// ErrPartyNotFound indicates the caller passed a stale party reference.
var ErrPartyNotFound = shared.ErrPartyNotFound

// ErrInvalidKind indicates an unknown party kind.
var ErrInvalidKind = shared.ErrInvalidPartyKind
