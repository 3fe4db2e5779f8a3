package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/parties"
)

// LineInput describes a journal line for a posting request.
type LineInput struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	PartyKind *parties.Kind
	PartyID   *int64
}

// PartyEffect is a signed delta to apply to a party's running balance as
// the side effect of the posting. Positive means the customer owes more /
// the business owes the supplier more.
type PartyEffect struct {
	Kind    parties.Kind
	PartyID int64
	Delta   decimal.Decimal
}

// PostingInput groups everything committed in one atomic unit: the entry,
// its lines, party balance deltas, and inventory movements.
type PostingInput struct {
	Description  string
	Date         time.Time
	SourceModule string
	SourceID     uuid.UUID
	PostedBy     int64
	Lines        []LineInput
	PartyEffects []PartyEffect
	Movements    []inventory.MovementInput
}

// ReverseInput wraps parameters for reversal.
type ReverseInput struct {
	EntryID int64
	ActorID int64
	Memo    string
}
