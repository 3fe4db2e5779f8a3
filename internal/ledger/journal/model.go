package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates journal lifecycle values. Entries are persisted only
// at posting time; a draft exists in memory while it is validated.
// Cancellation never mutates history: the entry is marked cancelled and a
// reversing entry carries the mirrored lines.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPosted    Status = "POSTED"
	StatusCancelled Status = "CANCELLED"
)

// Entry captures posting metadata. For any posted entry TotalDebit equals
// TotalCredit and both equal the sums over its lines.
type Entry struct {
	ID           int64           `json:"id"`
	Number       int64           `json:"number"`
	Description  string          `json:"description"`
	Date         time.Time       `json:"date"`
	SourceModule string          `json:"source_module"`
	SourceID     uuid.UUID       `json:"source_id"`
	TotalDebit   decimal.Decimal `json:"total_debit"`
	TotalCredit  decimal.Decimal `json:"total_credit"`
	Status       Status          `json:"status"`
	ReversedBy   *int64          `json:"reversed_by,omitempty"`
	PostedBy     int64           `json:"posted_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Lines        []Line          `json:"lines,omitempty"`
}

// Line stores a debit or credit amount for an account. Exactly one side
// is nonzero. Party dimensions attribute the line to a customer or
// supplier statement.
type Line struct {
	ID        int64           `json:"id"`
	EntryID   int64           `json:"entry_id"`
	AccountID int64           `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	PartyKind *string         `json:"party_kind,omitempty"`
	PartyID   *int64          `json:"party_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AccountLine is a line joined with its entry metadata, ordered for
// running-balance projection.
type AccountLine struct {
	Date        time.Time       `json:"date"`
	EntryID     int64           `json:"entry_id"`
	EntryNumber int64           `json:"entry_number"`
	LineID      int64           `json:"line_id"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}
