package adjustments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the adjustment lifecycle. A draft has no ledger effect at
// all; approval is the single transition that produces one, and it flips
// the status in the same transaction that posts the entry.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusApproved Status = "APPROVED"
)

// Adjustment is a stock-take worksheet: counted quantities captured
// against system quantities, held as a draft until someone approves it.
type Adjustment struct {
	ID             int64      `json:"id"`
	SourceID       uuid.UUID  `json:"source_id"`
	Note           string     `json:"note"`
	Status         Status     `json:"status"`
	CreatedBy      int64      `json:"created_by"`
	JournalEntryID *int64     `json:"journal_entry_id,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Items          []Item     `json:"items,omitempty"`
}

// Item compares one product's counted stock against the system figure.
// SystemQty and UnitCost are frozen at draft creation so the worksheet
// reflects what the counter actually saw, not later postings.
type Item struct {
	ID           int64           `json:"id"`
	AdjustmentID int64           `json:"adjustment_id"`
	ProductID    int64           `json:"product_id"`
	SystemQty    decimal.Decimal `json:"system_qty"`
	ActualQty    decimal.Decimal `json:"actual_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// Delta is the signed correction: positive for surplus, negative for
// deficit.
func (i Item) Delta() decimal.Decimal {
	return i.ActualQty.Sub(i.SystemQty)
}
