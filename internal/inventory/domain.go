package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// MovementType enumerates supported inventory movements.
type MovementType string

const (
	MovementOpeningBalance MovementType = "OPENING_BALANCE"
	MovementPurchase       MovementType = "PURCHASE"
	MovementSale           MovementType = "SALE"
	MovementAdjustmentIn   MovementType = "ADJUSTMENT_IN"
	MovementAdjustmentOut  MovementType = "ADJUSTMENT_OUT"
	MovementReturnIn       MovementType = "RETURN_IN"
	MovementReturnOut      MovementType = "RETURN_OUT"
)

// CountsTowardAverage reports whether a movement redefines the moving
// average cost. Only incoming stock at a known purchase price does; sales,
// returns and adjustments consume the average without restating it.
func (t MovementType) CountsTowardAverage() bool {
	return t == MovementOpeningBalance || t == MovementPurchase
}

// Valid reports whether the type is one of the known values.
func (t MovementType) Valid() bool {
	switch t {
	case MovementOpeningBalance, MovementPurchase, MovementSale,
		MovementAdjustmentIn, MovementAdjustmentOut,
		MovementReturnIn, MovementReturnOut:
		return true
	}
	return false
}

// Movement is one signed stock mutation for a product. Quantity and
// TotalCost share the sign: an outbound movement carries both negative.
type Movement struct {
	ID             int64           `json:"id"`
	ProductID      int64           `json:"product_id"`
	JournalEntryID int64           `json:"journal_entry_id"`
	Type           MovementType    `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	PostedAt       time.Time       `json:"posted_at"`
}

// MovementInput describes a movement to apply inside a posting transaction.
type MovementInput struct {
	ProductID int64
	Type      MovementType
	Quantity  decimal.Decimal
	TotalCost decimal.Decimal
}

// Product carries derived stock state alongside catalogue fields.
// QtyOnHand equals the signed sum of all movement quantities; ReceivedQty
// and ReceivedCost accumulate only average-bearing movements, so the
// average purchase price is ReceivedCost/ReceivedQty. Both are maintained
// inside posting transactions and verified against the movement log by the
// background audit job.
type Product struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Brand        *string         `json:"brand,omitempty"`
	Model        *string         `json:"model,omitempty"`
	QtyOnHand    decimal.Decimal `json:"qty_on_hand"`
	ReceivedQty  decimal.Decimal `json:"-"`
	ReceivedCost decimal.Decimal `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AverageCost returns the moving weighted-average unit cost, zero when no
// average-bearing stock has been received.
func (p Product) AverageCost() decimal.Decimal {
	if p.ReceivedQty.IsZero() {
		return decimal.Zero
	}
	return p.ReceivedCost.Div(p.ReceivedQty)
}

// AverageCostOf computes the average cost from a movement log. It is the
// replay form of Product.AverageCost used by tests and the audit job.
func AverageCostOf(movements []Movement) decimal.Decimal {
	qty := decimal.Zero
	cost := decimal.Zero
	for _, m := range movements {
		if !m.Type.CountsTowardAverage() {
			continue
		}
		qty = qty.Add(m.Quantity)
		cost = cost.Add(m.TotalCost)
	}
	if qty.IsZero() {
		return decimal.Zero
	}
	return cost.Div(qty)
}

// QtyOnHandOf computes quantity on hand by replaying the movement log.
func QtyOnHandOf(movements []Movement) decimal.Decimal {
	qty := decimal.Zero
	for _, m := range movements {
		qty = qty.Add(m.Quantity)
	}
	return qty
}

// ErrNegativeStock triggered when a movement would drive quantity on hand
// below zero and negative stock is not enabled.
var ErrNegativeStock = shared.ErrNegativeStock

// ErrInvalidQuantity indicates a zero or wrongly signed quantity.
var ErrInvalidQuantity = shared.ErrInvalidQuantity

// ErrInvalidUnitCost indicates a negative cost value.
var ErrInvalidUnitCost = shared.ErrInvalidUnitCost

// ErrProductNotFound indicates a stale product reference.
var ErrProductNotFound = shared.ErrProductNotFound
