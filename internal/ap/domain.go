package ap

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceItemInput is one received product line on a purchase invoice.
// UnitCost is the actual purchase price and feeds the moving average.
type InvoiceItemInput struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
}

// InvoiceInput posts a purchase invoice.
type InvoiceInput struct {
	SupplierID int64
	Date       time.Time
	Memo       string
	ActorID    int64
	Items      []InvoiceItemInput
}

// PaymentMethod selects the settlement account.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentBank PaymentMethod = "BANK"
)

// PaymentInput settles part of a supplier's balance.
type PaymentInput struct {
	SupplierID int64
	Amount     decimal.Decimal
	Method     PaymentMethod
	Date       time.Time
	Memo       string
	ActorID    int64
}

// ReturnItemInput is one product line sent back to the supplier.
type ReturnItemInput struct {
	ProductID int64
	Quantity  decimal.Decimal
}

// ReturnInput posts a purchase return. Returned stock leaves at the
// current average cost and the supplier's balance shrinks by the same
// value.
type ReturnInput struct {
	SupplierID int64
	Date       time.Time
	Memo       string
	ActorID    int64
	Items      []ReturnItemInput
}

// ErrNoItems indicates an invoice or return with an empty item list.
var ErrNoItems = errors.New("ap: at least one item is required")

// ErrInvalidAmount indicates a non-positive payment amount.
var ErrInvalidAmount = errors.New("ap: amount must be positive")

// ErrInvalidMethod indicates an unknown payment method.
var ErrInvalidMethod = errors.New("ap: invalid payment method")
