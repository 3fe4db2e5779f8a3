package ar

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceItemInput is one product line on a sales invoice.
type InvoiceItemInput struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// InvoiceInput creates a posted sales invoice. There is no draft stage:
// an invoice exists only as its journal entry.
type InvoiceInput struct {
	CustomerID int64
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

// PaymentInput records a customer receipt against their balance.
type PaymentInput struct {
	CustomerID int64
	Amount     decimal.Decimal
	Method     PaymentMethod
	Date       time.Time
	Memo       string
	ActorID    int64
}

// ReturnItemInput is one returned product line.
type ReturnItemInput struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// ReturnInput posts a sales return: goods come back to stock and the
// customer's balance is reduced.
type ReturnInput struct {
	CustomerID int64
	Date       time.Time
	Memo       string
	ActorID    int64
	Items      []ReturnItemInput
}

// ErrNoItems indicates an invoice or return with an empty item list.
var ErrNoItems = errors.New("ar: at least one item is required")

// ErrInvalidAmount indicates a non-positive payment amount.
var ErrInvalidAmount = errors.New("ar: amount must be positive")

// ErrInvalidMethod indicates an unknown payment method.
var ErrInvalidMethod = errors.New("ar: invalid payment method")
