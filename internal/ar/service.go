package ar

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/journal"
	"github.com/meridian-erp/meridian-erp/internal/money"
	"github.com/meridian-erp/meridian-erp/internal/parties"
)

// PosterPort posts journal entries.
type PosterPort interface {
	Post(ctx context.Context, in journal.PostingInput) (journal.Entry, error)
}

// PartiesPort resolves customers.
type PartiesPort interface {
	Get(ctx context.Context, kind parties.Kind, id int64) (parties.Party, error)
}

// AccountsPort supplies the chart of accounts snapshot.
type AccountsPort interface {
	Directory(ctx context.Context) (*accounts.Directory, error)
}

// CostPort answers the moving average cost question at posting time.
type CostPort interface {
	AverageCost(ctx context.Context, productID int64) (decimal.Decimal, error)
}

// Config groups AR settings.
type Config struct {
	TaxRate decimal.Decimal
}

// Service turns sales events into balanced journal postings. An invoice
// is revenue plus tax against the customer's receivable, with cost of
// goods sold frozen at the average cost in force when the sale posts.
type Service struct {
	poster   PosterPort
	parties  PartiesPort
	accounts AccountsPort
	costs    CostPort
	taxRate  decimal.Decimal
}

func NewService(poster PosterPort, partiesSvc PartiesPort, accountsSvc AccountsPort, costs CostPort, cfg Config) *Service {
	return &Service{poster: poster, parties: partiesSvc, accounts: accountsSvc, costs: costs, taxRate: cfg.TaxRate}
}

// PostInvoice posts a sales invoice: receivable debit for the gross
// total, sales and tax credits, plus a COGS entry and SALE movements per
// item at the current average cost.
func (s *Service) PostInvoice(ctx context.Context, in InvoiceInput) (journal.Entry, error) {
	if len(in.Items) == 0 {
		return journal.Entry{}, ErrNoItems
	}
	customer, err := s.parties.Get(ctx, parties.KindCustomer, in.CustomerID)
	if err != nil {
		return journal.Entry{}, err
	}
	dir, err := s.accounts.Directory(ctx)
	if err != nil {
		return journal.Entry{}, err
	}
	receivableID, err := dir.Require(accounts.CodeReceivable)
	if err != nil {
		return journal.Entry{}, err
	}
	salesID, err := dir.Require(accounts.CodeSales)
	if err != nil {
		return journal.Entry{}, err
	}
	cogsID, err := dir.Require(accounts.CodeCOGS)
	if err != nil {
		return journal.Entry{}, err
	}
	inventoryID, err := dir.Require(accounts.CodeInventory)
	if err != nil {
		return journal.Entry{}, err
	}

	subtotal := decimal.Zero
	totalCost := decimal.Zero
	var movements []inventory.MovementInput
	for _, item := range in.Items {
		if !item.Quantity.IsPositive() {
			return journal.Entry{}, inventory.ErrInvalidQuantity
		}
		if item.UnitPrice.IsNegative() {
			return journal.Entry{}, ErrInvalidAmount
		}
		subtotal = subtotal.Add(item.Quantity.Mul(item.UnitPrice))

		avg, err := s.costs.AverageCost(ctx, item.ProductID)
		if err != nil {
			return journal.Entry{}, err
		}
		cost := item.Quantity.Mul(avg)
		totalCost = totalCost.Add(cost)
		movements = append(movements, inventory.MovementInput{
			ProductID: item.ProductID,
			Type:      inventory.MovementSale,
			Quantity:  item.Quantity.Neg(),
			TotalCost: cost.Neg(),
		})
	}

	tax := money.Round2(subtotal.Mul(s.taxRate))
	total := subtotal.Add(tax)
	kind := parties.KindCustomer

	lines := []journal.LineInput{
		{AccountID: receivableID, Debit: total, PartyKind: &kind, PartyID: &customer.ID},
		{AccountID: salesID, Credit: subtotal},
	}
	if tax.IsPositive() {
		taxID, err := dir.Require(accounts.CodeTaxPayable)
		if err != nil {
			return journal.Entry{}, err
		}
		lines = append(lines, journal.LineInput{AccountID: taxID, Credit: tax})
	}
	if totalCost.IsPositive() {
		lines = append(lines,
			journal.LineInput{AccountID: cogsID, Debit: totalCost},
			journal.LineInput{AccountID: inventoryID, Credit: totalCost},
		)
	}

	return s.poster.Post(ctx, journal.PostingInput{
		Description:  invoiceMemo(in.Memo, customer.Name),
		Date:         dateOrNow(in.Date),
		SourceModule: "ar.invoice",
		SourceID:     uuid.New(),
		PostedBy:     in.ActorID,
		Lines:        lines,
		PartyEffects: []journal.PartyEffect{{Kind: parties.KindCustomer, PartyID: customer.ID, Delta: total}},
		Movements:    movements,
	})
}

// RegisterPayment posts a customer receipt: cash or bank debit against
// the receivable, shrinking the customer's balance.
func (s *Service) RegisterPayment(ctx context.Context, in PaymentInput) (journal.Entry, error) {
	if !in.Amount.IsPositive() {
		return journal.Entry{}, ErrInvalidAmount
	}
	customer, err := s.parties.Get(ctx, parties.KindCustomer, in.CustomerID)
	if err != nil {
		return journal.Entry{}, err
	}
	dir, err := s.accounts.Directory(ctx)
	if err != nil {
		return journal.Entry{}, err
	}
	settlementID, err := settlementAccount(dir, in.Method)
	if err != nil {
		return journal.Entry{}, err
	}
	receivableID, err := dir.Require(accounts.CodeReceivable)
	if err != nil {
		return journal.Entry{}, err
	}

	kind := parties.KindCustomer
	return s.poster.Post(ctx, journal.PostingInput{
		Description:  paymentMemo(in.Memo, customer.Name),
		Date:         dateOrNow(in.Date),
		SourceModule: "ar.payment",
		SourceID:     uuid.New(),
		PostedBy:     in.ActorID,
		Lines: []journal.LineInput{
			{AccountID: settlementID, Debit: in.Amount},
			{AccountID: receivableID, Credit: in.Amount, PartyKind: &kind, PartyID: &customer.ID},
		},
		PartyEffects: []journal.PartyEffect{{Kind: parties.KindCustomer, PartyID: customer.ID, Delta: in.Amount.Neg()}},
	})
}

// PostSalesReturn posts returned goods: the customer's receivable shrinks
// by the refund, revenue is contra-booked, and the stock comes back at
// the current average cost with the COGS expense unwound at that cost.
func (s *Service) PostSalesReturn(ctx context.Context, in ReturnInput) (journal.Entry, error) {
	if len(in.Items) == 0 {
		return journal.Entry{}, ErrNoItems
	}
	customer, err := s.parties.Get(ctx, parties.KindCustomer, in.CustomerID)
	if err != nil {
		return journal.Entry{}, err
	}
	dir, err := s.accounts.Directory(ctx)
	if err != nil {
		return journal.Entry{}, err
	}
	receivableID, err := dir.Require(accounts.CodeReceivable)
	if err != nil {
		return journal.Entry{}, err
	}
	returnsID, err := dir.Require(accounts.CodeSalesReturns)
	if err != nil {
		return journal.Entry{}, err
	}
	cogsID, err := dir.Require(accounts.CodeCOGS)
	if err != nil {
		return journal.Entry{}, err
	}
	inventoryID, err := dir.Require(accounts.CodeInventory)
	if err != nil {
		return journal.Entry{}, err
	}

	subtotal := decimal.Zero
	totalCost := decimal.Zero
	var movements []inventory.MovementInput
	for _, item := range in.Items {
		if !item.Quantity.IsPositive() {
			return journal.Entry{}, inventory.ErrInvalidQuantity
		}
		subtotal = subtotal.Add(item.Quantity.Mul(item.UnitPrice))

		avg, err := s.costs.AverageCost(ctx, item.ProductID)
		if err != nil {
			return journal.Entry{}, err
		}
		cost := item.Quantity.Mul(avg)
		totalCost = totalCost.Add(cost)
		movements = append(movements, inventory.MovementInput{
			ProductID: item.ProductID,
			Type:      inventory.MovementReturnIn,
			Quantity:  item.Quantity,
			TotalCost: cost,
		})
	}

	tax := money.Round2(subtotal.Mul(s.taxRate))
	total := subtotal.Add(tax)
	kind := parties.KindCustomer

	lines := []journal.LineInput{
		{AccountID: returnsID, Debit: subtotal},
		{AccountID: receivableID, Credit: total, PartyKind: &kind, PartyID: &customer.ID},
	}
	if tax.IsPositive() {
		taxID, err := dir.Require(accounts.CodeTaxPayable)
		if err != nil {
			return journal.Entry{}, err
		}
		lines = append(lines, journal.LineInput{AccountID: taxID, Debit: tax})
	}
	if totalCost.IsPositive() {
		lines = append(lines,
			journal.LineInput{AccountID: inventoryID, Debit: totalCost},
			journal.LineInput{AccountID: cogsID, Credit: totalCost},
		)
	}

	return s.poster.Post(ctx, journal.PostingInput{
		Description:  returnMemo(in.Memo, customer.Name),
		Date:         dateOrNow(in.Date),
		SourceModule: "ar.return",
		SourceID:     uuid.New(),
		PostedBy:     in.ActorID,
		Lines:        lines,
		PartyEffects: []journal.PartyEffect{{Kind: parties.KindCustomer, PartyID: customer.ID, Delta: total.Neg()}},
		Movements:    movements,
	})
}

func settlementAccount(dir *accounts.Directory, method PaymentMethod) (int64, error) {
	switch method {
	case PaymentCash:
		return dir.Require(accounts.CodeCash)
	case PaymentBank:
		return dir.Require(accounts.CodeBank)
	default:
		return 0, ErrInvalidMethod
	}
}

func dateOrNow(date time.Time) time.Time {
	if date.IsZero() {
		return time.Now().UTC()
	}
	return date
}

func invoiceMemo(memo, customer string) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Sales invoice - %s", customer)
}

func paymentMemo(memo, customer string) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Payment received - %s", customer)
}

func returnMemo(memo, customer string) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Sales return - %s", customer)
}
