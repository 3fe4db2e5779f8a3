package ap

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

// PartiesPort resolves suppliers.
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

// Config groups AP settings.
type Config struct {
	TaxRate decimal.Decimal
}

// Service turns purchasing events into balanced journal postings. A
// purchase invoice receives stock at actual cost, feeding the moving
// average, against the supplier's payable.
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

// PostInvoice posts a purchase invoice: inventory and input tax debits
// against the supplier's payable, plus PURCHASE movements that restate
// the moving average.
func (s *Service) PostInvoice(ctx context.Context, in InvoiceInput) (journal.Entry, error) {
	if len(in.Items) == 0 {
		return journal.Entry{}, ErrNoItems
	}
	supplier, err := s.parties.Get(ctx, parties.KindSupplier, in.SupplierID)
	if err != nil {
		return journal.Entry{}, err
	}
	dir, err := s.accounts.Directory(ctx)
	if err != nil {
		return journal.Entry{}, err
	}
	inventoryID, err := dir.Require(accounts.CodeInventory)
	if err != nil {
		return journal.Entry{}, err
	}
	payableID, err := dir.Require(accounts.CodePayable)
	if err != nil {
		return journal.Entry{}, err
	}

	subtotal := decimal.Zero
	var movements []inventory.MovementInput
	for _, item := range in.Items {
		if !item.Quantity.IsPositive() {
			return journal.Entry{}, inventory.ErrInvalidQuantity
		}
		if item.UnitCost.IsNegative() {
			return journal.Entry{}, inventory.ErrInvalidUnitCost
		}
		cost := item.Quantity.Mul(item.UnitCost)
		subtotal = subtotal.Add(cost)
		movements = append(movements, inventory.MovementInput{
			ProductID: item.ProductID,
			Type:      inventory.MovementPurchase,
			Quantity:  item.Quantity,
			TotalCost: cost,
		})
	}

	tax := money.Round2(subtotal.Mul(s.taxRate))
	total := subtotal.Add(tax)
	kind := parties.KindSupplier

	lines := []journal.LineInput{
		{AccountID: inventoryID, Debit: subtotal},
	}
	if tax.IsPositive() {
		taxID, err := dir.Require(accounts.CodeTaxPayable)
		if err != nil {
			return journal.Entry{}, err
		}
		lines = append(lines, journal.LineInput{AccountID: taxID, Debit: tax})
	}
	lines = append(lines, journal.LineInput{AccountID: payableID, Credit: total, PartyKind: &kind, PartyID: &supplier.ID})

	return s.poster.Post(ctx, journal.PostingInput{
		Description:  invoiceMemo(in.Memo, supplier.Name),
		Date:         dateOrNow(in.Date),
		SourceModule: "ap.invoice",
		SourceID:     uuid.New(),
		PostedBy:     in.ActorID,
		Lines:        lines,
		PartyEffects: []journal.PartyEffect{{Kind: parties.KindSupplier, PartyID: supplier.ID, Delta: total}},
		Movements:    movements,
	})
}

// PaySupplier settles part of the supplier's balance from cash or bank.
func (s *Service) PaySupplier(ctx context.Context, in PaymentInput) (journal.Entry, error) {
	if !in.Amount.IsPositive() {
		return journal.Entry{}, ErrInvalidAmount
	}
	supplier, err := s.parties.Get(ctx, parties.KindSupplier, in.SupplierID)
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
	payableID, err := dir.Require(accounts.CodePayable)
	if err != nil {
		return journal.Entry{}, err
	}

	kind := parties.KindSupplier
	return s.poster.Post(ctx, journal.PostingInput{
		Description:  paymentMemo(in.Memo, supplier.Name),
		Date:         dateOrNow(in.Date),
		SourceModule: "ap.payment",
		SourceID:     uuid.New(),
		PostedBy:     in.ActorID,
		Lines: []journal.LineInput{
			{AccountID: payableID, Debit: in.Amount, PartyKind: &kind, PartyID: &supplier.ID},
			{AccountID: settlementID, Credit: in.Amount},
		},
		PartyEffects: []journal.PartyEffect{{Kind: parties.KindSupplier, PartyID: supplier.ID, Delta: in.Amount.Neg()}},
	})
}

// PostPurchaseReturn sends stock back to the supplier. The return is
// valued at the current average cost on both sides of the entry, so the
// ledger and the movement log stay in lockstep even when the original
// purchase price differed.
func (s *Service) PostPurchaseReturn(ctx context.Context, in ReturnInput) (journal.Entry, error) {
	if len(in.Items) == 0 {
		return journal.Entry{}, ErrNoItems
	}
	supplier, err := s.parties.Get(ctx, parties.KindSupplier, in.SupplierID)
	if err != nil {
		return journal.Entry{}, err
	}
	dir, err := s.accounts.Directory(ctx)
	if err != nil {
		return journal.Entry{}, err
	}
	inventoryID, err := dir.Require(accounts.CodeInventory)
	if err != nil {
		return journal.Entry{}, err
	}
	payableID, err := dir.Require(accounts.CodePayable)
	if err != nil {
		return journal.Entry{}, err
	}

	total := decimal.Zero
	var movements []inventory.MovementInput
	for _, item := range in.Items {
		if !item.Quantity.IsPositive() {
			return journal.Entry{}, inventory.ErrInvalidQuantity
		}
		avg, err := s.costs.AverageCost(ctx, item.ProductID)
		if err != nil {
			return journal.Entry{}, err
		}
		cost := item.Quantity.Mul(avg)
		total = total.Add(cost)
		movements = append(movements, inventory.MovementInput{
			ProductID: item.ProductID,
			Type:      inventory.MovementReturnOut,
			Quantity:  item.Quantity.Neg(),
			TotalCost: cost.Neg(),
		})
	}

	kind := parties.KindSupplier
	return s.poster.Post(ctx, journal.PostingInput{
		Description:  returnMemo(in.Memo, supplier.Name),
		Date:         dateOrNow(in.Date),
		SourceModule: "ap.return",
		SourceID:     uuid.New(),
		PostedBy:     in.ActorID,
		Lines: []journal.LineInput{
			{AccountID: payableID, Debit: total, PartyKind: &kind, PartyID: &supplier.ID},
			{AccountID: inventoryID, Credit: total},
		},
		PartyEffects: []journal.PartyEffect{{Kind: parties.KindSupplier, PartyID: supplier.ID, Delta: total.Neg()}},
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

func invoiceMemo(memo, supplier string) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Purchase invoice - %s", supplier)
}

func paymentMemo(memo, supplier string) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Supplier payment - %s", supplier)
}

func returnMemo(memo, supplier string) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Purchase return - %s", supplier)
}
