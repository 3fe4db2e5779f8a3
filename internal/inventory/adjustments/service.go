package adjustments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/journal"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records adjustment lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// DraftItemInput is one counted line in a new worksheet. The system
// quantity and valuation are read from the product at capture time, not
// supplied by the caller.
type DraftItemInput struct {
	ProductID int64
	ActualQty decimal.Decimal
}

// DraftInput creates a stock-take worksheet.
type DraftInput struct {
	Note    string
	ActorID int64
	Items   []DraftItemInput
}

// OpeningBalanceInput seeds a product's initial stock against opening
// equity.
type OpeningBalanceInput struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Date      time.Time
	ActorID   int64
}

// Service owns the adjustment state machine. DRAFT is inert; the only
// path to a ledger effect is Approve, which posts the correction entry
// and flips the status in one transaction.
type Service struct {
	repo     Repository
	products inventory.RepositoryPort
	poster   *journal.Poster
	accounts *accounts.Service
	audit    AuditPort
}

func NewService(repo Repository, products inventory.RepositoryPort, poster *journal.Poster, accountsSvc *accounts.Service, audit AuditPort) *Service {
	return &Service{repo: repo, products: products, poster: poster, accounts: accountsSvc, audit: audit}
}

func (s *Service) List(ctx context.Context) ([]Adjustment, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Adjustment, error) {
	return s.repo.Get(ctx, id)
}

// CreateDraft snapshots system quantity and average cost per counted
// product and stores the worksheet. Nothing touches the ledger here.
func (s *Service) CreateDraft(ctx context.Context, in DraftInput) (Adjustment, error) {
	if len(in.Items) == 0 {
		return Adjustment{}, shared.ErrNothingToPost
	}
	adj := Adjustment{
		SourceID:  uuid.New(),
		Note:      in.Note,
		CreatedBy: in.ActorID,
	}
	for _, item := range in.Items {
		if item.ActualQty.IsNegative() {
			return Adjustment{}, inventory.ErrInvalidQuantity
		}
		product, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			return Adjustment{}, err
		}
		adj.Items = append(adj.Items, Item{
			ProductID: product.ID,
			SystemQty: product.QtyOnHand,
			ActualQty: item.ActualQty,
			UnitCost:  product.AverageCost(),
		})
	}
	created, err := s.repo.CreateDraft(ctx, adj)
	if err != nil {
		return Adjustment{}, err
	}
	s.record(ctx, in.ActorID, "adjustment.draft", created.ID, map[string]any{"items": len(created.Items)})
	return created, nil
}

// DeleteDraft discards an unapproved worksheet.
func (s *Service) DeleteDraft(ctx context.Context, id, actorID int64) error {
	if err := s.repo.DeleteDraft(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "adjustment.discard", id, nil)
	return nil
}

// Approve posts the correction entry derived from the worksheet and
// marks the adjustment approved, atomically. Approving anything but a
// draft fails; approving a worksheet with no net corrections fails.
func (s *Service) Approve(ctx context.Context, id, actorID int64) (Adjustment, error) {
	adj, err := s.repo.Get(ctx, id)
	if err != nil {
		return Adjustment{}, err
	}
	if adj.Status != StatusDraft {
		return Adjustment{}, shared.ErrInvalidStatus
	}
	dir, err := s.accounts.Directory(ctx)
	if err != nil {
		return Adjustment{}, err
	}
	lines, movements, err := BuildEntry(adj, dir)
	if err != nil {
		return Adjustment{}, err
	}

	posting := journal.PostingInput{
		Description:  fmt.Sprintf("Stock adjustment #%d", adj.ID),
		Date:         time.Now().UTC(),
		SourceModule: "adjustment",
		SourceID:     adj.SourceID,
		PostedBy:     actorID,
		Lines:        lines,
		Movements:    movements,
	}
	entry, err := s.poster.PostWith(ctx, posting, func(ctx context.Context, tx journal.TxRepository, entry journal.Entry) error {
		return tx.MarkAdjustmentApproved(ctx, adj.ID, entry.ID, entry.CreatedAt)
	})
	if err != nil {
		return Adjustment{}, err
	}
	s.record(ctx, actorID, "adjustment.approve", adj.ID, map[string]any{"entry_id": entry.ID})
	return s.repo.Get(ctx, id)
}

// RecordOpeningBalance seeds initial stock: inventory is debited against
// opening equity and the product receives an average-bearing movement.
func (s *Service) RecordOpeningBalance(ctx context.Context, in OpeningBalanceInput) (journal.Entry, error) {
	if !in.Quantity.IsPositive() {
		return journal.Entry{}, inventory.ErrInvalidQuantity
	}
	if in.UnitCost.IsNegative() {
		return journal.Entry{}, inventory.ErrInvalidUnitCost
	}
	dir, err := s.accounts.Directory(ctx)
	if err != nil {
		return journal.Entry{}, err
	}
	inventoryID, err := dir.Require(accounts.CodeInventory)
	if err != nil {
		return journal.Entry{}, err
	}
	equityID, err := dir.Require(accounts.CodeOpeningEquity)
	if err != nil {
		return journal.Entry{}, err
	}

	value := in.Quantity.Mul(in.UnitCost)
	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	entry, err := s.poster.Post(ctx, journal.PostingInput{
		Description:  fmt.Sprintf("Opening balance for product %d", in.ProductID),
		Date:         date,
		SourceModule: "opening_balance",
		SourceID:     uuid.New(),
		PostedBy:     in.ActorID,
		Lines: []journal.LineInput{
			{AccountID: inventoryID, Debit: value},
			{AccountID: equityID, Credit: value},
		},
		Movements: []inventory.MovementInput{{
			ProductID: in.ProductID,
			Type:      inventory.MovementOpeningBalance,
			Quantity:  in.Quantity,
			TotalCost: value,
		}},
	})
	if err != nil {
		return journal.Entry{}, err
	}
	s.record(ctx, in.ActorID, "inventory.opening_balance", in.ProductID, map[string]any{"entry_id": entry.ID})
	return entry, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "inventory_adjustment",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
		At:       time.Now(),
	})
}
