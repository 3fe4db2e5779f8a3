package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// RepositoryPort abstracts repository usage for the valuation engine and
// the catalogue handler. Stock mutations are deliberately absent: stock
// changes only through journal posting transactions.
type RepositoryPort interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListMovements(ctx context.Context, productID int64) ([]Movement, error)
	ListProductIDs(ctx context.Context) ([]int64, error)
	CreateProduct(ctx context.Context, product Product) (Product, error)
	UpdateProduct(ctx context.Context, id int64, product Product) error
}

// Engine answers valuation questions for products. The average it reports
// is the one frozen onto COGS-bearing postings: callers consult it before
// posting, and later purchases never restate already-posted COGS.
type Engine struct {
	repo RepositoryPort
}

// NewEngine builds the valuation engine.
func NewEngine(repo RepositoryPort) *Engine {
	return &Engine{repo: repo}
}

// AverageCost returns the current moving weighted-average unit cost for a
// product, zero when nothing average-bearing has been received.
func (e *Engine) AverageCost(ctx context.Context, productID int64) (decimal.Decimal, error) {
	product, err := e.repo.GetProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return product.AverageCost(), nil
}

// Discrepancy describes a product whose stored stock state disagrees with
// its movement log.
type Discrepancy struct {
	ProductID   int64           `json:"product_id"`
	Code        string          `json:"code"`
	StoredQty   decimal.Decimal `json:"stored_qty"`
	ReplayedQty decimal.Decimal `json:"replayed_qty"`
	StoredAvg   decimal.Decimal `json:"stored_avg"`
	ReplayedAvg decimal.Decimal `json:"replayed_avg"`
}

// VerifyProduct replays a product's movement log and compares it against
// the stored quantity and average. A non-nil discrepancy means a posting
// escaped its transaction boundary and needs investigation.
func (e *Engine) VerifyProduct(ctx context.Context, productID int64) (*Discrepancy, error) {
	product, err := e.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	movements, err := e.repo.ListMovements(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("inventory: list movements for %d: %w", productID, err)
	}
	replayedQty := QtyOnHandOf(movements)
	replayedAvg := AverageCostOf(movements)
	if product.QtyOnHand.Equal(replayedQty) && product.AverageCost().Equal(replayedAvg) {
		return nil, nil
	}
	return &Discrepancy{
		ProductID:   productID,
		Code:        product.Code,
		StoredQty:   product.QtyOnHand,
		ReplayedQty: replayedQty,
		StoredAvg:   product.AverageCost(),
		ReplayedAvg: replayedAvg,
	}, nil
}

// VerifyAll audits every product, returning the discrepancies found.
func (e *Engine) VerifyAll(ctx context.Context) ([]Discrepancy, error) {
	ids, err := e.repo.ListProductIDs(ctx)
	if err != nil {
		return nil, err
	}
	var out []Discrepancy
	for _, id := range ids {
		d, err := e.VerifyProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if d != nil {
			out = append(out, *d)
		}
	}
	return out, nil
}
