package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/meridian-erp/meridian-erp/testing"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fakeInventoryRepo struct {
	products  map[int64]Product
	movements map[int64][]Movement
}

func (f *fakeInventoryRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (f *fakeInventoryRepo) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeInventoryRepo) ListMovements(ctx context.Context, productID int64) ([]Movement, error) {
	return f.movements[productID], nil
}

func (f *fakeInventoryRepo) ListProductIDs(ctx context.Context) ([]int64, error) {
	var out []int64
	for id := range f.products {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeInventoryRepo) CreateProduct(ctx context.Context, product Product) (Product, error) {
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeInventoryRepo) UpdateProduct(ctx context.Context, id int64, product Product) error {
	if _, ok := f.products[id]; !ok {
		return ErrProductNotFound
	}
	f.products[id] = product
	return nil
}

func receipts() []Movement {
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return []Movement{
		{ProductID: 1, Type: MovementPurchase, Quantity: dec(10), TotalCost: dec(1000), PostedAt: at},
		{ProductID: 1, Type: MovementPurchase, Quantity: dec(20), TotalCost: dec(2400), PostedAt: at.AddDate(0, 0, 3)},
	}
}

func TestAverageCostAccumulatesOverReceipts(t *testing.T) {
	avg := AverageCostOf(receipts())
	// (1000 + 2400) / (10 + 20)
	require.Equal(t, "113.33", avg.Round(2).StringFixed(2))
}

func TestAverageCostIgnoresConsumingMovements(t *testing.T) {
	movements := append(receipts(),
		Movement{ProductID: 1, Type: MovementSale, Quantity: dec(-5), TotalCost: decimal.RequireFromString("-566.67")},
		Movement{ProductID: 1, Type: MovementReturnIn, Quantity: dec(1), TotalCost: decimal.RequireFromString("113.33")},
		Movement{ProductID: 1, Type: MovementAdjustmentOut, Quantity: dec(-2), TotalCost: decimal.RequireFromString("-226.67")},
	)
	require.Equal(t, "113.33", AverageCostOf(movements).Round(2).StringFixed(2))
	require.Equal(t, "24", QtyOnHandOf(movements).String())
}

func TestAverageCostZeroWhenNothingReceived(t *testing.T) {
	require.True(t, AverageCostOf(nil).IsZero())
	require.True(t, Product{}.AverageCost().IsZero())
}

func TestCountsTowardAverage(t *testing.T) {
	require.True(t, MovementOpeningBalance.CountsTowardAverage())
	require.True(t, MovementPurchase.CountsTowardAverage())
	require.False(t, MovementSale.CountsTowardAverage())
	require.False(t, MovementReturnIn.CountsTowardAverage())
	require.False(t, MovementReturnOut.CountsTowardAverage())
	require.False(t, MovementAdjustmentIn.CountsTowardAverage())
	require.False(t, MovementAdjustmentOut.CountsTowardAverage())
}

func TestVerifyProductDetectsDrift(t *testing.T) {
	repo := &fakeInventoryRepo{
		products: map[int64]Product{
			1: {ID: 1, Code: "SKU-1", QtyOnHand: dec(30), ReceivedQty: dec(30), ReceivedCost: dec(3400)},
		},
		movements: map[int64][]Movement{1: receipts()},
	}
	engine := NewEngine(repo)

	d, err := engine.VerifyProduct(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, d)

	// Drop a receipt from the stored state without touching the log.
	p := repo.products[1]
	p.QtyOnHand = dec(28)
	repo.products[1] = p

	d, err = engine.VerifyProduct(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.True(t, d.StoredQty.Equal(dec(28)))
	require.True(t, d.ReplayedQty.Equal(dec(30)))

	all, err := engine.VerifyAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "SKU-1", all[0].Code)
}

func TestEngineAverageCost(t *testing.T) {
	repo := &fakeInventoryRepo{
		products: map[int64]Product{
			1: {ID: 1, Code: "SKU-1", QtyOnHand: dec(30), ReceivedQty: dec(30), ReceivedCost: dec(3400)},
		},
	}
	engine := NewEngine(repo)

	avg, err := engine.AverageCost(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "113.33", avg.Round(2).StringFixed(2))

	_, err = engine.AverageCost(context.Background(), 2)
	require.ErrorIs(t, err, ErrProductNotFound)
}
