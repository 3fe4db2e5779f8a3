package ap

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/journal"
	"github.com/meridian-erp/meridian-erp/internal/parties"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fakePoster struct {
	posted   []journal.PostingInput
	balances map[int64]decimal.Decimal
	nextID   int64
}

func (f *fakePoster) Post(ctx context.Context, in journal.PostingInput) (journal.Entry, error) {
	if _, err := journal.ValidateLines(in.Lines); err != nil {
		return journal.Entry{}, err
	}
	for _, effect := range in.PartyEffects {
		f.balances[effect.PartyID] = f.balances[effect.PartyID].Add(effect.Delta)
	}
	f.posted = append(f.posted, in)
	f.nextID++
	return journal.Entry{ID: f.nextID, Number: f.nextID, Status: journal.StatusPosted}, nil
}

type fakeParties struct {
	balances map[int64]decimal.Decimal
}

func (f *fakeParties) Get(ctx context.Context, kind parties.Kind, id int64) (parties.Party, error) {
	balance, ok := f.balances[id]
	if !ok {
		return parties.Party{}, parties.ErrPartyNotFound
	}
	return parties.Party{ID: id, Kind: kind, Code: "SUP-1", Name: "Globex Trading", Balance: balance}, nil
}

type fakeAccounts struct {
	dir *accounts.Directory
}

func (f *fakeAccounts) Directory(ctx context.Context) (*accounts.Directory, error) {
	return f.dir, nil
}

type fakeCosts struct {
	avg map[int64]decimal.Decimal
}

func (f *fakeCosts) AverageCost(ctx context.Context, productID int64) (decimal.Decimal, error) {
	return f.avg[productID], nil
}

type harness struct {
	poster  *fakePoster
	costs   *fakeCosts
	service *Service
}

func newHarness(t *testing.T, taxRate decimal.Decimal, openingBalance decimal.Decimal) *harness {
	t.Helper()
	dir, err := accounts.NewDirectory([]accounts.Account{
		{ID: 1, Code: accounts.CodeCash, Name: "Cash", Type: accounts.AccountTypeAsset, IsActive: true},
		{ID: 2, Code: accounts.CodeBank, Name: "Bank", Type: accounts.AccountTypeAsset, IsActive: true},
		{ID: 3, Code: accounts.CodeInventory, Name: "Inventory", Type: accounts.AccountTypeAsset, IsActive: true},
		{ID: 4, Code: accounts.CodePayable, Name: "Accounts Payable", Type: accounts.AccountTypeLiability, IsActive: true},
		{ID: 5, Code: accounts.CodeTaxPayable, Name: "Tax Payable", Type: accounts.AccountTypeLiability, IsActive: true},
	})
	require.NoError(t, err)

	balances := map[int64]decimal.Decimal{1: openingBalance}
	poster := &fakePoster{balances: balances}
	costs := &fakeCosts{avg: map[int64]decimal.Decimal{}}
	service := NewService(poster, &fakeParties{balances: balances}, &fakeAccounts{dir: dir}, costs, Config{TaxRate: taxRate})
	return &harness{poster: poster, costs: costs, service: service}
}

func TestPostInvoiceReceivesStockAtActualCost(t *testing.T) {
	h := newHarness(t, decimal.Zero, decimal.Zero)

	_, err := h.service.PostInvoice(context.Background(), InvoiceInput{
		SupplierID: 1,
		Items: []InvoiceItemInput{
			{ProductID: 42, Quantity: dec(10), UnitCost: dec(100)},
			{ProductID: 42, Quantity: dec(20), UnitCost: dec(120)},
		},
	})
	require.NoError(t, err)
	require.Len(t, h.poster.posted, 1)

	in := h.poster.posted[0]
	require.Equal(t, "ap.invoice", in.SourceModule)
	require.True(t, in.Lines[0].Debit.Equal(dec(3400)), "inventory debit: %s", in.Lines[0].Debit)
	require.True(t, in.Lines[1].Credit.Equal(dec(3400)))

	require.Len(t, in.Movements, 2)
	require.Equal(t, inventory.MovementPurchase, in.Movements[0].Type)
	require.True(t, in.Movements[0].TotalCost.Equal(dec(1000)))
	require.True(t, in.Movements[1].TotalCost.Equal(dec(2400)))
	require.True(t, h.poster.balances[1].Equal(dec(3400)))
}

func TestPostInvoiceAddsInputTax(t *testing.T) {
	h := newHarness(t, decimal.RequireFromString("0.1"), decimal.Zero)

	_, err := h.service.PostInvoice(context.Background(), InvoiceInput{
		SupplierID: 1,
		Items:      []InvoiceItemInput{{ProductID: 7, Quantity: dec(5), UnitCost: dec(200)}},
	})
	require.NoError(t, err)

	in := h.poster.posted[0]
	require.True(t, in.Lines[0].Debit.Equal(dec(1000)))
	require.True(t, in.Lines[1].Debit.Equal(dec(100)), "input tax: %s", in.Lines[1].Debit)
	require.True(t, in.Lines[2].Credit.Equal(dec(1100)))
	require.True(t, in.PartyEffects[0].Delta.Equal(dec(1100)))
}

func TestPaySupplierShrinksBalance(t *testing.T) {
	h := newHarness(t, decimal.Zero, dec(3400))

	_, err := h.service.PaySupplier(context.Background(), PaymentInput{SupplierID: 1, Amount: dec(1400), Method: PaymentBank})
	require.NoError(t, err)
	require.True(t, h.poster.balances[1].Equal(dec(2000)), "after payment: %s", h.poster.balances[1])

	in := h.poster.posted[0]
	require.Equal(t, "ap.payment", in.SourceModule)
	require.NotNil(t, in.Lines[0].PartyID)
}

func TestPostPurchaseReturnValuedAtAverage(t *testing.T) {
	h := newHarness(t, decimal.Zero, dec(3400))
	h.costs.avg[42] = decimal.RequireFromString("113.33")

	_, err := h.service.PostPurchaseReturn(context.Background(), ReturnInput{
		SupplierID: 1,
		Items:      []ReturnItemInput{{ProductID: 42, Quantity: dec(3)}},
	})
	require.NoError(t, err)

	in := h.poster.posted[0]
	value := decimal.RequireFromString("339.99")
	require.True(t, in.Lines[0].Debit.Equal(value), "payable debit: %s", in.Lines[0].Debit)
	require.True(t, in.Lines[1].Credit.Equal(value))

	require.Len(t, in.Movements, 1)
	require.Equal(t, inventory.MovementReturnOut, in.Movements[0].Type)
	require.True(t, in.Movements[0].Quantity.Equal(dec(-3)))
	require.True(t, in.Movements[0].TotalCost.Equal(value.Neg()))
}

func TestPostInvoiceRejectsBadItems(t *testing.T) {
	h := newHarness(t, decimal.Zero, decimal.Zero)
	ctx := context.Background()

	_, err := h.service.PostInvoice(ctx, InvoiceInput{SupplierID: 1})
	require.ErrorIs(t, err, ErrNoItems)

	_, err = h.service.PostInvoice(ctx, InvoiceInput{
		SupplierID: 1,
		Items:      []InvoiceItemInput{{ProductID: 7, Quantity: decimal.Zero, UnitCost: dec(10)}},
	})
	require.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	_, err = h.service.PostInvoice(ctx, InvoiceInput{
		SupplierID: 1,
		Items:      []InvoiceItemInput{{ProductID: 7, Quantity: dec(1), UnitCost: dec(-5)}},
	})
	require.ErrorIs(t, err, inventory.ErrInvalidUnitCost)
}
