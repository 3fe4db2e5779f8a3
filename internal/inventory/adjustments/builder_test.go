package adjustments

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/journal"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

func testDirectory(t *testing.T) *accounts.Directory {
	t.Helper()
	dir, err := accounts.NewDirectory([]accounts.Account{
		{ID: 1, Code: accounts.CodeInventory, Name: "Inventory", Type: accounts.AccountTypeAsset, IsActive: true},
		{ID: 2, Code: accounts.CodeInventoryLoss, Name: "Inventory Shrinkage", Type: accounts.AccountTypeExpense, IsActive: true},
		{ID: 3, Code: accounts.CodeInventoryGain, Name: "Inventory Gain", Type: accounts.AccountTypeRevenue, IsActive: true},
	})
	require.NoError(t, err)
	return dir
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestBuildEntryDeficitExpensesShrinkage(t *testing.T) {
	adj := Adjustment{
		ID:     7,
		Status: StatusDraft,
		Items: []Item{
			{ProductID: 11, SystemQty: dec(20), ActualQty: dec(15), UnitCost: dec(50)},
		},
	}

	lines, movements, err := BuildEntry(adj, testDirectory(t))
	require.NoError(t, err)

	require.Len(t, lines, 2)
	require.Equal(t, int64(2), lines[0].AccountID)
	require.True(t, lines[0].Debit.Equal(dec(250)), "loss debit: %s", lines[0].Debit)
	require.Equal(t, int64(1), lines[1].AccountID)
	require.True(t, lines[1].Credit.Equal(dec(250)))

	require.Len(t, movements, 1)
	require.Equal(t, inventory.MovementAdjustmentOut, movements[0].Type)
	require.True(t, movements[0].Quantity.Equal(dec(-5)))
	require.True(t, movements[0].TotalCost.Equal(dec(-250)))
}

func TestBuildEntrySurplusBooksGain(t *testing.T) {
	adj := Adjustment{
		Items: []Item{
			{ProductID: 11, SystemQty: dec(10), ActualQty: dec(13), UnitCost: dec(50)},
		},
	}

	lines, movements, err := BuildEntry(adj, testDirectory(t))
	require.NoError(t, err)

	require.Len(t, lines, 2)
	require.Equal(t, int64(1), lines[0].AccountID)
	require.True(t, lines[0].Debit.Equal(dec(150)))
	require.Equal(t, int64(3), lines[1].AccountID)
	require.True(t, lines[1].Credit.Equal(dec(150)))

	require.Len(t, movements, 1)
	require.Equal(t, inventory.MovementAdjustmentIn, movements[0].Type)
	require.True(t, movements[0].Quantity.Equal(dec(3)))
	require.True(t, movements[0].TotalCost.Equal(dec(150)))
}

func TestBuildEntryMixedItemsBalance(t *testing.T) {
	adj := Adjustment{
		Items: []Item{
			{ProductID: 11, SystemQty: dec(20), ActualQty: dec(15), UnitCost: dec(50)},
			{ProductID: 12, SystemQty: dec(4), ActualQty: dec(6), UnitCost: dec(30)},
			{ProductID: 13, SystemQty: dec(9), ActualQty: dec(9), UnitCost: dec(10)},
		},
	}

	lines, movements, err := BuildEntry(adj, testDirectory(t))
	require.NoError(t, err)
	require.Len(t, movements, 2, "unchanged item should not move stock")

	_, err = journal.ValidateLines(lines)
	require.NoError(t, err, "adjustment entry must balance")
}

func TestBuildEntryNothingToPost(t *testing.T) {
	adj := Adjustment{
		Items: []Item{
			{ProductID: 11, SystemQty: dec(5), ActualQty: dec(5), UnitCost: dec(50)},
		},
	}

	_, _, err := BuildEntry(adj, testDirectory(t))
	require.True(t, errors.Is(err, shared.ErrNothingToPost))
}
