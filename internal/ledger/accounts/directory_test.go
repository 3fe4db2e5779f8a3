package accounts

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

func chart() []Account {
	parent := int64(1)
	return []Account{
		{ID: 1, Code: "1100", Name: "Current Assets", Type: AccountTypeAsset, IsParent: true, IsActive: true},
		{ID: 2, Code: CodeCash, Name: "Cash", Type: AccountTypeAsset, ParentID: &parent, IsActive: true},
		{ID: 3, Code: CodeInventory, Name: "Inventory", Type: AccountTypeAsset, ParentID: &parent, IsActive: true},
		{ID: 4, Code: CodeSales, Name: "Sales", Type: AccountTypeRevenue, IsActive: true},
		{ID: 5, Code: "4199", Name: "Legacy Sales", Type: AccountTypeRevenue, IsActive: false},
	}
}

func TestNewDirectoryIndexesChart(t *testing.T) {
	dir, err := NewDirectory(chart())
	require.NoError(t, err)

	id, err := dir.Resolve(CodeCash)
	require.NoError(t, err)
	require.Equal(t, int64(2), id)

	typ, err := dir.TypeOf(4)
	require.NoError(t, err)
	require.Equal(t, AccountTypeRevenue, typ)

	_, err = dir.Resolve("9999")
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
	_, err = dir.TypeOf(99)
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestNewDirectoryRejectsDuplicateCodes(t *testing.T) {
	list := chart()
	list = append(list, Account{ID: 6, Code: CodeCash, Name: "Cash Again", Type: AccountTypeAsset})
	_, err := NewDirectory(list)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate account code")
}

func TestNewDirectoryRejectsMissingParent(t *testing.T) {
	ghost := int64(77)
	list := chart()
	list = append(list, Account{ID: 6, Code: "1109", Name: "Orphan", Type: AccountTypeAsset, ParentID: &ghost})
	_, err := NewDirectory(list)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing parent")
}

func TestNewDirectoryRejectsTypeConflictWithAncestor(t *testing.T) {
	parent := int64(1)
	list := chart()
	list = append(list, Account{ID: 6, Code: "1108", Name: "Misfiled", Type: AccountTypeExpense, ParentID: &parent})
	_, err := NewDirectory(list)
	require.Error(t, err)
	require.Contains(t, err.Error(), "conflicts with ancestor")
}

func TestRequireRejectsInactiveAndParentAccounts(t *testing.T) {
	dir, err := NewDirectory(chart())
	require.NoError(t, err)

	id, err := dir.Require(CodeCash)
	require.NoError(t, err)
	require.Equal(t, int64(2), id)

	var notConfigured *shared.AccountNotConfiguredError

	_, err = dir.Require("1100")
	require.ErrorAs(t, err, &notConfigured)

	_, err = dir.Require("4199")
	require.ErrorAs(t, err, &notConfigured)
	require.Equal(t, "4199", notConfigured.Code)

	_, err = dir.Require(CodeCOGS)
	require.ErrorAs(t, err, &notConfigured)
}
