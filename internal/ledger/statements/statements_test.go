package statements

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/meridian-erp/meridian-erp/testing"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestBuildTrialBalanceTotalsMatch(t *testing.T) {
	accounts := []AccountBalance{
		{Code: "1101", Name: "Cash", Type: "ASSET", Debit: dec(10000)},
		{Code: "1104", Name: "Inventory", Type: "ASSET", Debit: dec(5000)},
		{Code: "3101", Name: "Opening Equity", Type: "EQUITY", Credit: dec(5000)},
		{Code: "4101", Name: "Sales", Type: "REVENUE", Credit: dec(10000)},
	}

	tb := BuildTrialBalance(accounts)
	require.True(t, tb.TotalDebit.Equal(dec(15000)), "total debit: %s", tb.TotalDebit)
	require.True(t, tb.TotalCredit.Equal(dec(15000)), "total credit: %s", tb.TotalCredit)
	require.True(t, tb.Balanced())
}

func TestBuildTrialBalanceGroupsByCodePrefix(t *testing.T) {
	accounts := []AccountBalance{
		{Code: "1101", Name: "Cash", Type: "ASSET", Debit: dec(200), Credit: dec(150)},
		{Code: "1102", Name: "Bank", Type: "ASSET", Debit: dec(100), Credit: dec(50)},
		{Code: "2101", Name: "Accounts Payable", Type: "LIABILITY", Debit: dec(10), Credit: dec(400)},
	}

	tb := BuildTrialBalance(accounts)
	require.Len(t, tb.Groups, 2)
	require.Equal(t, "11", tb.Groups[0].Key)
	require.Len(t, tb.Groups[0].Accounts, 2)
	require.True(t, tb.Groups[0].Debit.Equal(dec(300)))
	require.Equal(t, "21", tb.Groups[1].Key)
	require.True(t, tb.Groups[1].Closing.Equal(dec(-390)))
}

func TestBuildTrialBalanceSkipsDormantAccounts(t *testing.T) {
	accounts := []AccountBalance{
		{Code: "1101", Name: "Cash", Type: "ASSET", Debit: dec(100), Credit: dec(100)},
		{Code: "1199", Name: "Petty Cash", Type: "ASSET"},
	}

	tb := BuildTrialBalance(accounts)
	require.Len(t, tb.Groups, 1)
	require.Len(t, tb.Groups[0].Accounts, 1)
	require.Equal(t, "1101", tb.Groups[0].Accounts[0].Code)
}

func TestBuildIncomeStatementSeparatesCOGS(t *testing.T) {
	accounts := []AccountBalance{
		{Code: "4101", Name: "Sales", Type: "REVENUE", Credit: dec(1200)},
		{Code: "4102", Name: "Sales Returns", Type: "REVENUE", Debit: dec(200)},
		{Code: "5101", Name: "COGS", Type: "EXPENSE", Debit: dec(300)},
		{Code: "5201", Name: "Marketing", Type: "EXPENSE", Debit: dec(150)},
		{Code: "1101", Name: "Cash", Type: "ASSET", Debit: dec(1200)},
	}

	is := BuildIncomeStatement(accounts)
	require.True(t, is.Revenue.Total.Equal(dec(1000)), "revenue: %s", is.Revenue.Total)
	require.True(t, is.COGS.Total.Equal(dec(300)))
	require.True(t, is.Expenses.Total.Equal(dec(150)))
	require.True(t, is.GrossProfit.Equal(dec(700)))
	require.True(t, is.NetProfit.Equal(dec(550)))
	require.Len(t, is.Expenses.Accounts, 1)
	require.Equal(t, "5201", is.Expenses.Accounts[0].Code)
}

func TestBuildBalanceSheetIdentityHoldsWithNetProfit(t *testing.T) {
	accounts := []AccountBalance{
		{Code: "1101", Name: "Cash", Type: "ASSET", Debit: dec(100000)},
		{Code: "2101", Name: "Accounts Payable", Type: "LIABILITY", Credit: dec(40000)},
		{Code: "3101", Name: "Opening Equity", Type: "EQUITY", Credit: dec(50000)},
		{Code: "4101", Name: "Sales", Type: "REVENUE", Credit: dec(30000)},
		{Code: "5101", Name: "COGS", Type: "EXPENSE", Debit: dec(20000)},
	}

	bs := BuildBalanceSheet(accounts)
	require.True(t, bs.Assets.Total.Equal(dec(100000)), "assets: %s", bs.Assets.Total)
	require.True(t, bs.Liabilities.Total.Equal(dec(40000)))
	require.True(t, bs.Equity.Total.Equal(dec(50000)))
	require.True(t, bs.NetProfit.Equal(dec(10000)))
	require.True(t, bs.TotalLiabilitiesAndEquity.Equal(dec(100000)))
	require.True(t, bs.Identity())
}

func TestBuildBalanceSheetSectionsSorted(t *testing.T) {
	accounts := []AccountBalance{
		{Code: "1104", Name: "Inventory", Type: "ASSET", Debit: dec(500)},
		{Code: "1101", Name: "Cash", Type: "ASSET", Debit: dec(100)},
	}

	bs := BuildBalanceSheet(accounts)
	require.Len(t, bs.Assets.Accounts, 2)
	require.Equal(t, "1101", bs.Assets.Accounts[0].Code)
	require.Equal(t, "1104", bs.Assets.Accounts[1].Code)
}
