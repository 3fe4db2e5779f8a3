package statements

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// IncomeStatementAccount represents a revenue or expense account summary.
type IncomeStatementAccount struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// IncomeStatementSection groups accounts by nature.
type IncomeStatementSection struct {
	Label    string                   `json:"label"`
	Accounts []IncomeStatementAccount `json:"accounts"`
	Total    decimal.Decimal          `json:"total"`
}

// IncomeStatement separates cost of goods sold from operating expenses so
// gross profit is visible alongside net profit.
type IncomeStatement struct {
	Revenue     IncomeStatementSection `json:"revenue"`
	COGS        IncomeStatementSection `json:"cogs"`
	Expenses    IncomeStatementSection `json:"expenses"`
	GrossProfit decimal.Decimal        `json:"gross_profit"`
	NetProfit   decimal.Decimal        `json:"net_profit"`
}

// BuildIncomeStatement aggregates revenue and expense accounts. Cost of
// goods sold accounts (the 51xx range) are carved out of expenses so the
// report shows gross margin.
func BuildIncomeStatement(accounts []AccountBalance) IncomeStatement {
	revenue := IncomeStatementSection{Label: "Revenue", Total: decimal.Zero}
	cogs := IncomeStatementSection{Label: "Cost of Goods Sold", Total: decimal.Zero}
	expenses := IncomeStatementSection{Label: "Operating Expenses", Total: decimal.Zero}

	for _, acc := range accounts {
		amount := acc.Debit.Sub(acc.Credit)
		row := IncomeStatementAccount{Code: acc.Code, Name: acc.Name, Amount: amount}
		switch strings.ToUpper(acc.Type) {
		case "REVENUE":
			row.Amount = amount.Neg()
			revenue.Accounts = append(revenue.Accounts, row)
			revenue.Total = revenue.Total.Add(row.Amount)
		case "EXPENSE":
			if isCOGS(acc.Code) {
				cogs.Accounts = append(cogs.Accounts, row)
				cogs.Total = cogs.Total.Add(row.Amount)
			} else {
				expenses.Accounts = append(expenses.Accounts, row)
				expenses.Total = expenses.Total.Add(row.Amount)
			}
		}
	}

	sort.Slice(revenue.Accounts, func(i, j int) bool { return revenue.Accounts[i].Code < revenue.Accounts[j].Code })
	sort.Slice(cogs.Accounts, func(i, j int) bool { return cogs.Accounts[i].Code < cogs.Accounts[j].Code })
	sort.Slice(expenses.Accounts, func(i, j int) bool { return expenses.Accounts[i].Code < expenses.Accounts[j].Code })

	gross := revenue.Total.Sub(cogs.Total)
	return IncomeStatement{
		Revenue:     revenue,
		COGS:        cogs,
		Expenses:    expenses,
		GrossProfit: gross,
		NetProfit:   gross.Sub(expenses.Total),
	}
}
