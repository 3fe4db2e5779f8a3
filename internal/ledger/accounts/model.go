package accounts

import "time"

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether t is one of the five known categories.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// Account models a chart of accounts node. Codes are hierarchical by
// prefix, globally unique, and stable once created.
type Account struct {
	ID        int64       `json:"id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	IsParent  bool        `json:"is_parent"`
	ParentID  *int64      `json:"parent_id,omitempty"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Well-known account codes the posting services rely on. Their absence is
// a setup error, not a runtime recoverable one.
const (
	CodeCash          = "1101"
	CodeBank          = "1102"
	CodeInventory     = "1104"
	CodeReceivable    = "1201"
	CodePayable       = "2101"
	CodeTaxPayable    = "2102"
	CodeOpeningEquity = "3101"
	CodeSales         = "4101"
	CodeSalesReturns  = "4102"
	CodeInventoryGain = "4901"
	CodeCOGS          = "5101"
	CodeInventoryLoss = "5901"
)
