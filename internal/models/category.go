package models

// Category is an account from the ledger's chart of accounts that can
// serve as a categorization target.
type Category struct {
	ID                 string `json:"id" yaml:"id"`
	Name               string `json:"name" yaml:"name"`
	FullyQualifiedName string `json:"fully_qualified_name,omitempty" yaml:"fully_qualified_name,omitempty"`
	Type               string `json:"type" yaml:"type"`
	SubType            string `json:"sub_type,omitempty" yaml:"sub_type,omitempty"`
	Active             bool   `json:"active" yaml:"active"`
}

// Ledger account types, as reported by the chart of accounts.
const (
	AccountTypeExpense      = "Expense"
	AccountTypeCOGS         = "Cost of Goods Sold"
	AccountTypeOtherExpense = "Other Expense"
	AccountTypeIncome       = "Income"
	AccountTypeOtherIncome  = "Other Income"
	AccountTypeBank         = "Bank"
)

// Fixed category labels used by the normalizer.
const (
	CategoryUncategorized = "Uncategorized"
	CategoryIncome        = "Income"
	CategoryRefunds       = "Refunds"
	CategoryVendorCredits = "Vendor Credits"
	CategoryPayroll       = "Payroll Expenses"
)

// IsExpenseAccountType reports whether an account type carries expenses
// on the profit and loss statement.
func IsExpenseAccountType(accountType string) bool {
	switch accountType {
	case AccountTypeExpense, AccountTypeCOGS, AccountTypeOtherExpense:
		return true
	}
	return false
}

// IsIncomeAccountType reports whether an account type carries income
// on the profit and loss statement.
func IsIncomeAccountType(accountType string) bool {
	switch accountType {
	case AccountTypeIncome, AccountTypeOtherIncome:
		return true
	}
	return false
}

// balanceSheetAccountTypes are excluded from normalization entirely:
// journal lines against them are balance-sheet movements, not P&L events.
var balanceSheetAccountTypes = map[string]struct{}{
	AccountTypeBank:           {},
	"Accounts Payable":        {},
	"Accounts Receivable":     {},
	"Credit Card":             {},
	"Long Term Liability":     {},
	"Other Current Liability": {},
	"Other Current Asset":     {},
	"Fixed Asset":             {},
	"Other Asset":             {},
	"Equity":                  {},
}

// IsBalanceSheetAccountType reports whether an account type belongs to
// the balance sheet rather than the profit and loss statement.
func IsBalanceSheetAccountType(accountType string) bool {
	_, ok := balanceSheetAccountTypes[accountType]
	return ok
}
