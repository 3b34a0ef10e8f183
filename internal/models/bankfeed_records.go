package models

import "github.com/shopspring/decimal"

// SourceTypeBankSync tags transactions that arrived through the
// bank-feed sync endpoint.
const SourceTypeBankSync = "sync"

// PersonalFinanceCategory is the provider-assigned category of a bank
// transaction.
type PersonalFinanceCategory struct {
	Primary  string `json:"primary"`
	Detailed string `json:"detailed,omitempty"`
}

// BankTransaction is one upstream item from the bank-aggregation
// provider. Its amount uses the provider convention: positive means
// money out of the account. The normalizer flips it.
type BankTransaction struct {
	TransactionID           string                   `json:"transaction_id"`
	AccountID               string                   `json:"account_id"`
	Date                    string                   `json:"date"`
	Name                    string                   `json:"name"`
	MerchantName            string                   `json:"merchant_name,omitempty"`
	Amount                  decimal.Decimal          `json:"amount"`
	Pending                 bool                     `json:"pending,omitempty"`
	PersonalFinanceCategory *PersonalFinanceCategory `json:"personal_finance_category,omitempty"`
}

// SyncPage is one page of the cursor-based transaction sync.
type SyncPage struct {
	Added      []BankTransaction `json:"added"`
	NextCursor string            `json:"next_cursor"`
	HasMore    bool              `json:"has_more"`
}

// TransactionPage is one page of the offset-based transaction listing.
type TransactionPage struct {
	Transactions []BankTransaction `json:"transactions"`
	Total        int               `json:"total_transactions"`
}
