package models

import "github.com/shopspring/decimal"

// Raw record shapes for the ledger source. Each entity kind is one arm
// of the tagged union the normalizer maps from; adding a source type
// means adding a struct here and a mapping function in the normalizer.

// Ledger entity names as used in source queries and transaction ids.
const (
	EntityPurchase      = "Purchase"
	EntityBill          = "Bill"
	EntityJournalEntry  = "JournalEntry"
	EntityDeposit       = "Deposit"
	EntitySalesReceipt  = "SalesReceipt"
	EntityPayment       = "Payment"
	EntityRefundReceipt = "RefundReceipt"
	EntityVendorCredit  = "VendorCredit"
	EntityAccount       = "Account"
	EntityVendor        = "Vendor"
)

// Line detail types.
const (
	DetailAccountExpense = "AccountBasedExpenseLineDetail"
	DetailItemExpense    = "ItemBasedExpenseLineDetail"
	DetailJournalEntry   = "JournalEntryLineDetail"
	DetailDeposit        = "DepositLineDetail"
)

// Journal entry posting types.
const (
	PostingDebit  = "Debit"
	PostingCredit = "Credit"
)

// Ref is a reference to another ledger entity, usually with a cached
// display name.
type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

// AccountExpenseDetail is the account-based expense detail of a line.
type AccountExpenseDetail struct {
	AccountRef Ref `json:"AccountRef"`
}

// ItemExpenseDetail is the item-based expense detail of a line.
type ItemExpenseDetail struct {
	ItemRef Ref `json:"ItemRef"`
}

// JournalLineDetail carries the posting side and target account of a
// journal entry line.
type JournalLineDetail struct {
	PostingType string `json:"PostingType"`
	AccountRef  Ref    `json:"AccountRef"`
}

// DepositDetail is the detail of a deposit line.
type DepositDetail struct {
	Entity *Ref `json:"Entity,omitempty"`
}

// Line is one line item of a multi-line ledger record. Exactly one of
// the detail pointers is set, selected by DetailType.
type Line struct {
	ID                           string                `json:"Id,omitempty"`
	Amount                       decimal.Decimal       `json:"Amount"`
	Description                  string                `json:"Description,omitempty"`
	DetailType                   string                `json:"DetailType"`
	AccountBasedExpenseLineDetail *AccountExpenseDetail `json:"AccountBasedExpenseLineDetail,omitempty"`
	ItemBasedExpenseLineDetail   *ItemExpenseDetail    `json:"ItemBasedExpenseLineDetail,omitempty"`
	JournalEntryLineDetail       *JournalLineDetail    `json:"JournalEntryLineDetail,omitempty"`
	DepositLineDetail            *DepositDetail        `json:"DepositLineDetail,omitempty"`
}

// IsExpenseDetail reports whether the line carries an account-based or
// item-based expense detail, which is what qualifies a purchase or bill
// line for normalization.
func (l Line) IsExpenseDetail() bool {
	switch l.DetailType {
	case DetailAccountExpense:
		return l.AccountBasedExpenseLineDetail != nil
	case DetailItemExpense:
		return l.ItemBasedExpenseLineDetail != nil
	}
	return false
}

// Purchase is a money-out record (cash, cheque or card).
type Purchase struct {
	ID          string          `json:"Id"`
	TxnDate     string          `json:"TxnDate"`
	TotalAmt    decimal.Decimal `json:"TotalAmt"`
	PaymentType string          `json:"PaymentType,omitempty"`
	EntityRef   *Ref            `json:"EntityRef,omitempty"`
	PrivateNote string          `json:"PrivateNote,omitempty"`
	Line        []Line          `json:"Line,omitempty"`
}

// Bill is a vendor bill; structurally a purchase with a vendor reference.
type Bill struct {
	ID          string          `json:"Id"`
	TxnDate     string          `json:"TxnDate"`
	TotalAmt    decimal.Decimal `json:"TotalAmt"`
	VendorRef   *Ref            `json:"VendorRef,omitempty"`
	PrivateNote string          `json:"PrivateNote,omitempty"`
	Line        []Line          `json:"Line,omitempty"`
}

// JournalEntry is a manual double-entry record.
type JournalEntry struct {
	ID          string `json:"Id"`
	TxnDate     string `json:"TxnDate"`
	PrivateNote string `json:"PrivateNote,omitempty"`
	Line        []Line `json:"Line,omitempty"`
}

// Deposit is a money-in record, possibly split across lines.
type Deposit struct {
	ID       string          `json:"Id"`
	TxnDate  string          `json:"TxnDate"`
	TotalAmt decimal.Decimal `json:"TotalAmt"`
	Line     []Line          `json:"Line,omitempty"`
}

// SalesReceipt records an immediate sale.
type SalesReceipt struct {
	ID          string          `json:"Id"`
	TxnDate     string          `json:"TxnDate"`
	TotalAmt    decimal.Decimal `json:"TotalAmt"`
	CustomerRef *Ref            `json:"CustomerRef,omitempty"`
}

// Payment records a customer payment against an invoice.
type Payment struct {
	ID          string          `json:"Id"`
	TxnDate     string          `json:"TxnDate"`
	TotalAmt    decimal.Decimal `json:"TotalAmt"`
	CustomerRef *Ref            `json:"CustomerRef,omitempty"`
}

// RefundReceipt records money returned to a customer.
type RefundReceipt struct {
	ID          string          `json:"Id"`
	TxnDate     string          `json:"TxnDate"`
	TotalAmt    decimal.Decimal `json:"TotalAmt"`
	CustomerRef *Ref            `json:"CustomerRef,omitempty"`
}

// VendorCredit records a credit received from a vendor. It reduces
// expense but stays in the expense bucket.
type VendorCredit struct {
	ID          string          `json:"Id"`
	TxnDate     string          `json:"TxnDate"`
	TotalAmt    decimal.Decimal `json:"TotalAmt"`
	VendorRef   *Ref            `json:"VendorRef,omitempty"`
}

// Account is one row of the chart of accounts.
type Account struct {
	ID                 string `json:"Id"`
	Name               string `json:"Name"`
	FullyQualifiedName string `json:"FullyQualifiedName,omitempty"`
	AccountType        string `json:"AccountType"`
	AccountSubType     string `json:"AccountSubType,omitempty"`
	Active             bool   `json:"Active"`
}

// Vendor is a supplier record, used to resolve counterparty names.
type Vendor struct {
	ID          string `json:"Id"`
	DisplayName string `json:"DisplayName"`
}
