// Package normalizer maps raw source-native records into the canonical
// Transaction shape. Each source record type has one pure mapping
// function; multi-line records split into one Transaction per
// qualifying line. Amount signs are normalized here regardless of the
// source's own convention: strictly negative for money out, strictly
// positive for money in.
package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledgerlens/internal/dateutils"
	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
)

// payrollKeywords flag a journal line as payroll when the account name
// or record memo contains any of them.
var payrollKeywords = []string{"payroll", "wage", "salary", "paychex"}

func containsPayrollKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range payrollKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Lookups resolves entity references on raw records to display names.
type Lookups struct {
	AccountsByID map[string]models.Account
	VendorsByID  map[string]models.Vendor
}

// NewLookups indexes the chart of accounts and vendor list by id.
func NewLookups(accounts []models.Account, vendors []models.Vendor) Lookups {
	l := Lookups{
		AccountsByID: make(map[string]models.Account, len(accounts)),
		VendorsByID:  make(map[string]models.Vendor, len(vendors)),
	}
	for _, acc := range accounts {
		l.AccountsByID[acc.ID] = acc
	}
	for _, v := range vendors {
		l.VendorsByID[v.ID] = v
	}
	return l
}

// accountName resolves an account reference, preferring the lookup over
// the cached name on the reference itself.
func (l Lookups) accountName(ref models.Ref) string {
	if acc, ok := l.AccountsByID[ref.Value]; ok && acc.Name != "" {
		return acc.Name
	}
	return ref.Name
}

func (l Lookups) accountType(ref models.Ref) string {
	if acc, ok := l.AccountsByID[ref.Value]; ok {
		return acc.AccountType
	}
	return ""
}

func (l Lookups) vendorName(ref *models.Ref) string {
	if ref == nil {
		return ""
	}
	if v, ok := l.VendorsByID[ref.Value]; ok && v.DisplayName != "" {
		return v.DisplayName
	}
	return ref.Name
}

// Normalizer converts raw source records into canonical Transactions.
type Normalizer struct {
	lookups Lookups
	logger  logging.Logger
}

// New creates a normalizer with the given reference lookups.
func New(lookups Lookups, logger logging.Logger) *Normalizer {
	return &Normalizer{lookups: lookups, logger: logger}
}

// transactionID builds the deterministic id for one normalized line.
// Re-normalizing the same raw record always yields the same ids, so
// repeated fetches deduplicate cleanly.
func transactionID(entity, sourceID string, lineIdx int) string {
	return fmt.Sprintf("%s-%s-%d", strings.ToLower(entity), sourceID, lineIdx)
}

// recordID builds the id for a whole-record Transaction (no line split).
func recordID(entity, sourceID string) string {
	return fmt.Sprintf("%s-%s", strings.ToLower(entity), sourceID)
}

// parseDate parses a record date, logging and zeroing on failure so one
// malformed date never drops the transaction.
func (n *Normalizer) parseDate(entity, sourceID, raw string) time.Time {
	date, err := dateutils.ParseDate(raw)
	if err != nil {
		n.logger.WithError(err).WithFields(
			logging.Field{Key: "entity", Value: entity},
			logging.Field{Key: "id", Value: sourceID},
		).Warn("Unparsable record date")
		return time.Time{}
	}
	return date
}

// lineCategory resolves the category label for a purchase/bill expense
// line: the account name for account-based details, the item name for
// item-based details, "Uncategorized" when neither resolves.
func (n *Normalizer) lineCategory(line models.Line) (name, id string) {
	switch {
	case line.AccountBasedExpenseLineDetail != nil:
		ref := line.AccountBasedExpenseLineDetail.AccountRef
		if resolved := n.lookups.accountName(ref); resolved != "" {
			return resolved, ref.Value
		}
	case line.ItemBasedExpenseLineDetail != nil:
		ref := line.ItemBasedExpenseLineDetail.ItemRef
		if ref.Name != "" {
			return ref.Name, ref.Value
		}
	}
	return models.CategoryUncategorized, ""
}

// normalizeExpenseRecord maps a purchase-shaped record (Purchase or
// Bill). A line contributes a Transaction only when it carries an
// expense detail; amounts are forced negative. When no line qualifies,
// exactly one whole-record Transaction is emitted from the record
// total, always flagged for review.
func (n *Normalizer) normalizeExpenseRecord(entity, sourceID, dateStr, counterparty, memo string, lines []models.Line, total decimal.Decimal) []models.Transaction {
	date := n.parseDate(entity, sourceID, dateStr)

	var out []models.Transaction
	for i, line := range lines {
		if !line.IsExpenseDetail() {
			continue
		}

		category, categoryID := n.lineCategory(line)
		description := line.Description
		if description == "" {
			description = category
		}
		if description == "" || description == models.CategoryUncategorized {
			if counterparty != "" {
				description = counterparty
			} else {
				description = entity + " " + sourceID
			}
		}

		out = append(out, models.Transaction{
			ID:               transactionID(entity, sourceID, i),
			SourceSystem:     models.SourceLedger,
			SourceType:       entity,
			Date:             date,
			Description:      description,
			CounterpartyName: counterparty,
			Amount:           line.Amount.Abs().Neg(),
			Kind:             models.KindExpense,
			Category:         category,
			CategoryID:       categoryID,
			NeedsReview:      models.IsUncategorizedName(category),
		})
	}

	if len(out) > 0 {
		return out
	}

	description := memo
	if description == "" {
		if counterparty != "" {
			description = counterparty
		} else {
			description = entity + " " + sourceID
		}
	}
	return []models.Transaction{{
		ID:               recordID(entity, sourceID),
		SourceSystem:     models.SourceLedger,
		SourceType:       entity,
		Date:             date,
		Description:      description,
		CounterpartyName: counterparty,
		Amount:           total.Abs().Neg(),
		Kind:             models.KindExpense,
		Category:         models.CategoryUncategorized,
		NeedsReview:      true,
	}}
}

// NormalizePurchase maps one money-out record.
func (n *Normalizer) NormalizePurchase(p models.Purchase) []models.Transaction {
	counterparty := n.lookups.vendorName(p.EntityRef)
	return n.normalizeExpenseRecord(models.EntityPurchase, p.ID, p.TxnDate, counterparty, p.PrivateNote, p.Line, p.TotalAmt)
}

// NormalizeBill maps one vendor bill.
func (n *Normalizer) NormalizeBill(b models.Bill) []models.Transaction {
	counterparty := n.lookups.vendorName(b.VendorRef)
	return n.normalizeExpenseRecord(models.EntityBill, b.ID, b.TxnDate, counterparty, b.PrivateNote, b.Line, b.TotalAmt)
}

// NormalizeJournalEntry maps one manual double-entry record. Sign and
// kind depend on the target account's type and the line's posting side;
// balance-sheet lines are not P&L events and are excluded entirely.
// Journal-derived Transactions are never flagged for review.
func (n *Normalizer) NormalizeJournalEntry(je models.JournalEntry) []models.Transaction {
	date := n.parseDate(models.EntityJournalEntry, je.ID, je.TxnDate)

	var out []models.Transaction
	for i, line := range je.Line {
		detail := line.JournalEntryLineDetail
		if detail == nil || line.Amount.IsZero() {
			continue
		}

		accountName := n.lookups.accountName(detail.AccountRef)
		accountType := n.lookups.accountType(detail.AccountRef)
		debit := detail.PostingType == models.PostingDebit

		var amount decimal.Decimal
		var kind models.TransactionKind
		switch {
		case models.IsExpenseAccountType(accountType):
			kind = models.KindExpense
			if debit {
				amount = line.Amount.Abs().Neg()
			} else {
				// Credit against an expense account is a refund-like
				// reduction: positive but still in the expense bucket.
				amount = line.Amount.Abs()
			}
		case models.IsIncomeAccountType(accountType):
			kind = models.KindIncome
			if debit {
				amount = line.Amount.Abs().Neg()
			} else {
				amount = line.Amount.Abs()
			}
		case models.IsBalanceSheetAccountType(accountType):
			continue
		default:
			if !debit {
				continue
			}
			kind = models.KindExpense
			amount = line.Amount.Abs().Neg()
		}

		category := accountName
		categoryID := detail.AccountRef.Value
		if category == "" {
			category = models.CategoryUncategorized
			categoryID = ""
		}

		isPayroll := containsPayrollKeyword(accountName) || containsPayrollKeyword(je.PrivateNote)
		if isPayroll {
			category = models.CategoryPayroll
		}

		description := line.Description
		if description == "" {
			description = je.PrivateNote
		}
		if description == "" {
			description = category
		}

		out = append(out, models.Transaction{
			ID:           transactionID(models.EntityJournalEntry, je.ID, i),
			SourceSystem: models.SourceLedger,
			SourceType:   models.EntityJournalEntry,
			Date:         date,
			Description:  description,
			Amount:       amount,
			Kind:         kind,
			Category:     category,
			CategoryID:   categoryID,
			IsPayroll:    isPayroll,
			NeedsReview:  false,
		})
	}
	return out
}

// NormalizeDeposit maps one money-in record: one positive income
// Transaction per line, or one from the record total when no lines.
func (n *Normalizer) NormalizeDeposit(d models.Deposit) []models.Transaction {
	date := n.parseDate(models.EntityDeposit, d.ID, d.TxnDate)

	var out []models.Transaction
	for i, line := range d.Line {
		counterparty := ""
		if line.DepositLineDetail != nil && line.DepositLineDetail.Entity != nil {
			counterparty = line.DepositLineDetail.Entity.Name
		}
		description := line.Description
		if description == "" {
			if counterparty != "" {
				description = "Deposit from " + counterparty
			} else {
				description = "Deposit"
			}
		}
		out = append(out, models.Transaction{
			ID:               transactionID(models.EntityDeposit, d.ID, i),
			SourceSystem:     models.SourceLedger,
			SourceType:       models.EntityDeposit,
			Date:             date,
			Description:      description,
			CounterpartyName: counterparty,
			Amount:           line.Amount.Abs(),
			Kind:             models.KindIncome,
			Category:         models.CategoryIncome,
		})
	}

	if len(out) > 0 {
		return out
	}
	return []models.Transaction{{
		ID:           recordID(models.EntityDeposit, d.ID),
		SourceSystem: models.SourceLedger,
		SourceType:   models.EntityDeposit,
		Date:         date,
		Description:  "Deposit",
		Amount:       d.TotalAmt.Abs(),
		Kind:         models.KindIncome,
		Category:     models.CategoryIncome,
	}}
}

// incomeRecord maps a single-transaction customer-money-in record.
func (n *Normalizer) incomeRecord(entity, sourceID, dateStr, label string, customer *models.Ref, total decimal.Decimal) models.Transaction {
	counterparty := ""
	if customer != nil {
		counterparty = customer.Name
	}
	description := label
	if counterparty != "" {
		description = label + " from " + counterparty
	}
	return models.Transaction{
		ID:               recordID(entity, sourceID),
		SourceSystem:     models.SourceLedger,
		SourceType:       entity,
		Date:             n.parseDate(entity, sourceID, dateStr),
		Description:      description,
		CounterpartyName: counterparty,
		Amount:           total.Abs(),
		Kind:             models.KindIncome,
		Category:         models.CategoryIncome,
	}
}

// NormalizeSalesReceipt maps one immediate sale.
func (n *Normalizer) NormalizeSalesReceipt(sr models.SalesReceipt) models.Transaction {
	return n.incomeRecord(models.EntitySalesReceipt, sr.ID, sr.TxnDate, "Sale", sr.CustomerRef, sr.TotalAmt)
}

// NormalizePayment maps one customer payment.
func (n *Normalizer) NormalizePayment(p models.Payment) models.Transaction {
	return n.incomeRecord(models.EntityPayment, p.ID, p.TxnDate, "Payment", p.CustomerRef, p.TotalAmt)
}

// NormalizeRefundReceipt maps money returned to a customer: a negative
// expense under the fixed "Refunds" label.
func (n *Normalizer) NormalizeRefundReceipt(rr models.RefundReceipt) models.Transaction {
	counterparty := ""
	if rr.CustomerRef != nil {
		counterparty = rr.CustomerRef.Name
	}
	description := "Refund"
	if counterparty != "" {
		description = "Refund to " + counterparty
	}
	return models.Transaction{
		ID:               recordID(models.EntityRefundReceipt, rr.ID),
		SourceSystem:     models.SourceLedger,
		SourceType:       models.EntityRefundReceipt,
		Date:             n.parseDate(models.EntityRefundReceipt, rr.ID, rr.TxnDate),
		Description:      description,
		CounterpartyName: counterparty,
		Amount:           rr.TotalAmt.Abs().Neg(),
		Kind:             models.KindExpense,
		Category:         models.CategoryRefunds,
	}
}

// NormalizeVendorCredit maps a credit received from a vendor: positive
// amount, but it stays in the expense bucket so category totals net it
// against spend.
func (n *Normalizer) NormalizeVendorCredit(vc models.VendorCredit) models.Transaction {
	counterparty := n.lookups.vendorName(vc.VendorRef)
	description := "Vendor credit"
	if counterparty != "" {
		description = "Vendor credit from " + counterparty
	}
	return models.Transaction{
		ID:               recordID(models.EntityVendorCredit, vc.ID),
		SourceSystem:     models.SourceLedger,
		SourceType:       models.EntityVendorCredit,
		Date:             n.parseDate(models.EntityVendorCredit, vc.ID, vc.TxnDate),
		Description:      description,
		CounterpartyName: counterparty,
		Amount:           vc.TotalAmt.Abs(),
		Kind:             models.KindExpense,
		Category:         models.CategoryVendorCredits,
	}
}

// NormalizeBankTransactions maps upstream bank-feed items for one
// connection. Items on excluded accounts are dropped. The provider
// reports positive = money out, so the sign is flipped here; kind
// follows the flipped sign. Review status for bank transactions is
// decided later by the category resolver, never at ingestion.
func (n *Normalizer) NormalizeBankTransactions(conn models.BankConnection, items []models.BankTransaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(items))
	for _, item := range items {
		if conn.IsExcluded(item.AccountID) {
			continue
		}

		amount := item.Amount.Neg()
		kind := models.KindExpense
		if amount.Sign() > 0 {
			kind = models.KindIncome
		}

		category := models.CategoryUncategorized
		if item.PersonalFinanceCategory != nil && item.PersonalFinanceCategory.Primary != "" {
			category = item.PersonalFinanceCategory.Primary
		}

		out = append(out, models.Transaction{
			ID:               "bank-" + item.TransactionID,
			SourceSystem:     models.SourceBankFeed,
			SourceType:       models.SourceTypeBankSync,
			Date:             n.parseDate("bank", item.TransactionID, item.Date),
			Description:      item.Name,
			CounterpartyName: item.MerchantName,
			Amount:           amount,
			Kind:             kind,
			Category:         category,
			NeedsReview:      false,
		})
	}
	return out
}
