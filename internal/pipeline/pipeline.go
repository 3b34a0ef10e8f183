// Package pipeline orchestrates one aggregation run: fetch raw records
// from every source, normalize them into canonical transactions, run
// category resolution over the ones that still need a decision, and
// return the sorted set with per-source diagnostics.
//
// A failed fetch of one entity type degrades that type to an empty
// result set and a diagnostics entry; only total authentication absence
// aborts the run.
package pipeline

import (
	"context"

	"ledgerlens/internal/aggregator"
	"ledgerlens/internal/bankfeed"
	"ledgerlens/internal/ledger"
	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
	"ledgerlens/internal/normalizer"
	"ledgerlens/internal/pipelineerror"
	"ledgerlens/internal/resolver"
)

// Diagnostic records one degraded fetch inside an otherwise complete run.
type Diagnostic struct {
	Source string `json:"source"`
	Entity string `json:"entity"`
	Error  string `json:"error"`
}

// Result is the outcome of one aggregation run.
type Result struct {
	Transactions []models.Transaction `json:"transactions"`
	Diagnostics  []Diagnostic         `json:"diagnostics,omitempty"`
}

// Pipeline wires the source adapters, normalizer and resolver together.
type Pipeline struct {
	fetcher  *ledger.Fetcher
	bank     *bankfeed.Service
	resolver *resolver.Resolver
	logger   logging.Logger
}

// New creates a pipeline. bank and res may be nil; the corresponding
// stage is skipped.
func New(fetcher *ledger.Fetcher, bank *bankfeed.Service, res *resolver.Resolver, logger logging.Logger) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		bank:     bank,
		resolver: res,
		logger:   logger,
	}
}

// Run executes one aggregation. It fails immediately when no ledger
// credential is configured; any later per-entity failure only degrades
// that entity type.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if !p.fetcher.Authenticated() {
		return nil, pipelineerror.ErrNotAuthenticated
	}

	result := &Result{}

	// Reference data first: counterparty and account names feed every
	// ledger mapping below.
	accounts := fetchEntity(ctx, p, result, models.EntityAccount, p.fetcher.Accounts)
	vendors := fetchEntity(ctx, p, result, models.EntityVendor, p.fetcher.Vendors)
	norm := normalizer.New(normalizer.NewLookups(accounts, vendors), p.logger)

	var transactions []models.Transaction

	for _, purchase := range fetchEntity(ctx, p, result, models.EntityPurchase, p.fetcher.Purchases) {
		transactions = append(transactions, norm.NormalizePurchase(purchase)...)
	}
	for _, bill := range fetchEntity(ctx, p, result, models.EntityBill, p.fetcher.Bills) {
		transactions = append(transactions, norm.NormalizeBill(bill)...)
	}
	for _, je := range fetchEntity(ctx, p, result, models.EntityJournalEntry, p.fetcher.JournalEntries) {
		transactions = append(transactions, norm.NormalizeJournalEntry(je)...)
	}
	for _, dep := range fetchEntity(ctx, p, result, models.EntityDeposit, p.fetcher.Deposits) {
		transactions = append(transactions, norm.NormalizeDeposit(dep)...)
	}
	for _, sr := range fetchEntity(ctx, p, result, models.EntitySalesReceipt, p.fetcher.SalesReceipts) {
		transactions = append(transactions, norm.NormalizeSalesReceipt(sr))
	}
	for _, payment := range fetchEntity(ctx, p, result, models.EntityPayment, p.fetcher.Payments) {
		transactions = append(transactions, norm.NormalizePayment(payment))
	}
	for _, rr := range fetchEntity(ctx, p, result, models.EntityRefundReceipt, p.fetcher.RefundReceipts) {
		transactions = append(transactions, norm.NormalizeRefundReceipt(rr))
	}
	for _, vc := range fetchEntity(ctx, p, result, models.EntityVendorCredit, p.fetcher.VendorCredits) {
		transactions = append(transactions, norm.NormalizeVendorCredit(vc))
	}

	transactions = append(transactions, p.syncBankFeeds(ctx, result, norm)...)

	transactions = p.resolveCategories(ctx, transactions)

	result.Transactions = aggregator.SortByDateDesc(transactions)
	p.logger.WithFields(
		logging.Field{Key: "transactions", Value: len(result.Transactions)},
		logging.Field{Key: "degraded", Value: len(result.Diagnostics)},
	).Info("Aggregation run complete")
	return result, nil
}

// fetchEntity runs one entity fetch, degrading a failure to an empty
// slice plus a diagnostics entry. A credential rejection mid-run still
// degrades rather than aborting; only total credential absence is fatal,
// and that is checked before any fetch.
func fetchEntity[T any](ctx context.Context, p *Pipeline, result *Result, entity string, fetch func(context.Context) ([]T, error)) []T {
	records, err := fetch(ctx)
	if err != nil {
		p.degrade(result, "ledger", entity, err)
		return nil
	}
	return records
}

func (p *Pipeline) degrade(result *Result, source, entity string, err error) {
	fetchErr := &pipelineerror.FetchError{Source: source, Entity: entity, Err: err}
	p.logger.WithError(fetchErr).Warn("Entity fetch degraded to empty result")
	result.Diagnostics = append(result.Diagnostics, Diagnostic{
		Source: source,
		Entity: entity,
		Error:  fetchErr.Error(),
	})
}

// syncBankFeeds pulls every linked connection's new transactions. A
// failed connection degrades like a failed entity type.
func (p *Pipeline) syncBankFeeds(ctx context.Context, result *Result, norm *normalizer.Normalizer) []models.Transaction {
	if p.bank == nil {
		return nil
	}

	var out []models.Transaction
	for _, conn := range p.bank.Registry().List() {
		items, err := p.bank.Sync(ctx, conn)
		if err != nil {
			p.degrade(result, "bank_feed", conn.InstitutionName, err)
			continue
		}
		out = append(out, norm.NormalizeBankTransactions(conn, items)...)
	}
	return out
}

// needsResolution reports whether a transaction still needs a category
// decision: its category is a placeholder, it is already flagged for
// review, or it came from a bank feed (whose upstream category is only
// a default, never a decision).
func needsResolution(tx models.Transaction) bool {
	return tx.NeedsReview ||
		tx.SourceSystem == models.SourceBankFeed ||
		models.IsUncategorizedName(tx.Category)
}

// resolveCategories runs the resolver over the undecided transactions
// and applies the suggestions. Only rule matches at or above the
// auto-approve threshold settle a transaction; everything else lands in
// the review queue, with the suggestion attached when one exists.
func (p *Pipeline) resolveCategories(ctx context.Context, transactions []models.Transaction) []models.Transaction {
	if p.resolver == nil {
		return transactions
	}

	var pending []int
	for i, tx := range transactions {
		if needsResolution(tx) {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return transactions
	}

	batch := make([]models.Transaction, len(pending))
	for i, idx := range pending {
		batch[i] = transactions[idx]
	}

	suggestions := p.resolver.ResolveBatch(ctx, batch)
	for i, suggestion := range suggestions {
		tx := &transactions[pending[i]]
		if suggestion == nil {
			tx.NeedsReview = true
			continue
		}

		tx.Confidence = suggestion.Confidence
		tx.ConfidenceSource = suggestion.Source
		if suggestion.CategoryName != "" {
			tx.Category = suggestion.CategoryName
			tx.CategoryID = suggestion.CategoryID
		}
		tx.NeedsReview = !suggestion.AutoApproved
	}
	return transactions
}
