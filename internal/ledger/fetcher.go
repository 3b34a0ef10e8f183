package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
)

// Fetcher drives the paginated entity queries. Pages of one entity type
// are fetched sequentially with a strictly advancing start position and
// a hard row cap, so the loop terminates even when the upstream reports
// inconsistent totals.
type Fetcher struct {
	client   Client
	pageSize int
	maxRows  int
	logger   logging.Logger
}

// NewFetcher creates a fetcher. pageSize and maxRows must be positive;
// maxRows bounds the total rows fetched per entity type.
func NewFetcher(client Client, pageSize, maxRows int, logger logging.Logger) *Fetcher {
	if pageSize <= 0 {
		pageSize = 200
	}
	if maxRows <= 0 {
		maxRows = 10000
	}
	return &Fetcher{
		client:   client,
		pageSize: pageSize,
		maxRows:  maxRows,
		logger:   logger,
	}
}

// Authenticated reports whether the underlying client has a credential.
func (f *Fetcher) Authenticated() bool {
	return f.client.Authenticated()
}

// fetchAll pages through one entity type. Each page is awaited before
// the next; the start position only ever advances.
func (f *Fetcher) fetchAll(ctx context.Context, entity string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for start := 1; start <= f.maxRows; start += f.pageSize {
		page, err := f.client.ListEntities(ctx, entity, "", start, f.pageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < f.pageSize {
			break
		}
	}
	f.logger.WithFields(
		logging.Field{Key: "entity", Value: entity},
		logging.Field{Key: "count", Value: len(out)},
	).Debug("Fetched ledger entities")
	return out, nil
}

func decodeAll[T any](entity string, raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var record T
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("decoding %s record: %w", entity, err)
		}
		out = append(out, record)
	}
	return out, nil
}

func fetchTyped[T any](ctx context.Context, f *Fetcher, entity string) ([]T, error) {
	raws, err := f.fetchAll(ctx, entity)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](entity, raws)
}

func (f *Fetcher) Purchases(ctx context.Context) ([]models.Purchase, error) {
	return fetchTyped[models.Purchase](ctx, f, models.EntityPurchase)
}

func (f *Fetcher) Bills(ctx context.Context) ([]models.Bill, error) {
	return fetchTyped[models.Bill](ctx, f, models.EntityBill)
}

func (f *Fetcher) JournalEntries(ctx context.Context) ([]models.JournalEntry, error) {
	return fetchTyped[models.JournalEntry](ctx, f, models.EntityJournalEntry)
}

func (f *Fetcher) Deposits(ctx context.Context) ([]models.Deposit, error) {
	return fetchTyped[models.Deposit](ctx, f, models.EntityDeposit)
}

func (f *Fetcher) SalesReceipts(ctx context.Context) ([]models.SalesReceipt, error) {
	return fetchTyped[models.SalesReceipt](ctx, f, models.EntitySalesReceipt)
}

func (f *Fetcher) Payments(ctx context.Context) ([]models.Payment, error) {
	return fetchTyped[models.Payment](ctx, f, models.EntityPayment)
}

func (f *Fetcher) RefundReceipts(ctx context.Context) ([]models.RefundReceipt, error) {
	return fetchTyped[models.RefundReceipt](ctx, f, models.EntityRefundReceipt)
}

func (f *Fetcher) VendorCredits(ctx context.Context) ([]models.VendorCredit, error) {
	return fetchTyped[models.VendorCredit](ctx, f, models.EntityVendorCredit)
}

func (f *Fetcher) Accounts(ctx context.Context) ([]models.Account, error) {
	return fetchTyped[models.Account](ctx, f, models.EntityAccount)
}

func (f *Fetcher) Vendors(ctx context.Context) ([]models.Vendor, error) {
	return fetchTyped[models.Vendor](ctx, f, models.EntityVendor)
}

// ExpenseCategories implements the resolver's category source: the
// chart of accounts filtered to active expense-bearing account types.
func (f *Fetcher) ExpenseCategories(ctx context.Context) ([]models.Category, error) {
	accounts, err := f.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	categories := make([]models.Category, 0, len(accounts))
	for _, acc := range accounts {
		if !acc.Active || !models.IsExpenseAccountType(acc.AccountType) {
			continue
		}
		categories = append(categories, models.Category{
			ID:                 acc.ID,
			Name:               acc.Name,
			FullyQualifiedName: acc.FullyQualifiedName,
			Type:               acc.AccountType,
			SubType:            acc.AccountSubType,
			Active:             acc.Active,
		})
	}
	return categories, nil
}

// MonthlyProfitAndLoss fetches the month-by-month summary report for
// the given period.
func (f *Fetcher) MonthlyProfitAndLoss(ctx context.Context, start, end time.Time) (*models.Report, error) {
	return f.client.FetchReportSummary(ctx, "ProfitAndLoss", start, end, "Month")
}
