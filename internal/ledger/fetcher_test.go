package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
)

// fakeClient serves scripted records per entity type and records the
// requested page positions.
type fakeClient struct {
	records       map[string][]json.RawMessage
	err           error
	authenticated bool
	starts        []int
}

func (f *fakeClient) ListEntities(ctx context.Context, entity, filter string, startPosition, maxResults int) ([]json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.starts = append(f.starts, startPosition)

	all := f.records[entity]
	if startPosition-1 >= len(all) {
		return nil, nil
	}
	end := startPosition - 1 + maxResults
	if end > len(all) {
		end = len(all)
	}
	return all[startPosition-1 : end], nil
}

func (f *fakeClient) FetchReportSummary(ctx context.Context, report string, start, end time.Time, groupBy string) (*models.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Report{Header: models.ReportHeader{ReportName: report}}, nil
}

func (f *fakeClient) Authenticated() bool {
	return f.authenticated
}

func rawPurchases(n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = json.RawMessage(fmt.Sprintf(`{"Id": "%d", "TxnDate": "2024-01-01", "TotalAmt": 10}`, i+1))
	}
	return out
}

func TestFetcherPaginatesSequentially(t *testing.T) {
	client := &fakeClient{
		authenticated: true,
		records:       map[string][]json.RawMessage{models.EntityPurchase: rawPurchases(25)},
	}
	f := NewFetcher(client, 10, 1000, logging.NewNop())

	purchases, err := f.Purchases(context.Background())
	require.NoError(t, err)
	assert.Len(t, purchases, 25)
	// Start position advances strictly by page size; the short last page
	// ends the loop.
	assert.Equal(t, []int{1, 11, 21}, client.starts)
	assert.Equal(t, "1", purchases[0].ID)
	assert.Equal(t, "25", purchases[24].ID)
}

func TestFetcherStopsAtHardRowCap(t *testing.T) {
	client := &fakeClient{
		authenticated: true,
		records:       map[string][]json.RawMessage{models.EntityPurchase: rawPurchases(100)},
	}
	// maxRows 30 bounds the loop even though the upstream has more.
	f := NewFetcher(client, 10, 30, logging.NewNop())

	purchases, err := f.Purchases(context.Background())
	require.NoError(t, err)
	assert.Len(t, purchases, 30)
	assert.Equal(t, []int{1, 11, 21}, client.starts)
}

func TestFetcherPropagatesErrors(t *testing.T) {
	client := &fakeClient{authenticated: true, err: errors.New("boom")}
	f := NewFetcher(client, 10, 100, logging.NewNop())

	_, err := f.Purchases(context.Background())
	assert.Error(t, err)
}

func TestFetcherDecodeFailure(t *testing.T) {
	client := &fakeClient{
		authenticated: true,
		records: map[string][]json.RawMessage{
			models.EntityPurchase: {json.RawMessage(`{"Id": 42}`)}, // Id must be a string
		},
	}
	f := NewFetcher(client, 10, 100, logging.NewNop())

	_, err := f.Purchases(context.Background())
	assert.Error(t, err)
}

func TestExpenseCategoriesFiltersChartOfAccounts(t *testing.T) {
	client := &fakeClient{
		authenticated: true,
		records: map[string][]json.RawMessage{
			models.EntityAccount: {
				json.RawMessage(`{"Id": "64", "Name": "Office Supplies", "AccountType": "Expense", "Active": true}`),
				json.RawMessage(`{"Id": "65", "Name": "COGS", "AccountType": "Cost of Goods Sold", "Active": true}`),
				json.RawMessage(`{"Id": "66", "Name": "Old Travel", "AccountType": "Expense", "Active": false}`),
				json.RawMessage(`{"Id": "80", "Name": "Sales", "AccountType": "Income", "Active": true}`),
				json.RawMessage(`{"Id": "90", "Name": "Checking", "AccountType": "Bank", "Active": true}`),
			},
		},
	}
	f := NewFetcher(client, 10, 100, logging.NewNop())

	categories, err := f.ExpenseCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Office Supplies", categories[0].Name)
	assert.Equal(t, "COGS", categories[1].Name)
}

func TestMonthlyProfitAndLoss(t *testing.T) {
	client := &fakeClient{authenticated: true}
	f := NewFetcher(client, 10, 100, logging.NewNop())

	report, err := f.MonthlyProfitAndLoss(context.Background(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "ProfitAndLoss", report.Header.ReportName)
}
