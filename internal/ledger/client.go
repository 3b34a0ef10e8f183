// Package ledger is the source adapter for the accounting ledger API:
// paginated entity queries and the monthly summary report. Pure I/O; it
// produces raw source-native record shapes for the normalizer.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
	"ledgerlens/internal/pipelineerror"

	"github.com/cenkalti/backoff/v4"
)

// Client is the ledger source collaborator. Implementations must
// deliver each page at least once and guarantee a stable Id per record.
type Client interface {
	// ListEntities runs a paginated entity query. startPosition is
	// 1-based; the returned slice holds raw records of the entity kind.
	ListEntities(ctx context.Context, entity, filter string, startPosition, maxResults int) ([]json.RawMessage, error)

	// FetchReportSummary fetches a summary report tree grouped by the
	// given period column.
	FetchReportSummary(ctx context.Context, report string, start, end time.Time, groupBy string) (*models.Report, error)

	// Authenticated reports whether a usable credential is configured.
	Authenticated() bool
}

// HTTPClient talks to the ledger API over HTTPS with bearer-token auth.
type HTTPClient struct {
	baseURL string
	realmID string
	token   string
	httpc   *http.Client
	logger  logging.Logger
}

// NewHTTPClient builds a ledger client for one company realm.
func NewHTTPClient(baseURL, realmID, token string, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		realmID: realmID,
		token:   token,
		httpc:   &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

func (c *HTTPClient) Authenticated() bool {
	return c.token != "" && c.realmID != ""
}

// queryResponse is the envelope of the entity query endpoint: one key
// per entity kind plus paging metadata.
type queryResponse struct {
	QueryResponse map[string]json.RawMessage `json:"QueryResponse"`
}

func (c *HTTPClient) ListEntities(ctx context.Context, entity, filter string, startPosition, maxResults int) ([]json.RawMessage, error) {
	if !c.Authenticated() {
		return nil, pipelineerror.ErrNotAuthenticated
	}

	query := fmt.Sprintf("SELECT * FROM %s", entity)
	if filter != "" {
		query += " WHERE " + filter
	}
	query += fmt.Sprintf(" STARTPOSITION %d MAXRESULTS %d", startPosition, maxResults)

	endpoint := fmt.Sprintf("%s/v3/company/%s/query?query=%s&minorversion=65",
		c.baseURL, url.PathEscape(c.realmID), url.QueryEscape(query))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var envelope queryResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding %s query response: %w", entity, err)
	}

	raw, ok := envelope.QueryResponse[entity]
	if !ok {
		// No key means no records in this page.
		return nil, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decoding %s records: %w", entity, err)
	}
	return records, nil
}

func (c *HTTPClient) FetchReportSummary(ctx context.Context, report string, start, end time.Time, groupBy string) (*models.Report, error) {
	if !c.Authenticated() {
		return nil, pipelineerror.ErrNotAuthenticated
	}

	params := url.Values{}
	params.Set("start_date", start.Format("2006-01-02"))
	params.Set("end_date", end.Format("2006-01-02"))
	if groupBy != "" {
		params.Set("summarize_column_by", groupBy)
	}

	endpoint := fmt.Sprintf("%s/v3/company/%s/reports/%s?%s",
		c.baseURL, url.PathEscape(c.realmID), url.PathEscape(report), params.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var tree models.Report
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, fmt.Errorf("decoding %s report: %w", report, err)
	}
	return &tree, nil
}

// get performs one GET with bearer auth, retrying transient failures
// with exponential backoff. Auth rejections and other client errors are
// permanent.
func (c *HTTPClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: ledger API returned %d", pipelineerror.ErrNotAuthenticated, resp.StatusCode))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("ledger API returned %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("ledger API returned %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}
