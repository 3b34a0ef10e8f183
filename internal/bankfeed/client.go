// Package bankfeed is the source adapter for the bank-aggregation
// provider: cursor-based transaction sync per linked institution, plus
// the connection registry owning credential handles and sync cursors.
//
// The provider's amount convention is positive = money out of the
// account; the normalizer flips it into this system's convention.
package bankfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
	"ledgerlens/internal/pipelineerror"

	"github.com/cenkalti/backoff/v4"
)

// Client is the bank-feed source collaborator.
type Client interface {
	// ExchangePublicToken trades a one-time link token for a durable
	// access token.
	ExchangePublicToken(ctx context.Context, publicToken string) (string, error)

	// SyncTransactions returns the page of transactions added after the
	// cursor. An empty cursor starts from the beginning of history.
	SyncTransactions(ctx context.Context, accessToken, cursor string) (*models.SyncPage, error)

	// ListTransactions returns one offset-based page within a date range.
	ListTransactions(ctx context.Context, accessToken string, start, end time.Time, offset, count int) (*models.TransactionPage, error)

	// RemoveItem asks the provider to invalidate the credential.
	RemoveItem(ctx context.Context, accessToken string) error
}

// HTTPClient talks to the aggregation provider's JSON API.
type HTTPClient struct {
	baseURL  string
	clientID string
	secret   string
	httpc    *http.Client
	logger   logging.Logger
}

// NewHTTPClient builds a bank-feed client.
func NewHTTPClient(baseURL, clientID, secret string, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
		httpc:    &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
	}
}

// Authenticated reports whether provider credentials are configured.
func (c *HTTPClient) Authenticated() bool {
	return c.clientID != "" && c.secret != ""
}

func (c *HTTPClient) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.post(ctx, "/item/public_token/exchange", map[string]string{
		"public_token": publicToken,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("exchange returned empty access token")
	}
	return out.AccessToken, nil
}

func (c *HTTPClient) SyncTransactions(ctx context.Context, accessToken, cursor string) (*models.SyncPage, error) {
	var page models.SyncPage
	err := c.post(ctx, "/transactions/sync", map[string]string{
		"access_token": accessToken,
		"cursor":       cursor,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPClient) ListTransactions(ctx context.Context, accessToken string, start, end time.Time, offset, count int) (*models.TransactionPage, error) {
	var page models.TransactionPage
	err := c.post(ctx, "/transactions/get", map[string]interface{}{
		"access_token": accessToken,
		"start_date":   start.Format("2006-01-02"),
		"end_date":     end.Format("2006-01-02"),
		"options": map[string]int{
			"offset": offset,
			"count":  count,
		},
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPClient) RemoveItem(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/item/remove", map[string]string{
		"access_token": accessToken,
	}, &struct{}{})
}

// post performs one authenticated JSON POST, retrying transient
// failures with exponential backoff.
func (c *HTTPClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	if !c.Authenticated() {
		return pipelineerror.ErrNotAuthenticated
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", path, err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("PLAID-CLIENT-ID", c.clientID)
		req.Header.Set("PLAID-SECRET", c.secret)

		resp, err := c.httpc.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: bank feed returned %d", pipelineerror.ErrNotAuthenticated, resp.StatusCode))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("bank feed returned %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("bank feed returned %d", resp.StatusCode))
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding %s response: %w", path, err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(operation, policy)
}
