package bankfeed

import (
	"context"
	"time"

	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
)

// Service drives the sync loop for linked connections.
type Service struct {
	client   Client
	registry *Registry
	maxPages int
	logger   logging.Logger
}

// NewService creates a sync service. maxPages bounds the cursor loop so
// it terminates even if the provider never reports has_more = false.
func NewService(client Client, registry *Registry, maxPages int, logger logging.Logger) *Service {
	if maxPages <= 0 {
		maxPages = 40
	}
	return &Service{
		client:   client,
		registry: registry,
		maxPages: maxPages,
		logger:   logger,
	}
}

// Registry exposes the connection registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Client exposes the underlying provider client, used by link and
// disconnect flows that talk to the provider directly.
func (s *Service) Client() Client {
	return s.client
}

// ListRange fetches all transactions for a connection within a date
// range through the offset-based listing endpoint. The offset advances
// strictly; the reported total bounds the loop alongside maxPages.
func (s *Service) ListRange(ctx context.Context, conn models.BankConnection, start, end time.Time, pageSize int) ([]models.BankTransaction, error) {
	if pageSize <= 0 {
		pageSize = 250
	}

	var items []models.BankTransaction
	for page := 0; page < s.maxPages; page++ {
		result, err := s.client.ListTransactions(ctx, conn.AccessToken, start, end, len(items), pageSize)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Transactions...)
		if len(result.Transactions) < pageSize || len(items) >= result.Total {
			break
		}
	}
	return items, nil
}

// Sync pulls all pages added since the connection's cursor, advances
// the cursor past the consumed pages and returns the upstream items.
// Pages are fetched sequentially; the cursor moves strictly forward.
func (s *Service) Sync(ctx context.Context, conn models.BankConnection) ([]models.BankTransaction, error) {
	var items []models.BankTransaction

	cursor := conn.Cursor
	for page := 0; page < s.maxPages; page++ {
		result, err := s.client.SyncTransactions(ctx, conn.AccessToken, cursor)
		if err != nil {
			return nil, err
		}

		items = append(items, result.Added...)
		if result.NextCursor != "" {
			cursor = result.NextCursor
		}
		if !result.HasMore {
			break
		}
	}

	if cursor != conn.Cursor && cursor != "" {
		if err := s.registry.AdvanceCursor(conn.ID, cursor); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(
		logging.Field{Key: "connection", Value: conn.ID},
		logging.Field{Key: "institution", Value: conn.InstitutionName},
		logging.Field{Key: "added", Value: len(items)},
	).Debug("Synced bank connection")

	return items, nil
}
