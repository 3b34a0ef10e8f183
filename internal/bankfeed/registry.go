package bankfeed

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ledgerlens/internal/kvstore"
	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
	"ledgerlens/internal/pipelineerror"

	"github.com/google/uuid"
)

const registryKey = "bank_connections"

// Registry owns the BankConnection lifecycle: created on successful
// link-token exchange, mutated on each sync, removed on explicit
// disconnect. All mutations are durable before they return.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]models.BankConnection
	store       kvstore.Store
	logger      logging.Logger
	now         func() time.Time
}

// NewRegistry loads persisted connections and returns the registry.
func NewRegistry(persistence kvstore.Store, logger logging.Logger) (*Registry, error) {
	r := &Registry{
		connections: make(map[string]models.BankConnection),
		store:       persistence,
		logger:      logger,
		now:         time.Now,
	}

	var persisted map[string]models.BankConnection
	found, err := persistence.Get(registryKey, &persisted)
	if err != nil {
		return nil, &pipelineerror.PersistenceError{Op: "get", Key: registryKey, Err: err}
	}
	if found {
		r.connections = persisted
		logger.WithField("count", len(persisted)).Debug("Loaded bank connections")
	}

	return r, nil
}

// persistLocked writes the full connection set. Callers hold the lock.
func (r *Registry) persistLocked() error {
	if err := r.store.Put(registryKey, r.connections); err != nil {
		return &pipelineerror.PersistenceError{Op: "put", Key: registryKey, Err: err}
	}
	return nil
}

// Link exchanges a public link token for an access token and registers
// the connection under a generated id.
func (r *Registry) Link(ctx context.Context, client Client, institutionName, publicToken string) (models.BankConnection, error) {
	accessToken, err := client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return models.BankConnection{}, fmt.Errorf("linking %s: %w", institutionName, err)
	}

	conn := models.BankConnection{
		ID:              uuid.NewString(),
		InstitutionName: institutionName,
		AccessToken:     accessToken,
		CreatedAt:       r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[conn.ID] = conn
	if err := r.persistLocked(); err != nil {
		delete(r.connections, conn.ID)
		return models.BankConnection{}, err
	}

	r.logger.WithFields(
		logging.Field{Key: "connection", Value: conn.ID},
		logging.Field{Key: "institution", Value: institutionName},
	).Info("Linked bank connection")
	return conn, nil
}

// List returns all connections ordered by creation time.
func (r *Registry) List() []models.BankConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.BankConnection, 0, len(r.connections))
	for _, conn := range r.connections {
		out = append(out, conn)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Get returns one connection by id.
func (r *Registry) Get(id string) (models.BankConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.connections[id]
	return conn, ok
}

// AdvanceCursor records a completed sync. The cursor only ever moves
// forward: an empty next cursor is rejected so a connection can never
// be rewound to full-history resync by a bad response.
func (r *Registry) AdvanceCursor(id, cursor string) error {
	if cursor == "" {
		return fmt.Errorf("refusing to rewind cursor for connection %s", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[id]
	if !ok {
		return fmt.Errorf("unknown connection %s", id)
	}

	previous := conn
	conn.Cursor = cursor
	conn.LastSyncedAt = r.now()
	r.connections[id] = conn
	if err := r.persistLocked(); err != nil {
		r.connections[id] = previous
		return err
	}
	return nil
}

// ExcludeAccount adds an institution account to the connection's
// excluded set; its transactions are omitted from aggregation.
func (r *Registry) ExcludeAccount(id, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[id]
	if !ok {
		return fmt.Errorf("unknown connection %s", id)
	}
	if conn.IsExcluded(accountID) {
		return nil
	}

	previous := conn
	conn.ExcludedAccounts = append(append([]string{}, conn.ExcludedAccounts...), accountID)
	r.connections[id] = conn
	if err := r.persistLocked(); err != nil {
		r.connections[id] = previous
		return err
	}
	return nil
}

// Disconnect removes a connection and asks the provider to invalidate
// the credential. Upstream invalidation is best-effort: its failure is
// logged but never blocks the local removal.
func (r *Registry) Disconnect(ctx context.Context, client Client, id string) error {
	r.mu.Lock()
	conn, ok := r.connections[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("unknown connection %s", id)
	}
	delete(r.connections, id)
	if err := r.persistLocked(); err != nil {
		r.connections[id] = conn
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	if client != nil {
		if err := client.RemoveItem(ctx, conn.AccessToken); err != nil {
			r.logger.WithError(err).WithField("connection", id).
				Warn("Upstream credential invalidation failed")
		}
	}

	r.logger.WithFields(
		logging.Field{Key: "connection", Value: id},
		logging.Field{Key: "institution", Value: conn.InstitutionName},
	).Info("Disconnected bank connection")
	return nil
}
