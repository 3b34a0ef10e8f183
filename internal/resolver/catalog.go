package resolver

import (
	"context"
	"sync"
	"time"

	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
)

// CategorySource is the source of truth for candidate categories: the
// chart of accounts filtered to expense-bearing types.
type CategorySource interface {
	ExpenseCategories(ctx context.Context) ([]models.Category, error)
}

// CategoryCatalog caches the candidate category list with an explicit
// lastRefreshed timestamp and a caller-supplied staleness threshold,
// instead of ambient global state.
type CategoryCatalog struct {
	source CategorySource
	ttl    time.Duration
	logger logging.Logger

	mu            sync.Mutex
	categories    []models.Category
	lastRefreshed time.Time
	now           func() time.Time
}

// NewCategoryCatalog creates a catalog over the given source. ttl <= 0
// means every call refreshes.
func NewCategoryCatalog(source CategorySource, ttl time.Duration, logger logging.Logger) *CategoryCatalog {
	return &CategoryCatalog{
		source: source,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Categories returns the cached candidate list, refreshing it from the
// source when empty or stale. A failed refresh falls back to the last
// good list when one exists.
func (c *CategoryCatalog) Categories(ctx context.Context) ([]models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stale := c.lastRefreshed.IsZero() || c.now().Sub(c.lastRefreshed) > c.ttl
	if len(c.categories) > 0 && !stale {
		return c.categories, nil
	}

	fresh, err := c.source.ExpenseCategories(ctx)
	if err != nil {
		if len(c.categories) > 0 {
			c.logger.WithError(err).Warn("Category refresh failed, using cached list")
			return c.categories, nil
		}
		return nil, err
	}

	c.categories = fresh
	c.lastRefreshed = c.now()
	c.logger.WithField("count", len(fresh)).Debug("Refreshed candidate categories")
	return c.categories, nil
}

// Invalidate forces the next Categories call to refresh.
func (c *CategoryCatalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRefreshed = time.Time{}
}
