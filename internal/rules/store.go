// Package rules implements the learned-rule store: an ordered list of
// deterministic pattern-to-category mappings, grown from explicit teach
// actions and consulted by the category resolver.
package rules

import (
	"strings"
	"sync"
	"time"

	"ledgerlens/internal/kvstore"
	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
	"ledgerlens/internal/pipelineerror"

	"github.com/google/uuid"
)

const storeKey = "rules"

// Store owns all rules. Teach and Delete are atomic with respect to
// concurrent Match calls: a reader sees the pre- or post-update rule
// set, never a partially written rule. Both must be durable before
// they return success.
type Store struct {
	mu     sync.RWMutex
	rules  []models.Rule
	store  kvstore.Store
	logger logging.Logger
	now    func() time.Time
}

// NewStore loads any persisted rules and returns the store. A missing
// document means an empty rule set, not an error.
func NewStore(persistence kvstore.Store, logger logging.Logger) (*Store, error) {
	s := &Store{
		store:  persistence,
		logger: logger,
		now:    time.Now,
	}

	var persisted []models.Rule
	found, err := persistence.Get(storeKey, &persisted)
	if err != nil {
		return nil, &pipelineerror.PersistenceError{Op: "get", Key: storeKey, Err: err}
	}
	if found {
		s.rules = persisted
		logger.WithField("count", len(persisted)).Debug("Loaded rules")
	}

	return s, nil
}

// Rules returns a snapshot of the rule list in stored order.
func (s *Store) Rules() []models.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Match scans rules in stored order and returns the first one matching
// the search key. It never ranks by specificity; authoring order decides.
func (s *Store) Match(searchKey string) (models.Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.rules {
		if r.Matches(searchKey) {
			return r, true
		}
	}
	return models.Rule{}, false
}

// Teach learns a pattern-to-category mapping. The pattern is normalized
// to lower case; an existing rule for the same (pattern, pattern type)
// pair is updated in place with the new category and a bumped usage
// counter instead of being duplicated. The result is durable before
// Teach returns.
func (s *Store) Teach(pattern string, patternType models.PatternType, categoryID, categoryName string) (models.Rule, error) {
	normalized := strings.ToLower(strings.TrimSpace(pattern))
	patternType = models.NormalizePatternType(patternType)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	updated := make([]models.Rule, len(s.rules))
	copy(updated, s.rules)

	idx := -1
	for i, r := range updated {
		if r.Pattern == normalized && r.PatternType == patternType {
			idx = i
			break
		}
	}

	var rule models.Rule
	if idx >= 0 {
		rule = updated[idx]
		rule.CategoryID = categoryID
		rule.CategoryName = categoryName
		rule.TimesUsed++
		rule.UpdatedAt = now
		updated[idx] = rule
	} else {
		rule = models.Rule{
			ID:           uuid.NewString(),
			Pattern:      normalized,
			PatternType:  patternType,
			CategoryID:   categoryID,
			CategoryName: categoryName,
			Confidence:   1.0,
			TimesUsed:    1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		updated = append(updated, rule)
	}

	if err := s.store.Put(storeKey, updated); err != nil {
		return models.Rule{}, &pipelineerror.PersistenceError{Op: "put", Key: storeKey, Err: err}
	}
	s.rules = updated

	s.logger.WithFields(
		logging.Field{Key: "pattern", Value: normalized},
		logging.Field{Key: "pattern_type", Value: string(patternType)},
		logging.Field{Key: "category", Value: categoryName},
		logging.Field{Key: "times_used", Value: rule.TimesUsed},
	).Info("Learned categorization rule")

	return rule, nil
}

// Delete removes a rule unconditionally. Already-classified transactions
// are not retroactively changed. Deleting an unknown id is a no-op.
func (s *Store) Delete(ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]models.Rule, 0, len(s.rules))
	removed := false
	for _, r := range s.rules {
		if r.ID == ruleID {
			removed = true
			continue
		}
		updated = append(updated, r)
	}
	if !removed {
		return nil
	}

	if err := s.store.Put(storeKey, updated); err != nil {
		return &pipelineerror.PersistenceError{Op: "put", Key: storeKey, Err: err}
	}
	s.rules = updated

	s.logger.WithField("rule_id", ruleID).Info("Deleted categorization rule")
	return nil
}
