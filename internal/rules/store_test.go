package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlens/internal/kvstore"
	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
	"ledgerlens/internal/pipelineerror"
)

// memStore is an in-memory kvstore.Store with an injectable Put failure.
type memStore struct {
	data   map[string][]models.Rule
	putErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]models.Rule)}
}

func (m *memStore) Get(key string, out interface{}) (bool, error) {
	rules, ok := m.data[key]
	if !ok {
		return false, nil
	}
	*(out.(*[]models.Rule)) = rules
	return true, nil
}

func (m *memStore) Put(key string, value interface{}) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = value.([]models.Rule)
	return nil
}

func (m *memStore) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(newMemStore(), logging.NewNop())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestTeachUpsertsSamePatternPair(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Teach("Affiliate", models.PatternContains, "c1", "Affiliate Payouts")
	require.NoError(t, err)
	assert.Equal(t, "affiliate", first.Pattern)
	assert.Equal(t, 1, first.TimesUsed)
	assert.Equal(t, 1.0, first.Confidence)

	second, err := s.Teach("AFFILIATE", models.PatternContains, "c2", "Commissions")
	require.NoError(t, err)

	all := s.Rules()
	require.Len(t, all, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "c2", all[0].CategoryID)
	assert.Equal(t, "Commissions", all[0].CategoryName)
	assert.Equal(t, 2, all[0].TimesUsed)
}

func TestTeachDistinctPatternTypesCoexist(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Teach("amazon", models.PatternContains, "c1", "Shopping")
	require.NoError(t, err)
	_, err = s.Teach("amazon", models.PatternExact, "c2", "Marketplace")
	require.NoError(t, err)

	assert.Len(t, s.Rules(), 2)
}

func TestMatchModes(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Teach("wf direct pay", models.PatternStartsWith, "c1", "Banking")
	require.NoError(t, err)
	_, err = s.Teach("netflix.com", models.PatternExact, "c2", "Subscriptions")
	require.NoError(t, err)
	_, err = s.Teach("uber", models.PatternContains, "c3", "Travel")
	require.NoError(t, err)

	tests := []struct {
		name      string
		searchKey string
		wantCat   string
		wantMatch bool
	}{
		{"starts_with hit", "wf direct pay affiliate payout", "Banking", true},
		{"starts_with miss mid-string", "payment wf direct pay", "Travel", false},
		{"exact hit", "netflix.com", "Subscriptions", true},
		{"exact miss on superset", "netflix.com monthly", "", false},
		{"contains hit anywhere", "trip via uber bv amsterdam", "Travel", true},
		{"no match", "interest earned", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rule, ok := s.Match(tc.searchKey)
			if !tc.wantMatch && tc.wantCat == "" {
				assert.False(t, ok)
				return
			}
			if tc.wantMatch {
				require.True(t, ok)
				assert.Equal(t, tc.wantCat, rule.CategoryName)
			}
		})
	}
}

func TestMatchFirstInStoredOrderWins(t *testing.T) {
	s := newTestStore(t)

	// A contains rule taught before an exact rule: both match the key,
	// the earlier one wins. Matching never ranks by specificity.
	_, err := s.Teach("amazon", models.PatternContains, "c1", "Shopping")
	require.NoError(t, err)
	_, err = s.Teach("amazon mktplace", models.PatternExact, "c2", "Marketplace")
	require.NoError(t, err)

	all := s.Rules()
	require.Len(t, all, 2)
	require.Equal(t, models.PatternContains, all[0].PatternType)

	rule, ok := s.Match("amazon mktplace")
	require.True(t, ok)
	assert.Equal(t, "Shopping", rule.CategoryName)
}

func TestTeachPersistenceFailureIsFatal(t *testing.T) {
	mem := newMemStore()
	s, err := NewStore(mem, logging.NewNop())
	require.NoError(t, err)

	mem.putErr = errors.New("disk full")
	_, err = s.Teach("uber", models.PatternContains, "c1", "Travel")
	require.Error(t, err)

	var perr *pipelineerror.PersistenceError
	assert.ErrorAs(t, err, &perr)
	// The failed teach must not leak into the in-memory set either.
	assert.Empty(t, s.Rules())
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	rule, err := s.Teach("uber", models.PatternContains, "c1", "Travel")
	require.NoError(t, err)

	require.NoError(t, s.Delete(rule.ID))
	assert.Empty(t, s.Rules())

	// Unknown id is a no-op, not an error.
	assert.NoError(t, s.Delete("missing"))
}

func TestStoreRoundTripThroughFileStore(t *testing.T) {
	fileStore, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	s1, err := NewStore(fileStore, logging.NewNop())
	require.NoError(t, err)
	_, err = s1.Teach("uber", models.PatternContains, "c1", "Travel")
	require.NoError(t, err)

	s2, err := NewStore(fileStore, logging.NewNop())
	require.NoError(t, err)
	all := s2.Rules()
	require.Len(t, all, 1)
	assert.Equal(t, "uber", all[0].Pattern)
	assert.Equal(t, "Travel", all[0].CategoryName)
}
