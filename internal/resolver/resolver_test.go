package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlens/internal/classifier"
	"ledgerlens/internal/kvstore"
	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
	"ledgerlens/internal/rules"
)

type fakeSource struct {
	categories []models.Category
	err        error
	calls      int
}

func (f *fakeSource) ExpenseCategories(ctx context.Context) ([]models.Category, error) {
	f.calls++
	return f.categories, f.err
}

type fakeClassifier struct {
	result *classifier.Result
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(ctx context.Context, tx models.Transaction, candidates []models.Category) (*classifier.Result, error) {
	f.calls++
	return f.result, f.err
}

func newRuleStore(t *testing.T) *rules.Store {
	t.Helper()
	fileStore, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	s, err := rules.NewStore(fileStore, logging.NewNop())
	require.NoError(t, err)
	return s
}

func newTestResolver(t *testing.T, ruleStore *rules.Store, ai classifier.AIClient, source CategorySource) *Resolver {
	t.Helper()
	catalog := NewCategoryCatalog(source, time.Minute, logging.NewNop())
	return New(ruleStore, ai, catalog, Options{}, logging.NewNop())
}

func TestResolveRuleAutoApprovedSkipsClassifier(t *testing.T) {
	ruleStore := newRuleStore(t)
	_, err := ruleStore.Teach("affiliate", models.PatternContains, "c9", "Affiliate Payouts")
	require.NoError(t, err)

	ai := &fakeClassifier{result: &classifier.Result{CategoryName: "Wrong", Confidence: 0.99}}
	r := newTestResolver(t, ruleStore, ai, &fakeSource{})

	suggestion := r.Resolve(context.Background(), models.Transaction{
		ID:          "tx1",
		Description: "WF DIRECT PAY AFFILIATE PAYOUT",
	})

	require.NotNil(t, suggestion)
	assert.Equal(t, "Affiliate Payouts", suggestion.CategoryName)
	assert.True(t, suggestion.AutoApproved)
	assert.Equal(t, models.SuggestionSourceRule, suggestion.Source)
	assert.Equal(t, 0, ai.calls, "classifier must not run after an auto-approved rule match")
}

func TestResolveClassifierUnclearResult(t *testing.T) {
	ruleStore := newRuleStore(t)
	ai := &fakeClassifier{result: &classifier.Result{Confidence: 0.3, Reasoning: "unclear", Unclear: true}}
	source := &fakeSource{categories: []models.Category{{ID: "64", Name: "Office Supplies"}}}
	r := newTestResolver(t, ruleStore, ai, source)

	suggestion := r.Resolve(context.Background(), models.Transaction{
		ID:          "tx2",
		Description: "AMAZON MKTPLACE",
	})

	require.NotNil(t, suggestion)
	assert.False(t, suggestion.AutoApproved)
	assert.Equal(t, models.SuggestionSourceAI, suggestion.Source)
	assert.Empty(t, suggestion.CategoryName)
	assert.InDelta(t, 0.3, suggestion.Confidence, 1e-9)
}

func TestResolveClassifierNeverAutoApproves(t *testing.T) {
	ruleStore := newRuleStore(t)
	ai := &fakeClassifier{result: &classifier.Result{
		CategoryID: "64", CategoryName: "Office Supplies", Confidence: 0.99,
	}}
	source := &fakeSource{categories: []models.Category{{ID: "64", Name: "Office Supplies"}}}
	r := newTestResolver(t, ruleStore, ai, source)

	suggestion := r.Resolve(context.Background(), models.Transaction{ID: "tx3", Description: "STAPLES"})
	require.NotNil(t, suggestion)
	assert.False(t, suggestion.AutoApproved)
	assert.Equal(t, "Office Supplies", suggestion.CategoryName)
}

func TestResolveLowConfidenceRuleIsFallback(t *testing.T) {
	ruleStore := newRuleStore(t)
	_, err := ruleStore.Teach("uber", models.PatternContains, "c3", "Travel")
	require.NoError(t, err)
	// Drop the learned confidence below the auto-approve threshold.
	all := ruleStore.Rules()
	require.Len(t, all, 1)

	// Teach keeps confidence at 1.0, so exercise the fallback path with a
	// custom threshold above it instead.
	catalog := NewCategoryCatalog(&fakeSource{err: errors.New("unavailable")}, time.Minute, logging.NewNop())
	ai := &fakeClassifier{err: errors.New("quota exceeded")}
	r := New(ruleStore, ai, catalog, Options{AutoApproveThreshold: 1.01}, logging.NewNop())

	suggestion := r.Resolve(context.Background(), models.Transaction{ID: "tx4", Description: "UBER TRIP"})
	require.NotNil(t, suggestion)
	assert.Equal(t, "Travel", suggestion.CategoryName)
	assert.Equal(t, models.SuggestionSourceRule, suggestion.Source)
	assert.False(t, suggestion.AutoApproved)
}

func TestResolveClassifierFailureYieldsNil(t *testing.T) {
	ruleStore := newRuleStore(t)
	ai := &fakeClassifier{err: errors.New("timeout")}
	source := &fakeSource{categories: []models.Category{{ID: "64", Name: "Office Supplies"}}}
	r := newTestResolver(t, ruleStore, ai, source)

	suggestion := r.Resolve(context.Background(), models.Transaction{ID: "tx5", Description: "MYSTERY CHARGE"})
	assert.Nil(t, suggestion)
}

func TestResolveWithoutClassifier(t *testing.T) {
	ruleStore := newRuleStore(t)
	r := newTestResolver(t, ruleStore, nil, &fakeSource{})

	suggestion := r.Resolve(context.Background(), models.Transaction{ID: "tx6", Description: "MYSTERY"})
	assert.Nil(t, suggestion)
}

func TestResolveBatchContinuesPastFailures(t *testing.T) {
	ruleStore := newRuleStore(t)
	_, err := ruleStore.Teach("affiliate", models.PatternContains, "c9", "Affiliate Payouts")
	require.NoError(t, err)

	ai := &fakeClassifier{err: errors.New("quota exceeded")}
	source := &fakeSource{categories: []models.Category{{ID: "64", Name: "Office Supplies"}}}
	r := newTestResolver(t, ruleStore, ai, source)

	suggestions := r.ResolveBatch(context.Background(), []models.Transaction{
		{ID: "a", Description: "MYSTERY ONE"},
		{ID: "b", Description: "AFFILIATE PAYOUT"},
		{ID: "c", Description: "MYSTERY TWO"},
	})

	require.Len(t, suggestions, 3)
	assert.Nil(t, suggestions[0])
	require.NotNil(t, suggestions[1])
	assert.True(t, suggestions[1].AutoApproved)
	assert.Nil(t, suggestions[2])
}

func TestCategoryCatalogCachingAndFallback(t *testing.T) {
	source := &fakeSource{categories: []models.Category{{ID: "64", Name: "Office Supplies"}}}
	catalog := NewCategoryCatalog(source, time.Hour, logging.NewNop())

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	catalog.now = func() time.Time { return base }

	first, err := catalog.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, source.calls)

	// Within the ttl the cached list is reused.
	_, err = catalog.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)

	// Past the ttl a refresh happens; a failing refresh falls back to the
	// cached list instead of erroring.
	catalog.now = func() time.Time { return base.Add(2 * time.Hour) }
	source.err = errors.New("upstream down")
	again, err := catalog.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 2, source.calls)

	// Invalidate forces the next call to hit the source.
	source.err = nil
	catalog.Invalidate()
	_, err = catalog.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, source.calls)
}
