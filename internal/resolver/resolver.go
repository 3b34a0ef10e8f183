// Package resolver implements the tiered category resolution policy:
// learned rules first, the probabilistic classifier second, the review
// queue last. Deterministic rules are cheap and auditable, so they
// dominate; classifier output never bypasses human confirmation.
package resolver

import (
	"context"

	"ledgerlens/internal/classifier"
	"ledgerlens/internal/logging"
	"ledgerlens/internal/models"
	"ledgerlens/internal/rules"
)

// DefaultAutoApproveThreshold is the rule confidence at or above which a
// match is returned immediately without consulting the classifier.
const DefaultAutoApproveThreshold = 0.95

// Options tune the resolver.
type Options struct {
	AutoApproveThreshold float64
}

// Resolver resolves a category suggestion for a normalized transaction
// by running a fixed, ordered chain of strategies.
type Resolver struct {
	rules     *rules.Store
	ai        classifier.AIClient // nil when AI is disabled
	catalog   *CategoryCatalog
	threshold float64
	logger    logging.Logger
}

// New creates a resolver. ai may be nil, in which case unresolved
// transactions go straight to review.
func New(ruleStore *rules.Store, ai classifier.AIClient, catalog *CategoryCatalog, opts Options, logger logging.Logger) *Resolver {
	threshold := opts.AutoApproveThreshold
	if threshold <= 0 {
		threshold = DefaultAutoApproveThreshold
	}
	return &Resolver{
		rules:     ruleStore,
		ai:        ai,
		catalog:   catalog,
		threshold: threshold,
		logger:    logger,
	}
}

// Resolve returns a categorization suggestion for the transaction, or
// nil when neither a rule nor the classifier produced one. The first
// rule in stored order wins; a rule at or above the auto-approve
// threshold short-circuits and the classifier is never invoked. A rule
// below the threshold is kept as a fallback while the classifier is
// tried. Classifier failures and malformed output are logged and treated
// as "no suggestion", never as errors.
func (r *Resolver) Resolve(ctx context.Context, tx models.Transaction) *models.Suggestion {
	searchKey := tx.SearchKey()

	var fallback *models.Suggestion
	if rule, ok := r.rules.Match(searchKey); ok {
		suggestion := &models.Suggestion{
			CategoryID:   rule.CategoryID,
			CategoryName: rule.CategoryName,
			Confidence:   rule.Confidence,
			Source:       models.SuggestionSourceRule,
		}
		if rule.Confidence >= r.threshold {
			suggestion.AutoApproved = true
			r.logger.WithFields(
				logging.Field{Key: "transaction", Value: tx.ID},
				logging.Field{Key: "pattern", Value: rule.Pattern},
				logging.Field{Key: "category", Value: rule.CategoryName},
			).Debug("Rule match auto-approved")
			return suggestion
		}
		fallback = suggestion
	}

	if result := r.classify(ctx, tx); result != nil {
		return &models.Suggestion{
			CategoryID:   result.CategoryID,
			CategoryName: result.CategoryName,
			Confidence:   result.Confidence,
			Source:       models.SuggestionSourceAI,
			Reasoning:    result.Reasoning,
			// Classifier suggestions always require human confirmation,
			// whatever confidence they report.
			AutoApproved: false,
		}
	}

	return fallback
}

// ResolveBatch resolves a sequence one item at a time in the given
// order. Classifier calls are rate- and cost-sensitive external calls,
// so they are deliberately not parallelized. One item failing never
// fails the batch; its slot is nil.
func (r *Resolver) ResolveBatch(ctx context.Context, txs []models.Transaction) []*models.Suggestion {
	suggestions := make([]*models.Suggestion, len(txs))
	for i, tx := range txs {
		suggestions[i] = r.Resolve(ctx, tx)
	}
	return suggestions
}

func (r *Resolver) classify(ctx context.Context, tx models.Transaction) *classifier.Result {
	if r.ai == nil {
		return nil
	}

	candidates, err := r.catalog.Categories(ctx)
	if err != nil {
		r.logger.WithError(err).WithField("transaction", tx.ID).
			Warn("No candidate categories available, skipping classifier")
		return nil
	}

	result, err := r.ai.Classify(ctx, tx, candidates)
	if err != nil {
		r.logger.WithError(err).WithField("transaction", tx.ID).
			Warn("Classifier call failed, treating as no suggestion")
		return nil
	}
	return result
}
