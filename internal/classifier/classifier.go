// Package classifier provides the probabilistic categorization
// collaborator: a generative model asked to pick one category from the
// candidate list for a transaction the deterministic rules could not
// resolve.
package classifier

import (
	"context"

	"ledgerlens/internal/models"
)

// Result is the structured classifier output. Unclear marks results
// whose confidence fell below the minimum threshold; callers treat them
// as a suggestion that always needs review.
type Result struct {
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
	Unclear      bool    `json:"-"`
}

// AIClient classifies a transaction against a candidate category list.
// A (nil, nil) return means "no suggestion": the model answered with
// something unusable, which is not an error for the caller.
type AIClient interface {
	Classify(ctx context.Context, tx models.Transaction, candidates []models.Category) (*Result, error)
}
