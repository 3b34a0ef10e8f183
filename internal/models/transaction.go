// Package models defines the canonical entities shared across the
// aggregation pipeline: the normalized Transaction, categories, learned
// rules, bank connections and the raw source-record shapes they are
// built from.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SourceSystem identifies which upstream collaborator a transaction
// originated from.
type SourceSystem string

const (
	SourceLedger   SourceSystem = "ledger"
	SourceBankFeed SourceSystem = "bank_feed"
)

// TransactionKind classifies a transaction as money leaving or entering
// the business. It is derived from source semantics, not only from the
// amount sign: a vendor credit is positive but stays in the expense bucket.
type TransactionKind string

const (
	KindExpense TransactionKind = "expense"
	KindIncome  TransactionKind = "income"
)

// SuggestionSource records the provenance of a confidence value.
type SuggestionSource string

const (
	SuggestionSourceRule SuggestionSource = "learned_rule"
	SuggestionSourceAI   SuggestionSource = "ai"
)

// Transaction is the canonical, source-independent transaction shape.
// Amounts are signed: strictly negative for money leaving the business,
// strictly positive for money received, regardless of the source's own
// sign convention.
type Transaction struct {
	ID               string          `json:"id" yaml:"id"`
	SourceSystem     SourceSystem    `json:"source_system" yaml:"source_system"`
	SourceType       string          `json:"source_type" yaml:"source_type"`
	Date             time.Time       `json:"date" yaml:"date"`
	Description      string          `json:"description" yaml:"description"`
	CounterpartyName string          `json:"counterparty_name,omitempty" yaml:"counterparty_name,omitempty"`
	Amount           decimal.Decimal `json:"amount" yaml:"amount"`
	Kind             TransactionKind `json:"kind" yaml:"kind"`
	Category         string          `json:"category" yaml:"category"`
	CategoryID       string          `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	NeedsReview      bool            `json:"needs_review" yaml:"needs_review"`
	IsPayroll        bool            `json:"is_payroll,omitempty" yaml:"is_payroll,omitempty"`

	// Confidence of the current categorization, 0.0-1.0, with provenance.
	// Zero value with empty source means no resolution has been attempted.
	Confidence       float64          `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	ConfidenceSource SuggestionSource `json:"confidence_source,omitempty" yaml:"confidence_source,omitempty"`
}

// SearchKey builds the lower-cased text the rule matcher scans: the
// description concatenated with the counterparty name.
func (t Transaction) SearchKey() string {
	key := t.Description
	if t.CounterpartyName != "" {
		key += " " + t.CounterpartyName
	}
	return strings.ToLower(strings.TrimSpace(key))
}

// IsExpense returns true if the transaction is in the expense bucket.
func (t Transaction) IsExpense() bool {
	return t.Kind == KindExpense
}

// uncategorizedKeywords flag category names that carry no real
// categorization decision and therefore require human review.
var uncategorizedKeywords = []string{
	"uncategorized",
	"ask my accountant",
	"undeposited",
}

// IsUncategorizedName reports whether a category name is one of the
// generic placeholder categories (case-insensitive substring match).
func IsUncategorizedName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range uncategorizedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Suggestion is a proposed category for a transaction with provenance
// and confidence. AutoApproved is only ever set by the learned-rule path
// when confidence clears the auto-approve threshold; classifier-sourced
// suggestions always require human confirmation.
type Suggestion struct {
	CategoryID   string           `json:"category_id,omitempty"`
	CategoryName string           `json:"category_name"`
	Confidence   float64          `json:"confidence"`
	Source       SuggestionSource `json:"source"`
	AutoApproved bool             `json:"auto_approved"`
	Reasoning    string           `json:"reasoning,omitempty"`
}
