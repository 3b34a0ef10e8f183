package models

import (
	"strings"
	"time"
)

// PatternType controls how a rule pattern is matched against a
// transaction search key.
type PatternType string

const (
	PatternExact      PatternType = "exact"
	PatternStartsWith PatternType = "starts_with"
	PatternContains   PatternType = "contains"
)

// NormalizePatternType maps unknown or empty pattern types to the
// default contains match.
func NormalizePatternType(pt PatternType) PatternType {
	switch pt {
	case PatternExact, PatternStartsWith:
		return pt
	}
	return PatternContains
}

// Rule is a learned deterministic pattern-to-category mapping. At most
// one rule exists per (pattern, pattern type) pair; teaching the same
// pair again updates the rule in place.
type Rule struct {
	ID           string      `json:"id" yaml:"id"`
	Pattern      string      `json:"pattern" yaml:"pattern"`
	PatternType  PatternType `json:"pattern_type" yaml:"pattern_type"`
	CategoryID   string      `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	CategoryName string      `json:"category_name" yaml:"category_name"`
	Confidence   float64     `json:"confidence" yaml:"confidence"`
	TimesUsed    int         `json:"times_used" yaml:"times_used"`
	CreatedAt    time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" yaml:"updated_at"`
}

// Matches reports whether the rule applies to the given search key.
// The key is expected to be lower-cased already; patterns are stored
// lower-cased by the store.
func (r Rule) Matches(searchKey string) bool {
	switch r.PatternType {
	case PatternExact:
		return searchKey == r.Pattern
	case PatternStartsWith:
		return strings.HasPrefix(searchKey, r.Pattern)
	default:
		return strings.Contains(searchKey, r.Pattern)
	}
}
