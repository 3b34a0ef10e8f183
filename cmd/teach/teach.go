// Package teach records a learned categorization rule.
package teach

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledgerlens/cmd/root"
	"ledgerlens/internal/models"
)

var (
	pattern      string
	patternType  string
	categoryID   string
	categoryName string
)

// Cmd represents the teach command.
var Cmd = &cobra.Command{
	Use:   "teach",
	Short: "Teach a categorization rule",
	Long: `Record a rule mapping a transaction text pattern to a category.
Teaching the same (pattern, type) pair again overwrites the target
category and bumps the rule's usage count instead of duplicating it.`,
	RunE: teachFunc,
}

func init() {
	Cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "Text fragment to match (lower-cased on save)")
	Cmd.Flags().StringVarP(&patternType, "type", "t", "contains", "Match type: exact, starts_with or contains")
	Cmd.Flags().StringVar(&categoryID, "category-id", "", "Target category id")
	Cmd.Flags().StringVarP(&categoryName, "category", "c", "", "Target category name")
	_ = Cmd.MarkFlagRequired("pattern")
	_ = Cmd.MarkFlagRequired("category")
}

func teachFunc(cmd *cobra.Command, args []string) error {
	rule, err := root.App().Rules().Teach(pattern, models.PatternType(patternType), categoryID, categoryName)
	if err != nil {
		return fmt.Errorf("saving rule: %w", err)
	}

	fmt.Printf("Rule %s: %q (%s) -> %s (used %d times)\n",
		rule.ID, rule.Pattern, rule.PatternType, rule.CategoryName, rule.TimesUsed)
	return nil
}
