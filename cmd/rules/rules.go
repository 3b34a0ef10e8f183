// Package rules lists and deletes learned categorization rules.
package rules

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledgerlens/cmd/root"
)

// Cmd represents the rules command group.
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage learned categorization rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listFunc(cmd, args)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in matching order",
	RunE:  listFunc,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <rule-id>",
	Short: "Delete a rule by id",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteFunc,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(deleteCmd)
}

func listFunc(cmd *cobra.Command, args []string) error {
	all := root.App().Rules().Rules()
	if len(all) == 0 {
		fmt.Println("No rules learned yet.")
		return nil
	}

	// Rules match first-come-first-served, so the listing order is the
	// matching order.
	for i, rule := range all {
		fmt.Printf("%3d. [%s] %-11s %-30q -> %-30s used=%d  %s\n",
			i+1, rule.ID, rule.PatternType, rule.Pattern, rule.CategoryName,
			rule.TimesUsed, rule.UpdatedAt.Format("2006-01-02"))
	}
	return nil
}

func deleteFunc(cmd *cobra.Command, args []string) error {
	if err := root.App().Rules().Delete(args[0]); err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}
	fmt.Printf("Deleted rule %s\n", args[0])
	return nil
}
