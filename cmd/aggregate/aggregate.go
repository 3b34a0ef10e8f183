// Package aggregate runs one full aggregation over all sources.
package aggregate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ledgerlens/cmd/root"
	"ledgerlens/internal/aggregator"
)

var (
	asJSON     bool
	reviewOnly bool
)

// Cmd represents the aggregate command.
var Cmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Fetch, normalize and categorize transactions from all sources",
	Long: `Fetch all transaction records from the ledger and every linked bank
feed, normalize them into the canonical shape, resolve categories and
print the aggregated result.`,
	RunE: aggregateFunc,
}

func init() {
	Cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full transaction list as JSON")
	Cmd.Flags().BoolVar(&reviewOnly, "review", false, "Print only the review queue")
}

func aggregateFunc(cmd *cobra.Command, args []string) error {
	result, err := root.App().Pipeline().Run(cmd.Context())
	if err != nil {
		return err
	}

	transactions := result.Transactions
	if reviewOnly {
		transactions = aggregator.ReviewQueue(transactions)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(transactions)
	}

	summary := aggregator.Summarize(result.Transactions)
	fmt.Printf("Transactions: %d\n", len(result.Transactions))
	fmt.Printf("Income:       %s\n", summary.Income.StringFixed(2))
	fmt.Printf("Expenses:     %s\n", summary.Expenses.StringFixed(2))
	fmt.Printf("Net:          %s\n", summary.Net.StringFixed(2))

	fmt.Println("\nExpenses by category:")
	for _, total := range aggregator.CategoryTotals(result.Transactions) {
		fmt.Printf("  %-40s %12s  (%d)\n", total.Category, total.Total.StringFixed(2), total.Count)
	}

	queue := aggregator.ReviewQueue(result.Transactions)
	fmt.Printf("\nNeeds review: %d\n", len(queue))
	for _, tx := range queue {
		fmt.Printf("  %s  %-12s %-40s %12s\n",
			tx.Date.Format("2006-01-02"), tx.ID, tx.Description, tx.Amount.StringFixed(2))
	}

	if len(result.Diagnostics) > 0 {
		fmt.Println("\nDegraded sources:")
		for _, d := range result.Diagnostics {
			fmt.Printf("  %s/%s: %s\n", d.Source, d.Entity, d.Error)
		}
	}
	return nil
}
