// Package report prints the monthly profit-and-loss series.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ledgerlens/cmd/root"
	"ledgerlens/internal/aggregator"
	"ledgerlens/internal/dateutils"
)

var (
	startStr string
	endStr   string
	asJSON   bool
)

// Cmd represents the report command.
var Cmd = &cobra.Command{
	Use:   "report",
	Short: "Print the monthly profit and loss series",
	Long: `Fetch the ledger's monthly summary report for a period and print one
revenue/expenses/profit row per month.`,
	RunE: reportFunc,
}

func init() {
	Cmd.Flags().StringVar(&startStr, "start", "", "Period start (YYYY-MM-DD, default: 12 months ago)")
	Cmd.Flags().StringVar(&endStr, "end", "", "Period end (YYYY-MM-DD, default: today)")
	Cmd.Flags().BoolVar(&asJSON, "json", false, "Print the series as JSON")
}

func reportFunc(cmd *cobra.Command, args []string) error {
	end := time.Now()
	start := end.AddDate(-1, 0, 0)

	var err error
	if startStr != "" {
		if start, err = dateutils.ParseDate(startStr); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	if endStr != "" {
		if end, err = dateutils.ParseDate(endStr); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}

	tree, err := root.App().Fetcher().MonthlyProfitAndLoss(cmd.Context(), start, end)
	if err != nil {
		return err
	}

	series := aggregator.MonthlyProfitLossSeries(tree)
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(series)
	}

	fmt.Printf("%-20s %12s %12s %12s\n", "Month", "Revenue", "Expenses", "Profit")
	for _, month := range series {
		fmt.Printf("%-20s %12s %12s %12s\n",
			month.Month, month.Revenue.StringFixed(2),
			month.Expenses.StringFixed(2), month.Profit.StringFixed(2))
	}
	return nil
}
