// Package connections manages linked bank-feed connections.
package connections

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ledgerlens/cmd/root"
	"ledgerlens/internal/dateutils"
)

var (
	institution string
	publicToken string
	accountID   string
	startStr    string
	endStr      string
)

// Cmd represents the connections command group.
var Cmd = &cobra.Command{
	Use:   "connections",
	Short: "Manage linked bank-feed connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listFunc(cmd, args)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List linked connections",
	RunE:  listFunc,
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link a new institution from a public link token",
	RunE:  linkFunc,
}

var excludeCmd = &cobra.Command{
	Use:   "exclude <connection-id>",
	Short: "Exclude an institution account from aggregation",
	Args:  cobra.ExactArgs(1),
	RunE:  excludeFunc,
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <connection-id>",
	Short: "Remove a connection and invalidate its credential",
	Args:  cobra.ExactArgs(1),
	RunE:  disconnectFunc,
}

var transactionsCmd = &cobra.Command{
	Use:   "transactions <connection-id>",
	Short: "List a connection's transactions for a date range",
	Args:  cobra.ExactArgs(1),
	RunE:  transactionsFunc,
}

func init() {
	linkCmd.Flags().StringVarP(&institution, "institution", "i", "", "Institution display name")
	linkCmd.Flags().StringVarP(&publicToken, "public-token", "p", "", "One-time public link token")
	_ = linkCmd.MarkFlagRequired("institution")
	_ = linkCmd.MarkFlagRequired("public-token")

	excludeCmd.Flags().StringVarP(&accountID, "account", "a", "", "Institution account id to exclude")
	_ = excludeCmd.MarkFlagRequired("account")

	transactionsCmd.Flags().StringVar(&startStr, "start", "", "Range start (YYYY-MM-DD, default: 30 days ago)")
	transactionsCmd.Flags().StringVar(&endStr, "end", "", "Range end (YYYY-MM-DD, default: today)")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(linkCmd)
	Cmd.AddCommand(excludeCmd)
	Cmd.AddCommand(disconnectCmd)
	Cmd.AddCommand(transactionsCmd)
}

func listFunc(cmd *cobra.Command, args []string) error {
	conns := root.App().Registry().List()
	if len(conns) == 0 {
		fmt.Println("No bank connections linked.")
		return nil
	}

	for _, conn := range conns {
		lastSynced := "never"
		if !conn.LastSyncedAt.IsZero() {
			lastSynced = conn.LastSyncedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%s  %-30s linked=%s  last sync=%s  excluded accounts=%d\n",
			conn.ID, conn.InstitutionName, conn.CreatedAt.Format("2006-01-02"),
			lastSynced, len(conn.ExcludedAccounts))
	}
	return nil
}

func linkFunc(cmd *cobra.Command, args []string) error {
	app := root.App()
	conn, err := app.Registry().Link(cmd.Context(), app.BankService().Client(), institution, publicToken)
	if err != nil {
		return err
	}
	fmt.Printf("Linked %s as connection %s\n", conn.InstitutionName, conn.ID)
	return nil
}

func excludeFunc(cmd *cobra.Command, args []string) error {
	if err := root.App().Registry().ExcludeAccount(args[0], accountID); err != nil {
		return err
	}
	fmt.Printf("Excluded account %s on connection %s\n", accountID, args[0])
	return nil
}

func disconnectFunc(cmd *cobra.Command, args []string) error {
	app := root.App()
	if err := app.Registry().Disconnect(cmd.Context(), app.BankService().Client(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Disconnected %s\n", args[0])
	return nil
}

func transactionsFunc(cmd *cobra.Command, args []string) error {
	app := root.App()
	conn, ok := app.Registry().Get(args[0])
	if !ok {
		return fmt.Errorf("unknown connection %s", args[0])
	}

	end := time.Now()
	start := end.AddDate(0, 0, -30)
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

	items, err := app.BankService().ListRange(cmd.Context(), conn, start, end, app.Config().BankFeed.PageSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		fmt.Printf("%s  %-40s %12s\n", item.Date, item.Name, item.Amount.StringFixed(2))
	}
	fmt.Printf("%d transactions\n", len(items))
	return nil
}
