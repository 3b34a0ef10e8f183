// Package root contains the root command for the application.
package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledgerlens/internal/config"
	"ledgerlens/internal/container"
	"ledgerlens/internal/logging"
)

var app *container.Container

// Cmd is the root command.
var Cmd = &cobra.Command{
	Use:   "ledgerlens",
	Short: "Aggregate and categorize business transactions from ledger and bank-feed sources.",
	Long: `ledgerlens pulls transactions from the accounting ledger and linked
bank feeds, normalizes them into one canonical shape and categorizes
them with learned rules first and a generative classifier second.
Anything unresolved lands in a review queue.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv()

		cfg, err := config.InitializeConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		app, err = container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("wiring dependencies: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// App returns the wired dependency container. It is only valid inside a
// command Run, after PersistentPreRunE has executed.
func App() *container.Container {
	return app
}

// Log returns the application logger.
func Log() logging.Logger {
	return app.Logger()
}
