// Package main provides the entry point for the ledgerlens CLI.
package main

import (
	"os"

	"ledgerlens/cmd/aggregate"
	"ledgerlens/cmd/connections"
	"ledgerlens/cmd/report"
	"ledgerlens/cmd/root"
	"ledgerlens/cmd/rules"
	"ledgerlens/cmd/teach"
)

func main() {
	root.Cmd.AddCommand(aggregate.Cmd)
	root.Cmd.AddCommand(teach.Cmd)
	root.Cmd.AddCommand(rules.Cmd)
	root.Cmd.AddCommand(connections.Cmd)
	root.Cmd.AddCommand(report.Cmd)

	if err := root.Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
