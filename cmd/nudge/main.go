package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:     "nudge",
	Short:   "Local voice reminder daemon",
	Long:    "nudge keeps reminders in a local SQLite store, watches for due ones,\nand alerts with a ringtone. Reminders come in through natural-language\ncommands (typed or spoken), the CLI, the HTTP API, or MCP tooling.",
	Version: version,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		startCmd,
		stopCmd,
		statusCmd,
		addCmd,
		listCmd,
		doneCmd,
		rmCmd,
		sayCmd,
		listenCmd,
		ringtonesCmd,
		configCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
