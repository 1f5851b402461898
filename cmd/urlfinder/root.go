package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for URLFinder.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "urlfinder",
		Short: "Extract URLs, JavaScript and sensitive strings from web pages",
		Long: `URLFinder is a reconnaissance crawler for web targets.

It fetches each seed URL, extracts page URLs, JavaScript asset URLs and
sensitive-looking strings (tokens, keys, API paths) from the response, and
optionally generates fuzz candidates next to what it found.

Results are written as JSON, CSV, HTML, Markdown or XLSX reports and every
run is kept in a local history database for later comparison.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
