// Package main provides the entry point for the granulewatch CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opera-sds/granulewatch/cmd/granulewatch/commands"
	"github.com/opera-sds/granulewatch/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "granulewatch",
		Short: "OPERA product monitoring against the NASA CMR archive",
		Long: `Granulewatch monitors OPERA product generation in the NASA CMR archive.

Commands:
  map       Map Sentinel-1 granules to RTC-S1 products
  latency   Measure production latency per product type
  daily     Count products per day per collection
  dupes     Find duplicate and orphaned DSWx-HLS production`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	// Add commands.
	rootCmd.AddCommand(commands.NewMapCommand())
	rootCmd.AddCommand(commands.NewLatencyCommand())
	rootCmd.AddCommand(commands.NewDailyCommand())
	rootCmd.AddCommand(commands.NewDupesCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "granulewatch %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
