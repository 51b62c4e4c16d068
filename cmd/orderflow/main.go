package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "orderflow",
		Short: "T-shirt order customization and dynamic pricing",
		Long: `orderflow processes custom t-shirt orders through a two-stage
pipeline: customization validates the chosen options, then pricing
computes a dynamic estimated cost.

Serve the order form over HTTP, or run a batch of orders from a CSV
file with live per-order progress.`,
		Version: version,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
}
