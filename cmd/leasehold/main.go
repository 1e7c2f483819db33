package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leasehold",
	Short: "Jurisdiction-gated resource leasing with deadlock detection",
	Long: "leasehold guards in-memory resources behind a jurisdiction state machine: a resource\n" +
		"is either domestic (locally accessible) or leased out to a foreign holder for a bounded\n" +
		"time. A shared wait-for graph surfaces deadlocks between blocked holders.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
