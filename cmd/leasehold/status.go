package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferrall/leasehold/pkg/client"
)

var daemonAddr string

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.PersistentFlags().StringVar(&daemonAddr, "addr", "http://127.0.0.1:8080", "Daemon base URL")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print jurisdiction and deadlock state of a running daemon",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	c := client.New(daemonAddr)

	status, err := c.Status(cmd.Context())
	if err != nil {
		return err
	}

	if len(status.Resources) == 0 {
		fmt.Println("no resources registered")
	}
	for _, res := range status.Resources {
		switch {
		case res.State == "domestic":
			fmt.Printf("%-20s domestic (epoch %d)\n", res.Name, res.Epoch)
		case res.Expired:
			fmt.Printf("%-20s foreign, EXPIRED, held by %s (epoch %d, reclaim required)\n",
				res.Name, res.HolderID, res.Epoch)
		default:
			fmt.Printf("%-20s foreign, held by %s for %.1fs more (epoch %d)\n",
				res.Name, res.HolderID, res.TTLRemainingSeconds, res.Epoch)
		}
	}

	if status.Deadlock.Detected {
		fmt.Println("\nDEADLOCK:")
		for _, chain := range status.Deadlock.Chains {
			fmt.Println("  " + chain)
		}
	} else {
		fmt.Println("\nno deadlock")
	}

	return nil
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "One-shot deadlock check; non-zero exit when a cycle exists",
	RunE:  runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
	c := client.New(daemonAddr)

	report, err := c.Deadlock(cmd.Context())
	if err != nil {
		return err
	}

	if !report.Detected {
		fmt.Printf("no deadlock (%d wait edges)\n", report.Edges)
		return nil
	}

	for _, chain := range report.Chains {
		fmt.Println(chain)
	}
	return fmt.Errorf("deadlock detected")
}
