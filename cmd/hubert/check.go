package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hubert-project/hubert/envelope"
)

var checkCmd = &cobra.Command{
	Use:   "check <arid>",
	Short: "Probe whether a value exists under arid, without fetching it",
	Long: `Perform a single low-latency existence probe (spec.md §4.I Exists)
rather than a full polling fetch. Prints "yes" or "no" and exits non-zero
on "no".`,
	Example: `  hubert check --backend server "$ARID"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	arid, err := envelope.ParseARID(args[0])
	if err != nil {
		return fmt.Errorf("invalid ARID: %w", err)
	}

	backend, err := openBackend()
	if err != nil {
		return err
	}

	exists, err := backend.Exists(context.Background(), arid)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if exists {
		fmt.Println("yes")
		return nil
	}
	fmt.Println("no")
	os.Exit(1)
	return nil
}
