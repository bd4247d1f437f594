package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hubert-project/hubert/envelope"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new random ARID",
	Long: `Generate a new 32-byte Apparently Random IDentifier (ARID).

The returned ARID is the capability used to derive every backend's
per-payload key material (spec.md §3). Anyone holding it can Put once and
Get repeatedly; losing it makes the published value unreachable.`,
	Example: `  hubert generate`,
	RunE:    runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	arid, err := envelope.NewARID()
	if err != nil {
		return fmt.Errorf("generate ARID: %w", err)
	}
	fmt.Println(arid.String())
	return nil
}
