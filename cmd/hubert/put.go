package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubert-project/hubert/envelope"
	"github.com/hubert-project/hubert/store"
)

var (
	putTTL time.Duration
	putPin bool
)

var putCmd = &cobra.Command{
	Use:   "put <arid> <value>",
	Short: "Publish value under arid (write-once)",
	Long: `Publish a string value under an existing ARID.

Put is write-once per backend: publishing a second value under an ARID
already used on that backend fails instead of overwriting it.`,
	Example: `  hubert put --backend hybrid $(hubert generate) "hello, rendezvous"`,
	Args:    cobra.ExactArgs(2),
	RunE:    runPut,
}

func init() {
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().DurationVar(&putTTL, "ttl", 0, "Requested time-to-live (ignored by backends without expiry, e.g. the DHT)")
	putCmd.Flags().BoolVar(&putPin, "pin", false, "Ask the IPFS backend to pin the published content")
}

func runPut(cmd *cobra.Command, args []string) error {
	arid, err := envelope.ParseARID(args[0])
	if err != nil {
		return fmt.Errorf("invalid ARID: %w", err)
	}

	backend, err := openBackend()
	if err != nil {
		return err
	}

	receipt, err := backend.Put(context.Background(), arid, envelope.New(args[1]), store.PutOptions{
		TTL:     putTTL,
		Pin:     putPin,
		Verbose: verbose,
	})
	if err != nil {
		return fmt.Errorf("put failed: %w", err)
	}

	fmt.Println(receipt)
	return nil
}
