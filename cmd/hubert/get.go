// Copyright (C) 2025 hubert contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubert-project/hubert/envelope"
	"github.com/hubert-project/hubert/store"
)

var getTimeout time.Duration

var getCmd = &cobra.Command{
	Use:   "get <arid>",
	Short: "Fetch the value published under arid",
	Long: `Poll for a value published under arid until it appears or --timeout
elapses (spec.md §4.I). If the deadline passes without a value, prints
"not found" to stderr and exits non-zero.`,
	Example: `  hubert get --backend hybrid "$ARID"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().DurationVar(&getTimeout, "timeout", store.DefaultGetTimeout, "How long to poll before giving up")
}

func runGet(cmd *cobra.Command, args []string) error {
	arid, err := envelope.ParseARID(args[0])
	if err != nil {
		return fmt.Errorf("invalid ARID: %w", err)
	}

	backend, err := openBackend()
	if err != nil {
		return err
	}

	env, err := backend.Get(context.Background(), arid, store.GetOptions{
		Timeout: getTimeout,
		Verbose: verbose,
	})
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}
	if env == nil {
		fmt.Fprintln(os.Stderr, "not found")
		os.Exit(1)
	}

	fmt.Println(env.String())
	return nil
}
