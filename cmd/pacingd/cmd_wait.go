/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	waitBucket string
	waitAt     string
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Print the wait period for an order placed now or at --at",
	Long: `Query the busy periods of one bucket and print how long an order must wait.

Examples:
  pacingd wait --bucket store-1:loc-9
  pacingd wait --bucket store-1:loc-9 --at 2026-10-14T12:30:00Z
`,
	RunE: runWait,
}

func init() {
	waitCmd.Flags().StringVar(&waitBucket, "bucket", "", "Bucket (store/location) to query")
	waitCmd.Flags().StringVar(&waitAt, "at", "", "RFC3339 instant, defaults to now")
	_ = waitCmd.MarkFlagRequired("bucket")
	rootCmd.AddCommand(waitCmd)
}

func runWait(cmd *cobra.Command, args []string) error {
	at := time.Now()
	if waitAt != "" {
		parsed, err := time.Parse(time.RFC3339, waitAt)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
		at = parsed
	}

	if err := loadConfig(); err != nil {
		return err
	}
	e, release, err := openEngine(cmd.Context(), waitBucket)
	if err != nil {
		return err
	}
	defer release()

	wait, err := e.ValidateOrderTime(cmd.Context(), at)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(wait)
}
