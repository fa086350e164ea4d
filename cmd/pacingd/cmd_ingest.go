/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/friendsincode/orderpacing/internal/models"
)

var ingestBucket string

var ingestCmd = &cobra.Command{
	Use:   "ingest <order.json>",
	Short: "Ingest one order from a JSON file",
	Long: `Store an order and evaluate the configured rules, then print the bucket's
busy periods. Useful for replaying orders against a rules file.

Examples:
  PACING_STORE=memory PACING_RULES_FILE=rules.yaml pacingd ingest --bucket demo order.json
`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestBucket, "bucket", "", "Bucket (store/location) to ingest into")
	_ = ingestCmd.MarkFlagRequired("bucket")
	rootCmd.AddCommand(ingestCmd)
}

func readOrder(path string, now time.Time) (models.Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Order{}, fmt.Errorf("read order: %w", err)
	}
	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return models.Order{}, fmt.Errorf("decode order: %w", err)
	}
	if order.OrderID == "" {
		order.OrderID = uuid.NewString()
	}
	if order.OrderTime.IsZero() {
		order.OrderTime = now
	}
	if order.Source != "" && !order.Source.Valid() {
		return models.Order{}, fmt.Errorf("unknown order source %q", order.Source)
	}
	return order, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	order, err := readOrder(args[0], time.Now())
	if err != nil {
		return err
	}

	if err := loadConfig(); err != nil {
		return err
	}
	e, release, err := openEngine(cmd.Context(), ingestBucket)
	if err != nil {
		return err
	}
	defer release()

	if err := e.Add(cmd.Context(), order); err != nil {
		return err
	}
	periods, err := e.GetBusyTimes(cmd.Context())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"orderId":   order.OrderID,
		"busyTimes": periods,
	})
}
