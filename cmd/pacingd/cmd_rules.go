/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/friendsincode/orderpacing/internal/models"
	"github.com/friendsincode/orderpacing/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect pacing rule documents",
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a YAML or JSON rules document",
	Long: `Parse and validate a rules document without starting the server.

Examples:
  pacingd rules validate deploy/rules.yaml
`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesValidate,
}

func init() {
	rulesCmd.AddCommand(rulesValidateCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	set, err := rules.LoadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d rule(s) valid\n", args[0], set.Len())
	for _, def := range set.Definitions() {
		fmt.Fprintf(out, "  %s\n", describeRule(def))
	}
	return nil
}

func describeRule(def models.PacingRule) string {
	parts := []string{
		fmt.Sprintf("%s: window %dm, busy %dm", def.RuleID, def.TimeFrameMinutes, def.BusyTimeMinutes),
	}
	if def.MaxOrders != nil {
		parts = append(parts, fmt.Sprintf("maxOrders=%d", *def.MaxOrders))
	}
	if def.MaxItems != nil {
		parts = append(parts, fmt.Sprintf("maxItems=%d", *def.MaxItems))
	}
	if def.MaxAmountCents != nil {
		parts = append(parts, fmt.Sprintf("maxAmountCents=%g", *def.MaxAmountCents))
	}
	if len(def.CategoryIDs) > 0 {
		parts = append(parts, "categories="+strings.Join(def.CategoryIDs, ","))
	}
	if def.StartTime != "" || def.EndTime != "" {
		parts = append(parts, fmt.Sprintf("hours=%s-%s", def.StartTime, def.EndTime))
	}
	return strings.Join(parts, " ")
}
