/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package pacing

import (
	"fmt"
	"strings"

	"github.com/friendsincode/orderpacing/internal/models"
)

// TimeframeMode positions a rule's window relative to an order's time. The
// mode is engine-wide.
type TimeframeMode string

const (
	ModeBeforeOnly     TimeframeMode = "before_only" // [T-F, T]
	ModeAfterOnly      TimeframeMode = "after_only"  // [T, T+F]
	ModeCentered       TimeframeMode = "centered"    // [T-F/2, T+F/2]
	ModeBeforeAndAfter TimeframeMode = "before_and_after"
)

// ParseTimeframeMode accepts the mode names case-insensitively; empty selects
// ModeBeforeOnly.
func ParseTimeframeMode(value string) (TimeframeMode, error) {
	mode := TimeframeMode(strings.ToLower(strings.TrimSpace(value)))
	switch mode {
	case "":
		return ModeBeforeOnly, nil
	case ModeBeforeOnly, ModeAfterOnly, ModeCentered, ModeBeforeAndAfter:
		return mode, nil
	}
	return "", fmt.Errorf("unknown timeframe mode %q", value)
}

// Window returns the inclusive window for an order at orderSeconds and a rule
// frame of frameSeconds. ModeBeforeAndAfter uses the full frame on each side.
func Window(orderSeconds, frameSeconds int64, mode TimeframeMode) models.TimeWindow {
	switch mode {
	case ModeAfterOnly:
		return models.TimeWindow{Start: orderSeconds, End: orderSeconds + frameSeconds}
	case ModeCentered:
		half := frameSeconds / 2
		return models.TimeWindow{Start: orderSeconds - half, End: orderSeconds + half}
	case ModeBeforeAndAfter:
		return models.TimeWindow{Start: orderSeconds - frameSeconds, End: orderSeconds + frameSeconds}
	default:
		return models.TimeWindow{Start: orderSeconds - frameSeconds, End: orderSeconds}
	}
}
