/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package pacing

import (
	"time"

	"github.com/friendsincode/orderpacing/internal/models"
	"github.com/friendsincode/orderpacing/internal/rules"
)

// CalculateWait sweeps periods, which must be sorted by StartTime, once from
// the left. While the shifted order time falls inside the next period the
// wait is pushed to one second past that period's end; the first period that
// does not contain it ends the sweep. Overlapping periods are not merged.
func CalculateWait(periods []models.BusyPeriod, instant time.Time) models.WaitPeriod {
	at := instant.Unix()
	var wait int64

	for _, period := range periods {
		if !period.Contains(at + wait) {
			break
		}
		wait = period.EndTime + 1 - at
	}

	return models.WaitPeriod{WaitPeriodSeconds: wait}
}

// NewBusyPeriod builds the busy period for a triggered rule. The period never
// ends before it has lasted its full duration from ingestion time.
func NewBusyPeriod(order models.Order, rule rules.Rule, threshold models.Threshold, busyCtx models.BusyTimeContext) models.BusyPeriod {
	busySeconds := rule.BusyTimeSeconds()
	end := order.CurrentTimeSeconds + busySeconds
	if order.OrderTimeSeconds > end {
		end = order.OrderTimeSeconds
	}

	return models.BusyPeriod{
		RuleID:             rule.RuleID,
		StartTime:          end - busySeconds,
		EndTime:            end,
		OrderTimeSeconds:   order.OrderTimeSeconds,
		CurrentTimeSeconds: order.CurrentTimeSeconds,
		BusyTimeSeconds:    busySeconds,
		BusyTimeContext:    busyCtx,
		Threshold:          threshold,
	}
}
