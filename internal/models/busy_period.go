/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

// TimeWindow is an inclusive range of epoch seconds.
type TimeWindow struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Contains reports whether ts lies in the window, bounds included.
func (w TimeWindow) Contains(ts int64) bool {
	return ts >= w.Start && ts <= w.End
}

// ThresholdType names the metric that crossed its limit.
type ThresholdType string

const (
	ThresholdOrders ThresholdType = "orders"
	ThresholdItems  ThresholdType = "items"
	ThresholdAmount ThresholdType = "amount"
)

// Threshold is the result of a matching rule evaluation.
type Threshold struct {
	Type        ThresholdType `json:"type"`
	Value       float64       `json:"value"`
	Limit       float64       `json:"limit"`
	CategoryIDs []string      `json:"categoryIds"`
}

// BusyTimeContext is the aggregate snapshot over every order in the window
// at the moment a rule triggered.
type BusyTimeContext struct {
	TotalAmountCents float64  `json:"totalAmountCents"`
	TotalItems       int64    `json:"totalItems"`
	TotalOrders      int64    `json:"totalOrders"`
	CategoryIDs      []string `json:"categoryIds"`
}

// BusyPeriod is a derived interval during which new orders are delayed.
// StartTime and EndTime are epoch seconds; EndTime is the store score.
type BusyPeriod struct {
	RuleID             string          `json:"ruleId,omitempty"`
	StartTime          int64           `json:"startTime"`
	EndTime            int64           `json:"endTime"`
	OrderTimeSeconds   int64           `json:"orderTimeSeconds"`
	CurrentTimeSeconds int64           `json:"currentTimeSeconds"`
	BusyTimeSeconds    int64           `json:"busyTimeSeconds"`
	BusyTimeContext    BusyTimeContext `json:"busyTimeContext"`
	Threshold          Threshold       `json:"threshold"`
}

// Contains reports whether ts lies inside the busy period, bounds included.
func (b BusyPeriod) Contains(ts int64) bool {
	return ts >= b.StartTime && ts <= b.EndTime
}

// WaitPeriod answers how long an order placed at a given instant must wait.
type WaitPeriod struct {
	WaitPeriodSeconds int64 `json:"waitPeriodSeconds"`
	// OrdersInWindow is always zero; kept for response compatibility.
	OrdersInWindow int64 `json:"ordersInWindow"`
}
