/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

// PacingRule configures one volume threshold. Optional fields are pointers or
// empty slices; at least one of the Max* thresholds must be set.
type PacingRule struct {
	RuleID           string   `json:"ruleId" yaml:"ruleId"`
	TimeFrameMinutes int64    `json:"timeFrameMinutes" yaml:"timeFrameMinutes"`
	BusyTimeMinutes  int64    `json:"busyTimeMinutes" yaml:"busyTimeMinutes"`
	CategoryIDs      []string `json:"categoryIds,omitempty" yaml:"categoryIds,omitempty"`
	WeekDays         []int    `json:"weekDays,omitempty" yaml:"weekDays,omitempty"` // 0 = Sunday
	StartTime        string   `json:"startTime,omitempty" yaml:"startTime,omitempty"` // HH:mm[:ss], local
	EndTime          string   `json:"endTime,omitempty" yaml:"endTime,omitempty"`     // HH:mm[:ss], local, inclusive

	MaxOrders      *int64   `json:"maxOrders,omitempty" yaml:"maxOrders,omitempty"`
	MaxItems       *int64   `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	MaxAmountCents *float64 `json:"maxAmountCents,omitempty" yaml:"maxAmountCents,omitempty"`
}

// TimeFrameSeconds returns the window width in seconds.
func (r PacingRule) TimeFrameSeconds() int64 {
	return r.TimeFrameMinutes * 60
}

// BusyTimeSeconds returns the busy period length in seconds.
func (r PacingRule) BusyTimeSeconds() int64 {
	return r.BusyTimeMinutes * 60
}

// HasCategories reports whether the rule is scoped to specific categories.
func (r PacingRule) HasCategories() bool {
	return len(r.CategoryIDs) > 0
}
