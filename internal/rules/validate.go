/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rules

import (
	"strings"

	"github.com/friendsincode/orderpacing/internal/models"
)

// Validate checks a single rule. index is the rule's position in its list and
// only appears in the returned error.
func Validate(index int, rule models.PacingRule) error {
	id := rule.RuleID

	if rule.TimeFrameMinutes <= 0 {
		return fieldError(index, id, "timeFrameMinutes", "must be greater than 0")
	}
	if rule.BusyTimeMinutes <= 0 {
		return fieldError(index, id, "busyTimeMinutes", "must be greater than 0")
	}

	if rule.MaxOrders == nil && rule.MaxItems == nil && rule.MaxAmountCents == nil {
		return fieldError(index, id, "", "at least one of maxOrders, maxItems, maxAmountCents is required")
	}
	if rule.MaxOrders != nil && *rule.MaxOrders <= 0 {
		return fieldError(index, id, "maxOrders", "must be greater than 0")
	}
	if rule.MaxItems != nil && *rule.MaxItems <= 0 {
		return fieldError(index, id, "maxItems", "must be greater than 0")
	}
	if rule.MaxAmountCents != nil && *rule.MaxAmountCents <= 0 {
		return fieldError(index, id, "maxAmountCents", "must be greater than 0")
	}

	for _, day := range rule.WeekDays {
		if day < 0 || day > 6 {
			return fieldError(index, id, "weekDays", "values must be between 0 and 6")
		}
	}
	for _, category := range rule.CategoryIDs {
		if strings.TrimSpace(category) == "" {
			return fieldError(index, id, "categoryIds", "must not contain empty values")
		}
	}

	var start, end int
	var err error
	if rule.StartTime != "" {
		if start, err = ParseClock(rule.StartTime); err != nil {
			return fieldError(index, id, "startTime", err.Error())
		}
	}
	if rule.EndTime != "" {
		if end, err = ParseClock(rule.EndTime); err != nil {
			return fieldError(index, id, "endTime", err.Error())
		}
	}
	if rule.StartTime != "" && rule.EndTime != "" && start >= end {
		return fieldError(index, id, "startTime", "must be before endTime")
	}

	return nil
}
