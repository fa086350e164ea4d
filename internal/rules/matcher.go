/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rules

import (
	"time"

	"github.com/friendsincode/orderpacing/internal/models"
)

// Applies reports whether the rule is active for an order placed at t, using
// the bucket's local timezone. Time-of-day bounds compare at minute
// granularity and both ends are inclusive.
func (r Rule) Applies(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)

	if r.weekDays != nil {
		if _, ok := r.weekDays[int(local.Weekday())]; !ok {
			return false
		}
	}

	minuteOfDay := local.Hour()*60 + local.Minute()
	if r.hasStart && minuteOfDay < r.startMinute {
		return false
	}
	if r.hasEnd && minuteOfDay > r.endMinute {
		return false
	}
	return true
}

// Evaluate checks the rule's thresholds against orders, which must already be
// restricted to the window and to counting sources. Thresholds are checked in
// the fixed order maxOrders, maxItems, maxAmountCents and the first one reached
// is returned. The context always reflects every order passed in, regardless
// of category scope. A nil threshold means the rule did not trigger.
func (r Rule) Evaluate(orders []models.Order) (*models.Threshold, models.BusyTimeContext) {
	var allItems int64
	var allAmount float64
	allCategories := make([]string, 0)
	seen := make(map[string]struct{})

	for _, order := range orders {
		allAmount += order.TotalAmountCents
		for _, item := range order.Items {
			allItems += item.Quantity
			if item.CategoryID == "" {
				continue
			}
			if _, ok := seen[item.CategoryID]; !ok {
				seen[item.CategoryID] = struct{}{}
				allCategories = append(allCategories, item.CategoryID)
			}
		}
	}

	busyCtx := models.BusyTimeContext{
		TotalAmountCents: allAmount,
		TotalItems:       allItems,
		TotalOrders:      int64(len(orders)),
		CategoryIDs:      allCategories,
	}

	totalOrders := int64(len(orders))
	totalItems := allItems
	totalAmount := allAmount

	if r.categories != nil {
		totalOrders, totalItems, totalAmount = 0, 0, 0
		for _, order := range orders {
			matched := false
			for _, item := range order.Items {
				if _, ok := r.categories[item.CategoryID]; !ok {
					continue
				}
				matched = true
				totalItems += item.Quantity
				totalAmount += item.AmountCents
			}
			if matched {
				totalOrders++
			}
		}
	}

	scope := make([]string, len(r.CategoryIDs))
	copy(scope, r.CategoryIDs)

	switch {
	case r.MaxOrders != nil && totalOrders >= *r.MaxOrders:
		return &models.Threshold{
			Type:        models.ThresholdOrders,
			Value:       float64(totalOrders),
			Limit:       float64(*r.MaxOrders),
			CategoryIDs: scope,
		}, busyCtx
	case r.MaxItems != nil && totalItems >= *r.MaxItems:
		return &models.Threshold{
			Type:        models.ThresholdItems,
			Value:       float64(totalItems),
			Limit:       float64(*r.MaxItems),
			CategoryIDs: scope,
		}, busyCtx
	case r.MaxAmountCents != nil && totalAmount >= *r.MaxAmountCents:
		return &models.Threshold{
			Type:        models.ThresholdAmount,
			Value:       totalAmount,
			Limit:       *r.MaxAmountCents,
			CategoryIDs: scope,
		}, busyCtx
	}

	return nil, busyCtx
}
