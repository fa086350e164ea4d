/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// OrderSource identifies the channel an order was placed through.
type OrderSource string

const (
	SourceOwn   OrderSource = "own"   // Placed through our own ordering channel
	SourceOther OrderSource = "other" // Third-party marketplace or aggregator
)

// Valid reports whether s is a known source.
func (s OrderSource) Valid() bool {
	return s == SourceOwn || s == SourceOther
}

// OrderItem is a single line on an order.
type OrderItem struct {
	ItemID      string  `json:"itemId"`
	CategoryID  string  `json:"categoryId,omitempty"`
	Quantity    int64   `json:"quantity"`
	AmountCents float64 `json:"amountCents"`
}

// Order is an ingested order. Orders are immutable once stored and are keyed
// in the store by OrderTimeSeconds only; OrderID is not deduplicated.
type Order struct {
	OrderID          string      `json:"orderId"`
	Items            []OrderItem `json:"items"`
	TotalAmountCents float64     `json:"totalAmountCents"`
	Source           OrderSource `json:"source"`
	OrderTime        time.Time   `json:"orderTime"`

	// Derived at ingestion
	OrderTimeSeconds   int64 `json:"orderTimeSeconds"`
	CurrentTimeSeconds int64 `json:"currentTimeSeconds"`
}

// Normalize fills the derived time fields. now is the ingestion instant.
func (o *Order) Normalize(now time.Time) {
	if o.Source == "" {
		o.Source = SourceOwn
	}
	if o.Items == nil {
		o.Items = []OrderItem{}
	}
	o.OrderTimeSeconds = o.OrderTime.Unix()
	o.CurrentTimeSeconds = now.Unix()
}

// TotalItems sums item quantities.
func (o Order) TotalItems() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// OrderStat is the reduced view returned by stats queries.
type OrderStat struct {
	OrderID   string      `json:"orderId"`
	OrderTime time.Time   `json:"orderTime"`
	Source    OrderSource `json:"source"`
}
