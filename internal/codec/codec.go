/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package codec converts orders and busy periods to and from the opaque byte
// values kept in the time-series store.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/friendsincode/orderpacing/internal/models"
)

// RecordVersion is written into every encoded record.
const RecordVersion = 1

type orderRecord struct {
	V                  int                `json:"v"`
	OrderID            string             `json:"orderId"`
	Items              []models.OrderItem `json:"items"`
	TotalAmountCents   float64            `json:"totalAmountCents"`
	Source             models.OrderSource `json:"source"`
	OrderTime          string             `json:"orderTime"`
	OrderTimeSeconds   int64              `json:"orderTimeSeconds"`
	CurrentTimeSeconds int64              `json:"currentTimeSeconds"`
}

type busyPeriodRecord struct {
	V int `json:"v"`
	models.BusyPeriod
}

// EncodeOrder serializes an order. The full-precision order time travels in
// the record, so the store score is never the only time source.
func EncodeOrder(o models.Order) ([]byte, error) {
	items := o.Items
	if items == nil {
		items = []models.OrderItem{}
	}
	rec := orderRecord{
		V:                  RecordVersion,
		OrderID:            o.OrderID,
		Items:              items,
		TotalAmountCents:   o.TotalAmountCents,
		Source:             o.Source,
		OrderTime:          o.OrderTime.UTC().Format(time.RFC3339Nano),
		OrderTimeSeconds:   o.OrderTimeSeconds,
		CurrentTimeSeconds: o.CurrentTimeSeconds,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}
	return data, nil
}

// DecodeOrder parses a value produced by EncodeOrder.
func DecodeOrder(data []byte) (models.Order, error) {
	var rec orderRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Order{}, fmt.Errorf("decode order: %w", err)
	}
	if rec.V != RecordVersion {
		return models.Order{}, fmt.Errorf("decode order: unsupported record version %d", rec.V)
	}

	orderTime, err := time.Parse(time.RFC3339Nano, rec.OrderTime)
	if err != nil {
		return models.Order{}, fmt.Errorf("decode order time: %w", err)
	}
	if rec.Items == nil {
		rec.Items = []models.OrderItem{}
	}

	return models.Order{
		OrderID:            rec.OrderID,
		Items:              rec.Items,
		TotalAmountCents:   rec.TotalAmountCents,
		Source:             rec.Source,
		OrderTime:          orderTime.UTC(),
		OrderTimeSeconds:   rec.OrderTimeSeconds,
		CurrentTimeSeconds: rec.CurrentTimeSeconds,
	}, nil
}

// EncodeBusyPeriod serializes a busy period.
func EncodeBusyPeriod(b models.BusyPeriod) ([]byte, error) {
	normalizeBusyPeriod(&b)
	data, err := json.Marshal(busyPeriodRecord{V: RecordVersion, BusyPeriod: b})
	if err != nil {
		return nil, fmt.Errorf("encode busy period: %w", err)
	}
	return data, nil
}

// DecodeBusyPeriod parses a value produced by EncodeBusyPeriod.
func DecodeBusyPeriod(data []byte) (models.BusyPeriod, error) {
	var rec busyPeriodRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.BusyPeriod{}, fmt.Errorf("decode busy period: %w", err)
	}
	if rec.V != RecordVersion {
		return models.BusyPeriod{}, fmt.Errorf("decode busy period: unsupported record version %d", rec.V)
	}
	normalizeBusyPeriod(&rec.BusyPeriod)
	return rec.BusyPeriod, nil
}

func normalizeBusyPeriod(b *models.BusyPeriod) {
	if b.BusyTimeContext.CategoryIDs == nil {
		b.BusyTimeContext.CategoryIDs = []string{}
	}
	if b.Threshold.CategoryIDs == nil {
		b.Threshold.CategoryIDs = []string{}
	}
}
