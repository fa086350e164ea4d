/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package store provides time-scored record streams backed by Redis sorted
// sets or by process memory.
package store

import (
	"context"
	"fmt"
	"math"
)

// Infinite score bounds for range and trim calls.
const (
	MinScore int64 = math.MinInt64
	MaxScore int64 = math.MaxInt64
)

// Key prefixes for the two per-bucket streams.
const (
	KeyOrders    = "orders:"    // + bucket
	KeyBusyTimes = "busytimes:" // + bucket
)

// Entry is a stored value with its score in epoch seconds.
type Entry struct {
	Value []byte
	Score int64
}

// Store is an append-only, time-scored record store addressed by key. All
// ranges are inclusive and results are ascending by score.
type Store interface {
	Add(ctx context.Context, key string, score int64, value []byte) error
	RangeByScore(ctx context.Context, key string, min, max int64) ([]Entry, error)
	RangeAll(ctx context.Context, key string) ([]Entry, error)
	TrimByScore(ctx context.Context, key string, min, max int64) error
}

// Keyspace builds stream keys for buckets, optionally namespaced.
type Keyspace struct {
	Prefix string // e.g. "pacing:"
}

// Orders returns the order stream key for bucket.
func (k Keyspace) Orders(bucket string) string {
	return k.Prefix + KeyOrders + bucket
}

// BusyTimes returns the busy period stream key for bucket.
func (k Keyspace) BusyTimes(bucket string) string {
	return k.Prefix + KeyBusyTimes + bucket
}

// StoreError wraps a failure of the underlying store. Callers receive it
// unmodified; nothing in this module retries.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
