/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps sorted streams in process memory. Like a Redis sorted set,
// each distinct value is stored once; re-adding it moves it to the new score,
// and equal scores order by value.
type MemoryStore struct {
	mu      sync.RWMutex
	streams map[string][]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{streams: make(map[string][]Entry)}
}

// Add inserts value at score.
func (s *MemoryStore) Add(ctx context.Context, key string, score int64, value []byte) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Op: "add", Key: key, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[key]
	for i, entry := range stream {
		if bytes.Equal(entry.Value, value) {
			stream = append(stream[:i], stream[i+1:]...)
			break
		}
	}

	stored := Entry{Value: append([]byte(nil), value...), Score: score}
	idx := sort.Search(len(stream), func(i int) bool {
		return less(stored, stream[i])
	})
	stream = append(stream, Entry{})
	copy(stream[idx+1:], stream[idx:])
	stream[idx] = stored
	s.streams[key] = stream
	return nil
}

// RangeByScore returns entries with min <= score <= max.
func (s *MemoryStore) RangeByScore(ctx context.Context, key string, min, max int64) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Op: "range", Key: key, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0)
	for _, entry := range s.streams[key] {
		if entry.Score < min {
			continue
		}
		if entry.Score > max {
			break
		}
		out = append(out, Entry{Value: append([]byte(nil), entry.Value...), Score: entry.Score})
	}
	return out, nil
}

// RangeAll returns every entry in the stream.
func (s *MemoryStore) RangeAll(ctx context.Context, key string) ([]Entry, error) {
	return s.RangeByScore(ctx, key, MinScore, MaxScore)
}

// TrimByScore removes entries with min <= score <= max.
func (s *MemoryStore) TrimByScore(ctx context.Context, key string, min, max int64) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Op: "trim", Key: key, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[key]
	filtered := stream[:0]
	for _, entry := range stream {
		if entry.Score >= min && entry.Score <= max {
			continue
		}
		filtered = append(filtered, entry)
	}
	if len(filtered) == 0 {
		delete(s.streams, key)
		return nil
	}
	s.streams[key] = filtered
	return nil
}

// Len returns the number of entries under key.
func (s *MemoryStore) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.streams[key])
}

func less(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return bytes.Compare(a.Value, b.Value) < 0
}
