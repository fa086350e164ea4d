/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package events is the in-process notification bus for pacing activity.
package events

import "sync"

// EventType enumerates event categories.
type EventType string

const (
	EventOrderIngested     EventType = "order.ingested"
	EventBusyPeriodCreated EventType = "busy_period.created"
	EventRulesReplaced     EventType = "rules.replaced"
)

// Payload generic event payload.
type Payload map[string]any

// Subscriber receives event payloads.
type Subscriber chan Payload

// Bus fans payloads out to subscribers without blocking the publisher; a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[EventType][]Subscriber
	buffer int
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return NewBusWithBuffer(16)
}

// NewBusWithBuffer creates an event bus whose subscriber channels hold size payloads.
func NewBusWithBuffer(size int) *Bus {
	if size <= 0 {
		size = 1
	}
	return &Bus{subs: make(map[EventType][]Subscriber), buffer: size}
}

// Subscribe registers a subscriber for event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	ch := make(Subscriber, b.buffer)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends payload to subscribers. A nil bus drops the event.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	if b == nil {
		return
	}
	// Sends never block, so holding the read lock keeps Unsubscribe from
	// closing a channel mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[eventType] {
		select {
		case sub <- payload:
		default:
		}
	}
}

// Unsubscribe removes and closes the subscriber.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			b.subs[eventType] = append(subs[:i], subs[i+1:]...)
			close(sub)
			return
		}
	}
}
