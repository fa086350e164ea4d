/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus relays in-process pacing events between replicas over
// Redis pub/sub.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/orderpacing/internal/events"
)

// OriginKey marks payloads that arrived from another node. Events carrying
// it are never forwarded again.
const OriginKey = "origin_node"

// DefaultChannel is the pub/sub channel used when RelayConfig.Channel is empty.
const DefaultChannel = "pacing:events"

// RelayConfig configures a Relay.
type RelayConfig struct {
	Channel string
	NodeID  string // Generated when empty
	Types   []events.EventType

	// Publishing stops after MaxFailures consecutive errors.
	MaxFailures int
}

// DefaultRelayConfig relays busy period and rule set events.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Channel:     DefaultChannel,
		Types:       []events.EventType{events.EventBusyPeriodCreated, events.EventRulesReplaced},
		MaxFailures: 5,
	}
}

// Relay forwards local events to Redis and delivers events published by
// other nodes to the local bus with OriginKey set.
type Relay struct {
	client  redis.UniversalClient
	local   *events.Bus
	cfg     RelayConfig
	logger  zerolog.Logger
	pubsub  *redis.PubSub
	subs    map[events.EventType]events.Subscriber
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	fails   int
	tripped bool
}

// NewRelay creates a relay; call Start to begin forwarding.
func NewRelay(client redis.UniversalClient, local *events.Bus, cfg RelayConfig, logger zerolog.Logger) *Relay {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.NodeID == "" {
		cfg.NodeID = uuid.NewString()
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	return &Relay{
		client: client,
		local:  local,
		cfg:    cfg,
		logger: logger.With().Str("component", "event_relay").Str("node_id", cfg.NodeID).Logger(),
		subs:   make(map[events.EventType]events.Subscriber),
	}
}

// NodeID returns the identifier stamped on outgoing messages.
func (r *Relay) NodeID() string {
	return r.cfg.NodeID
}

// Start subscribes to the Redis channel and the local event types.
func (r *Relay) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)

	r.pubsub = r.client.Subscribe(ctx, r.cfg.Channel)
	if _, err := r.pubsub.Receive(ctx); err != nil {
		r.cancel()
		_ = r.pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", r.cfg.Channel, err)
	}

	r.wg.Add(1)
	go r.receive(ctx)

	for _, eventType := range r.cfg.Types {
		sub := r.local.Subscribe(eventType)
		r.subs[eventType] = sub
		r.wg.Add(1)
		go r.forward(ctx, eventType, sub)
	}

	r.logger.Info().Str("channel", r.cfg.Channel).Int("types", len(r.cfg.Types)).Msg("event relay started")
	return nil
}

func (r *Relay) forward(ctx context.Context, eventType events.EventType, sub events.Subscriber) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			if !shouldForward(payload) {
				continue
			}
			r.publish(ctx, eventType, payload)
		}
	}
}

func (r *Relay) publish(ctx context.Context, eventType events.EventType, payload events.Payload) {
	r.mu.Lock()
	tripped := r.tripped
	r.mu.Unlock()
	if tripped {
		return
	}

	data, err := marshalMessage(eventType, payload, r.cfg.NodeID)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to marshal relay message")
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.client.Publish(pubCtx, r.cfg.Channel, data).Err(); err != nil {
		r.handleFailure(err)
		return
	}

	r.mu.Lock()
	r.fails = 0
	r.mu.Unlock()
}

func (r *Relay) receive(ctx context.Context) {
	defer r.wg.Done()
	ch := r.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				r.logger.Warn().Msg("relay channel closed")
				return
			}
			remote, err := unmarshalMessage([]byte(msg.Payload))
			if err != nil {
				r.logger.Error().Err(err).Msg("failed to unmarshal relay message")
				continue
			}
			// Skip messages from ourselves (prevent echo)
			if remote.NodeID == r.cfg.NodeID {
				continue
			}
			r.local.Publish(remote.EventType, inbound(remote))
		}
	}
}

// handleFailure stops publishing once the failure threshold is reached.
func (r *Relay) handleFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fails++
	r.logger.Error().Err(err).Int("fail_count", r.fails).Msg("failed to publish relay message")
	if r.fails >= r.cfg.MaxFailures && !r.tripped {
		r.tripped = true
		r.logger.Warn().Int("fail_count", r.fails).Msg("relay failure threshold reached, local events stay local")
	}
}

// Close stops the relay. The Redis client belongs to the caller.
func (r *Relay) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	for eventType, sub := range r.subs {
		r.local.Unsubscribe(eventType, sub)
	}
	r.subs = make(map[events.EventType]events.Subscriber)
	r.wg.Wait()

	if r.pubsub != nil {
		return r.pubsub.Close()
	}
	return nil
}

// relayMessage is the on-wire format.
type relayMessage struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"`
}

func marshalMessage(eventType events.EventType, payload events.Payload, nodeID string) ([]byte, error) {
	return json.Marshal(relayMessage{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		NodeID:    nodeID,
	})
}

func unmarshalMessage(data []byte) (*relayMessage, error) {
	var msg relayMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal relay message: %w", err)
	}
	if msg.EventType == "" || msg.NodeID == "" {
		return nil, fmt.Errorf("unmarshal relay message: missing event type or node id")
	}
	return &msg, nil
}

func shouldForward(payload events.Payload) bool {
	_, remote := payload[OriginKey]
	return !remote
}

// inbound copies a remote payload and stamps its origin.
func inbound(msg *relayMessage) events.Payload {
	out := make(events.Payload, len(msg.Payload)+1)
	for k, v := range msg.Payload {
		out[k] = v
	}
	out[OriginKey] = msg.NodeID
	return out
}
