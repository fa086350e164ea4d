package eventbus

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/orderpacing/internal/events"
)

func TestMessageRoundTrip(t *testing.T) {
	data, err := marshalMessage(events.EventBusyPeriodCreated, events.Payload{"bucket": "b", "rule_id": "r"}, "node-a")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	msg, err := unmarshalMessage(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.EventType != events.EventBusyPeriodCreated || msg.NodeID != "node-a" || msg.Payload["rule_id"] != "r" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestUnmarshalMessageRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "busy"},
		{name: "no node", data: `{"event_type":"busy_period.created","payload":{}}`},
		{name: "no type", data: `{"node_id":"n","payload":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := unmarshalMessage([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestInboundStampsOriginAndStopsForwarding(t *testing.T) {
	original := events.Payload{"bucket": "b"}
	in := inbound(&relayMessage{EventType: events.EventRulesReplaced, Payload: original, NodeID: "node-b"})

	if in[OriginKey] != "node-b" || in["bucket"] != "b" {
		t.Fatalf("inbound payload = %v", in)
	}
	if _, ok := original[OriginKey]; ok {
		t.Error("inbound must not mutate the decoded payload")
	}
	if shouldForward(in) {
		t.Error("remote payloads must not be forwarded again")
	}
	if !shouldForward(original) {
		t.Error("local payloads should be forwarded")
	}
}

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("PACING_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRelayDeliversAcrossNodes(t *testing.T) {
	client := redisClient(t)
	channel := "test:" + uuid.NewString()

	busA, busB := events.NewBus(), events.NewBus()
	cfg := DefaultRelayConfig()
	cfg.Channel = channel

	cfgA := cfg
	cfgA.NodeID = "node-a"
	relayA := NewRelay(client, busA, cfgA, zerolog.Nop())
	cfgB := cfg
	cfgB.NodeID = "node-b"
	relayB := NewRelay(client, busB, cfgB, zerolog.Nop())

	ctx := context.Background()
	if err := relayA.Start(ctx); err != nil {
		t.Fatalf("start relay a: %v", err)
	}
	defer relayA.Close()
	if err := relayB.Start(ctx); err != nil {
		t.Fatalf("start relay b: %v", err)
	}
	defer relayB.Close()

	received := busB.Subscribe(events.EventBusyPeriodCreated)
	echo := busA.Subscribe(events.EventBusyPeriodCreated)

	busA.Publish(events.EventBusyPeriodCreated, events.Payload{"bucket": "store-1", "rule_id": "rush"})

	// The local subscriber on A sees its own event once.
	select {
	case <-echo:
	case <-time.After(time.Second):
		t.Fatal("local subscriber did not see the event")
	}

	select {
	case payload := <-received:
		if payload["bucket"] != "store-1" || payload[OriginKey] != "node-a" {
			t.Errorf("remote payload = %v", payload)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("event was not relayed to node b")
	}

	select {
	case payload := <-echo:
		t.Fatalf("node a received its own event back: %v", payload)
	case <-time.After(200 * time.Millisecond):
	}
}
