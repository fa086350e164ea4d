package pacing

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/orderpacing/internal/events"
	"github.com/friendsincode/orderpacing/internal/store"
)

func newRegistry(t *testing.T, policy EmptyRulesPolicy, bus *events.Bus) (*Registry, *testClock) {
	t.Helper()
	clock := &testClock{now: baseTime}
	reg, err := NewRegistry(Options{
		Store:      store.NewMemoryStore(),
		Keys:       store.Keyspace{Prefix: "test:"},
		Rules:      ruleSet(t, maxOrdersRule("r", 15, 10, 2)),
		EmptyRules: policy,
		Now:        clock.Now,
		Bus:        bus,
		Logger:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg, clock
}

func TestRegistryReturnsSameEngine(t *testing.T) {
	reg, _ := newRegistry(t, EmptyRulesReject, nil)

	a, err := reg.Engine("store-1")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	b, err := reg.Engine("store-1")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if a != b {
		t.Error("expected the same engine for the same bucket")
	}

	if _, err := reg.Engine("store-2"); err != nil {
		t.Fatalf("engine: %v", err)
	}
	buckets := reg.Buckets()
	sort.Strings(buckets)
	if len(buckets) != 2 || buckets[0] != "store-1" || buckets[1] != "store-2" {
		t.Errorf("buckets = %v", buckets)
	}
}

func TestRegistryRejectsEmptyBucket(t *testing.T) {
	reg, _ := newRegistry(t, EmptyRulesReject, nil)
	if _, err := reg.Engine(""); err == nil {
		t.Fatal("expected an error for an empty bucket")
	}
}

func TestRegistryIsolatesBuckets(t *testing.T) {
	reg, _ := newRegistry(t, EmptyRulesReject, nil)
	ctx := context.Background()

	busy, _ := reg.Engine("busy")
	quiet, _ := reg.Engine("quiet")

	mustAdd(t, busy, ownOrder("b-1", baseTime))
	mustAdd(t, busy, ownOrder("b-2", baseTime))
	mustAdd(t, quiet, ownOrder("q-1", baseTime))

	if got := busyTimes(t, busy); len(got) != 1 {
		t.Fatalf("busy bucket periods = %d", len(got))
	}
	if got := busyTimes(t, quiet); len(got) != 0 {
		t.Fatalf("quiet bucket should be unaffected, got %+v", got)
	}

	wait, err := quiet.ValidateOrderTime(ctx, baseTime)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if wait.WaitPeriodSeconds != 0 {
		t.Errorf("quiet bucket wait = %d", wait.WaitPeriodSeconds)
	}

	orders, err := quiet.GetOrders(ctx)
	if err != nil {
		t.Fatalf("get orders: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderID != "q-1" {
		t.Errorf("quiet bucket orders = %+v", orders)
	}
}

func TestRegistrySetRulesFansOut(t *testing.T) {
	bus := events.NewBus()
	replaced := bus.Subscribe(events.EventRulesReplaced)
	reg, _ := newRegistry(t, EmptyRulesReject, bus)

	existing, _ := reg.Engine("existing")
	if err := reg.SetRules(ruleSet(t, maxOrdersRule("new", 5, 1, 1))); err != nil {
		t.Fatalf("set rules: %v", err)
	}
	later, _ := reg.Engine("later")

	for name, e := range map[string]*Engine{"existing": existing, "later": later} {
		if got := e.Rules().Rules()[0].RuleID; got != "new" {
			t.Errorf("%s engine rule = %s", name, got)
		}
	}
	if got := reg.Rules().Rules()[0].RuleID; got != "new" {
		t.Errorf("registry rule = %s", got)
	}

	select {
	case p := <-replaced:
		if p["rules"] != 1 || p["buckets"] != 1 {
			t.Errorf("payload = %v", p)
		}
	default:
		t.Error("expected rules.replaced event")
	}
}

func TestRegistrySetRulesEmpty(t *testing.T) {
	reg, _ := newRegistry(t, EmptyRulesReject, nil)
	e, _ := reg.Engine("b")

	if err := reg.SetRules(ruleSet(t)); !errors.Is(err, ErrNoRules) {
		t.Fatalf("expected ErrNoRules, got %v", err)
	}
	if got := e.Rules().Len(); got != 1 {
		t.Errorf("rejected replacement must leave rules untouched, got %d", got)
	}

	warn, _ := newRegistry(t, EmptyRulesWarn, nil)
	we, _ := warn.Engine("b")
	if err := warn.SetRules(ruleSet(t)); err != nil {
		t.Fatalf("warn policy: %v", err)
	}
	if got := we.Rules().Len(); got != 0 {
		t.Errorf("rules = %d, want 0", got)
	}
}

func TestNewRegistryValidatesTemplate(t *testing.T) {
	_, err := NewRegistry(Options{Store: store.NewMemoryStore(), EmptyRules: EmptyRulesWarn, Mode: "bogus"})
	if err == nil {
		t.Fatal("expected invalid mode to fail")
	}
	_, err = NewRegistry(Options{Store: store.NewMemoryStore(), EmptyRules: EmptyRulesReject})
	if !errors.Is(err, ErrNoRules) {
		t.Fatalf("expected ErrNoRules, got %v", err)
	}
}
