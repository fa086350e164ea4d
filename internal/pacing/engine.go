/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package pacing decides when order volume at a location opens a busy period
// and how long a new order has to wait for busy periods to clear.
package pacing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/friendsincode/orderpacing/internal/codec"
	"github.com/friendsincode/orderpacing/internal/events"
	"github.com/friendsincode/orderpacing/internal/models"
	"github.com/friendsincode/orderpacing/internal/rules"
	"github.com/friendsincode/orderpacing/internal/store"
	"github.com/friendsincode/orderpacing/internal/telemetry"
)

// DefaultRetention is how long orders are kept relative to now.
const DefaultRetention = 7 * 24 * time.Hour

// EmptyRulesPolicy decides what an engine does when configured with no rules.
type EmptyRulesPolicy string

const (
	EmptyRulesReject EmptyRulesPolicy = "reject" // Fail construction / SetRules
	EmptyRulesWarn   EmptyRulesPolicy = "warn"   // Accept, log a warning, store orders only
)

// ErrNoRules is returned under EmptyRulesReject when the rule set is empty.
var ErrNoRules = errors.New("pacing: no rules configured")

// Options configures an Engine. Everything is fixed for the engine's
// lifetime except the rule set, which SetRules replaces wholesale.
type Options struct {
	Store      store.Store
	Keys       store.Keyspace
	Bucket     string
	Mode       TimeframeMode
	Timezone   string // IANA name, UTC when empty
	Rules      *rules.RuleSet
	EmptyRules EmptyRulesPolicy
	Retention  time.Duration
	Now        func() time.Time
	Bus        *events.Bus
	Logger     zerolog.Logger
}

// Engine is the pacing state machine for one bucket. Calls may run
// concurrently; concurrent Add calls are not serialized, so two near
// simultaneous orders can read the same window snapshot.
type Engine struct {
	store      store.Store
	bucket     string
	ordersKey  string
	busyKey    string
	mode       TimeframeMode
	loc        *time.Location
	emptyRules EmptyRulesPolicy
	retention  time.Duration
	now        func() time.Time
	bus        *events.Bus
	logger     zerolog.Logger

	rules atomic.Pointer[rules.RuleSet]
}

// New validates opts and builds an engine.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("pacing: store is required")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("pacing: bucket is required")
	}
	if opts.EmptyRules != EmptyRulesReject && opts.EmptyRules != EmptyRulesWarn {
		return nil, fmt.Errorf("pacing: empty rules policy must be %q or %q, got %q", EmptyRulesReject, EmptyRulesWarn, opts.EmptyRules)
	}

	mode, err := ParseTimeframeMode(string(opts.Mode))
	if err != nil {
		return nil, fmt.Errorf("pacing: %w", err)
	}

	loc := time.UTC
	if opts.Timezone != "" {
		loc, err = time.LoadLocation(opts.Timezone)
		if err != nil {
			return nil, fmt.Errorf("pacing: load timezone %q: %w", opts.Timezone, err)
		}
	}

	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		store:      opts.Store,
		bucket:     opts.Bucket,
		ordersKey:  opts.Keys.Orders(opts.Bucket),
		busyKey:    opts.Keys.BusyTimes(opts.Bucket),
		mode:       mode,
		loc:        loc,
		emptyRules: opts.EmptyRules,
		retention:  opts.Retention,
		now:        opts.Now,
		bus:        opts.Bus,
		logger: opts.Logger.With().
			Str("component", "pacing_engine").
			Str("bucket", opts.Bucket).
			Logger(),
	}

	set := opts.Rules
	if set == nil {
		set = &rules.RuleSet{}
	}
	if err := e.checkRules(set); err != nil {
		return nil, err
	}
	e.rules.Store(set)

	return e, nil
}

// Bucket returns the bucket this engine owns.
func (e *Engine) Bucket() string {
	return e.bucket
}

// Mode returns the engine's timeframe mode.
func (e *Engine) Mode() TimeframeMode {
	return e.mode
}

// Location returns the bucket timezone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Rules returns the active rule set.
func (e *Engine) Rules() *rules.RuleSet {
	return e.rules.Load()
}

// SetRules atomically replaces the whole rule set.
func (e *Engine) SetRules(set *rules.RuleSet) error {
	if set == nil {
		set = &rules.RuleSet{}
	}
	if err := e.checkRules(set); err != nil {
		return err
	}
	e.rules.Store(set)
	e.logger.Info().Int("rules", set.Len()).Msg("rule set replaced")
	return nil
}

func (e *Engine) checkRules(set *rules.RuleSet) error {
	if set.Len() > 0 {
		return nil
	}
	if e.emptyRules == EmptyRulesReject {
		return ErrNoRules
	}
	e.logger.Warn().Msg("no pacing rules configured; orders will be stored without evaluation")
	return nil
}

// Add ingests an order: expired records are pruned, the order is stored, and
// every applicable rule is evaluated against its window. One busy period is
// stored per triggered rule. A failed busy period write returns immediately;
// writes that already succeeded are kept.
func (e *Engine) Add(ctx context.Context, order models.Order) error {
	start := time.Now()
	defer func() {
		telemetry.OperationDuration.WithLabelValues("add").Observe(time.Since(start).Seconds())
	}()

	ctx, span := telemetry.StartSpan(ctx, "pacing.Add")
	defer span.End()
	span.SetAttributes(attribute.String("pacing.bucket", e.bucket), attribute.String("pacing.order_id", order.OrderID))

	now := e.now()
	order.Normalize(now)

	if err := e.prune(ctx, now); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	data, err := codec.EncodeOrder(order)
	if err != nil {
		return err
	}
	if err := e.store.Add(ctx, e.ordersKey, order.OrderTimeSeconds, data); err != nil {
		telemetry.StoreErrors.WithLabelValues("add_order").Inc()
		telemetry.RecordError(span, err)
		return err
	}
	telemetry.OrdersIngested.WithLabelValues(string(order.Source)).Inc()
	e.bus.Publish(events.EventOrderIngested, events.Payload{
		"bucket":     e.bucket,
		"order_id":   order.OrderID,
		"order_time": order.OrderTimeSeconds,
		"source":     string(order.Source),
	})

	set := e.rules.Load()
	if set.Len() == 0 {
		e.logger.Warn().Str("order_id", order.OrderID).Msg("order stored but no rules are configured")
		return nil
	}

	windows := make(map[models.TimeWindow][]models.Order)
	created := 0
	for _, rule := range set.Rules() {
		if !rule.Applies(order.OrderTime, e.loc) {
			telemetry.RuleEvaluations.WithLabelValues(rule.RuleID, "not_applicable").Inc()
			continue
		}

		window := Window(order.OrderTimeSeconds, rule.TimeFrameSeconds(), e.mode)
		orders, ok := windows[window]
		if !ok {
			orders, err = e.ownOrdersIn(ctx, window)
			if err != nil {
				telemetry.RecordError(span, err)
				return err
			}
			windows[window] = orders
		}

		threshold, busyCtx := rule.Evaluate(orders)
		if threshold == nil {
			telemetry.RuleEvaluations.WithLabelValues(rule.RuleID, "below_threshold").Inc()
			continue
		}
		telemetry.RuleEvaluations.WithLabelValues(rule.RuleID, "triggered").Inc()

		period := NewBusyPeriod(order, rule, *threshold, busyCtx)
		if err := e.storeBusyPeriod(ctx, period); err != nil {
			telemetry.RecordError(span, err)
			return err
		}
		created++
	}

	span.SetAttributes(attribute.Int("pacing.busy_periods_created", created))
	return nil
}

func (e *Engine) storeBusyPeriod(ctx context.Context, period models.BusyPeriod) error {
	data, err := codec.EncodeBusyPeriod(period)
	if err != nil {
		return err
	}
	if err := e.store.Add(ctx, e.busyKey, period.EndTime, data); err != nil {
		telemetry.StoreErrors.WithLabelValues("add_busy_period").Inc()
		return err
	}

	telemetry.BusyPeriodsCreated.WithLabelValues(period.RuleID, string(period.Threshold.Type)).Inc()
	e.logger.Info().
		Str("rule_id", period.RuleID).
		Str("threshold", string(period.Threshold.Type)).
		Float64("value", period.Threshold.Value).
		Float64("limit", period.Threshold.Limit).
		Int64("start", period.StartTime).
		Int64("end", period.EndTime).
		Msg("busy period created")
	e.bus.Publish(events.EventBusyPeriodCreated, events.Payload{
		"bucket":    e.bucket,
		"rule_id":   period.RuleID,
		"start":     period.StartTime,
		"end":       period.EndTime,
		"threshold": string(period.Threshold.Type),
	})
	return nil
}

// ownOrdersIn returns own-channel orders scored inside window.
func (e *Engine) ownOrdersIn(ctx context.Context, window models.TimeWindow) ([]models.Order, error) {
	entries, err := e.store.RangeByScore(ctx, e.ordersKey, window.Start, window.End)
	if err != nil {
		telemetry.StoreErrors.WithLabelValues("range_orders").Inc()
		return nil, err
	}

	orders := make([]models.Order, 0, len(entries))
	for _, entry := range entries {
		order, err := codec.DecodeOrder(entry.Value)
		if err != nil {
			return nil, err
		}
		if order.Source != models.SourceOwn {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// prune drops orders older than the retention window and busy periods that
// have ended.
func (e *Engine) prune(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-e.retention).Unix()
	if err := e.store.TrimByScore(ctx, e.ordersKey, store.MinScore, cutoff-1); err != nil {
		telemetry.StoreErrors.WithLabelValues("trim_orders").Inc()
		return err
	}
	if err := e.store.TrimByScore(ctx, e.busyKey, store.MinScore, now.Unix()); err != nil {
		telemetry.StoreErrors.WithLabelValues("trim_busy_periods").Inc()
		return err
	}
	return nil
}

// GetOrders returns every retained order in score order.
func (e *Engine) GetOrders(ctx context.Context) ([]models.Order, error) {
	if err := e.prune(ctx, e.now()); err != nil {
		return nil, err
	}

	entries, err := e.store.RangeAll(ctx, e.ordersKey)
	if err != nil {
		telemetry.StoreErrors.WithLabelValues("range_orders").Inc()
		return nil, err
	}

	orders := make([]models.Order, 0, len(entries))
	for _, entry := range entries {
		order, err := codec.DecodeOrder(entry.Value)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// GetBusyTimes returns unexpired busy periods sorted by start time.
func (e *Engine) GetBusyTimes(ctx context.Context) ([]models.BusyPeriod, error) {
	if err := e.prune(ctx, e.now()); err != nil {
		return nil, err
	}
	return e.busyPeriods(ctx)
}

func (e *Engine) busyPeriods(ctx context.Context) ([]models.BusyPeriod, error) {
	entries, err := e.store.RangeAll(ctx, e.busyKey)
	if err != nil {
		telemetry.StoreErrors.WithLabelValues("range_busy_periods").Inc()
		return nil, err
	}

	periods := make([]models.BusyPeriod, 0, len(entries))
	for _, entry := range entries {
		period, err := codec.DecodeBusyPeriod(entry.Value)
		if err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].StartTime < periods[j].StartTime
	})
	return periods, nil
}

// GetOrdersStats lists orders of every source placed between start and end,
// inclusive, sorted by order time.
func (e *Engine) GetOrdersStats(ctx context.Context, start, end time.Time) ([]models.OrderStat, error) {
	if err := e.prune(ctx, e.now()); err != nil {
		return nil, err
	}

	entries, err := e.store.RangeByScore(ctx, e.ordersKey, start.Unix(), end.Unix())
	if err != nil {
		telemetry.StoreErrors.WithLabelValues("range_orders").Inc()
		return nil, err
	}

	stats := make([]models.OrderStat, 0, len(entries))
	for _, entry := range entries {
		order, err := codec.DecodeOrder(entry.Value)
		if err != nil {
			return nil, err
		}
		stats = append(stats, models.OrderStat{
			OrderID:   order.OrderID,
			OrderTime: order.OrderTime,
			Source:    order.Source,
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].OrderTime.Before(stats[j].OrderTime)
	})
	return stats, nil
}

// ValidateOrderTime reports how long an order placed at instant must wait
// for the current busy periods to clear.
func (e *Engine) ValidateOrderTime(ctx context.Context, instant time.Time) (models.WaitPeriod, error) {
	start := time.Now()
	defer func() {
		telemetry.OperationDuration.WithLabelValues("validate_order_time").Observe(time.Since(start).Seconds())
	}()

	ctx, span := telemetry.StartSpan(ctx, "pacing.ValidateOrderTime")
	defer span.End()
	span.SetAttributes(attribute.String("pacing.bucket", e.bucket), attribute.Int64("pacing.instant", instant.Unix()))

	if err := e.prune(ctx, e.now()); err != nil {
		telemetry.RecordError(span, err)
		return models.WaitPeriod{}, err
	}
	periods, err := e.busyPeriods(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return models.WaitPeriod{}, err
	}

	wait := CalculateWait(periods, instant)
	telemetry.WaitPeriodSeconds.Observe(float64(wait.WaitPeriodSeconds))
	span.SetAttributes(attribute.Int64("pacing.wait_seconds", wait.WaitPeriodSeconds))
	return wait, nil
}
