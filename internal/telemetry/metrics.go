/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersIngested counts orders stored, by source channel.
	OrdersIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacing_orders_ingested_total",
			Help: "Total number of orders ingested",
		},
		[]string{"source"},
	)

	// RuleEvaluations counts rule checks by outcome.
	RuleEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacing_rule_evaluations_total",
			Help: "Total number of rule evaluations by result",
		},
		[]string{"rule_id", "result"},
	)

	// BusyPeriodsCreated counts busy periods persisted.
	BusyPeriodsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacing_busy_periods_created_total",
			Help: "Total number of busy periods created",
		},
		[]string{"rule_id", "threshold"},
	)

	// StoreErrors counts failed store operations.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacing_store_errors_total",
			Help: "Total number of time-series store failures",
		},
		[]string{"operation"},
	)

	// OperationDuration tracks engine operation latency.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pacing_operation_duration_seconds",
			Help:    "Duration of pacing engine operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	// WaitPeriodSeconds records computed wait answers.
	WaitPeriodSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pacing_wait_period_seconds",
			Help:    "Wait periods returned by order time validation",
			Buckets: []float64{0, 60, 300, 600, 900, 1800, 3600},
		},
	)

	// APIRequestsTotal counts HTTP requests.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacing_api_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// APIRequestDuration tracks HTTP latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pacing_api_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint", "status"},
	)

	// APIActiveConnections gauges in-flight requests.
	APIActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pacing_api_active_connections",
			Help: "Number of in-flight HTTP requests",
		},
	)
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
