/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreBackend selects where orders and busy periods live.
type StoreBackend string

const (
	StoreRedis  StoreBackend = "redis"
	StoreMemory StoreBackend = "memory"
)

// Timeframe mode names accepted by PACING_TIMEFRAME_MODE. They mirror
// pacing.TimeframeMode; config does not import the engine.
var timeframeModes = map[string]bool{
	"before_only":      true,
	"after_only":       true,
	"centered":         true,
	"before_and_after": true,
}

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string

	// Storage
	Store         StoreBackend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string // Prepended to orders:/busytimes: keys

	// Pacing
	TimeframeMode string
	Timezone      string // IANA zone used for weekday and time-of-day rule filters
	RulesFile     string // YAML or JSON rule document, optional
	EmptyRules    string // reject | warn
	Location      *time.Location

	// Cross-replica event relay over Redis pub/sub
	EventRelayEnabled bool
	EventChannel      string
	NodeID            string // Generated when empty

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"PACING_ENV", "ENV"}, "development"),
		HTTPBind:    getEnvAny([]string{"PACING_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"PACING_HTTP_PORT"}, 8080),
		MetricsBind: getEnvAny([]string{"PACING_METRICS_BIND"}, "127.0.0.1:9000"),

		Store:         StoreBackend(strings.ToLower(getEnvAny([]string{"PACING_STORE"}, string(StoreRedis)))),
		RedisAddr:     getEnvAny([]string{"PACING_REDIS_ADDR", "REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"PACING_REDIS_PASSWORD", "REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"PACING_REDIS_DB", "REDIS_DB"}, 0),
		KeyPrefix:     getEnvAny([]string{"PACING_KEY_PREFIX"}, ""),

		TimeframeMode: strings.ToLower(getEnvAny([]string{"PACING_TIMEFRAME_MODE"}, "before_only")),
		Timezone:      getEnvAny([]string{"PACING_TIMEZONE"}, "UTC"),
		RulesFile:     getEnvAny([]string{"PACING_RULES_FILE"}, ""),
		EmptyRules:    strings.ToLower(getEnvAny([]string{"PACING_EMPTY_RULES"}, "warn")),

		EventRelayEnabled: getEnvBoolAny([]string{"PACING_EVENT_RELAY_ENABLED"}, false),
		EventChannel:      getEnvAny([]string{"PACING_EVENT_CHANNEL"}, "pacing:events"),
		NodeID:            getEnvAny([]string{"PACING_NODE_ID", "HOSTNAME"}, ""),

		TracingEnabled:    getEnvBoolAny([]string{"PACING_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"PACING_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"PACING_TRACING_SAMPLE_RATE"}, 1.0),
	}

	if cfg.Store != StoreRedis && cfg.Store != StoreMemory {
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store)
	}
	if cfg.Store == StoreRedis && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("PACING_REDIS_ADDR must be provided when PACING_STORE=redis")
	}

	if cfg.EventRelayEnabled && cfg.Store != StoreRedis {
		return nil, fmt.Errorf("PACING_EVENT_RELAY_ENABLED requires PACING_STORE=redis")
	}

	if !timeframeModes[cfg.TimeframeMode] {
		return nil, fmt.Errorf("unsupported timeframe mode %q", cfg.TimeframeMode)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.EmptyRules != "reject" && cfg.EmptyRules != "warn" {
		return nil, fmt.Errorf("PACING_EMPTY_RULES must be reject or warn, got %q", cfg.EmptyRules)
	}

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid PACING_HTTP_PORT %d", cfg.HTTPPort)
	}
	if cfg.TracingSampleRate < 0 || cfg.TracingSampleRate > 1 {
		return nil, fmt.Errorf("PACING_TRACING_SAMPLE_RATE must be between 0 and 1, got %v", cfg.TracingSampleRate)
	}

	if strings.EqualFold(cfg.Environment, "production") && cfg.Store == StoreMemory {
		return nil, fmt.Errorf("PACING_STORE=memory is not allowed in production")
	}
	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"ENV":                         "use PACING_ENV",
		"REDIS_ADDR":                  "use PACING_REDIS_ADDR",
		"TIMEFRAME_MODE":              "use PACING_TIMEFRAME_MODE",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "use PACING_OTLP_ENDPOINT",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

// HTTPAddr returns the API listen address.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
