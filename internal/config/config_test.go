package config

import (
	"strings"
	"testing"
)

var envKeys = []string{
	"PACING_ENV", "ENV", "PACING_HTTP_BIND", "PACING_HTTP_PORT", "PACING_METRICS_BIND",
	"PACING_STORE", "PACING_REDIS_ADDR", "REDIS_ADDR", "PACING_REDIS_PASSWORD", "REDIS_PASSWORD",
	"PACING_REDIS_DB", "REDIS_DB", "PACING_KEY_PREFIX", "PACING_TIMEFRAME_MODE", "TIMEFRAME_MODE",
	"PACING_TIMEZONE", "PACING_RULES_FILE", "PACING_EMPTY_RULES", "PACING_TRACING_ENABLED",
	"PACING_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT", "PACING_TRACING_SAMPLE_RATE",
	"PACING_EVENT_RELAY_ENABLED", "PACING_EVENT_CHANNEL", "PACING_NODE_ID", "HOSTNAME",
}

// clearEnv blanks every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Store != StoreRedis {
		t.Errorf("store = %q, want redis", cfg.Store)
	}
	if cfg.TimeframeMode != "before_only" {
		t.Errorf("timeframe mode = %q", cfg.TimeframeMode)
	}
	if cfg.EmptyRules != "warn" {
		t.Errorf("empty rules = %q", cfg.EmptyRules)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Errorf("location = %v", cfg.Location)
	}
	if cfg.HTTPAddr() != "0.0.0.0:8080" {
		t.Errorf("http addr = %q", cfg.HTTPAddr())
	}
}

func TestLoadReadsPacingEnvKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("PACING_STORE", "Memory")
	t.Setenv("PACING_TIMEFRAME_MODE", "CENTERED")
	t.Setenv("PACING_TIMEZONE", "UTC")
	t.Setenv("PACING_KEY_PREFIX", "pacing:")
	t.Setenv("PACING_EMPTY_RULES", "reject")
	t.Setenv("PACING_RULES_FILE", "/etc/pacing/rules.yaml")
	t.Setenv("PACING_HTTP_PORT", "9090")
	t.Setenv("PACING_TRACING_ENABLED", "yes")
	t.Setenv("PACING_TRACING_SAMPLE_RATE", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Store != StoreMemory || cfg.TimeframeMode != "centered" || cfg.EmptyRules != "reject" {
		t.Errorf("unexpected pacing config: %+v", cfg)
	}
	if cfg.KeyPrefix != "pacing:" || cfg.RulesFile != "/etc/pacing/rules.yaml" {
		t.Errorf("unexpected paths: prefix=%q rules=%q", cfg.KeyPrefix, cfg.RulesFile)
	}
	if cfg.HTTPPort != 9090 || !cfg.TracingEnabled || cfg.TracingSampleRate != 0.25 {
		t.Errorf("unexpected listener/tracing config: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "store", key: "PACING_STORE", val: "postgres", want: "store backend"},
		{name: "mode", key: "PACING_TIMEFRAME_MODE", val: "sideways", want: "timeframe mode"},
		{name: "timezone", key: "PACING_TIMEZONE", val: "Mars/Olympus", want: "timezone"},
		{name: "empty rules", key: "PACING_EMPTY_RULES", val: "ignore", want: "PACING_EMPTY_RULES"},
		{name: "port", key: "PACING_HTTP_PORT", val: "70000", want: "PACING_HTTP_PORT"},
		{name: "sample rate", key: "PACING_TRACING_SAMPLE_RATE", val: "1.5", want: "SAMPLE_RATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadEventRelayRequiresRedis(t *testing.T) {
	clearEnv(t)
	t.Setenv("PACING_EVENT_RELAY_ENABLED", "true")
	t.Setenv("PACING_STORE", "memory")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "PACING_STORE=redis") {
		t.Fatalf("expected relay to require redis, got %v", err)
	}

	t.Setenv("PACING_STORE", "redis")
	t.Setenv("PACING_NODE_ID", "pacing-0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.EventRelayEnabled || cfg.EventChannel != "pacing:events" || cfg.NodeID != "pacing-0" {
		t.Errorf("unexpected relay config: %+v", cfg)
	}
}

func TestLoadProductionRejectsMemoryStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("PACING_ENV", "production")
	t.Setenv("PACING_STORE", "memory")

	if _, err := Load(); err == nil {
		t.Fatal("expected production config load to fail with the memory store")
	}

	t.Setenv("PACING_STORE", "redis")
	if _, err := Load(); err != nil {
		t.Fatalf("expected production config with redis to load: %v", err)
	}
}

func TestLoadReportsLegacyEnvWarnings(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("TIMEFRAME_MODE", "centered")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.LegacyEnvWarnings) != 2 {
		t.Fatalf("expected two legacy env warnings, got %v", cfg.LegacyEnvWarnings)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("legacy REDIS_ADDR should still be honoured, got %q", cfg.RedisAddr)
	}
}
