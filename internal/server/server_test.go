package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/orderpacing/internal/config"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment:   "test",
		HTTPBind:      "127.0.0.1",
		HTTPPort:      8080,
		MetricsBind:   "127.0.0.1:9000",
		Store:         config.StoreMemory,
		TimeframeMode: "before_only",
		Timezone:      "UTC",
		EmptyRules:    "warn",
	}
}

func TestNewServesAPIWithMemoryStore(t *testing.T) {
	srv, err := New(memoryConfig(t), zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer srv.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("health status = %d body=%s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options=%q, want nosniff", got)
	}
	if srv.HTTPServer().Addr != "127.0.0.1:8080" {
		t.Errorf("http addr = %q", srv.HTTPServer().Addr)
	}
	if srv.MetricsServer().Addr != "127.0.0.1:9000" {
		t.Errorf("metrics addr = %q", srv.MetricsServer().Addr)
	}
}

func TestNewRejectsEmptyRulesUnderReject(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.EmptyRules = "reject"

	if _, err := New(cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected empty rule set to be rejected")
	}
}

func TestNewLoadsRulesFile(t *testing.T) {
	path := t.TempDir() + "/rules.yaml"
	writeFile(t, path, "rules:\n  - ruleId: rush\n    timeFrameMinutes: 15\n    busyTimeMinutes: 10\n    maxOrders: 20\n")

	cfg := memoryConfig(t)
	cfg.RulesFile = path
	cfg.EmptyRules = "reject"

	srv, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	defer srv.Close()

	if got := srv.Registry().Rules().Len(); got != 1 {
		t.Fatalf("rules = %d, want 1", got)
	}
}

func TestNewReportsInvalidRulesFile(t *testing.T) {
	path := t.TempDir() + "/rules.yaml"
	writeFile(t, path, "rules:\n  - ruleId: broken\n    timeFrameMinutes: 15\n    busyTimeMinutes: 10\n")

	cfg := memoryConfig(t)
	cfg.RulesFile = path

	_, err := New(cfg, zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected configuration error naming the rule, got %v", err)
	}
}

func TestSecurityHeadersMiddleware_SetsHSTSOnHTTPS(t *testing.T) {
	h := securityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("expected no HSTS on non-HTTPS request, got %q", got)
	}

	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("Strict-Transport-Security=%q", got)
	}
}
