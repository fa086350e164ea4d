package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/buckets/{bucket}/wait", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(http.MethodGet, "/buckets/{bucket}/wait", "418"))

	req := httptest.NewRequest(http.MethodGet, "/buckets/s1/wait", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(http.MethodGet, "/buckets/{bucket}/wait", "418"))
	if after != before+1 {
		t.Errorf("request counter = %v, want %v", after, before+1)
	}
}
