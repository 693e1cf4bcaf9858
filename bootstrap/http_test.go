package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aatuh/radioclock/clock"
	"github.com/aatuh/radioclock/docs"
	"github.com/aatuh/radioclock/health"
	"github.com/aatuh/radioclock/logzap"
	rateln "github.com/aatuh/radioclock/middleware/ratelimit"
	"github.com/aatuh/radioclock/ports"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T, opts RouterOptions) (ports.HTTPRouter, *prometheus.Registry) {
	t.Helper()
	clk := clock.NewFake(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	reg := prometheus.NewRegistry()
	opts.Registerer = reg
	opts.Clock = clk

	r := NewDefaultRouter(logzap.New(zaptest.NewLogger(t)), opts)
	hm := health.New(clk)
	hm.RegisterChecker(health.NewBasicChecker())
	MountSystemEndpoints(r, health.NewHandler(hm), docs.NewHandler(docs.New(docs.DefaultConfig())), reg)
	return r, reg
}

func TestDefaultRouter_SystemEndpoints(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, RouterOptions{})
	for _, path := range []string{"/livez", "/docs", "/docs/openapi.json", "/version"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s: expected security headers", path)
		}
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `http_requests_total{method="GET",route="/livez",status="200"} 1`) {
		t.Fatalf("expected request counter for /livez, got %s", rec.Body.String())
	}
}

func TestDefaultRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, RouterOptions{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/widgets", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected CORS allow origin header, got %v", rec.Header())
	}
}

func TestDefaultRouter_RateLimitsMutations(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, RouterOptions{RateLimit: rateln.Options{Capacity: 1, RefillRate: 1}})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/version", nil)
		req.RemoteAddr = "10.1.1.1:4000"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := send(); code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}
