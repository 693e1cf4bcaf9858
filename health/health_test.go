package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chiadapter "github.com/aatuh/radioclock/chi"
	"github.com/aatuh/radioclock/clock"
	"github.com/aatuh/radioclock/ports"
	"github.com/aatuh/radioclock/presenter"
	"github.com/aatuh/radioclock/timeapi"
	"github.com/aatuh/radioclock/timestamp"
)

var start = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type countingChecker struct {
	name   string
	status ports.HealthStatus
	calls  int
}

func (c *countingChecker) Name() string { return c.name }

func (c *countingChecker) Check(context.Context) ports.HealthResult {
	c.calls++
	return ports.HealthResult{Status: c.status, Message: string(c.status)}
}

type sourceFunc func(ctx context.Context, zone string) (timestamp.Timestamp, error)

func (f sourceFunc) Fetch(ctx context.Context, zone string) (timestamp.Timestamp, error) {
	return f(ctx, zone)
}

func okSource() sourceFunc {
	return func(_ context.Context, zone string) (timestamp.Timestamp, error) {
		return timestamp.New(timestamp.Fields{Year: 2024, Month: 6, Day: 1, Hour: 21}, zone)
	}
}

func failingSource() sourceFunc {
	return func(_ context.Context, zone string) (timestamp.Timestamp, error) {
		return timestamp.Timestamp{}, &timeapi.NetworkError{Zone: zone, Status: http.StatusBadGateway}
	}
}

type oneWidget struct{ p *presenter.Presenter }

func (o oneWidget) Default() (*presenter.Presenter, bool) { return o.p, o.p != nil }

func settledWidget(t *testing.T, src presenter.TimeSource) *presenter.Presenter {
	t.Helper()
	p := presenter.New(src, "Asia/Tokyo", presenter.WithID("w1"), presenter.WithClock(clock.NewFake(start)))
	t.Cleanup(p.Unmount)
	states, unsubscribe := p.Subscribe()
	defer unsubscribe()
	if err := p.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if s.Status != presenter.StatusLoading {
				return p
			}
		case <-timeout:
			t.Fatalf("expected widget to settle")
			return nil
		}
	}
}

func TestManager_Readiness(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		statuses []ports.HealthStatus
		want     ports.HealthStatus
	}{
		{name: "all healthy", statuses: []ports.HealthStatus{ports.HealthStatusHealthy, ports.HealthStatusHealthy}, want: ports.HealthStatusHealthy},
		{name: "one degraded", statuses: []ports.HealthStatus{ports.HealthStatusHealthy, ports.HealthStatusDegraded}, want: ports.HealthStatusDegraded},
		{name: "one unhealthy", statuses: []ports.HealthStatus{ports.HealthStatusDegraded, ports.HealthStatusUnhealthy}, want: ports.HealthStatusUnhealthy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ReadinessChecks = []string{"a", "b"}
			m := NewWithConfig(cfg, clock.NewFake(start))
			m.RegisterCheckers(
				&countingChecker{name: "a", status: tc.statuses[0]},
				&countingChecker{name: "b", status: tc.statuses[1]},
			)
			if got := m.GetReadiness(context.Background()).Status; got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestManager_MissingCheckerIsUnhealthy(t *testing.T) {
	t.Parallel()

	m := New(clock.NewFake(start))
	m.RegisterChecker(NewBasicChecker())
	r := m.GetReadiness(context.Background())
	if r.Status != ports.HealthStatusUnhealthy {
		t.Fatalf("expected unhealthy without widgets checker, got %s", r.Status)
	}
	if l := m.GetLiveness(context.Background()); l.Status != ports.HealthStatusHealthy {
		t.Fatalf("expected liveness healthy, got %s", l.Status)
	}
}

func TestManager_CachesResults(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(start)
	cfg := DefaultConfig()
	cfg.LivenessChecks = []string{"c"}
	m := NewWithConfig(cfg, clk)
	c := &countingChecker{name: "c", status: ports.HealthStatusHealthy}
	m.RegisterChecker(c)

	m.GetLiveness(context.Background())
	m.GetLiveness(context.Background())
	if c.calls != 1 {
		t.Fatalf("expected cached result, got %d calls", c.calls)
	}
	clk.Advance(cfg.CacheDuration)
	m.GetLiveness(context.Background())
	if c.calls != 2 {
		t.Fatalf("expected refresh after cache expiry, got %d calls", c.calls)
	}
}

func TestWidgetsChecker(t *testing.T) {
	t.Parallel()

	if r := NewWidgetsChecker(oneWidget{}).Check(context.Background()); r.Status != ports.HealthStatusUnhealthy {
		t.Fatalf("expected unhealthy without default widget, got %s", r.Status)
	}

	ready := settledWidget(t, okSource())
	if r := NewWidgetsChecker(oneWidget{ready}).Check(context.Background()); r.Status != ports.HealthStatusHealthy {
		t.Fatalf("expected healthy for synced widget, got %s: %s", r.Status, r.Message)
	}

	failed := settledWidget(t, failingSource())
	r := NewWidgetsChecker(oneWidget{failed}).Check(context.Background())
	if r.Status != ports.HealthStatusDegraded {
		t.Fatalf("expected degraded for failed widget, got %s", r.Status)
	}
	if d, _ := r.Details.(map[string]any); d["error"] == "" {
		t.Fatalf("expected error detail, got %v", r.Details)
	}
}

func TestUpstreamChecker(t *testing.T) {
	t.Parallel()

	if r := NewUpstreamChecker(okSource(), "UTC").Check(context.Background()); r.Status != ports.HealthStatusHealthy {
		t.Fatalf("expected healthy, got %s", r.Status)
	}
	r := NewUpstreamChecker(failingSource(), "UTC").Check(context.Background())
	if r.Status != ports.HealthStatusDegraded {
		t.Fatalf("expected degraded, got %s", r.Status)
	}
}

func TestHandler_Endpoints(t *testing.T) {
	t.Parallel()

	m := New(clock.NewFake(start))
	m.RegisterCheckers(
		NewBasicChecker(),
		NewWidgetsChecker(oneWidget{settledWidget(t, okSource())}),
		NewUpstreamChecker(failingSource(), "UTC"),
	)
	r := chiadapter.New()
	NewHandler(m).RegisterRoutes(r)

	cases := []struct {
		path string
		code int
		want ports.HealthStatus
	}{
		{path: "/livez", code: http.StatusOK, want: ports.HealthStatusHealthy},
		{path: "/readyz", code: http.StatusOK, want: ports.HealthStatusDegraded},
		{path: "/healthz", code: http.StatusOK, want: ports.HealthStatusDegraded},
		{path: "/health/detailed", code: http.StatusOK, want: ports.HealthStatusDegraded},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.code, rec.Code)
		}
		var body struct {
			Status ports.HealthStatus `json:"status"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decode: %v", tc.path, err)
		}
		if body.Status != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.path, tc.want, body.Status)
		}
	}
}

func TestHandler_UnhealthyIs503(t *testing.T) {
	t.Parallel()

	m := New(clock.NewFake(start))
	m.RegisterCheckers(NewBasicChecker(), NewWidgetsChecker(oneWidget{}), NewUpstreamChecker(okSource(), "UTC"))
	rec := httptest.NewRecorder()
	NewHandler(m).ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
