package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aatuh/radioclock/clock"
	"github.com/aatuh/radioclock/logzap"
	"github.com/aatuh/radioclock/metrics"
	"github.com/aatuh/radioclock/presenter"
	"github.com/aatuh/radioclock/timestamp"
	"github.com/aatuh/radioclock/zones"
	"go.uber.org/zap/zaptest"
)

var start = time.Date(2024, 2, 29, 0, 30, 0, 0, time.UTC)

// stubSource answers every fetch at once with 2024-02-29 09:30:00 in the
// requested zone, or with err when set.
type stubSource struct {
	mu    sync.Mutex
	err   error
	zones []string
}

func (s *stubSource) Fetch(_ context.Context, zone string) (timestamp.Timestamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones = append(s.zones, zone)
	if s.err != nil {
		return timestamp.Timestamp{}, s.err
	}
	return timestamp.New(timestamp.Fields{Year: 2024, Month: 2, Day: 29, Hour: 9, Minute: 30}, zone)
}

func (s *stubSource) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *stubSource) lastZone() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.zones) == 0 {
		return ""
	}
	return s.zones[len(s.zones)-1]
}

// gaugeRecorder tracks the mounted widget count.
type gaugeRecorder struct {
	metrics.NoopClock
	mu      sync.Mutex
	mounted int
	lowest  int
}

func (g *gaugeRecorder) WidgetMounted() {
	g.mu.Lock()
	g.mounted++
	g.mu.Unlock()
}

func (g *gaugeRecorder) WidgetUnmounted() {
	g.mu.Lock()
	g.mounted--
	if g.mounted < g.lowest {
		g.lowest = g.mounted
	}
	g.mu.Unlock()
}

func (g *gaugeRecorder) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mounted
}

func (g *gaugeRecorder) floor() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lowest
}

func newTestHub(t *testing.T, src presenter.TimeSource, opts ...HubOption) *Hub {
	t.Helper()
	base := []HubOption{
		WithHubClock(clock.NewFake(start)),
		WithHubLogger(logzap.New(zaptest.NewLogger(t))),
	}
	h := NewHub(src, append(base, opts...)...)
	t.Cleanup(h.Close)
	return h
}

// settle waits until p has left Loading and returns that state.
func settle(t *testing.T, p *presenter.Presenter) presenter.State {
	t.Helper()
	states, unsubscribe := p.Subscribe()
	defer unsubscribe()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-states:
			if !ok {
				t.Fatalf("widget unmounted while waiting")
			}
			if s.Status != presenter.StatusLoading {
				return s
			}
		case <-timeout:
			t.Fatalf("expected widget to leave loading")
			return presenter.State{}
		}
	}
}

func TestHub_MountUsesDefaultZone(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	h := newTestHub(t, src, WithDefaultZone("Europe/Paris"))

	id, p, err := h.Mount(context.Background(), "")
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if len(id) != 26 {
		t.Fatalf("expected a ULID, got %q", id)
	}
	s := settle(t, p)
	if s.Status != presenter.StatusReady || s.Zone != "Europe/Paris" || s.Widget != id {
		t.Fatalf("unexpected state %+v", s)
	}
	if got, err := h.Get(id); err != nil || got != p {
		t.Fatalf("expected Get to return the mounted widget, got %v %v", got, err)
	}
	if h.Len() != 1 {
		t.Fatalf("expected 1 widget, got %d", h.Len())
	}
}

func TestHub_MountOutlivesRequestContext(t *testing.T) {
	t.Parallel()

	h := newTestHub(t, &stubSource{})
	ctx, cancel := context.WithCancel(context.Background())
	_, p, err := h.Mount(ctx, "UTC")
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	cancel()
	settle(t, p)
	if err := p.Resync(context.Background()); err != nil {
		t.Fatalf("expected widget to survive request cancellation, got %v", err)
	}
}

func TestHub_RejectsUnknownZone(t *testing.T) {
	t.Parallel()

	h := newTestHub(t, &stubSource{})
	_, _, err := h.Mount(context.Background(), "Mars/Olympus")
	if !errors.Is(err, zones.ErrUnknownZone) {
		t.Fatalf("expected ErrUnknownZone, got %v", err)
	}
	if h.Len() != 0 {
		t.Fatalf("expected no widgets, got %d", h.Len())
	}
}

func TestHub_EnforcesWidgetCap(t *testing.T) {
	t.Parallel()

	rec := &gaugeRecorder{}
	h := newTestHub(t, &stubSource{}, WithMaxWidgets(2), WithHubMetrics(rec))

	first, _, err := h.Mount(context.Background(), "UTC")
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if _, _, err := h.Mount(context.Background(), "UTC"); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if _, _, err := h.Mount(context.Background(), "UTC"); !errors.Is(err, ErrTooManyWidgets) {
		t.Fatalf("expected ErrTooManyWidgets, got %v", err)
	}
	if rec.value() != 2 {
		t.Fatalf("expected gauge 2, got %d", rec.value())
	}

	if err := h.Unmount(first); err != nil {
		t.Fatalf("unmount: %v", err)
	}
	if _, _, err := h.Mount(context.Background(), "UTC"); err != nil {
		t.Fatalf("expected room after unmount, got %v", err)
	}
}

func TestHub_Unmount(t *testing.T) {
	t.Parallel()

	h := newTestHub(t, &stubSource{})
	id, p, err := h.Mount(context.Background(), "UTC")
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if err := h.Unmount(id); err != nil {
		t.Fatalf("unmount: %v", err)
	}
	if _, err := h.Get(id); !errors.Is(err, ErrWidgetNotFound) {
		t.Fatalf("expected ErrWidgetNotFound, got %v", err)
	}
	if err := h.Unmount(id); !errors.Is(err, ErrWidgetNotFound) {
		t.Fatalf("expected ErrWidgetNotFound on second unmount, got %v", err)
	}
	if err := p.Resync(context.Background()); !errors.Is(err, presenter.ErrNotMounted) {
		t.Fatalf("expected unmounted presenter, got %v", err)
	}
}

func TestHub_DefaultWidget(t *testing.T) {
	t.Parallel()

	h := newTestHub(t, &stubSource{})
	if _, ok := h.Default(); ok {
		t.Fatalf("expected no default widget yet")
	}
	p, err := h.MountDefault(context.Background(), "Asia/Tokyo")
	if err != nil {
		t.Fatalf("mount default: %v", err)
	}
	if got, ok := h.Default(); !ok || got != p {
		t.Fatalf("expected default widget")
	}
	if _, err := h.MountDefault(context.Background(), "UTC"); !errors.Is(err, presenter.ErrAlreadyMounted) {
		t.Fatalf("expected ErrAlreadyMounted, got %v", err)
	}
	if err := h.Unmount(p.ID()); !errors.Is(err, ErrDefaultWidget) {
		t.Fatalf("expected ErrDefaultWidget, got %v", err)
	}
}

func TestHub_Close(t *testing.T) {
	t.Parallel()

	rec := &gaugeRecorder{}
	h := newTestHub(t, &stubSource{}, WithHubMetrics(rec))
	if _, err := h.MountDefault(context.Background(), ""); err != nil {
		t.Fatalf("mount default: %v", err)
	}
	_, p, err := h.Mount(context.Background(), "UTC")
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	states, _ := p.Subscribe()

	h.Close()
	h.Close()

	if h.Len() != 0 {
		t.Fatalf("expected no widgets after close, got %d", h.Len())
	}
	if rec.value() != 0 {
		t.Fatalf("expected gauge 0, got %d", rec.value())
	}
	for range states {
	}
	if _, _, err := h.Mount(context.Background(), "UTC"); !errors.Is(err, ErrHubClosed) {
		t.Fatalf("expected ErrHubClosed, got %v", err)
	}
}

func TestHub_ConcurrentMountDefault(t *testing.T) {
	t.Parallel()

	h := newTestHub(t, &stubSource{})
	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.MountDefault(context.Background(), "UTC")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	mounted := 0
	for err := range errs {
		switch {
		case err == nil:
			mounted++
		case !errors.Is(err, presenter.ErrAlreadyMounted):
			t.Fatalf("expected ErrAlreadyMounted, got %v", err)
		}
	}
	if mounted != 1 {
		t.Fatalf("expected exactly one default widget, got %d", mounted)
	}
	if h.Len() != 1 {
		t.Fatalf("expected 1 widget, got %d", h.Len())
	}
}

func TestHub_CloseDuringMountsKeepsGaugeBalanced(t *testing.T) {
	t.Parallel()

	rec := &gaugeRecorder{}
	h := newTestHub(t, &stubSource{}, WithHubMetrics(rec))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = h.Mount(context.Background(), "UTC")
		}()
	}
	h.Close()
	wg.Wait()
	h.Close()

	if rec.floor() < 0 {
		t.Fatalf("expected gauge never below zero, got %d", rec.floor())
	}
	if rec.value() != 0 {
		t.Fatalf("expected gauge 0 after close, got %d", rec.value())
	}
	if h.Len() != 0 {
		t.Fatalf("expected no widgets after close, got %d", h.Len())
	}
}
