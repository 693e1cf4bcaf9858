// Package widget hosts clock widgets: a registry of mounted presenters and
// the HTTP surface that renders and drives them.
package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aatuh/radioclock/clock"
	"github.com/aatuh/radioclock/idgen"
	"github.com/aatuh/radioclock/logzap"
	"github.com/aatuh/radioclock/metrics"
	"github.com/aatuh/radioclock/ports"
	"github.com/aatuh/radioclock/presenter"
	"github.com/aatuh/radioclock/timestamp"
	"github.com/aatuh/radioclock/zones"
)

var (
	ErrWidgetNotFound = errors.New("widget not found")
	ErrTooManyWidgets = errors.New("widget limit reached")
	ErrDefaultWidget  = errors.New("the default widget cannot be unmounted")
	ErrHubClosed      = errors.New("widget hub closed")
)

// DefaultMaxWidgets bounds the number of concurrently mounted widgets.
const DefaultMaxWidgets = 100

// Hub owns every mounted widget. Widgets outlive the request that created
// them and stop on Unmount or Close.
type Hub struct {
	source      presenter.TimeSource
	clock       ports.Clock
	log         ports.Logger
	ids         ports.IDGen
	metrics     metrics.ClockRecorder
	format      timestamp.Formatter
	maxWidgets  int
	defaultZone string

	mu        sync.RWMutex
	widgets   map[string]*presenter.Presenter
	defaultID string
	closed    bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

func WithHubClock(c ports.Clock) HubOption            { return func(h *Hub) { h.clock = c } }
func WithHubLogger(l ports.Logger) HubOption          { return func(h *Hub) { h.log = l } }
func WithHubIDGen(g ports.IDGen) HubOption            { return func(h *Hub) { h.ids = g } }
func WithHubMetrics(m metrics.ClockRecorder) HubOption { return func(h *Hub) { h.metrics = m } }
func WithHubFormatter(f timestamp.Formatter) HubOption { return func(h *Hub) { h.format = f } }

// WithMaxWidgets caps mounted widgets; values below one are ignored.
func WithMaxWidgets(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.maxWidgets = n
		}
	}
}

// WithDefaultZone sets the zone used when Mount is given none.
func WithDefaultZone(zone string) HubOption {
	return func(h *Hub) { h.defaultZone = zone }
}

// NewHub returns an empty hub fetching from source.
func NewHub(source presenter.TimeSource, opts ...HubOption) *Hub {
	h := &Hub{
		source:      source,
		clock:       clock.NewSystemClock(),
		log:         logzap.NewNop(),
		metrics:     metrics.NoopClock{},
		format:      timestamp.Japanese(),
		maxWidgets:  DefaultMaxWidgets,
		defaultZone: zones.Default,
		widgets:     make(map[string]*presenter.Presenter),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.ids == nil {
		h.ids = idgen.NewULIDGen(h.clock)
	}
	return h
}

// DefaultZone is the zone new widgets start in.
func (h *Hub) DefaultZone() string { return h.defaultZone }

// Mount creates, registers and starts a widget showing zone, or the default
// zone when zone is empty. The widget is not bound to ctx's cancellation.
func (h *Hub) Mount(ctx context.Context, zone string) (string, *presenter.Presenter, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mountLocked(ctx, zone)
}

// MountDefault mounts the widget served at the root page. It can only be
// mounted once and is never unmounted before Close.
func (h *Hub) MountDefault(ctx context.Context, zone string) (*presenter.Presenter, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.defaultID != "" {
		return nil, presenter.ErrAlreadyMounted
	}
	id, p, err := h.mountLocked(ctx, zone)
	if err != nil {
		return nil, err
	}
	h.defaultID = id
	h.log.Info("default widget mounted", "widget", id, "zone", p.Zone())
	return p, nil
}

// mountLocked registers a widget only once its presenter is running, so
// Close never sees one that was not counted. Presenter.Mount does not block.
func (h *Hub) mountLocked(ctx context.Context, zone string) (string, *presenter.Presenter, error) {
	if zone == "" {
		zone = h.defaultZone
	}
	if !zones.Contains(zone) {
		return "", nil, fmt.Errorf("%w: %s", zones.ErrUnknownZone, zone)
	}
	if h.closed {
		return "", nil, ErrHubClosed
	}
	if len(h.widgets) >= h.maxWidgets {
		return "", nil, ErrTooManyWidgets
	}
	id := h.ids.New()
	p := presenter.New(h.source, zone,
		presenter.WithID(id),
		presenter.WithClock(h.clock),
		presenter.WithLogger(h.log),
		presenter.WithIDGen(h.ids),
		presenter.WithMetrics(h.metrics),
		presenter.WithFormatter(h.format),
	)
	if err := p.Mount(context.WithoutCancel(ctx)); err != nil {
		return "", nil, fmt.Errorf("mount widget: %w", err)
	}
	h.widgets[id] = p
	h.metrics.WidgetMounted()
	return id, p, nil
}

// Default returns the root page widget.
func (h *Hub) Default() (*presenter.Presenter, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.defaultID == "" {
		return nil, false
	}
	p, ok := h.widgets[h.defaultID]
	return p, ok
}

// Get returns the widget with id.
func (h *Hub) Get(id string) (*presenter.Presenter, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.widgets[id]
	if !ok {
		return nil, ErrWidgetNotFound
	}
	return p, nil
}

// Unmount stops and forgets the widget with id.
func (h *Hub) Unmount(id string) error {
	h.mu.Lock()
	p, ok := h.widgets[id]
	if !ok {
		h.mu.Unlock()
		return ErrWidgetNotFound
	}
	if id == h.defaultID {
		h.mu.Unlock()
		return ErrDefaultWidget
	}
	delete(h.widgets, id)
	h.mu.Unlock()

	p.Unmount()
	h.metrics.WidgetUnmounted()
	return nil
}

// Len returns the number of mounted widgets.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.widgets)
}

// Close unmounts every widget, the default one included. Mount fails
// afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	all := make([]*presenter.Presenter, 0, len(h.widgets))
	for id, p := range h.widgets {
		all = append(all, p)
		delete(h.widgets, id)
	}
	h.defaultID = ""
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range all {
		wg.Add(1)
		go func(p *presenter.Presenter) {
			defer wg.Done()
			p.Unmount()
			h.metrics.WidgetUnmounted()
		}(p)
	}
	wg.Wait()
	h.log.Info("widget hub closed", "widgets", len(all))
}
