package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/aatuh/radioclock/clock"
	"github.com/aatuh/radioclock/httpx"
	"github.com/aatuh/radioclock/logzap"
	"github.com/aatuh/radioclock/ports"
	"github.com/aatuh/radioclock/presenter"
	"github.com/aatuh/radioclock/specs"
	"github.com/aatuh/radioclock/timeapi"
	"github.com/aatuh/radioclock/validation"
	"github.com/aatuh/radioclock/zones"
)

// DefaultHeartbeat is the interval between SSE keep-alive comments.
const DefaultHeartbeat = 15 * time.Second

type createRequest struct {
	Zone string `json:"zone" validate:"omitempty,zone"`
}

type zoneRequest struct {
	Zone string `json:"zone" validate:"required,zone"`
}

type zonesResponse struct {
	Default string        `json:"default"`
	Zones   []zones.Entry `json:"zones"`
}

// Handler serves the widget page and the widget JSON API.
type Handler struct {
	hub       *Hub
	validator ports.Validator
	params    ports.URLParamExtractor
	log       ports.Logger
	clock     ports.Clock
	heartbeat time.Duration
	page      *template.Template
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

func WithHandlerLogger(l ports.Logger) HandlerOption { return func(h *Handler) { h.log = l } }
func WithHandlerClock(c ports.Clock) HandlerOption   { return func(h *Handler) { h.clock = c } }
func WithHeartbeat(d time.Duration) HandlerOption    { return func(h *Handler) { h.heartbeat = d } }

// NewHandler builds a Handler. params extracts route parameters from the
// router in use.
func NewHandler(hub *Hub, v ports.Validator, params ports.URLParamExtractor, opts ...HandlerOption) (*Handler, error) {
	page, err := parsePage()
	if err != nil {
		return nil, err
	}
	h := &Handler{
		hub:       hub,
		validator: v,
		params:    params,
		log:       logzap.NewNop(),
		clock:     clock.NewSystemClock(),
		heartbeat: DefaultHeartbeat,
		page:      page,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Register mounts the widget routes on r.
func (h *Handler) Register(r ports.HTTPRouter) {
	r.Get(specs.Page, h.indexPage)
	r.Get(specs.WidgetPage, h.widgetPage)
	r.Mount("/static", staticHandler())

	r.Get(specs.Zones, h.listZones)
	r.Post(specs.Widgets, h.create)
	r.Get(specs.Widget, h.get)
	r.Delete(specs.Widget, h.unmount)
	r.Post(specs.WidgetResync, h.resync)
	r.Put(specs.WidgetZone, h.selectZone)
	r.Get(specs.WidgetStream, h.stream)
}

func (h *Handler) indexPage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.hub.Default()
	if !ok {
		httpx.WriteProblem(w, http.StatusServiceUnavailable, httpx.Problem{
			Detail: "default widget is not mounted",
		})
		return
	}
	h.renderPage(w, p.Snapshot())
}

func (h *Handler) widgetPage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.renderPage(w, p.Snapshot())
}

func (h *Handler) renderPage(w http.ResponseWriter, s presenter.State) {
	var buf bytes.Buffer
	if err := h.page.Execute(&buf, newPageData(s)); err != nil {
		h.log.Error("render widget page", "widget", s.Widget, "err", err)
		httpx.WriteProblem(w, http.StatusInternalServerError, httpx.Problem{
			Detail: "failed to render page",
		})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) listZones(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, zonesResponse{
		Default: h.hub.DefaultZone(),
		Zones:   zones.All(),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, p, err := h.hub.Mount(r.Context(), req.Zone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", specs.WidgetPath(specs.Widget, id))
	httpx.WriteJSON(w, http.StatusCreated, p.Snapshot())
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p.Snapshot())
}

func (h *Handler) unmount(w http.ResponseWriter, r *http.Request) {
	id := h.params.URLParam(r, specs.WidgetIDParam)
	if err := h.hub.Unmount(id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resync(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeSyncResult(w, r, p, p.Resync(r.Context()))
}

func (h *Handler) selectZone(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req zoneRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeSyncResult(w, r, p, p.SelectZone(r.Context(), req.Zone))
}

// writeSyncResult reports a resync outcome. A resync overtaken by a newer
// one is not an error for the caller: the widget is already loading the
// newer result.
func (h *Handler) writeSyncResult(w http.ResponseWriter, r *http.Request, p *presenter.Presenter, err error) {
	switch {
	case err == nil, errors.Is(err, presenter.ErrSuperseded):
		httpx.WriteJSON(w, http.StatusOK, p.Snapshot())
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		h.log.Debug("client went away during resync", "widget", p.ID())
	default:
		h.writeError(w, r, err)
	}
}

// stream pushes widget state as server-sent events until the client leaves
// or the widget is unmounted.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.log.Warn("stream flush unsupported", "widget", p.ID(), "err", err)
		return
	}

	states, unsubscribe := p.Subscribe()
	defer unsubscribe()
	heartbeat := h.clock.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case s, open := <-states:
			if !open {
				_ = writeEvent(w, "gone", "", map[string]string{"widget": p.ID()})
				_ = rc.Flush()
				return
			}
			err = writeEvent(w, "state", fmt.Sprint(s.Token), s)
		case <-heartbeat.Chan():
			_, err = fmt.Fprint(w, ": keep-alive\n\n")
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			h.log.Debug("stream closed", "widget", p.ID(), "err", err)
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*presenter.Presenter, bool) {
	id := h.params.URLParam(r, specs.WidgetIDParam)
	p, err := h.hub.Get(id)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return p, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, httpx.Problem{Detail: err.Error()})
		return false
	}
	if err := h.validator.ValidateStruct(r.Context(), dst); err != nil {
		p := httpx.Problem{Title: "Validation Failed", Detail: err.Error()}
		if fields := validation.Fields(err); len(fields) > 0 {
			p.With("errors", fields)
		}
		httpx.WriteProblem(w, http.StatusBadRequest, p)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrWidgetNotFound), errors.Is(err, presenter.ErrNotMounted):
		status = http.StatusNotFound
	case errors.Is(err, zones.ErrUnknownZone):
		status = http.StatusBadRequest
	case errors.Is(err, ErrTooManyWidgets):
		status = http.StatusTooManyRequests
	case errors.Is(err, ErrDefaultWidget):
		status = http.StatusConflict
	case errors.Is(err, ErrHubClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, timeapi.ErrNetwork), errors.Is(err, timeapi.ErrParse):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		h.log.Error("widget request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	p := httpx.Problem{Detail: err.Error(), Instance: r.URL.Path}
	if id := h.params.URLParam(r, specs.WidgetIDParam); id != "" {
		p.With("widget", id)
	}
	httpx.WriteProblem(w, status, p)
}
