package health

import (
	"net/http"

	"github.com/aatuh/radioclock/httpx"
	"github.com/aatuh/radioclock/ports"
	"github.com/aatuh/radioclock/specs"
)

// Handler provides HTTP handlers for health endpoints.
type Handler struct {
	manager *Manager
}

// NewHandler creates a new health handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// LivenessHandler answers 503 only when the process itself is unhealthy.
func (h *Handler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.manager.GetLiveness(r.Context()))
}

// ReadinessHandler answers 200 while degraded so that a time service outage
// keeps serving the page and its retry button.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.manager.GetReadiness(r.Context()))
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := h.manager.GetHealth(r.Context())
	httpx.WriteJSON(w, statusCode(resp.Status), resp)
}

func (h *Handler) DetailedHealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := h.manager.GetDetailedHealth(r.Context())
	httpx.WriteJSON(w, statusCode(resp.Status), resp)
}

// RegisterRoutes registers all health endpoints on the given router.
func (h *Handler) RegisterRoutes(router ports.HTTPRouter) {
	router.Get(specs.Livez, h.LivenessHandler)
	router.Get(specs.Readyz, h.ReadinessHandler)
	router.Get(specs.Healthz, h.HealthHandler)
	router.Get(specs.HealthDetailed, h.DetailedHealthHandler)
}

func writeResult(w http.ResponseWriter, result ports.HealthResult) {
	httpx.WriteJSON(w, statusCode(result.Status), map[string]any{
		"status":    result.Status,
		"timestamp": result.Timestamp,
		"message":   result.Message,
	})
}

func statusCode(s ports.HealthStatus) int {
	if s == ports.HealthStatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
