package docs

import (
	"net/http"

	"github.com/aatuh/radioclock/httpx"
	"github.com/aatuh/radioclock/ports"
	"github.com/aatuh/radioclock/specs"
)

// Handler provides HTTP handlers for documentation endpoints.
type Handler struct {
	manager *Manager
}

// NewHandler creates a new docs handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) HTMLHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.manager.HTML()
	if err != nil {
		httpx.WriteProblem(w, http.StatusInternalServerError, httpx.Problem{Detail: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (h *Handler) OpenAPIHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.manager.OpenAPI()
	if err != nil {
		httpx.WriteProblem(w, http.StatusInternalServerError, httpx.Problem{Detail: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *Handler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"version": h.manager.Version()})
}

// RegisterRoutes registers all documentation endpoints on the given router.
func (h *Handler) RegisterRoutes(router ports.HTTPRouter) {
	router.Get(specs.Docs, h.HTMLHandler)
	router.Get(specs.DocsOpenAPI, h.OpenAPIHandler)
	router.Get(specs.Version, h.VersionHandler)
}
