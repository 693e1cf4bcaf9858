package cors

import (
	"net/http"

	"github.com/aatuh/radioclock/ports"
	"github.com/go-chi/cors"
)

// Handler provides CORS functionality.
type Handler struct{}

// New creates a new CORS handler that implements ports.CORSHandler.
func New() ports.CORSHandler {
	return &Handler{}
}

// DefaultOptions allows any origin to read widget state and drive widgets.
// No credentials are involved, so a wildcard origin is safe.
func DefaultOptions() ports.CORSOptions {
	return ports.CORSOptions{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Last-Event-ID", "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "Retry-After", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

// Handler returns a CORS handler with the given options.
func (h *Handler) Handler(opts ports.CORSOptions) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   opts.AllowedMethods,
		AllowedHeaders:   opts.AllowedHeaders,
		ExposedHeaders:   opts.ExposedHeaders,
		AllowCredentials: opts.AllowCredentials,
		MaxAge:           opts.MaxAge,
	})
}
