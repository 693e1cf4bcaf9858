package chi

import (
	"net/http"

	"github.com/aatuh/radioclock/httpx/recover"
	"github.com/aatuh/radioclock/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ChiRouter wraps chi.Mux to implement ports.HTTPRouter.
type ChiRouter struct {
	*chi.Mux
}

// New creates a new chi router that implements ports.HTTPRouter.
func New() ports.HTTPRouter {
	return &ChiRouter{Mux: chi.NewRouter()}
}

// Middleware provides the request plumbing every route shares.
type Middleware struct {
	log ports.Logger
}

// NewMiddleware returns ports.HTTPMiddleware; panics are logged to log.
func NewMiddleware(log ports.Logger) ports.HTTPMiddleware {
	return &Middleware{log: log}
}

// RequestID tags each request with an ID readable by RequestIDFrom.
func (m *Middleware) RequestID() func(http.Handler) http.Handler {
	return middleware.RequestID
}

func (m *Middleware) RealIP() func(http.Handler) http.Handler {
	return middleware.RealIP
}

// Recoverer answers panics with a problem+json 500.
func (m *Middleware) Recoverer() func(http.Handler) http.Handler {
	return recover.Middleware(m.log)
}

// URLParamExtractor implements ports.URLParamExtractor.
type URLParamExtractor struct{}

// NewURLParamExtractor creates a new URL parameter extractor.
func NewURLParamExtractor() ports.URLParamExtractor {
	return &URLParamExtractor{}
}

func (u *URLParamExtractor) URLParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
