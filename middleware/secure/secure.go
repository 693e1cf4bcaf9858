package secure

import (
	"net/http"

	"github.com/aatuh/radioclock/ports"
)

// PageCSP lets the widget page load its own script and stylesheet and open
// its event stream, nothing else.
const PageCSP = "default-src 'self'; script-src 'self'; style-src 'self'; " +
	"connect-src 'self'; img-src 'self' data:; base-uri 'none'; " +
	"form-action 'self'; frame-ancestors 'none'"

// Handler adds security headers. HSTS is only set when TLS is detected.
type Handler struct {
	csp string
}

// New returns a SecurityHandler with the given Content-Security-Policy, or
// PageCSP when empty.
func New(csp string) ports.SecurityHandler {
	if csp == "" {
		csp = PageCSP
	}
	return &Handler{csp: csp}
}

func (h *Handler) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Content-Security-Policy", h.csp)
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security",
					"max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
