package timeout

import (
	"net/http"
	"strings"
	"time"
)

// Middleware bounds request handling time. Event streams are exempt: they
// are meant to stay open for as long as the page does.
type Middleware struct {
	Timeout time.Duration
}

func New(d time.Duration) *Middleware { return &Middleware{Timeout: d} }

func (m *Middleware) Handler(next http.Handler) http.Handler {
	if m.Timeout <= 0 {
		return next
	}
	limited := http.TimeoutHandler(next, m.Timeout, "request timeout")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsStream(r) {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// IsStream reports whether r asks for a server-sent event stream.
func IsStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream") ||
		strings.HasSuffix(r.URL.Path, "/stream")
}
