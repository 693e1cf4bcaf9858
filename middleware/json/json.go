package jsonmw

import (
	"net/http"
	"strings"

	"github.com/aatuh/radioclock/httpx"
)

// Middleware rejects request bodies that are not JSON. Requests without a
// body pass through, so a bare POST to a resync endpoint needs no header.
type Middleware struct {
	RequireJSON bool
}

func New(require bool) *Middleware { return &Middleware{RequireJSON: require} }

func (m *Middleware) Handler(next http.Handler) http.Handler {
	if !m.RequireJSON {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hasBody(r) {
			next.ServeHTTP(w, r)
			return
		}
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			httpx.WriteProblem(w, http.StatusUnsupportedMediaType, httpx.Problem{
				Detail: "missing content-type",
			})
			return
		}
		if !isJSON(ct) {
			httpx.WriteProblem(w, http.StatusUnsupportedMediaType, httpx.Problem{
				Detail: "content-type must be application/json",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}

func isJSON(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "application/json") ||
		strings.HasSuffix(ct, "+json")
}
