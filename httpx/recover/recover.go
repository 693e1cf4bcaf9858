package recover

import (
	"net/http"
	"runtime/debug"

	"github.com/aatuh/radioclock/httpx"
	"github.com/aatuh/radioclock/ports"
)

// Middleware converts panics into RFC-7807 problem+json responses and logs
// the stack. Panic values never reach the client.
func Middleware(log ports.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic serving request",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				httpx.WriteProblem(w, http.StatusInternalServerError, httpx.Problem{
					Detail: "internal server error",
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
