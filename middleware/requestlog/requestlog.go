package requestlog

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aatuh/radioclock/middleware/trace"
	"github.com/aatuh/radioclock/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Middleware struct {
	Log ports.Logger
}

func New(log ports.Logger) *Middleware { return &Middleware{Log: log} }

// Handler logs one line per request once it completes. Server errors log at
// error level, client errors at warn. Event streams log when they close.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		kv := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"route", routePattern(r),
			"status", ww.status,
			"bytes", ww.bytes,
			"dur_ms", time.Since(start).Milliseconds(),
			"ip", clientIP(r),
			"ua", r.UserAgent(),
			"rid", requestID(r),
		}
		if tid := trace.GetTraceID(r); tid != "" {
			kv = append(kv, "trace_id", tid)
		}
		switch {
		case ww.status >= 500:
			m.Log.Error("http", kv...)
		case ww.status >= 400:
			m.Log.Warn("http", kv...)
		default:
			m.Log.Info("http", kv...)
		}
	})
}

type respWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *respWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *respWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func clientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
