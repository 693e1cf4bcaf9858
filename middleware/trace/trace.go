// Package trace tags each request with a W3C trace context for request logs.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
)

// traceparent: version(2)-trace-id(32)-parent-id(16)-flags(2)
// https://www.w3.org/TR/trace-context/
const HeaderTraceParent = "traceparent"

type ctxKey struct{}

type ids struct {
	traceID string
	spanID  string
	sampled bool
}

// Options controls middleware behaviour.
type Options struct {
	// TrustIncoming adopts a valid client traceparent; otherwise a fresh
	// trace ID is minted for every request.
	TrustIncoming bool
	// Unsampled clears the sampled flag on echoed headers.
	Unsampled bool
}

// Middleware attaches trace and span IDs to the request context and echoes
// a traceparent response header.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var traceID string
			if opts.TrustIncoming {
				if tid, ok := parseTraceParent(r.Header.Get(HeaderTraceParent)); ok {
					traceID = tid
				}
			}
			if traceID == "" {
				traceID = randomHex(16)
			}
			v := ids{traceID: traceID, spanID: randomHex(8), sampled: !opts.Unsampled}
			r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, v))
			w.Header().Set(HeaderTraceParent, v.traceParent())
			next.ServeHTTP(w, r)
		})
	}
}

// GetTraceID returns the request's 32-hex trace ID, or "".
func GetTraceID(r *http.Request) string { return TraceID(r.Context()) }

// TraceID returns the trace ID carried by ctx, or "".
func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(ids)
	return v.traceID
}

func (v ids) traceParent() string {
	flag := "00"
	if v.sampled {
		flag = "01"
	}
	return "00-" + v.traceID + "-" + v.spanID + "-" + flag
}

func parseTraceParent(s string) (traceID string, ok bool) {
	if len(s) != 55 {
		return "", false
	}
	parts := strings.Split(s, "-")
	if len(parts) != 4 || parts[0] != "00" {
		return "", false
	}
	tid, pid, fl := parts[1], parts[2], parts[3]
	if !validID(tid, 32) || !validID(pid, 16) || len(fl) != 2 || !isLowerHex(fl) {
		return "", false
	}
	return tid, true
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	b[0] |= 1 // never all zero
	return hex.EncodeToString(b)
}

func validID(s string, n int) bool {
	return len(s) == n && isLowerHex(s) && strings.Trim(s, "0") != ""
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
