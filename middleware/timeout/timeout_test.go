package timeout

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func slow(d time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(d):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	})
}

func TestMiddleware_TimesOut(t *testing.T) {
	t.Parallel()

	h := New(20 * time.Millisecond).Handler(slow(time.Second))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/widgets/x/resync", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestMiddleware_StreamsExempt(t *testing.T) {
	t.Parallel()

	h := New(20 * time.Millisecond).Handler(slow(60 * time.Millisecond))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/widgets/x/stream", nil)
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected stream to run past the timeout, got %d", rec.Code)
	}
}
