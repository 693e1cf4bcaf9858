package maxbody

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddleware_CapsBody(t *testing.T) {
	t.Parallel()

	var readErr error
	h := New(8).Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"zone":"UTC"}`)))

	var tooLarge *http.MaxBytesError
	if !errors.As(readErr, &tooLarge) {
		t.Fatalf("expected MaxBytesError, got %v", readErr)
	}
}

func TestNew_DefaultLimit(t *testing.T) {
	t.Parallel()

	if m := New(0); m.MaxBytes != DefaultMaxBytes {
		t.Fatalf("expected %d, got %d", DefaultMaxBytes, m.MaxBytes)
	}
}
