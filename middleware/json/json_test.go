package jsonmw

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	h := New(true).Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		method string
		body   string
		ct     string
		code   int
	}{
		{name: "json body", method: http.MethodPost, body: `{}`, ct: "application/json; charset=utf-8", code: http.StatusNoContent},
		{name: "bare resync", method: http.MethodPost, code: http.StatusNoContent},
		{name: "missing type", method: http.MethodPut, body: `{}`, code: http.StatusUnsupportedMediaType},
		{name: "form body", method: http.MethodPut, body: "zone=UTC", ct: "application/x-www-form-urlencoded", code: http.StatusUnsupportedMediaType},
		{name: "get ignored", method: http.MethodGet, code: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req := httptest.NewRequest(tc.method, "/api/v1/widgets", body)
			if tc.ct != "" {
				req.Header.Set("Content-Type", tc.ct)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}
}
