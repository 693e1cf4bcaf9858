package maxbody

import "net/http"

// DefaultMaxBytes fits any widget request body with room to spare.
const DefaultMaxBytes = 64 << 10

type Middleware struct {
	MaxBytes int64
}

// New limits request bodies to max bytes; max <= 0 uses DefaultMaxBytes.
func New(max int64) *Middleware {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	return &Middleware{MaxBytes: max}
}

// Handler caps the body; the decoder sees an *http.MaxBytesError once the
// limit is crossed.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, m.MaxBytes)
		}
		next.ServeHTTP(w, r)
	})
}
