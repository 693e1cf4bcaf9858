package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aatuh/radioclock/clock"
	"github.com/aatuh/radioclock/httpx"
	"github.com/aatuh/radioclock/ports"
)

type KeyFn func(*http.Request) string

type Options struct {
	Capacity   float64 // tokens
	RefillRate float64 // tokens per second
	Key        KeyFn   // how to key buckets
	RetryAfter time.Duration
	// Methods limited; empty means the unsafe ones. Every resync reaches
	// the upstream time service, reads do not.
	Methods []string
	// IdleTTL drops buckets unused for this long.
	IdleTTL time.Duration
	Clock   ports.Clock
}

type Middleware struct {
	opts      Options
	methods   map[string]bool
	mu        sync.Mutex
	m         map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

func New(opts Options) *Middleware {
	if opts.Capacity <= 0 {
		opts.Capacity = 20
	}
	if opts.RefillRate <= 0 {
		opts.RefillRate = 10
	}
	if opts.Key == nil {
		opts.Key = clientIP
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = time.Second
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewSystemClock()
	}
	if len(opts.Methods) == 0 {
		opts.Methods = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
	}
	methods := make(map[string]bool, len(opts.Methods))
	for _, m := range opts.Methods {
		methods[strings.ToUpper(m)] = true
	}
	return &Middleware{
		opts:      opts,
		methods:   methods,
		m:         make(map[string]*bucket),
		lastSweep: opts.Clock.Now(),
	}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.methods[r.Method] {
			next.ServeHTTP(w, r)
			return
		}
		if !m.allow(m.opts.Key(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(m.opts.RetryAfter.Seconds())))
			httpx.WriteProblem(w, http.StatusTooManyRequests, httpx.Problem{
				Detail: "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) allow(key string) bool {
	now := m.opts.Clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(now)

	b := m.m[key]
	if b == nil {
		b = &bucket{tokens: m.opts.Capacity, lastSeen: now}
		m.m[key] = b
	}
	elapsed := now.Sub(b.lastSeen).Seconds()
	b.tokens += elapsed * m.opts.RefillRate
	if b.tokens > m.opts.Capacity {
		b.tokens = m.opts.Capacity
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (m *Middleware) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < m.opts.IdleTTL {
		return
	}
	m.lastSweep = now
	for k, b := range m.m {
		if now.Sub(b.lastSeen) >= m.opts.IdleTTL {
			delete(m.m, k)
		}
	}
}

func (m *Middleware) buckets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m)
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
