package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aatuh/radioclock/chi"
	"github.com/aatuh/radioclock/cors"
	"github.com/aatuh/radioclock/docs"
	"github.com/aatuh/radioclock/health"
	"github.com/aatuh/radioclock/metrics"
	jsonmw "github.com/aatuh/radioclock/middleware/json"
	"github.com/aatuh/radioclock/middleware/maxbody"
	rateln "github.com/aatuh/radioclock/middleware/ratelimit"
	"github.com/aatuh/radioclock/middleware/requestlog"
	securemw "github.com/aatuh/radioclock/middleware/secure"
	timeoutmw "github.com/aatuh/radioclock/middleware/timeout"
	tracemw "github.com/aatuh/radioclock/middleware/trace"
	"github.com/aatuh/radioclock/ports"
	"github.com/aatuh/radioclock/specs"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterOptions tunes the default middleware stack.
type RouterOptions struct {
	// RequestTimeout bounds non-streaming requests. It must exceed the time
	// service timeout so a slow resync reports 502, not 503.
	RequestTimeout time.Duration
	// Registerer receives the HTTP metrics; nil uses the default registry.
	Registerer prometheus.Registerer
	// RateLimit caps widget mutations per client.
	RateLimit rateln.Options
	Clock     ports.Clock
}

// NewDefaultRouter constructs a router with the default middleware stack.
func NewDefaultRouter(log ports.Logger, opts RouterOptions) ports.HTTPRouter {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.RateLimit.Capacity <= 0 {
		opts.RateLimit = rateln.Options{Capacity: 30, RefillRate: 15}
	}
	if opts.RateLimit.Clock == nil {
		opts.RateLimit.Clock = opts.Clock
	}

	var r ports.HTTPRouter = chi.New()
	var mw ports.HTTPMiddleware = chi.NewMiddleware(log)

	r.Use(mw.RequestID())
	r.Use(mw.RealIP())
	r.Use(tracemw.Middleware(tracemw.Options{TrustIncoming: false}))
	r.Use(requestlog.New(log).Handler)
	r.Use(metrics.New(metrics.NewPrometheusRecorder(opts.Registerer, nil)).Handler)
	r.Use(mw.Recoverer())

	corsh := cors.New()
	r.Use(corsh.Handler(cors.DefaultOptions()))
	r.Use(securemw.New(securemw.PageCSP).Middleware())
	r.Use(rateln.New(opts.RateLimit).Handler)
	r.Use(maxbody.New(maxbody.DefaultMaxBytes).Handler)
	r.Use(jsonmw.New(true).Handler)
	r.Use(timeoutmw.New(opts.RequestTimeout).Handler)

	return r
}

// MountSystemEndpoints registers health, docs, and metrics endpoints.
func MountSystemEndpoints(r ports.HTTPRouter, hm *health.Handler, dm *docs.Handler, g prometheus.Gatherer) {
	hm.RegisterRoutes(r)
	dm.RegisterRoutes(r)
	r.Get(specs.Metrics, metrics.Handler(g).ServeHTTP)
}

// StartServer runs an HTTP server and shuts it down gracefully when ctx is
// canceled. WriteTimeout is left to handlers: event streams clear their own
// deadline and everything else is bounded by the timeout middleware.
func StartServer(ctx context.Context, addr string, handler http.Handler, log ports.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("http server stopping")
		shctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Open event streams never finish on their own.
		if err := srv.Shutdown(shctx); err != nil {
			_ = srv.Close()
		}
		return nil
	case err := <-errCh:
		return err
	}
}
