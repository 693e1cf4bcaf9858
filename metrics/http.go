package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Labels is a simple key:value map for metric dimensions.
type Labels map[string]string

// HTTPRecorder captures request counters and durations.
type HTTPRecorder interface {
	IncCounter(name string, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Handler exposes the given gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) IncCounter(_ string, _ Labels)                  {}
func (NoopMetrics) ObserveHistogram(_ string, _ float64, _ Labels) {}

// Middleware instruments HTTP traffic using a provided recorder.
type Middleware struct {
	M HTTPRecorder
}

// New constructs a metrics middleware.
func New(m HTTPRecorder) *Middleware { return &Middleware{M: m} }

// PrometheusRecorder implements HTTPRecorder with a counter and a
// histogram keyed by method, route pattern and status.
type PrometheusRecorder struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the HTTP collectors on registerer, or on
// the default registerer when nil.
func NewPrometheusRecorder(registerer prometheus.Registerer, buckets []float64) *PrometheusRecorder {
	reg := registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(buckets) == 0 {
		buckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	}
	f := promauto.With(reg)
	return &PrometheusRecorder{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		durations: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: buckets,
		}, []string{"method", "route", "status"}),
	}
}

func (p *PrometheusRecorder) IncCounter(_ string, labels Labels) {
	if p == nil || p.requests == nil {
		return
	}
	method, route, status := sanitizeHTTPLabels(labels)
	p.requests.WithLabelValues(method, route, status).Inc()
}

func (p *PrometheusRecorder) ObserveHistogram(_ string, value float64, labels Labels) {
	if p == nil || p.durations == nil {
		return
	}
	method, route, status := sanitizeHTTPLabels(labels)
	p.durations.WithLabelValues(method, route, status).Observe(value)
}

// Handler wraps the next handler to record counters and duration. The route
// label is the chi pattern ("/api/v1/widgets/{id}") so widget IDs do not
// explode label cardinality.
func (mw *Middleware) Handler(next http.Handler) http.Handler {
	if mw.M == nil {
		mw.M = NoopMetrics{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		labels := Labels{
			"method": r.Method,
			"route":  routePattern(r),
			"status": strconv.Itoa(ww.status),
		}
		mw.M.IncCounter("http_requests_total", labels)
		mw.M.ObserveHistogram("http_request_duration_seconds", time.Since(start).Seconds(), labels)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach Flush on the SSE stream.
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func sanitizeHTTPLabels(labels Labels) (method, route, status string) {
	method = labels["method"]
	if method == "" {
		method = "UNKNOWN"
	}
	route = labels["route"]
	if route == "" {
		route = "unknown"
	}
	status = labels["status"]
	if status == "" {
		status = "0"
	}
	return method, route, status
}
