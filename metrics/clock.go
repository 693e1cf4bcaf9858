package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeNetworkError = "network_error"
	OutcomeParseError   = "parse_error"
	OutcomeSuperseded   = "superseded"
)

// ClockRecorder observes presenter activity.
type ClockRecorder interface {
	ObserveFetch(zone, outcome string, d time.Duration)
	IncTick()
	WidgetMounted()
	WidgetUnmounted()
}

// NoopClock discards everything.
type NoopClock struct{}

func (NoopClock) ObserveFetch(string, string, time.Duration) {}
func (NoopClock) IncTick()                                   {}
func (NoopClock) WidgetMounted()                             {}
func (NoopClock) WidgetUnmounted()                           {}

// PrometheusClock implements ClockRecorder.
type PrometheusClock struct {
	Fetches       *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	Ticks         prometheus.Counter
	Widgets       prometheus.Gauge
}

// NewPrometheusClock registers the clock collectors on registerer, or on the
// default registerer when nil.
func NewPrometheusClock(registerer prometheus.Registerer) *PrometheusClock {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	f := promauto.With(registerer)
	return &PrometheusClock{
		Fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radioclock",
			Name:      "fetch_total",
			Help:      "Time service fetches by zone and outcome",
		}, []string{"zone", "outcome"}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "radioclock",
			Name:      "fetch_duration_seconds",
			Help:      "Time service round trip in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"zone"}),
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "radioclock",
			Name:      "ticks_total",
			Help:      "Local one-second advances applied to displayed clocks",
		}),
		Widgets: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "radioclock",
			Name:      "widgets_mounted",
			Help:      "Currently mounted widgets",
		}),
	}
}

func (p *PrometheusClock) ObserveFetch(zone, outcome string, d time.Duration) {
	p.Fetches.WithLabelValues(zone, outcome).Inc()
	if outcome == OutcomeOK {
		p.FetchDuration.WithLabelValues(zone).Observe(d.Seconds())
	}
}

func (p *PrometheusClock) IncTick()         { p.Ticks.Inc() }
func (p *PrometheusClock) WidgetMounted()   { p.Widgets.Inc() }
func (p *PrometheusClock) WidgetUnmounted() { p.Widgets.Dec() }
