package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the collectors recorded by the lab and the HTTP adapter.
type Metrics struct {
	registry *prometheus.Registry

	calculations *prometheus.CounterVec
	samples      *prometheus.CounterVec
	imports      *prometheus.CounterVec
	peaks        prometheus.Histogram
	requests     *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elementx_calculations_total",
				Help: "Stoichiometry calculations by outcome",
			},
			[]string{"outcome"},
		),
		samples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elementx_samples_total",
				Help: "Sample history operations",
			},
			[]string{"op"},
		),
		imports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elementx_measurement_imports_total",
				Help: "Instrument file imports by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		peaks: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "elementx_xrd_peaks",
				Help:    "Peaks found per XRD scan",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
		),
		requests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "elementx_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
	m.registry.MustRegister(
		m.calculations,
		m.samples,
		m.imports,
		m.peaks,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// Calculation records a calculation attempt.
func (m *Metrics) Calculation(err error) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(outcome(err)).Inc()
}

// SampleOp records a history operation ("save", "delete").
func (m *Metrics) SampleOp(op string) {
	if m == nil {
		return
	}
	m.samples.WithLabelValues(op).Inc()
}

// Import records an instrument file import. peaks is ignored for
// non-XRD kinds (pass -1).
func (m *Metrics) Import(kind string, peaks int, err error) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(kind, outcome(err)).Inc()
	if err == nil && peaks >= 0 {
		m.peaks.Observe(float64(peaks))
	}
}

// Request records a served HTTP request.
func (m *Metrics) Request(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
