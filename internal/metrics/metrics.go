package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics. Each instance owns its
// registry so tests and multiple servers do not collide.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	EvaluationCounter  *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	CompletionCounter  prometheus.Counter
	ActiveSessions     prometheus.Gauge
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mastery_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mastery_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "endpoint"},
		),
		EvaluationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mastery_evaluations_total",
				Help: "Submissions evaluated, by verdict and error diagnostic",
			},
			[]string{"verdict", "diagnostic"},
		),
		EvaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mastery_evaluation_duration_seconds",
				Help:    "Round trip time of evaluation calls including retries",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		CompletionCounter: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mastery_challenge_completions_total",
				Help: "Challenges newly completed",
			},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mastery_active_sessions",
				Help: "Challenge sessions currently held in memory",
			},
		),
	}

	m.registry.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.EvaluationCounter,
		m.EvaluationDuration,
		m.CompletionCounter,
		m.ActiveSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served HTTP request. endpoint should be the
// route pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestCounter.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// ObserveEvaluation records a finished evaluation
func (m *Metrics) ObserveEvaluation(verdict, diagnostic string, d time.Duration) {
	if m == nil {
		return
	}
	m.EvaluationCounter.WithLabelValues(verdict, diagnostic).Inc()
	m.EvaluationDuration.Observe(d.Seconds())
}

// ObserveCompletion records a newly completed challenge
func (m *Metrics) ObserveCompletion() {
	if m == nil {
		return
	}
	m.CompletionCounter.Inc()
}

// SetActiveSessions updates the session gauge
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
