// Package metrics exposes the server's Prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Upload outcomes used as the "result" label.
const (
	ResultStored    = "stored"
	ResultSchema    = "schema_error"
	ResultMalformed = "malformed"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

type Metrics struct {
	uploads         *prometheus.CounterVec
	rows            *prometheus.CounterVec
	evictions       prometheus.Counter
	authFailures    prometheus.Counter
	reports         *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equipview_uploads_total",
			Help: "Upload attempts by result.",
		}, []string{"result"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equipview_rows_ingested_total",
			Help: "Rows of stored uploads by completeness.",
		}, []string{"status"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "equipview_history_evictions_total",
			Help: "Uploads removed from a full history window.",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "equipview_auth_failures_total",
			Help: "Requests rejected by the access gate.",
		}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equipview_reports_rendered_total",
			Help: "Reports rendered by format.",
		}, []string{"format"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "equipview_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"method", "route", "status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "equipview_http_requests_in_flight",
			Help: "Requests currently being served.",
		}),
	}

	reg.MustRegister(m.uploads, m.rows, m.evictions, m.authFailures, m.reports, m.requestDuration, m.inFlight)
	return m
}

func (m *Metrics) UploadStored(complete, incomplete int) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(ResultStored).Inc()
	m.rows.WithLabelValues("complete").Add(float64(complete))
	m.rows.WithLabelValues("incomplete").Add(float64(incomplete))
}

func (m *Metrics) UploadRejected(result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
}

func (m *Metrics) Evicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evictions.Add(float64(n))
}

func (m *Metrics) AuthFailed() {
	if m == nil {
		return
	}
	m.authFailures.Inc()
}

func (m *Metrics) ReportRendered(format string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(format).Inc()
}

// StartRequest marks a request in flight. The returned func records its
// duration and must be called once.
func (m *Metrics) StartRequest() func(method, route string, status int) {
	if m == nil {
		return func(string, string, int) {}
	}
	m.inFlight.Inc()
	start := time.Now()
	return func(method, route string, status int) {
		m.inFlight.Dec()
		m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	}
}
