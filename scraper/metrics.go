package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for one circular run.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RunsTotal       *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	LedgerRows      prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulars_requests_total",
			Help: "Total HTTP requests issued, by phase.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circulars_request_duration_seconds",
			Help:    "HTTP request latency by phase.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulars_runs_total",
			Help: "Pipeline invocations by outcome status.",
		},
		[]string{"status"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circulars_errors_total",
			Help: "Total number of run errors by type.",
		},
		[]string{"error_type"},
	)
	ledgerRows := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "circulars_ledger_rows",
			Help: "Rows in the price ledger after the last append.",
		},
	)
	lastSuccess := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "circulars_last_update_timestamp_seconds",
			Help: "Unix time of the last run that appended a ledger row.",
		},
	)

	registry.MustRegister(requests, requestDuration, runs, errorsTotal, ledgerRows, lastSuccess)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		RunsTotal:       runs,
		ErrorsTotal:     errorsTotal,
		LedgerRows:      ledgerRows,
		LastSuccess:     lastSuccess,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// IncRun counts a finished run.
func (m *Metrics) IncRun(status string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// SetLedgerRows records the ledger size and the time it grew.
func (m *Metrics) SetLedgerRows(n int, at time.Time) {
	if m == nil {
		return
	}
	m.LedgerRows.Set(float64(n))
	m.LastSuccess.Set(float64(at.Unix()))
}

// WriteTextfile dumps the registry in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
