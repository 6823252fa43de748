// Package observability provides Prometheus metrics for the serve
// endpoint.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Generation metrics
	RunsTotal         *prometheus.CounterVec
	RowsGenerated     *prometheus.CounterVec
	ViolationsFound   prometheus.Counter
	RunDuration       *prometheus.HistogramVec
	LastSuccessfulRun prometheus.Gauge

	// Persistence metrics
	RecordsStored   *prometheus.CounterVec
	DBQueryErrors   *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec

	// Stream metrics
	StreamClients       prometheus.Gauge
	StreamRowsDelivered prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cashflow_lab"
	}

	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "runs_total",
			Help:      "Total number of generation runs by profile and status",
		}, []string{"profile", "status"}),
		RowsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "rows_generated_total",
			Help:      "Total number of dataset rows generated by profile",
		}, []string{"profile"}),
		ViolationsFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "invariant_violations_total",
			Help:      "Total number of invariant violations found in generated runs",
		}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "run_duration_seconds",
			Help:      "Generation run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"profile"}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful generation run",
		}),

		RecordsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "records_stored_total",
			Help:      "Total number of records persisted by backend",
		}, []string{"backend"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"backend", "operation"}),
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation"}),

		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Number of connected stream clients",
		}),
		StreamRowsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "rows_delivered_total",
			Help:      "Total number of dataset rows delivered over the stream",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRun records a completed generation run.
func (m *Metrics) RecordRun(profile, status string, rows, violations int, durationSeconds float64) {
	m.RunsTotal.WithLabelValues(profile, status).Inc()
	m.RunDuration.WithLabelValues(profile).Observe(durationSeconds)
	if status == "ok" {
		m.RowsGenerated.WithLabelValues(profile).Add(float64(rows))
		m.ViolationsFound.Add(float64(violations))
	}
}
