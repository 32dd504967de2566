// Package metrics exposes Prometheus collectors for pipeline and publish activity.
//
// A nil *Metrics is valid and records nothing, so callers never need to guard.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medicamentos"

// Metrics groups the collectors registered by the service.
type Metrics struct {
	registry *prometheus.Registry

	rowsRead        *prometheus.CounterVec
	rowsDegraded    *prometheus.CounterVec
	rowsMerged      prometheus.Counter
	publishTotal    *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
	publishedRows   *prometheus.GaugeVec
	cleanupFailures *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		rowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Rows read from each source file.",
		}, []string{"source"}),
		rowsDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_degraded_total",
			Help:      "Rows dropped or partially nulled during normalization.",
		}, []string{"source", "reason"}),
		rowsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_merged_total",
			Help:      "Canonical records produced by the merge.",
		}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Publish attempts per target and outcome.",
		}, []string{"target", "outcome"}),
		publishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Time taken to publish a dataset to a target.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"target"}),
		publishedRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published_rows",
			Help:      "Row count of the last successful publish per target and dataset.",
		}, []string{"target", "dataset"}),
		cleanupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_failures_total",
			Help:      "Non-fatal failures removing staging artifacts.",
		}, []string{"target"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rowsRead,
		m.rowsDegraded,
		m.rowsMerged,
		m.publishTotal,
		m.publishDuration,
		m.publishedRows,
		m.cleanupFailures,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RowsRead(source string, n int) {
	if m == nil {
		return
	}
	m.rowsRead.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) RowDegraded(source, reason string) {
	if m == nil {
		return
	}
	m.rowsDegraded.WithLabelValues(source, reason).Inc()
}

func (m *Metrics) RowsMerged(n int) {
	if m == nil {
		return
	}
	m.rowsMerged.Add(float64(n))
}

// PublishFinished records one target's publish outcome.
func (m *Metrics) PublishFinished(target, dataset, outcome string, rows int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.publishTotal.WithLabelValues(target, outcome).Inc()
	m.publishDuration.WithLabelValues(target).Observe(elapsed.Seconds())
	if outcome != "failed" {
		m.publishedRows.WithLabelValues(target, dataset).Set(float64(rows))
	}
}

func (m *Metrics) CleanupFailed(target string) {
	if m == nil {
		return
	}
	m.cleanupFailures.WithLabelValues(target).Inc()
}
