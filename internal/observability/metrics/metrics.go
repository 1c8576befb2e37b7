// Package metrics exposes Prometheus counters and histograms for statement operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "kvdph_"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// Metrics holds the collectors of one registry
type Metrics struct {
	registry *prometheus.Registry

	generateTotal   *prometheus.CounterVec
	generateLatency *prometheus.HistogramVec
	generatedLines  prometheus.Histogram
	exportTotal     *prometheus.CounterVec
	exportLatency   *prometheus.HistogramVec
	transitionTotal *prometheus.CounterVec
}

// New creates a registry with statement metrics and the Go runtime collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generateTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_generate_total",
				Help: "Total statement generate operations by result",
			},
			[]string{"result"},
		),
		generateLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_generate_latency_seconds",
				Help:    "Statement generate latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		generatedLines: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_generated_lines",
				Help:    "Number of report lines per generated statement",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		exportTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_export_total",
				Help: "Total statement export operations by format and result",
			},
			[]string{"format", "result"},
		),
		exportLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "statement_export_latency_seconds",
				Help:    "Statement export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		),
		transitionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statement_transition_total",
				Help: "Statement status transitions by trigger and result",
			},
			[]string{"trigger", "result"},
		),
	}

	m.registry.MustRegister(
		m.generateTotal,
		m.generateLatency,
		m.generatedLines,
		m.exportTotal,
		m.exportLatency,
		m.transitionTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveGenerate records one generate run
func (m *Metrics) ObserveGenerate(err error, lines int, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := resultLabel(err)
	m.generateTotal.WithLabelValues(result).Inc()
	m.generateLatency.WithLabelValues(result).Observe(elapsed.Seconds())
	if err == nil {
		m.generatedLines.Observe(float64(lines))
	}
}

// ObserveExport records one export attempt. Exports refused by a status
// precondition are counted as skipped.
func (m *Metrics) ObserveExport(format string, exported bool, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := resultLabel(err)
	if err == nil && !exported {
		result = ResultSkipped
	}
	m.exportTotal.WithLabelValues(format, result).Inc()
	m.exportLatency.WithLabelValues(format).Observe(elapsed.Seconds())
}

// ObserveTransition records a confirm or reset
func (m *Metrics) ObserveTransition(trigger string, err error) {
	if m == nil {
		return
	}
	m.transitionTotal.WithLabelValues(trigger, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
