// Package telemetry exposes Prometheus metrics for the execution pipeline.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects per-invocation counters on its own registry. A nil
// *Metrics is valid and records nothing, so callers need no telemetry
// conditionals.
type Metrics struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	server   *http.Server

	invocationsTotal   *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	stagedBytes        prometheus.Histogram
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics(logger *slog.Logger, namespace string) *Metrics {
	if namespace == "" {
		namespace = "bedtools_mcp"
	}

	m := &Metrics{
		logger:   logger.With("component", "telemetry"),
		registry: prometheus.NewRegistry(),
	}

	m.invocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Total number of tool invocations",
		},
		[]string{"tool", "status"},
	)

	m.invocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Duration of tool invocations in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 600},
		},
		[]string{"tool"},
	)

	m.stagedBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "staged_bytes",
			Help:      "Bytes copied into staging directories per invocation",
			Buckets:   prometheus.ExponentialBuckets(1024, 8, 9),
		},
	)

	m.registry.MustRegister(m.invocationsTotal, m.invocationDuration, m.stagedBytes)

	return m
}

// RecordInvocation records the outcome and duration of one invocation.
func (m *Metrics) RecordInvocation(tool string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.invocationsTotal.WithLabelValues(tool, strconv.Itoa(status)).Inc()
	m.invocationDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordStagedBytes records the total input bytes staged for one invocation.
func (m *Metrics) RecordStagedBytes(n int64) {
	if m == nil {
		return
	}
	m.stagedBytes.Observe(float64(n))
}

// Handler returns the scrape handler for this collector's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on the given address and blocks until the
// listener fails or Shutdown is called.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	m.server = &http.Server{Addr: addr, Handler: mux}
	m.logger.Info("telemetry endpoint listening", "addr", addr)

	if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the telemetry listener if one is running.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

// Registry exposes the underlying registry, used by tests to gather.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
