package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports Browser operation counters and latency
// histograms to a Prometheus registry.
type PrometheusMetricsRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder creates the collectors and registers them with reg.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	r := &PrometheusMetricsRecorder{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nsdb",
				Subsystem: "browser",
				Name:      "operations_total",
				Help:      "Total number of browser operations",
			},
			[]string{"operation", "status"}, // status: success, error
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nsdb",
				Subsystem: "browser",
				Name:      "operation_duration_seconds",
				Help:      "Time taken by browser operations",
				// 1ms to ~16s covers catalog lookups through slow structure fetches.
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"operation"},
		),
	}
	for _, c := range []prometheus.Collector{r.operations, r.durations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}
