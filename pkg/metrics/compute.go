package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ComputeMetrics records the cost and outcome of analytics computations.
// Every analytics call is a full pass over the loaded events, so durations
// here are the primary capacity signal.
type ComputeMetrics struct {
	duration *prometheus.HistogramVec
	events   *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	ingested prometheus.Counter
}

// NewComputeMetrics registers the analytics metrics on the provided registerer.
func NewComputeMetrics(reg prometheus.Registerer) *ComputeMetrics {
	if reg == nil {
		return &ComputeMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analytics_compute_duration_seconds",
		Help:    "Duration of analytics computations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"metric"})
	events := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analytics_compute_events",
		Help:    "Events scanned per analytics computation.",
		Buckets: prometheus.ExponentialBuckets(100, 4, 8),
	}, []string{"metric"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_compute_success",
		Help: "Successful analytics computations.",
	}, []string{"metric"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_compute_failure",
		Help: "Failed analytics computations.",
	}, []string{"metric", "code"})
	ingested := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "events_ingested_total",
		Help: "Events accepted by the ingest endpoint.",
	})
	reg.MustRegister(duration, events, success, failure, ingested)
	return &ComputeMetrics{
		duration: duration,
		events:   events,
		success:  success,
		failure:  failure,
		ingested: ingested,
	}
}

// ObserveCompute records the duration and scanned-event count for a metric.
func (c *ComputeMetrics) ObserveCompute(metric string, duration time.Duration, events int) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(metric)).Observe(duration.Seconds())
	c.events.WithLabelValues(normalizeLabel(metric)).Observe(float64(events))
}

// IncSuccess increments the success counter for the named metric.
func (c *ComputeMetrics) IncSuccess(metric string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(metric)).Inc()
}

// IncFailure increments the failure counter for the named metric and error code.
func (c *ComputeMetrics) IncFailure(metric, code string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(metric), normalizeLabel(code)).Inc()
}

// AddIngested counts events accepted by the ingest endpoint.
func (c *ComputeMetrics) AddIngested(n int) {
	if c == nil || c.ingested == nil || n <= 0 {
		return
	}
	c.ingested.Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
