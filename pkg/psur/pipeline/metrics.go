package pipeline

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics is the set of run-scoped collectors. One instance lives per
// Runtime: Prometheus collectors registered against their own registry
// so concurrent runs in the same process (e.g. in tests) never collide
// on the default global registerer, plus an OpenTelemetry counter
// emitted through the same meter the runtime's tracer belongs to, for
// deployments that ship metrics through an OTel collector instead of a
// Prometheus scrape.
type Metrics struct {
	Registry     *prometheus.Registry
	TaskDuration *prometheus.HistogramVec
	TaskTotal    *prometheus.CounterVec

	otelTaskTotal metric.Int64Counter
}

// NewMetrics builds a fresh, independently-registered metric set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	meter := otel.Meter("psurgen/pipeline")
	otelCounter, _ := meter.Int64Counter(
		"psurgen.pipeline.task.total",
		metric.WithDescription("Count of pipeline task executions by terminal status."),
	)

	return &Metrics{
		Registry: reg,
		TaskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "psurgen",
			Subsystem: "pipeline",
			Name:      "task_duration_seconds",
			Help:      "Wall-clock duration of each pipeline task.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
		TaskTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psurgen",
			Subsystem: "pipeline",
			Name:      "task_total",
			Help:      "Count of pipeline task executions by terminal status.",
		}, []string{"task", "status"}),
		otelTaskTotal: otelCounter,
	}
}

func (m *Metrics) observe(ctx context.Context, task TaskType, status Status, seconds float64) {
	if m == nil {
		return
	}
	m.TaskDuration.WithLabelValues(string(task)).Observe(seconds)
	m.TaskTotal.WithLabelValues(string(task), string(status)).Inc()

	if m.otelTaskTotal != nil {
		m.otelTaskTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("task", string(task)),
			attribute.String("status", string(status)),
		))
	}
}
