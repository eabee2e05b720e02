package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string
}

// Metrics bundles the OpenTelemetry meter provider with the Prometheus
// registry it exports to.
type Metrics struct {
	Provider *sdkmetric.MeterProvider
	Registry *prometheus.Registry
	Handler  http.Handler
}

// InitMetrics initializes the Prometheus metrics exporter on a private
// registry and installs the meter provider globally.
func InitMetrics(cfg MetricsConfig) (*Metrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return &Metrics{
		Provider: provider,
		Registry: reg,
		Handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, nil
}

// Meter returns a named meter of the provider.
func (m *Metrics) Meter(name string) metric.Meter {
	return m.Provider.Meter(name)
}

// Shutdown flushes the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.Provider.Shutdown(ctx)
}

// SkillMetrics records evaluation outcomes.
type SkillMetrics struct {
	evaluations metric.Int64Counter
	alerts      metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewSkillMetrics creates the evaluation instruments on meter.
func NewSkillMetrics(meter metric.Meter) (*SkillMetrics, error) {
	evaluations, err := meter.Int64Counter("skills.evaluations",
		metric.WithDescription("Skill evaluations by skill and outcome"))
	if err != nil {
		return nil, err
	}
	alerts, err := meter.Int64Counter("skills.alerts",
		metric.WithDescription("Alerts raised by skill evaluations"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("skills.evaluation.duration",
		metric.WithDescription("Skill evaluation latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &SkillMetrics{evaluations: evaluations, alerts: alerts, duration: duration}, nil
}

// RecordEvaluation records one evaluation. outcome is "ok" or an error kind.
func (m *SkillMetrics) RecordEvaluation(ctx context.Context, skill, outcome string, elapsed time.Duration, alerts int) {
	if m == nil {
		return
	}
	bySkill := metric.WithAttributes(attribute.String("skill", skill))
	m.evaluations.Add(ctx, 1, metric.WithAttributes(attribute.String("skill", skill), attribute.String("outcome", outcome)))
	m.duration.Record(ctx, elapsed.Seconds(), bySkill)
	if alerts > 0 {
		m.alerts.Add(ctx, int64(alerts), bySkill)
	}
}
