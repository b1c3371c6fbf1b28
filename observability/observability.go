// Package observability provides OpenTelemetry and Prometheus integration for
// field validation.
//
// Features:
//   - Distributed tracing with OpenTelemetry
//   - Validation counters and latency histograms (OpenTelemetry or Prometheus)
//   - Span events for rule failures and sanitizer rewrites
//   - Zero-cost no-op observer when nothing is configured
//
// Example usage:
//
//	import "github.com/kdsmith18542/fieldguard/observability"
//
//	func main() {
//	    // Initialize observability (optional)
//	    observability.Init(observability.Config{
//	        ServiceName:    "signup-form",
//	        ServiceVersion: "1.0.0",
//	        Environment:    "production",
//	        EnableTracing:  true,
//	        EnableMetrics:  true,
//	    })
//
//	    // Or export to Prometheus instead
//	    observability.SetObserver(observability.NewPrometheusObserver(prometheus.DefaultRegisterer))
//	}
package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "fieldguard"

// Config holds the configuration for observability initialization
type Config struct {
	// ServiceName is the name of the service for tracing and metrics
	ServiceName string
	// ServiceVersion is the version of the service
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod)
	Environment string
	// EnableTracing enables distributed tracing
	EnableTracing bool
	// EnableMetrics enables metrics collection
	EnableMetrics bool
}

// Observer receives validation events from bound forms.
type Observer interface {
	// OnFieldValidated is called after every field validation.
	OnFieldValidated(ctx context.Context, formName, field string, valid bool, duration time.Duration)
	// OnRuleFailed is called for each failing rule of a field.
	OnRuleFailed(ctx context.Context, formName, field, rule string)
	// OnFieldSanitized is called when a sanitizer changed a value. removed is
	// the number of characters dropped.
	OnFieldSanitized(ctx context.Context, formName, field string, removed int)
	// OnSubmit is called after a submit with the number of invalid fields.
	OnSubmit(ctx context.Context, formName string, invalidFields int, duration time.Duration)
}

// Global observer instance
var globalObserver Observer = NoopObserver{}

// Init initializes the observability system with the given configuration
func Init(config Config) error {
	if !config.EnableTracing && !config.EnableMetrics {
		// No observability enabled, use no-op observer
		globalObserver = NoopObserver{}
		return nil
	}

	if err := initOpenTelemetry(config); err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	observer, err := NewOTelObserver(otel.Tracer(instrumentationName), otel.Meter(instrumentationName))
	if err != nil {
		return fmt.Errorf("failed to create observer: %w", err)
	}
	globalObserver = observer

	return nil
}

// SetObserver sets a custom observer for observability events. A nil
// observer restores the no-op observer.
func SetObserver(observer Observer) {
	if observer == nil {
		observer = NoopObserver{}
	}
	globalObserver = observer
}

// GetObserver returns the current observer instance
func GetObserver() Observer {
	return globalObserver
}

// StartSpan starts a new span for tracing
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// AddSpanEvent adds an event to the current span
func AddSpanEvent(ctx context.Context, name string, attributes map[string]string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		attrs := make([]attribute.KeyValue, 0, len(attributes))
		for k, v := range attributes {
			attrs = append(attrs, attribute.String(k, v))
		}
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		attrs := make([]attribute.KeyValue, 0, len(attributes))
		for k, v := range attributes {
			attrs = append(attrs, attribute.String(k, v))
		}
		span.SetAttributes(attrs...)
	}
}

// NoopObserver discards every event.
type NoopObserver struct{}

func (NoopObserver) OnFieldValidated(context.Context, string, string, bool, time.Duration) {}
func (NoopObserver) OnRuleFailed(context.Context, string, string, string)                 {}
func (NoopObserver) OnFieldSanitized(context.Context, string, string, int)                {}
func (NoopObserver) OnSubmit(context.Context, string, int, time.Duration)                 {}

// Multi fans events out to several observers.
func Multi(observers ...Observer) Observer {
	return multiObserver(observers)
}

type multiObserver []Observer

func (m multiObserver) OnFieldValidated(ctx context.Context, formName, field string, valid bool, d time.Duration) {
	for _, o := range m {
		o.OnFieldValidated(ctx, formName, field, valid, d)
	}
}

func (m multiObserver) OnRuleFailed(ctx context.Context, formName, field, rule string) {
	for _, o := range m {
		o.OnRuleFailed(ctx, formName, field, rule)
	}
}

func (m multiObserver) OnFieldSanitized(ctx context.Context, formName, field string, removed int) {
	for _, o := range m {
		o.OnFieldSanitized(ctx, formName, field, removed)
	}
}

func (m multiObserver) OnSubmit(ctx context.Context, formName string, invalidFields int, d time.Duration) {
	for _, o := range m {
		o.OnSubmit(ctx, formName, invalidFields, d)
	}
}

// otelObserver implements Observer using OpenTelemetry
type otelObserver struct {
	tracer      trace.Tracer
	validations metric.Int64Counter
	failures    metric.Int64Counter
	sanitized   metric.Int64Counter
	submits     metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewOTelObserver builds an observer that records spans on tracer and
// instruments on meter.
func NewOTelObserver(tracer trace.Tracer, meter metric.Meter) (Observer, error) {
	o := &otelObserver{tracer: tracer}
	var err error
	if o.validations, err = meter.Int64Counter("fieldguard.field.validations",
		metric.WithDescription("Field validations by outcome")); err != nil {
		return nil, err
	}
	if o.failures, err = meter.Int64Counter("fieldguard.rule.failures",
		metric.WithDescription("Failed rule evaluations")); err != nil {
		return nil, err
	}
	if o.sanitized, err = meter.Int64Counter("fieldguard.field.sanitized_chars",
		metric.WithDescription("Characters removed by live sanitizers")); err != nil {
		return nil, err
	}
	if o.submits, err = meter.Int64Counter("fieldguard.form.submits",
		metric.WithDescription("Form submissions by outcome")); err != nil {
		return nil, err
	}
	if o.duration, err = meter.Float64Histogram("fieldguard.form.submit.duration",
		metric.WithDescription("Submit validation latency"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *otelObserver) OnFieldValidated(ctx context.Context, formName, field string, valid bool, duration time.Duration) {
	o.validations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("form.name", formName),
		attribute.String("field", field),
		attribute.Bool("valid", valid),
	))
	AddSpanEvent(ctx, "form.field.validated", map[string]string{
		"form.name":   formName,
		"field":       field,
		"valid":       strconv.FormatBool(valid),
		"duration.ms": fmt.Sprintf("%.2f", float64(duration.Microseconds())/1000.0),
	})
}

func (o *otelObserver) OnRuleFailed(ctx context.Context, formName, field, rule string) {
	o.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("form.name", formName),
		attribute.String("rule", rule),
	))
	AddSpanEvent(ctx, "form.rule.failed", map[string]string{
		"form.name": formName,
		"field":     field,
		"rule":      rule,
	})
}

func (o *otelObserver) OnFieldSanitized(ctx context.Context, formName, field string, removed int) {
	o.sanitized.Add(ctx, int64(removed), metric.WithAttributes(
		attribute.String("form.name", formName),
		attribute.String("field", field),
	))
}

func (o *otelObserver) OnSubmit(ctx context.Context, formName string, invalidFields int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("form.name", formName),
		attribute.Bool("valid", invalidFields == 0),
	)
	o.submits.Add(ctx, 1, attrs)
	o.duration.Record(ctx, float64(duration.Microseconds())/1000.0, attrs)

	_, span := o.tracer.Start(ctx, "form.submit", trace.WithAttributes(
		attribute.String("form.name", formName),
		attribute.Int("invalid.fields", invalidFields),
	))
	span.End()
}

// initOpenTelemetry initializes OpenTelemetry with the given configuration
func initOpenTelemetry(config Config) error {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	// Exporters are left to the host application.
	if config.EnableTracing {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
		)

		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	if config.EnableMetrics {
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
		)

		otel.SetMeterProvider(mp)
	}

	return nil
}
