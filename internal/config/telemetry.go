package config

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const telemetryShutdownTimeout = 5 * time.Second

// SetupTelemetry exports request and fetch spans over OTLP/HTTP when an endpoint is set.
// The returned func flushes pending spans; it does nothing when telemetry is off.
func SetupTelemetry(ctx context.Context, cfg *Config) (func(), error) {
	if !cfg.TelemetryEnabled() {
		slog.Debug("No OTLP endpoint configured, spans are dropped")
		return func() {}, nil
	}
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return func() {}, err
	}
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithAttributes(semconv.ServiceName(cfg.GetServiceName())),
	)
	if err != nil {
		return func() {}, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	slog.Info("Exporting traces", "service", cfg.GetServiceName(), "sample_ratio", cfg.GetTraceSampleRatio())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}, nil
}

// newSampler keeps the caller's decision for propagated traces and samples new roots by ratio.
func newSampler(cfg *Config) sdktrace.Sampler {
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.GetTraceSampleRatio()))
}
