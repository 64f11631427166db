// Package telemetry wires the server's observability: OTLP gRPC exporters
// for logs, metrics, and traces, with slog bridged onto the OpenTelemetry
// logger so every slog call lands in the collector. With no endpoint
// configured everything stays local: plain text logs, no-op metrics and
// traces.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects the collector endpoint and the service identity attached to
// every signal.
type Config struct {
	// Endpoint is the OTLP gRPC collector address (host:port). Empty
	// disables export entirely.
	Endpoint string

	// Insecure disables TLS on the collector connection. Collectors on
	// localhost usually run plaintext.
	Insecure bool

	ServiceName    string
	ServiceVersion string
}

// ShutdownFunc flushes and stops every provider Setup started.
type ShutdownFunc func(ctx context.Context) error

// Setup installs the global providers and returns the process logger.
//
// Enabled, the logger's handler is the otelslog bridge, so slog records ship
// through the OTLP log exporter; the returned shutdown flushes all three
// providers and aggregates their errors. Disabled, the logger writes text to
// stdout and shutdown is a no-op.
func Setup(ctx context.Context, cfg Config) (*slog.Logger, ShutdownFunc, error) {
	if cfg.Endpoint == "" {
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		return logger, func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("error building telemetry resource: %w", err)
	}

	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		// Reverse order: the log provider goes down last so the other
		// providers can still log their own shutdown.
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*slog.Logger, ShutdownFunc, error) {
		_ = shutdown(ctx)
		return nil, nil, err
	}

	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
	}

	logExporter, err := otlploggrpc.New(ctx, logOpts...)
	if err != nil {
		return fail(fmt.Errorf("error creating log exporter: %w", err))
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
	)
	shutdowns = append(shutdowns, loggerProvider.Shutdown)

	metricExporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return fail(fmt.Errorf("error creating metric exporter: %w", err))
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
	)
	otel.SetMeterProvider(meterProvider)
	shutdowns = append(shutdowns, meterProvider.Shutdown)

	traceExporter, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return fail(fmt.Errorf("error creating trace exporter: %w", err))
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetTracerProvider(tracerProvider)
	shutdowns = append(shutdowns, tracerProvider.Shutdown)

	logger := slog.New(otelslog.NewHandler(cfg.ServiceName,
		otelslog.WithLoggerProvider(loggerProvider)))
	return logger, shutdown, nil
}
