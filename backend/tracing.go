package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Arch-4ng3l/CalendarBridge/backend/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// setupTracing installs the global tracer provider for the chosen exporter
// and returns it with its shutdown func. "none" keeps tracing off.
func setupTracing(exporter string, w io.Writer) (trace.TracerProvider, func(context.Context) error, error) {
	switch exporter {
	case "", config.TraceExporterNone:
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	case config.TraceExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.TraceContext{})
		return tp, tp.Shutdown, nil
	}
	return nil, nil, fmt.Errorf("unknown trace exporter %q", exporter)
}
