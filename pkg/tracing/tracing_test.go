package tracing

import (
	"context"
	"errors"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracerWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	tp, tracer, err := InitTracer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tp.Shutdown(context.Background())

	_, span := tracer.Start(context.Background(), "test")
	if !span.SpanContext().IsValid() {
		t.Fatal("expected recording span")
	}
	span.End()
}

func TestInitTracerExporterError(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	orig := newExporterFunc
	defer func() { newExporterFunc = orig }()
	newExporterFunc = func(context.Context) (sdktrace.SpanExporter, error) {
		return nil, errors.New("boom")
	}
	if _, _, err := InitTracer(context.Background()); err == nil {
		t.Fatal("expected exporter error")
	}
}
