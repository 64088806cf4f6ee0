package observability

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func setupTestTracing(t *testing.T, exporter string) context.Context {
	t.Helper()
	ctx := context.Background()
	config := DefaultTracerConfig()
	config.ExporterType = exporter

	tp, err := SetupTracing(ctx, config)
	if err != nil {
		t.Fatalf("SetupTracing() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := ShutdownTracing(ctx, tp); err != nil {
			t.Errorf("ShutdownTracing() failed: %v", err)
		}
	})
	return ctx
}

func TestSetupTracing_Stdout(t *testing.T) {
	ctx := setupTestTracing(t, ExporterStdout)

	_, span := Tracer("test").Start(ctx, "test-operation")
	span.SetAttributes(attribute.String("test.key", "test.value"))
	span.End()
}

func TestSetupTracing_None(t *testing.T) {
	ctx := setupTestTracing(t, ExporterNone)

	_, span := StartSpan(ctx, TracerName, "test-span")
	defer span.End()

	if !span.SpanContext().IsValid() {
		t.Error("Span context should be valid")
	}
}

func TestSetupTracing_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config TracerConfig
	}{
		{"unknown exporter", TracerConfig{ServiceName: "gores-test", ExporterType: "invalid", SamplingRate: 1}},
		{"sampling rate too high", TracerConfig{ServiceName: "gores-test", ExporterType: ExporterNone, SamplingRate: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SetupTracing(context.Background(), tt.config); err == nil {
				t.Error("SetupTracing should return an error")
			}
		})
	}
}

func TestSpanHelpers(t *testing.T) {
	ctx := setupTestTracing(t, ExporterNone)

	ctx, span := StartSpan(ctx, TracerName, "test-span")
	defer span.End()

	AddEvent(ctx, "test-event", attribute.String("event.key", "event.value"))
	SetAttributes(ctx, attribute.Int("resource.count", 42))

	retrieved := SpanFromContext(ctx)
	if retrieved.SpanContext().TraceID() != span.SpanContext().TraceID() {
		t.Error("SpanFromContext should return span with same TraceID")
	}
}

func TestDefaultTracerConfig(t *testing.T) {
	config := DefaultTracerConfig()

	if config.ServiceName != "gores" {
		t.Errorf("Expected ServiceName=gores, got %s", config.ServiceName)
	}
	if config.ExporterType != ExporterNone {
		t.Errorf("Expected ExporterType=none, got %s", config.ExporterType)
	}
	if config.SamplingRate != 1.0 {
		t.Errorf("Expected SamplingRate=1.0, got %f", config.SamplingRate)
	}
}
