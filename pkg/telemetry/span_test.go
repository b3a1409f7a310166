package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestGetTracerReturnsNoopWhenDisabled(t *testing.T) {
	tracer := GetTracer(DefaultSettings())
	if tracer == nil {
		t.Fatal("expected a tracer even when disabled")
	}
}

func TestGetTracerUsesCustomTracer(t *testing.T) {
	custom := noop.NewTracerProvider().Tracer("custom")
	settings := DefaultSettings().WithEnabled(true).WithTracer(custom)
	if GetTracer(settings) != custom {
		t.Fatal("expected the custom tracer to be returned")
	}
}

func TestRecordSpanReturnsResultOnSuccess(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	result, err := RecordSpan(context.Background(), tracer, SpanOptions{Name: "op"}, func(ctx context.Context, span trace.Span) (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 {
		t.Fatalf("got %d", result)
	}
}

func TestRecordSpanPropagatesError(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	wantErr := errors.New("boom")
	_, err := RecordSpan(context.Background(), tracer, SpanOptions{Name: "op"}, func(ctx context.Context, span trace.Span) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wantErr, got %v", err)
	}
}

func TestCallAttributesIncludesMetadata(t *testing.T) {
	settings := DefaultSettings().WithEnabled(true).WithMetadata(map[string]attribute.Value{"deployment": attribute.StringValue("test")})
	attrs := CallAttributes("openai-compatible", "gpt-4", "req-1", settings)
	if len(attrs) != 4 {
		t.Fatalf("expected 3 base attributes plus 1 metadata attribute, got %d", len(attrs))
	}
}
