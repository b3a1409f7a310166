package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanOptions configures one recorded span.
type SpanOptions struct {
	Name       string
	Attributes []attribute.KeyValue
}

// RecordSpan starts a span, runs fn, records any returned error onto the
// span, and ends it. Errors always end the span immediately; the typed
// zero value is returned alongside the error so callers can use the usual
// `result, err := RecordSpan(...)` shape.
func RecordSpan[T any](
	ctx context.Context,
	tracer trace.Tracer,
	opts SpanOptions,
	fn func(context.Context, trace.Span) (T, error),
) (T, error) {
	ctx, span := tracer.Start(ctx, opts.Name, trace.WithAttributes(opts.Attributes...))
	defer span.End()

	result, err := fn(ctx, span)
	if err != nil {
		RecordErrorOnSpan(span, err)
		var zero T
		return zero, err
	}
	return result, nil
}

// RecordErrorOnSpan records err on span and marks the span's status as
// errored. A nil err is a no-op.
func RecordErrorOnSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// CallAttributes returns the base attribute set every call-level span
// carries (spec §6's telemetry attribute list): provider, model,
// client_request_id, and any caller-supplied metadata.
func CallAttributes(providerID, modelID, clientRequestID string, settings *Settings) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("aiproto.provider", providerID),
		attribute.String("aiproto.model", modelID),
		attribute.String("aiproto.client_request_id", clientRequestID),
	}
	if settings != nil {
		for key, value := range settings.Metadata {
			attrs = append(attrs, attribute.KeyValue{Key: attribute.Key("aiproto.metadata." + key), Value: value})
		}
	}
	return attrs
}

// AttemptAttributes returns the attribute set an attempt-level child span
// carries: attempt number and, once known, the upstream request id and
// HTTP status.
func AttemptAttributes(attempt int, upstreamRequestID string, httpStatus int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Int("aiproto.attempt", attempt)}
	if upstreamRequestID != "" {
		attrs = append(attrs, attribute.String("aiproto.upstream_request_id", upstreamRequestID))
	}
	if httpStatus != 0 {
		attrs = append(attrs, attribute.Int("aiproto.http_status", httpStatus))
	}
	return attrs
}
