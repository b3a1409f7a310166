package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName identifies spans this package emits in a trace backend.
const TracerName = "aiproto"

// GetTracer resolves the tracer a Client should use: a no-op tracer when
// telemetry is disabled, settings.Tracer when one is supplied, otherwise
// the global tracer (set by whatever TracerProvider the host process
// configured, e.g. via NewOTLPProvider).
func GetTracer(settings *Settings) trace.Tracer {
	if settings == nil || !settings.IsEnabled {
		return noop.NewTracerProvider().Tracer(TracerName)
	}
	if settings.Tracer != nil {
		return settings.Tracer
	}
	return otel.Tracer(TracerName)
}
