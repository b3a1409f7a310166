// Package telemetry wraps OpenTelemetry tracing around the client facade's
// attempt loop (spec §6 "Observability"): one span per call, one child
// span per attempt, with provider/model/request-id attributes and
// automatic error recording. Telemetry is opt-in and defaults to a no-op
// tracer so the core never pays tracing cost unless a caller asks for it.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Settings configures telemetry for a Client (spec §6's `telemetry` config
// surface). Disabled by default.
type Settings struct {
	IsEnabled bool

	// RecordPayloads controls whether compiled request bodies and response
	// content are attached to spans. Off by default even when telemetry is
	// enabled, since provider payloads routinely carry end-user content.
	RecordPayloads bool

	// Metadata is merged onto every span this Client emits, e.g. a
	// deployment tag or caller-supplied function id.
	Metadata map[string]attribute.Value

	// Tracer is a custom tracer. If nil, the global tracer is used.
	Tracer trace.Tracer
}

// DefaultSettings returns telemetry disabled, the safe default.
func DefaultSettings() *Settings {
	return &Settings{Metadata: make(map[string]attribute.Value)}
}

// WithEnabled returns a copy with IsEnabled set.
func (s *Settings) WithEnabled(enabled bool) *Settings {
	cp := *s
	cp.IsEnabled = enabled
	return &cp
}

// WithRecordPayloads returns a copy with RecordPayloads set.
func (s *Settings) WithRecordPayloads(record bool) *Settings {
	cp := *s
	cp.RecordPayloads = record
	return &cp
}

// WithMetadata returns a copy with metadata merged in.
func (s *Settings) WithMetadata(metadata map[string]attribute.Value) *Settings {
	cp := *s
	cp.Metadata = make(map[string]attribute.Value, len(s.Metadata)+len(metadata))
	for k, v := range s.Metadata {
		cp.Metadata[k] = v
	}
	for k, v := range metadata {
		cp.Metadata[k] = v
	}
	return &cp
}

// WithTracer returns a copy with a custom tracer.
func (s *Settings) WithTracer(tracer trace.Tracer) *Settings {
	cp := *s
	cp.Tracer = tracer
	return &cp
}
