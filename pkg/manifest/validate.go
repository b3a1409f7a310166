package manifest

import (
	"fmt"

	coreerrors "github.com/aiproto/aiproto/pkg/errors"
)

// validate enforces §3's invariants. In ModePermissive, a streaming
// capability claim with an incomplete streaming block is minimally
// inferred instead of rejected (decoder_format defaults to "sse", and
// content_path defaults to the OpenAI-compatible "choices.0.delta.content"
// shape, the single most common wire shape in the example pack).
func validate(m *Manifest, mode Mode) error {
	if m.ProviderID == "" {
		return coreerrors.New(coreerrors.CodeInvalidRequest, "provider_id is required")
	}

	for param, path := range m.ParameterMappings {
		if path == "" {
			return coreerrors.New(coreerrors.CodeInvalidRequest, fmt.Sprintf("parameter_mappings.%s has an empty path", param))
		}
	}

	if m.HasCapability("streaming") {
		if m.Streaming.DecoderFormat == "" || m.Streaming.ContentPath == "" {
			if mode == ModeStrict {
				return coreerrors.New(coreerrors.CodeInvalidRequest,
					"capabilities.streaming is claimed but streaming.decoder_format/content_path are incomplete")
			}
			if m.Streaming.DecoderFormat == "" {
				m.Streaming.DecoderFormat = "sse"
			}
			if m.Streaming.ContentPath == "" {
				m.Streaming.ContentPath = "choices.0.delta.content"
			}
		}
	}

	return nil
}
