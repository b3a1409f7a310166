package manifest

import (
	"testing"

	coreerrors "github.com/aiproto/aiproto/pkg/errors"
)

func TestParseOpenAICompatible(t *testing.T) {
	m, err := Parse([]byte(openAICompatibleJSON), FormatJSON, ModeStrict)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.ProviderID != "openai-compatible" {
		t.Fatalf("got provider id %q", m.ProviderID)
	}
	if !m.HasCapability("streaming") || !m.HasCapability("tools") {
		t.Fatalf("expected streaming and tools capabilities, got %+v", m.Capabilities)
	}
	if m.Streaming.DecoderFormat != "sse" {
		t.Fatalf("got decoder format %q", m.Streaming.DecoderFormat)
	}
	if m.RetryPolicy.MaxRetries != 2 || m.RetryPolicy.Jitter != JitterFull {
		t.Fatalf("got retry policy %+v", m.RetryPolicy)
	}
	if got := m.ErrorClassification.ByHTTPStatus[429]; got != coreerrors.CodeRateLimited {
		t.Fatalf("got %v", got)
	}
	if got := m.ErrorClassification.ByErrorStatus["insufficient_quota"]; got != coreerrors.CodeQuotaExhausted {
		t.Fatalf("got %v", got)
	}
}

func TestParseYAMLEquivalent(t *testing.T) {
	yamlDoc := `
provider_id: openai-compatible
protocol_version: "1.0"
base_url: https://api.openai.com/v1
auth:
  type: bearer
  env_var: OPENAI_API_KEY
endpoints:
  chat:
    path: /chat/completions
    method: POST
capabilities: [chat, streaming]
parameter_mappings:
  messages: messages
  stream: stream
streaming:
  decoder_format: sse
  content_path: choices.0.delta.content
`
	m, err := Parse([]byte(yamlDoc), FormatYAML, ModeStrict)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.ProviderID != "openai-compatible" {
		t.Fatalf("got %q", m.ProviderID)
	}
	if m.Streaming.ContentPath != "choices.0.delta.content" {
		t.Fatalf("got %q", m.Streaming.ContentPath)
	}
}

func TestParseMissingProviderID(t *testing.T) {
	_, err := Parse([]byte(`{"endpoints":{"chat":{"path":"/x"}}}`), FormatJSON, ModeStrict)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseMissingChatEndpoint(t *testing.T) {
	_, err := Parse([]byte(`{"provider_id":"p","endpoints":{}}`), FormatJSON, ModeStrict)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseStrictRejectsIncompleteStreaming(t *testing.T) {
	doc := `{"provider_id":"p","endpoints":{"chat":{"path":"/x"}},"capabilities":["streaming"]}`
	_, err := Parse([]byte(doc), FormatJSON, ModeStrict)
	if err == nil {
		t.Fatal("expected strict mode to reject incomplete streaming config")
	}
}

func TestParsePermissiveInfersStreaming(t *testing.T) {
	doc := `{"provider_id":"p","endpoints":{"chat":{"path":"/x"}},"capabilities":["streaming"]}`
	m, err := Parse([]byte(doc), FormatJSON, ModePermissive)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Streaming.DecoderFormat == "" || m.Streaming.ContentPath == "" {
		t.Fatalf("expected inferred streaming config, got %+v", m.Streaming)
	}
}

func TestParseInvalidErrorClassificationCode(t *testing.T) {
	doc := `{"provider_id":"p","endpoints":{"chat":{"path":"/x"}},"error_classification":{"by_http_status":{"429":"NOT_A_CODE"}}}`
	_, err := Parse([]byte(doc), FormatJSON, ModeStrict)
	if err == nil {
		t.Fatal("expected error for unrecognized standard code")
	}
}
