package streaming

import (
	"testing"

	"github.com/aiproto/aiproto/pkg/manifest"
)

func TestBuildNonStreamResponse(t *testing.T) {
	body := map[string]interface{}{
		"choices": []interface{}{
			map[string]interface{}{
				"message":       map[string]interface{}{"content": "hello"},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     float64(10),
			"completion_tokens": float64(4),
		},
	}

	m := &manifest.Manifest{
		Streaming: manifest.StreamingConfig{
			UsagePath: "usage",
		},
		Termination: manifest.Termination{
			FinishReasonPath: "choices.0.finish_reason",
			ReasonMap:        map[string]string{"stop": "stop"},
		},
		NonStream: manifest.NonStreamConfig{
			ContentPath: "choices.0.message.content",
			EventMap: []manifest.EventRule{
				{Match: "choices.0.message.content != null", Kind: manifest.EventContentDelta},
				{Match: "usage != null", Kind: manifest.EventUsage},
				{Match: "choices.0.finish_reason != null", Kind: manifest.EventStreamEnd},
			},
		},
	}

	resp, err := BuildNonStreamResponse(body, m)
	if err != nil {
		t.Fatalf("BuildNonStreamResponse: %v", err)
	}
	if resp.Content != "hello" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Fatalf("unexpected finish reason: %q", resp.FinishReason)
	}
	if resp.Usage == nil || *resp.Usage.PromptTokens != 10 || *resp.Usage.CompletionTokens != 4 {
		t.Fatalf("unexpected usage: %#v", resp.Usage)
	}
}

func TestBuildNonStreamResponseToolCall(t *testing.T) {
	body := map[string]interface{}{
		"id":    "call_9",
		"name":  "lookup",
		"input": `{"q":"weather"}`,
	}

	m := &manifest.Manifest{
		NonStream: manifest.NonStreamConfig{
			EventMap: []manifest.EventRule{
				{Match: "id != null", Kind: manifest.EventToolCallStart},
			},
			Tooling: manifest.ToolUseConfig{IDPath: "id", NamePath: "name", InputPath: "input"},
		},
	}

	resp, err := BuildNonStreamResponse(body, m)
	if err != nil {
		t.Fatalf("BuildNonStreamResponse: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].ID != "call_9" || resp.ToolCalls[0].Name != "lookup" {
		t.Fatalf("unexpected tool calls: %#v", resp.ToolCalls)
	}
	args, ok := resp.ToolCalls[0].Arguments.(map[string]interface{})
	if !ok || args["q"] != "weather" {
		t.Fatalf("unexpected arguments: %#v", resp.ToolCalls[0].Arguments)
	}
}

// TestBuildNonStreamResponseNoEventMapMatchIsEmpty documents that a body
// nothing in non_stream.event_map recognizes yields a response with none
// of the fields populated, rather than an error — mirroring the streaming
// pipeline's "no rule matches, frame dropped silently" contract (§4.2).
func TestBuildNonStreamResponseNoEventMapMatchIsEmpty(t *testing.T) {
	body := map[string]interface{}{"unrecognized": true}
	m := &manifest.Manifest{}

	resp, err := BuildNonStreamResponse(body, m)
	if err != nil {
		t.Fatalf("BuildNonStreamResponse: %v", err)
	}
	if resp.Content != "" || len(resp.ToolCalls) != 0 || resp.Usage != nil {
		t.Fatalf("expected empty response, got %#v", resp)
	}
}
