package manifest

import (
	"testing"

	"github.com/aiproto/aiproto/pkg/jsonpath"
	"github.com/aiproto/aiproto/pkg/request"
)

func mustParse(t *testing.T) *Manifest {
	t.Helper()
	m, err := Parse([]byte(openAICompatibleJSON), FormatJSON, ModeStrict)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

func TestCompileWritesMappedParameters(t *testing.T) {
	m := mustParse(t)
	temp := 0.7
	req := &request.Unified{
		Model:       "openai-compatible/gpt-4",
		Messages:    []request.Message{{Role: request.RoleUser, Text: "hi"}},
		Temperature: &temp,
		Stream:      false,
	}
	res, err := Compile(m, req, "chat")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Endpoint.Path != "/chat/completions" {
		t.Fatalf("got endpoint %+v", res.Endpoint)
	}
	got, ok := jsonpath.Get(res.Payload, "temperature")
	if !ok || got != 0.7 {
		t.Fatalf("got temperature %v", got)
	}
	msgs, ok := jsonpath.Get(res.Payload, "messages.0.content")
	if !ok || msgs != "hi" {
		t.Fatalf("got messages.0.content = %v", msgs)
	}
	model, ok := jsonpath.Get(res.Payload, "model")
	if !ok || model != "gpt-4" {
		t.Fatalf("expected model id split from the provider/model form, got %v", model)
	}
}

func TestCompileDropsUnmappedParameter(t *testing.T) {
	m := mustParse(t)
	delete(m.ParameterMappings, "seed")
	seed := 7
	req := &request.Unified{
		Model:    "openai-compatible/gpt-4",
		Messages: []request.Message{{Role: request.RoleUser, Text: "hi"}},
		Seed:     &seed,
	}
	res, err := Compile(m, req, "chat")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, ok := jsonpath.Get(res.Payload, "seed"); ok {
		t.Fatalf("seed should have been dropped")
	}
}

func TestCompileMissingStreamingCapabilityFails(t *testing.T) {
	m := mustParse(t)
	delete(m.Capabilities, "streaming")
	req := &request.Unified{
		Model:    "openai-compatible/gpt-4",
		Messages: []request.Message{{Role: request.RoleUser, Text: "hi"}},
		Stream:   true,
	}
	_, err := Compile(m, req, "chat")
	if err == nil {
		t.Fatal("expected capability error")
	}
}

func TestCompileMissingToolsCapabilityFails(t *testing.T) {
	m := mustParse(t)
	delete(m.Capabilities, "tools")
	req := &request.Unified{
		Model:    "openai-compatible/gpt-4",
		Messages: []request.Message{{Role: request.RoleUser, Text: "hi"}},
		Tools:    []request.Tool{{Name: "lookup"}},
	}
	_, err := Compile(m, req, "chat")
	if err == nil {
		t.Fatal("expected capability error")
	}
}

func TestCompileUnknownEndpointFails(t *testing.T) {
	m := mustParse(t)
	req := &request.Unified{Model: "openai-compatible/gpt-4", Messages: []request.Message{{Role: request.RoleUser, Text: "hi"}}}
	_, err := Compile(m, req, "embeddings")
	if err == nil {
		t.Fatal("expected missing-endpoint error")
	}
}

func TestCompileRoundTripViaParameterMappings(t *testing.T) {
	m := mustParse(t)
	topP := 0.9
	req := &request.Unified{
		Model:    "openai-compatible/gpt-4",
		Messages: []request.Message{{Role: request.RoleUser, Text: "hi"}},
		TopP:     &topP,
	}
	res, err := Compile(m, req, "chat")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for param, path := range m.ParameterMappings {
		if param == "top_p" {
			got, ok := jsonpath.Get(res.Payload, path)
			if !ok || got != 0.9 {
				t.Fatalf("round-trip failed for %s: got %v", param, got)
			}
		}
	}
}

func TestCompileAdapterCollapsesSystemMessages(t *testing.T) {
	m := mustParse(t)
	ep := m.Endpoints["chat"]
	ep.Adapter = "collapse_system"
	m.Endpoints["chat"] = ep

	req := &request.Unified{
		Model: "openai-compatible/gpt-4",
		Messages: []request.Message{
			{Role: request.RoleSystem, Text: "be nice"},
			{Role: request.RoleUser, Text: "hi"},
		},
	}
	res, err := Compile(m, req, "chat")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	sys, ok := jsonpath.Get(res.Payload, "system")
	if !ok || sys != "be nice" {
		t.Fatalf("got system = %v", sys)
	}
	msgs := res.Payload["messages"].([]interface{})
	if len(msgs) != 1 {
		t.Fatalf("expected system message collapsed out, got %d messages", len(msgs))
	}
}
