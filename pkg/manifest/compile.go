package manifest

import (
	coreerrors "github.com/aiproto/aiproto/pkg/errors"
	"github.com/aiproto/aiproto/pkg/jsonpath"
	"github.com/aiproto/aiproto/pkg/logging"
	"github.com/aiproto/aiproto/pkg/request"
)

// Logger is the debug-logging sink Compile reports dropped parameters
// through (SPEC_FULL §2 "Logging"). Defaults to a non-verbose console sink,
// so debug entries are suppressed unless the embedder opts in by replacing
// this with a Verbose one.
var Logger logging.Logger = logging.NewConsoleLogger(false)

// CompileResult is the output of Compile: the raw provider payload and the
// endpoint descriptor to hit.
type CompileResult struct {
	Payload  map[string]interface{}
	Endpoint Endpoint
}

// Compile implements §4.1's compile algorithm: start with an empty object,
// and for each recognized parameter present on req, write its value at the
// manifest-declared path, creating intermediate objects/arrays as needed.
// A parameter with no mapping entry is dropped silently at the transport
// level but logged at debug level ("no silent transport" contract — the
// operator can see it happened even though nothing is sent). Processing
// order follows the fixed RecognizedParameters list, so compilation never
// depends on map iteration order.
func Compile(m *Manifest, req *request.Unified, op string) (*CompileResult, error) {
	if err := PreflightCapabilities(m, req); err != nil {
		return nil, err
	}

	ep, ok := m.Endpoints[op]
	if !ok {
		return nil, coreerrors.New(coreerrors.CodeInvalidRequest, "manifest has no endpoint for operation "+op)
	}

	payload := map[string]interface{}{}
	values := paramValues(req)

	for _, name := range RecognizedParameters {
		v, present := values[name]
		if !present {
			continue
		}
		path, mapped := m.ParameterMappings[name]
		if !mapped {
			logging.Debug(Logger, "manifest.compile", "parameter has no mapping, dropped",
				map[string]interface{}{"provider_id": m.ProviderID, "parameter": name})
			continue
		}
		if err := jsonpath.Set(payload, path, v); err != nil {
			return nil, coreerrors.New(coreerrors.CodeInvalidRequest, "compiling parameter "+name).WithCause(err)
		}
	}

	applyAdapter(m, ep, payload)

	return &CompileResult{Payload: payload, Endpoint: ep}, nil
}

// paramValues flattens the Unified Request's recognized, present fields
// into a generic map so the canonical-order loop in Compile can look each
// one up uniformly.
func paramValues(req *request.Unified) map[string]interface{} {
	out := map[string]interface{}{}
	if _, modelID, err := SplitModel(req.Model); err == nil {
		out["model"] = modelID
	}
	if req.Messages != nil {
		out["messages"] = messagesToGeneric(req.Messages)
	}
	if req.Temperature != nil {
		out["temperature"] = *req.Temperature
	}
	if req.MaxTokens != nil {
		out["max_tokens"] = *req.MaxTokens
	}
	if req.TopP != nil {
		out["top_p"] = *req.TopP
	}
	// stream is always present, defaulting false.
	out["stream"] = req.Stream
	if len(req.Tools) > 0 {
		out["tools"] = toolsToGeneric(req.Tools)
	}
	if req.ToolChoice != nil {
		out["tool_choice"] = toolChoiceToGeneric(*req.ToolChoice)
	}
	if len(req.Stop) > 0 {
		stop := make([]interface{}, len(req.Stop))
		for i, s := range req.Stop {
			stop[i] = s
		}
		out["stop"] = stop
	}
	if req.ResponseFormat != nil {
		out["response_format"] = responseFormatToGeneric(*req.ResponseFormat)
	}
	if req.Seed != nil {
		out["seed"] = *req.Seed
	}
	if req.PresencePenalty != nil {
		out["presence_penalty"] = *req.PresencePenalty
	}
	if req.FrequencyPenalty != nil {
		out["frequency_penalty"] = *req.FrequencyPenalty
	}
	return out
}

func messagesToGeneric(msgs []request.Message) []interface{} {
	out := make([]interface{}, len(msgs))
	for i, msg := range msgs {
		m := map[string]interface{}{"role": string(msg.Role)}
		if msg.IsBlocks() {
			blocks := make([]interface{}, len(msg.Blocks))
			for j, b := range msg.Blocks {
				blocks[j] = blockToGeneric(b)
			}
			m["content"] = blocks
		} else {
			m["content"] = msg.Text
		}
		if msg.ToolCallID != "" {
			m["tool_call_id"] = msg.ToolCallID
		}
		out[i] = m
	}
	return out
}

func blockToGeneric(b request.ContentBlock) map[string]interface{} {
	switch b.Kind {
	case request.BlockText:
		return map[string]interface{}{"type": "text", "text": b.Text}
	case request.BlockImage, request.BlockAudio:
		return map[string]interface{}{
			"type": string(b.Kind),
			"source": map[string]interface{}{
				"kind":       string(b.Source.Kind),
				"value":      b.Source.Value,
				"media_type": b.Source.MediaType,
			},
		}
	case request.BlockToolUse:
		return map[string]interface{}{
			"type": "tool_use", "id": b.ToolUseID, "name": b.ToolName, "input": b.ToolInput,
		}
	case request.BlockToolResult:
		return map[string]interface{}{
			"type": "tool_result", "tool_use_id": b.ToolUseID,
			"content": b.ToolResultContent, "is_error": b.IsError,
		}
	default:
		return map[string]interface{}{"type": string(b.Kind)}
	}
}

func toolsToGeneric(tools []request.Tool) []interface{} {
	out := make([]interface{}, len(tools))
	for i, t := range tools {
		out[i] = map[string]interface{}{
			"name": t.Name, "description": t.Description, "input_schema": t.InputSchema,
		}
	}
	return out
}

func toolChoiceToGeneric(tc request.ToolChoice) map[string]interface{} {
	m := map[string]interface{}{"mode": tc.Mode}
	if tc.Name != "" {
		m["name"] = tc.Name
	}
	return m
}

func responseFormatToGeneric(rf request.ResponseFormat) map[string]interface{} {
	m := map[string]interface{}{"type": rf.Type}
	if rf.Schema != nil {
		m["schema"] = rf.Schema
	}
	return m
}

// applyAdapter expresses per-endpoint adapter tags as additional path
// writes rather than code branches (§4.1). Only the "collapse_system"
// adapter is built in; unrecognized tags are a no-op (the manifest is the
// single source of truth for what an adapter does, so an unknown tag simply
// means no extra transform is applied, not an error).
func applyAdapter(m *Manifest, ep Endpoint, payload map[string]interface{}) {
	if ep.Adapter != "collapse_system" {
		return
	}
	msgs, ok := payload["messages"].([]interface{})
	if !ok {
		return
	}
	var systemParts []string
	remaining := make([]interface{}, 0, len(msgs))
	for _, raw := range msgs {
		msg, ok := raw.(map[string]interface{})
		if !ok {
			remaining = append(remaining, raw)
			continue
		}
		if msg["role"] == "system" {
			if text, ok := msg["content"].(string); ok {
				systemParts = append(systemParts, text)
				continue
			}
		}
		remaining = append(remaining, raw)
	}
	if len(systemParts) == 0 {
		return
	}
	combined := systemParts[0]
	for _, p := range systemParts[1:] {
		combined += "\n" + p
	}
	payload["messages"] = remaining
	payload["system"] = combined
}
