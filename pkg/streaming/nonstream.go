package streaming

import (
	"github.com/aiproto/aiproto/pkg/manifest"
	"github.com/aiproto/aiproto/pkg/request"
)

// BuildNonStreamResponse builds a Unified Response for a non-streaming call
// by running the same selector/event-mapper machinery the streaming
// pipeline uses, treating the whole decoded body as a single frame (§4.2
// "Non-streaming response": "running the same pipeline over the complete
// body ... collecting emitted events"). A complete body carries content,
// tool calls, usage and finish_reason all at once rather than one change at
// a time, so every event_map rule is evaluated (Selector.SelectAll) instead
// of stopping at the first match the way a streamed delta frame would.
//
// The manifest's `non_stream` block supplies the paths: a provider's
// non-streaming body rarely shares its streaming delta's nesting (OpenAI
// nests content at `choices.0.message.content`, not the delta's
// `choices.0.delta.content`), so content/tool-call paths are looked up
// there first, falling back to the streaming paths when non_stream leaves
// them unset.
func BuildNonStreamResponse(body interface{}, m *manifest.Manifest) (*request.Response, error) {
	cfg := nonStreamStreamingConfig(m)
	tooling := nonStreamToolUseConfig(m)

	sel, err := NewSelector(cfg, tooling, m.Termination)
	if err != nil {
		return nil, err
	}

	mapper := newEventMapper(m.Termination)
	frame := Frame{Value: body}

	var events []Event
	for _, s := range sel.SelectAll(frame) {
		// A non-streaming body never delivers a tool call's arguments as a
		// fragment to be buffered and flushed later — the whole value is
		// already there, so it is handed to the mapper pre-flushed.
		accumulated, flushed := "", false
		if s.Kind == manifest.EventToolCallStart || s.Kind == manifest.EventToolCallArgDelta {
			accumulated, flushed = s.ArgsFragment, true
		}
		events = append(events, mapper.mapFrame(body, s, accumulated, flushed)...)
	}
	for _, idx := range mapper.candidates() {
		events = append(events, mapper.forceEnd(idx, "stop", nil)...)
	}

	return foldEvents(events), nil
}

// nonStreamStreamingConfig builds the StreamingConfig BuildNonStreamResponse
// selects against: non_stream.content_path/event_map when set, the
// streaming block's otherwise. stop_condition and accumulator don't apply
// to a single whole-body frame.
func nonStreamStreamingConfig(m *manifest.Manifest) manifest.StreamingConfig {
	cfg := m.Streaming
	if m.NonStream.ContentPath != "" {
		cfg.ContentPath = m.NonStream.ContentPath
	}
	if len(m.NonStream.EventMap) > 0 {
		cfg.EventMap = m.NonStream.EventMap
	}
	cfg.StopCondition = ""
	cfg.Accumulator = manifest.AccumulatorConfig{}
	return cfg
}

func nonStreamToolUseConfig(m *manifest.Manifest) manifest.ToolUseConfig {
	if m.NonStream.Tooling.IDPath != "" {
		return m.NonStream.Tooling
	}
	return m.Tooling
}

// foldEvents collects a whole-body SelectAll pass's events into a Unified
// Response: content deltas concatenate, tool-call starts+fragments become
// complete tool calls (ToolCall.Arguments via tryUnmarshalAccumulated, the
// same JSON-shaping the streaming facade wants for a finalized call),
// usage/finish_reason come from whichever of metadata/stream_end reported
// them.
func foldEvents(events []Event) *request.Response {
	resp := &request.Response{}

	type toolAccum struct {
		name string
		args string
	}
	order := make([]string, 0, 2)
	byID := map[string]*toolAccum{}

	for _, e := range events {
		switch e.Type {
		case EventPartialContentDelta:
			resp.Content += e.ContentDelta
		case EventToolCallStarted:
			ta, ok := byID[e.ToolCallID]
			if !ok {
				ta = &toolAccum{}
				byID[e.ToolCallID] = ta
				order = append(order, e.ToolCallID)
			}
			ta.name = e.ToolCallName
		case EventPartialToolCall:
			ta, ok := byID[e.ToolCallID]
			if !ok {
				ta = &toolAccum{}
				byID[e.ToolCallID] = ta
				order = append(order, e.ToolCallID)
			}
			ta.args += e.ArgumentsDelta
		case EventMetadata:
			if u, ok := e.Metadata["usage"].(*UsageDelta); ok && u != nil {
				resp.Usage = usageDeltaToUsage(u)
			}
		case EventStreamEnd:
			resp.FinishReason = e.FinishReason
			if e.Usage != nil {
				resp.Usage = usageDeltaToUsage(e.Usage)
			}
		}
	}

	for _, id := range order {
		ta := byID[id]
		resp.ToolCalls = append(resp.ToolCalls, request.ToolCall{
			ID:        id,
			Name:      ta.name,
			Arguments: tryUnmarshalAccumulated(ta.args),
		})
	}

	return resp
}

func usageDeltaToUsage(u *UsageDelta) *request.Usage {
	p, c, t := int64(u.PromptTokens), int64(u.CompletionTokens), int64(u.TotalTokens)
	return &request.Usage{PromptTokens: &p, CompletionTokens: &c, TotalTokens: &t}
}
