package streaming

import (
	"encoding/json"

	"github.com/aiproto/aiproto/pkg/jsonpath"
	"github.com/aiproto/aiproto/pkg/manifest"
)

// eventMapper turns one frame's Selected classification into zero or more
// Events, synthesizing the implicit StreamStart / ToolCallStarted events
// the pipeline invariants require (§8) and applying the manifest's
// finish_reason vocabulary mapping (§3 "termination").
type eventMapper struct {
	termination manifest.Termination
	state       *fanoutState
}

func newEventMapper(termination manifest.Termination) *eventMapper {
	return &eventMapper{termination: termination, state: newFanoutState()}
}

func (m *eventMapper) mapFrame(frameValue interface{}, sel Selected, accumulated string, flushed bool) []Event {
	var out []Event
	idx := sel.CandidateIndex

	if m.state.needsStart(idx) {
		out = append(out, StartEvent(idx, "assistant"))
	}

	switch sel.Kind {
	case manifest.EventContentDelta:
		out = append(out, Event{Type: EventPartialContentDelta, CandidateIndex: idx, ContentDelta: sel.Content})

	case manifest.EventToolCallStart:
		m.state.sawToolStart(idx, sel.ToolID)
		out = append(out, Event{
			Type: EventToolCallStarted, CandidateIndex: idx,
			ToolCallID: sel.ToolID, ToolCallName: sel.ToolName,
		})
		if flushed && accumulated != "" {
			out = append(out, Event{Type: EventPartialToolCall, CandidateIndex: idx, ToolCallID: sel.ToolID, ArgumentsDelta: accumulated})
		} else if sel.ArgsFragment != "" {
			out = append(out, Event{Type: EventPartialToolCall, CandidateIndex: idx, ToolCallID: sel.ToolID, ArgumentsDelta: sel.ArgsFragment})
		}

	case manifest.EventToolCallArgDelta:
		if m.state.needsToolStart(idx, sel.ToolID) {
			m.state.sawToolStart(idx, sel.ToolID)
			out = append(out, Event{Type: EventToolCallStarted, CandidateIndex: idx, ToolCallID: sel.ToolID})
		}
		delta := sel.ArgsFragment
		if flushed {
			delta = accumulated
		}
		if delta != "" {
			out = append(out, Event{Type: EventPartialToolCall, CandidateIndex: idx, ToolCallID: sel.ToolID, ArgumentsDelta: delta})
		}

	case manifest.EventUsage:
		out = append(out, Event{Type: EventMetadata, CandidateIndex: idx, Metadata: map[string]interface{}{"usage": sel.Usage}})

	case manifest.EventStreamEnd:
		if m.state.terminate(idx) {
			break
		}
		out = append(out, EndEvent(idx, m.mapFinishReason(frameValue, sel), sel.Usage))
	}

	return out
}

// mapFinishReason resolves the termination.finish_reason_path against the
// raw frame and applies the manifest's reason_map (absent entries pass
// through unchanged, per §3).
func (m *eventMapper) mapFinishReason(frameValue interface{}, sel Selected) string {
	raw := sel.FinishReason
	if raw == "" && m.termination.FinishReasonPath != "" {
		if v, ok := jsonpath.Get(frameValue, m.termination.FinishReasonPath); ok {
			raw = toString(v)
		}
	}
	if mapped, ok := m.termination.ReasonMap[raw]; ok {
		return mapped
	}
	return raw
}

// forceEnd synthesizes a terminal event for a candidate that never
// produced an explicit stream_end-classified frame before the decoder
// reached a clean EOF (e.g. the sse `[DONE]` sentinel with no distinct
// stream_end frame beforehand).
func (m *eventMapper) forceEnd(idx int, finishReason string, usage *UsageDelta) []Event {
	if m.state.terminate(idx) {
		return nil
	}
	var out []Event
	if m.state.needsStart(idx) {
		out = append(out, StartEvent(idx, "assistant"))
	}
	out = append(out, EndEvent(idx, finishReason, usage))
	return out
}

func (m *eventMapper) candidates() []int { return m.state.candidates() }

// tryUnmarshalAccumulated is used by BuildNonStreamResponse (nonstream.go)
// when finalizing a tool call's arguments: the concatenated argument
// fragments are a JSON-shaped string, and the Unified Response wants
// ToolCall.Arguments holding the parsed value, not the raw string, whenever
// it parses cleanly.
func tryUnmarshalAccumulated(s string) interface{} {
	if s == "" {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
