package streaming

import coreerrors "github.com/aiproto/aiproto/pkg/errors"

// EventType tags the variant of a Streaming Event (§4.2, §8).
type EventType string

const (
	EventStreamStart          EventType = "stream_start"
	EventPartialContentDelta  EventType = "partial_content_delta"
	EventToolCallStarted      EventType = "tool_call_started"
	EventPartialToolCall      EventType = "partial_tool_call"
	EventMetadata             EventType = "metadata"
	EventStreamEnd            EventType = "stream_end"
	EventStreamError          EventType = "stream_error"
)

// Event is the normalized unit the pipeline emits downstream, fanned out
// per CandidateIndex (§4.2). Exactly one field group below is populated,
// selected by Type.
type Event struct {
	Type EventType

	// CandidateIndex identifies which parallel completion candidate this
	// event belongs to. A manifest whose provider never reports an index
	// uses the single-candidate convention 0 (§5).
	CandidateIndex int

	// PartialContentDelta / StreamStart
	ContentDelta string
	Role         string

	// ToolCallStarted / PartialToolCall
	ToolCallID     string
	ToolCallName   string
	ArgumentsDelta string

	// Metadata carries provider passthrough fields not otherwise modeled
	// (usage, provider-specific ids, safety ratings, etc).
	Metadata map[string]interface{}

	// StreamEnd
	FinishReason string
	Usage        *UsageDelta

	// StreamError
	Err *coreerrors.CoreError
}

// UsageDelta mirrors request.Usage for the subset of streaming providers
// that report token counts on the terminal frame.
type UsageDelta struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StartEvent builds a StreamStart event for the given candidate.
func StartEvent(candidateIndex int, role string) Event {
	return Event{Type: EventStreamStart, CandidateIndex: candidateIndex, Role: role}
}

// ErrorEvent builds the single terminal StreamError event carrying a
// classified CoreError (§8: "exactly one terminal event").
func ErrorEvent(candidateIndex int, err *coreerrors.CoreError) Event {
	return Event{Type: EventStreamError, CandidateIndex: candidateIndex, Err: err}
}

// EndEvent builds the terminal StreamEnd event for a candidate.
func EndEvent(candidateIndex int, finishReason string, usage *UsageDelta) Event {
	return Event{Type: EventStreamEnd, CandidateIndex: candidateIndex, FinishReason: finishReason, Usage: usage}
}
