// Package manifest implements the typed, immutable provider manifest model
// and the compile step that turns a Unified Request into a provider payload
// (spec §3 "Manifest", §4.1).
package manifest

import "github.com/aiproto/aiproto/pkg/errors"

// Status is the optional lifecycle status of a manifest.
type Status string

const (
	StatusStable     Status = "stable"
	StatusBeta       Status = "beta"
	StatusDeprecated Status = "deprecated"
)

// AuthKind is one of the three supported credential-application strategies.
type AuthKind string

const (
	AuthBearer AuthKind = "bearer"
	AuthHeader AuthKind = "header"
	AuthQuery  AuthKind = "query"
)

// Auth describes how a resolved credential (an opaque string, §6) is
// applied to an outbound request.
type Auth struct {
	Kind         AuthKind
	EnvVar       string
	HeaderName   string            // used when Kind == AuthHeader
	QueryParam   string            // used when Kind == AuthQuery
	ExtraHeaders map[string]string
}

// Endpoint describes one operation's HTTP shape.
type Endpoint struct {
	Path            string
	Method          string
	BaseURLOverride string
	Adapter         string
}

// AccumulatorConfig configures tool-call argument-fragment buffering
// (§4.2 "Accumulator").
type AccumulatorConfig struct {
	KeyPath  string // parsed and carried; streaming.Accumulator keys slots on the selector's tool id instead
	SlotPath string // parsed and carried; the flushed value is returned to the event mapper, not written into the frame
	FlushOn  string // match expression; when true the slot is flushed and cleared
}

// CandidateConfig configures multi-candidate fan-out (§4.2 "Fan-out").
type CandidateConfig struct {
	FanOut          bool
	CandidateIDPath string
}

// EventRuleKind is the kind of Streaming Event an event-mapper rule
// produces (§4.2 "Event mapper").
type EventRuleKind string

const (
	EventContentDelta      EventRuleKind = "content_delta"
	EventToolCallStart     EventRuleKind = "tool_call_start"
	EventToolCallArgDelta  EventRuleKind = "tool_call_argument_delta"
	EventUsage             EventRuleKind = "usage"
	EventStreamEnd         EventRuleKind = "stream_end"
)

// EventRule is one row of the pre-compiled event-mapper table: the first
// rule whose Match expression evaluates true against a frame wins.
type EventRule struct {
	Match string
	Kind  EventRuleKind
}

// StreamingConfig is the manifest's `streaming` block (§3, §4.2).
type StreamingConfig struct {
	DecoderFormat string // sse | anthropic_sse | ndjson | json_chunk | gemini_json
	ContentPath   string
	ToolCallPath  string
	UsagePath     string
	EventMap      []EventRule
	StopCondition string
	Accumulator   AccumulatorConfig
	Candidate     CandidateConfig
}

// ToolUseConfig is the manifest's `tooling.tool_use` block (§3).
type ToolUseConfig struct {
	IDPath      string
	NamePath    string
	InputPath   string
	InputFormat string // json | text
	IndexPath   string
}

// NonStreamConfig is the manifest's `non_stream` block: the paths and
// event_map a non-streaming response is matched against when the pipeline
// runs over the whole decoded body as a single frame (§4.2 "Non-streaming
// response"). A provider's non-streaming body rarely shares its streaming
// delta's field nesting (OpenAI: `choices.0.message.content` vs
// `choices.0.delta.content`), so these are declared separately from
// StreamingConfig/ToolUseConfig rather than reused as-is. Any zero-value
// field here falls back to its streaming counterpart.
type NonStreamConfig struct {
	ContentPath string
	EventMap    []EventRule
	Tooling     ToolUseConfig
}

// Termination describes how to extract the provider's finish-reason and
// map it onto the standard vocabulary (§3 "termination").
type Termination struct {
	FinishReasonPath string
	ReasonMap        map[string]string // provider value -> standard finish_reason; absent entries pass through
}

// RetryStrategy selects the backoff shape (§3 "retry_policy").
type RetryStrategy string

const (
	StrategyExponential RetryStrategy = "exponential"
	StrategyFixed        RetryStrategy = "fixed"
)

// Jitter selects the jitter shape applied to a computed delay.
type Jitter string

const (
	JitterNone Jitter = "none"
	JitterFull Jitter = "full"
)

// RetryPolicy is the manifest's `retry_policy` block (§3, §4.3).
type RetryPolicy struct {
	Strategy          RetryStrategy
	MaxRetries         int
	MinDelayMs         int
	MaxDelayMs         int
	Jitter             Jitter
	RetryOnHTTPStatus  []int
}

// ServiceConfig is one entry of the manifest's `services` map (§3, §4.6).
type ServiceConfig struct {
	Endpoint        Endpoint
	ResponseBinding map[string]string // result field name -> JSON path into the response body
}

// Manifest is the typed, immutable declaration of one provider's API
// contract (spec §3).
type Manifest struct {
	ProviderID      string
	ProtocolVersion string
	Status          Status
	BaseURL         string

	Auth Auth

	Endpoints map[string]Endpoint

	// Capabilities is normalized to a set (boolean membership) regardless of
	// whether the source declared a list or a keyed map (§3, §9).
	Capabilities map[string]bool

	ParameterMappings map[string]string

	Streaming StreamingConfig
	Tooling   ToolUseConfig
	NonStream NonStreamConfig

	Termination Termination

	ErrorClassification errors.ClassificationTables

	// ErrorCodePath locates the provider-specific error code string within
	// an error response body, feeding classification priority step 1
	// (§4.5). Empty means the provider never sends one; step 1 is skipped.
	ErrorCodePath string

	RetryPolicy RetryPolicy

	RateLimitHeaders []string

	Services map[string]ServiceConfig
}

// HasCapability reports set membership, treating an absent key as false.
func (m *Manifest) HasCapability(name string) bool {
	if m == nil {
		return false
	}
	return m.Capabilities[name]
}

// RecognizedParameters is the fixed, canonical processing order for
// §4.1's compile step, so compilation is deterministic regardless of the
// Unified Request struct's field order or any map iteration.
var RecognizedParameters = []string{
	"model", "messages", "temperature", "max_tokens", "top_p", "stream", "tools",
	"tool_choice", "stop", "response_format", "seed", "presence_penalty",
	"frequency_penalty",
}
