package streaming

import (
	"fmt"

	"github.com/aiproto/aiproto/pkg/jsonpath"
	"github.com/aiproto/aiproto/pkg/manifest"
)

type compiledRule struct {
	match *jsonpath.Expr
	kind  manifest.EventRuleKind
}

// Selector is the precompiled second stage of the pipeline (§4.2): it
// classifies a decoded Frame against the manifest's event_map (first match
// wins) and extracts the content/tool-call/usage/candidate fragments the
// later stages need. Everything here — rule expressions, paths — is
// compiled once when the Selector is built, never re-parsed per frame.
type Selector struct {
	rules []compiledRule

	contentPath     string
	toolIDPath      string
	toolNamePath    string
	toolInputPath   string
	usagePath       string
	finishReasonPath string
	candidateIDPath string
	fanOut          bool

	stop *jsonpath.Expr
}

// Selected is one frame's classification and extracted fragments.
type Selected struct {
	Kind           manifest.EventRuleKind
	Matched        bool
	CandidateIndex int
	Content        string
	ToolID         string
	ToolName       string
	ArgsFragment   string
	Usage          *UsageDelta
	FinishReason   string
	StopReached    bool
}

// NewSelector compiles a StreamingConfig + ToolUseConfig + Termination into
// a Selector.
func NewSelector(cfg manifest.StreamingConfig, tooling manifest.ToolUseConfig, termination manifest.Termination) (*Selector, error) {
	s := &Selector{
		contentPath:      cfg.ContentPath,
		toolIDPath:       tooling.IDPath,
		toolNamePath:     tooling.NamePath,
		toolInputPath:    tooling.InputPath,
		usagePath:        cfg.UsagePath,
		finishReasonPath: termination.FinishReasonPath,
		candidateIDPath:  cfg.Candidate.CandidateIDPath,
		fanOut:           cfg.Candidate.FanOut,
	}

	for _, rule := range cfg.EventMap {
		expr, err := jsonpath.Compile(rule.Match)
		if err != nil {
			return nil, fmt.Errorf("streaming: compiling event rule %q: %w", rule.Match, err)
		}
		s.rules = append(s.rules, compiledRule{match: expr, kind: rule.Kind})
	}

	if cfg.StopCondition != "" {
		stop, err := jsonpath.Compile(cfg.StopCondition)
		if err != nil {
			return nil, fmt.Errorf("streaming: compiling stop_condition %q: %w", cfg.StopCondition, err)
		}
		s.stop = stop
	}

	return s, nil
}

// Select classifies frame against the precompiled event_map and extracts
// the fields the matched kind needs.
func (s *Selector) Select(frame Frame) Selected {
	out := Selected{CandidateIndex: s.candidateIndex(frame.Value)}

	for _, r := range s.rules {
		if r.match.Eval(frame.Value) {
			out.Kind = r.kind
			out.Matched = true
			break
		}
	}

	if s.stop != nil && s.stop.Eval(frame.Value) {
		out.StopReached = true
	}

	s.extract(frame.Value, &out)
	return out
}

// SelectAll classifies frame against every event_map rule instead of
// stopping at the first match, returning one Selected per distinct kind
// that matched (first rule for that kind wins, same as Select). A streamed
// delta normally carries one change per frame, so first-match-wins is
// right for Select; a complete non-streaming body carries content,
// tool-calls, usage and finish_reason all at once, so BuildNonStreamResponse
// uses this instead (§4.2 "Non-streaming response").
func (s *Selector) SelectAll(frame Frame) []Selected {
	idx := s.candidateIndex(frame.Value)
	seen := map[manifest.EventRuleKind]bool{}
	var out []Selected

	for _, r := range s.rules {
		if seen[r.kind] || !r.match.Eval(frame.Value) {
			continue
		}
		seen[r.kind] = true
		sel := Selected{CandidateIndex: idx, Kind: r.kind, Matched: true}
		s.extract(frame.Value, &sel)
		out = append(out, sel)
	}

	if s.stop != nil && s.stop.Eval(frame.Value) {
		for i := range out {
			out[i].StopReached = true
		}
	}

	return out
}

func (s *Selector) extract(value interface{}, out *Selected) {
	switch out.Kind {
	case manifest.EventContentDelta:
		if v, ok := jsonpath.Get(value, s.contentPath); ok {
			out.Content = toString(v)
		}
	case manifest.EventToolCallStart:
		out.ToolID = s.pathString(value, s.toolIDPath)
		out.ToolName = s.pathString(value, s.toolNamePath)
		out.ArgsFragment = s.pathString(value, s.toolInputPath)
	case manifest.EventToolCallArgDelta:
		out.ToolID = s.pathString(value, s.toolIDPath)
		out.ArgsFragment = s.pathString(value, s.toolInputPath)
	case manifest.EventUsage:
		out.Usage = s.extractUsage(value)
	case manifest.EventStreamEnd:
		out.FinishReason = s.pathString(value, s.finishReasonPath)
		out.Usage = s.extractUsage(value)
	}
}

func (s *Selector) candidateIndex(value interface{}) int {
	if !s.fanOut || s.candidateIDPath == "" {
		return 0
	}
	v, ok := jsonpath.Get(value, s.candidateIDPath)
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	default:
		return 0
	}
}

func (s *Selector) pathString(value interface{}, path string) string {
	if path == "" {
		return ""
	}
	v, ok := jsonpath.Get(value, path)
	if !ok {
		return ""
	}
	return toString(v)
}

func (s *Selector) extractUsage(value interface{}) *UsageDelta {
	if s.usagePath == "" {
		return nil
	}
	v, ok := jsonpath.Get(value, s.usagePath)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	u := &UsageDelta{}
	if n, ok := numField(m, "prompt_tokens", "input_tokens"); ok {
		u.PromptTokens = n
	}
	if n, ok := numField(m, "completion_tokens", "output_tokens"); ok {
		u.CompletionTokens = n
	}
	if n, ok := numField(m, "total_tokens"); ok {
		u.TotalTokens = n
	} else {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

func numField(m map[string]interface{}, keys ...string) (int, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := v.(float64); ok {
				return int(f), true
			}
		}
	}
	return 0, false
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}
