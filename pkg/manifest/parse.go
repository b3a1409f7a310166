package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"

	coreerrors "github.com/aiproto/aiproto/pkg/errors"
)

// Format selects the source encoding a manifest document is parsed from.
// Both are accepted with no behavioral difference (§6).
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Mode controls how strictly Parse enforces the streaming-completeness
// invariant (§3, configuration surface `strict_streaming`).
type Mode int

const (
	// ModeStrict rejects a manifest claiming `streaming` capability without
	// a complete `streaming` block.
	ModeStrict Mode = iota
	// ModePermissive infers minimally missing streaming fields instead of
	// rejecting (§3: "permissive mode infers minimally").
	ModePermissive
)

// Parse decodes raw manifest bytes (JSON or YAML, §6) into a Manifest and
// validates its invariants (§3). goccy/go-yaml decodes YAML documents into
// the same generic map[string]interface{} shape encoding/json produces for
// JSON, so a single generic-map-driven builder (below) serves both formats.
func Parse(data []byte, format Format, mode Mode) (*Manifest, error) {
	var generic map[string]interface{}
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, coreerrors.New(coreerrors.CodeInvalidRequest, "manifest is not valid JSON").WithCause(err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, coreerrors.New(coreerrors.CodeInvalidRequest, "manifest is not valid YAML").WithCause(err)
		}
	default:
		return nil, fmt.Errorf("manifest: unknown format %q", format)
	}
	return build(generic, mode)
}

func build(g map[string]interface{}, mode Mode) (*Manifest, error) {
	m := &Manifest{}

	m.ProviderID, _ = g["provider_id"].(string)
	if m.ProviderID == "" {
		return nil, coreerrors.New(coreerrors.CodeInvalidRequest, "manifest missing provider_id")
	}
	m.ProtocolVersion, _ = g["protocol_version"].(string)
	if s, ok := g["status"].(string); ok {
		m.Status = Status(s)
	}
	m.BaseURL, _ = g["base_url"].(string)

	var err error
	if m.Auth, err = buildAuth(g["auth"]); err != nil {
		return nil, wrapInvalid("auth", err)
	}

	if m.Endpoints, err = buildEndpoints(g["endpoints"]); err != nil {
		return nil, wrapInvalid("endpoints", err)
	}

	if m.Capabilities, err = normalizeCapabilities(g["capabilities"]); err != nil {
		return nil, wrapInvalid("capabilities", err)
	}

	if m.ParameterMappings, err = buildStringMap(g["parameter_mappings"]); err != nil {
		return nil, wrapInvalid("parameter_mappings", err)
	}

	if m.Streaming, err = buildStreaming(g["streaming"]); err != nil {
		return nil, wrapInvalid("streaming", err)
	}

	if m.Tooling, err = buildToolUse(subMap(g["tooling"], "tool_use")); err != nil {
		return nil, wrapInvalid("tooling", err)
	}

	if m.NonStream, err = buildNonStream(g["non_stream"]); err != nil {
		return nil, wrapInvalid("non_stream", err)
	}

	m.Termination = buildTermination(g["termination"])

	if m.ErrorClassification, err = buildClassification(g["error_classification"]); err != nil {
		return nil, wrapInvalid("error_classification", err)
	}
	if ec := asMap(g["error_classification"]); ec != nil {
		if path, ok := ec["error_code_path"].(string); ok {
			m.ErrorCodePath = path
		}
	}

	m.RetryPolicy = buildRetryPolicy(g["retry_policy"])

	m.RateLimitHeaders = buildStringList(g["rate_limit_headers"])

	if m.Services, err = buildServices(g["services"]); err != nil {
		return nil, wrapInvalid("services", err)
	}

	if err := validate(m, mode); err != nil {
		return nil, err
	}
	return m, nil
}

func wrapInvalid(field string, err error) error {
	return coreerrors.New(coreerrors.CodeInvalidRequest, fmt.Sprintf("manifest.%s: %v", field, err))
}

func subMap(v interface{}, key string) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return m[key]
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func buildAuth(v interface{}) (Auth, error) {
	m := asMap(v)
	a := Auth{}
	kind, _ := m["type"].(string)
	a.Kind = AuthKind(kind)
	a.EnvVar, _ = m["env_var"].(string)
	a.HeaderName, _ = m["header_name"].(string)
	a.QueryParam, _ = m["query_param"].(string)
	extra, err := buildStringMap(m["extra_headers"])
	if err != nil {
		return a, err
	}
	a.ExtraHeaders = extra
	switch a.Kind {
	case AuthBearer, AuthHeader, AuthQuery, "":
	default:
		return a, fmt.Errorf("unrecognized auth type %q", kind)
	}
	return a, nil
}

func buildEndpoints(v interface{}) (map[string]Endpoint, error) {
	m := asMap(v)
	out := map[string]Endpoint{}
	for id, raw := range m {
		em := asMap(raw)
		ep := Endpoint{}
		ep.Path, _ = em["path"].(string)
		ep.Method, _ = em["method"].(string)
		if ep.Method == "" {
			ep.Method = "POST"
		}
		ep.BaseURLOverride, _ = em["base_url"].(string)
		ep.Adapter, _ = em["adapter"].(string)
		if ep.Path == "" {
			return nil, fmt.Errorf("endpoint %q missing path", id)
		}
		out[id] = ep
	}
	if _, ok := out["chat"]; !ok {
		return nil, fmt.Errorf("endpoints must declare at least %q", "chat")
	}
	return out, nil
}

func buildStringMap(v interface{}) (map[string]string, error) {
	m := asMap(v)
	if m == nil {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(m))
	for k, raw := range m {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("key %q: expected string value, got %T", k, raw)
		}
		out[k] = s
	}
	return out, nil
}

func buildStringList(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func buildStreaming(v interface{}) (StreamingConfig, error) {
	m := asMap(v)
	sc := StreamingConfig{}
	sc.DecoderFormat, _ = m["decoder_format"].(string)
	sc.ContentPath, _ = m["content_path"].(string)
	sc.ToolCallPath, _ = m["tool_call_path"].(string)
	sc.UsagePath, _ = m["usage_path"].(string)
	sc.StopCondition, _ = m["stop_condition"].(string)

	if rules, ok := m["event_map"].([]interface{}); ok {
		for _, r := range rules {
			rm := asMap(r)
			match, _ := rm["match"].(string)
			kind, _ := rm["kind"].(string)
			sc.EventMap = append(sc.EventMap, EventRule{Match: match, Kind: EventRuleKind(kind)})
		}
	}

	if acc, ok := m["accumulator"]; ok {
		am := asMap(acc)
		sc.Accumulator = AccumulatorConfig{}
		sc.Accumulator.KeyPath, _ = am["key_path"].(string)
		sc.Accumulator.SlotPath, _ = am["slot_path"].(string)
		sc.Accumulator.FlushOn, _ = am["flush_on"].(string)
	}

	if cand, ok := m["candidate"]; ok {
		cm := asMap(cand)
		sc.Candidate.FanOut, _ = cm["fan_out"].(bool)
		sc.Candidate.CandidateIDPath, _ = cm["candidate_id_path"].(string)
	}

	return sc, nil
}

func buildToolUse(v interface{}) (ToolUseConfig, error) {
	m := asMap(v)
	tu := ToolUseConfig{}
	tu.IDPath, _ = m["id_path"].(string)
	tu.NamePath, _ = m["name_path"].(string)
	tu.InputPath, _ = m["input_path"].(string)
	tu.InputFormat, _ = m["input_format"].(string)
	if tu.InputFormat == "" {
		tu.InputFormat = "json"
	}
	tu.IndexPath, _ = m["index_path"].(string)
	return tu, nil
}

func buildNonStream(v interface{}) (NonStreamConfig, error) {
	m := asMap(v)
	nsc := NonStreamConfig{}
	nsc.ContentPath, _ = m["content_path"].(string)

	if rules, ok := m["event_map"].([]interface{}); ok {
		for _, r := range rules {
			rm := asMap(r)
			match, _ := rm["match"].(string)
			kind, _ := rm["kind"].(string)
			nsc.EventMap = append(nsc.EventMap, EventRule{Match: match, Kind: EventRuleKind(kind)})
		}
	}

	tu, err := buildToolUse(subMap(v, "tool_use"))
	if err != nil {
		return nsc, err
	}
	nsc.Tooling = tu

	return nsc, nil
}

func buildTermination(v interface{}) Termination {
	m := asMap(v)
	t := Termination{}
	t.FinishReasonPath, _ = m["finish_reason_path"].(string)
	if rm, ok := m["reason_map"].(map[string]interface{}); ok {
		t.ReasonMap = map[string]string{}
		for k, val := range rm {
			if s, ok := val.(string); ok {
				t.ReasonMap[k] = s
			}
		}
	}
	return t
}

func buildClassification(v interface{}) (coreerrors.ClassificationTables, error) {
	m := asMap(v)
	tables := coreerrors.ClassificationTables{
		ByErrorStatus: map[string]coreerrors.StandardCode{},
		ByHTTPStatus:  map[int]coreerrors.StandardCode{},
	}
	if byStatus, ok := m["by_error_status"].(map[string]interface{}); ok {
		for code, std := range byStatus {
			s, _ := std.(string)
			if err := checkStandardCode(s); err != nil {
				return tables, fmt.Errorf("by_error_status[%s]: %w", code, err)
			}
			tables.ByErrorStatus[code] = coreerrors.StandardCode(s)
		}
	}
	if byHTTP, ok := m["by_http_status"].(map[string]interface{}); ok {
		for statusStr, std := range byHTTP {
			var status int
			if _, err := fmt.Sscanf(statusStr, "%d", &status); err != nil {
				return tables, fmt.Errorf("by_http_status key %q is not an integer", statusStr)
			}
			s, _ := std.(string)
			if err := checkStandardCode(s); err != nil {
				return tables, fmt.Errorf("by_http_status[%s]: %w", statusStr, err)
			}
			tables.ByHTTPStatus[status] = coreerrors.StandardCode(s)
		}
	}
	return tables, nil
}

var validStandardCodes = map[coreerrors.StandardCode]bool{
	coreerrors.CodeInvalidRequest: true, coreerrors.CodeAuthentication: true,
	coreerrors.CodePermissionDenied: true, coreerrors.CodeNotFound: true,
	coreerrors.CodeRequestTooLarge: true, coreerrors.CodeRateLimited: true,
	coreerrors.CodeQuotaExhausted: true, coreerrors.CodeServerError: true,
	coreerrors.CodeOverloaded: true, coreerrors.CodeTimeout: true,
	coreerrors.CodeConflict: true, coreerrors.CodeCancelled: true,
	coreerrors.CodeUnknown: true,
}

func checkStandardCode(s string) error {
	if !validStandardCodes[coreerrors.StandardCode(s)] {
		return fmt.Errorf("must resolve to one of the 13 standard error codes, got %q", s)
	}
	return nil
}

func buildRetryPolicy(v interface{}) RetryPolicy {
	m := asMap(v)
	rp := RetryPolicy{
		Strategy:   StrategyExponential,
		MaxRetries: 2,
		MinDelayMs: 500,
		MaxDelayMs: 30000,
		Jitter:     JitterNone,
	}
	if s, ok := m["strategy"].(string); ok && s != "" {
		rp.Strategy = RetryStrategy(s)
	}
	if n, ok := numVal(m["max_retries"]); ok {
		rp.MaxRetries = int(n)
	}
	if n, ok := numVal(m["min_delay_ms"]); ok {
		rp.MinDelayMs = int(n)
	}
	if n, ok := numVal(m["max_delay_ms"]); ok {
		rp.MaxDelayMs = int(n)
	}
	if s, ok := m["jitter"].(string); ok && s != "" {
		rp.Jitter = Jitter(s)
	}
	if arr, ok := m["retry_on_http_status"].([]interface{}); ok {
		for _, v := range arr {
			if n, ok := numVal(v); ok {
				rp.RetryOnHTTPStatus = append(rp.RetryOnHTTPStatus, int(n))
			}
		}
	}
	return rp
}

func numVal(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func buildServices(v interface{}) (map[string]ServiceConfig, error) {
	m := asMap(v)
	out := map[string]ServiceConfig{}
	for id, raw := range m {
		sm := asMap(raw)
		sc := ServiceConfig{}
		sc.Endpoint.Path, _ = sm["path"].(string)
		sc.Endpoint.Method, _ = sm["method"].(string)
		if sc.Endpoint.Method == "" {
			sc.Endpoint.Method = "GET"
		}
		sc.Endpoint.BaseURLOverride, _ = sm["base_url"].(string)
		binding, err := buildStringMap(sm["response_binding"])
		if err != nil {
			return nil, fmt.Errorf("services.%s.response_binding: %w", id, err)
		}
		sc.ResponseBinding = binding
		out[id] = sc
	}
	return out, nil
}
