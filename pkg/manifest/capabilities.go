package manifest

import "fmt"

// KnownCapabilities enumerates the capability keys the runtime understands
// (§3). A manifest may declare others; they are carried but never gated on.
var KnownCapabilities = []string{
	"chat", "streaming", "tools", "multimodal", "vision", "audio",
	"reasoning", "computer_use", "mcp", "embeddings",
}

// normalizeCapabilities accepts either shape documented in §3:
//   - a list of capability names (all implicitly present/required)
//   - a keyed map of name -> bool, or name -> {required, optional} objects
//
// and flattens both into a single map[string]bool set. A key cannot appear
// in both shapes here (raw input is one JSON value, either an array or an
// object). A map entry object that sets both required and optional to false
// is rejected with an error, which Parse reports as invalid_request.
func normalizeCapabilities(raw interface{}) (map[string]bool, error) {
	out := map[string]bool{}
	if raw == nil {
		return out, nil
	}

	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("capabilities: list entries must be strings, got %T", item)
			}
			out[name] = true
		}
		return out, nil

	case map[string]interface{}:
		for name, entry := range v {
			present, err := capabilityEntryPresent(entry)
			if err != nil {
				return nil, fmt.Errorf("capabilities.%s: %w", name, err)
			}
			out[name] = present
		}
		return out, nil

	default:
		return nil, fmt.Errorf("capabilities: must be a list or a map, got %T", raw)
	}
}

// capabilityEntryPresent interprets one V2 capability entry: a bare bool,
// or an object with required/optional flags. A bare bool is the membership
// itself. An object counts as a member unless it explicitly sets both
// required and optional to false, which is rejected with an error.
func capabilityEntryPresent(entry interface{}) (bool, error) {
	switch v := entry.(type) {
	case bool:
		return v, nil
	case map[string]interface{}:
		required, _ := v["required"].(bool)
		optional, _ := v["optional"].(bool)
		if _, hasRequired := v["required"]; hasRequired {
			if _, hasOptional := v["optional"]; hasOptional && required == optional && !required {
				return false, fmt.Errorf("entry marks capability neither required nor optional")
			}
		}
		if required || optional {
			return true, nil
		}
		// Presence of the key with no explicit flags still counts as
		// declared membership.
		return true, nil
	default:
		return false, fmt.Errorf("unrecognized capability entry shape %T", entry)
	}
}
