package streaming

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// unmarshalValue decodes a single top-level JSON value using sonic's
// faster decoder, the one format this pipeline's decode path is hot
// enough to care about (§4.2's json_chunk/gemini_json frames arrive one
// per model token on some providers). Sonic's config is tuned for
// standard-library-compatible behavior; any decode error is retried with
// encoding/json so a value sonic can't handle (rare, typically deeply
// nested or malformed input) still gets the standard library's verdict
// rather than silently succeeding with different semantics.
var sonicAPI = sonic.ConfigStd

func unmarshalValue(data []byte, out *interface{}) error {
	if err := sonicAPI.Unmarshal(data, out); err == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
