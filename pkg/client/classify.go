package client

import (
	"encoding/json"

	coreerrors "github.com/aiproto/aiproto/pkg/errors"
	"github.com/aiproto/aiproto/pkg/jsonpath"
	"github.com/aiproto/aiproto/pkg/manifest"
)

// classifyHTTPFailure implements §4.5 against a parsed, non-2xx response
// body: extract the provider error code (if the manifest declares a
// path for it), then run the standard classification pipeline.
func classifyHTTPFailure(m *manifest.Manifest, endpoint, model string, status int, body []byte, retryAfterSecs *float64) *coreerrors.CoreError {
	providerCode := ""
	if m.ErrorCodePath != "" {
		var parsed interface{}
		if err := json.Unmarshal(body, &parsed); err == nil {
			if v, ok := jsonpath.Get(parsed, m.ErrorCodePath); ok {
				if s, ok := v.(string); ok {
					providerCode = s
				}
			}
		}
	}

	code := coreerrors.Classify(m.ErrorClassification, status, providerCode)
	meta := coreerrors.MetaFor(code)
	ce := &coreerrors.CoreError{
		Code:            code,
		Message:         "provider returned HTTP " + httpStatusText(status),
		Retryable:       meta.Retryable,
		Fallbackable:    meta.Fallbackable,
		Endpoint:        endpoint,
		Model:           model,
		HTTPStatus:      status,
		ProviderErrCode: providerCode,
		RetryAfterSecs:  retryAfterSecs,
	}
	return ce
}

func httpStatusText(status int) string {
	switch status {
	case 0:
		return "unknown"
	default:
		return itoa(status)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// classifyTransportFailure implements §4.5's transport-error branch: DNS,
// TLS, socket, and parse failures are server_error (retryable) except a
// JSON-parse failure of an otherwise-2xx body, which is unknown
// (non-retryable); a context cancellation is always `cancelled`.
func classifyTransportFailure(endpoint, model string, cancelled, jsonParseOf2xx bool, cause error) *coreerrors.CoreError {
	code := coreerrors.ClassifyTransportError(cancelled, jsonParseOf2xx)
	ce := coreerrors.New(code, "transport failure").WithCause(cause)
	ce.Endpoint = endpoint
	ce.Model = model
	return ce
}
