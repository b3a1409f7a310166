// Package errors defines the unified, 13-code standard error taxonomy used
// across the manifest compiler, streaming pipeline, policy engine, and
// transport. Every error surfaced past an attempt loop is classified into
// exactly one StandardCode.
package errors

// StandardCode is one of the 13 standard error codes every provider error
// is classified into.
type StandardCode string

const (
	CodeInvalidRequest   StandardCode = "E1001"
	CodeAuthentication   StandardCode = "E1002"
	CodePermissionDenied StandardCode = "E1003"
	CodeNotFound         StandardCode = "E1004"
	CodeRequestTooLarge  StandardCode = "E1005"
	CodeRateLimited      StandardCode = "E2001"
	CodeQuotaExhausted   StandardCode = "E2002"
	CodeServerError      StandardCode = "E3001"
	CodeOverloaded       StandardCode = "E3002"
	CodeTimeout          StandardCode = "E3003"
	CodeConflict         StandardCode = "E4001"
	CodeCancelled        StandardCode = "E4002"
	CodeUnknown          StandardCode = "E9999"
)

// Category groups standard codes for coarse-grained handling (e.g. breaker
// trip classes).
type Category string

const (
	CategoryClient    Category = "client"
	CategoryRateLimit Category = "rate_limit"
	CategoryServer    Category = "server"
	CategoryCancel    Category = "cancel"
	CategoryUnknown   Category = "unknown"
)

// Meta is the static, per-code metadata the policy engine consults.
type Meta struct {
	Retryable    bool
	Fallbackable bool
	Category     Category
}

// metaTable is the single source of truth for retry/fallback eligibility.
// §4.5 classification attaches {retryable, fallbackable} from this table.
var metaTable = map[StandardCode]Meta{
	CodeInvalidRequest:   {Retryable: false, Fallbackable: true, Category: CategoryClient},
	CodeAuthentication:   {Retryable: false, Fallbackable: true, Category: CategoryClient},
	CodePermissionDenied: {Retryable: false, Fallbackable: true, Category: CategoryClient},
	CodeNotFound:         {Retryable: false, Fallbackable: true, Category: CategoryClient},
	CodeRequestTooLarge:  {Retryable: false, Fallbackable: true, Category: CategoryClient},
	CodeRateLimited:      {Retryable: true, Fallbackable: true, Category: CategoryRateLimit},
	CodeQuotaExhausted:   {Retryable: true, Fallbackable: true, Category: CategoryRateLimit},
	CodeServerError:      {Retryable: true, Fallbackable: true, Category: CategoryServer},
	CodeOverloaded:       {Retryable: true, Fallbackable: true, Category: CategoryServer},
	CodeTimeout:          {Retryable: true, Fallbackable: true, Category: CategoryServer},
	CodeConflict:         {Retryable: true, Fallbackable: true, Category: CategoryClient},
	CodeCancelled:        {Retryable: false, Fallbackable: false, Category: CategoryCancel},
	CodeUnknown:          {Retryable: false, Fallbackable: true, Category: CategoryUnknown},
}

// MetaFor returns the static metadata for a standard code. Unknown codes
// (should not occur once classification has run) fall back to CodeUnknown's
// metadata rather than panicking.
func MetaFor(code StandardCode) Meta {
	if m, ok := metaTable[code]; ok {
		return m
	}
	return metaTable[CodeUnknown]
}

// Retryable reports whether attempts classified with code may be retried.
func Retryable(code StandardCode) bool { return MetaFor(code).Retryable }

// Fallbackable reports whether attempts classified with code may trigger a
// fallback to another model.
func Fallbackable(code StandardCode) bool { return MetaFor(code).Fallbackable }

// httpStatusTable is the standard HTTP-status-to-code mapping used as the
// last resort in the classification priority (§4.5 step 3), before step 4's
// CodeUnknown default.
var httpStatusTable = map[int]StandardCode{
	400: CodeInvalidRequest,
	401: CodeAuthentication,
	403: CodePermissionDenied,
	404: CodeNotFound,
	408: CodeTimeout,
	409: CodeConflict,
	413: CodeRequestTooLarge,
	429: CodeRateLimited,
	504: CodeTimeout,
	529: CodeOverloaded,
}

// FromHTTPStatus implements §4.5 step 3 (the "standard HTTP mapping"),
// including the 5xx catch-all.
func FromHTTPStatus(status int) (StandardCode, bool) {
	if code, ok := httpStatusTable[status]; ok {
		return code, true
	}
	if status >= 500 && status < 600 {
		return CodeServerError, true
	}
	return CodeUnknown, false
}
