package errors

import (
	"errors"
	"fmt"
)

// CoreError is the single error type surfaced past the attempt loop. It
// carries everything §7 requires on a surfaced error.
type CoreError struct {
	Code         StandardCode
	Message      string
	Retryable    bool
	Fallbackable bool
	Endpoint     string
	Model        string

	ClientRequestID   string
	UpstreamRequestID string

	HTTPStatus       int
	ProviderErrCode  string
	RetryAfterSecs   *float64

	Cause error
}

// New builds a CoreError from a standard code, filling Retryable and
// Fallbackable from the static metadata table.
func New(code StandardCode, message string) *CoreError {
	meta := MetaFor(code)
	return &CoreError{
		Code:         code,
		Message:      message,
		Retryable:    meta.Retryable,
		Fallbackable: meta.Fallbackable,
	}
}

// Error implements the error interface. human_message names the failing
// operation and the classified kind; no stack traces or internal buffers.
func (e *CoreError) Error() string {
	op := e.Endpoint
	if op == "" {
		op = "request"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s (%s): %v", op, e.Message, e.Code, e.Cause)
	}
	return fmt.Sprintf("%s failed: %s (%s)", op, e.Message, e.Code)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *CoreError) Unwrap() error { return e.Cause }

// WithCause attaches an underlying cause and returns the receiver for
// chaining at construction sites.
func (e *CoreError) WithCause(cause error) *CoreError {
	e.Cause = cause
	return e
}

// As reports whether err (or one in its chain) is a *CoreError, returning it.
func As(err error) (*CoreError, bool) {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsCode reports whether err classifies as the given standard code.
func IsCode(err error, code StandardCode) bool {
	ce, ok := As(err)
	return ok && ce.Code == code
}
