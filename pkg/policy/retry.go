package policy

import (
	"math"
	"math/rand"
	"time"

	coreerrors "github.com/aiproto/aiproto/pkg/errors"
	"github.com/aiproto/aiproto/pkg/manifest"
)

// Decision is the outcome of consulting the retry_policy after a failed
// attempt (§4.3 "Retry decision").
type Decision int

const (
	DecisionSurface Decision = iota
	DecisionRetry
	DecisionFallback
)

// nonRetryableCodes is §4.3's explicit list; kept separate from the
// errors package's per-code Retryable metadata because this exact set
// governs the retry decision specifically (fallback eligibility is a
// distinct, broader question handled via errors.Fallbackable).
var nonRetryableCodes = map[coreerrors.StandardCode]bool{
	coreerrors.CodeInvalidRequest:   true,
	coreerrors.CodeAuthentication:   true,
	coreerrors.CodePermissionDenied: true,
	coreerrors.CodeNotFound:         true,
	coreerrors.CodeRequestTooLarge:  true,
	coreerrors.CodeCancelled:        true,
	coreerrors.CodeUnknown:          true,
}

// Decide implements §4.3's retry/fallback decision. attempt is 1-indexed
// (the attempt that just failed); emittedEvents reports whether any
// streaming event has already reached the caller for this attempt, which
// forbids a retry (never a fallback) regardless of classification.
func Decide(err *coreerrors.CoreError, attempt int, policy manifest.RetryPolicy, emittedEvents bool, fallbacksRemain bool) Decision {
	if nonRetryableCodes[err.Code] {
		if err.Fallbackable && fallbacksRemain {
			return DecisionFallback
		}
		return DecisionSurface
	}

	if emittedEvents {
		if err.Fallbackable && fallbacksRemain {
			return DecisionFallback
		}
		return DecisionSurface
	}

	maxRetries := policy.MaxRetries
	if attempt < maxRetries+1 {
		return DecisionRetry
	}

	if err.Fallbackable && fallbacksRemain {
		return DecisionFallback
	}
	return DecisionSurface
}

// Delay computes the wait before the next attempt (§4.3 "Compute
// delay"): an exponential or fixed schedule clamped to max_delay, or the
// Retry-After header value (also clamped), with full jitter applied when
// configured.
func Delay(policy manifest.RetryPolicy, attempt int, retryAfterSecs *float64) time.Duration {
	maxDelay := time.Duration(policy.MaxDelayMs) * time.Millisecond
	if maxDelay <= 0 {
		maxDelay = 60 * time.Second
	}

	var delay time.Duration
	if retryAfterSecs != nil {
		delay = time.Duration(*retryAfterSecs * float64(time.Second))
	} else {
		minDelay := time.Duration(policy.MinDelayMs) * time.Millisecond
		if minDelay <= 0 {
			minDelay = time.Second
		}
		switch policy.Strategy {
		case manifest.StrategyFixed:
			delay = minDelay
		default: // exponential
			mult := math.Pow(2, float64(attempt-1))
			delay = time.Duration(float64(minDelay) * mult)
		}
	}

	if delay > maxDelay {
		delay = maxDelay
	}
	if delay < 0 {
		delay = 0
	}

	if policy.Jitter == manifest.JitterFull {
		delay = time.Duration(float64(delay) * rand.Float64())
	}

	return delay
}
