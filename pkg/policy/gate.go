package policy

import (
	"context"
	"time"

	coreerrors "github.com/aiproto/aiproto/pkg/errors"
)

// Gate bundles the per-provider breaker, rate limiter, and in-flight
// semaphore behind the three pre-flight steps §4.3 names after the
// capability check (manifest.PreflightCapabilities runs separately,
// against no shared state).
type Gate struct {
	Breakers  *Registry
	Limiter   *Limiter
	Semaphore *Semaphore
}

// NewGate builds a Gate. breakerThreshold/breakerCooldown configure the
// lazily-created per-(provider,endpoint) breakers.
func NewGate(breakerThreshold int, breakerCooldown time.Duration, rps float64, burst int, maxInflight int) *Gate {
	return &Gate{
		Breakers:  NewRegistry(breakerThreshold, breakerCooldown),
		Limiter:   NewLimiter(rps, burst),
		Semaphore: NewSemaphore(maxInflight),
	}
}

// Admit runs steps 2-4 of §4.3's pre-flight in order, releasing whatever
// it already acquired if a later step fails. On success it returns a
// release func the caller must invoke exactly once when the attempt
// finishes (success, failure, or cancellation — §5 "releases on both
// success and failure paths and on cancellation").
func (g *Gate) Admit(ctx context.Context, breakerKey string) (release func(), err error) {
	breaker := g.Breakers.For(breakerKey)
	if !breaker.Allow() {
		return nil, coreerrors.New(coreerrors.CodeServerError, "circuit breaker open for "+breakerKey)
	}

	if err := g.Semaphore.Acquire(ctx); err != nil {
		return nil, err
	}

	if err := g.Limiter.Wait(ctx); err != nil {
		g.Semaphore.Release()
		return nil, coreerrors.New(coreerrors.CodeRateLimited, "rate limiter wait exceeded call deadline").WithCause(err)
	}

	return func() { g.Semaphore.Release() }, nil
}

// BreakerOutcome records what an attempt outcome means for the circuit
// breaker specifically — trippable failures (§4.3's "{server_error,
// overloaded, timeout}") count against the consecutive-failure streak;
// anything else leaves breaker state untouched rather than either
// resetting or tripping it.
type BreakerOutcome int

const (
	OutcomeSuccess BreakerOutcome = iota
	OutcomeTrippableFailure
	OutcomeOtherFailure
)

// ClassifyBreakerOutcome maps a classified error's category onto the
// breaker-relevant outcome.
func ClassifyBreakerOutcome(category coreerrors.Category) BreakerOutcome {
	switch category {
	case coreerrors.CategoryServer:
		return OutcomeTrippableFailure
	default:
		return OutcomeOtherFailure
	}
}

// RecordOutcome updates the breaker (per BreakerOutcome) and the limiter
// (from any header signal present) after an attempt completes, per
// §4.3's "Both the breaker and the rate limiter are updated from
// response headers."
func (g *Gate) RecordOutcome(breakerKey string, outcome BreakerOutcome, sig HeaderSignal) {
	breaker := g.Breakers.For(breakerKey)
	switch outcome {
	case OutcomeSuccess:
		breaker.Success()
	case OutcomeTrippableFailure:
		breaker.Failure()
	}
	if sig.Remaining != nil {
		g.Limiter.UpdateFromHeaders(*sig.Remaining, sig.ResetAt)
	}
}
