package policy

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a per-provider token bucket (§4.3 "Rate limiter"), built
// directly on golang.org/x/time/rate and adaptively clamped from response
// headers.
type Limiter struct {
	mu  sync.Mutex
	rl  *rate.Limiter

	lastRemaining *int
	resetAt       time.Time
}

// NewLimiter builds a Limiter with the given requests-per-second fill
// rate and burst capacity. rps <= 0 means unlimited (always allows).
func NewLimiter(rps float64, burst int) *Limiter {
	if rps <= 0 {
		return &Limiter{rl: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(rps), burst)}
}

// NewLimiterRPM is a convenience constructor for a requests-per-minute
// configured provider (§6 "rps / rpm — choose one").
func NewLimiterRPM(rpm float64, burst int) *Limiter {
	return NewLimiter(rpm/60.0, burst)
}

// Wait blocks until a token is available or ctx/deadline is exceeded. It
// returns an error (from the underlying rate.Limiter) when the wait would
// exceed the context's deadline — the caller turns that into a
// rate_limited classification per §4.3's "fail fast" rule.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

// Allow reports whether a token is immediately available without
// blocking or consuming context deadline budget.
func (l *Limiter) Allow() bool {
	return l.rl.Allow()
}

// UpdateFromHeaders applies the adaptive clamp: when the provider reports
// fewer remaining requests than our current estimate, the bucket is
// clamped down to that remaining count (§4.3 "Rate limiter (token
// bucket)"). resetAt is recorded on the Limiter; it does not change the
// refill schedule, which stays at the configured rate.
func (l *Limiter) UpdateFromHeaders(remaining int, resetAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := int(l.rl.Tokens())
	if remaining < current {
		l.rl.SetBurstAt(time.Now(), remaining)
	}
	r := remaining
	l.lastRemaining = &r
	if !resetAt.IsZero() {
		l.resetAt = resetAt
	}
}
