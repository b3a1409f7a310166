// Package policy implements the pre-flight and failure-handling gates
// the client facade consults around every attempt (spec §4.3): a circuit
// breaker per (provider, endpoint), a token-bucket rate limiter per
// provider, an in-flight semaphore, and the retry/fallback decision.
package policy

import (
	"sync"
	"time"
)

// BreakerState is one of the three circuit-breaker states (§4.3).
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// DefaultBreakerThreshold is the consecutive-failure count that trips the
// breaker from closed to open when the caller does not configure one.
const DefaultBreakerThreshold = 5

// DefaultBreakerCooldown is how long the breaker stays open before
// allowing one half-open probe.
const DefaultBreakerCooldown = 30 * time.Second

// Breaker is a circuit breaker for one (provider, endpoint) pair. All
// mutations are serialized under a single short critical section (§5);
// no suspension happens while the lock is held.
type Breaker struct {
	mu sync.Mutex

	threshold int
	cooldown  time.Duration

	state          BreakerState
	consecutiveErr int
	openedAt       time.Time
	probeInFlight  bool
}

// NewBreaker builds a Breaker. A threshold <= 0 or cooldown <= 0 falls
// back to the package defaults.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = DefaultBreakerThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultBreakerCooldown
	}
	return &Breaker{threshold: threshold, cooldown: cooldown, state: StateClosed}
}

// Allow reports whether an attempt may proceed. A closed breaker always
// allows. An open breaker allows only after its cooldown has elapsed, at
// which point it transitions to half-open and allows exactly one probe.
// A half-open breaker refuses any further attempt until that probe
// resolves via Success or Failure.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.openedAt) >= b.cooldown {
			b.state = StateHalfOpen
			b.probeInFlight = true
			return true
		}
		return false
	case StateHalfOpen:
		if !b.probeInFlight {
			b.probeInFlight = true
			return true
		}
		return false
	}
	return false
}

// Success records a successful attempt: a half-open probe closes the
// breaker; a closed breaker simply resets its failure streak.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveErr = 0
	b.state = StateClosed
	b.probeInFlight = false
}

// Failure records a failed attempt classified into a breaker-trippable
// category (server_error, overloaded, timeout per §4.3). A half-open
// probe failure reopens the breaker immediately with a reset cooldown; a
// closed breaker opens once consecutive failures reach the threshold.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.trip()
		return
	}

	b.consecutiveErr++
	if b.consecutiveErr >= b.threshold {
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = time.Now()
	b.consecutiveErr = 0
	b.probeInFlight = false
}

// State returns the current state, for diagnostics and tests.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Registry is a keyed set of Breakers, one per (provider, endpoint).
type Registry struct {
	mu        sync.Mutex
	breakers  map[string]*Breaker
	threshold int
	cooldown  time.Duration
}

// NewRegistry builds a Registry whose lazily-created Breakers use the
// given threshold/cooldown.
func NewRegistry(threshold int, cooldown time.Duration) *Registry {
	return &Registry{breakers: map[string]*Breaker{}, threshold: threshold, cooldown: cooldown}
}

// For returns the Breaker for key, creating it on first use.
func (r *Registry) For(key string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[key]
	if !ok {
		b = NewBreaker(r.threshold, r.cooldown)
		r.breakers[key] = b
	}
	return b
}
