package policy

import (
	"context"

	coreerrors "github.com/aiproto/aiproto/pkg/errors"
)

// Semaphore bounds concurrent in-flight attempts (§4.3 step 3, §6
// `max_inflight`). A size <= 0 means unbounded — Acquire always succeeds
// immediately.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore builds a Semaphore with the given capacity. size <= 0
// yields an unbounded semaphore.
func NewSemaphore(size int) *Semaphore {
	if size <= 0 {
		return &Semaphore{}
	}
	return &Semaphore{slots: make(chan struct{}, size)}
}

// Acquire blocks for a permit until ctx is done, in which case it returns
// an overloaded CoreError (§4.3: "if a deadline is set, fail fast with
// overloaded"). An unbounded semaphore always succeeds without blocking.
func (s *Semaphore) Acquire(ctx context.Context) error {
	if s.slots == nil {
		return nil
	}
	select {
	case s.slots <- struct{}{}:
		return nil
	default:
	}
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return coreerrors.New(coreerrors.CodeOverloaded, "in-flight permit unavailable before deadline").WithCause(ctx.Err())
	}
}

// Release returns a permit. Safe to call even on an unbounded semaphore.
func (s *Semaphore) Release() {
	if s.slots == nil {
		return
	}
	<-s.slots
}
