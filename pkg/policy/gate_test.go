package policy

import (
	"context"
	"testing"
	"time"

	coreerrors "github.com/aiproto/aiproto/pkg/errors"
)

func TestGateAdmitRefusesWhenBreakerOpen(t *testing.T) {
	g := NewGate(1, time.Minute, 0, 0, 0)
	breaker := g.Breakers.For("openai:/chat")
	breaker.Allow()
	breaker.Failure()

	_, err := g.Admit(context.Background(), "openai:/chat")
	if err == nil {
		t.Fatal("expected Admit to refuse with an open breaker")
	}
}

func TestGateAdmitReleasesSemaphoreOnSuccess(t *testing.T) {
	g := NewGate(5, time.Minute, 0, 0, 1)
	release, err := g.Admit(context.Background(), "openai:/chat")
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	release()

	// A second Admit should succeed immediately since the permit was
	// released.
	release2, err := g.Admit(context.Background(), "openai:/chat")
	if err != nil {
		t.Fatalf("second Admit: %v", err)
	}
	release2()
}

func TestGateRecordOutcomeTripsOnlyForTrippableCategory(t *testing.T) {
	g := NewGate(1, time.Minute, 0, 0, 0)
	g.RecordOutcome("openai:/chat", ClassifyBreakerOutcome(coreerrors.CategoryClient), HeaderSignal{})
	if g.Breakers.For("openai:/chat").State() != StateClosed {
		t.Fatal("expected a client-category failure to leave the breaker untouched")
	}
	g.RecordOutcome("openai:/chat", ClassifyBreakerOutcome(coreerrors.CategoryServer), HeaderSignal{})
	if g.Breakers.For("openai:/chat").State() != StateOpen {
		t.Fatal("expected a server-category failure to trip the breaker at threshold 1")
	}
}
