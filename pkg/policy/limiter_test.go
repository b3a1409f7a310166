package policy

import (
	"context"
	"testing"
	"time"
)

func TestLimiterUnlimitedAlwaysAllows(t *testing.T) {
	l := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatal("expected unlimited limiter to always allow")
		}
	}
}

func TestLimiterBurstExhaustsThenRefills(t *testing.T) {
	l := NewLimiter(1000, 1)
	if !l.Allow() {
		t.Fatal("expected first token available")
	}
	if l.Allow() {
		t.Fatal("expected burst of 1 to be exhausted immediately")
	}
	time.Sleep(5 * time.Millisecond)
	if !l.Allow() {
		t.Fatal("expected token refilled after a short wait at 1000rps")
	}
}

func TestLimiterWaitRespectsContextDeadline(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.Allow() // drain the single burst token

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected Wait to fail fast once the required wait exceeds the deadline")
	}
}

func TestLimiterUpdateFromHeadersClampsBurst(t *testing.T) {
	l := NewLimiter(10, 10)
	l.UpdateFromHeaders(1, time.Now().Add(time.Second))
	allowed := 0
	for i := 0; i < 5; i++ {
		if l.Allow() {
			allowed++
		}
	}
	if allowed > 2 {
		t.Fatalf("expected the clamp to sharply reduce immediately available tokens, got %d allowed", allowed)
	}
}
