package policy

import (
	"net/http"
	"testing"
)

func TestExtractHeaderSignalParsesKnownHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("x-ratelimit-remaining-requests", "42")
	h.Set("retry-after", "3.5")

	sig := ExtractHeaderSignal(h, []string{"requests_remaining", "retry_after"})
	if sig.Remaining == nil || *sig.Remaining != 42 {
		t.Fatalf("unexpected remaining: %#v", sig.Remaining)
	}
	if sig.RetryAfterSecs == nil || *sig.RetryAfterSecs != 3.5 {
		t.Fatalf("unexpected retry-after: %#v", sig.RetryAfterSecs)
	}
}

func TestExtractHeaderSignalIgnoresUndeclaredHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("x-ratelimit-remaining-requests", "42")

	sig := ExtractHeaderSignal(h, []string{"retry_after"})
	if sig.Remaining != nil {
		t.Fatalf("expected remaining to be ignored when not declared, got %#v", sig.Remaining)
	}
}

func TestExtractHeaderSignalEmptyDeclaredReadsAllKnown(t *testing.T) {
	h := http.Header{}
	h.Set("x-ratelimit-remaining-requests", "7")
	sig := ExtractHeaderSignal(h, nil)
	if sig.Remaining == nil || *sig.Remaining != 7 {
		t.Fatalf("expected remaining parsed with no declared filter, got %#v", sig.Remaining)
	}
}
