package policy

import (
	"net/http"
	"strconv"
	"time"
)

// HeaderSignal is what §4.3 extracts from a response to update the
// breaker and rate limiter: "requests_remaining, requests_reset,
// retry_after overrides the next attempt's delay."
type HeaderSignal struct {
	Remaining      *int
	ResetAt        time.Time
	RetryAfterSecs *float64
}

// knownHeaderNames maps each logical rate_limit_headers name to the
// concrete wire header names providers actually send for it.
var knownHeaderNames = map[string][]string{
	"requests_remaining": {"x-ratelimit-remaining-requests", "x-ratelimit-remaining", "ratelimit-remaining"},
	"requests_reset":     {"x-ratelimit-reset-requests", "x-ratelimit-reset", "ratelimit-reset"},
	"retry_after":        {"retry-after"},
}

// ExtractHeaderSignal reads the headers present on resp that the
// manifest's rate_limit_headers admits. An entry is either a logical name,
// which admits all of its wire names, or one wire name listed in
// knownHeaderNames; an empty list admits all. Wire names not listed in
// knownHeaderNames are not read, and unparseable values are ignored.
func ExtractHeaderSignal(resp http.Header, declared []string) HeaderSignal {
	var sig HeaderSignal
	wanted := map[string]bool{}
	for _, d := range declared {
		wanted[d] = true
	}

	for logical, candidates := range knownHeaderNames {
		for _, name := range candidates {
			if len(declared) > 0 && !wanted[logical] && !wanted[name] {
				continue
			}
			v := resp.Get(name)
			if v == "" {
				continue
			}
			switch logical {
			case "requests_remaining":
				if n, err := strconv.Atoi(v); err == nil {
					sig.Remaining = &n
				}
			case "requests_reset":
				if secs, err := strconv.ParseFloat(v, 64); err == nil {
					sig.ResetAt = time.Now().Add(time.Duration(secs * float64(time.Second)))
				}
			case "retry_after":
				if secs, err := strconv.ParseFloat(v, 64); err == nil {
					sig.RetryAfterSecs = &secs
				}
			}
			break
		}
	}
	return sig
}
