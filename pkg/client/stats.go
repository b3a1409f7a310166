package client

import "time"

// CallStats is the per-call surface exposed to the caller on demand
// (spec §3 "Call Context", SPEC_FULL §5 "CallStats surface").
type CallStats struct {
	ClientRequestID   string
	UpstreamRequestID string
	Model             string
	Attempts          int
	FallbacksUsed     int
	Duration          time.Duration
}
