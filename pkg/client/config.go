// Package client implements the facade spec §4.6 describes: resolve a
// model, compile a request, drive the attempt loop across retries and
// fallbacks, and surface either a unified response or a streaming event
// channel plus per-call stats.
package client

import (
	"time"

	"github.com/aiproto/aiproto/pkg/telemetry"
)

// Config is the caller-supplied configuration surface (spec §6).
type Config struct {
	MaxInflight      int
	RPS              float64
	RPM              float64
	BreakerThreshold int
	BreakerCooldown  time.Duration
	AttemptTimeout   time.Duration
	StrictStreaming  bool
	Fallbacks        []string
	HotReload        bool

	// Telemetry is nil-safe: a nil value behaves like telemetry.DefaultSettings()
	// (disabled).
	Telemetry *telemetry.Settings
}

func (c Config) telemetry() *telemetry.Settings {
	if c.Telemetry != nil {
		return c.Telemetry
	}
	return telemetry.DefaultSettings()
}

func (c Config) attemptTimeout() time.Duration {
	if c.AttemptTimeout > 0 {
		return c.AttemptTimeout
	}
	return 60 * time.Second
}

func (c Config) rps() float64 {
	if c.RPS > 0 {
		return c.RPS
	}
	if c.RPM > 0 {
		return c.RPM / 60.0
	}
	return 0
}
