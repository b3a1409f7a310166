// Package logging is the small debug-logging seam the manifest compiler and
// streaming pipeline log through (SPEC_FULL §2 "Logging"), matching the
// teacher's examples/middleware/logging shape: a Logger interface with a
// single Log(entry) method and a default console sink, rather than a bare
// log.Printf scattered through call sites.
package logging

import (
	"fmt"
	"os"
	"time"
)

// Level is the severity of a LogEntry. This package only ever logs at
// LevelDebug today (dropped parameters, unmatched frames); the other levels
// exist so a Logger implementation has somewhere to grow into.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
)

// LogEntry is one structured log line.
type LogEntry struct {
	Timestamp time.Time
	Level     Level
	Component string // e.g. "manifest.compile", "streaming.pipeline"
	Message   string
	Fields    map[string]interface{}
}

// Logger is implemented by every logging sink.
type Logger interface {
	Log(entry LogEntry)
}

// ConsoleLogger writes entries to an io.Writer (stderr by default) as a
// single line. Verbose controls whether LevelDebug entries are printed at
// all — off by default, matching "never at higher severity for expected,
// recoverable conditions" (SPEC_FULL §2).
type ConsoleLogger struct {
	Verbose bool
	out     *os.File
}

// NewConsoleLogger builds the default sink.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return &ConsoleLogger{Verbose: verbose, out: os.Stderr}
}

func (l *ConsoleLogger) Log(entry LogEntry) {
	if entry.Level == LevelDebug && !l.Verbose {
		return
	}
	out := l.out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "[%s] %s %s: %s %v\n",
		entry.Timestamp.Format(time.RFC3339), entry.Level, entry.Component, entry.Message, entry.Fields)
}

// Debug is a convenience for the common case: build and log a LevelDebug
// entry in one call.
func Debug(l Logger, component, message string, fields map[string]interface{}) {
	if l == nil {
		return
	}
	l.Log(LogEntry{Timestamp: time.Now(), Level: LevelDebug, Component: component, Message: message, Fields: fields})
}
