package streaming

import (
	"context"
	"errors"
	"io"

	coreerrors "github.com/aiproto/aiproto/pkg/errors"
	"github.com/aiproto/aiproto/pkg/logging"
	"github.com/aiproto/aiproto/pkg/manifest"
)

// Logger is the debug-logging sink Pipeline.Run reports unmatched frames
// through (SPEC_FULL §2 "Logging"). Defaults to a non-verbose console sink.
var Logger logging.Logger = logging.NewConsoleLogger(false)

// Pipeline is the precompiled decoder → selector → accumulator → fan-out →
// event mapper chain (§4.2). One Pipeline is built per manifest (not per
// request) and reused across every call to that provider.
type Pipeline struct {
	format        string
	maxFrameBytes int
	selector      *Selector
	accumulator   func() (*Accumulator, error)
	accumCfg      manifest.AccumulatorConfig
	termination   manifest.Termination
}

// NewPipeline compiles a manifest's streaming configuration into a
// reusable Pipeline.
func NewPipeline(cfg manifest.StreamingConfig, tooling manifest.ToolUseConfig, termination manifest.Termination) (*Pipeline, error) {
	sel, err := NewSelector(cfg, tooling, termination)
	if err != nil {
		return nil, err
	}
	// Accumulator state is per-call, not per-pipeline, so Run builds a
	// fresh one from the precompiled config on each invocation.
	if _, err := NewAccumulator(cfg.Accumulator); err != nil {
		return nil, err
	}
	return &Pipeline{
		format:        cfg.DecoderFormat,
		maxFrameBytes: DefaultMaxFrameBytes,
		selector:      sel,
		accumCfg:      cfg.Accumulator,
		termination:   termination,
	}, nil
}

// Run decodes body and emits Events on the returned channel until the
// stream ends or ctx is canceled. The channel is always closed exactly
// once; a terminal StreamError event is sent before closing if decoding
// fails (§8). Run never blocks past ctx cancellation once the current
// Decoder.Next() call returns.
func (p *Pipeline) Run(ctx context.Context, body io.Reader) (<-chan Event, error) {
	dec, err := NewDecoder(p.format, body, p.maxFrameBytes)
	if err != nil {
		return nil, err
	}

	accum, err := NewAccumulator(p.accumCfg)
	if err != nil {
		return nil, err
	}
	mapper := newEventMapper(p.termination)
	out := make(chan Event, 16)

	go func() {
		defer close(out)
		emittedAny := false

		emit := func(events []Event) {
			for _, e := range events {
				emittedAny = true
				out <- e
			}
		}

		// terminateClean runs the forceEnd sweep for a normal termination
		// (EOF, [DONE]-style sentinel, stop_condition match). If the sweep
		// produced nothing and no earlier frame ever emitted an event
		// either, the stream never produced a single event end to end —
		// §8 forbids a silent StreamEnd-less close in that case, so a
		// StreamError is synthesized instead.
		terminateClean := func() {
			for _, idx := range mapper.candidates() {
				emit(mapper.forceEnd(idx, "stop", nil))
			}
			if !emittedAny {
				out <- ErrorEvent(0, coreerrors.New(coreerrors.CodeServerError, "stream produced no events before terminating"))
			}
		}

		for {
			select {
			case <-ctx.Done():
				emit(mapper.forceEnd(0, "cancelled", nil))
				return
			default:
			}

			frame, err := dec.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					terminateClean()
					return
				}
				ce := classifyDecodeError(err)
				out <- ErrorEvent(0, ce)
				return
			}

			if frame.Sentinel {
				terminateClean()
				return
			}

			sel := p.selector.Select(frame)
			if !sel.Matched {
				logging.Debug(Logger, "streaming.pipeline", "frame matched no event_map rule, dropped", nil)
				continue
			}

			accumulated, flushed := accum.Feed(sel.CandidateIndex, frame.Value, sel)
			events := mapper.mapFrame(frame.Value, sel, accumulated, flushed)
			emit(events)

			if sel.StopReached {
				terminateClean()
				return
			}
		}
	}()

	return out, nil
}

func classifyDecodeError(err error) *coreerrors.CoreError {
	switch {
	case errors.Is(err, ErrFrameTooLarge):
		return coreerrors.New(coreerrors.CodeInvalidRequest, "streaming frame exceeded the configured maximum size").WithCause(err)
	case errors.Is(err, ErrUnterminatedStream):
		return coreerrors.New(coreerrors.CodeServerError, "stream ended without a terminating frame boundary").WithCause(err)
	default:
		return coreerrors.New(coreerrors.CodeServerError, "failed to decode streaming response").WithCause(err)
	}
}
