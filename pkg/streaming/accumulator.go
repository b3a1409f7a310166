package streaming

import (
	"encoding/json"
	"fmt"

	"github.com/aiproto/aiproto/pkg/jsonpath"
	"github.com/aiproto/aiproto/pkg/manifest"
)

// Accumulator buffers tool-call argument fragments per call id until the
// manifest's flush_on expression fires (§4.2 "Accumulator"). Fragments are
// concatenated in arrival order; the flushed string is handed to the event
// mapper as the whole accumulated arguments payload.
type Accumulator struct {
	keyPath string
	flushOn *jsonpath.Expr

	buffers map[int]map[string]*string // candidateIndex -> toolID -> buffer
}

// NewAccumulator compiles an AccumulatorConfig. Buffers are keyed on the
// selector's tool id; cfg.KeyPath is stored but not used to key or read
// fragments, and cfg.SlotPath is not read. Without FlushOn, a fragment with
// no tool id is returned as its own complete value, and fragments that
// carry a tool id are concatenated but never reported as flushed.
func NewAccumulator(cfg manifest.AccumulatorConfig) (*Accumulator, error) {
	a := &Accumulator{keyPath: cfg.KeyPath, buffers: map[int]map[string]*string{}}
	if cfg.FlushOn != "" {
		expr, err := jsonpath.Compile(cfg.FlushOn)
		if err != nil {
			return nil, fmt.Errorf("streaming: compiling accumulator flush_on %q: %w", cfg.FlushOn, err)
		}
		a.flushOn = expr
	}
	return a, nil
}

// Feed appends sel's argument fragment to the buffer keyed by its tool id
// and reports the accumulated string plus whether flush_on fired on this
// frame (in which case the caller should treat the returned string as
// final and the buffer is cleared).
func (a *Accumulator) Feed(candidateIndex int, frameValue interface{}, sel Selected) (accumulated string, flushed bool) {
	if sel.ToolID == "" {
		flushed := a.flushOn == nil || a.flushOn.Eval(frameValue)
		val := sel.ArgsFragment
		if flushed {
			val = repairFlushed(val)
		}
		return val, flushed
	}

	slot := a.buffers[candidateIndex]
	if slot == nil {
		slot = map[string]*string{}
		a.buffers[candidateIndex] = slot
	}

	buf := slot[sel.ToolID]
	if buf == nil {
		empty := ""
		buf = &empty
		slot[sel.ToolID] = buf
	}
	*buf += sel.ArgsFragment

	if a.flushOn != nil && a.flushOn.Eval(frameValue) {
		out := *buf
		delete(slot, sel.ToolID)
		return repairFlushed(out), true
	}
	return *buf, false
}

// repairFlushed is called on a buffer the moment flush_on fires, before the
// caller treats it as a complete value: a connection torn down mid-frame can
// flush a tool-call argument string that is valid-looking but truncated, so
// the same FixJSON repair the sse decoder applies to a malformed frame
// (decoder_sse.go) is applied here too.
func repairFlushed(s string) string {
	var v interface{}
	if json.Unmarshal([]byte(s), &v) == nil {
		return s
	}
	repaired := FixJSON(s)
	if repaired == "" {
		return s
	}
	if json.Unmarshal([]byte(repaired), &v) != nil {
		return s
	}
	return repaired
}

// Pending reports any tool ids left buffered for a candidate at stream end
// without ever seeing flush_on fire — a malformed-but-recoverable stream.
func (a *Accumulator) Pending(candidateIndex int) map[string]string {
	slot := a.buffers[candidateIndex]
	if len(slot) == 0 {
		return nil
	}
	out := make(map[string]string, len(slot))
	for id, buf := range slot {
		out[id] = *buf
	}
	return out
}
