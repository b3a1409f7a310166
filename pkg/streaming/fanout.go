package streaming

// fanoutState tracks, per candidate index, whatever bookkeeping is needed
// to uphold the pipeline's ordering invariants (§8): exactly one
// StreamStart before any other event, ToolCallStarted seen before any
// PartialToolCall sharing its id, and exactly one terminal event
// (StreamEnd or StreamError).
type fanoutState struct {
	started    map[int]bool
	toolSeen   map[int]map[string]bool
	terminated map[int]bool
}

func newFanoutState() *fanoutState {
	return &fanoutState{
		started:    map[int]bool{},
		toolSeen:   map[int]map[string]bool{},
		terminated: map[int]bool{},
	}
}

// needsStart reports whether a StreamStart must be synthesized for
// candidateIndex before emitting the event currently being built, and
// marks the candidate started.
func (f *fanoutState) needsStart(candidateIndex int) bool {
	if f.started[candidateIndex] {
		return false
	}
	f.started[candidateIndex] = true
	return true
}

// sawToolStart records that candidateIndex has seen a ToolCallStarted for
// toolID.
func (f *fanoutState) sawToolStart(candidateIndex int, toolID string) {
	slot := f.toolSeen[candidateIndex]
	if slot == nil {
		slot = map[string]bool{}
		f.toolSeen[candidateIndex] = slot
	}
	slot[toolID] = true
}

// needsToolStart reports whether candidateIndex has not yet seen a
// ToolCallStarted for toolID, meaning the event mapper must synthesize one
// before a PartialToolCall for that id (§8).
func (f *fanoutState) needsToolStart(candidateIndex int, toolID string) bool {
	return !f.toolSeen[candidateIndex][toolID]
}

// terminate reports whether candidateIndex has already emitted its one
// terminal event; if not, it marks the candidate terminated and returns
// false (caller proceeds to emit).
func (f *fanoutState) terminate(candidateIndex int) (alreadyTerminated bool) {
	if f.terminated[candidateIndex] {
		return true
	}
	f.terminated[candidateIndex] = true
	return false
}

// candidates returns every candidate index seen so far, for end-of-stream
// sweeps (e.g. emitting a StreamEnd for a candidate that never got an
// explicit terminal frame).
func (f *fanoutState) candidates() []int {
	out := make([]int, 0, len(f.started))
	for idx := range f.started {
		out = append(out, idx)
	}
	return out
}
