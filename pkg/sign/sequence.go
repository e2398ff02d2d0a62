package sign

import (
	"time"
)

// Sequence buffer defaults. The window length matches the sequence model's
// training setup: 30 frames or 2 seconds, whichever fills first.
const (
	DefaultSequenceLength = 30
	DefaultTemporalWindow = 2 * time.Second

	// DefaultBufferCap is a hard cap above the sequence length. It should
	// never trigger under normal frame pacing; it bounds memory if the
	// ready check is somehow outrun.
	DefaultBufferCap = 45
)

// BufferState is the sequence buffer's lifecycle state.
type BufferState string

const (
	StateEmpty   BufferState = "empty"
	StateFilling BufferState = "filling"
	StateReady   BufferState = "ready"
)

// SequenceBuffer accumulates a fixed temporal window of (frame, prediction)
// pairs for dynamic-sign recognition.
//
// State machine: Empty -> Filling -> Ready -> (dispatch) -> Empty.
// The Filling->Ready transition fires when the buffer reaches sequenceLength
// frames OR temporalWindow wall-clock time has elapsed since the first
// frame, whichever comes first. The time trigger keeps the pipeline from
// stalling when the camera frame rate drops. Windows never overlap: after
// dispatch the buffer is cleared unconditionally, so consecutive dynamic
// signs cannot be detected faster than one window duration.
//
// SequenceBuffer is not goroutine-safe; the orchestrator serializes access.
type SequenceBuffer struct {
	entries        []WindowEntry
	sequenceLength int
	temporalWindow time.Duration
	bufferCap      int

	startedAt time.Time
	state     BufferState

	now func() time.Time
}

// NewSequenceBuffer creates a buffer with the given window parameters.
// Non-positive values fall back to defaults.
func NewSequenceBuffer(sequenceLength int, temporalWindow time.Duration) *SequenceBuffer {
	if sequenceLength < 1 {
		sequenceLength = DefaultSequenceLength
	}
	if temporalWindow <= 0 {
		temporalWindow = DefaultTemporalWindow
	}
	bufferCap := sequenceLength + sequenceLength/2
	if bufferCap < DefaultBufferCap && sequenceLength == DefaultSequenceLength {
		bufferCap = DefaultBufferCap
	}
	return &SequenceBuffer{
		entries:        make([]WindowEntry, 0, sequenceLength),
		sequenceLength: sequenceLength,
		temporalWindow: temporalWindow,
		bufferCap:      bufferCap,
		state:          StateEmpty,
		now:            time.Now,
	}
}

// SetClock overrides the buffer's clock. Tests use this to drive the
// temporal trigger deterministically.
func (b *SequenceBuffer) SetClock(now func() time.Time) {
	b.now = now
}

// Add appends a (frame, prediction) pair and reports whether the window is
// ready for dispatch. Once ready, callers take Snapshot and then Reset.
func (b *SequenceBuffer) Add(jpeg []byte, p Prediction) bool {
	if b.state == StateEmpty {
		b.startedAt = b.now()
		b.state = StateFilling
	}

	b.entries = append(b.entries, WindowEntry{JPEG: jpeg, Prediction: p})
	if len(b.entries) > b.bufferCap {
		b.entries = b.entries[1:]
	}

	if len(b.entries) >= b.sequenceLength || b.now().Sub(b.startedAt) >= b.temporalWindow {
		b.state = StateReady
		return true
	}
	return false
}

// Snapshot returns a copy of the buffered window. The copy is safe to hand
// to a sequence predictor while the buffer is reset.
func (b *SequenceBuffer) Snapshot() []WindowEntry {
	snapshot := make([]WindowEntry, len(b.entries))
	copy(snapshot, b.entries)
	return snapshot
}

// Reset clears all state without side effects. Called after every dispatch
// and on every mode switch.
func (b *SequenceBuffer) Reset() {
	b.entries = b.entries[:0]
	b.startedAt = time.Time{}
	b.state = StateEmpty
}

// State returns the buffer's lifecycle state.
func (b *SequenceBuffer) State() BufferState {
	return b.state
}

// Len returns the number of buffered entries.
func (b *SequenceBuffer) Len() int {
	return len(b.entries)
}
