package percept

import (
	"fmt"
	"time"

	"github.com/lumenlabs/go-lumen/pkg/alerting"
	"github.com/lumenlabs/go-lumen/pkg/detection"
	"github.com/lumenlabs/go-lumen/pkg/sign"
)

// Mode selects which model combination the orchestrator runs per frame.
type Mode int

const (
	ModeDashboard Mode = iota
	ModeTranslation
	ModeDetection
	ModeSound
	ModeChat
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeDashboard:
		return "dashboard"
	case ModeTranslation:
		return "translation"
	case ModeDetection:
		return "detection"
	case ModeSound:
		return "sound"
	case ModeChat:
		return "chat"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a mode name. Unknown names return an error.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "dashboard":
		return ModeDashboard, nil
	case "translation":
		return ModeTranslation, nil
	case "detection":
		return ModeDetection, nil
	case "sound":
		return ModeSound, nil
	case "chat":
		return ModeChat, nil
	default:
		return ModeDashboard, fmt.Errorf("percept: unknown mode %q", s)
	}
}

// ResultKind discriminates the Result variant.
type ResultKind string

const (
	// KindSign: the frame went through the sign-recognition path.
	// Sign may still be nil when no stable sign has formed yet.
	KindSign ResultKind = "sign"

	// KindDetection: the frame went through object detection.
	KindDetection ResultKind = "detection"

	// KindSkipped: the frame was not processed. SkipReason says why.
	KindSkipped ResultKind = "skipped"

	// KindError: an adapter failed. Err carries the cause.
	KindError ResultKind = "error"
)

// SkipReason explains a skipped frame.
type SkipReason string

const (
	// SkipBusy: a previous ProcessFrame call was still in flight.
	SkipBusy SkipReason = "busy"

	// SkipThrottled: adaptive throttling dropped the frame to save power.
	SkipThrottled SkipReason = "throttled"

	// SkipDuplicate: the frame was perceptually identical to the last
	// processed one.
	SkipDuplicate SkipReason = "duplicate"

	// SkipModeInactive: the current mode runs no camera inference.
	SkipModeInactive SkipReason = "mode-inactive"
)

// Result is the tagged union returned for every frame. Kind selects which
// payload fields are meaningful; the rest are zero.
type Result struct {
	// ID uniquely identifies this result.
	ID string

	// Kind is the variant discriminant.
	Kind ResultKind

	// Mode is the pipeline mode the frame was processed under.
	Mode Mode

	// Sign is set for KindSign when a stable sign was produced.
	Sign *sign.StableSign

	// Detections is set for KindDetection.
	Detections []detection.Object

	// Alerts summarizes the alerting pass for KindDetection.
	Alerts alerting.Summary

	// SkipReason is set for KindSkipped.
	SkipReason SkipReason

	// Err is set for KindError.
	Err error

	// ProcessingTime is how long the frame took, zero for skips.
	ProcessingTime time.Duration

	// Timestamp is when the result was produced.
	Timestamp time.Time
}

// ErrString returns the error message, empty for non-error results.
// Used by transport layers that serialize results.
func (r Result) ErrString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// PerformanceSample records one processed frame's latency.
type PerformanceSample struct {
	Timestamp      time.Time
	ProcessingTime time.Duration
	Mode           Mode
}
