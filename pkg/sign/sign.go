// Package sign turns noisy per-frame model predictions into stable
// sign-language tokens.
//
// Two recognition paths feed it: a per-frame CNN classifier for static signs
// (letters, digits) and a sequence model for dynamic signs (motion-based
// gestures). Raw per-frame predictions jitter, so the package stabilizes
// them before anything is surfaced to the user: the Smoother majority-votes
// a short sliding window of CNN output, and the SequenceBuffer accumulates a
// fixed temporal window before the sequence model is consulted at all.
package sign

import (
	"context"
	"time"
)

// Prediction is a single raw model output for one frame.
// Predictions are immutable and consumed once.
type Prediction struct {
	// Label is the predicted sign token (e.g. "A", "HELLO").
	Label string

	// Confidence is the model's confidence in [0, 1].
	Confidence float64

	// Timestamp is when the source frame was captured.
	Timestamp time.Time
}

// Kind distinguishes how a stable sign was recognized.
type Kind string

const (
	// Static signs are recognized frame-by-frame (letters, digits).
	Static Kind = "static"

	// Dynamic signs are recognized from a temporal window of frames.
	Dynamic Kind = "dynamic"
)

// StableSign is a sign token that survived temporal stabilization.
type StableSign struct {
	// Label is the recognized token or mapped phrase.
	Label string

	// Confidence is aggregated over the window that produced the sign,
	// not a single-frame peak.
	Confidence float64

	// Kind records which recognition path produced the sign.
	Kind Kind

	// ProducedAt is when stabilization completed.
	ProducedAt time.Time
}

// FramePredictor is the per-frame classifier capability (CNN).
// Implementations may return (nil, nil) when the frame is below their own
// internal confidence floor.
type FramePredictor interface {
	// Predict classifies a single JPEG frame.
	Predict(ctx context.Context, jpeg []byte) (*Prediction, error)

	// Close releases model resources.
	Close() error
}

// WindowEntry pairs a frame with the prediction made on it.
type WindowEntry struct {
	JPEG       []byte
	Prediction Prediction
}

// SequencePredictor is the temporal-window classifier capability (LSTM).
// Implementations may return (nil, nil) when the window is inconclusive.
type SequencePredictor interface {
	// Predict classifies a complete temporal window.
	Predict(ctx context.Context, window []WindowEntry) (*StableSign, error)

	// Close releases model resources.
	Close() error
}
