// Package speech defines the boundary to the device's text-to-speech engine.
//
// The engine itself lives outside this module; the pipeline only needs
// "enqueue this utterance with a priority and a spatial hint". The priority
// travels with the utterance so the engine can interrupt lower-priority
// speech for a critical alert; that interruption policy belongs to the
// engine, not to this package.
package speech

import (
	"context"
	"errors"
)

// ErrSinkClosed is returned when enqueueing to a closed sink.
var ErrSinkClosed = errors.New("speech: sink closed")

// Priority orders utterances. Higher values may interrupt lower ones.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// SpatialHint tells the engine where the subject is relative to the user,
// for spatial audio rendering or phrasing.
type SpatialHint int

const (
	SpatialCenter SpatialHint = iota
	SpatialLeft
	SpatialRight
)

// String returns the spoken form of the hint, empty for center.
func (h SpatialHint) String() string {
	switch h {
	case SpatialLeft:
		return "to your left"
	case SpatialRight:
		return "to your right"
	default:
		return ""
	}
}

// Utterance is a single unit of speech to deliver.
type Utterance struct {
	// Text is the sentence to speak.
	Text string

	// Priority controls queue ordering and interruption.
	Priority Priority

	// Spatial is where the subject is relative to the user.
	Spatial SpatialHint
}

// Sink accepts utterances for delivery. Implementations must be safe for
// concurrent use.
type Sink interface {
	// Enqueue submits an utterance. It must not block on playback.
	Enqueue(ctx context.Context, u Utterance) error

	// Close flushes and releases the sink.
	Close() error
}
