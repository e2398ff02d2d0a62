// Package alerting turns per-frame object detections into a bounded,
// non-spammy stream of spoken alerts.
//
// Detections arrive dozens of times per second; a user can absorb a few
// utterances per minute. The engine ranks detections by urgency, caps how
// many speak per frame, and suppresses repeats of the same object identity
// within a cooldown window.
package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/lumenlabs/go-lumen/pkg/detection"
	"github.com/lumenlabs/go-lumen/pkg/speech"
)

// Engine defaults.
const (
	DefaultCooldown      = 5 * time.Second
	DefaultMaxPerFrame   = 3
	DefaultSpeakDistance = true
)

// identity keys the cooldown table: same label in the same coarse spatial
// bucket is treated as the same object. Bucket boundaries are a tuning
// choice, not a hard contract; an object drifting across a boundary may
// alert once per bucket.
type identity struct {
	label  string
	bucket speech.SpatialHint
}

// record tracks when an identity last spoke.
type record struct {
	lastSpokenAt  time.Time
	cooldownUntil time.Time
}

// Summary reports what one detection frame produced.
type Summary struct {
	// Spoken is how many utterances were enqueued.
	Spoken int

	// Duplicates is how many candidates were filtered by cooldown.
	Duplicates int

	// Dropped is how many detections fell below the per-frame cap.
	Dropped int
}

// Engine converts detection frames into prioritized spoken alerts.
// Process is expected to be called from a single goroutine (the
// orchestrator's at-most-one-in-flight invariant); the internal mutex only
// guards counter reads from other goroutines.
type Engine struct {
	sink speech.Sink

	cooldown      time.Duration
	maxPerFrame   int
	speakDistance bool

	mu      sync.Mutex
	records map[identity]*record

	totalAlertsPlayed  int64
	duplicatesFiltered int64

	logger *slog.Logger
	now    func() time.Time
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithCooldown sets the per-identity cooldown duration.
func WithCooldown(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.cooldown = d
		}
	}
}

// WithMaxPerFrame caps the number of alerts per detection frame.
func WithMaxPerFrame(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxPerFrame = n
		}
	}
}

// WithDistanceSpoken controls whether utterances include the distance.
func WithDistanceSpoken(enabled bool) EngineOption {
	return func(e *Engine) {
		e.speakDistance = enabled
	}
}

// WithClock overrides the engine clock. Tests use this to step through
// cooldown expiry deterministically.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an alert engine over the given speech sink.
func NewEngine(sink speech.Sink, opts ...EngineOption) *Engine {
	e := &Engine{
		sink:          sink,
		cooldown:      DefaultCooldown,
		maxPerFrame:   DefaultMaxPerFrame,
		speakDistance: DefaultSpeakDistance,
		records:       make(map[identity]*record),
		logger:        slog.Default().With("component", "alerting"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process ranks one frame's detections, dedups them against the cooldown
// table, and enqueues utterances for the survivors.
func (e *Engine) Process(ctx context.Context, objects []detection.Object) Summary {
	var summary Summary
	if len(objects) == 0 {
		return summary
	}

	ranked := make([]detection.Object, len(objects))
	copy(ranked, objects)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := PriorityFor(ranked[i].Label), PriorityFor(ranked[j].Label)
		if pi != pj {
			return pi > pj
		}
		// Unknown distance (0) sorts last within a priority class.
		di, dj := ranked[i].Distance, ranked[j].Distance
		if di == 0 {
			return false
		}
		if dj == 0 {
			return true
		}
		return di < dj
	})

	if len(ranked) > e.maxPerFrame {
		// Excess detections are dropped for this frame, never queued.
		summary.Dropped = len(ranked) - e.maxPerFrame
		ranked = ranked[:e.maxPerFrame]
	}

	now := e.now()
	for _, obj := range ranked {
		id := identity{
			label:  normalizeLabel(obj.Label),
			bucket: spatialBucket(obj.Box),
		}

		e.mu.Lock()
		rec, seen := e.records[id]
		if seen && now.Before(rec.cooldownUntil) {
			e.duplicatesFiltered++
			e.mu.Unlock()
			summary.Duplicates++
			continue
		}
		if rec == nil {
			rec = &record{}
			e.records[id] = rec
		}
		rec.lastSpokenAt = now
		rec.cooldownUntil = now.Add(e.cooldown)
		e.totalAlertsPlayed++
		e.mu.Unlock()

		u := speech.Utterance{
			Text:     e.phrase(obj, id.bucket),
			Priority: PriorityFor(obj.Label),
			Spatial:  id.bucket,
		}
		if err := e.sink.Enqueue(ctx, u); err != nil {
			e.logger.Warn("alert enqueue failed",
				"label", obj.Label,
				"error", err,
			)
			continue
		}
		summary.Spoken++
	}

	return summary
}

// phrase builds the spoken sentence for a detection.
func (e *Engine) phrase(obj detection.Object, bucket speech.SpatialHint) string {
	text := normalizeLabel(obj.Label)
	if hint := bucket.String(); hint != "" {
		text = fmt.Sprintf("%s %s", text, hint)
	}
	if e.speakDistance && obj.Distance > 0 {
		text = fmt.Sprintf("%s, %s", text, detection.DistanceCategory(obj.Distance))
	}
	return text
}

// spatialBucket maps a bounding box's horizontal center to a coarse
// left/center/right bucket.
func spatialBucket(box detection.Box) speech.SpatialHint {
	cx, _ := box.Center()
	switch {
	case cx < 1.0/3.0:
		return speech.SpatialLeft
	case cx > 2.0/3.0:
		return speech.SpatialRight
	default:
		return speech.SpatialCenter
	}
}

// TotalAlertsPlayed returns how many alerts have been spoken.
func (e *Engine) TotalAlertsPlayed() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalAlertsPlayed
}

// DuplicatesFiltered returns how many candidates were cooldown-filtered.
func (e *Engine) DuplicatesFiltered() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duplicatesFiltered
}

// Reset clears the cooldown table. Counters persist.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = make(map[identity]*record)
}
