package sign_test

import (
	"testing"
	"time"

	"github.com/lumenlabs/go-lumen/pkg/sign"
)

// fakeClock advances manually.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSequenceBuffer(t *testing.T) {
	frame := []byte{0xff, 0xd8}

	t.Run("length trigger", func(t *testing.T) {
		b := sign.NewSequenceBuffer(30, 2*time.Second)
		clock := newFakeClock()
		b.SetClock(clock.now)

		for i := 0; i < 29; i++ {
			if b.Add(frame, pred("A", 0.9)) {
				t.Fatalf("ready at frame %d, expected 30", i+1)
			}
			clock.advance(33 * time.Millisecond) // ~30 FPS
		}
		if b.State() != sign.StateFilling {
			t.Errorf("expected filling, got %s", b.State())
		}
		if !b.Add(frame, pred("A", 0.9)) {
			t.Fatal("expected ready at frame 30")
		}
		if b.State() != sign.StateReady {
			t.Errorf("expected ready, got %s", b.State())
		}

		snapshot := b.Snapshot()
		if len(snapshot) != 30 {
			t.Errorf("expected 30 entries, got %d", len(snapshot))
		}

		b.Reset()
		if b.State() != sign.StateEmpty || b.Len() != 0 {
			t.Errorf("expected empty after reset, got %s len %d", b.State(), b.Len())
		}
	})

	t.Run("time trigger on frame-rate drop", func(t *testing.T) {
		b := sign.NewSequenceBuffer(30, 2*time.Second)
		clock := newFakeClock()
		b.SetClock(clock.now)

		// 5 FPS: only 10 frames fit in the 2s window.
		ready := false
		frames := 0
		for i := 0; i < 11 && !ready; i++ {
			ready = b.Add(frame, pred("A", 0.9))
			frames++
			clock.advance(200 * time.Millisecond)
		}
		if !ready {
			t.Fatal("expected time trigger to fire")
		}
		if frames >= 30 {
			t.Errorf("time trigger should fire before 30 frames, got %d", frames)
		}
	})

	t.Run("stays filling under both thresholds", func(t *testing.T) {
		b := sign.NewSequenceBuffer(30, 2*time.Second)
		clock := newFakeClock()
		b.SetClock(clock.now)

		for i := 0; i < 20; i++ {
			if b.Add(frame, pred("A", 0.9)) {
				t.Fatalf("unexpected ready at frame %d", i+1)
			}
			clock.advance(50 * time.Millisecond) // 20 frames in 1s
		}
		if b.State() != sign.StateFilling {
			t.Errorf("expected filling, got %s", b.State())
		}
	})

	t.Run("windows do not overlap", func(t *testing.T) {
		b := sign.NewSequenceBuffer(3, time.Minute)
		clock := newFakeClock()
		b.SetClock(clock.now)

		for i := 0; i < 3; i++ {
			b.Add(frame, pred("A", 0.9))
		}
		b.Reset()

		// The next window starts from scratch.
		if b.Add(frame, pred("B", 0.9)) {
			t.Error("expected fresh window to not be ready after one frame")
		}
		if b.Len() != 1 {
			t.Errorf("expected 1 entry, got %d", b.Len())
		}
	})

	t.Run("hard cap drops oldest", func(t *testing.T) {
		b := sign.NewSequenceBuffer(4, time.Minute)
		clock := newFakeClock()
		b.SetClock(clock.now)

		labels := []string{"A", "B", "C", "D", "E", "F", "G"}
		for _, l := range labels {
			b.Add(frame, pred(l, 0.9))
		}
		// Cap for sequenceLength 4 is 6; the oldest entry was dropped.
		if b.Len() > 6 {
			t.Errorf("buffer exceeded cap: %d", b.Len())
		}
		snapshot := b.Snapshot()
		if snapshot[0].Prediction.Label == "A" {
			t.Error("expected oldest entry dropped at cap")
		}
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		b := sign.NewSequenceBuffer(3, time.Minute)
		b.Add(frame, pred("A", 0.9))
		snapshot := b.Snapshot()
		b.Reset()
		if len(snapshot) != 1 || snapshot[0].Prediction.Label != "A" {
			t.Error("snapshot invalidated by reset")
		}
	})
}
