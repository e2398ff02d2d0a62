package alerting_test

import (
	"context"
	"testing"
	"time"

	"github.com/lumenlabs/go-lumen/pkg/alerting"
	"github.com/lumenlabs/go-lumen/pkg/detection"
	"github.com/lumenlabs/go-lumen/pkg/speech"
)

type stepClock struct {
	t time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) now() time.Time       { return c.t }
func (c *stepClock) step(d time.Duration) { c.t = c.t.Add(d) }

func obj(label string, cx, distance float64) detection.Object {
	return detection.Object{
		Label:      label,
		Confidence: 0.9,
		Box:        detection.Box{X: cx - 0.05, Y: 0.4, W: 0.1, H: 0.2},
		Distance:   distance,
	}
}

func TestEngineDeduplication(t *testing.T) {
	ctx := context.Background()
	sink := speech.NewMock()
	clock := newStepClock()
	e := alerting.NewEngine(sink,
		alerting.WithCooldown(5*time.Second),
		alerting.WithClock(clock.now),
	)

	person := obj("person", 0.5, 1.0)

	// First detection speaks.
	s1 := e.Process(ctx, []detection.Object{person})
	if s1.Spoken != 1 || s1.Duplicates != 0 {
		t.Fatalf("first frame: %+v", s1)
	}

	// Same identity inside the cooldown is filtered.
	clock.step(2 * time.Second)
	s2 := e.Process(ctx, []detection.Object{person})
	if s2.Spoken != 0 || s2.Duplicates != 1 {
		t.Fatalf("second frame: %+v", s2)
	}

	// After cooldown expiry it speaks again.
	clock.step(4 * time.Second)
	s3 := e.Process(ctx, []detection.Object{person})
	if s3.Spoken != 1 {
		t.Fatalf("third frame: %+v", s3)
	}

	if sink.Count() != 2 {
		t.Errorf("expected 2 utterances total, got %d", sink.Count())
	}
	if e.TotalAlertsPlayed() != 2 {
		t.Errorf("expected 2 alerts played, got %d", e.TotalAlertsPlayed())
	}
	if e.DuplicatesFiltered() != 1 {
		t.Errorf("expected 1 duplicate filtered, got %d", e.DuplicatesFiltered())
	}
}

func TestEnginePriorityCap(t *testing.T) {
	ctx := context.Background()
	sink := speech.NewMock()
	e := alerting.NewEngine(sink, alerting.WithMaxPerFrame(3))

	frame := []detection.Object{
		obj("book", 0.2, 1.0),   // low
		obj("chair", 0.5, 1.0),  // medium
		obj("dog", 0.8, 1.0),    // high
		obj("person", 0.5, 2.0), // critical
	}

	summary := e.Process(ctx, frame)
	if summary.Spoken != 3 {
		t.Fatalf("expected 3 spoken, got %d", summary.Spoken)
	}
	if summary.Dropped != 1 {
		t.Fatalf("expected 1 dropped, got %d", summary.Dropped)
	}

	spoken := sink.Utterances()
	if spoken[0].Priority != speech.PriorityCritical {
		t.Errorf("expected critical first, got %v", spoken[0].Priority)
	}
	for _, u := range spoken {
		if u.Priority == speech.PriorityLow {
			t.Errorf("low-priority alert should have been dropped: %+v", u)
		}
	}
}

func TestEngineRanking(t *testing.T) {
	ctx := context.Background()
	sink := speech.NewMock()
	e := alerting.NewEngine(sink)

	// Two critical objects: the closer one must rank first.
	frame := []detection.Object{
		obj("car", 0.2, 4.0),
		obj("person", 0.8, 1.0),
	}
	e.Process(ctx, frame)

	spoken := sink.Utterances()
	if len(spoken) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(spoken))
	}
	if spoken[0].Spatial != speech.SpatialRight {
		t.Errorf("expected the closer person (right) first, got %+v", spoken[0])
	}
}

func TestEngineSpatialHints(t *testing.T) {
	ctx := context.Background()
	sink := speech.NewMock()
	e := alerting.NewEngine(sink)

	e.Process(ctx, []detection.Object{
		obj("person", 0.1, 0),
		obj("dog", 0.5, 0),
		obj("chair", 0.9, 0),
	})

	spoken := sink.Utterances()
	hints := map[string]speech.SpatialHint{}
	for _, u := range spoken {
		hints[u.Text] = u.Spatial
	}
	if hints["person to your left"] != speech.SpatialLeft {
		t.Errorf("missing left hint: %v", hints)
	}
	if hints["chair to your right"] != speech.SpatialRight {
		t.Errorf("missing right hint: %v", hints)
	}
	// Center objects get no positional phrase.
	if _, ok := hints["dog"]; !ok {
		t.Errorf("expected bare center phrase: %v", hints)
	}
}

func TestEngineDistancePhrasing(t *testing.T) {
	ctx := context.Background()
	sink := speech.NewMock()
	e := alerting.NewEngine(sink, alerting.WithDistanceSpoken(true))

	e.Process(ctx, []detection.Object{obj("person", 0.5, 1.0)})

	spoken := sink.Utterances()
	if len(spoken) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(spoken))
	}
	if spoken[0].Text != "person, close" {
		t.Errorf("unexpected phrase: %q", spoken[0].Text)
	}
}

func TestEngineSameLabelDifferentBuckets(t *testing.T) {
	ctx := context.Background()
	sink := speech.NewMock()
	e := alerting.NewEngine(sink)

	// Two people on opposite sides are distinct identities.
	summary := e.Process(ctx, []detection.Object{
		obj("person", 0.1, 1.0),
		obj("person", 0.9, 1.0),
	})
	if summary.Spoken != 2 {
		t.Errorf("expected 2 spoken for distinct buckets, got %d", summary.Spoken)
	}
}

func TestEngineReset(t *testing.T) {
	ctx := context.Background()
	sink := speech.NewMock()
	clock := newStepClock()
	e := alerting.NewEngine(sink, alerting.WithClock(clock.now))

	person := obj("person", 0.5, 1.0)
	e.Process(ctx, []detection.Object{person})
	e.Reset()

	// Cooldown table is gone; counters persist.
	summary := e.Process(ctx, []detection.Object{person})
	if summary.Spoken != 1 {
		t.Errorf("expected alert after reset, got %+v", summary)
	}
	if e.TotalAlertsPlayed() != 2 {
		t.Errorf("expected counters to persist, got %d", e.TotalAlertsPlayed())
	}
}

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		label string
		want  speech.Priority
	}{
		{"person", speech.PriorityCritical},
		{"CAR", speech.PriorityCritical},
		{"dog", speech.PriorityHigh},
		{"chair", speech.PriorityMedium},
		{"banana", speech.PriorityLow},
		{"never-seen-label", speech.PriorityLow},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := alerting.PriorityFor(tt.label); got != tt.want {
				t.Errorf("PriorityFor(%s) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}
