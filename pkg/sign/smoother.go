package sign

import (
	"time"
)

// Smoother defaults.
const (
	DefaultWindowSize          = 5
	DefaultConfidenceThreshold = 0.85
)

// Smoother stabilizes jittery per-frame predictions into static signs.
//
// It keeps a sliding window of the last W predictions. A sign is emitted
// only when the window is full, one label holds the majority of the window,
// and the mean confidence of the matching entries clears the configured
// threshold. The emitted confidence is that mean, which suppresses
// single-frame confidence spikes. The window is cleared after emission, so
// a held sign produces exactly one StableSign per complete window.
//
// Smoother is not goroutine-safe; the orchestrator serializes access.
type Smoother struct {
	window     []Prediction
	windowSize int
	threshold  float64

	now func() time.Time
}

// NewSmoother creates a smoother with the given window size and confidence
// threshold. Values outside their valid range fall back to defaults.
func NewSmoother(windowSize int, threshold float64) *Smoother {
	if windowSize < 1 {
		windowSize = DefaultWindowSize
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultConfidenceThreshold
	}
	return &Smoother{
		window:     make([]Prediction, 0, windowSize),
		windowSize: windowSize,
		threshold:  threshold,
		now:        time.Now,
	}
}

// SetThreshold updates the confidence threshold for future windows.
func (s *Smoother) SetThreshold(threshold float64) {
	if threshold > 0 && threshold <= 1 {
		s.threshold = threshold
	}
}

// Observe pushes a prediction into the window and returns a StableSign if
// the window stabilized, or nil when there is no sign yet.
func (s *Smoother) Observe(p Prediction) *StableSign {
	s.window = append(s.window, p)
	if len(s.window) > s.windowSize {
		s.window = s.window[1:]
	}
	if len(s.window) < s.windowSize {
		return nil
	}

	label, count := s.majority()
	if count*2 <= s.windowSize {
		return nil
	}

	// Mean confidence over entries matching the majority label.
	var sum float64
	for _, entry := range s.window {
		if entry.Label == label {
			sum += entry.Confidence
		}
	}
	mean := sum / float64(count)
	if mean < s.threshold {
		return nil
	}

	s.Reset()
	return &StableSign{
		Label:      label,
		Confidence: mean,
		Kind:       Static,
		ProducedAt: s.now(),
	}
}

// majority returns the most frequent label in the window and its count.
func (s *Smoother) majority() (string, int) {
	counts := make(map[string]int, len(s.window))
	var best string
	var bestCount int
	for _, entry := range s.window {
		counts[entry.Label]++
		if counts[entry.Label] > bestCount {
			best = entry.Label
			bestCount = counts[entry.Label]
		}
	}
	return best, bestCount
}

// Reset clears the window. Called on every mode switch.
func (s *Smoother) Reset() {
	s.window = s.window[:0]
}

// WindowLen returns the current number of buffered predictions.
func (s *Smoother) WindowLen() int {
	return len(s.window)
}
