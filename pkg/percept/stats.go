package percept

import (
	"sync"
	"time"
)

// stats tracks pipeline throughput and latency. It has its own lock so
// dashboard reads never contend with an in-flight inference.
type stats struct {
	mu sync.Mutex

	// Rolling latency window, oldest evicted first.
	samples []PerformanceSample
	window  int

	totalFrames int64
	perMode     map[Mode]int64
	skipped     map[SkipReason]int64
	errorFrames int64
}

func newStats(window int) *stats {
	if window < 1 {
		window = DefaultPerformanceWindow
	}
	return &stats{
		samples: make([]PerformanceSample, 0, window),
		window:  window,
		perMode: make(map[Mode]int64),
		skipped: make(map[SkipReason]int64),
	}
}

// record adds one processed frame's sample.
func (s *stats) record(sample PerformanceSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = append(s.samples, sample)
	if len(s.samples) > s.window {
		s.samples = s.samples[1:]
	}
	s.totalFrames++
	s.perMode[sample.Mode]++
}

// recordSkip counts a dropped frame by reason.
func (s *stats) recordSkip(reason SkipReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped[reason]++
}

// recordError counts a frame that ended in an adapter failure.
func (s *stats) recordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorFrames++
}

// averageProcessing returns the rolling mean latency over the window.
func (s *stats) averageProcessing() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.samples) == 0 {
		return 0
	}
	var sum time.Duration
	for _, sample := range s.samples {
		sum += sample.ProcessingTime
	}
	return sum / time.Duration(len(s.samples))
}

// estimatedFPS derives a frame rate from the rolling window timestamps.
func (s *stats) estimatedFPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.samples) < 2 {
		return 0
	}
	span := s.samples[len(s.samples)-1].Timestamp.Sub(s.samples[0].Timestamp)
	if span <= 0 {
		return 0
	}
	return float64(len(s.samples)-1) / span.Seconds()
}

// snapshot returns countable stats for the metrics map.
func (s *stats) snapshot() (total int64, perMode map[Mode]int64, skipped map[SkipReason]int64, errorFrames int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	perMode = make(map[Mode]int64, len(s.perMode))
	for k, v := range s.perMode {
		perMode[k] = v
	}
	skipped = make(map[SkipReason]int64, len(s.skipped))
	for k, v := range s.skipped {
		skipped[k] = v
	}
	return s.totalFrames, perMode, skipped, s.errorFrames
}

// resultRing is the bounded history of non-skipped results. Readers get
// copies; the ring is never exposed under mutation.
type resultRing struct {
	mu      sync.Mutex
	results []Result
	cap     int
}

func newResultRing(capacity int) *resultRing {
	if capacity < 1 {
		capacity = DefaultResultHistory
	}
	return &resultRing{
		results: make([]Result, 0, capacity),
		cap:     capacity,
	}
}

// append adds a result, evicting the oldest past capacity.
func (r *resultRing) append(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	if len(r.results) > r.cap {
		r.results = r.results[1:]
	}
}

// recent returns the last n results, most recent first.
func (r *resultRing) recent(n int) []Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || n > len(r.results) {
		n = len(r.results)
	}
	out := make([]Result, n)
	for i := 0; i < n; i++ {
		out[i] = r.results[len(r.results)-1-i]
	}
	return out
}

// len returns the number of stored results.
func (r *resultRing) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}
