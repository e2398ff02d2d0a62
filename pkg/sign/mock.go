package sign

import (
	"context"
	"sync"
)

// MockFramePredictor implements FramePredictor for testing.
// Behavior is customized via function fields; calls are tracked.
type MockFramePredictor struct {
	// PredictFunc is called when Predict is invoked.
	// If nil, returns (nil, nil), below the confidence floor.
	PredictFunc func(ctx context.Context, jpeg []byte) (*Prediction, error)

	mu    sync.Mutex
	calls int
}

// Predict calls PredictFunc and records the call.
func (m *MockFramePredictor) Predict(ctx context.Context, jpeg []byte) (*Prediction, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, jpeg)
	}
	return nil, nil
}

// Close is a no-op.
func (m *MockFramePredictor) Close() error { return nil }

// Calls returns how many times Predict was invoked.
func (m *MockFramePredictor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ScriptedFramePredictor returns a mock that replays the given predictions
// in order, then repeats the last one.
func ScriptedFramePredictor(script ...Prediction) *MockFramePredictor {
	var mu sync.Mutex
	i := 0
	return &MockFramePredictor{
		PredictFunc: func(ctx context.Context, jpeg []byte) (*Prediction, error) {
			mu.Lock()
			defer mu.Unlock()
			if len(script) == 0 {
				return nil, nil
			}
			p := script[i]
			if i < len(script)-1 {
				i++
			}
			return &p, nil
		},
	}
}

// MockSequencePredictor implements SequencePredictor for testing.
type MockSequencePredictor struct {
	// PredictFunc is called when Predict is invoked.
	// If nil, returns (nil, nil), an inconclusive window.
	PredictFunc func(ctx context.Context, window []WindowEntry) (*StableSign, error)

	mu      sync.Mutex
	calls   int
	windows []int // lengths of windows received
}

// Predict calls PredictFunc and records the call.
func (m *MockSequencePredictor) Predict(ctx context.Context, window []WindowEntry) (*StableSign, error) {
	m.mu.Lock()
	m.calls++
	m.windows = append(m.windows, len(window))
	m.mu.Unlock()
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, window)
	}
	return nil, nil
}

// Close is a no-op.
func (m *MockSequencePredictor) Close() error { return nil }

// Calls returns how many times Predict was invoked.
func (m *MockSequencePredictor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// WindowLens returns the lengths of windows received, in order.
func (m *MockSequencePredictor) WindowLens() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.windows))
	copy(out, m.windows)
	return out
}

// Verify mocks satisfy the interfaces at compile time.
var (
	_ FramePredictor    = (*MockFramePredictor)(nil)
	_ SequencePredictor = (*MockSequencePredictor)(nil)
)
