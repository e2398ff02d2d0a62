package detection

import (
	"sync"
)

// Mock implements Detector for testing.
// Behavior is customized via the DetectFunc field; calls are tracked.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	// If nil, returns no objects.
	DetectFunc func(jpeg []byte) ([]Object, error)

	mu    sync.Mutex
	calls int
}

// NewMock creates a mock that returns the given objects on every frame.
func NewMock(objects ...Object) *Mock {
	return &Mock{
		DetectFunc: func(jpeg []byte) ([]Object, error) {
			out := make([]Object, len(objects))
			copy(out, objects)
			return out, nil
		},
	}
}

// WithError returns a mock that always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		DetectFunc: func(jpeg []byte) ([]Object, error) {
			return nil, err
		},
	}
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(jpeg []byte) ([]Object, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.DetectFunc != nil {
		return m.DetectFunc(jpeg)
	}
	return nil, nil
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// Calls returns how many times Detect was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Verify Mock implements Detector at compile time.
var _ Detector = (*Mock)(nil)
