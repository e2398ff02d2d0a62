package battery

import (
	"context"
	"sync"
)

// Mock implements Monitor for testing with a settable level.
type Mock struct {
	mu    sync.Mutex
	level int
	err   error
}

// NewMock creates a mock at the given battery level.
func NewMock(level int) *Mock {
	return &Mock{level: level}
}

// Level returns the configured level or error.
func (m *Mock) Level(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.level, nil
}

// SetLevel updates the reported level.
func (m *Mock) SetLevel(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
}

// SetError makes Level fail with err until cleared with nil.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Verify Mock implements Monitor at compile time.
var _ Monitor = (*Mock)(nil)
