package speech

import (
	"context"
	"sync"
)

// Mock implements Sink for testing. Enqueued utterances are recorded for
// verification; EnqueueFunc can override behavior.
type Mock struct {
	// EnqueueFunc is called when Enqueue is invoked.
	// If nil, the utterance is only recorded.
	EnqueueFunc func(ctx context.Context, u Utterance) error

	mu         sync.Mutex
	utterances []Utterance
}

// NewMock creates a recording mock sink.
func NewMock() *Mock {
	return &Mock{}
}

// WithError returns a mock whose Enqueue always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		EnqueueFunc: func(ctx context.Context, u Utterance) error {
			return err
		},
	}
}

// Enqueue records the utterance and calls EnqueueFunc if set.
func (m *Mock) Enqueue(ctx context.Context, u Utterance) error {
	m.mu.Lock()
	m.utterances = append(m.utterances, u)
	m.mu.Unlock()
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, u)
	}
	return nil
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// Utterances returns all recorded utterances.
func (m *Mock) Utterances() []Utterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Utterance, len(m.utterances))
	copy(out, m.utterances)
	return out
}

// Count returns the number of enqueued utterances.
func (m *Mock) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.utterances)
}

// Reset clears recorded utterances.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.utterances = nil
}

// Verify Mock implements Sink at compile time.
var _ Sink = (*Mock)(nil)
