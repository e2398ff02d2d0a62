package speech

import (
	"context"
	"sort"
	"sync"

	"github.com/lumenlabs/go-lumen/internal/log"
)

// SynthesizeFunc hands a single utterance to the actual TTS engine.
// It runs on the dispatcher goroutine and may block for playback.
type SynthesizeFunc func(ctx context.Context, u Utterance) error

// Dispatcher is a Sink that drains a priority-ordered queue into a
// synthesize callback on a single background goroutine. Enqueue never
// blocks on playback; when the queue is full the lowest-priority pending
// utterance is evicted to make room.
type Dispatcher struct {
	synth SynthesizeFunc

	mu      sync.Mutex
	pending []Utterance
	closed  bool
	wake    chan struct{}
	done    chan struct{}

	maxPending int
}

// NewDispatcher starts a dispatcher over the given synthesize callback.
func NewDispatcher(synth SynthesizeFunc) *Dispatcher {
	d := &Dispatcher{
		synth:      synth,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		maxPending: 16,
	}
	go d.run()
	return d
}

// Enqueue adds an utterance to the queue, ordered by priority.
func (d *Dispatcher) Enqueue(ctx context.Context, u Utterance) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrSinkClosed
	}

	d.pending = append(d.pending, u)
	// Stable sort keeps arrival order within a priority class.
	sort.SliceStable(d.pending, func(i, j int) bool {
		return d.pending[i].Priority > d.pending[j].Priority
	})
	if len(d.pending) > d.maxPending {
		dropped := d.pending[len(d.pending)-1]
		d.pending = d.pending[:len(d.pending)-1]
		log.Debug("speech queue full, dropped utterance",
			"text", dropped.Text,
			"priority", dropped.Priority.String(),
		)
	}
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close stops the dispatcher. Pending utterances are discarded.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.pending = nil
	d.mu.Unlock()

	close(d.done)
	return nil
}

// run is the dispatcher goroutine: pop highest priority, synthesize, repeat.
func (d *Dispatcher) run() {
	ctx := context.Background()
	for {
		select {
		case <-d.done:
			return
		case <-d.wake:
		}

		for {
			d.mu.Lock()
			if d.closed || len(d.pending) == 0 {
				d.mu.Unlock()
				break
			}
			u := d.pending[0]
			d.pending = d.pending[1:]
			d.mu.Unlock()

			if err := d.synth(ctx, u); err != nil {
				log.Warn("speech synthesis failed",
					"text", u.Text,
					"error", err,
				)
			}
		}
	}
}

// Verify Dispatcher implements Sink at compile time.
var _ Sink = (*Dispatcher)(nil)
