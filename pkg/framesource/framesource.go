// Package framesource receives camera frames from the capture daemon.
//
// The daemon pushes JPEG frames as binary websocket messages. The client
// keeps only the most recent frame: the perception pipeline processes at
// most one frame at a time, so an older frame is worthless the moment a
// newer one arrives.
package framesource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumenlabs/go-lumen/internal/log"
	"github.com/lumenlabs/go-lumen/pkg/retry"
)

// ErrNoFrame is returned by Latest before the first frame arrives.
var ErrNoFrame = errors.New("framesource: no frame available")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("framesource: closed")

const (
	handshakeTimeout = 10 * time.Second
	readLimit        = 4 * 1024 * 1024
	staleAfter       = 2 * time.Second
)

// Client streams frames from the capture daemon over websocket and
// reconnects with backoff when the stream drops.
type Client struct {
	url    string
	dialer websocket.Dialer
	policy retry.Policy

	mu       sync.RWMutex
	latest   []byte
	latestAt time.Time
	closed   bool

	// frames delivers fresh frames; the oldest is dropped when the
	// consumer lags.
	frames chan []byte
}

// Option configures the client.
type Option func(*Client)

// WithRetryPolicy overrides the reconnect backoff.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient creates a frame stream client for the given websocket URL,
// e.g. ws://127.0.0.1:8765/frames.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:    url,
		dialer: websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		policy: retry.DefaultPolicy(),
		frames: make(chan []byte, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run connects and streams frames until the context is canceled or the
// client is closed. Dropped connections are redialed with backoff; the
// backoff resets after every successful connection.
func (c *Client) Run(ctx context.Context) error {
	logger := log.Component("framesource")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.isClosed() {
			return ErrClosed
		}

		conn, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*websocket.Conn, error) {
			conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
			if err != nil {
				return nil, fmt.Errorf("dial %s: %w", c.url, err)
			}
			return conn, nil
		})
		if err != nil {
			return fmt.Errorf("framesource: connect: %w", err)
		}
		logger.Info("connected", "url", c.url)

		err = c.readLoop(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if c.isClosed() {
			return ErrClosed
		}
		logger.Warn("stream dropped, reconnecting", "error", err)
	}
}

// readLoop consumes binary frames until the connection fails.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(readLimit)

	// Unblock ReadMessage on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		c.publish(data)
	}
}

// publish stores the frame and offers it on the channel, displacing a
// stale undelivered frame.
func (c *Client) publish(frame []byte) {
	c.mu.Lock()
	c.latest = frame
	c.latestAt = time.Now()
	c.mu.Unlock()

	select {
	case c.frames <- frame:
	default:
		select {
		case <-c.frames:
		default:
		}
		select {
		case c.frames <- frame:
		default:
		}
	}
}

// Frames returns the channel of incoming frames. Only the most recent
// undelivered frame is retained.
func (c *Client) Frames() <-chan []byte {
	return c.frames
}

// Latest returns a copy of the most recent frame. Frames older than the
// staleness bound are treated as missing; serving a seconds-old frame to
// the detector would alert on objects that are no longer there.
func (c *Client) Latest() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.latest == nil || time.Since(c.latestAt) > staleAfter {
		return nil, ErrNoFrame
	}
	frame := make([]byte, len(c.latest))
	copy(frame, c.latest)
	return frame, nil
}

// Close stops the client. Run returns ErrClosed after its current
// connection drops.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
