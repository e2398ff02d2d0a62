package framesource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumenlabs/go-lumen/pkg/retry"
)

var upgrader = websocket.Upgrader{}

// frameServer serves each handler invocation one websocket connection.
func frameServer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func fastPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.InitialDelay = time.Millisecond
	p.MaxDelay = 5 * time.Millisecond
	return p
}

func TestReceivesFrames(t *testing.T) {
	url := frameServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.BinaryMessage, []byte("frame-1"))
		conn.WriteMessage(websocket.BinaryMessage, []byte("frame-2"))
		// Hold the connection open until the client goes away.
		conn.ReadMessage()
	})

	c := NewClient(url, WithRetryPolicy(fastPolicy()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	select {
	case frame := <-c.Frames():
		if string(frame) != "frame-1" && string(frame) != "frame-2" {
			t.Fatalf("unexpected frame: %q", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if frame, err := c.Latest(); err == nil {
			if len(frame) == 0 {
				t.Fatal("empty latest frame")
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Latest never returned a frame")
}

func TestLatestBeforeFirstFrame(t *testing.T) {
	c := NewClient("ws://127.0.0.1:0/frames")
	if _, err := c.Latest(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", err)
	}
}

func TestLatestReturnsCopy(t *testing.T) {
	c := NewClient("ws://unused")
	c.publish([]byte("abc"))

	frame, err := c.Latest()
	if err != nil {
		t.Fatal(err)
	}
	frame[0] = 'x'

	again, err := c.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != "abc" {
		t.Errorf("Latest must return an isolated copy, got %q", again)
	}
}

func TestLagDropsOldFrames(t *testing.T) {
	c := NewClient("ws://unused")
	c.publish([]byte("old"))
	c.publish([]byte("new"))

	select {
	case frame := <-c.Frames():
		if string(frame) != "new" {
			t.Errorf("expected the newest frame, got %q", frame)
		}
	default:
		t.Fatal("expected a buffered frame")
	}
}

func TestTextMessagesIgnored(t *testing.T) {
	url := frameServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"ok"}`))
		conn.WriteMessage(websocket.BinaryMessage, []byte("real-frame"))
		conn.ReadMessage()
	})

	c := NewClient(url, WithRetryPolicy(fastPolicy()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	select {
	case frame := <-c.Frames():
		if string(frame) != "real-frame" {
			t.Errorf("text message leaked through: %q", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestReconnectAfterDrop(t *testing.T) {
	conns := 0
	url := frameServer(t, func(conn *websocket.Conn) {
		conns++
		if conns == 1 {
			conn.WriteMessage(websocket.BinaryMessage, []byte("before-drop"))
			return // Handler returns, connection closes.
		}
		conn.WriteMessage(websocket.BinaryMessage, []byte("after-reconnect"))
		conn.ReadMessage()
	})

	c := NewClient(url, WithRetryPolicy(fastPolicy()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	var got []string
	deadline := time.Now().Add(3 * time.Second)
	for len(got) < 2 && time.Now().Before(deadline) {
		select {
		case frame := <-c.Frames():
			got = append(got, string(frame))
		case <-time.After(100 * time.Millisecond):
		}
	}
	if len(got) < 2 || got[len(got)-1] != "after-reconnect" {
		t.Fatalf("expected frames across a reconnect, got %v", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	url := frameServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})

	c := NewClient(url, WithRetryPolicy(fastPolicy()))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestRunAfterClose(t *testing.T) {
	c := NewClient("ws://unused")
	c.Close()
	if err := c.Run(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := c.Latest(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Latest, got %v", err)
	}
}
