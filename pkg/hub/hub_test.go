package hub

import (
	"testing"
	"time"
)

// testClient registers a client without a live websocket connection. The
// pumps never run, so the send channel can be inspected directly.
func testClient(t *testing.T, h *Hub) *Client {
	t.Helper()
	c := NewClient(h, nil)
	waitFor(t, func() bool { return h.ClientCount() > 0 })
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met within 1s")
}

func TestBroadcastReachesClients(t *testing.T) {
	h := New("results")
	go h.Run()
	defer h.Stop()

	c := testClient(t, h)

	if err := h.BroadcastJSON(map[string]string{"mode": "translation"}); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-c.send:
		if msg.Type != JSONMessage {
			t.Errorf("expected JSON message, got %d", msg.Type)
		}
		if string(msg.Data) != `{"mode":"translation"}` {
			t.Errorf("unexpected payload: %s", msg.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never arrived")
	}
}

func TestBinaryBroadcast(t *testing.T) {
	h := New("frames")
	go h.Run()
	defer h.Stop()

	c := testClient(t, h)
	h.BroadcastBinary([]byte{0xff, 0xd8})

	select {
	case msg := <-c.send:
		if msg.Type != BinaryMessage {
			t.Errorf("expected binary message, got %d", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never arrived")
	}
}

func TestSlowClientDropped(t *testing.T) {
	h := New("results")
	go h.Run()
	defer h.Stop()

	testClient(t, h)

	// Fill the client buffer past capacity without draining it.
	for i := 0; i < 300; i++ {
		h.Broadcast(NewBinaryMessage([]byte{1}))
	}
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestStopDisconnectsClients(t *testing.T) {
	h := New("results")
	go h.Run()

	c := testClient(t, h)
	h.Stop()

	waitFor(t, func() bool { return !h.IsRunning() })
	if h.ClientCount() != 0 {
		t.Errorf("expected all clients dropped on stop, got %d", h.ClientCount())
	}
	// The send channel is closed so the write pump exits.
	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected send channel closed")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel never closed")
	}
}
