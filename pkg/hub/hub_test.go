package hub

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBroadcastWithoutRun(t *testing.T) {
	h := New("idle", nil)
	if h.Name() != "idle" {
		t.Errorf("Name = %q", h.Name())
	}

	// The queue holds 256 messages; the rest are dropped.
	for range 300 {
		h.Broadcast(NewJSONMessage([]byte(`{}`)))
	}
	if h.Dropped() != 44 {
		t.Errorf("Dropped = %d, want 44", h.Dropped())
	}
	if err := h.BroadcastJSON(func() {}); err == nil {
		t.Error("BroadcastJSON should fail for values that cannot be encoded")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := New("stop", nil)
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()
	waitFor(t, h.IsRunning)

	h.Stop()
	h.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	if h.IsRunning() {
		t.Error("IsRunning should be false after Stop")
	}
}

func TestClientReceivesBroadcast(t *testing.T) {
	h := New("status", nil)
	go h.Run()
	t.Cleanup(h.Stop)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws/status", h.Handler())
	go app.Listen(":18185")
	t.Cleanup(func() { app.Shutdown() })
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18185/ws/status", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	waitFor(t, func() bool { return h.ClientCount() == 1 })

	if err := h.BroadcastJSON(map[string]int{"fps": 60}); err != nil {
		t.Fatal(err)
	}
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if kind != websocket.TextMessage || string(data) != `{"fps":60}` {
		t.Errorf("got %d %s", kind, data)
	}

	h.BroadcastBinary([]byte{0x89, 'P', 'N', 'G'})
	kind, data, err = ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if kind != websocket.BinaryMessage || len(data) != 4 {
		t.Errorf("binary message = %d %v", kind, data)
	}

	ws.Close()
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestKeepLatestReplaysToNewViewer(t *testing.T) {
	h := New("overlay", nil).KeepLatest()
	go h.Run()
	t.Cleanup(h.Stop)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws/overlay", h.Handler())
	go app.Listen(":18188")
	t.Cleanup(func() { app.Shutdown() })
	time.Sleep(100 * time.Millisecond)

	// Broadcast before anyone is watching.
	if err := h.BroadcastJSON(map[string]bool{"enabled": false}); err != nil {
		t.Fatal(err)
	}
	if err := h.BroadcastJSON(map[string]bool{"enabled": true}); err != nil {
		t.Fatal(err)
	}

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18188/ws/overlay", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if string(data) != `{"enabled":true}` {
		t.Errorf("replayed %s, want the latest state", data)
	}
}

func TestStopClosesViewers(t *testing.T) {
	h := New("logs", nil)
	go h.Run()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws/logs", h.Handler())
	go app.Listen(":18189")
	t.Cleanup(func() { app.Shutdown() })
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18189/ws/logs", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	h.Stop()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = ws.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("err = %v, want close 1001", err)
	}
	if ce, ok := err.(*websocket.CloseError); ok && ce.Text != "logs stream closed" {
		t.Errorf("close text = %q", ce.Text)
	}
}
