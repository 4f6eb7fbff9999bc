package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/klondike/game/engine"
)

func testState(t *testing.T) *engine.GameState {
	t.Helper()
	eng, err := engine.NewEngine(&engine.GameConfig{
		Name:        "hub",
		Description: "hub test",
		Seed:        5,
		Messages:    engine.Messages{Welcome: "hi", Victory: "won in %d"},
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	eng.DrawStock()
	return eng.GetState()
}

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func waitForCount(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(sessionID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients in session %s, got %d", want, sessionID, hub.ClientCount(sessionID))
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if cap(hub.broadcast) != engine.WebSocketBufferSize {
		t.Errorf("Expected broadcast buffer %d, got %d", engine.WebSocketBufferSize, cap(hub.broadcast))
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub registration channels are nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "Test-Session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered under the lowercased session ID")
	}
	if len(hub.sessions["test-session"]) != 1 {
		t.Errorf("Expected 1 client in session, got %d", len(hub.sessions["test-session"]))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Send channel should be closed")
	}

	// A second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub()
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID)
	client2 := newTestClient(hub, sessionID)

	hub.registerClient(client1)
	hub.registerClient(client2)

	if len(hub.sessions[sessionID]) != 2 {
		t.Errorf("Expected 2 clients in session, got %d", len(hub.sessions[sessionID]))
	}

	hub.unregisterClient(client1)

	if len(hub.sessions[sessionID]) != 1 {
		t.Errorf("Expected 1 client remaining in session, got %d", len(hub.sessions[sessionID]))
	}
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	watcher := newTestClient(hub, "broadcast-test")
	bystander := newTestClient(hub, "other")
	hub.register <- watcher
	hub.register <- bystander

	state := testState(t)
	hub.BroadcastToSession("BROADCAST-TEST", state)

	select {
	case data := <-watcher.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.SessionID != "BROADCAST-TEST" {
			t.Errorf("Expected sessionID BROADCAST-TEST, got %s", message.SessionID)
		}
		if message.Event != EventStateUpdate {
			t.Errorf("Expected event %q, got %s", EventStateUpdate, message.Event)
		}
		if message.GameState == nil || message.GameState.DealID != state.DealID {
			t.Error("GameState not correctly transmitted")
		}
		if message.GameState.StockIdx != 0 {
			t.Errorf("Expected stock index 0, got %d", message.GameState.StockIdx)
		}
	case <-time.After(time.Second):
		t.Fatal("No message received within timeout")
	}

	select {
	case <-bystander.send:
		t.Error("Clients of other sessions should not receive the update")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()

	hub.BroadcastEvent("event-test", EventVictory, "Won in 80 moves")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" {
			t.Errorf("Expected sessionID 'event-test', got %s", message.SessionID)
		}
		if message.Event != EventVictory {
			t.Errorf("Expected event %q, got %s", EventVictory, message.Event)
		}
		if message.Data != "Won in 80 moves" {
			t.Errorf("Expected victory text, got %v", message.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message queued")
	}
}

func TestHubBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub()

	// Nothing drains the queue; extra messages are dropped
	done := make(chan struct{})
	go func() {
		for i := 0; i < engine.WebSocketBufferSize+10; i++ {
			hub.BroadcastEvent("full", EventStateUpdate, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full queue")
	}
	if len(hub.broadcast) != engine.WebSocketBufferSize {
		t.Errorf("Expected a full queue, got %d", len(hub.broadcast))
	}
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("sessionId"))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?sessionId=ws-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitForCount(t, hub, "ws-test", 1)

	conn.Close()

	waitForCount(t, hub, "ws-test", 0)
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("sessionId"))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?sessionId=msg-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitForCount(t, hub, "msg-test", 1)

	state := testState(t)
	hub.BroadcastToSession("msg-test", state)
	hub.BroadcastEvent("msg-test", EventVictory, "done")

	conn.SetReadDeadline(time.Now().Add(time.Second))

	var update Message
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	if update.Event != EventStateUpdate || update.GameState == nil {
		t.Fatalf("Expected a state update first, got %+v", update)
	}
	if update.GameState.DealID != state.DealID || update.GameState.Moves != 1 {
		t.Error("GameState not correctly received")
	}

	var event Message
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("Failed to read second WebSocket message: %v", err)
	}
	if event.Event != EventVictory || event.Data != "done" {
		t.Errorf("Expected victory event, got %+v", event)
	}
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "stop-test")
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()
	waitForCount(t, hub, "stop-test", 1)

	hub.Stop()
	hub.Stop()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected the connection to close after Stop")
	}
	if hub.ClientCount("stop-test") != 0 {
		t.Error("ClientCount should report 0 once stopped")
	}
}
