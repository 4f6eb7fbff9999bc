// Package websocket provides WebSocket transport for the Klondike game.
//
// The websocket package implements:
//   - Session-aware watch connections
//   - State broadcasting after every command
//   - Connection lifecycle management
//
// Architecture:
//
// A central Hub owns all connections. Registration, removal and fan-out all
// run on the hub's Run goroutine; each client has its own read and write
// pumps. Broadcasts are queued on a buffered channel and never block the
// caller; when the queue is full the update is dropped and logged.
//
// Message Protocol:
//
// Every frame is one JSON Message:
//   - state_update: {"session_id": "abc1", "event": "state_update", "game_state": {...}}
//   - victory: {"session_id": "abc1", "event": "victory", "data": "You won in 97 moves!"}
//   - session_deleted: sent when the session is removed
//
// Clients only watch; anything they send is read and discarded.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	router.HandleFunc("/api/sessions/{id}/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, mux.Vars(r)["id"])
//	})
//
//	hub.BroadcastToSession(sessionID, state)
package websocket
