// Package api provides HTTP REST API handlers for the Klondike game.
//
// The api package implements:
//   - Session management endpoints
//   - Card play endpoints (click, bulk click, move, draw, reset)
//   - History and hint queries
//   - Configuration listing, lookup and upload
//   - WebSocket upgrade handling for board watchers
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "practice"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/click - Click one entity; the body is the ref
//   - POST /api/sessions/{id}/bulk-click - {"clicks": [ref, ...], "reset": false}
//   - POST /api/sessions/{id}/move - {"from": ref, "to": ref} or {"card": "7S", "to": ref}
//   - POST /api/sessions/{id}/draw - Turn the next stock card
//   - POST /api/sessions/{id}/reset - Deal a new hand
//   - GET /api/sessions/{id}/history - Move history (?page=1&limit=20&order=desc)
//   - GET /api/sessions/{id}/hints - Legal moves for the current position
//
// Configuration:
//   - GET /api/configs - List available configurations
//   - GET /api/configs/{name} - Get one configuration
//   - POST /api/configs - Save a configuration
//
// Watching:
//   - GET /ws?session={id} or GET /api/sessions/{id}/ws - WebSocket state updates
//
// Entity References:
//
// A ref names the thing a player clicks:
//
//	{"kind": "stock_hidden"}
//	{"kind": "stock_reveal"}
//	{"kind": "foundation", "stack": 2}
//	{"kind": "tableau_card", "col": 3, "row": 5}
//	{"kind": "tableau_pile", "col": 6}
//
// A rejected move is a normal 200 response with success false and outcome
// "rejected"; HTTP errors are reserved for bad requests and unknown
// sessions.
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status code: 400 for malformed
// refs, cards and configs, 404 for unknown sessions and configs, 500
// otherwise.
//
//	{"error": "session ab12: session not found"}
package api
