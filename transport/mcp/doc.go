// Package mcp provides a Model Context Protocol front end for the Klondike game.
//
// The Client is a thin proxy: every tool call becomes one or two REST calls
// against a running api server, and the JSON response is rendered as text
// an agent can read.
//
// MCP Tools:
//   - create_session, get_session, list_sessions: Session management
//   - game_state: Text rendering of the board
//   - click, bulk_click: Select-then-move clicking
//   - move, move_card: Two-click moves in one call
//   - draw: Turn the next stock card
//   - hints: Legal moves of the current position
//   - reset_game: Deal a new hand
//   - move_history: Paginated history
//   - list_configs, game_instructions: Reference material
//
// Refs:
//
// Tools take refs in a short notation: stock, waste, f0..f3, t0..t6 for a
// column, and t<col>:<row> for a card. The long form printed by
// EntityRef.String, e.g. tableau_card(3,5), is also accepted.
//
// Board Rendering:
//
//	Foundations:  f0 [AH]  f1 [--]  f2 [--]  f3 [--]
//	Stock: 20 face down | Waste: 7S
//
//	Tableau (## is face down, * is selected):
//	t0: 0:KD
//	t1: 0:## 1:9C*
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
