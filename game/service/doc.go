// Package service provides the business logic layer for the Klondike game server.
//
// The service package implements:
//   - Multi-session game management
//   - Click, move and draw commands with event reporting
//   - Bulk clicks bounded by the configured limit
//   - Move history paging and move hints
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine instance; the service
// serializes commands with a single lock so an engine is never driven by two
// requests at once, and persists the session after every command.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Select the revealed stock card, then drop it on the first foundation
//	gameService.Draw(ctx, info.ID)
//	gameService.Click(ctx, info.ID, engine.StockRevealRef())
//	result, err := gameService.Click(ctx, info.ID, engine.FoundationRef(0))
//
// Commands on a game that is already won are not errors; they report the
// "ignored" outcome until the session is reset.
package service
