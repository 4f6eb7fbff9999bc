// Package engine provides the core rules of Klondike solitaire.
//
// The engine package implements:
//   - The 52-card catalog and the shuffled deal
//   - Move legality for the stock, foundations and tableau
//   - Move execution with automatic reveal of the next tableau card
//   - The select-then-commit click protocol and stock cycling
//   - Board invariants, checked after every mutation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState is the board: seven tableau columns,
// the stock with its reveal cursor and four foundation stacks. An EntityRef
// names the pile or card a player clicked, and GameConfig holds the deal
// seed and player-facing messages loaded from JSON files.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Draw from the stock, then try to send the card to the first foundation
//	gameEngine.DrawStock()
//	gameEngine.Click(engine.StockRevealRef())
//	result := gameEngine.Click(engine.FoundationRef(0))
//
// Game Rules:
//
// Foundations build up by suit from Ace to King. Tableau columns build down
// in alternating colors, and only a King may start an empty column. A
// face-up run that already follows that pattern moves as one unit. The stock
// is turned one card at a time and recycled without limit. The game is won
// when all four foundations hold a King.
package engine
