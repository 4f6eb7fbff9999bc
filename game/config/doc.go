// Package config provides configuration management for the Klondike game.
//
// The config package handles:
//   - Loading game configurations from JSON files
//   - Validation through engine.ValidateGameConfig
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Game configurations are stored as JSON files in the configs directory.
// The file name without ".json" is the config ID used when creating
// sessions. Each configuration defines:
//   - A display name and description
//   - An optional deal seed (0 deals randomly)
//   - An optional bulk click limit (0 uses the engine default)
//   - Player-facing messages; only welcome and victory are required
//
// Available Configurations:
//   - classic: random deals, the default
//   - practice: seeded deals that repeat across restarts
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration
//	gameConfig, err := manager.LoadConfig("practice")
//
//	// Get default configuration
//	defaultConfig := manager.GetDefault()
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
//
// Loaded configurations are cached. ReloadConfig and RefreshCache pick up
// edits made on disk.
package config
