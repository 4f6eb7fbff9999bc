package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateGameConfig validates a game configuration for correctness
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.MaxBulkClicks < 0 || config.MaxBulkClicks > MaxBulkClicks {
		return fmt.Errorf("config validation: max_bulk_clicks must be between 0 and %d, got %d", MaxBulkClicks, config.MaxBulkClicks)
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Victory == "" {
		return fmt.Errorf("config validation: messages.victory is required")
	}
	if !strings.Contains(config.Messages.Victory, "%d") {
		return fmt.Errorf("config validation: messages.victory must contain %%d for the move count")
	}

	return nil
}

// BulkClickLimit returns the number of clicks a single bulk request may carry
func (c *GameConfig) BulkClickLimit() int {
	if c == nil || c.MaxBulkClicks == 0 {
		return DefaultBulkClicks
	}
	return c.MaxBulkClicks
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	config.FillMessages()

	return &config, nil
}

// DefaultConfig returns the built-in configuration used when no config file
// is available.
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:        "classic",
		Description: "Classic Klondike, draw one, unlimited passes through the stock",
		Messages: Messages{
			Welcome: "Welcome to Klondike! Build each suit up from Ace to King.",
			Victory: "You won in %d moves!",
		},
	}
	config.FillMessages()
	return config
}

// FillMessages supplies the optional texts a config file left out.
func (c *GameConfig) FillMessages() {
	m := &c.Messages
	if m.Selected == "" {
		m.Selected = "Card selected. Click a destination."
	}
	if m.MoveMade == "" {
		m.MoveMade = "Moved."
	}
	if m.MoveRejected == "" {
		m.MoveRejected = "That move is not allowed."
	}
	if m.Draw == "" {
		m.Draw = "Drew a card from the stock."
	}
	if m.Recycle == "" {
		m.Recycle = "Stock recycled."
	}
	if m.GameWon == "" {
		m.GameWon = "The game is already won. Reset to play again."
	}
}
