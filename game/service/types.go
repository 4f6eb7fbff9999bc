package service

import (
	"time"

	"github.com/wricardo/klondike/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// ClickResult contains the result of a click, move or draw
type ClickResult struct {
	Success       bool              `json:"success"` // the move counter advanced
	Outcome       engine.Outcome    `json:"outcome"`
	Result        engine.MoveResult `json:"result"`
	GameState     *engine.GameState `json:"game_state"`
	Message       string            `json:"message"`
	SelectedCards []engine.Card     `json:"selected_cards,omitempty"`
	Events        []GameEvent       `json:"events,omitempty"`
}

// Bulk click stop codes
const (
	StopVictory  = "victory"
	StopGameWon  = "game_won"
	StopRejected = "rejected"
)

// BulkClickResult contains the result of a sequence of clicks
type BulkClickResult struct {
	// Summary
	ClicksExecuted  int               `json:"clicks_executed"`
	RequestedClicks int               `json:"requested_clicks"`
	MovesMade       int               `json:"moves_made"`
	Success         bool              `json:"success"`
	GameState       *engine.GameState `json:"game_state"`
	Events          []GameEvent       `json:"events"`
	StoppedReason   string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode  string            `json:"stop_reason_code,omitempty"` // victory|game_won|rejected
	StoppedOnClick  int               `json:"stopped_on_click,omitempty"` // 1-based index of the click that caused stop
	Truncated       bool              `json:"truncated,omitempty"`
	Limit           int               `json:"limit,omitempty"`

	// Per-click compact trace (only for this call)
	Steps []engine.MoveResult `json:"steps,omitempty"`

	Won     bool   `json:"won"`
	Message string `json:"message,omitempty"`
}

// Event types
const (
	EventSelect   = "select"
	EventMove     = "move"
	EventReveal   = "reveal"
	EventDraw     = "draw"
	EventRecycle  = "recycle"
	EventRejected = "rejected"
	EventVictory  = "victory"
	EventReset    = "reset"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Cards     []engine.Card     `json:"cards,omitempty"`
	From      *engine.EntityRef `json:"from,omitempty"`
	To        *engine.EntityRef `json:"to,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// HintsResponse lists the legal moves of the current position
type HintsResponse struct {
	Moves          []engine.PossibleMove `json:"moves"`
	Count          int                   `json:"count"`
	StockRemaining int                   `json:"stock_remaining"` // face-down cards left before a recycle
	CanDraw        bool                  `json:"can_draw"`
	Won            bool                  `json:"won"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename      string `json:"filename"`
	ConfigID      string `json:"config_id"` // The identifier to use for session creation
	Name          string `json:"name"`      // Display name
	Description   string `json:"description"`
	Seed          uint64 `json:"seed,omitempty"`
	MaxBulkClicks int    `json:"max_bulk_clicks"`
}
