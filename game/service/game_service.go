package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/klondike/game/engine"
)

// ErrSessionNotFound is returned for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Click(ctx context.Context, sessionID string, ref engine.EntityRef) (*ClickResult, error)
	BulkClick(ctx context.Context, sessionID string, refs []engine.EntityRef, reset bool) (*BulkClickResult, error)
	Move(ctx context.Context, sessionID string, from, to engine.EntityRef) (*ClickResult, error)
	MoveCard(ctx context.Context, sessionID, card string, to engine.EntityRef) (*ClickResult, error)
	Draw(ctx context.Context, sessionID string) (*ClickResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	GetHints(ctx context.Context, sessionID string) (*HintsResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session. Engine is not safe for
// concurrent use: commands run between Lock and Unlock, and anything that
// leaves the session (responses, broadcasts, storage) reads a Snapshot.
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Lock gives the caller exclusive access to Engine.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases Engine.
func (s *Session) Unlock() { s.mu.Unlock() }

// Snapshot returns a deep copy of the game state, taken under the session lock.
func (s *Session) Snapshot() *engine.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Engine.Snapshot()
}
