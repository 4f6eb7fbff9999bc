package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/klondike/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Snapshot(),
		GameConfig:     session.Config,
	}, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     s.getConfigID(session.Config.Name),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Snapshot(),
		GameConfig:     session.Config,
	}, nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		result = append(result, &SessionInfo{
			ID:             sess.ID,
			ConfigName:     s.getConfigID(sess.Config.Name),
			CreatedAt:      sess.CreatedAt,
			LastAccessedAt: sess.LastAccessedAt,
			GameState:      sess.Snapshot(),
			GameConfig:     sess.Config,
		})
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// Click feeds one entity reference into the session's selection protocol
func (s *gameServiceImpl) Click(ctx context.Context, sessionID string, ref engine.EntityRef) (*ClickResult, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: %s", engine.ErrInvalidRef, ref)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var out *ClickResult
	s.command(sess, "click", func(eng *engine.GameEngine) {
		out = clickResult(eng, eng.Click(ref))
	})
	return out, nil
}

// BulkClick feeds a sequence of clicks, stopping at the first rejected
// commit or when the game is won.
func (s *gameServiceImpl) BulkClick(ctx context.Context, sessionID string, refs []engine.EntityRef, reset bool) (*BulkClickResult, error) {
	for i, ref := range refs {
		if !ref.Valid() {
			return nil, fmt.Errorf("%w: click %d: %s", engine.ErrInvalidRef, i+1, ref)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkClickResult{
		RequestedClicks: len(refs),
		Events:          make([]GameEvent, 0),
		Success:         true,
	}

	// Limit clicks to prevent abuse
	limit := sess.Config.BulkClickLimit()
	if len(refs) > limit {
		result.Truncated = true
		result.Limit = limit
		refs = refs[:limit]
	}

	s.command(sess, "bulk click", func(eng *engine.GameEngine) {
		if reset {
			eng.Reset()
			result.Events = append(result.Events, resetEvent())
		}

		for i, ref := range refs {
			if eng.IsWon() {
				result.StoppedReason = "game already won"
				result.StopReasonCode = StopGameWon
				result.StoppedOnClick = i + 1
				break
			}

			res := eng.Click(ref)
			result.ClicksExecuted++
			result.Steps = append(result.Steps, res)
			result.Events = append(result.Events, eventsFor(res, eng.GetState())...)
			if res.Moved {
				result.MovesMade++
			}

			if res.Outcome == engine.OutcomeRejected {
				result.Success = false
				result.StoppedReason = fmt.Sprintf("click %d rejected: %s to %s", i+1, res.From, res.To)
				result.StopReasonCode = StopRejected
				result.StoppedOnClick = i + 1
				break
			}
			if res.Won {
				result.StopReasonCode = StopVictory
				break
			}
		}

		state := eng.Snapshot()
		result.GameState = state
		result.Won = state.Won
		result.Message = state.Message
	})
	return result, nil
}

// Move selects from and commits to in one step
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, from, to engine.EntityRef) (*ClickResult, error) {
	if !from.Valid() || !to.Valid() {
		return nil, fmt.Errorf("%w: %s to %s", engine.ErrInvalidRef, from, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var out *ClickResult
	s.command(sess, "move", func(eng *engine.GameEngine) {
		out = clickResult(eng, eng.Move(from, to))
	})
	return out, nil
}

// MoveCard moves the card named by its text form (e.g. "7S") to the destination
func (s *gameServiceImpl) MoveCard(ctx context.Context, sessionID, card string, to engine.EntityRef) (*ClickResult, error) {
	c, err := engine.ParseCard(card)
	if err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, fmt.Errorf("%w: %s", engine.ErrInvalidRef, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var out *ClickResult
	s.command(sess, "move", func(eng *engine.GameEngine) {
		var from engine.EntityRef
		if from, err = eng.ResolveCard(c); err == nil {
			out = clickResult(eng, eng.Move(from, to))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Draw turns the next stock card
func (s *gameServiceImpl) Draw(ctx context.Context, sessionID string) (*ClickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var out *ClickResult
	s.command(sess, "draw", func(eng *engine.GameEngine) {
		out = clickResult(eng, eng.DrawStock())
	})
	return out, nil
}

// Reset deals a new game for the session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var state *engine.GameState
	s.command(sess, "reset", func(eng *engine.GameEngine) {
		eng.Reset()
		state = eng.Snapshot()
	})
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	sess.Lock()
	history := sess.Engine.GetMoveHistory()
	sess.Unlock()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// GetHints lists the legal moves of the session's current position
func (s *gameServiceImpl) GetHints(ctx context.Context, sessionID string) (*HintsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	state := sess.Engine.GetState()
	moves := sess.Engine.GetPossibleMoves()
	return &HintsResponse{
		Moves:          moves,
		Count:          len(moves),
		StockRemaining: len(state.Stock) - state.StockIdx - 1,
		CanDraw:        !state.Won && len(state.Stock) > 0,
		Won:            state.Won,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// getSession looks a session up and marks it as accessed.
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// save persists the session after a command. Failures are logged, not returned.
func (s *gameServiceImpl) save(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after %s: %v", sessionID, after, err)
	}
}

// command runs fn with exclusive access to the session's engine, then
// persists the session. Results built inside fn must hold snapshots, not the
// live state.
func (s *gameServiceImpl) command(sess *Session, after string, fn func(eng *engine.GameEngine)) {
	sess.Lock()
	fn(sess.Engine)
	sess.Unlock()
	s.save(sess.ID, after)
}

// clickResult reports a command result. Callers hold the session lock.
func clickResult(eng *engine.GameEngine, res engine.MoveResult) *ClickResult {
	state := eng.Snapshot()
	return &ClickResult{
		Success:       res.Moved,
		Outcome:       res.Outcome,
		Result:        res,
		GameState:     state,
		Message:       state.Message,
		SelectedCards: eng.SelectedCards(),
		Events:        eventsFor(res, state),
	}
}

// eventsFor translates an engine result into the events reported to clients.
func eventsFor(res engine.MoveResult, state *engine.GameState) []GameEvent {
	now := time.Now()
	from, to := res.From, res.To
	events := []GameEvent{}

	switch res.Outcome {
	case engine.OutcomeSelected:
		events = append(events, GameEvent{
			Type:      EventSelect,
			Message:   fmt.Sprintf("Selected %s at %s", cardList(res.Cards), from),
			Timestamp: now,
			Cards:     res.Cards,
			From:      &from,
		})
	case engine.OutcomeMoved:
		events = append(events, GameEvent{
			Type:      EventMove,
			Message:   fmt.Sprintf("Moved %s from %s to %s", cardList(res.Cards), from, to),
			Timestamp: now,
			Cards:     res.Cards,
			From:      &from,
			To:        &to,
		})
		if res.Revealed != nil {
			events = append(events, GameEvent{
				Type:      EventReveal,
				Message:   fmt.Sprintf("Revealed %s", res.Revealed),
				Timestamp: now,
				Cards:     []engine.Card{*res.Revealed},
				From:      &from,
			})
		}
		if res.Won {
			events = append(events, GameEvent{
				Type:      EventVictory,
				Message:   state.Message,
				Timestamp: now,
			})
		}
	case engine.OutcomeDrew:
		events = append(events, GameEvent{
			Type:      EventDraw,
			Message:   fmt.Sprintf("Drew %s", cardList(res.Cards)),
			Timestamp: now,
			Cards:     res.Cards,
		})
	case engine.OutcomeRecycled:
		events = append(events, GameEvent{
			Type:      EventRecycle,
			Message:   "Stock recycled",
			Timestamp: now,
		})
	case engine.OutcomeRejected:
		events = append(events, GameEvent{
			Type:      EventRejected,
			Message:   fmt.Sprintf("Cannot move from %s to %s", from, to),
			Timestamp: now,
			From:      &from,
			To:        &to,
		})
	}
	return events
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      EventReset,
		Message:   "New game dealt",
		Timestamp: time.Now(),
	}
}

func cardList(cards []engine.Card) string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.String()
	}
	return strings.Join(names, " ")
}
