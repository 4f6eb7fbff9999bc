package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Snapshot() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsWon() bool
	GetMoves() int

	// Commands
	Click(ref EntityRef) MoveResult
	Move(from, to EntityRef) MoveResult
	DrawStock() MoveResult

	// Queries
	SelectedCards() []Card
	Locate(card Card) Location
	ResolveCard(card Card) (EntityRef, error)
	GetPossibleMoves() []PossibleMove

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface. It is the session controller:
// it sequences select and commit clicks into moves and owns the single
// GameState it mutates. It is not safe for concurrent use.
type GameEngine struct {
	state  *GameState
	config *GameConfig
	rng    *rand.Rand
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	config.FillMessages()

	e := &GameEngine{
		config: config,
		rng:    newRand(config),
	}
	e.state = e.newDeal()
	e.state.Message = config.Messages.Welcome
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the built-in configuration
func NewEngineWithDefaults() *GameEngine {
	e, _ := NewEngine(DefaultConfig())
	return e
}

func (e *GameEngine) newDeal() *GameState {
	s := Deal(e.rng)
	s.ConfigName = e.config.Name
	s.DealNumber = 1
	if e.state != nil {
		s.DealNumber = e.state.DealNumber + 1
	}
	mustHoldInvariants(s)
	return s
}

// replayDeals rewinds a seeded shuffle source to the point just after deal n,
// so the next Reset continues the sequence a restored game was dealt from.
func (e *GameEngine) replayDeals(n int) {
	if e.config.Seed == 0 || n <= 0 {
		return
	}
	e.rng = newRand(e.config)
	for range n {
		shuffledDeck(e.rng)
	}
}

// GetState returns the live game state. It changes with every command; use
// Snapshot for a copy that outlives the caller's exclusive access.
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// Snapshot returns a deep copy of the current game state.
func (e *GameEngine) Snapshot() *GameState {
	return e.state.Clone()
}

// SetState replaces the game state (used for persistence loading). The
// location index is rebuilt and the board is checked before it is adopted.
// A state carrying a deal number moves a seeded shuffle source past that
// many deals.
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	state.Selection = state.Selection.Normalize()
	state.reindex()
	if err := CheckInvariants(state); err != nil {
		return fmt.Errorf("rejecting state: %w", err)
	}
	if state.MoveHistory == nil {
		state.MoveHistory = []MoveHistoryEntry{}
	}
	if state.CurrentMoves == nil {
		state.CurrentMoves = []MoveHistoryEntry{}
	}
	state.Won = IsWon(state)
	e.replayDeals(state.DealNumber)
	e.state = state
	return nil
}

// Reset deals a new shuffle. Cumulative history survives; the move counter
// and the current segment start over.
func (e *GameEngine) Reset() *GameState {
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = e.newDeal()
	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.Message = e.config.Messages.Welcome

	return e.state
}

// IsWon returns whether all four foundations are complete
func (e *GameEngine) IsWon() bool {
	return e.state.Won
}

// GetMoves returns the move counter of the current deal
func (e *GameEngine) GetMoves() int {
	return e.state.Moves
}

// Click feeds one entity reference into the selection state machine.
func (e *GameEngine) Click(ref EntityRef) MoveResult {
	s := e.state
	if s.Won {
		return e.ignored(ref)
	}
	if !ref.Valid() {
		s.Selection = NoRef()
		return MoveResult{Outcome: OutcomeCleared, To: ref}
	}
	ref = ref.Normalize()
	sel := s.Selection

	switch ref.Kind {
	case RefStockHidden:
		return e.draw()

	case RefStockReveal:
		if sel == ref || !s.selectable(ref) {
			return e.clear(ref)
		}
		return e.arm(ref)

	case RefTableauCard:
		if !s.selectable(ref) {
			return e.clear(ref)
		}
		if sel.IsNone() || (sel.Kind == RefTableauCard && sel.Col == ref.Col) {
			return e.arm(ref)
		}
		return e.commit(sel, ref)

	case RefFoundation:
		if sel.IsNone() {
			if !s.selectable(ref) {
				return e.clear(ref)
			}
			return e.arm(ref)
		}
		if sel == ref {
			return e.clear(ref)
		}
		return e.commit(sel, ref)

	case RefTableauPile:
		if sel.IsNone() {
			return e.clear(ref)
		}
		return e.commit(sel, ref)
	}

	return e.clear(ref)
}

// Move selects from and commits to in one step. On rejection nothing stays
// selected.
func (e *GameEngine) Move(from, to EntityRef) MoveResult {
	if e.state.Won {
		return e.ignored(to)
	}
	from, to = from.Normalize(), to.Normalize()
	if !e.state.selectable(from) {
		e.state.Selection = NoRef()
		e.state.Message = e.config.Messages.MoveRejected
		return MoveResult{Outcome: OutcomeRejected, From: from, To: to}
	}
	res := e.commit(from, to)
	if !res.Moved {
		e.state.Selection = NoRef()
	}
	return res
}

// DrawStock turns the next stock card, or recycles the waste when the stock
// is exhausted.
func (e *GameEngine) DrawStock() MoveResult {
	if e.state.Won {
		return e.ignored(StockHiddenRef())
	}
	return e.draw()
}

func (e *GameEngine) arm(ref EntityRef) MoveResult {
	e.state.Selection = ref
	e.state.Message = e.config.Messages.Selected
	return MoveResult{Outcome: OutcomeSelected, From: ref, Cards: e.SelectedCards()}
}

func (e *GameEngine) clear(ref EntityRef) MoveResult {
	e.state.Selection = NoRef()
	return MoveResult{Outcome: OutcomeCleared, To: ref}
}

func (e *GameEngine) ignored(ref EntityRef) MoveResult {
	e.state.Message = e.config.Messages.GameWon
	return MoveResult{Outcome: OutcomeIgnored, To: ref, Won: true}
}

// commit tries the armed move. An illegal destination leaves the state and
// the armed origin untouched.
func (e *GameEngine) commit(from, to EntityRef) MoveResult {
	s := e.state
	t, err := Execute(s, from, to)
	if err != nil {
		var noop *NoOpError
		if !errors.As(err, &noop) {
			panic(err)
		}
		s.Message = e.config.Messages.MoveRejected
		return MoveResult{Outcome: OutcomeRejected, From: from, To: to}
	}
	mustHoldInvariants(s)

	e.record(MoveHistoryEntry{
		Action:   ActionMove,
		From:     from,
		To:       to,
		Cards:    t.Cards,
		Revealed: t.Revealed,
	})

	s.Message = e.config.Messages.MoveMade
	if s.Won {
		s.Message = fmt.Sprintf(e.config.Messages.Victory, s.Moves)
	}
	return MoveResult{
		Moved:    true,
		Outcome:  OutcomeMoved,
		From:     from,
		To:       to,
		Cards:    t.Cards,
		Revealed: t.Revealed,
		Won:      s.Won,
	}
}

func (e *GameEngine) draw() MoveResult {
	s := e.state
	recycled := s.Draw()
	mustHoldInvariants(s)

	entry := MoveHistoryEntry{Action: ActionDraw, From: StockHiddenRef(), To: StockRevealRef()}
	res := MoveResult{Moved: true, Outcome: OutcomeDrew, From: StockHiddenRef(), To: StockRevealRef()}
	if recycled {
		entry.Action = ActionRecycle
		entry.From, entry.To = StockRevealRef(), StockHiddenRef()
		res.Outcome = OutcomeRecycled
		res.From, res.To = entry.From, entry.To
		s.Message = e.config.Messages.Recycle
	} else {
		c := s.Stock[s.StockIdx].Card
		entry.Cards = []Card{c}
		res.Cards = entry.Cards
		s.Message = e.config.Messages.Draw
	}
	e.record(entry)
	return res
}

// record appends a committed move to both the cumulative and current history.
func (e *GameEngine) record(entry MoveHistoryEntry) {
	s := e.state
	s.TotalMoves++
	entry.MoveNumber = s.TotalMoves
	entry.Timestamp = time.Now().Unix()
	s.MoveHistory = append(s.MoveHistory, entry)
	s.CurrentMoves = append(s.CurrentMoves, entry)
}

// SelectedCards returns the cards covered by the current selection, for
// highlighting.
func (e *GameEngine) SelectedCards() []Card {
	return e.state.highlighted(e.state.Selection)
}

// Locate returns where card currently sits
func (e *GameEngine) Locate(card Card) Location {
	return e.state.Locate(card)
}

// ResolveCard returns the entity reference that picks up card
func (e *GameEngine) ResolveCard(card Card) (EntityRef, error) {
	if !card.Valid() {
		return NoRef(), fmt.Errorf("%w: %s", ErrCardUnavailable, card)
	}
	return e.state.RefFor(card)
}

// GetPossibleMoves returns the legal moves of the current position
func (e *GameEngine) GetPossibleMoves() []PossibleMove {
	if e.state.Won {
		return []PossibleMove{}
	}
	return PossibleMoves(e.state)
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and deals a new game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}
	config.FillMessages()

	e.config = config
	e.rng = newRand(config)
	e.state = nil
	e.state = e.newDeal()
	e.state.Message = config.Messages.Welcome
	return nil
}

// GetMoveHistory returns a copy of the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return slices.Clone(e.state.MoveHistory)
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}
