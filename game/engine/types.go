package engine

import "slices"

const (
	TableauColumns  = 7
	FoundationCount = 4

	// Validation constants
	MaxBulkClicks       = 100
	DefaultBulkClicks   = 50
	WebSocketBufferSize = 256
)

// Slot is one card position in the tableau or stock together with its
// visible side.
type Slot struct {
	Card   Card `json:"card"`
	FaceUp bool `json:"face_up"`
}

// Foundation is one ascending suit stack. Suit stays NoSuit until the first
// card lands and resets when the stack empties again.
type Foundation struct {
	Suit    Suit   `json:"suit"`
	TopRank Rank   `json:"top_rank"`
	Cards   []Card `json:"cards"`
}

// Empty reports whether the stack holds no cards.
func (f *Foundation) Empty() bool {
	return len(f.Cards) == 0
}

// Top returns the top card of the stack.
func (f *Foundation) Top() (Card, bool) {
	if len(f.Cards) == 0 {
		return Card{}, false
	}
	return f.Cards[len(f.Cards)-1], true
}

// Accepts reports whether c can be placed on the stack.
func (f *Foundation) Accepts(c Card) bool {
	if f.Empty() {
		return c.Rank == Ace
	}
	return f.Suit == c.Suit && c.Rank == f.TopRank+1
}

func (f *Foundation) push(c Card) {
	if f.Empty() {
		f.Suit = c.Suit
	}
	f.Cards = append(f.Cards, c)
	f.TopRank = c.Rank
}

func (f *Foundation) pop() Card {
	c := f.Cards[len(f.Cards)-1]
	f.Cards = f.Cards[:len(f.Cards)-1]
	f.TopRank--
	if f.TopRank < Ace {
		f.TopRank = NoRank
		f.Suit = NoSuit
	}
	return c
}

func emptyFoundation() Foundation {
	return Foundation{Suit: NoSuit, TopRank: NoRank, Cards: []Card{}}
}

// Messages holds the player-facing texts of a game configuration.
type Messages struct {
	Welcome      string `json:"welcome"`
	Selected     string `json:"selected"`
	MoveMade     string `json:"move_made"`
	MoveRejected string `json:"move_rejected"`
	Draw         string `json:"draw"`
	Recycle      string `json:"recycle"`
	Victory      string `json:"victory"`
	GameWon      string `json:"game_won"`
}

// GameConfig represents a game configuration loaded from JSON.
type GameConfig struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Seed          uint64   `json:"seed,omitempty"`            // 0 deals randomly
	MaxBulkClicks int      `json:"max_bulk_clicks,omitempty"` // 0 uses DefaultBulkClicks
	Messages      Messages `json:"messages"`
}

// GameState represents the complete game state
type GameState struct {
	DealID      string                      `json:"deal_id"`
	DealNumber  int                         `json:"deal_number"` // 1 for the first deal of an engine's sequence
	ConfigName  string                      `json:"config_name"`
	Tableau     [TableauColumns][]Slot      `json:"tableau"`
	Stock       []Slot                      `json:"stock"`
	StockIdx    int                         `json:"stock_idx"`
	Foundations [FoundationCount]Foundation `json:"foundations"`
	Selection   EntityRef                   `json:"selection"`
	Moves       int                         `json:"moves"`
	Won         bool                        `json:"won"`
	Message     string                      `json:"message"`

	// MoveHistory and TotalMoves are cumulative across resets; CurrentMoves
	// holds only the entries of the current deal.
	MoveHistory  []MoveHistoryEntry `json:"move_history"`
	TotalMoves   int                `json:"total_moves"`
	CurrentMoves []MoveHistoryEntry `json:"current_moves"`

	locations [DeckSize]Location
}

// Clone returns a deep copy of s that shares no slices with it. Move history
// entries are copied by value; their card slices are never mutated.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	for i := range s.Tableau {
		c.Tableau[i] = slices.Clone(s.Tableau[i])
	}
	c.Stock = slices.Clone(s.Stock)
	for i := range s.Foundations {
		c.Foundations[i].Cards = slices.Clone(s.Foundations[i].Cards)
	}
	c.MoveHistory = slices.Clone(s.MoveHistory)
	c.CurrentMoves = slices.Clone(s.CurrentMoves)
	return &c
}

// Move history actions
const (
	ActionMove    = "move"
	ActionDraw    = "draw"
	ActionRecycle = "recycle"
)

// MoveHistoryEntry represents a single committed move in the game history
type MoveHistoryEntry struct {
	Action     string    `json:"action"`
	From       EntityRef `json:"from"`
	To         EntityRef `json:"to"`
	Cards      []Card    `json:"cards,omitempty"`
	Revealed   *Card     `json:"revealed,omitempty"`
	Timestamp  int64     `json:"timestamp"`
	MoveNumber int       `json:"move_number"`
}

// Outcome classifies what a command did.
type Outcome string

const (
	OutcomeSelected Outcome = "selected"
	OutcomeMoved    Outcome = "moved"
	OutcomeDrew     Outcome = "drew"
	OutcomeRecycled Outcome = "recycled"
	OutcomeRejected Outcome = "rejected"
	OutcomeCleared  Outcome = "cleared"
	OutcomeIgnored  Outcome = "ignored"
)

// MoveResult reports the effect of a click, move or draw. Moved is true
// whenever the move counter advanced.
type MoveResult struct {
	Moved    bool      `json:"moved"`
	Outcome  Outcome   `json:"outcome"`
	From     EntityRef `json:"from"`
	To       EntityRef `json:"to"`
	Cards    []Card    `json:"cards,omitempty"`
	Revealed *Card     `json:"revealed,omitempty"`
	Won      bool      `json:"won"`
}

// PossibleMove is one legal source/destination pair for the current position.
type PossibleMove struct {
	From  EntityRef `json:"from"`
	To    EntityRef `json:"to"`
	Cards []Card    `json:"cards"`
}
