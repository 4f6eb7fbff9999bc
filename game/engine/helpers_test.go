package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func card(t *testing.T, s string) Card {
	t.Helper()
	c, err := ParseCard(s)
	require.NoError(t, err)
	return c
}

func up(t *testing.T, s string) Slot   { return Slot{Card: card(t, s), FaceUp: true} }
func down(t *testing.T, s string) Slot { return Slot{Card: card(t, s)} }

// boardSpec describes a hand-built position. Cards not placed anywhere end
// up face down in the stock after the optional revealed card.
type boardSpec struct {
	tableau     [TableauColumns][]Slot
	foundations [FoundationCount][]Card
	revealed    string
}

func buildState(t *testing.T, b boardSpec) *GameState {
	t.Helper()

	s := &GameState{
		StockIdx:     -1,
		Selection:    NoRef(),
		MoveHistory:  []MoveHistoryEntry{},
		CurrentMoves: []MoveHistoryEntry{},
	}
	var used [DeckSize]bool
	for col, slots := range b.tableau {
		s.Tableau[col] = append([]Slot{}, slots...)
		for _, slot := range slots {
			used[slot.Card.ID()] = true
		}
	}
	for i, cards := range b.foundations {
		s.Foundations[i] = emptyFoundation()
		for _, c := range cards {
			s.Foundations[i].push(c)
			used[c.ID()] = true
		}
	}
	if b.revealed != "" {
		c := card(t, b.revealed)
		s.Stock = append(s.Stock, Slot{Card: c, FaceUp: true})
		s.StockIdx = 0
		used[c.ID()] = true
	}
	for id := 0; id < DeckSize; id++ {
		if !used[id] {
			s.Stock = append(s.Stock, Slot{Card: CardFromID(id)})
		}
	}
	s.reindex()
	require.NoError(t, CheckInvariants(s))
	return s
}

// engineWith returns an engine playing the given position.
func engineWith(t *testing.T, s *GameState) *GameEngine {
	t.Helper()
	e := NewEngineWithDefaults()
	require.NoError(t, e.SetState(s))
	return e
}

func suitRun(suit Suit, through Rank) []Card {
	cards := make([]Card, 0, through+1)
	for r := Ace; r <= through; r++ {
		cards = append(cards, Card{Suit: suit, Rank: r})
	}
	return cards
}

func testConfig() *GameConfig {
	return &GameConfig{
		Name:        "test",
		Description: "Configuration for engine tests",
		Seed:        42,
		Messages: Messages{
			Welcome:      "Welcome to engine test!",
			Selected:     "Selected",
			MoveMade:     "Moved",
			MoveRejected: "Rejected",
			Draw:         "Drew",
			Recycle:      "Recycled",
			Victory:      "Won in %d moves",
			GameWon:      "Already won",
		},
	}
}
