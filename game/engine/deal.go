package engine

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// newRand returns the shuffle source for a config: seeded configs replay
// the same sequence of deals, unseeded ones draw a fresh seed.
func newRand(config *GameConfig) *rand.Rand {
	if config != nil && config.Seed != 0 {
		return rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func shuffledDeck(rng *rand.Rand) []Card {
	deck := NewDeck()
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// Deal shuffles a fresh deck and lays it out: column i gets i+1 cards with
// only the last one face up, the remaining 24 go to the stock face down.
func Deal(rng *rand.Rand) *GameState {
	deck := shuffledDeck(rng)

	s := &GameState{
		DealID:       uuid.NewString(),
		StockIdx:     -1,
		Selection:    NoRef(),
		MoveHistory:  []MoveHistoryEntry{},
		CurrentMoves: []MoveHistoryEntry{},
	}

	next := 0
	for col := 0; col < TableauColumns; col++ {
		s.Tableau[col] = make([]Slot, 0, col+1)
		for row := 0; row <= col; row++ {
			s.Tableau[col] = append(s.Tableau[col], Slot{Card: deck[next], FaceUp: row == col})
			next++
		}
	}

	s.Stock = make([]Slot, 0, DeckSize-next)
	for _, c := range deck[next:] {
		s.Stock = append(s.Stock, Slot{Card: c})
	}

	for i := range s.Foundations {
		s.Foundations[i] = emptyFoundation()
	}

	s.reindex()
	return s
}
