package engine

import (
	"errors"
	"fmt"
)

// ErrCardUnavailable is returned when a card cannot be picked up from where it sits.
var ErrCardUnavailable = errors.New("card is not available")

// PileKind names the pile family a card currently belongs to.
type PileKind int

const (
	PileNone PileKind = iota
	PileTableau
	PileStock
	PileFoundation
)

func (p PileKind) String() string {
	switch p {
	case PileTableau:
		return "tableau"
	case PileStock:
		return "stock"
	case PileFoundation:
		return "foundation"
	}
	return "none"
}

// Location is a card's current slot: Index is the column or foundation
// stack (unused for the stock) and Position is the row, stock index or
// height within the stack.
type Location struct {
	Pile     PileKind `json:"pile"`
	Index    int      `json:"index"`
	Position int      `json:"position"`
}

// Locate returns where c currently sits.
func (s *GameState) Locate(c Card) Location {
	if !c.Valid() {
		return Location{}
	}
	return s.locations[c.ID()]
}

// RefFor returns the entity reference that picks up c, provided c is the
// face-up lead of something movable: a tableau face-up card, the revealed
// stock card or a foundation top.
func (s *GameState) RefFor(c Card) (EntityRef, error) {
	loc := s.Locate(c)
	switch loc.Pile {
	case PileTableau:
		if s.Tableau[loc.Index][loc.Position].FaceUp {
			return TableauCardRef(loc.Index, loc.Position), nil
		}
		return NoRef(), fmt.Errorf("%w: %s is face down", ErrCardUnavailable, c)
	case PileStock:
		if loc.Position == s.StockIdx {
			return StockRevealRef(), nil
		}
		return NoRef(), fmt.Errorf("%w: %s is not the revealed stock card", ErrCardUnavailable, c)
	case PileFoundation:
		if loc.Position == len(s.Foundations[loc.Index].Cards)-1 {
			return FoundationRef(loc.Index), nil
		}
		return NoRef(), fmt.Errorf("%w: %s is not a foundation top", ErrCardUnavailable, c)
	}
	return NoRef(), fmt.Errorf("%w: %s is not on the board", ErrCardUnavailable, c)
}

func (s *GameState) indexColumn(col int) {
	for row, slot := range s.Tableau[col] {
		s.locations[slot.Card.ID()] = Location{Pile: PileTableau, Index: col, Position: row}
	}
}

func (s *GameState) indexStock() {
	for i, slot := range s.Stock {
		s.locations[slot.Card.ID()] = Location{Pile: PileStock, Position: i}
	}
}

func (s *GameState) indexFoundation(stack int) {
	for i, c := range s.Foundations[stack].Cards {
		s.locations[c.ID()] = Location{Pile: PileFoundation, Index: stack, Position: i}
	}
}

// reindex rebuilds the whole back-reference table. Used after a deal and
// after a state is restored from storage.
func (s *GameState) reindex() {
	s.locations = [DeckSize]Location{}
	for col := range s.Tableau {
		for _, slot := range s.Tableau[col] {
			if !slot.Card.Valid() {
				return
			}
		}
		s.indexColumn(col)
	}
	for _, slot := range s.Stock {
		if !slot.Card.Valid() {
			return
		}
	}
	s.indexStock()
	for i := range s.Foundations {
		for _, c := range s.Foundations[i].Cards {
			if !c.Valid() {
				return
			}
		}
		s.indexFoundation(i)
	}
}
