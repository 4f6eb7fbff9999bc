package engine

import "fmt"

// InvariantViolation describes a board that no sequence of legal moves can
// produce. The engine panics with it; callers never see it as a game outcome.
type InvariantViolation struct {
	Rule   string
	Detail string
}

func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", v.Rule, v.Detail)
}

func violation(rule, format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

// CheckInvariants verifies card conservation, tableau face-up order, stock
// cursor bounds and faces, foundation ordering and the location index. It
// returns the first violation found.
func CheckInvariants(s *GameState) error {
	type placement struct {
		card Card
		at   Location
	}
	var placed []placement
	mark := func(c Card, at Location) {
		placed = append(placed, placement{card: c, at: at})
	}

	for col, slots := range s.Tableau {
		faceUp := false
		for row, slot := range slots {
			if slot.FaceUp {
				faceUp = true
			} else if faceUp {
				return violation("face_up_order", "column %d has face-down %s at row %d below a face-up card", col, slot.Card, row)
			}
			mark(slot.Card, Location{Pile: PileTableau, Index: col, Position: row})
		}
	}

	if s.StockIdx < -1 || s.StockIdx >= len(s.Stock) {
		return violation("stock_cursor", "stock_idx %d outside [-1, %d)", s.StockIdx, len(s.Stock))
	}
	for i, slot := range s.Stock {
		if slot.FaceUp != (i <= s.StockIdx) {
			return violation("stock_faces", "stock card %s at %d has face_up=%t with cursor %d", slot.Card, i, slot.FaceUp, s.StockIdx)
		}
		mark(slot.Card, Location{Pile: PileStock, Position: i})
	}

	for i := range s.Foundations {
		f := &s.Foundations[i]
		if f.TopRank != Rank(len(f.Cards)-1) {
			return violation("foundation_order", "stack %d has %d cards but top_rank %d", i, len(f.Cards), f.TopRank)
		}
		if f.Empty() && f.Suit != NoSuit {
			return violation("foundation_order", "empty stack %d keeps suit %s", i, f.Suit)
		}
		for pos, c := range f.Cards {
			if c.Suit != f.Suit || c.Rank != Rank(pos) {
				return violation("foundation_order", "stack %d (%s) holds %s at height %d", i, f.Suit, c, pos)
			}
			mark(c, Location{Pile: PileFoundation, Index: i, Position: pos})
		}
	}

	var seen [DeckSize]bool
	for _, p := range placed {
		if !p.card.Valid() {
			return violation("card_conservation", "invalid card %d/%d at %s %d/%d", p.card.Suit, p.card.Rank, p.at.Pile, p.at.Index, p.at.Position)
		}
		if seen[p.card.ID()] {
			return violation("card_conservation", "%s appears twice", p.card)
		}
		seen[p.card.ID()] = true
	}
	if len(placed) != DeckSize {
		return violation("card_conservation", "%d cards on the board, want %d", len(placed), DeckSize)
	}

	for _, p := range placed {
		if got := s.locations[p.card.ID()]; got != p.at {
			return violation("location_index", "%s indexed at %s %d/%d, found at %s %d/%d",
				p.card, got.Pile, got.Index, got.Position, p.at.Pile, p.at.Index, p.at.Position)
		}
	}
	return nil
}

func mustHoldInvariants(s *GameState) {
	if err := CheckInvariants(s); err != nil {
		panic(err)
	}
}
