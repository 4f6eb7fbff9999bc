package engine

// IsMoveableGroup reports whether slots form a run that can travel as one
// unit: all face up, strictly descending rank and alternating color.
func IsMoveableGroup(slots []Slot) bool {
	if len(slots) == 0 {
		return false
	}
	for i, slot := range slots {
		if !slot.FaceUp {
			return false
		}
		if i == 0 {
			continue
		}
		prev := slots[i-1].Card
		if slot.Card.Rank != prev.Rank-1 || slot.Card.Color() == prev.Color() {
			return false
		}
	}
	return true
}

// sourceCards returns the cards the ref would pick up, or nil when it does
// not resolve to anything movable.
func (s *GameState) sourceCards(ref EntityRef) []Card {
	if !ref.Valid() {
		return nil
	}
	switch ref.Kind {
	case RefStockReveal:
		if s.StockIdx < 0 || s.StockIdx >= len(s.Stock) {
			return nil
		}
		return []Card{s.Stock[s.StockIdx].Card}
	case RefFoundation:
		top, ok := s.Foundations[ref.Stack].Top()
		if !ok {
			return nil
		}
		return []Card{top}
	case RefTableauCard:
		col := s.Tableau[ref.Col]
		if ref.Row >= len(col) || !IsMoveableGroup(col[ref.Row:]) {
			return nil
		}
		cards := make([]Card, 0, len(col)-ref.Row)
		for _, slot := range col[ref.Row:] {
			cards = append(cards, slot.Card)
		}
		return cards
	}
	return nil
}

// highlighted returns the cards covered by ref: the face-up tail of a
// column from the clicked row down, or the single card of the other piles.
func (s *GameState) highlighted(ref EntityRef) []Card {
	if ref.Kind != RefTableauCard {
		return s.sourceCards(ref)
	}
	if !s.selectable(ref) {
		return nil
	}
	var cards []Card
	for _, slot := range s.Tableau[ref.Col][ref.Row:] {
		cards = append(cards, slot.Card)
	}
	return cards
}

// selectable reports whether ref can become the armed origin of a move.
func (s *GameState) selectable(ref EntityRef) bool {
	switch ref.Kind {
	case RefTableauCard:
		if !ref.Valid() || ref.Row >= len(s.Tableau[ref.Col]) {
			return false
		}
		return s.Tableau[ref.Col][ref.Row].FaceUp
	case RefStockReveal, RefFoundation:
		return len(s.sourceCards(ref)) > 0
	}
	return false
}

// IsLegal reports whether moving from src to dst is allowed in s. It never
// mutates s.
func IsLegal(s *GameState, src, dst EntityRef) bool {
	if s == nil || !src.Valid() || !dst.Valid() {
		return false
	}
	src, dst = src.Normalize(), dst.Normalize()
	if src == dst {
		return false
	}

	cards := s.sourceCards(src)
	if len(cards) == 0 {
		return false
	}
	lead := cards[0]

	switch dst.Kind {
	case RefFoundation:
		// Groups never go up to a foundation.
		if len(cards) != 1 {
			return false
		}
		return s.Foundations[dst.Stack].Accepts(lead)

	case RefTableauCard:
		if src.Kind == RefTableauCard && src.Col == dst.Col {
			return false
		}
		col := s.Tableau[dst.Col]
		if dst.Row != len(col)-1 || !col[dst.Row].FaceUp {
			return false
		}
		target := col[dst.Row].Card
		return lead.Color() != target.Color() && lead.Rank == target.Rank-1

	case RefTableauPile:
		if src.Kind == RefTableauCard && src.Col == dst.Col {
			return false
		}
		return len(s.Tableau[dst.Col]) == 0 && lead.Rank == King
	}
	return false
}

// IsWon reports whether every foundation has been built up to its King.
func IsWon(s *GameState) bool {
	for i := range s.Foundations {
		if s.Foundations[i].TopRank != King {
			return false
		}
	}
	return true
}

// PossibleMoves lists the legal moves in s. Moves that cannot change the
// position meaningfully (a King already heading its column onto an empty
// column, shuffling a card between foundation stacks) are left out.
func PossibleMoves(s *GameState) []PossibleMove {
	var sources []EntityRef
	if s.StockIdx >= 0 {
		sources = append(sources, StockRevealRef())
	}
	for i := range s.Foundations {
		if !s.Foundations[i].Empty() {
			sources = append(sources, FoundationRef(i))
		}
	}
	for col := range s.Tableau {
		for row, slot := range s.Tableau[col] {
			if slot.FaceUp {
				sources = append(sources, TableauCardRef(col, row))
			}
		}
	}

	// Empty foundations and empty columns are interchangeable targets, so
	// only the first of each is offered.
	var targets []EntityRef
	emptyStack, emptyCol := false, false
	for i := range s.Foundations {
		if s.Foundations[i].Empty() {
			if emptyStack {
				continue
			}
			emptyStack = true
		}
		targets = append(targets, FoundationRef(i))
	}
	for col := range s.Tableau {
		if n := len(s.Tableau[col]); n > 0 {
			targets = append(targets, TableauCardRef(col, n-1))
		} else if !emptyCol {
			emptyCol = true
			targets = append(targets, TableauPileRef(col))
		}
	}

	moves := []PossibleMove{}
	for _, from := range sources {
		for _, to := range targets {
			if from.Kind == RefFoundation && to.Kind == RefFoundation {
				continue
			}
			if from.Kind == RefTableauCard && from.Row == 0 && to.Kind == RefTableauPile {
				continue
			}
			if IsLegal(s, from, to) {
				moves = append(moves, PossibleMove{From: from, To: to, Cards: s.sourceCards(from)})
			}
		}
	}
	return moves
}
