package engine

import "fmt"

// NoOpError is returned by Execute when the requested move is not legal.
// The state is left untouched.
type NoOpError struct {
	From EntityRef
	To   EntityRef
}

func (e *NoOpError) Error() string {
	return fmt.Sprintf("illegal move from %s to %s", e.From, e.To)
}

// Transfer describes what Execute moved.
type Transfer struct {
	Cards    []Card
	Revealed *Card
}

// Execute moves cards from src to dst, clears the selection and counts one
// move. The card location index is updated for every pile it touches.
func Execute(s *GameState, src, dst EntityRef) (Transfer, error) {
	if !IsLegal(s, src, dst) {
		return Transfer{}, &NoOpError{From: src, To: dst}
	}
	src, dst = src.Normalize(), dst.Normalize()

	var t Transfer
	switch src.Kind {
	case RefStockReveal:
		c := s.Stock[s.StockIdx].Card
		s.Stock = append(s.Stock[:s.StockIdx], s.Stock[s.StockIdx+1:]...)
		s.StockIdx--
		s.indexStock()
		t.Cards = []Card{c}

	case RefFoundation:
		t.Cards = []Card{s.Foundations[src.Stack].pop()}

	case RefTableauCard:
		col := s.Tableau[src.Col]
		for _, slot := range col[src.Row:] {
			t.Cards = append(t.Cards, slot.Card)
		}
		s.Tableau[src.Col] = col[:src.Row]
		t.Revealed = s.revealLast(src.Col)
	}

	switch dst.Kind {
	case RefFoundation:
		s.Foundations[dst.Stack].push(t.Cards[0])
		s.indexFoundation(dst.Stack)

	case RefTableauCard, RefTableauPile:
		for _, c := range t.Cards {
			s.Tableau[dst.Col] = append(s.Tableau[dst.Col], Slot{Card: c, FaceUp: true})
		}
		s.indexColumn(dst.Col)
	}

	s.Selection = NoRef()
	s.Moves++
	s.Won = IsWon(s)
	return t, nil
}

// revealLast turns the last card of a column face up and returns it when it
// was face down.
func (s *GameState) revealLast(col int) *Card {
	n := len(s.Tableau[col])
	if n == 0 || s.Tableau[col][n-1].FaceUp {
		return nil
	}
	s.Tableau[col][n-1].FaceUp = true
	c := s.Tableau[col][n-1].Card
	return &c
}

// Draw advances the stock cursor by one. Past the last card the cursor
// wraps to -1 and the whole stock turns face down again in its current
// order. It reports whether the stock was recycled.
func (s *GameState) Draw() bool {
	s.StockIdx++
	recycled := s.StockIdx >= len(s.Stock)
	if recycled {
		s.StockIdx = -1
		for i := range s.Stock {
			s.Stock[i].FaceUp = false
		}
	} else {
		s.Stock[s.StockIdx].FaceUp = true
	}
	s.Selection = NoRef()
	s.Moves++
	return recycled
}
