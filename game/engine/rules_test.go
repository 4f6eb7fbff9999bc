package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMoveableGroup(t *testing.T) {
	tests := []struct {
		name  string
		slots []Slot
		want  bool
	}{
		{"empty", nil, false},
		{"single face up", []Slot{up(t, "5H")}, true},
		{"single face down", []Slot{down(t, "5H")}, false},
		{"alternating run", []Slot{up(t, "KS"), up(t, "QH"), up(t, "JC")}, true},
		{"same color", []Slot{up(t, "9S"), up(t, "8C")}, false},
		{"gap in rank", []Slot{up(t, "9S"), up(t, "7H")}, false},
		{"ascending", []Slot{up(t, "7H"), up(t, "8S")}, false},
		{"face down inside", []Slot{up(t, "9S"), down(t, "8H")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMoveableGroup(tt.slots))
		})
	}
}

func TestIsLegal(t *testing.T) {
	var b boardSpec
	b.tableau[0] = []Slot{down(t, "3C"), up(t, "8H"), up(t, "7S")}
	b.tableau[1] = []Slot{up(t, "9C")}
	b.tableau[2] = []Slot{up(t, "KD")}
	b.tableau[3] = []Slot{up(t, "AS")}
	b.tableau[4] = []Slot{up(t, "6H"), up(t, "6D")}
	b.foundations[0] = suitRun(Hearts, Five)
	b.revealed = "8D"
	s := buildState(t, b)

	tests := []struct {
		name     string
		src, dst EntityRef
		want     bool
	}{
		{"run onto opposite color", TableauCardRef(0, 1), TableauCardRef(1, 0), true},
		{"single onto same color", TableauCardRef(0, 2), TableauCardRef(1, 0), false},
		{"face-down source", TableauCardRef(0, 0), TableauCardRef(1, 0), false},
		{"broken run source", TableauCardRef(4, 0), TableauCardRef(1, 0), false},
		{"onto covered card", TableauCardRef(1, 0), TableauCardRef(0, 1), false},
		{"same column", TableauCardRef(0, 2), TableauCardRef(0, 1), false},
		{"stock onto tableau", StockRevealRef(), TableauCardRef(1, 0), true},
		{"king to empty column", TableauCardRef(2, 0), TableauPileRef(6), true},
		{"non-king to empty column", TableauCardRef(1, 0), TableauPileRef(6), false},
		{"onto non-empty column pile", TableauCardRef(2, 0), TableauPileRef(1), false},
		{"ace to empty foundation", TableauCardRef(3, 0), FoundationRef(1), true},
		{"wrong suit on foundation", TableauCardRef(4, 1), FoundationRef(0), false},
		{"covered card to foundation", TableauCardRef(4, 0), FoundationRef(0), false},
		{"group to foundation", TableauCardRef(0, 1), FoundationRef(1), false},
		{"foundation top to tableau", FoundationRef(0), TableauCardRef(1, 0), false},
		{"stock onto foundation", StockRevealRef(), FoundationRef(0), false},
		{"empty foundation source", FoundationRef(2), TableauPileRef(6), false},
		{"hidden stock source", StockHiddenRef(), FoundationRef(1), false},
		{"same ref", TableauCardRef(1, 0), TableauCardRef(1, 0), false},
		{"out of range", TableauCardRef(7, 0), TableauPileRef(6), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLegal(s, tt.src, tt.dst))
		})
	}
}

func TestIsLegalDoesNotMutate(t *testing.T) {
	s := buildState(t, boardSpec{revealed: "AC"})
	before := *s

	IsLegal(s, StockRevealRef(), FoundationRef(0))
	IsLegal(s, StockRevealRef(), TableauPileRef(0))

	assert.Equal(t, before, *s)
}

func TestFoundationSuitResets(t *testing.T) {
	var b boardSpec
	b.foundations[0] = suitRun(Spades, Ace)
	s := buildState(t, b)

	_, err := Execute(s, FoundationRef(0), FoundationRef(3))
	require.NoError(t, err)
	assert.Equal(t, NoSuit, s.Foundations[0].Suit)
	assert.Equal(t, NoRank, s.Foundations[0].TopRank)
	assert.Equal(t, Spades, s.Foundations[3].Suit)
	assert.NoError(t, CheckInvariants(s))
}

func TestExecuteRejectsIllegalMove(t *testing.T) {
	s := buildState(t, boardSpec{revealed: "5C"})

	_, err := Execute(s, StockRevealRef(), FoundationRef(0))
	var noop *NoOpError
	require.ErrorAs(t, err, &noop)
	assert.Equal(t, StockRevealRef(), noop.From)
	assert.Equal(t, 0, s.StockIdx)
	assert.Equal(t, 0, s.Moves)
}

func TestPossibleMoves(t *testing.T) {
	var b boardSpec
	b.tableau[0] = []Slot{up(t, "KH")}
	b.tableau[1] = []Slot{up(t, "AS")}
	b.tableau[2] = []Slot{down(t, "4C"), up(t, "QS")}
	b.revealed = "JD"
	s := buildState(t, b)

	moves := PossibleMoves(s)

	has := func(from, to EntityRef) bool {
		for _, m := range moves {
			if m.From == from && m.To == to {
				return true
			}
		}
		return false
	}
	assert.True(t, has(TableauCardRef(1, 0), FoundationRef(0)))
	assert.False(t, has(TableauCardRef(1, 0), FoundationRef(1)), "only the first empty foundation is offered")
	assert.True(t, has(TableauCardRef(2, 1), TableauCardRef(0, 0)))
	assert.True(t, has(StockRevealRef(), TableauCardRef(2, 1)))
	assert.False(t, has(TableauCardRef(2, 1), TableauPileRef(3)), "queen cannot start a column")
	assert.False(t, has(TableauCardRef(0, 0), TableauPileRef(3)), "king already heads its column")

	for _, m := range moves {
		assert.True(t, IsLegal(s, m.From, m.To), "%s -> %s", m.From, m.To)
		assert.NotEmpty(t, m.Cards)
	}
}
