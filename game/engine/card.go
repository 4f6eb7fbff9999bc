package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCard is returned when card text cannot be parsed.
var ErrInvalidCard = errors.New("invalid card")

// Suit identifies one of the four French suits. Suits are ordered the way
// card IDs are laid out: clubs, spades, diamonds, hearts.
type Suit int

// NoSuit marks a foundation stack that has no suit assigned yet.
const NoSuit Suit = -1

const (
	Clubs Suit = iota
	Spades
	Diamonds
	Hearts
)

var suitNames = [...]string{"clubs", "spades", "diamonds", "hearts"}
var suitSymbols = [...]string{"C", "S", "D", "H"}

// Valid reports whether s is one of the four real suits.
func (s Suit) Valid() bool {
	return s >= Clubs && s <= Hearts
}

func (s Suit) String() string {
	if !s.Valid() {
		return "none"
	}
	return suitNames[s]
}

// Symbol returns the one-letter suit code used in card text ("C", "S", "D", "H").
func (s Suit) Symbol() string {
	if !s.Valid() {
		return "?"
	}
	return suitSymbols[s]
}

// Color returns the suit color.
func (s Suit) Color() Color {
	if s == Clubs || s == Spades {
		return Black
	}
	return Red
}

// MarshalText encodes the suit by name; an unassigned suit encodes as "".
func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return []byte(""), nil
	}
	return []byte(suitNames[s]), nil
}

// UnmarshalText accepts suit names, one-letter codes, or "" for NoSuit.
func (s *Suit) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	if v == "" || v == "none" {
		*s = NoSuit
		return nil
	}
	for i, name := range suitNames {
		if v == name || v == strings.ToLower(suitSymbols[i]) {
			*s = Suit(i)
			return nil
		}
	}
	return fmt.Errorf("invalid suit %q", string(text))
}

// Color is the card color used by the alternating-color tableau rule.
type Color int

const (
	Black Color = iota
	Red
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

// Rank is encoded 0..12, Ace through King.
type Rank int

// NoRank is the top rank of an empty foundation stack.
const NoRank Rank = -1

const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankNames = [...]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Valid reports whether r is between Ace and King.
func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

func (r Rank) String() string {
	if !r.Valid() {
		return "-"
	}
	return rankNames[r]
}

const (
	// RanksPerSuit is the number of ranks in each suit.
	RanksPerSuit = 13
	// DeckSize is the number of cards in a full deck.
	DeckSize = 52
)

// Card is an immutable suit/rank pair. Face-up state is owned by the pile
// slot holding the card, not by the card itself.
type Card struct {
	Suit Suit
	Rank Rank
}

// CardFromID returns the card with the given catalog ID (0..51).
func CardFromID(id int) Card {
	return Card{Suit: Suit(id / RanksPerSuit), Rank: Rank(id % RanksPerSuit)}
}

// ID returns the card's position in the catalog, suit-major.
func (c Card) ID() int {
	return int(c.Suit)*RanksPerSuit + int(c.Rank)
}

// Valid reports whether both suit and rank are in range.
func (c Card) Valid() bool {
	return c.Suit.Valid() && c.Rank.Valid()
}

// Color returns the color of the card's suit.
func (c Card) Color() Color {
	return c.Suit.Color()
}

// String renders the card as rank then suit symbol, e.g. "10H" or "KS".
func (c Card) String() string {
	return c.Rank.String() + c.Suit.Symbol()
}

func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card %d/%d", c.Suit, c.Rank)
	}
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard parses card text such as "AS", "10h", "Td" or "kc".
func ParseCard(s string) (Card, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if len(v) < 2 {
		return Card{}, fmt.Errorf("%w %q", ErrInvalidCard, s)
	}

	suitCode := v[len(v)-1:]
	rankCode := v[:len(v)-1]
	if rankCode == "T" {
		rankCode = "10"
	}

	suit := NoSuit
	for i, sym := range suitSymbols {
		if sym == suitCode {
			suit = Suit(i)
			break
		}
	}
	if suit == NoSuit {
		return Card{}, fmt.Errorf("%w %q: unknown suit %q", ErrInvalidCard, s, suitCode)
	}

	for i, name := range rankNames {
		if name == rankCode {
			return Card{Suit: suit, Rank: Rank(i)}, nil
		}
	}
	return Card{}, fmt.Errorf("%w %q: unknown rank %q", ErrInvalidCard, s, rankCode)
}

// NewDeck returns the 52-card catalog ordered by ID.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for id := 0; id < DeckSize; id++ {
		deck = append(deck, CardFromID(id))
	}
	return deck
}
