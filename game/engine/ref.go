package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRef is returned when an entity reference cannot be decoded.
var ErrInvalidRef = errors.New("invalid entity reference")

// RefKind tags the pile an EntityRef points at.
type RefKind int

const (
	RefNone RefKind = iota
	RefStockReveal
	RefStockHidden
	RefFoundation
	RefTableauCard
	RefTableauPile
)

var refKindNames = [...]string{"none", "stock_reveal", "stock_hidden", "foundation", "tableau_card", "tableau_pile"}

func (k RefKind) String() string {
	if k < RefNone || k > RefTableauPile {
		return "unknown"
	}
	return refKindNames[k]
}

func (k RefKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *RefKind) UnmarshalText(text []byte) error {
	parsed, err := ParseRefKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseRefKind parses a kind name; an empty string is RefNone.
func ParseRefKind(s string) (RefKind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return RefNone, nil
	}
	for i, name := range refKindNames {
		if v == name {
			return RefKind(i), nil
		}
	}
	return RefNone, fmt.Errorf("%w: unknown kind %q", ErrInvalidRef, s)
}

// EntityRef identifies a clicked pile or card. Only the locator fields that
// belong to Kind are meaningful: Stack for RefFoundation, Col and Row for
// RefTableauCard, Col for RefTableauPile.
type EntityRef struct {
	Kind  RefKind `json:"kind"`
	Stack int     `json:"stack,omitempty"`
	Col   int     `json:"col,omitempty"`
	Row   int     `json:"row,omitempty"`
}

func NoRef() EntityRef          { return EntityRef{Kind: RefNone} }
func StockRevealRef() EntityRef { return EntityRef{Kind: RefStockReveal} }
func StockHiddenRef() EntityRef { return EntityRef{Kind: RefStockHidden} }

func FoundationRef(stack int) EntityRef {
	return EntityRef{Kind: RefFoundation, Stack: stack}
}

func TableauCardRef(col, row int) EntityRef {
	return EntityRef{Kind: RefTableauCard, Col: col, Row: row}
}

func TableauPileRef(col int) EntityRef {
	return EntityRef{Kind: RefTableauPile, Col: col}
}

// Normalize zeroes the locator fields that do not belong to the ref's kind so
// that two refs to the same entity compare equal.
func (r EntityRef) Normalize() EntityRef {
	switch r.Kind {
	case RefFoundation:
		return FoundationRef(r.Stack)
	case RefTableauCard:
		return TableauCardRef(r.Col, r.Row)
	case RefTableauPile:
		return TableauPileRef(r.Col)
	case RefStockReveal, RefStockHidden:
		return EntityRef{Kind: r.Kind}
	default:
		return NoRef()
	}
}

// Valid reports whether the locator fields are within board bounds.
func (r EntityRef) Valid() bool {
	switch r.Kind {
	case RefNone, RefStockReveal, RefStockHidden:
		return true
	case RefFoundation:
		return r.Stack >= 0 && r.Stack < FoundationCount
	case RefTableauCard:
		return r.Col >= 0 && r.Col < TableauColumns && r.Row >= 0
	case RefTableauPile:
		return r.Col >= 0 && r.Col < TableauColumns
	}
	return false
}

// IsNone reports whether the ref points at nothing.
func (r EntityRef) IsNone() bool {
	return r.Kind == RefNone
}

func (r EntityRef) String() string {
	switch r.Kind {
	case RefFoundation:
		return fmt.Sprintf("foundation(%d)", r.Stack)
	case RefTableauCard:
		return fmt.Sprintf("tableau_card(%d,%d)", r.Col, r.Row)
	case RefTableauPile:
		return fmt.Sprintf("tableau_pile(%d)", r.Col)
	}
	return r.Kind.String()
}
