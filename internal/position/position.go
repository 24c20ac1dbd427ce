// Package position defines the KRK position value type and its mapping
// to the dense PositionIndex space described in geometry.
package position

import (
	"fmt"

	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
)

// Side is the color to move.
type Side uint8

const (
	White Side = iota
	Black
)

// Other returns the opposing side.
func (s Side) Other() Side {
	return s ^ 1
}

// String returns the side name.
func (s Side) String() string {
	if s == White {
		return "White"
	}
	return "Black"
}

// Position is a KRK position: the black king, the white king, the white
// rook, and whose move it is. It is a value type — it is never stored
// standalone, only identified by its Index (see geometry.Dims.PositionIndex).
type Position struct {
	BlackKing Square
	WhiteKing Square
	WhiteRook Square
	Side      Side
}

// Square is a re-export of geometry.Square for callers that only need
// position.Position without importing geometry directly.
type Square = geometry.Square

// Index returns the dense PositionIndex for this position under d. The
// Side is not part of the index: the Record Store keeps one array per side.
func (p Position) Index(d geometry.Dims) int {
	return d.PositionIndex(p.BlackKing, p.WhiteKing, p.WhiteRook)
}

// FromIndex reconstructs a Position from a PositionIndex and an explicit
// side (the side is a separate array selector, not encoded in the index).
func FromIndex(d geometry.Dims, idx int, side Side) Position {
	bk, wk, wr := d.DecodePositionIndex(idx)
	return Position{BlackKing: bk, WhiteKing: wk, WhiteRook: wr, Side: side}
}

// String renders the position for diagnostics, e.g. "bk=a1 wk=c3 wr=h8 White to move".
func (p Position) String() string {
	return fmt.Sprintf("bk=%s wk=%s wr=%s %s to move", p.BlackKing, p.WhiteKing, p.WhiteRook, p.Side)
}
