// Package predicate implements the pure, search-free position predicates
// of spec.md §4.2: legality, check, mate/stalemate, and immediate draw.
//
// The edge/corner case analysis in BlackHasMoves and the virtual-edge rule
// in IsDraw are ported from original_source/src/version2/Board.cxx
// (black_has_moves, determine_check, determine_legal, determine_mate,
// determine_draw) — the prior C++ implementation this specification was
// distilled from — which is the authoritative resolution for the cases
// spec.md describes only in prose.
package predicate

import (
	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
	"github.com/CarloWood/infchessKRvK-sub000/internal/position"
)

// Mate classifies the outcome of a Black-to-move position that has already
// been determined legal.
type Mate int

const (
	NoMate Mate = iota
	Stalemate
	Checkmate
)

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// IsCheck reports whether the white rook has a direct line of sight to the
// black king, unobstructed by the white king. It works on any position,
// legal or not, and does not depend on whose move it is.
func IsCheck(d geometry.Dims, bk, wk, wr geometry.Square) bool {
	sameFile := bk.X == wr.X
	sameRow := bk.Y == wr.Y
	if sameFile == sameRow {
		// Both true: the rook occupies the king's square (captured). Both
		// false: not on a shared line. Neither is check.
		return false
	}

	bkx, bky := bk.X, bk.Y
	wkx, wky := wk.X, wk.Y
	wrx, wry := wr.X, wr.Y
	if !sameRow {
		bkx, bky = bky, bkx
		wkx, wky = wky, wkx
		wrx, wry = wry, wrx
	}

	if wky != bky {
		return true
	}

	minX, maxX := bkx, wrx
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	return !(minX < wkx && wkx < maxX)
}

// IsLegal reports whether (bk, wk, wr) is a legal position with side to move.
func IsLegal(d geometry.Dims, bk, wk, wr geometry.Square, side position.Side) bool {
	if bk.ChebyshevDistance(wk) <= 1 {
		return false
	}
	if wr == wk {
		return false
	}
	if wr == bk {
		// Black just captured the rook; only sensible with White to move next.
		return side == position.White
	}
	if side == position.Black {
		return true
	}
	return !IsCheck(d, bk, wk, wr)
}

// BlackHasMoves reports whether the black king has at least one legal
// king move, without generating moves. It assumes the position is legal
// and it is Black's turn.
func BlackHasMoves(d geometry.Dims, bk, wk, wr geometry.Square) bool {
	bkx, bky := bk.X, bk.Y
	wkx, wky := wk.X, wk.Y
	wrx, wry := wr.X, wr.Y
	boardX, boardY := d.BoardX, d.BoardY

	if bkx > 0 && bky > 0 {
		return true
	}

	// Flip the axes if the king is against the top/bottom edge instead of
	// the left/right edge, so the rest of the analysis only has to handle
	// one edge.
	if bkx != 0 {
		bkx, bky = bky, bkx
		wkx, wky = wky, wkx
		wrx, wry = wry, wrx
		boardX, boardY = boardY, boardX
	}
	_ = boardX // kept for symmetry with the ported source; unused past this point.

	if bky != 0 {
		// Against the left edge, not in a corner. Only mate/stalemate if the
		// white king directly opposes across two files.
		if wkx != 2 || wky != bky {
			return true
		}
		// White rook must also be against the left edge to cut off the file.
		if wrx != 0 {
			return true
		}
		// Mate unless the black king can capture the rook.
		return absInt(bky-wry) <= 1
	}

	// Black king in the corner (0, 0).
	if wkx > 2 || wky > 2 {
		return true
	}

	if wrx == 1 && wry == 1 {
		return false
	}

	switch {
	case wky == 0:
		return !((wrx == 0 && wry > 1) || (wrx > 0 && wry == 1))
	case wky == 1:
		return !(wrx == 0 && wry > 1)
	case wkx == 1:
		return !(wrx > 1 && wry == 0)
	case wkx == 0:
		return !((wrx > 1 && wry == 0) || (wrx == 1 && wry > 0))
	}

	return true
}

// DetermineMate classifies a legal position. Only Black-to-move positions
// can be mate or stalemate.
func DetermineMate(d geometry.Dims, bk, wk, wr geometry.Square, side position.Side) Mate {
	if side != position.Black {
		return NoMate
	}
	if BlackHasMoves(d, bk, wk, wr) {
		return NoMate
	}
	if IsCheck(d, bk, wk, wr) {
		return Checkmate
	}
	return Stalemate
}

// IsDraw reports whether a legal position is an immediate draw: for White
// to move, the rook has been captured; for Black to move, it is stalemate
// or the black king has reached the far ("virtual") edge from which White
// cannot simultaneously cover both escape squares.
func IsDraw(d geometry.Dims, bk, wk, wr geometry.Square, side position.Side) bool {
	if side == position.White {
		return bk == wr
	}

	if DetermineMate(d, bk, wk, wr, side) == Stalemate {
		return true
	}

	bkx, bky := bk.X, bk.Y
	wkx, wky := wk.X, wk.Y
	wrx, wry := wr.X, wr.Y
	boardX, boardY := d.BoardX, d.BoardY

	if bkx == boardX-1 {
		bkx, bky = bky, bkx
		wkx, wky = wky, wkx
		wrx, wry = wry, wrx
		boardX, boardY = boardY, boardX
	}

	if bky != boardY-1 {
		return false
	}

	return !(bkx == 0 && wkx == 2 && wky == boardY-1 && wrx == 0)
}

// BlackHasMovesBruteForce is the debug cross-check for BlackHasMoves,
// called out in spec.md §9: it enumerates the black king's up-to-8 step
// squares directly and tests legality, instead of relying on the
// edge/corner lookup table above. It does not depend on the move
// generator package, so it stays usable as an independent witness.
func BlackHasMovesBruteForce(d geometry.Dims, bk, wk, wr geometry.Square) bool {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			next := geometry.Square{X: bk.X + dx, Y: bk.Y + dy}
			if !d.InBounds(next.X, next.Y) {
				continue
			}
			if next == wr {
				// Capturing the rook is legal; it's White to move next.
				if IsLegal(d, next, wk, next, position.White) {
					return true
				}
				continue
			}
			if IsLegal(d, next, wk, wr, position.White) {
				return true
			}
		}
	}
	return false
}
