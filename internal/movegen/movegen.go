// Package movegen enumerates forward children and backward parents of a
// KRK position, per spec.md §4.3. It generates moves directly by stepping
// candidate squares rather than through attack tables: at 64x64 scale the
// rook's sliding range isn't a fixed small attack table the way it is on
// an 8x8 board, so direct stepping (in the style of
// internal/board/movegen.go's slide loops, generalized past a fixed board
// size) is the natural fit.
package movegen

import (
	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
	"github.com/CarloWood/infchessKRvK-sub000/internal/position"
	"github.com/CarloWood/infchessKRvK-sub000/internal/predicate"
)

var kingDeltas = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

var rookDirections = [4][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
}

// Children returns every legal position reachable in one ply from p.
func Children(d geometry.Dims, p position.Position) []position.Position {
	if p.Side == position.Black {
		return blackKingChildren(d, p)
	}
	return append(whiteKingChildren(d, p), whiteRookChildren(d, p)...)
}

func blackKingChildren(d geometry.Dims, p position.Position) []position.Position {
	out := make([]position.Position, 0, 8)
	for _, delta := range kingDeltas {
		next := position.Square{X: p.BlackKing.X + delta[0], Y: p.BlackKing.Y + delta[1]}
		if !d.InBounds(next.X, next.Y) {
			continue
		}
		if predicate.IsLegal(d, next, p.WhiteKing, p.WhiteRook, position.White) {
			out = append(out, position.Position{BlackKing: next, WhiteKing: p.WhiteKing, WhiteRook: p.WhiteRook, Side: position.White})
		}
	}
	return out
}

func whiteKingChildren(d geometry.Dims, p position.Position) []position.Position {
	out := make([]position.Position, 0, 8)
	for _, delta := range kingDeltas {
		next := position.Square{X: p.WhiteKing.X + delta[0], Y: p.WhiteKing.Y + delta[1]}
		if !d.InBounds(next.X, next.Y) {
			continue
		}
		if next == p.WhiteRook {
			// The king cannot step onto its own rook.
			continue
		}
		if predicate.IsLegal(d, p.BlackKing, next, p.WhiteRook, position.Black) {
			out = append(out, position.Position{BlackKing: p.BlackKing, WhiteKing: next, WhiteRook: p.WhiteRook, Side: position.Black})
		}
	}
	return out
}

func whiteRookChildren(d geometry.Dims, p position.Position) []position.Position {
	out := make([]position.Position, 0, 16)
	for _, to := range rookSlideTargets(d, p.WhiteRook, p.WhiteKing, p.BlackKing) {
		if predicate.IsLegal(d, p.BlackKing, p.WhiteKing, to, position.Black) {
			out = append(out, position.Position{BlackKing: p.BlackKing, WhiteKing: p.WhiteKing, WhiteRook: to, Side: position.Black})
		}
	}
	return out
}

// rookSlideTargets enumerates the squares a rook on `from` can slide to,
// stopping before the white king (own piece, cannot be passed or
// captured) and stopping ON the black king (the only capturable piece,
// included then the slide in that direction ends).
func rookSlideTargets(d geometry.Dims, from, wk, bk position.Square) []position.Square {
	out := make([]position.Square, 0, d.BoardX+d.BoardY)
	for _, dir := range rookDirections {
		x, y := from.X, from.Y
		for {
			x += dir[0]
			y += dir[1]
			if !d.InBounds(x, y) {
				break
			}
			cur := position.Square{X: x, Y: y}
			if cur == wk {
				break
			}
			out = append(out, cur)
			if cur == bk {
				break
			}
		}
	}
	return out
}

// Parents returns every position from which a single move by the other
// color produces p.
func Parents(d geometry.Dims, p position.Position) []position.Position {
	if p.Side == position.Black {
		return whiteKingOrRookParents(d, p)
	}
	return blackKingParents(d, p)
}

// blackKingParents returns White-to-move positions from which a Black
// king move produces p (p has White to move).
func blackKingParents(d geometry.Dims, p position.Position) []position.Position {
	out := make([]position.Position, 0, 8)
	seen := make(map[position.Square]struct{}, 8)
	for _, delta := range kingDeltas {
		from := position.Square{X: p.BlackKing.X - delta[0], Y: p.BlackKing.Y - delta[1]}
		if !d.InBounds(from.X, from.Y) {
			continue
		}
		if _, dup := seen[from]; dup {
			continue
		}
		seen[from] = struct{}{}

		candidate := position.Position{BlackKing: from, WhiteKing: p.WhiteKing, WhiteRook: p.WhiteRook, Side: position.Black}
		if !predicate.IsLegal(d, candidate.BlackKing, candidate.WhiteKing, candidate.WhiteRook, candidate.Side) {
			continue
		}
		if containsPosition(blackKingChildren(d, candidate), p) {
			out = append(out, candidate)
		}
	}
	return out
}

// whiteKingOrRookParents returns Black-to-move positions from which a
// White king or rook move produces p (p has Black to move).
func whiteKingOrRookParents(d geometry.Dims, p position.Position) []position.Position {
	out := make([]position.Position, 0, 8+d.BoardX+d.BoardY)

	for _, delta := range kingDeltas {
		from := position.Square{X: p.WhiteKing.X - delta[0], Y: p.WhiteKing.Y - delta[1]}
		if !d.InBounds(from.X, from.Y) {
			continue
		}
		candidate := position.Position{BlackKing: p.BlackKing, WhiteKing: from, WhiteRook: p.WhiteRook, Side: position.White}
		if !predicate.IsLegal(d, candidate.BlackKing, candidate.WhiteKing, candidate.WhiteRook, candidate.Side) {
			continue
		}
		if containsPosition(whiteKingChildren(d, candidate), p) {
			out = append(out, candidate)
		}
	}

	for _, from := range rookSlideTargets(d, p.WhiteRook, p.WhiteKing, p.BlackKing) {
		candidate := position.Position{BlackKing: p.BlackKing, WhiteKing: p.WhiteKing, WhiteRook: from, Side: position.White}
		if !predicate.IsLegal(d, candidate.BlackKing, candidate.WhiteKing, candidate.WhiteRook, candidate.Side) {
			continue
		}
		if containsPosition(whiteRookChildren(d, candidate), p) {
			out = append(out, candidate)
		}
	}

	return dedupePositions(out)
}

func containsPosition(set []position.Position, target position.Position) bool {
	for _, q := range set {
		if q == target {
			return true
		}
	}
	return false
}

func dedupePositions(in []position.Position) []position.Position {
	seen := make(map[position.Position]struct{}, len(in))
	out := in[:0]
	for _, p := range in {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
