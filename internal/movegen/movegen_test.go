package movegen

import (
	"testing"

	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
	"github.com/CarloWood/infchessKRvK-sub000/internal/position"
	"github.com/CarloWood/infchessKRvK-sub000/internal/predicate"
)

func sq(x, y int) position.Square { return position.Square{X: x, Y: y} }

func dims5(t *testing.T) geometry.Dims {
	t.Helper()
	d, err := geometry.New(5, 5, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// spec.md §8 scenario: bk=(0,0), wk=(2,0), wr=(0,2), Black to move: mate,
// so Black has no children at all.
func TestChildrenEmptyAtMate(t *testing.T) {
	d := dims5(t)
	p := position.Position{BlackKing: sq(0, 0), WhiteKing: sq(2, 0), WhiteRook: sq(0, 2), Side: position.Black}
	if got := Children(d, p); len(got) != 0 {
		t.Fatalf("expected no children at mate, got %v", got)
	}
}

func TestChildrenAreLegal(t *testing.T) {
	d := dims5(t)
	for _, p := range []position.Position{
		{BlackKing: sq(4, 4), WhiteKing: sq(0, 0), WhiteRook: sq(0, 4), Side: position.Black},
		{BlackKing: sq(4, 4), WhiteKing: sq(0, 0), WhiteRook: sq(0, 4), Side: position.White},
		{BlackKing: sq(2, 2), WhiteKing: sq(0, 0), WhiteRook: sq(4, 0), Side: position.White},
	} {
		for _, c := range Children(d, p) {
			if !predicate.IsLegal(d, c.BlackKing, c.WhiteKing, c.WhiteRook, c.Side) {
				t.Errorf("Children(%v) produced illegal position %v", p, c)
			}
			if c.Side != p.Side.Other() {
				t.Errorf("Children(%v) produced %v with wrong side to move", p, c)
			}
		}
	}
}

// spec.md §8 property 4: p in parents(c, side) iff c in children(p, other_side).
func TestParentChildSymmetry(t *testing.T) {
	d := dims5(t)

	var allLegal []position.Position
	for bkx := 0; bkx < d.BoardX; bkx++ {
		for bky := 0; bky < d.BoardY; bky++ {
			for wkx := 0; wkx < d.BoardX; wkx++ {
				for wky := 0; wky < d.BoardY; wky++ {
					for wrx := 0; wrx < d.BoardX; wrx++ {
						for wry := 0; wry < d.BoardY; wry++ {
							bk, wk, wr := sq(bkx, bky), sq(wkx, wky), sq(wrx, wry)
							for _, side := range []position.Side{position.White, position.Black} {
								if predicate.IsLegal(d, bk, wk, wr, side) {
									allLegal = append(allLegal, position.Position{BlackKing: bk, WhiteKing: wk, WhiteRook: wr, Side: side})
								}
							}
						}
					}
				}
			}
		}
	}

	// Build the forward relation once, then check every parent-edge found
	// by Parents() is also present going forward via Children().
	forward := make(map[position.Position]map[position.Position]bool)
	for _, p := range allLegal {
		for _, c := range Children(d, p) {
			if forward[p] == nil {
				forward[p] = make(map[position.Position]bool)
			}
			forward[p][c] = true
		}
	}

	checked := 0
	for _, c := range allLegal {
		for _, p := range Parents(d, c) {
			if !forward[p][c] {
				t.Fatalf("Parents(%v) returned %v, but c not in Children(p)", c, p)
			}
			checked++
		}
	}
	if checked == 0 {
		t.Fatal("no parent/child edges exercised on 5x5 board")
	}

	// And the converse: every forward edge must show up as a parent edge.
	for p, children := range forward {
		for c := range children {
			found := false
			for _, q := range Parents(d, c) {
				if q == p {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("Children(%v) includes %v, but p missing from Parents(c)", p, c)
			}
		}
	}
}

func TestWhiteKingCannotStepOntoOwnRook(t *testing.T) {
	d := dims5(t)
	p := position.Position{BlackKing: sq(4, 4), WhiteKing: sq(0, 0), WhiteRook: sq(0, 1), Side: position.White}
	for _, c := range whiteKingChildren(d, p) {
		if c.WhiteKing == p.WhiteRook {
			t.Fatalf("white king stepped onto its own rook: %v", c)
		}
	}
}

func TestRookSlideStopsAtOwnKingAndCapturesBlackKing(t *testing.T) {
	d := dims5(t)
	// Rook at (0,0), white king blocking east at (2,0), black king at (0,3)
	// blocking north (capturable).
	targets := rookSlideTargets(d, sq(0, 0), sq(2, 0), sq(0, 3))
	want := map[position.Square]bool{
		sq(1, 0): true,
		sq(0, 1): true, sq(0, 2): true, sq(0, 3): true,
	}
	got := make(map[position.Square]bool)
	for _, sqr := range targets {
		got[sqr] = true
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for s := range want {
		if !got[s] {
			t.Errorf("missing expected target %v", s)
		}
	}
	if got[sq(2, 0)] || got[sq(0, 4)] {
		t.Error("slide target set should not pass through or past the white king / black king")
	}
}
