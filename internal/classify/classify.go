// Package classify implements the classifier pass of spec.md §4.5: a
// single parallel sweep over every (bk, wk, wr, side) position that
// fills in each record's classification and non-drawn child count, and
// collects the initial mate-in-zero frontier the retrograde BFS starts
// from.
//
// Work is chunked by contiguous PositionIndex ranges (one chunk per
// worker) rather than fanned out per position, the same granularity
// internal/engine.SearchWithLimits uses per search worker — except here
// the fan-out/fan-in is expressed with errgroup.Group instead of a raw
// sync.WaitGroup and result channel, since there is no streaming partial
// result to merge as the search progresses, only a final frontier.
package classify

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
	"github.com/CarloWood/infchessKRvK-sub000/internal/movegen"
	"github.com/CarloWood/infchessKRvK-sub000/internal/position"
	"github.com/CarloWood/infchessKRvK-sub000/internal/predicate"
	"github.com/CarloWood/infchessKRvK-sub000/internal/record"
)

// Result carries the classifier pass's output: the store has already
// been populated in place, and Frontier holds the Black-to-move, ply-0
// (mate) indices the retrograde BFS starts from.
type Result struct {
	Frontier []int
}

// Run classifies every position in store and returns the initial
// mate-in-zero frontier. workers <= 0 defaults to runtime.GOMAXPROCS(0).
func Run(ctx context.Context, d geometry.Dims, store record.Store, workers int) (Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	n := store.N()

	g, ctx := errgroup.WithContext(ctx)
	frontiers := make([][]int, workers)

	for w := 0; w < workers; w++ {
		w := w
		lo, hi := chunkRange(n, workers, w)
		g.Go(func() error {
			local := make([]int, 0, 64)
			for idx := lo; idx < hi; idx++ {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				local = classifyIndex(d, store, idx, local)
			}
			frontiers[w] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	total := 0
	for _, f := range frontiers {
		total += len(f)
	}
	merged := make([]int, 0, total)
	for _, f := range frontiers {
		merged = append(merged, f...)
	}
	return Result{Frontier: merged}, nil
}

// chunkRange returns the half-open [lo, hi) index range worker w owns
// out of n indices split as evenly as possible across `workers` workers.
func chunkRange(n, workers, w int) (lo, hi int) {
	base := n / workers
	rem := n % workers
	lo = w*base + min(w, rem)
	hi = lo + base
	if w < rem {
		hi++
	}
	return lo, hi
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func classifyIndex(d geometry.Dims, store record.Store, idx int, frontier []int) []int {
	bk, wk, wr := d.DecodePositionIndex(idx)

	for _, side := range [2]position.Side{position.Black, position.White} {
		c, mate := classifyOne(d, bk, wk, wr, side)
		if c == 0 {
			continue // illegal: record stays zeroed
		}
		store.SetClassification(side, idx, c)

		if c&record.ClassDraw == 0 {
			children := movegen.Children(d, position.Position{BlackKing: bk, WhiteKing: wk, WhiteRook: wr, Side: side})
			nonDrawn := 0
			for _, ch := range children {
				if !predicate.IsDraw(d, ch.BlackKing, ch.WhiteKing, ch.WhiteRook, ch.Side) {
					nonDrawn++
				}
			}
			store.SetChildren(side, idx, nonDrawn)
		}

		if mate {
			store.AtomicCompareAndSetPly(side, idx, 0)
			frontier = append(frontier, idx)
		}
	}
	return frontier
}

// classifyOne computes the classification bitmask for one (bk, wk, wr,
// side) position per spec.md §4.2/§4.5, and reports whether it is a
// mate (the only case that seeds the retrograde BFS frontier).
func classifyOne(d geometry.Dims, bk, wk, wr geometry.Square, side position.Side) (record.Classification, bool) {
	if !predicate.IsLegal(d, bk, wk, wr, side) {
		return 0, false
	}

	c := record.ClassLegal
	if predicate.IsCheck(d, bk, wk, wr) {
		c |= record.ClassCheck
	}

	mate := predicate.DetermineMate(d, bk, wk, wr, side)
	switch mate {
	case predicate.Checkmate:
		c |= record.ClassMate
	case predicate.Stalemate:
		c |= record.ClassStalemate
	}

	if predicate.IsDraw(d, bk, wk, wr, side) {
		c |= record.ClassDraw
	}

	return c, mate == predicate.Checkmate
}
