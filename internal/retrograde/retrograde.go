// Package retrograde implements the level-synchronous backward BFS of
// spec.md §4.6 — the algorithmic heart of the tablebase build. Starting
// from the classifier's mate-in-zero frontier, it repeatedly walks one
// ply backward through the parents() relation until a level produces no
// newly resolved positions.
//
// Each level is embarrassingly parallel (spec.md §5): the frontier is
// chunked across a worker pool exactly like internal/classify's sweep,
// each worker accumulating its own local next-level buffer, merged only
// once every worker in the level has quiesced — the "barrier" spec.md
// describes, expressed the same way internal/engine's Lazy SMP workers
// fan out and rejoin, but with golang.org/x/sync/errgroup driving each
// level instead of a raw sync.WaitGroup.
package retrograde

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
	"github.com/CarloWood/infchessKRvK-sub000/internal/movegen"
	"github.com/CarloWood/infchessKRvK-sub000/internal/position"
	"github.com/CarloWood/infchessKRvK-sub000/internal/record"
)

// entry identifies one resolved position: its PositionIndex and the side
// whose record array it lives in.
type entry struct {
	idx  int
	side position.Side
}

// Result summarizes a completed build.
type Result struct {
	// MaxPly is the highest ply resolved by any position (the ply of the
	// last non-empty level), or -1 if the frontier was already empty.
	MaxPly int
	// LevelSizes[k] is the number of positions resolved at ply k.
	LevelSizes []int
}

// Run drives the backward BFS to completion. initialFrontier holds the
// Black-to-move, mate-in-zero PositionIndex values the classifier pass
// produced. workers <= 0 defaults to runtime.GOMAXPROCS(0).
func Run(ctx context.Context, d geometry.Dims, store record.Store, initialFrontier []int, workers int) (Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	level := make([]entry, len(initialFrontier))
	for i, idx := range initialFrontier {
		level[i] = entry{idx: idx, side: position.Black}
	}

	result := Result{MaxPly: -1}
	for k := 0; len(level) > 0; k++ {
		next, err := resolveLevel(ctx, d, store, level, k, workers)
		if err != nil {
			return result, err
		}
		result.MaxPly = k
		result.LevelSizes = append(result.LevelSizes, len(level))
		level = next
	}
	return result, nil
}

// resolveLevel processes one BFS level (all positions resolved at ply
// k) and returns the positions newly resolved at ply k+1.
func resolveLevel(ctx context.Context, d geometry.Dims, store record.Store, level []entry, k int, workers int) ([]entry, error) {
	g, ctx := errgroup.WithContext(ctx)
	buffers := make([][]entry, workers)

	for w := 0; w < workers; w++ {
		w := w
		lo, hi := chunkRange(len(level), workers, w)
		g.Go(func() error {
			local := make([]entry, 0, hi-lo)
			for i := lo; i < hi; i++ {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				local = resolveOne(d, store, level[i], k, local)
			}
			buffers[w] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, b := range buffers {
		total += len(b)
	}
	next := make([]entry, 0, total)
	for _, b := range buffers {
		next = append(next, b...)
	}
	return next, nil
}

// resolveOne walks the parents of one resolved child and appends any
// parent newly resolved at ply k+1 to next.
func resolveOne(d geometry.Dims, store record.Store, child entry, k int, next []entry) []entry {
	pos := position.FromIndex(d, child.idx, child.side)

	for _, parentPos := range movegen.Parents(d, pos) {
		parentIdx := parentPos.Index(d)
		parentSide := parentPos.Side
		parentRecord := store.Get(parentSide, parentIdx)

		if parentRecord.Classification&record.ClassLegal == 0 {
			continue
		}

		if parentRecord.Classification&record.ClassDraw != 0 {
			continue
		}

		if parentSide == position.White {
			// White picks the minimum: the first mate-in-(k+1) reachable
			// wins, any later visit is a no-op.
			if store.AtomicCompareAndSetPly(parentSide, parentIdx, k+1) {
				next = append(next, entry{idx: parentIdx, side: parentSide})
			}
			continue
		}

		// Black picks the maximum: ply is only fixed once every
		// non-drawn child has been resolved, at which point it is
		// necessarily the max child ply (BFS resolves children in
		// non-decreasing ply order).
		if store.AtomicIncrementVisited(parentSide, parentIdx) == parentRecord.Children {
			store.AtomicCompareAndSetPly(parentSide, parentIdx, k+1)
			next = append(next, entry{idx: parentIdx, side: parentSide})
		}
	}
	return next
}

func chunkRange(n, workers, w int) (lo, hi int) {
	if workers <= 0 {
		workers = 1
	}
	base := n / workers
	rem := n % workers
	lo = w*base + minInt(w, rem)
	hi = lo + base
	if w < rem {
		hi++
	}
	return lo, hi
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
