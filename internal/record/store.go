package record

import (
	"fmt"

	"github.com/CarloWood/infchessKRvK-sub000/internal/position"
)

// Store is the record array pair (one per side to move), addressed by
// PositionIndex, with the atomic mutators the retrograde BFS (spec.md
// §4.6) relies on for race-free concurrent resolution.
type Store interface {
	// N is the number of elements in each of the two per-side arrays.
	N() int

	Get(side position.Side, idx int) Record

	// SetClassification and SetChildren are only ever called once per
	// index, by a single classifier worker during the single-pass sweep
	// (spec.md §4.5) that owns that index's partition range; they need
	// no atomics.
	SetClassification(side position.Side, idx int, c Classification)
	SetChildren(side position.Side, idx int, n int)

	// AtomicIncrementVisited increments the visited counter and returns
	// its new value.
	AtomicIncrementVisited(side position.Side, idx int) int

	// AtomicCompareAndSetPly sets ply to the given value iff it is
	// currently UnknownPly, and reports whether this call made the
	// change (spec.md's "exactly one writer wins").
	AtomicCompareAndSetPly(side position.Side, idx int, ply int) bool

	Close() error
}

func sideIndex(side position.Side) int {
	if side == position.Black {
		return 0
	}
	return 1
}

func checkBounds(n int, idx int) error {
	if idx < 0 || idx >= n {
		return fmt.Errorf("record: index %d out of range [0, %d)", idx, n)
	}
	return nil
}
