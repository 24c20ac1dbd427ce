package record

import (
	"sync/atomic"

	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
	"github.com/CarloWood/infchessKRvK-sub000/internal/position"
)

// HeapStore is the plain in-process backend: small boards and unit
// tests, where mmap's address-space tricks buy nothing. Mutable fields
// (ply, visited) live in native atomic.Uint64 words; classification and
// children are set once per index during classification and need no
// synchronization.
type HeapStore struct {
	layout Layout
	n      int

	// mutable[side][idx]: bits [0:PlyBits) = encoded ply,
	// bits [PlyBits:PlyBits+ChildrenBits) = visited count.
	mutable [2][]atomic.Uint64

	classification [2][]Classification
	children       [2][]uint32
}

// NewHeapStore allocates a heap-backed store sized for d.
func NewHeapStore(d geometry.Dims) *HeapStore {
	n := d.N()
	s := &HeapStore{layout: NewLayout(d), n: n}
	for i := 0; i < 2; i++ {
		s.mutable[i] = make([]atomic.Uint64, n)
		s.classification[i] = make([]Classification, n)
		s.children[i] = make([]uint32, n)
	}
	return s
}

func (s *HeapStore) N() int { return s.n }

func (s *HeapStore) visitedMask() uint64 {
	return (uint64(1) << s.layout.ChildrenBits) - 1
}

func (s *HeapStore) Get(side position.Side, idx int) Record {
	si := sideIndex(side)
	w := s.mutable[si][idx].Load()
	ply := s.layout.DecodePly(w & ((uint64(1) << s.layout.PlyBits) - 1))
	visited := int((w >> s.layout.PlyBits) & s.visitedMask())
	return Record{
		Classification: s.classification[si][idx],
		Ply:            ply,
		Children:       int(s.children[si][idx]),
		Visited:        visited,
	}
}

func (s *HeapStore) SetClassification(side position.Side, idx int, c Classification) {
	s.classification[sideIndex(side)][idx] = c
}

func (s *HeapStore) SetChildren(side position.Side, idx int, n int) {
	s.children[sideIndex(side)][idx] = uint32(n)
}

func (s *HeapStore) AtomicIncrementVisited(side position.Side, idx int) int {
	si := sideIndex(side)
	word := &s.mutable[si][idx]
	step := uint64(1) << s.layout.PlyBits
	for {
		old := word.Load()
		next := old + step
		if word.CompareAndSwap(old, next) {
			return int((next >> s.layout.PlyBits) & s.visitedMask())
		}
	}
}

func (s *HeapStore) AtomicCompareAndSetPly(side position.Side, idx int, ply int) bool {
	si := sideIndex(side)
	word := &s.mutable[si][idx]
	plyMask := (uint64(1) << s.layout.PlyBits) - 1
	encoded := s.layout.EncodePly(ply)
	for {
		old := word.Load()
		if old&plyMask != 0 {
			return false // already set: not "unknown" anymore
		}
		next := (old &^ plyMask) | encoded
		if word.CompareAndSwap(old, next) {
			return true
		}
	}
}

func (s *HeapStore) Close() error { return nil }
