// Package record implements the bit-packed per-position record store of
// spec.md §4.4: a pair of dense arrays (one per side to move), each
// holding a {classification, ply, children, visited} bitfield, with the
// concurrent mutators the retrograde BFS needs.
//
// The working store here uses a word-aligned in-memory layout rather
// than the minimal "no padding between records" byte layout spec.md §6
// describes for the on-disk file: ply and visited are mutated by many
// BFS workers at once and a manual CAS loop only works against a single
// aligned machine word, not an arbitrary bit offset into a packed byte
// stream. internal/persistence packs this store's records into that
// minimal on-disk format on save and decodes single records from the
// mapped file on access.
package record

import (
	"math/bits"

	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
)

// Classification is a bitmask: a record can be legal, in check, mate,
// stalemate and/or an immediate draw simultaneously (e.g. legal|mate).
// The zero value means "illegal, never visited".
type Classification uint8

const (
	ClassLegal Classification = 1 << iota
	ClassCheck
	ClassMate
	ClassStalemate
	ClassDraw
)

// UnknownPly is the decoded Ply value for "not yet resolved by the BFS".
const UnknownPly = -1

// Record is the decoded view of one packed element.
type Record struct {
	Classification Classification
	Ply            int // UnknownPly, or the resolved mate-in-ply distance
	Children       int // legal, non-drawn children at classification time
	Visited        int // children resolved so far during the BFS
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Layout derives every bit width spec.md §4.4 specifies from a board's
// Dims, plus the conservative per-position child-count bound needed to
// size the children/visited fields.
type Layout struct {
	PlyBits      int
	ChildrenBits int

	// MaxChildren is a sizing bound, not an exact count: 8 king steps
	// plus every other square on the rook's row and column.
	MaxChildren int
}

// maxPossiblePly follows the empirical linear bound spec.md §4.4 cites
// for square boards, 2*((33*N-34)/7), generalized to a rectangular board
// by taking N as the longer side.
func maxPossiblePly(d geometry.Dims) int {
	n := d.BoardX
	if d.BoardY > n {
		n = d.BoardY
	}
	if n < 2 {
		n = 2
	}
	return 2 * ((33*n - 34) / 7)
}

// NewLayout computes the bit widths for a board of the given dimensions.
func NewLayout(d geometry.Dims) Layout {
	maxChildren := 8 + (d.BoardX - 1) + (d.BoardY - 1)
	return Layout{
		PlyBits:      ceilLog2(maxPossiblePly(d)+2) + 1,
		ChildrenBits: ceilLog2(maxChildren + 1),
		MaxChildren:  maxChildren,
	}
}

// RecordBits is the exact width spec.md §6 specifies for the on-disk,
// minimally-packed representation of one record: 5 classification bits,
// ply_bits, and two children_bits-wide fields (children, visited).
func (l Layout) RecordBits() int {
	return 5 + l.PlyBits + 2*l.ChildrenBits
}

// RecordBytes is the on-disk size of one packed record.
func (l Layout) RecordBytes() int {
	return (l.RecordBits() + 7) / 8
}

func (l Layout) EncodePly(ply int) uint64 {
	if ply == UnknownPly {
		return 0
	}
	return uint64(ply + 1)
}

func (l Layout) DecodePly(v uint64) int {
	if v == 0 {
		return UnknownPly
	}
	return int(v) - 1
}
