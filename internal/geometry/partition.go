package geometry

// A Partition groups every position that shares the same
// (black-king-block, white-king-block) pair. Iterating PositionIndex values
// in partition order keeps both the classifier sweep and the retrograde
// BFS working on contiguous address ranges for the common case where a
// king step stays inside its current block, or crosses into a neighbor.
type Partition struct {
	BlackKingBlock int
	WhiteKingBlock int
}

// PartitionIndex returns the partition's own index, 0..NumPartitions-1.
func (d Dims) PartitionIndex(p Partition) int {
	return p.BlackKingBlock*d.NumBlocks() + p.WhiteKingBlock
}

// PartitionFromIndex is the inverse of PartitionIndex.
func (d Dims) PartitionFromIndex(idx int) Partition {
	n := d.NumBlocks()
	return Partition{BlackKingBlock: idx / n, WhiteKingBlock: idx % n}
}

// Element identifies one position within a Partition: the black king's and
// white king's offsets inside their (already known) blocks, plus the white
// rook's full board-wide square.
type Element struct {
	BlackKingLocal Square
	WhiteKingLocal Square
	WhiteRook      Square
}

// ElementIndex packs e into the partition-local index space, most
// significant first: [black-king-local][white-king-local][white-rook].
func (d Dims) ElementIndex(e Element) int {
	wr := d.EncodeSquare(e.WhiteRook)
	wk := d.encodeLocal(e.WhiteKingLocal)
	bk := d.encodeLocal(e.BlackKingLocal)

	idx := bk
	idx = idx<<uint(d.BlockSquareBits) | wk
	idx = idx<<uint(d.SquareBits) | wr
	return int(idx)
}

// ElementFromIndex is the inverse of ElementIndex.
func (d Dims) ElementFromIndex(idx int) Element {
	v := uint64(idx)

	wrMask := uint64(1)<<uint(d.SquareBits) - 1
	wr := v & wrMask
	v >>= uint(d.SquareBits)

	localMask := uint64(1)<<uint(d.BlockSquareBits) - 1
	wk := v & localMask
	v >>= uint(d.BlockSquareBits)

	bk := v & localMask

	return Element{
		BlackKingLocal: d.decodeLocal(bk),
		WhiteKingLocal: d.decodeLocal(wk),
		WhiteRook:      d.DecodeSquare(wr),
	}
}

// PositionIndex returns the dense, partition-ordered index for one side's
// record array: PartitionIndex*ElementsPerPartition + ElementIndex. This is
// the stable, on-disk index contract of §4.1 — it is never side-doubled
// here, because the Record Store keeps one array per side already.
func (d Dims) PositionIndex(bk, wk, wr Square) int {
	blackBlock, blackLocal := d.LocalSquare(bk)
	whiteBlock, whiteLocal := d.LocalSquare(wk)
	part := d.PartitionIndex(Partition{BlackKingBlock: blackBlock, WhiteKingBlock: whiteBlock})
	elem := d.ElementIndex(Element{BlackKingLocal: blackLocal, WhiteKingLocal: whiteLocal, WhiteRook: wr})
	return part*d.ElementsPerPartition() + elem
}

// DecodePositionIndex is the inverse of PositionIndex: it recovers the
// board-wide squares of the black king, white king and white rook.
func (d Dims) DecodePositionIndex(idx int) (bk, wk, wr Square) {
	partIdx := idx / d.ElementsPerPartition()
	elemIdx := idx % d.ElementsPerPartition()

	part := d.PartitionFromIndex(partIdx)
	elem := d.ElementFromIndex(elemIdx)

	bk = d.SquareFromLocal(part.BlackKingBlock, elem.BlackKingLocal)
	wk = d.SquareFromLocal(part.WhiteKingBlock, elem.WhiteKingLocal)
	wr = elem.WhiteRook
	return bk, wk, wr
}

// Canonicalize is the hook for diagonal-mirror folding (see spec.md §9).
// It is not implemented: the specification leaves it as an optional
// memory-halving layer on top of the indexing scheme described here, and
// this implementation targets the unfolded address space directly. It
// always reports flip=false so that callers written against a future real
// implementation only need to change this one function.
func (d Dims) Canonicalize(bk, wk, wr Square) (cbk, cwk, cwr Square, flip bool) {
	return bk, wk, wr, false
}
