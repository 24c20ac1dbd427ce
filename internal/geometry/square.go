package geometry

import "fmt"

// Square is a board-wide coordinate, 0 <= X < Dims.BoardX, 0 <= Y < Dims.BoardY.
// It is a value type: constructed on demand from coordinates or decoded from
// a compact encoding, never stored by reference.
type Square struct {
	X, Y int
}

// String renders the square as algebraic-style notation extended past 'z'
// with numeric files, e.g. "a1", "z12", "{30,13}" past the 26th file.
func (sq Square) String() string {
	if sq.X < 26 {
		return fmt.Sprintf("%c%d", 'a'+sq.X, sq.Y+1)
	}
	return fmt.Sprintf("{%d,%d}", sq.X, sq.Y)
}

// ChebyshevDistance returns the king-move distance between two squares.
func (sq Square) ChebyshevDistance(other Square) int {
	dx := sq.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := sq.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// EncodeSquare packs sq into SquareBits bits, most significant first as
// [y-bits][x-bits], matching the layout the on-disk format commits to.
func (d Dims) EncodeSquare(sq Square) uint64 {
	return uint64(sq.Y)<<uint(ceilLog2(d.BoardX)) | uint64(sq.X)
}

// DecodeSquare is the inverse of EncodeSquare.
func (d Dims) DecodeSquare(code uint64) Square {
	xBits := uint(ceilLog2(d.BoardX))
	mask := uint64(1)<<xBits - 1
	return Square{X: int(code & mask), Y: int(code >> xBits)}
}

// BlockIndexOf returns the index (0..NumBlocks-1) of the block containing sq.
func (d Dims) BlockIndexOf(sq Square) int {
	return (sq.Y/d.BlockY)*d.GridX + (sq.X / d.BlockX)
}

// BlockOrigin returns the board coordinate of a block's bottom-left corner.
func (d Dims) BlockOrigin(blockIndex int) Square {
	gx := blockIndex % d.GridX
	gy := blockIndex / d.GridX
	return Square{X: gx * d.BlockX, Y: gy * d.BlockY}
}

// LocalSquare returns sq's offset within its own block, and the block index.
func (d Dims) LocalSquare(sq Square) (blockIndex int, local Square) {
	origin := Square{X: (sq.X / d.BlockX) * d.BlockX, Y: (sq.Y / d.BlockY) * d.BlockY}
	return d.BlockIndexOf(sq), Square{X: sq.X - origin.X, Y: sq.Y - origin.Y}
}

// SquareFromLocal is the inverse of LocalSquare: given a block and a
// local offset within it, returns the board-wide square.
func (d Dims) SquareFromLocal(blockIndex int, local Square) Square {
	origin := d.BlockOrigin(blockIndex)
	return Square{X: origin.X + local.X, Y: origin.Y + local.Y}
}

// encodeLocal packs a block-local square into BlockSquareBits bits.
func (d Dims) encodeLocal(local Square) uint64 {
	xBits := uint(ceilLog2(d.BlockX))
	return uint64(local.Y)<<xBits | uint64(local.X)
}

// decodeLocal is the inverse of encodeLocal.
func (d Dims) decodeLocal(code uint64) Square {
	xBits := uint(ceilLog2(d.BlockX))
	mask := uint64(1)<<xBits - 1
	return Square{X: int(code & mask), Y: int(code >> xBits)}
}
