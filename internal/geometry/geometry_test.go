package geometry

import "testing"

func TestNewRejectsNonMultiple(t *testing.T) {
	if _, err := New(10, 8, 3, 2); err == nil {
		t.Fatal("expected error for board size not a multiple of block size")
	}
	if _, err := New(0, 8, 2, 2); err == nil {
		t.Fatal("expected error for non-positive dimension")
	}
}

func TestBitWidths(t *testing.T) {
	// 8x8 board, 2x2 blocks -> 4x4 grid of 16 blocks.
	d, err := New(8, 8, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if d.SquareBits != 6 {
		t.Errorf("SquareBits = %d, want 6", d.SquareBits)
	}
	if d.BlockSquareBits != 2 {
		t.Errorf("BlockSquareBits = %d, want 2", d.BlockSquareBits)
	}
	if d.NumBlocks() != 16 {
		t.Errorf("NumBlocks = %d, want 16", d.NumBlocks())
	}
	if d.BlockIndexBits != 4 {
		t.Errorf("BlockIndexBits = %d, want 4", d.BlockIndexBits)
	}
}

func TestSquareEncodeRoundTrip(t *testing.T) {
	d, err := New(8, 8, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < d.BoardY; y++ {
		for x := 0; x < d.BoardX; x++ {
			sq := Square{X: x, Y: y}
			got := d.DecodeSquare(d.EncodeSquare(sq))
			if got != sq {
				t.Fatalf("round trip %v -> %v", sq, got)
			}
		}
	}
}

func TestLocalSquareRoundTrip(t *testing.T) {
	d, err := New(12, 9, 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < d.BoardY; y++ {
		for x := 0; x < d.BoardX; x++ {
			sq := Square{X: x, Y: y}
			block, local := d.LocalSquare(sq)
			got := d.SquareFromLocal(block, local)
			if got != sq {
				t.Fatalf("local round trip %v -> block %d local %v -> %v", sq, block, local, got)
			}
		}
	}
}

func TestPositionIndexRoundTripAndUniqueness(t *testing.T) {
	d, err := New(4, 4, 2, 2)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[int]struct{})
	for bkx := 0; bkx < d.BoardX; bkx++ {
		for bky := 0; bky < d.BoardY; bky++ {
			for wkx := 0; wkx < d.BoardX; wkx++ {
				for wky := 0; wky < d.BoardY; wky++ {
					for wrx := 0; wrx < d.BoardX; wrx++ {
						for wry := 0; wry < d.BoardY; wry++ {
							bk := Square{X: bkx, Y: bky}
							wk := Square{X: wkx, Y: wky}
							wr := Square{X: wrx, Y: wry}

							idx := d.PositionIndex(bk, wk, wr)
							if idx < 0 || idx >= d.N() {
								t.Fatalf("index %d out of range [0, %d)", idx, d.N())
							}
							if _, dup := seen[idx]; dup {
								t.Fatalf("duplicate index %d for bk=%v wk=%v wr=%v", idx, bk, wk, wr)
							}
							seen[idx] = struct{}{}

							gbk, gwk, gwr := d.DecodePositionIndex(idx)
							if gbk != bk || gwk != wk || gwr != wr {
								t.Fatalf("decode mismatch: got bk=%v wk=%v wr=%v, want bk=%v wk=%v wr=%v", gbk, gwk, gwr, bk, wk, wr)
							}
						}
					}
				}
			}
		}
	}
	if len(seen) != d.N() {
		t.Fatalf("saw %d distinct indices, want %d", len(seen), d.N())
	}
}

func TestChebyshevDistance(t *testing.T) {
	a := Square{X: 0, Y: 0}
	b := Square{X: 1, Y: 1}
	if got := a.ChebyshevDistance(b); got != 1 {
		t.Errorf("ChebyshevDistance = %d, want 1", got)
	}
	c := Square{X: 3, Y: 0}
	if got := a.ChebyshevDistance(c); got != 3 {
		t.Errorf("ChebyshevDistance = %d, want 3", got)
	}
}
