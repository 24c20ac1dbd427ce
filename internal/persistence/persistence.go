// Package persistence implements the on-disk tablebase file of spec.md
// §4.7/§6: the two record arrays packed with no padding between records
// in fixed big-endian bit order, Black-to-move first, followed by a
// trailer marking the file complete.
//
// The trailer resolves spec.md §9's open question ("a build is only
// safe to reuse if a complete sentinel is appended after the last BFS
// level"): a fixed 16-byte {magic, levelCount} record written only once
// the retrograde BFS has finished, checked on every Open. A file missing
// or failing this check is treated as an in-progress or corrupt build,
// never silently served.
//
// Reads go through an mmap'ed byte view (internal/engine/transposition.go's
// "index straight into backing memory" approach, generalized from a
// fixed-width struct array to a bit-packed one) and decode one record at
// a time on access; there is no upfront deserialization pass, matching
// spec.md §4.7's "no deserialization" requirement. Writing happens once,
// sequentially, from a completed internal/record.Store — ported from
// original_source/src/version2/Graph.h's write_to/read_from shape.
package persistence

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
	"github.com/CarloWood/infchessKRvK-sub000/internal/position"
	"github.com/CarloWood/infchessKRvK-sub000/internal/record"
)

// trailerMagic identifies a complete, well-formed tablebase file.
const trailerMagic uint64 = 0x4b524b5442000001

// trailerBytes is the fixed size of the {magic, levelCount} trailer.
const trailerBytes = 16

// Write packs every record in store into path, Black-to-move array
// first, then White-to-move, followed by the completion trailer. It
// refuses to overwrite an existing file, matching the CLI contract in
// spec.md §6.
func Write(path string, d geometry.Dims, store record.Store, levelCount int) (err error) {
	layout := record.NewLayout(d)
	n := store.N()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("persistence: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	recordBytes := layout.RecordBytes()
	buf := make([]byte, recordBytes)

	for _, side := range [2]position.Side{position.Black, position.White} {
		for idx := 0; idx < n; idx++ {
			encodeRecord(buf, layout, store.Get(side, idx))
			if _, err := f.Write(buf); err != nil {
				return fmt.Errorf("persistence: write %s: %w", path, err)
			}
		}
	}

	trailer := make([]byte, trailerBytes)
	putUint64BE(trailer[0:8], trailerMagic)
	putUint64BE(trailer[8:16], uint64(levelCount))
	if _, err := f.Write(trailer); err != nil {
		return fmt.Errorf("persistence: write trailer to %s: %w", path, err)
	}
	return nil
}

func encodeRecord(buf []byte, layout record.Layout, r record.Record) {
	for i := range buf {
		buf[i] = 0
	}
	w := bitWriter{buf: buf}
	w.writeBits(uint64(r.Classification), 5)
	w.writeBits(layout.EncodePly(r.Ply), layout.PlyBits)
	w.writeBits(uint64(r.Children), layout.ChildrenBits)
	w.writeBits(uint64(r.Visited), layout.ChildrenBits)
}

func decodeRecord(buf []byte, layout record.Layout) record.Record {
	r := bitReader{buf: buf}
	classification := record.Classification(r.readBits(5))
	ply := layout.DecodePly(r.readBits(layout.PlyBits))
	children := int(r.readBits(layout.ChildrenBits))
	visited := int(r.readBits(layout.ChildrenBits))
	return record.Record{
		Classification: classification,
		Ply:            ply,
		Children:       children,
		Visited:        visited,
	}
}

func putUint64BE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> (8 * i))
	}
}

func uint64BE(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = (v << 8) | uint64(b[i])
	}
	return v
}

// View is a read-only, mmap-backed view over a completed tablebase file.
// Every Get decodes straight from the mapped bytes: there is no
// in-memory copy of the decoded arrays.
type View struct {
	file   *os.File
	data   []byte
	layout record.Layout
	n      int

	recordBytes int
	levelCount  int
}

// Open mmaps path read-only and validates its trailer. It fails if the
// file is the wrong size for d or its trailer is missing or corrupt —
// either sign of an in-progress or damaged build.
func Open(path string, d geometry.Dims) (*View, error) {
	layout := record.NewLayout(d)
	n := d.N()
	recordBytes := layout.RecordBytes()
	wantSize := int64(2*n*recordBytes + trailerBytes)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("persistence: stat %s: %w", path, err)
	}
	if info.Size() != wantSize {
		f.Close()
		return nil, fmt.Errorf("persistence: %s has size %d, want %d for this board (incomplete or wrong dimensions)", path, info.Size(), wantSize)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(wantSize), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("persistence: mmap %s: %w", path, err)
	}

	trailer := data[len(data)-trailerBytes:]
	magic := uint64BE(trailer[0:8])
	if magic != trailerMagic {
		unix.Munmap(data)
		f.Close()
		return nil, fmt.Errorf("persistence: %s is missing its completion trailer (build incomplete or file corrupt)", path)
	}
	levelCount := int(uint64BE(trailer[8:16]))

	return &View{
		file:        f,
		data:        data,
		layout:      layout,
		n:           n,
		recordBytes: recordBytes,
		levelCount:  levelCount,
	}, nil
}

// LevelCount returns the number of BFS levels the build resolved.
func (v *View) LevelCount() int { return v.levelCount }

// Get decodes the record for (side, idx) directly from the mapping.
func (v *View) Get(side position.Side, idx int) record.Record {
	sideOffset := 0
	if side == position.White {
		sideOffset = v.n * v.recordBytes
	}
	start := sideOffset + idx*v.recordBytes
	return decodeRecord(v.data[start:start+v.recordBytes], v.layout)
}

// Close unmaps the file.
func (v *View) Close() error {
	if err := unix.Munmap(v.data); err != nil {
		v.file.Close()
		return fmt.Errorf("persistence: munmap: %w", err)
	}
	return v.file.Close()
}

// bitWriter packs values MSB-first into a fixed byte slice, used once
// per record so it never needs to track an absolute stream position.
type bitWriter struct {
	buf    []byte
	bitPos int
}

func (w *bitWriter) writeBits(value uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		bit := (value >> uint(i)) & 1
		byteIdx := w.bitPos / 8
		bitIdx := 7 - (w.bitPos % 8)
		if bit == 1 {
			w.buf[byteIdx] |= 1 << uint(bitIdx)
		}
		w.bitPos++
	}
}

type bitReader struct {
	buf    []byte
	bitPos int
}

func (r *bitReader) readBits(width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		byteIdx := r.bitPos / 8
		bitIdx := 7 - (r.bitPos % 8)
		bit := (r.buf[byteIdx] >> uint(bitIdx)) & 1
		v = (v << 1) | uint64(bit)
		r.bitPos++
	}
	return v
}
