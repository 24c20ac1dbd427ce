package record

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/CarloWood/infchessKRvK-sub000/internal/geometry"
	"github.com/CarloWood/infchessKRvK-sub000/internal/position"
)

// MmapStore is the backend for boards too large to hold comfortably in
// process memory twice over (once live, once on disk): the record arrays
// are a single mmap'ed region, so there is no separate serialize step to
// reach the working set, only munmap on Close. cmd/krkbuild builds with
// HeapStore, not with this backend.
//
// Its on-disk layout is working storage, not the minimal bit-packed
// format spec.md §6 describes for distribution; see record.go's package
// comment.
type MmapStore struct {
	layout Layout
	n      int

	file *os.File
	data []byte

	mutable        [2][]uint64
	classification [2][]Classification
	children       [2][]uint32
}

func align8(n int) int { return (n + 7) &^ 7 }

func mmapLayout(n int) (sizeMutable, classOff, classPadded, childOff, childPadded, total int) {
	sizeMutable = n * 8
	classOff = 2 * sizeMutable
	classPadded = align8(n)
	childOff = classOff + 2*classPadded
	childPadded = align8(n * 4)
	total = childOff + 2*childPadded
	return
}

// CreateMmapStore creates (and truncates, it must not already exist in
// any usable state) a new working-storage file sized for d, and mmaps it.
func CreateMmapStore(path string, d geometry.Dims) (*MmapStore, error) {
	n := d.N()
	_, _, _, _, _, total := mmapLayout(n)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("record: create %s: %w", path, err)
	}
	if err := f.Truncate(int64(total)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("record: truncate %s: %w", path, err)
	}
	return newMmapStore(f, d, total)
}

// OpenMmapStore mmaps an existing working-storage file sized for d.
func OpenMmapStore(path string, d geometry.Dims) (*MmapStore, error) {
	n := d.N()
	_, _, _, _, _, total := mmapLayout(n)

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("record: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("record: stat %s: %w", path, err)
	}
	if info.Size() != int64(total) {
		f.Close()
		return nil, fmt.Errorf("record: %s has size %d, want %d for this board", path, info.Size(), total)
	}
	return newMmapStore(f, d, total)
}

func newMmapStore(f *os.File, d geometry.Dims, total int) (*MmapStore, error) {
	n := d.N()
	data, err := unix.Mmap(int(f.Fd()), 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("record: mmap %s: %w", f.Name(), err)
	}

	sizeMutable, classOff, classPadded, childOff, childPadded, _ := mmapLayout(n)

	s := &MmapStore{layout: NewLayout(d), n: n, file: f, data: data}
	s.mutable[0] = unsafe.Slice((*uint64)(unsafe.Pointer(&data[0])), n)
	s.mutable[1] = unsafe.Slice((*uint64)(unsafe.Pointer(&data[sizeMutable])), n)
	s.classification[0] = unsafe.Slice((*Classification)(unsafe.Pointer(&data[classOff])), n)
	s.classification[1] = unsafe.Slice((*Classification)(unsafe.Pointer(&data[classOff+classPadded])), n)
	s.children[0] = unsafe.Slice((*uint32)(unsafe.Pointer(&data[childOff])), n)
	s.children[1] = unsafe.Slice((*uint32)(unsafe.Pointer(&data[childOff+childPadded])), n)
	return s, nil
}

func (s *MmapStore) N() int { return s.n }

func (s *MmapStore) visitedMask() uint64 {
	return (uint64(1) << s.layout.ChildrenBits) - 1
}

func (s *MmapStore) Get(side position.Side, idx int) Record {
	si := sideIndex(side)
	w := atomic.LoadUint64(&s.mutable[si][idx])
	ply := s.layout.DecodePly(w & ((uint64(1) << s.layout.PlyBits) - 1))
	visited := int((w >> s.layout.PlyBits) & s.visitedMask())
	return Record{
		Classification: s.classification[si][idx],
		Ply:            ply,
		Children:       int(s.children[si][idx]),
		Visited:        visited,
	}
}

func (s *MmapStore) SetClassification(side position.Side, idx int, c Classification) {
	s.classification[sideIndex(side)][idx] = c
}

func (s *MmapStore) SetChildren(side position.Side, idx int, n int) {
	s.children[sideIndex(side)][idx] = uint32(n)
}

func (s *MmapStore) AtomicIncrementVisited(side position.Side, idx int) int {
	si := sideIndex(side)
	word := &s.mutable[si][idx]
	step := uint64(1) << s.layout.PlyBits
	for {
		old := atomic.LoadUint64(word)
		next := old + step
		if atomic.CompareAndSwapUint64(word, old, next) {
			return int((next >> s.layout.PlyBits) & s.visitedMask())
		}
	}
}

func (s *MmapStore) AtomicCompareAndSetPly(side position.Side, idx int, ply int) bool {
	si := sideIndex(side)
	word := &s.mutable[si][idx]
	plyMask := (uint64(1) << s.layout.PlyBits) - 1
	encoded := s.layout.EncodePly(ply)
	for {
		old := atomic.LoadUint64(word)
		if old&plyMask != 0 {
			return false
		}
		next := (old &^ plyMask) | encoded
		if atomic.CompareAndSwapUint64(word, old, next) {
			return true
		}
	}
}

func (s *MmapStore) Close() error {
	if err := unix.Munmap(s.data); err != nil {
		s.file.Close()
		return fmt.Errorf("record: munmap: %w", err)
	}
	return s.file.Close()
}
