// Package catalog is the build registry: a small badger-backed key/value
// store recording, for every board size this prefix directory has ever
// built, whether the build completed, how long it took, and how large
// the resulting files are. It does not hold any position data itself —
// that lives in internal/record's store and internal/persistence's
// on-disk format — only the metadata the CLI tools need to decide
// whether a build already exists and whether it is safe to reuse.
//
// This is internal/storage/storage.go's JSON-in-BadgerDB CRUD shape,
// repurposed from user preferences and game statistics to build
// metadata: same NewX/Close lifecycle, same txn.Update/txn.View pattern,
// different key space and value type.
package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BuildMetadata records one board size's build history.
type BuildMetadata struct {
	BoardX, BoardY int
	BlockX, BlockY int

	Complete bool
	MaxPly   int
	ByteSize int64

	BuildStarted  time.Time
	BuildFinished time.Time
}

func buildKey(boardX, boardY, blockX, blockY int) []byte {
	return []byte(fmt.Sprintf("build/%dx%d/%dx%d", boardX, boardY, blockX, blockY))
}

// Catalog wraps a BadgerDB instance rooted under a prefix directory.
type Catalog struct {
	db *badger.DB
}

// Open opens (creating if necessary) the catalog database under
// <prefix>/catalog.
func Open(prefix string) (*Catalog, error) {
	dbDir, err := CatalogDir(prefix)
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", dbDir, err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// StartBuild records that a build has begun for the given board/block
// dimensions, overwriting any prior (necessarily incomplete or stale)
// entry for the same dimensions.
func (c *Catalog) StartBuild(boardX, boardY, blockX, blockY int) error {
	meta := BuildMetadata{
		BoardX: boardX, BoardY: boardY,
		BlockX: blockX, BlockY: blockY,
		BuildStarted: time.Now(),
	}
	return c.save(meta)
}

// FinishBuild marks a build complete and records its outcome.
func (c *Catalog) FinishBuild(boardX, boardY, blockX, blockY, maxPly int, byteSize int64) error {
	meta, err := c.Get(boardX, boardY, blockX, blockY)
	if err != nil {
		return err
	}
	if meta == nil {
		meta = &BuildMetadata{BoardX: boardX, BoardY: boardY, BlockX: blockX, BlockY: blockY}
	}
	meta.Complete = true
	meta.MaxPly = maxPly
	meta.ByteSize = byteSize
	meta.BuildFinished = time.Now()
	return c.save(*meta)
}

func (c *Catalog) save(meta BuildMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("catalog: marshal metadata: %w", err)
	}
	key := buildKey(meta.BoardX, meta.BoardY, meta.BlockX, meta.BlockY)
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Get returns the recorded metadata for a board/block size, or nil if
// no build has ever been started for it.
func (c *Catalog) Get(boardX, boardY, blockX, blockY int) (*BuildMetadata, error) {
	var meta *BuildMetadata
	key := buildKey(boardX, boardY, blockX, blockY)

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var m BuildMetadata
			if err := json.Unmarshal(val, &m); err != nil {
				return err
			}
			meta = &m
			return nil
		})
	})
	return meta, err
}

// IsComplete reports whether a prior build for this board/block size
// finished successfully. The CLI build verb uses this to refuse
// clobbering a complete build.
func (c *Catalog) IsComplete(boardX, boardY, blockX, blockY int) (bool, error) {
	meta, err := c.Get(boardX, boardY, blockX, blockY)
	if err != nil {
		return false, err
	}
	return meta != nil && meta.Complete, nil
}

// List returns every build recorded in the catalog.
func (c *Catalog) List() ([]BuildMetadata, error) {
	var out []BuildMetadata
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("build/")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if err := item.Value(func(val []byte) error {
				var m BuildMetadata
				if err := json.Unmarshal(val, &m); err != nil {
					return err
				}
				out = append(out, m)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}
