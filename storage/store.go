// Package storage provides the key-value persistence layer for large Merkle
// tree builds. The Store interface is the minimal contract the tree builder
// needs; LevelStore implements it on LevelDB.
package storage

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
)

// Store is the capability surface a persistent tree build requires. A store
// instance exclusively owns one tree's on-disk state; concurrent builds
// against the same store are not supported.
//
// Get returns (nil, false, nil) for a missing key. WriteBatch applies all
// pairs atomically, the bulk write used when committing a tree level.
type Store interface {
	Get(key []byte) ([]byte, bool, error)
	Put(key []byte, value []byte) error
	WriteBatch(keys, values [][]byte) error
	Close() error
}

// LevelStore wraps LevelDB for raw key-value persistence. No tree logic
// here. Thread-safe: LevelDB handles its own synchronization.
type LevelStore struct {
	db *leveldb.DB
}

var _ Store = (*LevelStore)(nil)

// NewLevelStore opens or creates a LevelDB database at the given path.
// If path is empty, uses in-memory storage.
func NewLevelStore(path string) (*LevelStore, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	return &LevelStore{db: db}, nil
}

// NewMemStore creates an in-memory LevelStore, used in tests and for
// builds that do not need to survive the process.
func NewMemStore() (*LevelStore, error) {
	return NewLevelStore("")
}

// Get retrieves a value by key. Returns (nil, false, nil) if not found.
func (s *LevelStore) Get(key []byte) ([]byte, bool, error) {
	data, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %x: %w", key, err)
	}
	return data, true, nil
}

// Put writes a single key-value pair.
func (s *LevelStore) Put(key []byte, value []byte) error {
	if err := s.db.Put(key, value, nil); err != nil {
		return fmt.Errorf("put %x: %w", key, err)
	}
	return nil
}

// WriteBatch writes all pairs in one atomic LevelDB batch. keys and values
// must have equal length.
func (s *LevelStore) WriteBatch(keys, values [][]byte) error {
	if len(keys) != len(values) {
		return fmt.Errorf("write batch: %d keys but %d values", len(keys), len(values))
	}

	batch := new(leveldb.Batch)
	for i := range keys {
		batch.Put(keys[i], values[i])
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("write batch of %d pairs: %w", len(keys), err)
	}
	return nil
}

// Close closes the underlying database.
func (s *LevelStore) Close() error {
	return s.db.Close()
}
