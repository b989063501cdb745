// Package storage is the persistence layer: documents, secondary indexes,
// a fulltext inverted index, and graph adjacency, all on BadgerDB.
//
// Everything lives in a single Badger keyspace partitioned by single-byte
// prefixes:
//
//   - Documents:  0x01 + table + 0x00 + key                    -> JSON(document)
//   - Index:      0x02 + table + 0x00 + column + 0x00 + value + 0x00 + key -> empty
//   - Fulltext:   0x03 + table + 0x00 + column + 0x00 + term + 0x00 + key  -> empty
//   - Out edges:  0x04 + from + 0x00 + to + 0x00 + type        -> empty
//   - In edges:   0x05 + to + 0x00 + from + 0x00 + type        -> empty
//
// Index values use an order-preserving encoding (see encodeIndexValue) so
// that range scans work for numbers as well as strings.
package storage

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a document or vertex does not exist.
var ErrNotFound = errors.New("storage: not found")

// Key prefixes. Single bytes keep keys short and make prefix scans cheap.
const (
	prefixDocument = byte(0x01)
	prefixIndex    = byte(0x02)
	prefixFulltext = byte(0x03)
	prefixOutEdge  = byte(0x04)
	prefixInEdge   = byte(0x05)
)

const keySeparator = byte(0x00)

// Store is the persistent storage engine.
//
// Thread Safety:
//
//	Safe for concurrent use from multiple goroutines. Badger provides
//	snapshot isolation per transaction; the mutex only guards Close.
type Store struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// Options configures the storage engine.
type Options struct {
	// DataDir is the directory for data files. Required unless InMemory.
	DataDir string

	// InMemory runs Badger without touching disk. Data is lost on Close.
	// Useful for tests.
	InMemory bool

	// SyncWrites forces fsync after each write. Slower but durable.
	SyncWrites bool
}

// Open creates a persistent store rooted at dataDir with default settings.
//
// The directory is created if it does not exist. Data persists across
// restarts.
//
// Example:
//
//	store, err := storage.Open("./data/themis")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
func Open(dataDir string) (*Store, error) {
	return OpenWithOptions(Options{DataDir: dataDir})
}

// OpenInMemory creates a store that keeps everything in RAM.
//
// Useful for unit tests that need real storage semantics without disk I/O.
func OpenInMemory() (*Store, error) {
	return OpenWithOptions(Options{InMemory: true})
}

// OpenWithOptions creates a store with custom configuration.
func OpenWithOptions(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)

	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}

	// Quiet Badger's internal logging; conservative buffer sizes so the
	// engine behaves in containerized environments.
	badgerOpts = badgerOpts.
		WithLogger(nil).
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithBlockCacheSize(32 << 20).
		WithIndexCacheSize(16 << 20)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying database. Safe to call twice.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// ============================================================================
// Key construction
// ============================================================================

// composeKey joins parts with the 0x00 separator under a prefix byte.
// Parts must not contain 0x00 themselves; table names, columns, and
// document keys are caller-supplied identifiers where that holds.
func composeKey(prefix byte, parts ...[]byte) []byte {
	n := 1
	for _, p := range parts {
		n += len(p) + 1
	}
	key := make([]byte, 0, n)
	key = append(key, prefix)
	for i, p := range parts {
		if i > 0 {
			key = append(key, keySeparator)
		}
		key = append(key, p...)
	}
	return key
}

// composePrefix is composeKey with a trailing separator, for range scans
// over all keys sharing the leading parts.
func composePrefix(prefix byte, parts ...[]byte) []byte {
	return append(composeKey(prefix, parts...), keySeparator)
}

func documentKey(table, key string) []byte {
	return composeKey(prefixDocument, []byte(table), []byte(key))
}

func tablePrefix(table string) []byte {
	return composePrefix(prefixDocument, []byte(table))
}
