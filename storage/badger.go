package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/codec"
)

// BadgerOptions tunes the disk backend. Zero-valued fields fall back to
// the defaults below, which mirror the read-heavy tuning of a Badger-
// backed LSM store: large memtables and caches, conflict detection off
// since the transactor is already the sole writer, small ValueThreshold
// since every value here is empty (storage is key-only, see spec.md §9).
type BadgerOptions struct {
	Path string

	MemTableSize   int64
	BlockCacheSize int64
	IndexCacheSize int64
	NumCompactors  int
	ValueThreshold int64
}

func (o BadgerOptions) withDefaults() BadgerOptions {
	if o.MemTableSize == 0 {
		o.MemTableSize = 128 << 20
	}
	if o.BlockCacheSize == 0 {
		o.BlockCacheSize = 256 << 20
	}
	if o.IndexCacheSize == 0 {
		o.IndexCacheSize = 100 << 20
	}
	if o.NumCompactors == 0 {
		o.NumCompactors = 4
	}
	if o.ValueThreshold == 0 {
		o.ValueThreshold = 1 << 10
	}
	return o
}

// BadgerStore is the disk backend: a single BadgerDB instance holding key-
// only entries (empty values) across all three indexes. Writes are
// grouped into one atomic Badger transaction per faktadb transaction.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a BadgerDB database at opts.Path.
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	opts = opts.withDefaults()

	bopts := badger.DefaultOptions(opts.Path)
	bopts.Logger = nil
	bopts.MemTableSize = opts.MemTableSize
	bopts.BlockCacheSize = opts.BlockCacheSize
	bopts.IndexCacheSize = opts.IndexCacheSize
	bopts.DetectConflicts = false
	bopts.NumCompactors = opts.NumCompactors
	bopts.ValueThreshold = opts.ValueThreshold

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("badger: %w", err)}
	}
	return &BadgerStore{db: db}, nil
}

// Write appends datoms to all three indexes in one Badger transaction.
func (s *BadgerStore) Write(_ context.Context, datoms []faktadb.Datom) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, d := range datoms {
			for _, idx := range indexes {
				key, err := codec.EncodeDatom(idx, d)
				if err != nil {
					return err
				}
				if err := txn.Set(key, nil); err != nil {
					return fmt.Errorf("write to %s index: %w", idx, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	return nil
}

// Find opens a read-only Badger transaction bounded to the chosen index's
// key range and wraps it in the shared retraction-hiding / tx-time
// filter. Badger's own MVCC guarantees the transaction sees exactly the
// commits that preceded it, which is why Snapshot needs no explicit
// cloning for this backend.
func (s *BadgerStore) Find(_ context.Context, r Restricts) (Iterator, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	index := SelectIndex(r)
	start, end, err := KeyRange(index, r)
	if err != nil {
		return nil, &StorageError{Op: "build key range", Err: err}
	}

	txn := s.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)

	raw := &badgerRawIterator{txn: txn, it: it, index: index, start: start, end: end}
	return newVisibleIterator(raw, r), nil
}

// Snapshot returns the store itself. Each Find call runs inside its own
// Badger read transaction, so a single iterator is isolated from writes
// committed after it was opened, but a later Find on the returned Store
// also sees writes committed after Snapshot was called.
func (s *BadgerStore) Snapshot() Store { return s }

// Close closes the underlying Badger database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return &StorageError{Op: "close", Err: err}
	}
	return nil
}

// badgerRawIterator decodes keys from a Badger iterator in ascending
// order, without fetching values (the store is key-only).
type badgerRawIterator struct {
	txn     *badger.Txn
	it      *badger.Iterator
	index   codec.IndexType
	start   []byte
	end     []byte
	started bool
	cur     faktadb.Datom
	err     error
}

func (it *badgerRawIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.started {
		it.it.Seek(it.start)
		it.started = true
	} else {
		it.it.Next()
	}
	if !it.it.Valid() {
		return false
	}
	key := it.it.Item().KeyCopy(nil)
	if it.end != nil && bytes.Compare(key, it.end) >= 0 {
		return false
	}
	d, err := codec.DecodeDatom(it.index, key)
	if err != nil {
		it.err = &ReadError{Err: err}
		return false
	}
	it.cur = d
	return true
}

func (it *badgerRawIterator) Datom() faktadb.Datom { return it.cur }
func (it *badgerRawIterator) Err() error           { return it.err }

func (it *badgerRawIterator) Close() error {
	it.it.Close()
	it.txn.Discard()
	return nil
}
