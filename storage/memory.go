package storage

import (
	"context"
	"sync"

	"github.com/google/btree"
	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/codec"
)

const btreeDegree = 32

// MemoryStore is the in-memory backend: three ordered sets of encoded
// keys, one per index, guarded by a single exclusive-writer lock.
// Snapshot returns an O(1) clone of the underlying trees (google/btree's
// copy-on-write Clone), so readers never block the writer and never see a
// partial transaction.
type MemoryStore struct {
	mu   sync.RWMutex
	eavt *btree.BTreeG[string]
	aevt *btree.BTreeG[string]
	avet *btree.BTreeG[string]
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	less := func(a, b string) bool { return a < b }
	return &MemoryStore{
		eavt: btree.NewG[string](btreeDegree, less),
		aevt: btree.NewG[string](btreeDegree, less),
		avet: btree.NewG[string](btreeDegree, less),
	}
}

func (s *MemoryStore) treeFor(index codec.IndexType) *btree.BTreeG[string] {
	switch index {
	case codec.EAVT:
		return s.eavt
	case codec.AEVT:
		return s.aevt
	case codec.AVET:
		return s.avet
	default:
		return nil
	}
}

// Write appends datoms to all three indexes under one write-lock hold, so
// a concurrent reader either sees the whole batch or none of it.
func (s *MemoryStore) Write(_ context.Context, datoms []faktadb.Datom) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Encode every key before inserting any, so an encoding failure leaves
	// the trees untouched.
	keys := make([][len(indexes)]string, len(datoms))
	for i, d := range datoms {
		for j, idx := range indexes {
			key, err := codec.EncodeDatom(idx, d)
			if err != nil {
				return &StorageError{Op: "encode", Err: err}
			}
			keys[i][j] = string(key)
		}
	}
	for i := range keys {
		for j, idx := range indexes {
			s.treeFor(idx).ReplaceOrInsert(keys[i][j])
		}
	}
	return nil
}

// Find resolves r against whichever index SelectIndex chooses, scans the
// matching key range, and wraps the result in the shared
// retraction-hiding / tx-time filter.
func (s *MemoryStore) Find(_ context.Context, r Restricts) (Iterator, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	index := SelectIndex(r)
	start, end, err := KeyRange(index, r)
	if err != nil {
		return nil, &StorageError{Op: "build key range", Err: err}
	}

	s.mu.RLock()
	tree := s.treeFor(index)
	var keys []string
	collect := func(item string) bool {
		keys = append(keys, item)
		return true
	}
	switch {
	case start == nil:
		tree.Ascend(collect)
	case end == nil:
		tree.AscendGreaterOrEqual(string(start), collect)
	default:
		tree.AscendRange(string(start), string(end), collect)
	}
	s.mu.RUnlock()

	raw := &memoryRawIterator{index: index, keys: keys}
	return newVisibleIterator(raw, r), nil
}

// Snapshot clones every index tree. google/btree's Clone is O(1) and
// copy-on-write: the clone and the original share structure until either
// one is mutated.
func (s *MemoryStore) Snapshot() Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &MemoryStore{
		eavt: s.eavt.Clone(),
		aevt: s.aevt.Clone(),
		avet: s.avet.Clone(),
	}
}

// Close is a no-op; the in-memory backend holds no external resources.
func (s *MemoryStore) Close() error { return nil }

// memoryRawIterator decodes a pre-collected, already key-ordered slice of
// encoded keys. The range is collected eagerly under the read lock so the
// lock need not be held for the lifetime of the iterator; grouping and
// visibility filtering still happen lazily in visibleIterator.
type memoryRawIterator struct {
	index codec.IndexType
	keys  []string
	pos   int
	cur   faktadb.Datom
	err   error
}

func (it *memoryRawIterator) Next() bool {
	if it.err != nil || it.pos >= len(it.keys) {
		return false
	}
	d, err := codec.DecodeDatom(it.index, []byte(it.keys[it.pos]))
	it.pos++
	if err != nil {
		it.err = &ReadError{Err: err}
		return false
	}
	it.cur = d
	return true
}

func (it *memoryRawIterator) Datom() faktadb.Datom { return it.cur }
func (it *memoryRawIterator) Err() error           { return it.err }
func (it *memoryRawIterator) Close() error         { return nil }
