// Package storage implements the multi-index datom store: order-preserving
// key encoding (package codec), the EAVT/AEVT/AVET index trio, and the two
// backends spec.md calls for, an in-memory ordered-set store and an
// external-KV-backed disk store. Storage holds keys only — a datom is
// fully recoverable from its key alone (see spec.md §9) — so every index
// entry is written with an empty value.
package storage

import (
	"context"

	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/codec"
)

// Store is the interface the transactor and query engine depend on. A
// Store never performs partial writes: Write either commits every datom
// passed to it or changes nothing.
type Store interface {
	// Write appends datoms to all three indexes in one atomic batch. Each
	// Datom's Op (Assert or Retract) is preserved verbatim; Write never
	// mutates or removes an existing key, since retraction is expressed
	// as a new datom, not a deletion.
	Write(ctx context.Context, datoms []faktadb.Datom) error

	// Find returns an iterator over datoms satisfying r, using whichever
	// index SelectIndex chooses. The iterator yields only datoms live at
	// the restricted point in time: retracted (e, a, v) groups are
	// skipped, per spec.md's "retraction hides rather than deletes" rule.
	Find(ctx context.Context, r Restricts) (Iterator, error)

	// Snapshot returns a Store reflecting exactly the writes committed so
	// far, isolated from subsequent writes. Readers hold a Snapshot for
	// the duration of a query so they never observe a partial
	// transaction.
	Snapshot() Store

	// Close releases backend resources.
	Close() error
}

// Iterator yields datoms in index order. Callers drive it with Next/Datom
// and must call Close when done, including on early exit; dropping an
// iterator without exhausting it is the documented cancellation
// mechanism (spec.md §5).
type Iterator interface {
	// Next advances the iterator and reports whether a datom is
	// available. It must be called before the first Datom call.
	Next() bool

	// Datom returns the datom at the iterator's current position. Its
	// result is only valid after a Next call that returned true.
	Datom() faktadb.Datom

	// Err returns the first error encountered during iteration, if any.
	Err() error

	// Close releases resources held by the iterator.
	Close() error
}

// indexes lists every maintained index, in the order Write populates them.
var indexes = [3]codec.IndexType{codec.EAVT, codec.AEVT, codec.AVET}
