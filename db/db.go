// Package db wires the storage, schema, transactor, and query packages
// into the single facade spec.md §3 describes: Open a database, Transact
// against it, and Query it at the current basis or as of an earlier
// transaction. Grounded on the teacher's datalog/storage.Database, which
// plays the same role (it owns the store, the transaction counter, and
// exposes NewTransaction/NewExecutor) but here the pieces are separate,
// independently-testable packages rather than one storage.Database god
// type.
package db

import (
	"context"
	"fmt"

	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/clock"
	"github.com/jrsmith-dev/faktadb/idalloc"
	"github.com/jrsmith-dev/faktadb/query"
	"github.com/jrsmith-dev/faktadb/schema"
	"github.com/jrsmith-dev/faktadb/storage"
	"github.com/jrsmith-dev/faktadb/transactor"
)

// DB is an open database: one store, one transactor serializing writes,
// and a basis tracking the most recently committed transaction.
type DB struct {
	store      storage.Store
	transactor *transactor.Transactor

	basis faktadb.TxID
}

// OpenMemory opens an in-memory database, bootstrapping the reserved
// schema attributes if this is a fresh store.
func OpenMemory() (*DB, error) {
	return open(storage.NewMemoryStore())
}

// OpenBadger opens (or creates) a disk-backed database at opts.Path.
func OpenBadger(opts storage.BadgerOptions) (*DB, error) {
	store, err := storage.NewBadgerStore(opts)
	if err != nil {
		return nil, fmt.Errorf("db: open badger store: %w", err)
	}
	return open(store)
}

func open(store storage.Store) (*DB, error) {
	ctx := context.Background()
	if err := store.Write(ctx, schema.BootstrapDatoms()); err != nil {
		return nil, fmt.Errorf("db: bootstrap schema: %w", err)
	}

	alloc := idalloc.NewCounterAllocator(schema.BootstrapSeed)
	tr := transactor.New(store, alloc, clock.SystemClock{})

	return &DB{store: store, transactor: tr, basis: faktadb.TxID(schema.BootstrapSeed)}, nil
}

// Transact commits tx and advances the database's basis to the new
// transaction.
func (d *DB) Transact(ctx context.Context, tx transactor.Transaction) (transactor.TransactionResult, error) {
	result, err := d.transactor.Transact(ctx, tx)
	if err != nil {
		return transactor.TransactionResult{}, err
	}
	d.basis = result.TxID
	return result, nil
}

// AsOf returns a handle reading the database as of txID rather than the
// current basis, implementing point-in-time query per spec.md §3.4.
func (d *DB) AsOf(txID faktadb.TxID) *Snapshot {
	return &Snapshot{store: d.store.Snapshot(), basis: txID}
}

// Snapshot returns a handle reading the database at its current basis,
// isolated from any transaction committed after this call.
func (d *DB) Snapshot() *Snapshot {
	return &Snapshot{store: d.store.Snapshot(), basis: d.basis}
}

// Close releases the underlying store's resources.
func (d *DB) Close() error { return d.store.Close() }

// Snapshot is a read-only, point-in-time view of a database: a resolver
// and a query runner both scoped to one basis transaction.
type Snapshot struct {
	store storage.Store
	basis faktadb.TxID
}

// Query compiles and runs q against this snapshot, invoking fn once per
// result row before any aggregation or projection grouping is applied.
func (s *Snapshot) Query(ctx context.Context, q query.Query, fn query.RowFunc) error {
	resolver := schema.NewResolver(s.store, s.basis)
	compiled, err := query.Compile(ctx, q, resolver)
	if err != nil {
		return err
	}
	return compiled.Run(ctx, s.store, fn)
}

// Resolver returns a schema resolver scoped to this snapshot's basis, for
// callers that need attribute metadata directly (e.g. a CLI formatting
// result columns).
func (s *Snapshot) Resolver() *schema.Resolver {
	return schema.NewResolver(s.store, s.basis)
}

// Execute compiles and runs q, grouping and aggregating per spec.md
// §4.8, and returns the full projected result set.
func (s *Snapshot) Execute(ctx context.Context, q query.Query) (*query.ResultSet, error) {
	return query.Execute(ctx, q, s.Resolver(), s.store)
}

// Basis returns the transaction this snapshot is pinned to.
func (s *Snapshot) Basis() faktadb.TxID { return s.basis }
