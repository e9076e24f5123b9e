package transactor

import (
	"context"
	"sync"
	"time"

	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/clock"
	"github.com/jrsmith-dev/faktadb/idalloc"
	"github.com/jrsmith-dev/faktadb/schema"
	"github.com/jrsmith-dev/faktadb/storage"
)

// TransactionResult is returned on a successful commit.
type TransactionResult struct {
	TxID      faktadb.TxID
	TxInstant time.Time
	Datoms    []faktadb.Datom
}

// Transactor is the sole writer. One write mutex serializes Transact
// calls; a pending writer never blocks readers, since readers go through
// storage.Store.Snapshot and never touch this lock (spec.md §5).
type Transactor struct {
	store storage.Store
	alloc idalloc.Allocator
	clock clock.Clock

	mu sync.Mutex
}

// New constructs a Transactor. alloc must be seeded past every id the
// bootstrap schema reserves (see schema.BootstrapSeed).
func New(store storage.Store, alloc idalloc.Allocator, clk clock.Clock) *Transactor {
	return &Transactor{store: store, alloc: alloc, clock: clk}
}

// Transact runs the five-step pipeline from spec.md §4.6 and commits the
// result in one atomic storage write. On any validation failure, nothing
// is written.
func (t *Transactor) Transact(ctx context.Context, tx Transaction) (TransactionResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	txID := faktadb.TxID(t.alloc.Next())
	basis := txID - 1
	resolver := schema.NewResolver(t.store, basis)

	entityIDs, err := t.resolveEntityIDs(ctx, resolver, tx, txID, basis)
	if err != nil {
		return TransactionResult{}, err
	}

	var datoms []faktadb.Datom
	for i, eo := range tx.Entities {
		e := entityIDs[i]
		for _, ao := range eo.Attrs {
			ds, err := t.processAttribute(ctx, resolver, e, ao, txID, basis)
			if err != nil {
				return TransactionResult{}, err
			}
			datoms = append(datoms, ds...)
		}
	}

	instant := t.clock.Now()
	datoms = append(datoms, faktadb.New(
		faktadb.EntityID(txID),
		schema.TxInstantAttrID,
		faktadb.NewDecimal(instant.UnixNano(), 0),
		txID,
	))

	if err := t.store.Write(ctx, datoms); err != nil {
		return TransactionResult{}, &TransactionError{Kind: StorageFailure, Err: err}
	}

	return TransactionResult{TxID: txID, TxInstant: instant, Datoms: datoms}, nil
}

// resolveEntityIDs is pass one: determine the entity id for every
// EntityOperation, in order, reusing OnTempID allocations within this
// transaction.
func (t *Transactor) resolveEntityIDs(ctx context.Context, resolver *schema.Resolver, tx Transaction, txID faktadb.TxID, basis faktadb.TxID) ([]faktadb.EntityID, error) {
	tempIDs := make(map[TempID]faktadb.EntityID)
	ids := make([]faktadb.EntityID, len(tx.Entities))

	for i, eo := range tx.Entities {
		switch ref := eo.Ref.(type) {
		case OnNew:
			ids[i] = faktadb.EntityID(t.alloc.Next())
		case OnID:
			ids[i] = ref.ID
		case OnTempID:
			if id, ok := tempIDs[ref.ID]; ok {
				ids[i] = id
				continue
			}
			id := faktadb.EntityID(t.alloc.Next())
			tempIDs[ref.ID] = id
			ids[i] = id
		case OnLookupRef:
			id, err := t.resolveLookupRef(ctx, resolver, ref, basis)
			if err != nil {
				return nil, err
			}
			ids[i] = id
		default:
			return nil, &TransactionError{Kind: TempIDConflict}
		}
	}
	return ids, nil
}

func (t *Transactor) resolveLookupRef(ctx context.Context, resolver *schema.Resolver, ref OnLookupRef, basis faktadb.TxID) (faktadb.EntityID, error) {
	attr, err := resolver.ResolveIdent(ctx, ref.Attr)
	if err != nil {
		return 0, &TransactionError{Kind: UnknownAttribute, Attr: ref.Attr, Err: err}
	}

	v := ref.Value
	it, err := t.store.Find(ctx, storage.Restricts{A: &attr.ID, V: &v, TxFilter: &basis})
	if err != nil {
		return 0, &TransactionError{Kind: StorageFailure, Err: err}
	}
	defer it.Close()

	var found faktadb.EntityID
	count := 0
	for it.Next() {
		found = it.Datom().E
		count++
		if count > 1 {
			break
		}
	}
	if err := it.Err(); err != nil {
		return 0, &TransactionError{Kind: StorageFailure, Err: err}
	}
	if count != 1 {
		return 0, &TransactionError{Kind: LookupRefAmbiguous, Attr: ref.Attr, Value: ref.Value}
	}
	return found, nil
}

// processAttribute is pass two for one AttributeOperation: resolve and
// type-check the attribute, apply cardinality-one replacement or
// uniqueness checks, and return the datom(s) this operation appends.
func (t *Transactor) processAttribute(ctx context.Context, resolver *schema.Resolver, e faktadb.EntityID, ao AttributeOperation, txID, basis faktadb.TxID) ([]faktadb.Datom, error) {
	attr, err := resolver.ResolveIdent(ctx, ao.Attr)
	if err != nil {
		return nil, &TransactionError{Kind: UnknownAttribute, Attr: ao.Attr, Err: err}
	}

	if got := faktadb.Type(ao.Value); got != attr.ValueType {
		return nil, &TransactionError{Kind: InvalidValueType, Attr: ao.Attr, ExpectedType: attr.ValueType, GotType: got}
	}

	if ao.Op == faktadb.Retract {
		exists, err := t.tripleExists(ctx, e, attr.ID, ao.Value, basis)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, &TransactionError{Kind: RetractNonExistent, Attr: ao.Attr, Value: ao.Value}
		}
		return []faktadb.Datom{faktadb.NewRetraction(e, attr.ID, ao.Value, txID)}, nil
	}

	var datoms []faktadb.Datom

	if attr.Cardinality == schema.One {
		current, found, err := t.currentValue(ctx, e, attr.ID, basis)
		if err != nil {
			return nil, err
		}
		if found && faktadb.CompareValues(current, ao.Value) != 0 {
			datoms = append(datoms, faktadb.NewRetraction(e, attr.ID, current, txID))
		}
	}

	if attr.Unique {
		owner, found, err := t.uniqueOwner(ctx, attr.ID, ao.Value, basis)
		if err != nil {
			return nil, err
		}
		if found && owner != e {
			return nil, &TransactionError{Kind: UniquenessViolation, Attr: ao.Attr, Value: ao.Value, ExistingEntity: owner}
		}
	}

	datoms = append(datoms, faktadb.New(e, attr.ID, ao.Value, txID))
	return datoms, nil
}

func (t *Transactor) currentValue(ctx context.Context, e faktadb.EntityID, a faktadb.AttrID, basis faktadb.TxID) (faktadb.Value, bool, error) {
	it, err := t.store.Find(ctx, storage.Restricts{E: &e, A: &a, TxFilter: &basis})
	if err != nil {
		return nil, false, &TransactionError{Kind: StorageFailure, Err: err}
	}
	defer it.Close()

	if !it.Next() {
		if err := it.Err(); err != nil {
			return nil, false, &TransactionError{Kind: StorageFailure, Err: err}
		}
		return nil, false, nil
	}
	return it.Datom().V, true, nil
}

func (t *Transactor) tripleExists(ctx context.Context, e faktadb.EntityID, a faktadb.AttrID, v faktadb.Value, basis faktadb.TxID) (bool, error) {
	it, err := t.store.Find(ctx, storage.Restricts{E: &e, A: &a, V: &v, TxFilter: &basis})
	if err != nil {
		return false, &TransactionError{Kind: StorageFailure, Err: err}
	}
	defer it.Close()

	found := it.Next()
	if err := it.Err(); err != nil {
		return false, &TransactionError{Kind: StorageFailure, Err: err}
	}
	return found, nil
}

func (t *Transactor) uniqueOwner(ctx context.Context, a faktadb.AttrID, v faktadb.Value, basis faktadb.TxID) (faktadb.EntityID, bool, error) {
	it, err := t.store.Find(ctx, storage.Restricts{A: &a, V: &v, TxFilter: &basis})
	if err != nil {
		return 0, false, &TransactionError{Kind: StorageFailure, Err: err}
	}
	defer it.Close()

	if !it.Next() {
		if err := it.Err(); err != nil {
			return 0, false, &TransactionError{Kind: StorageFailure, Err: err}
		}
		return 0, false, nil
	}
	return it.Datom().E, true, nil
}
