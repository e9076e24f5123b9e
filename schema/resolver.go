package schema

import (
	"context"
	"sync"

	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/storage"
)

// Resolver implements the attribute lookup path from spec.md §4.5: by
// numeric id, read the attribute's own db/value-type, db/cardinality, and
// db/unique datoms via EAVT; by string ident, probe AVET on db/ident
// first to find the entity id, then resolve as above. Results are cached
// for the lifetime of the Resolver, which callers scope to one query or
// one transaction (never shared across goroutines).
type Resolver struct {
	store   storage.Store
	basisTx faktadb.TxID

	mu      sync.Mutex
	byID    map[faktadb.AttrID]Attribute
	byIdent map[string]Attribute
}

// NewResolver constructs a Resolver reading through store as of basisTx.
func NewResolver(store storage.Store, basisTx faktadb.TxID) *Resolver {
	return &Resolver{
		store:   store,
		basisTx: basisTx,
		byID:    make(map[faktadb.AttrID]Attribute),
		byIdent: make(map[string]Attribute),
	}
}

// Basis returns the transaction this resolver reads as of, so callers that
// scope a Resolver to a query (e.g. query.Compile) can reuse the same
// basis for the join itself instead of reading the live store.
func (r *Resolver) Basis() faktadb.TxID { return r.basisTx }

// ResolveID resolves an attribute by its numeric id.
func (r *Resolver) ResolveID(ctx context.Context, id faktadb.AttrID) (Attribute, error) {
	r.mu.Lock()
	if a, ok := r.byID[id]; ok {
		r.mu.Unlock()
		return a, nil
	}
	r.mu.Unlock()

	a, err := r.readAttribute(ctx, id)
	if err != nil {
		return Attribute{}, err
	}

	r.mu.Lock()
	r.byID[id] = a
	if a.Ident != "" {
		r.byIdent[a.Ident] = a
	}
	r.mu.Unlock()
	return a, nil
}

// ResolveIdent resolves an attribute by its string ident.
func (r *Resolver) ResolveIdent(ctx context.Context, ident string) (Attribute, error) {
	r.mu.Lock()
	if a, ok := r.byIdent[ident]; ok {
		r.mu.Unlock()
		return a, nil
	}
	r.mu.Unlock()

	id, err := r.lookupIdent(ctx, ident)
	if err != nil {
		return Attribute{}, err
	}
	return r.ResolveID(ctx, id)
}

func (r *Resolver) lookupIdent(ctx context.Context, ident string) (faktadb.AttrID, error) {
	e := IdentAttrID
	v := faktadb.Value(faktadb.Str(ident))
	it, err := r.store.Find(ctx, storage.Restricts{A: &e, V: &v, TxFilter: &r.basisTx})
	if err != nil {
		return 0, err
	}
	defer it.Close()

	if !it.Next() {
		if err := it.Err(); err != nil {
			return 0, err
		}
		return 0, &ResolveError{Kind: IdentNotFound, Ident: ident}
	}
	return faktadb.AttrID(it.Datom().E), nil
}

func (r *Resolver) readAttribute(ctx context.Context, id faktadb.AttrID) (Attribute, error) {
	a := Attribute{ID: id}
	e := faktadb.EntityID(id)

	ident, ok, err := r.readOne(ctx, e, IdentAttrID)
	if err != nil {
		return Attribute{}, err
	}
	if ok {
		a.Ident, _ = ident.(string)
	}

	valueType, ok, err := r.readOne(ctx, e, ValueTypeAttrID)
	if err != nil {
		return Attribute{}, err
	}
	if !ok {
		return Attribute{}, &ResolveError{Kind: NotAnAttribute, ID: id}
	}
	if vt, ok := valueType.(uint64); ok {
		a.ValueType = faktadb.ValueType(vt)
	}

	cardinality, ok, err := r.readOne(ctx, e, CardinalityAttrID)
	if err != nil {
		return Attribute{}, err
	}
	if ok {
		if c, ok := cardinality.(uint64); ok {
			a.Cardinality = Cardinality(c)
		}
	}

	unique, ok, err := r.readOne(ctx, e, UniqueAttrID)
	if err != nil {
		return Attribute{}, err
	}
	a.Unique = ok && unique == uint64(1)

	return a, nil
}

// readOne reads the single cardinality-one value of (e, a) as of basisTx,
// reporting ok=false when no such datom is visible.
func (r *Resolver) readOne(ctx context.Context, e faktadb.EntityID, a faktadb.AttrID) (faktadb.Value, bool, error) {
	it, err := r.store.Find(ctx, storage.Restricts{E: &e, A: &a, TxFilter: &r.basisTx})
	if err != nil {
		return nil, false, err
	}
	defer it.Close()

	if !it.Next() {
		if err := it.Err(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return it.Datom().V, true, nil
}
