// Package schema implements the self-describing attribute schema:
// reserved bootstrap attributes, the Cardinality/Attribute model, and an
// attribute resolver cached per snapshot. Grounded on
// original_source/src/schema.rs's bootstrap datom list and self-
// describing attribute-of-attributes pattern, renamed to the idents
// spec.md specifies.
package schema

import "github.com/jrsmith-dev/faktadb"

// Cardinality declares whether an attribute holds one value or a set of
// values per entity.
type Cardinality byte

const (
	One Cardinality = iota
	Many
)

func (c Cardinality) String() string {
	if c == Many {
		return "many"
	}
	return "one"
}

// Reserved bootstrap attribute ids. These must exist before any user
// schema is asserted, and double as entity ids since attributes are
// entities like any other (spec.md §3.5).
const (
	IdentAttrID       faktadb.AttrID = 1
	ValueTypeAttrID   faktadb.AttrID = 2
	CardinalityAttrID faktadb.AttrID = 3
	UniqueAttrID      faktadb.AttrID = 4
	TxInstantAttrID   faktadb.AttrID = 5

	IdentIdent       = "db/ident"
	ValueTypeIdent   = "db/value-type"
	CardinalityIdent = "db/cardinality"
	UniqueIdent      = "db/unique"
	TxInstantIdent   = "db/tx-instant"
)

// bootstrapTx is the pseudo-transaction the bootstrap datoms are stamped
// with. It is never allocated by idalloc.CounterAllocator and is never
// reused; the first real transaction starts from the seed the allocator
// is constructed with (see BootstrapSeed).
const bootstrapTx faktadb.TxID = 0

// BootstrapSeed is the id the entity/tx allocator should be seeded with
// so that the first id it hands out does not collide with a reserved
// bootstrap attribute.
const BootstrapSeed uint64 = uint64(TxInstantAttrID)

// BootstrapDatoms returns the self-describing datoms asserting the five
// reserved attributes about themselves. A new database must write these
// before any other transaction.
func BootstrapDatoms() []faktadb.Datom {
	attrs := []struct {
		id          faktadb.AttrID
		ident       string
		valueType   faktadb.ValueType
		cardinality Cardinality
		unique      bool
	}{
		{IdentAttrID, IdentIdent, faktadb.TypeStr, One, true},
		{ValueTypeAttrID, ValueTypeIdent, faktadb.TypeU64, One, false},
		{CardinalityAttrID, CardinalityIdent, faktadb.TypeU64, One, false},
		{UniqueAttrID, UniqueIdent, faktadb.TypeU64, One, false},
		{TxInstantAttrID, TxInstantIdent, faktadb.TypeDecimal, One, false},
	}

	var datoms []faktadb.Datom
	for _, a := range attrs {
		e := faktadb.EntityID(a.id)
		datoms = append(datoms,
			faktadb.New(e, IdentAttrID, faktadb.Str(a.ident), bootstrapTx),
			faktadb.New(e, ValueTypeAttrID, faktadb.U64(uint64(a.valueType)), bootstrapTx),
			faktadb.New(e, CardinalityAttrID, faktadb.U64(uint64(a.cardinality)), bootstrapTx),
		)
		if a.unique {
			datoms = append(datoms, faktadb.New(e, UniqueAttrID, faktadb.U64(1), bootstrapTx))
		}
	}
	return datoms
}

// Attribute is the resolved, in-memory view of an attribute entity.
type Attribute struct {
	ID          faktadb.AttrID
	Ident       string
	ValueType   faktadb.ValueType
	Cardinality Cardinality
	Unique      bool
}
