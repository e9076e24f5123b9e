// Package transactor implements the sole writer of the database: schema
// validation, entity id resolution, cardinality-one replacement,
// uniqueness enforcement, and atomic commit through the storage layer.
// Grounded on original_source/src/{tx.rs,transactor.rs} for the exact
// two-pass pipeline, expressed in the teacher's Go idiom (a mutex-guarded
// struct, concrete wrapped error types, fmt.Errorf("%w", ...)).
package transactor

import "github.com/jrsmith-dev/faktadb"

// TempID names an entity within one transaction so multiple
// AttributeOperations can refer to the same not-yet-allocated entity.
type TempID string

// EntityRef selects how an EntityOperation's entity id is determined.
// The four concrete implementations are OnNew, OnID, OnTempID, and
// OnLookupRef.
type EntityRef interface {
	isEntityRef()
}

// OnNew allocates a brand new entity id.
type OnNew struct{}

func (OnNew) isEntityRef() {}

// OnID targets an already-existing entity by its numeric id.
type OnID struct {
	ID faktadb.EntityID
}

func (OnID) isEntityRef() {}

// OnTempID names an entity with a transaction-scoped identifier. The
// first AttributeOperation set to reference a given TempID allocates a
// fresh entity id; every subsequent reference to the same TempID within
// the same transaction reuses that id.
type OnTempID struct {
	ID TempID
}

func (OnTempID) isEntityRef() {}

// OnLookupRef resolves to whatever entity currently has attribute Attr
// set to Value, via an AVET probe as of the transaction's basis (T-1).
// Resolution fails if zero or more than one entity matches.
type OnLookupRef struct {
	Attr  string
	Value faktadb.Value
}

func (OnLookupRef) isEntityRef() {}

// AttributeOperation asserts or retracts one (attribute, value) pair on
// an entity. Attr is the attribute's string ident; the transactor
// resolves it through the schema resolver.
type AttributeOperation struct {
	Attr  string
	Value faktadb.Value
	Op    faktadb.Op
}

// EntityOperation groups the attribute operations that apply to one
// entity reference.
type EntityOperation struct {
	Ref   EntityRef
	Attrs []AttributeOperation
}

// Transaction is the transactor's public input: a batch of entity
// operations to apply atomically.
type Transaction struct {
	Entities []EntityOperation
}

// Assert is a convenience constructor for a single-attribute Assert
// operation.
func Assert(attr string, value faktadb.Value) AttributeOperation {
	return AttributeOperation{Attr: attr, Value: value, Op: faktadb.Assert}
}

// Retract is a convenience constructor for a single-attribute Retract
// operation.
func Retract(attr string, value faktadb.Value) AttributeOperation {
	return AttributeOperation{Attr: attr, Value: value, Op: faktadb.Retract}
}
