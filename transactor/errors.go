package transactor

import (
	"fmt"

	"github.com/jrsmith-dev/faktadb"
)

// TransactionErrorKind distinguishes why a transaction was rejected.
type TransactionErrorKind int

const (
	UnknownAttribute TransactionErrorKind = iota
	InvalidValueType
	UniquenessViolation
	RetractNonExistent
	TempIDConflict
	LookupRefAmbiguous
	StorageFailure
)

// TransactionError reports a rejected transaction. A rejected transaction
// has no side effects: the storage write never happens.
type TransactionError struct {
	Kind TransactionErrorKind

	Attr         string
	ExpectedType faktadb.ValueType
	GotType      faktadb.ValueType
	Value        faktadb.Value

	// ExistingEntity is set for UniquenessViolation: the entity that
	// already holds the conflicting (attribute, value) pair.
	ExistingEntity faktadb.EntityID

	// TempID is set for TempIDConflict.
	TempID TempID

	Err error
}

func (e *TransactionError) Error() string {
	switch e.Kind {
	case UnknownAttribute:
		return fmt.Sprintf("transactor: unknown attribute %q", e.Attr)
	case InvalidValueType:
		return fmt.Sprintf("transactor: attribute %q expects %s, got %s", e.Attr, e.ExpectedType, e.GotType)
	case UniquenessViolation:
		return fmt.Sprintf("transactor: uniqueness violation on %q=%v, already held by entity %d", e.Attr, e.Value, e.ExistingEntity)
	case RetractNonExistent:
		return fmt.Sprintf("transactor: cannot retract %q=%v: triple does not currently exist", e.Attr, e.Value)
	case TempIDConflict:
		return fmt.Sprintf("transactor: temp id %q used inconsistently", e.TempID)
	case LookupRefAmbiguous:
		return fmt.Sprintf("transactor: lookup ref on %q=%v matched zero or more than one entity", e.Attr, e.Value)
	case StorageFailure:
		return fmt.Sprintf("transactor: storage failure: %v", e.Err)
	default:
		return "transactor: transaction error"
	}
}

func (e *TransactionError) Unwrap() error { return e.Err }
