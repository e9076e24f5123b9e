package storage

import (
	"errors"
	"fmt"

	"github.com/jrsmith-dev/faktadb"
)

// ErrConflictingTxRestrict is returned when a Restricts sets both Tx and
// TxFilter. The two express different things — Tx pins a scan to datoms
// from exactly one transaction, TxFilter bounds a scan to a snapshot as of
// some transaction — and spec.md leaves their interaction undefined when
// both are set. Rather than guess, this package rejects the combination.
var ErrConflictingTxRestrict = errors.New("storage: Restricts.Tx and Restricts.TxFilter are mutually exclusive")

// Restricts describes a partially- or fully-bound datom pattern: a subset
// of the E, A, V positions pinned to a constant, plus an optional
// transaction-time bound. A nil field position is unbound and matches any
// value in that position.
type Restricts struct {
	E *faktadb.EntityID
	A *faktadb.AttrID
	V *faktadb.Value

	// Tx restricts the scan to datoms asserted or retracted by exactly
	// this transaction.
	Tx *faktadb.TxID

	// TxFilter is the basis_tx bound: only datoms with T <= *TxFilter are
	// visible. This implements as-of/basis_tx snapshot queries.
	TxFilter *faktadb.TxID
}

// Validate reports ErrConflictingTxRestrict if both Tx and TxFilter are
// set.
func (r Restricts) Validate() error {
	if r.Tx != nil && r.TxFilter != nil {
		return ErrConflictingTxRestrict
	}
	return nil
}

// String renders a Restricts for diagnostics.
func (r Restricts) String() string {
	e, a, v, tx, txf := "_", "_", "_", "_", "_"
	if r.E != nil {
		e = fmt.Sprintf("%d", *r.E)
	}
	if r.A != nil {
		a = fmt.Sprintf("%d", *r.A)
	}
	if r.V != nil {
		v = fmt.Sprintf("%v", *r.V)
	}
	if r.Tx != nil {
		tx = fmt.Sprintf("=%d", *r.Tx)
	}
	if r.TxFilter != nil {
		txf = fmt.Sprintf("<=%d", *r.TxFilter)
	}
	return fmt.Sprintf("Restricts{E:%s A:%s V:%s Tx:%s TxFilter:%s}", e, a, v, tx, txf)
}

// EntityValue returns *r.E, or its zero value when E is unbound.
func (r Restricts) EntityValue() faktadb.EntityID {
	if r.E == nil {
		return 0
	}
	return *r.E
}

// AttrValue returns *r.A, or its zero value when A is unbound.
func (r Restricts) AttrValue() faktadb.AttrID {
	if r.A == nil {
		return 0
	}
	return *r.A
}
