package faktadb

import "fmt"

// Op flags whether a Datom begins (Assert) or ends (Retract) a fact.
type Op byte

const (
	Assert Op = iota
	Retract
)

// String renders an Op for diagnostics.
func (op Op) String() string {
	if op == Retract {
		return "retract"
	}
	return "assert"
}

// Datom is the fundamental, immutable unit of data: a single fact
// (entity, attribute, value, transaction, op). Datoms are never mutated or
// removed once committed; retracting a fact appends a new Datom with
// Op == Retract rather than deleting the asserting one.
type Datom struct {
	E  EntityID
	A  AttrID
	V  Value
	T  TxID
	Op Op
}

// New constructs an asserting Datom.
func New(e EntityID, a AttrID, v Value, t TxID) Datom {
	return Datom{E: e, A: a, V: v, T: t, Op: Assert}
}

// NewRetraction constructs a retracting Datom.
func NewRetraction(e EntityID, a AttrID, v Value, t TxID) Datom {
	return Datom{E: e, A: a, V: v, T: t, Op: Retract}
}

// String renders a Datom for diagnostics, e.g. "[42 7 \"Alice\" 100 assert]".
func (d Datom) String() string {
	return fmt.Sprintf("[%d %d %v %d %s]", d.E, d.A, d.V, d.T, d.Op)
}
