package query

import (
	"fmt"

	"github.com/jrsmith-dev/faktadb"
)

// AggregationState accumulates one aggregate slot across the rows of one
// group. Add is called once per row in the group's iteration order;
// Result is called once, after the group is exhausted.
type AggregationState interface {
	Add(v faktadb.Value) error
	Result() (faktadb.Value, error)
}

// NewAggregationState constructs the AggregationState for fn.
func NewAggregationState(fn AggregateFunction) AggregationState {
	switch fn {
	case Count:
		return &countState{}
	case CountDistinct:
		return &countDistinctState{seen: make(map[string]struct{})}
	case Min:
		return &minState{}
	case Max:
		return &maxState{}
	case Sum:
		return &sumState{}
	case Avg:
		return &avgState{}
	default:
		return &countState{}
	}
}

type countState struct{ n int64 }

func (s *countState) Add(faktadb.Value) error        { s.n++; return nil }
func (s *countState) Result() (faktadb.Value, error) { return faktadb.I64(s.n), nil }

type countDistinctState struct {
	seen map[string]struct{}
}

func (s *countDistinctState) Add(v faktadb.Value) error {
	s.seen[fmt.Sprintf("%d:%v", faktadb.Type(v), v)] = struct{}{}
	return nil
}

func (s *countDistinctState) Result() (faktadb.Value, error) {
	return faktadb.I64(int64(len(s.seen))), nil
}

type minState struct {
	has  bool
	best faktadb.Value
}

func (s *minState) Add(v faktadb.Value) error {
	if !s.has || faktadb.CompareValues(v, s.best) < 0 {
		s.best, s.has = v, true
	}
	return nil
}

func (s *minState) Result() (faktadb.Value, error) {
	if !s.has {
		return faktadb.NilValue(), nil
	}
	return s.best, nil
}

type maxState struct {
	has  bool
	best faktadb.Value
}

func (s *maxState) Add(v faktadb.Value) error {
	if !s.has || faktadb.CompareValues(v, s.best) > 0 {
		s.best, s.has = v, true
	}
	return nil
}

func (s *maxState) Result() (faktadb.Value, error) {
	if !s.has {
		return faktadb.NilValue(), nil
	}
	return s.best, nil
}

type sumState struct{ acc numericAccumulator }

func (s *sumState) Add(v faktadb.Value) error        { return s.acc.add(v) }
func (s *sumState) Result() (faktadb.Value, error) { return s.acc.sum(), nil }

type avgState struct{ acc numericAccumulator }

func (s *avgState) Add(v faktadb.Value) error        { return s.acc.add(v) }
func (s *avgState) Result() (faktadb.Value, error) { return s.acc.average() }

// numericAccumulator implements spec.md §4.8's mixed-type promotion rule:
// Sum and Average accept I64, U64, and Decimal values; as long as every
// value added has the same type the accumulator stays in that type's
// native representation, but the moment a second, different numeric type
// appears it promotes to Decimal and stays there.
type numericAccumulator struct {
	started bool
	kind    faktadb.ValueType
	i64     int64
	u64     uint64
	dec     faktadb.Decimal
	count   int64
}

func (acc *numericAccumulator) add(v faktadb.Value) error {
	vt := faktadb.Type(v)
	if vt != faktadb.TypeI64 && vt != faktadb.TypeU64 && vt != faktadb.TypeDecimal {
		return &QueryError{Kind: AggregateTypeMismatch, Detail: fmt.Sprintf("cannot aggregate %s numerically", faktadb.TypeName(v))}
	}

	if !acc.started {
		acc.started = true
		acc.kind = vt
	} else if acc.kind != vt {
		acc.promoteToDecimal()
	}
	acc.count++

	switch acc.kind {
	case faktadb.TypeI64:
		acc.i64 += v.(int64)
	case faktadb.TypeU64:
		acc.u64 += v.(uint64)
	case faktadb.TypeDecimal:
		acc.dec = acc.dec.Add(decimalOf(v))
	}
	return nil
}

func (acc *numericAccumulator) promoteToDecimal() {
	switch acc.kind {
	case faktadb.TypeI64:
		acc.dec = faktadb.DecimalFromInt64(acc.i64)
	case faktadb.TypeU64:
		acc.dec = faktadb.DecimalFromUint64(acc.u64)
	default:
		return
	}
	acc.kind = faktadb.TypeDecimal
}

func decimalOf(v faktadb.Value) faktadb.Decimal {
	switch x := v.(type) {
	case int64:
		return faktadb.DecimalFromInt64(x)
	case uint64:
		return faktadb.DecimalFromUint64(x)
	case faktadb.Decimal:
		return x
	default:
		return faktadb.Decimal{}
	}
}

func (acc *numericAccumulator) sum() faktadb.Value {
	switch acc.kind {
	case faktadb.TypeI64:
		return faktadb.I64(acc.i64)
	case faktadb.TypeU64:
		return faktadb.U64(acc.u64)
	default:
		return acc.dec
	}
}

func (acc *numericAccumulator) average() (faktadb.Value, error) {
	if acc.count == 0 {
		return faktadb.I64(0), nil
	}
	acc.promoteToDecimal()
	q, err := acc.dec.Quo(faktadb.DecimalFromInt64(acc.count))
	if err != nil {
		return nil, &QueryError{Kind: AggregateTypeMismatch, Err: err}
	}
	return q, nil
}
