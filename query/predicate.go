package query

import (
	"fmt"

	"github.com/jrsmith-dev/faktadb"
)

// CompareOp is a comparison predicate's operator.
type CompareOp string

const (
	OpEQ  CompareOp = "="
	OpNE  CompareOp = "!="
	OpLT  CompareOp = "<"
	OpLTE CompareOp = "<="
	OpGT  CompareOp = ">"
	OpGTE CompareOp = ">="
)

// PredicateTerm resolves to a value given a set of bindings: either a
// bound variable or a literal constant.
type PredicateTerm interface {
	Resolve(bindings map[Symbol]faktadb.Value) (faktadb.Value, bool)
	RequiredSymbols() []Symbol
	String() string
}

// VariableTerm resolves to whatever the named variable is currently
// bound to.
type VariableTerm struct {
	Symbol Symbol
}

func (t VariableTerm) Resolve(bindings map[Symbol]faktadb.Value) (faktadb.Value, bool) {
	v, ok := bindings[t.Symbol]
	return v, ok
}

func (t VariableTerm) RequiredSymbols() []Symbol { return []Symbol{t.Symbol} }
func (t VariableTerm) String() string            { return string(t.Symbol) }

// ConstantTerm always resolves to Value.
type ConstantTerm struct {
	Value faktadb.Value
}

func (t ConstantTerm) Resolve(map[Symbol]faktadb.Value) (faktadb.Value, bool) { return t.Value, true }
func (t ConstantTerm) RequiredSymbols() []Symbol                              { return nil }
func (t ConstantTerm) String() string                                        { return fmt.Sprintf("%v", t.Value) }

// Predicate is a value-level filter applied once its required variables
// are bound. The resolver applies a predicate as early as possible: right
// after the clause that binds its last required variable.
type Predicate interface {
	RequiredSymbols() []Symbol
	Eval(bindings map[Symbol]faktadb.Value) (bool, error)
	String() string
}

// Comparison implements the six relational operators over two terms.
type Comparison struct {
	Op    CompareOp
	Left  PredicateTerm
	Right PredicateTerm
}

func (c Comparison) RequiredSymbols() []Symbol {
	return append(c.Left.RequiredSymbols(), c.Right.RequiredSymbols()...)
}

func (c Comparison) Eval(bindings map[Symbol]faktadb.Value) (bool, error) {
	left, ok := c.Left.Resolve(bindings)
	if !ok {
		return false, &QueryError{Kind: UnknownVariable, Detail: c.Left.String()}
	}
	right, ok := c.Right.Resolve(bindings)
	if !ok {
		return false, &QueryError{Kind: UnknownVariable, Detail: c.Right.String()}
	}
	if faktadb.Type(left) != faktadb.Type(right) {
		return false, &QueryError{Kind: TypeMismatchInPredicate, Detail: fmt.Sprintf("%s vs %s", faktadb.TypeName(left), faktadb.TypeName(right))}
	}

	cmp := faktadb.CompareValues(left, right)
	switch c.Op {
	case OpEQ:
		return cmp == 0, nil
	case OpNE:
		return cmp != 0, nil
	case OpLT:
		return cmp < 0, nil
	case OpLTE:
		return cmp <= 0, nil
	case OpGT:
		return cmp > 0, nil
	case OpGTE:
		return cmp >= 0, nil
	default:
		return false, &QueryError{Kind: TypeMismatchInPredicate, Detail: fmt.Sprintf("unknown operator %s", c.Op)}
	}
}

func (c Comparison) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Op, c.Left, c.Right)
}
