// Package query implements the Datalog clause resolver: a compiler from
// pattern clauses into a depth-first nested-loop join over storage
// iterators, plus streaming aggregation. Grounded on the teacher's
// datalog/query package (Symbol/Variable/Blank/Constant, the Predicate
// and AggregateFunction interfaces) with the join strategy itself
// simplified to the nested-loop form original_source/src/query.rs uses —
// the teacher's relation-algebra planner, subqueries, and chained
// comparisons are out of scope here (see spec.md Non-goals).
package query

import "fmt"

// Symbol names a query variable, e.g. "?name".
type Symbol string

// Term is one of the three things that can occupy a clause position: a
// bound Variable, a literal Constant, or an ignored Blank.
type Term interface {
	isTerm()
	String() string
}

// Variable binds the value at this position to Symbol for the rest of
// the query.
type Variable struct {
	Symbol Symbol
}

func (Variable) isTerm()          {}
func (v Variable) String() string { return string(v.Symbol) }

// Constant requires the position to equal Value exactly.
type Constant struct {
	Value interface{}
}

func (Constant) isTerm()          {}
func (c Constant) String() string { return fmt.Sprintf("%v", c.Value) }

// Blank matches any value at this position without binding it.
type Blank struct{}

func (Blank) isTerm()          {}
func (Blank) String() string   { return "_" }

// Clause is one data pattern: [entity attribute value]. AttrIdent names
// the attribute by string ident; it is resolved to an AttrID once, at
// compile time, for the whole query.
type Clause struct {
	E         Term
	AttrIdent string
	V         Term
}

func (c Clause) String() string {
	return fmt.Sprintf("[%s %s %s]", c.E, c.AttrIdent, c.V)
}

// AggregateFunction names one of the supported aggregation functions
// (spec.md §4.8).
type AggregateFunction string

const (
	Count         AggregateFunction = "count"
	CountDistinct AggregateFunction = "count-distinct"
	Min           AggregateFunction = "min"
	Max           AggregateFunction = "max"
	Sum           AggregateFunction = "sum"
	Avg           AggregateFunction = "avg"
)

// Find is one element of a query's find clause: either a plain Variable
// or an Aggregate over a variable.
type Find interface {
	isFind()
	String() string
}

// FindVariable projects a bound variable through unchanged.
type FindVariable struct {
	Symbol Symbol
}

func (FindVariable) isFind()          {}
func (f FindVariable) String() string { return string(f.Symbol) }

// FindAggregate projects the result of applying Function to every value
// Symbol takes within a group.
type FindAggregate struct {
	Function AggregateFunction
	Symbol   Symbol
}

func (FindAggregate) isFind() {}
func (f FindAggregate) String() string {
	return fmt.Sprintf("(%s %s)", f.Function, f.Symbol)
}

// Query is a full Datalog query: what to project, the join clauses, and
// the value-level predicates to apply.
type Query struct {
	Find       []Find
	Clauses    []Clause
	Predicates []Predicate
}
