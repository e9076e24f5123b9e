package query

import (
	"context"

	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/schema"
	"github.com/jrsmith-dev/faktadb/storage"
)

// compiledClause is a Clause with its attribute ident resolved to an
// AttrID once, at compile time, plus the predicates that become
// evaluable once this clause's variables are bound (per spec.md §4.7:
// "applying predicates whose vars are bound early").
type compiledClause struct {
	clause     Clause
	attr       faktadb.AttrID
	readyPreds []Predicate
}

// CompiledQuery is a Query whose attribute idents have been resolved and
// whose predicates have been assigned to the earliest clause that binds
// all of their variables. basis pins every clause scan to the
// transaction the compiling resolver read as of, so Run reproduces
// point-in-time results rather than the store's live contents.
type CompiledQuery struct {
	find    []Find
	clauses []compiledClause
	basis   faktadb.TxID
}

// Compile resolves every clause's attribute ident against resolver and
// schedules each predicate to run as soon as its variables are bound.
// Resolution happens once, up front, so Run never pays a resolver lookup
// per row.
func Compile(ctx context.Context, q Query, resolver *schema.Resolver) (*CompiledQuery, error) {
	clauses := make([]compiledClause, len(q.Clauses))
	bound := make(map[Symbol]bool)

	assigned := make([]bool, len(q.Predicates))
	for i, c := range q.Clauses {
		attr, err := resolver.ResolveIdent(ctx, c.AttrIdent)
		if err != nil {
			return nil, &QueryError{Kind: ResolveFailure, Err: err}
		}
		clauses[i] = compiledClause{clause: c, attr: attr.ID}

		if v, ok := c.E.(Variable); ok {
			bound[v.Symbol] = true
		}
		if v, ok := c.V.(Variable); ok {
			bound[v.Symbol] = true
		}

		for pi, p := range q.Predicates {
			if assigned[pi] {
				continue
			}
			if allBound(p.RequiredSymbols(), bound) {
				clauses[i].readyPreds = append(clauses[i].readyPreds, p)
				assigned[pi] = true
			}
		}
	}

	for pi, ok := range assigned {
		if !ok {
			return nil, &QueryError{Kind: UnknownVariable, Detail: q.Predicates[pi].String()}
		}
	}

	for _, f := range q.Find {
		sym, isAgg := findSymbol(f)
		if !isAgg && !bound[sym] {
			return nil, &QueryError{Kind: UnknownVariable, Detail: string(sym)}
		} else if isAgg && !bound[sym] {
			return nil, &QueryError{Kind: UnknownVariable, Detail: string(sym)}
		}
	}

	return &CompiledQuery{find: q.Find, clauses: clauses, basis: resolver.Basis()}, nil
}

func findSymbol(f Find) (Symbol, bool) {
	switch x := f.(type) {
	case FindVariable:
		return x.Symbol, false
	case FindAggregate:
		return x.Symbol, true
	default:
		return "", false
	}
}

func allBound(symbols []Symbol, bound map[Symbol]bool) bool {
	for _, s := range symbols {
		if !bound[s] {
			return false
		}
	}
	return true
}

// Row is one binding produced by the join, already pared down to the
// find variables (pre-aggregation).
type Row map[Symbol]faktadb.Value

// RowFunc is called once per row the join produces. Returning an error
// stops iteration and that error is returned from Run.
type RowFunc func(Row) error

// Run drives the depth-first nested-loop join described in spec.md §4.7:
// for each clause, substitute already-bound variables into a Restricts
// scoped to q.basis (the transaction Compile's resolver read as of), scan
// store.Find, and for every yielded datom extend the assignment with any
// newly bound variables, evaluate the predicates that become ready at
// this clause, recurse into the next clause, then undo the extension
// before trying the next datom. The walk is depth-first and the iterator
// is driven lazily, so a RowFunc that returns errStopIteration halts the
// whole join immediately without scanning further candidates.
func (q *CompiledQuery) Run(ctx context.Context, store storage.Store, fn RowFunc) error {
	assignment := make(PartialAssignment)
	err := q.runClause(ctx, store, 0, assignment, fn)
	if err == errStopIteration {
		return nil
	}
	return err
}

var errStopIteration = &QueryError{Kind: StorageFailure, Detail: "stop"}

// StopIteration is the sentinel a RowFunc returns to halt Run early
// without it being reported as a failure.
func StopIteration() error { return errStopIteration }

func (q *CompiledQuery) runClause(ctx context.Context, store storage.Store, idx int, assignment PartialAssignment, fn RowFunc) error {
	if idx == len(q.clauses) {
		row := make(Row, len(q.find))
		for _, f := range q.find {
			sym, _ := findSymbol(f)
			row[sym] = assignment[sym]
		}
		return fn(row)
	}

	cc := q.clauses[idx]
	restricts := storage.Restricts{A: &cc.attr, TxFilter: &q.basis}

	var boundE *faktadb.EntityID
	if v, ok := cc.clause.E.(Variable); ok {
		if bv, ok := assignment[v.Symbol]; ok {
			e := bv.(faktadb.EntityID)
			boundE = &e
		}
	} else if c, ok := cc.clause.E.(Constant); ok {
		e := constantEntity(c)
		boundE = &e
	}
	restricts.E = boundE

	var boundV *faktadb.Value
	if v, ok := cc.clause.V.(Variable); ok {
		if bv, ok := assignment[v.Symbol]; ok {
			boundV = &bv
		}
	} else if c, ok := cc.clause.V.(Constant); ok {
		val := c.Value.(faktadb.Value)
		boundV = &val
	}
	restricts.V = boundV

	it, err := store.Find(ctx, restricts)
	if err != nil {
		return &QueryError{Kind: StorageFailure, Err: err}
	}
	defer it.Close()

	for it.Next() {
		d := it.Datom()

		newE, extendedE := bindTerm(cc.clause.E, faktadb.Ref(d.E), assignment)
		if !newE {
			continue
		}
		newV, extendedV := bindTerm(cc.clause.V, d.V, assignment)
		if !newV {
			if extendedE {
				undoBind(cc.clause.E, assignment)
			}
			continue
		}

		ready := true
		for _, p := range cc.readyPreds {
			ok, perr := p.Eval(assignment)
			if perr != nil {
				return perr
			}
			if !ok {
				ready = false
				break
			}
		}

		if ready {
			if err := q.runClause(ctx, store, idx+1, assignment, fn); err != nil {
				if extendedV {
					undoBind(cc.clause.V, assignment)
				}
				if extendedE {
					undoBind(cc.clause.E, assignment)
				}
				return err
			}
		}

		if extendedV {
			undoBind(cc.clause.V, assignment)
		}
		if extendedE {
			undoBind(cc.clause.E, assignment)
		}
	}
	return it.Err()
}

// bindTerm checks term against value under assignment, extending the
// assignment if term is a Variable not yet bound. It returns ok=false
// when term is a Constant or already-bound Variable that conflicts with
// value, and extended=true when it added a new binding the caller must
// undo.
func bindTerm(term Term, value faktadb.Value, assignment PartialAssignment) (ok bool, extended bool) {
	switch t := term.(type) {
	case Blank:
		return true, false
	case Constant:
		return faktadb.CompareValues(t.Value.(faktadb.Value), value) == 0, false
	case Variable:
		if existing, bound := assignment[t.Symbol]; bound {
			return faktadb.CompareValues(existing, value) == 0, false
		}
		assignment[t.Symbol] = value
		return true, true
	default:
		return false, false
	}
}

func undoBind(term Term, assignment PartialAssignment) {
	if v, ok := term.(Variable); ok {
		delete(assignment, v.Symbol)
	}
}

func constantEntity(c Constant) faktadb.EntityID {
	switch x := c.Value.(type) {
	case faktadb.EntityID:
		return x
	case uint64:
		return faktadb.EntityID(x)
	case int64:
		return faktadb.EntityID(x)
	default:
		return 0
	}
}
