package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/clock"
	"github.com/jrsmith-dev/faktadb/idalloc"
	"github.com/jrsmith-dev/faktadb/schema"
	"github.com/jrsmith-dev/faktadb/storage"
	"github.com/jrsmith-dev/faktadb/transactor"
)

// testFixture bootstraps a store, defines a small person schema, and
// loads Alice/Bob/Charlie with friendships, mirroring the teacher's
// cmd/datalog demo data.
type testFixture struct {
	store   storage.Store
	tr      *transactor.Transactor
	basis   faktadb.TxID
	alice   faktadb.EntityID
	bob     faktadb.EntityID
	charlie faktadb.EntityID
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	s := storage.NewMemoryStore()
	ctx := context.Background()
	if err := s.Write(ctx, schema.BootstrapDatoms()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	alloc := idalloc.NewCounterAllocator(schema.BootstrapSeed)
	clk := clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tr := transactor.New(s, alloc, clk)

	define := func(ident string, vt faktadb.ValueType, card schema.Cardinality) transactor.EntityOperation {
		return transactor.EntityOperation{Ref: transactor.OnNew{}, Attrs: []transactor.AttributeOperation{
			transactor.Assert(schema.IdentIdent, faktadb.Str(ident)),
			transactor.Assert(schema.ValueTypeIdent, faktadb.U64(uint64(vt))),
			transactor.Assert(schema.CardinalityIdent, faktadb.U64(uint64(card))),
		}}
	}
	if _, err := tr.Transact(ctx, transactor.Transaction{Entities: []transactor.EntityOperation{
		define("person/name", faktadb.TypeStr, schema.One),
		define("person/age", faktadb.TypeI64, schema.One),
		define("person/city", faktadb.TypeStr, schema.One),
		define("person/friend", faktadb.TypeRef, schema.Many),
	}}); err != nil {
		t.Fatalf("define schema: %v", err)
	}

	r, err := tr.Transact(ctx, transactor.Transaction{Entities: []transactor.EntityOperation{
		{Ref: transactor.OnNew{}, Attrs: []transactor.AttributeOperation{
			transactor.Assert("person/name", faktadb.Str("Alice")),
			transactor.Assert("person/age", faktadb.I64(30)),
			transactor.Assert("person/city", faktadb.Str("New York")),
		}},
		{Ref: transactor.OnNew{}, Attrs: []transactor.AttributeOperation{
			transactor.Assert("person/name", faktadb.Str("Bob")),
			transactor.Assert("person/age", faktadb.I64(25)),
			transactor.Assert("person/city", faktadb.Str("Boston")),
		}},
		{Ref: transactor.OnNew{}, Attrs: []transactor.AttributeOperation{
			transactor.Assert("person/name", faktadb.Str("Charlie")),
			transactor.Assert("person/age", faktadb.I64(35)),
			transactor.Assert("person/city", faktadb.Str("New York")),
		}},
	}})
	if err != nil {
		t.Fatalf("load people: %v", err)
	}

	var ids []faktadb.EntityID
	seen := map[faktadb.EntityID]bool{}
	for _, d := range r.Datoms {
		if d.A == schema.TxInstantAttrID {
			continue
		}
		if !seen[d.E] {
			seen[d.E] = true
			ids = append(ids, d.E)
		}
	}
	alice, bob, charlie := ids[0], ids[1], ids[2]

	r2, err := tr.Transact(ctx, transactor.Transaction{Entities: []transactor.EntityOperation{
		{Ref: transactor.OnID{ID: alice}, Attrs: []transactor.AttributeOperation{
			transactor.Assert("person/friend", faktadb.Ref(bob)),
			transactor.Assert("person/friend", faktadb.Ref(charlie)),
		}},
		{Ref: transactor.OnID{ID: bob}, Attrs: []transactor.AttributeOperation{
			transactor.Assert("person/friend", faktadb.Ref(charlie)),
		}},
	}})
	if err != nil {
		t.Fatalf("add friendships: %v", err)
	}

	return &testFixture{store: s, tr: tr, basis: r2.TxID, alice: alice, bob: bob, charlie: charlie}
}

func (f *testFixture) run(t *testing.T, q Query) *ResultSet {
	t.Helper()
	ctx := context.Background()
	resolver := schema.NewResolver(f.store, f.basis)
	rs, err := Execute(ctx, q, resolver, f.store)
	require.NoError(t, err)
	return rs
}

func TestJoinFindsAllPeopleWithNameAndAge(t *testing.T) {
	f := newTestFixture(t)
	rs := f.run(t, Query{
		Find: []Find{FindVariable{Symbol: "?name"}, FindVariable{Symbol: "?age"}},
		Clauses: []Clause{
			{E: Variable{Symbol: "?p"}, AttrIdent: "person/name", V: Variable{Symbol: "?name"}},
			{E: Variable{Symbol: "?p"}, AttrIdent: "person/age", V: Variable{Symbol: "?age"}},
		},
	})
	assert.Len(t, rs.Rows, 3)
}

func TestJoinWithPredicateFiltersByAge(t *testing.T) {
	f := newTestFixture(t)
	rs := f.run(t, Query{
		Find: []Find{FindVariable{Symbol: "?name"}},
		Clauses: []Clause{
			{E: Variable{Symbol: "?p"}, AttrIdent: "person/name", V: Variable{Symbol: "?name"}},
			{E: Variable{Symbol: "?p"}, AttrIdent: "person/age", V: Variable{Symbol: "?age"}},
		},
		Predicates: []Predicate{
			Comparison{Op: OpGT, Left: VariableTerm{Symbol: "?age"}, Right: ConstantTerm{Value: faktadb.I64(25)}},
		},
	})
	require.Len(t, rs.Rows, 2)
	names := map[string]bool{}
	for _, row := range rs.Rows {
		names[row[0].(string)] = true
	}
	assert.True(t, names["Alice"])
	assert.True(t, names["Charlie"])
	assert.False(t, names["Bob"])
}

func TestJoinThreeClausesFindsFriendOfFriendName(t *testing.T) {
	f := newTestFixture(t)
	rs := f.run(t, Query{
		Find: []Find{FindVariable{Symbol: "?friend-name"}},
		Clauses: []Clause{
			{E: Variable{Symbol: "?a"}, AttrIdent: "person/name", V: Constant{Value: faktadb.Str("Alice")}},
			{E: Variable{Symbol: "?a"}, AttrIdent: "person/friend", V: Variable{Symbol: "?friend"}},
			{E: Variable{Symbol: "?friend"}, AttrIdent: "person/name", V: Variable{Symbol: "?friend-name"}},
		},
	})
	assert.Len(t, rs.Rows, 2, "Alice has 2 friends")
}

func TestAggregateCountAndAverageByCity(t *testing.T) {
	f := newTestFixture(t)
	rs := f.run(t, Query{
		Find: []Find{
			FindVariable{Symbol: "?city"},
			FindAggregate{Function: Count, Symbol: "?name"},
			FindAggregate{Function: Avg, Symbol: "?age"},
		},
		Clauses: []Clause{
			{E: Variable{Symbol: "?p"}, AttrIdent: "person/city", V: Variable{Symbol: "?city"}},
			{E: Variable{Symbol: "?p"}, AttrIdent: "person/name", V: Variable{Symbol: "?name"}},
			{E: Variable{Symbol: "?p"}, AttrIdent: "person/age", V: Variable{Symbol: "?age"}},
		},
	})
	require.Len(t, rs.Rows, 2)
	for _, row := range rs.Rows {
		city := row[0].(string)
		count := row[1].(int64)
		switch city {
		case "New York":
			assert.EqualValues(t, 2, count)
		case "Boston":
			assert.EqualValues(t, 1, count)
		}
	}
}

func TestCompileRejectsUnknownVariableInPredicate(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	resolver := schema.NewResolver(f.store, f.basis)
	_, err := Compile(ctx, Query{
		Find: []Find{FindVariable{Symbol: "?name"}},
		Clauses: []Clause{
			{E: Variable{Symbol: "?p"}, AttrIdent: "person/name", V: Variable{Symbol: "?name"}},
		},
		Predicates: []Predicate{
			Comparison{Op: OpGT, Left: VariableTerm{Symbol: "?ghost"}, Right: ConstantTerm{Value: faktadb.I64(1)}},
		},
	}, resolver)
	qe, ok := err.(*QueryError)
	if !ok || qe.Kind != UnknownVariable {
		t.Fatalf("expected UnknownVariable, got %v", err)
	}
}

func TestRunStopsEarlyOnSentinel(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	resolver := schema.NewResolver(f.store, f.basis)
	q := Query{
		Find: []Find{FindVariable{Symbol: "?name"}},
		Clauses: []Clause{
			{E: Variable{Symbol: "?p"}, AttrIdent: "person/name", V: Variable{Symbol: "?name"}},
		},
	}
	compiled, err := Compile(ctx, q, resolver)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	seen := 0
	err = compiled.Run(ctx, f.store, func(Row) error {
		seen++
		return StopIteration()
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if seen != 1 {
		t.Fatalf("expected exactly 1 row before stopping, got %d", seen)
	}
}

func TestAsOfBasisExcludesLaterTransaction(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	before, err := f.tr.Transact(ctx, transactor.Transaction{Entities: []transactor.EntityOperation{
		{Ref: transactor.OnNew{}, Attrs: []transactor.AttributeOperation{
			transactor.Assert("person/name", faktadb.Str("Dana")),
			transactor.Assert("person/age", faktadb.I64(40)),
			transactor.Assert("person/city", faktadb.Str("Chicago")),
		}},
	}})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}
	_ = before

	resolver := schema.NewResolver(f.store, f.basis)
	rs, err := Execute(ctx, Query{
		Find: []Find{FindVariable{Symbol: "?name"}},
		Clauses: []Clause{
			{E: Variable{Symbol: "?p"}, AttrIdent: "person/name", V: Variable{Symbol: "?name"}},
		},
	}, resolver, f.store)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rs.Rows) != 3 {
		t.Fatalf("expected as-of-f.basis query to still see only 3 people, got %d: %v", len(rs.Rows), rs.Rows)
	}
}
