// Command faktadb is a small demo driving the database through its
// structured Go API: define a schema, transact some facts, and run a
// handful of queries against it. Grounded on the teacher's cmd/datalog,
// whose runDemo does the equivalent walk (add people, add friendships,
// run a handful of queries) — this program follows the same demo shape
// but drives the typed transactor.Transaction/query.Query API directly
// rather than parsing Datalog-as-text, since a textual query language is
// out of scope here (see SPEC_FULL.md Non-goals).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"

	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/db"
	"github.com/jrsmith-dev/faktadb/internal/format"
	"github.com/jrsmith-dev/faktadb/query"
	"github.com/jrsmith-dev/faktadb/schema"
	"github.com/jrsmith-dev/faktadb/storage"
	"github.com/jrsmith-dev/faktadb/transactor"
)

func main() {
	var dbPath string
	flag.StringVar(&dbPath, "db", "", "badger database directory (default: in-memory)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Runs a demo transaction and query set against faktadb.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var database *db.DB
	var err error
	if dbPath == "" {
		database, err = db.OpenMemory()
	} else {
		database, err = db.OpenBadger(storage.BadgerOptions{Path: dbPath})
	}
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()

	fmt.Println(color.GreenString("=== faktadb demo ==="))

	if err := defineSchema(ctx, database); err != nil {
		log.Fatalf("define schema: %v", err)
	}

	alice, bob, charlie, err := loadPeople(ctx, database)
	if err != nil {
		log.Fatalf("load demo data: %v", err)
	}
	_ = bob

	result, err := database.Transact(ctx, transactor.Transaction{
		Entities: []transactor.EntityOperation{
			{Ref: transactor.OnID{ID: alice}, Attrs: []transactor.AttributeOperation{
				transactor.Assert("person/friend", faktadb.Ref(bob)),
				transactor.Assert("person/friend", faktadb.Ref(charlie)),
			}},
			{Ref: transactor.OnID{ID: bob}, Attrs: []transactor.AttributeOperation{
				transactor.Assert("person/friend", faktadb.Ref(charlie)),
			}},
		},
	})
	if err != nil {
		log.Fatalf("add friendships: %v", err)
	}
	fmt.Printf("committed transaction %d\n", result.TxID)

	snap := database.Snapshot()

	runQuery(ctx, snap, "all people", query.Query{
		Find: []query.Find{query.FindVariable{Symbol: "?name"}, query.FindVariable{Symbol: "?age"}},
		Clauses: []query.Clause{
			{E: query.Variable{Symbol: "?p"}, AttrIdent: "person/name", V: query.Variable{Symbol: "?name"}},
			{E: query.Variable{Symbol: "?p"}, AttrIdent: "person/age", V: query.Variable{Symbol: "?age"}},
		},
	})

	runQuery(ctx, snap, "people over 25", query.Query{
		Find: []query.Find{query.FindVariable{Symbol: "?name"}, query.FindVariable{Symbol: "?age"}},
		Clauses: []query.Clause{
			{E: query.Variable{Symbol: "?p"}, AttrIdent: "person/name", V: query.Variable{Symbol: "?name"}},
			{E: query.Variable{Symbol: "?p"}, AttrIdent: "person/age", V: query.Variable{Symbol: "?age"}},
		},
		Predicates: []query.Predicate{
			query.Comparison{Op: query.OpGT, Left: query.VariableTerm{Symbol: "?age"}, Right: query.ConstantTerm{Value: faktadb.I64(25)}},
		},
	})

	runQuery(ctx, snap, "alice's friends", query.Query{
		Find: []query.Find{query.FindVariable{Symbol: "?friend-name"}},
		Clauses: []query.Clause{
			{E: query.Variable{Symbol: "?a"}, AttrIdent: "person/name", V: query.Constant{Value: faktadb.Str("Alice")}},
			{E: query.Variable{Symbol: "?a"}, AttrIdent: "person/friend", V: query.Variable{Symbol: "?friend"}},
			{E: query.Variable{Symbol: "?friend"}, AttrIdent: "person/name", V: query.Variable{Symbol: "?friend-name"}},
		},
	})

	runQuery(ctx, snap, "count and average age by city", query.Query{
		Find: []query.Find{
			query.FindVariable{Symbol: "?city"},
			query.FindAggregate{Function: query.Count, Symbol: "?name"},
			query.FindAggregate{Function: query.Avg, Symbol: "?age"},
		},
		Clauses: []query.Clause{
			{E: query.Variable{Symbol: "?p"}, AttrIdent: "person/city", V: query.Variable{Symbol: "?city"}},
			{E: query.Variable{Symbol: "?p"}, AttrIdent: "person/name", V: query.Variable{Symbol: "?name"}},
			{E: query.Variable{Symbol: "?p"}, AttrIdent: "person/age", V: query.Variable{Symbol: "?age"}},
		},
	})
}

func runQuery(ctx context.Context, snap *db.Snapshot, label string, q query.Query) {
	fmt.Println(color.CyanString("\n-- %s --", label))
	rs, err := snap.Execute(ctx, q)
	if err != nil {
		fmt.Println(color.RedString("query error: %v", err))
		return
	}
	fmt.Println(format.ResultSet(rs))
}

func defineSchema(ctx context.Context, database *db.DB) error {
	define := func(ident string, valueType faktadb.ValueType, cardinality schema.Cardinality) transactor.EntityOperation {
		attrs := []transactor.AttributeOperation{
			transactor.Assert("db/ident", faktadb.Str(ident)),
			transactor.Assert("db/value-type", faktadb.U64(uint64(valueType))),
			transactor.Assert("db/cardinality", faktadb.U64(uint64(cardinality))),
		}
		return transactor.EntityOperation{Ref: transactor.OnNew{}, Attrs: attrs}
	}

	_, err := database.Transact(ctx, transactor.Transaction{
		Entities: []transactor.EntityOperation{
			define("person/name", faktadb.TypeStr, schema.One),
			define("person/age", faktadb.TypeI64, schema.One),
			define("person/city", faktadb.TypeStr, schema.One),
			define("person/friend", faktadb.TypeRef, schema.Many),
		},
	})
	return err
}

func loadPeople(ctx context.Context, database *db.DB) (alice, bob, charlie faktadb.EntityID, err error) {
	result, err := database.Transact(ctx, transactor.Transaction{
		Entities: []transactor.EntityOperation{
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
		},
	})
	if err != nil {
		return 0, 0, 0, err
	}

	// New entities are allocated in Entities order: alice, bob, charlie.
	// Their ids are the E of the first datom asserted for each, which
	// appear in the same order in result.Datoms (excluding the trailing
	// db/tx-instant datom).
	ids := make([]faktadb.EntityID, 0, 3)
	seen := make(map[faktadb.EntityID]bool)
	for _, d := range result.Datoms {
		if d.A == schema.TxInstantAttrID {
			continue
		}
		if !seen[d.E] {
			seen[d.E] = true
			ids = append(ids, d.E)
		}
	}
	if len(ids) != 3 {
		return 0, 0, 0, fmt.Errorf("expected 3 new entities, got %d", len(ids))
	}
	return ids[0], ids[1], ids[2], nil
}
