package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/schema"
	"github.com/jrsmith-dev/faktadb/storage"
)

// ResultSet is a query's final, projected output: one column per Find
// element, grouped and aggregated per spec.md §4.8 when the query has
// any aggregate Find elements.
type ResultSet struct {
	Columns []string
	Rows    [][]faktadb.Value
}

// Execute compiles q against resolver and runs it over store, grouping
// by every non-aggregate Find variable and folding aggregate Find
// elements through AggregationState. A query with no aggregate Find
// elements returns one row per join result, ungrouped.
func Execute(ctx context.Context, q Query, resolver *schema.Resolver, store storage.Store) (*ResultSet, error) {
	compiled, err := Compile(ctx, q, resolver)
	if err != nil {
		return nil, err
	}

	hasAgg := false
	for _, f := range q.Find {
		if _, ok := f.(FindAggregate); ok {
			hasAgg = true
			break
		}
	}

	columns := make([]string, len(q.Find))
	for i, f := range q.Find {
		columns[i] = f.String()
	}

	if !hasAgg {
		var rows [][]faktadb.Value
		err := compiled.Run(ctx, store, func(r Row) error {
			row := make([]faktadb.Value, len(q.Find))
			for i, f := range q.Find {
				sym, _ := findSymbol(f)
				row[i] = r[sym]
			}
			rows = append(rows, row)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &ResultSet{Columns: columns, Rows: rows}, nil
	}

	var groupSymbols []Symbol
	for _, f := range q.Find {
		if fv, ok := f.(FindVariable); ok {
			groupSymbols = append(groupSymbols, fv.Symbol)
		}
	}

	type group struct {
		keyVals []faktadb.Value
		states  []AggregationState
	}
	groups := make(map[string]*group)
	var order []string

	err = compiled.Run(ctx, store, func(r Row) error {
		keyVals := make([]faktadb.Value, len(groupSymbols))
		for i, s := range groupSymbols {
			keyVals[i] = r[s]
		}
		key := groupKey(keyVals)

		g, ok := groups[key]
		if !ok {
			g = &group{keyVals: keyVals, states: make([]AggregationState, len(q.Find))}
			for i, f := range q.Find {
				if fa, ok := f.(FindAggregate); ok {
					g.states[i] = NewAggregationState(fa.Function)
				}
			}
			groups[key] = g
			order = append(order, key)
		}

		for i, f := range q.Find {
			if fa, ok := f.(FindAggregate); ok {
				if err := g.states[i].Add(r[fa.Symbol]); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows := make([][]faktadb.Value, 0, len(order))
	for _, key := range order {
		g := groups[key]
		row := make([]faktadb.Value, len(q.Find))
		gi := 0
		for i, f := range q.Find {
			if _, ok := f.(FindVariable); ok {
				row[i] = g.keyVals[gi]
				gi++
				continue
			}
			v, err := g.states[i].Result()
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return &ResultSet{Columns: columns, Rows: rows}, nil
}

func groupKey(vals []faktadb.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d:%v", faktadb.Type(v), v)
	}
	return strings.Join(parts, "|")
}
