package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/query"
	"github.com/jrsmith-dev/faktadb/schema"
	"github.com/jrsmith-dev/faktadb/transactor"
)

func defineAttr(ident string, vt faktadb.ValueType, card schema.Cardinality) transactor.EntityOperation {
	return transactor.EntityOperation{Ref: transactor.OnNew{}, Attrs: []transactor.AttributeOperation{
		transactor.Assert(schema.IdentIdent, faktadb.Str(ident)),
		transactor.Assert(schema.ValueTypeIdent, faktadb.U64(uint64(vt))),
		transactor.Assert(schema.CardinalityIdent, faktadb.U64(uint64(card))),
	}}
}

func TestOpenMemoryBootstrapsSchema(t *testing.T) {
	database, err := OpenMemory()
	require.NoError(t, err)
	defer database.Close()

	snap := database.Snapshot()
	attr, err := snap.Resolver().ResolveIdent(context.Background(), schema.IdentIdent)
	require.NoError(t, err)
	require.Equal(t, schema.IdentAttrID, attr.ID)
}

func TestTransactAndQueryRoundTrip(t *testing.T) {
	database, err := OpenMemory()
	require.NoError(t, err)
	defer database.Close()
	ctx := context.Background()

	_, err = database.Transact(ctx, transactor.Transaction{Entities: []transactor.EntityOperation{
		defineAttr("widget/name", faktadb.TypeStr, schema.One),
	}})
	require.NoError(t, err)

	_, err = database.Transact(ctx, transactor.Transaction{Entities: []transactor.EntityOperation{
		{Ref: transactor.OnNew{}, Attrs: []transactor.AttributeOperation{
			transactor.Assert("widget/name", faktadb.Str("sprocket")),
		}},
	}})
	require.NoError(t, err)

	rs, err := database.Snapshot().Execute(ctx, query.Query{
		Find: []query.Find{query.FindVariable{Symbol: "?name"}},
		Clauses: []query.Clause{
			{E: query.Variable{Symbol: "?w"}, AttrIdent: "widget/name", V: query.Variable{Symbol: "?name"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	require.Equal(t, "sprocket", rs.Rows[0][0])
}

func TestAsOfSeesOnlyPriorTransactions(t *testing.T) {
	database, err := OpenMemory()
	require.NoError(t, err)
	defer database.Close()
	ctx := context.Background()

	_, err = database.Transact(ctx, transactor.Transaction{Entities: []transactor.EntityOperation{
		defineAttr("widget/name", faktadb.TypeStr, schema.One),
	}})
	require.NoError(t, err)

	r1, err := database.Transact(ctx, transactor.Transaction{Entities: []transactor.EntityOperation{
		{Ref: transactor.OnNew{}, Attrs: []transactor.AttributeOperation{
			transactor.Assert("widget/name", faktadb.Str("sprocket")),
		}},
	}})
	require.NoError(t, err)

	_, err = database.Transact(ctx, transactor.Transaction{Entities: []transactor.EntityOperation{
		{Ref: transactor.OnNew{}, Attrs: []transactor.AttributeOperation{
			transactor.Assert("widget/name", faktadb.Str("gadget")),
		}},
	}})
	require.NoError(t, err)

	q := query.Query{
		Find: []query.Find{query.FindVariable{Symbol: "?name"}},
		Clauses: []query.Clause{
			{E: query.Variable{Symbol: "?w"}, AttrIdent: "widget/name", V: query.Variable{Symbol: "?name"}},
		},
	}

	asOf := database.AsOf(r1.TxID)
	rs, err := asOf.Execute(ctx, q)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1, "as-of r1 should see only sprocket")

	rs2, err := database.Snapshot().Execute(ctx, q)
	require.NoError(t, err)
	require.Len(t, rs2.Rows, 2, "current snapshot should see both widgets")
}
