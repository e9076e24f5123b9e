// Package format renders query.ResultSet values as tables for the demo
// CLI. Grounded on the teacher's executor.TableFormatter (same
// tablewriter/markdown-renderer approach), adapted to the new
// faktadb.Value closed type set instead of the teacher's open
// interface{} tuple values.
package format

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/jrsmith-dev/faktadb"
	"github.com/jrsmith-dev/faktadb/query"
)

// ResultSet renders rs as a markdown table followed by a row count.
func ResultSet(rs *query.ResultSet) string {
	if rs == nil || len(rs.Rows) == 0 {
		return color.YellowString("_no rows_")
	}

	sb := &strings.Builder{}
	alignment := make([]tw.Align, len(rs.Columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(sb,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(rs.Columns)

	for _, row := range rs.Rows {
		rendered := make([]string, len(row))
		for i, v := range row {
			rendered[i] = formatValue(v)
		}
		table.Append(rendered)
	}
	table.Render()

	fmt.Fprintf(sb, "\n%s\n", color.CyanString("%d rows", len(rs.Rows)))
	return sb.String()
}

func formatValue(v faktadb.Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case int64:
		return fmt.Sprintf("%d", x)
	case uint64:
		return fmt.Sprintf("%d", x)
	case string:
		return x
	case faktadb.Decimal:
		return x.String()
	case faktadb.EntityID:
		return fmt.Sprintf("#%d", uint64(x))
	default:
		return fmt.Sprintf("%v", x)
	}
}
