package sql

import (
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/labinsight/dbops/e"
	"github.com/lib/pq"
)

const (
	ECode020601 = e.Code0206 + "01"
)

// upsertIgnoreBuilder builds the insert for one row with a DO NOTHING
// conflict clause on the given column. Columns are sorted so the generated
// statement is deterministic for a given row shape.
func upsertIgnoreBuilder(table, conflictColumn string,
	row map[string]interface{}) sq.InsertBuilder {

	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	vals := make([]interface{}, 0, len(cols))
	quoted := make([]string, 0, len(cols))
	for _, col := range cols {
		vals = append(vals, row[col])
		quoted = append(quoted, pq.QuoteIdentifier(col))
	}

	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(pq.QuoteIdentifier(table)).
		Columns(quoted...).
		Values(vals...).
		Suffix(fmt.Sprintf("ON CONFLICT (%s) DO NOTHING",
			pq.QuoteIdentifier(conflictColumn)))
}

// UpsertIgnore inserts the rows into the table one at a time, ignoring
// conflicts on the specified column so replaying the same rows is idempotent.
// It stops at the first failed row and reports how many rows made it in.
func (c *Connection) UpsertIgnore(table, conflictColumn string,
	rows []map[string]interface{}) (inserted int, err error) {

	for i, row := range rows {
		ib := upsertIgnoreBuilder(table, conflictColumn, row)

		if err := c.ExecInsert(ib); err != nil {
			return inserted, e.W(err, ECode020601,
				fmt.Sprintf("table: %s | row: %d", table, i))
		}

		inserted++
	}

	return inserted, nil
}
