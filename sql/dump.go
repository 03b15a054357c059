package sql

import (
	"fmt"
	"time"

	"github.com/labinsight/dbops/e"
	"github.com/lib/pq"
)

const (
	ECode020501 = e.Code0205 + "01"
	ECode020502 = e.Code0205 + "02"
	ECode020503 = e.Code0205 + "03"
	ECode020504 = e.Code0205 + "04"
)

// TableDump selects up to limit rows from the table, returning each row as a
// column name to value map. Values are normalized so the result can be
// marshaled to JSON: []byte becomes string and timestamps are RFC3339.
func (c *Connection) TableDump(table string, limit uint64) (rows []map[string]interface{}, err error) {
	stmt := fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, pq.QuoteIdentifier(table), limit)

	r, err := c.Query(stmt)
	if err != nil {
		return nil, e.W(err, ECode020501)
	}
	defer r.Close()

	cols, err := r.Columns()
	if err != nil {
		return nil, e.W(err, ECode020502)
	}

	for r.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}

		if err := r.Scan(ptrs...); err != nil {
			return nil, e.W(err, ECode020503)
		}

		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(vals[i])
		}
		rows = append(rows, row)
	}

	if err := r.Err(); err != nil {
		return nil, e.W(err, ECode020504)
	}

	return rows, nil
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}
