package sql

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/labinsight/dbops/e"
	"github.com/lib/pq"
)

const (
	ECode020401 = e.Code0204 + "01"
	ECode020402 = e.Code0204 + "02"
	ECode020403 = e.Code0204 + "03"
	ECode020404 = e.Code0204 + "04"
	ECode020405 = e.Code0204 + "05"
	ECode020406 = e.Code0204 + "06"
	ECode020407 = e.Code0204 + "07"
	ECode020408 = e.Code0204 + "08"
	ECode020409 = e.Code0204 + "09"
	ECode02040A = e.Code0204 + "0A"
)

// ServerVersion returns the Postgres server version string. Used as the
// trivial connectivity check before anything else runs.
func (c *Connection) ServerVersion() (v string, err error) {
	row := c.QueryRow(`SELECT version()`)
	if err := row.Scan(&v); err != nil {
		return "", e.W(err, ECode020401)
	}

	return v, nil
}

// ExtensionAvailable checks pg_available_extensions for the named extension
func (c *Connection) ExtensionAvailable(name string) (available bool, err error) {
	row := c.QueryRow(
		`SELECT EXISTS (SELECT FROM pg_available_extensions WHERE name = $1)`, name)
	if err := row.Scan(&available); err != nil {
		return false, e.W(err, ECode020402, fmt.Sprintf("extension: %s", name))
	}

	return available, nil
}

// ExtensionInstalled checks pg_extension for the named extension
func (c *Connection) ExtensionInstalled(name string) (installed bool, err error) {
	row := c.QueryRow(
		`SELECT EXISTS (SELECT FROM pg_extension WHERE extname = $1)`, name)
	if err := row.Scan(&installed); err != nil {
		return false, e.W(err, ECode020403, fmt.Sprintf("extension: %s", name))
	}

	return installed, nil
}

// TableExists checks the information schema for the named table
func (c *Connection) TableExists(name string) (exists bool, err error) {
	row := c.QueryRow(
		`SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)`, name)
	if err := row.Scan(&exists); err != nil {
		return false, e.W(err, ECode020404, fmt.Sprintf("table: %s", name))
	}

	return exists, nil
}

// FunctionExists checks pg_proc for the named function
func (c *Connection) FunctionExists(name string) (exists bool, err error) {
	row := c.QueryRow(
		`SELECT EXISTS (SELECT FROM pg_proc WHERE proname = $1)`, name)
	if err := row.Scan(&exists); err != nil {
		return false, e.W(err, ECode020405, fmt.Sprintf("function: %s", name))
	}

	return exists, nil
}

// TableRowCount returns the number of rows currently in the table
func (c *Connection) TableRowCount(name string) (count int, err error) {
	row := c.QueryRow(fmt.Sprintf(`SELECT count(*) FROM %s`, pq.QuoteIdentifier(name)))
	if err := row.Scan(&count); err != nil {
		return 0, e.W(err, ECode020406, fmt.Sprintf("table: %s", name))
	}

	return count, nil
}

// IndexNames lists the indexes on the given tables whose name contains match
func (c *Connection) IndexNames(tables []string, match string) (names []string, err error) {
	sb := c.Select("indexname").
		From("pg_indexes").
		Where(sq.Eq{"tablename": tables}).
		Where("indexname LIKE ?", "%"+match+"%")

	rows, err := c.ToSQLAndQuery(sb)
	if err != nil {
		return nil, e.W(err, ECode020407)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, e.W(err, ECode020408)
		}
		names = append(names, name)
	}

	return names, nil
}

// PolicyNames lists the row level security policies on the given tables,
// formatted as table.policy
func (c *Connection) PolicyNames(tables []string) (names []string, err error) {
	sb := c.Select("tablename", "policyname").
		From("pg_policies").
		Where(sq.Eq{"tablename": tables})

	rows, err := c.ToSQLAndQuery(sb)
	if err != nil {
		return nil, e.W(err, ECode020409)
	}
	defer rows.Close()

	for rows.Next() {
		var table, policy string
		if err := rows.Scan(&table, &policy); err != nil {
			return nil, e.W(err, ECode02040A)
		}
		names = append(names, fmt.Sprintf("%s.%s", table, policy))
	}

	return names, nil
}
