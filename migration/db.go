package migration

import (
	dbsql "database/sql"
)

// DB defines the database operations the pipeline needs. Implemented by
// *sql.Connection; tests substitute a mock.
type DB interface {
	Exec(query string, args ...interface{}) (dbsql.Result, error)
	ServerVersion() (string, error)
	ExtensionAvailable(name string) (bool, error)
	ExtensionInstalled(name string) (bool, error)
	TableExists(name string) (bool, error)
	TableRowCount(name string) (int, error)
	FunctionExists(name string) (bool, error)
	IndexNames(tables []string, match string) ([]string, error)
	PolicyNames(tables []string) ([]string, error)
	TableDump(table string, limit uint64) ([]map[string]interface{}, error)
	UpsertIgnore(table, conflictColumn string, rows []map[string]interface{}) (int, error)
}
