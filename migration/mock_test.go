package migration

import (
	dbsql "database/sql"
	"database/sql/driver"
	"sync"
)

// mockDB is a configurable DB implementation for tests. Set the Func fields
// to control behavior and inspect the call slices afterwards; unset funcs
// fall back to benign defaults.
type mockDB struct {
	mu sync.Mutex

	ExecFunc               func(query string, args ...interface{}) (dbsql.Result, error)
	ServerVersionFunc      func() (string, error)
	ExtensionAvailableFunc func(name string) (bool, error)
	ExtensionInstalledFunc func(name string) (bool, error)
	TableExistsFunc        func(name string) (bool, error)
	TableRowCountFunc      func(name string) (int, error)
	FunctionExistsFunc     func(name string) (bool, error)
	IndexNamesFunc         func(tables []string, match string) ([]string, error)
	PolicyNamesFunc        func(tables []string) ([]string, error)
	TableDumpFunc          func(table string, limit uint64) ([]map[string]interface{}, error)
	UpsertIgnoreFunc       func(table, conflictColumn string, rows []map[string]interface{}) (int, error)

	ExecCalls   []string
	UpsertCalls []upsertCall
}

type upsertCall struct {
	Table          string
	ConflictColumn string
	Rows           []map[string]interface{}
}

func (m *mockDB) Exec(query string, args ...interface{}) (dbsql.Result, error) {
	m.mu.Lock()
	m.ExecCalls = append(m.ExecCalls, query)
	m.mu.Unlock()

	if m.ExecFunc != nil {
		return m.ExecFunc(query, args...)
	}
	return driver.RowsAffected(0), nil
}

func (m *mockDB) ServerVersion() (string, error) {
	if m.ServerVersionFunc != nil {
		return m.ServerVersionFunc()
	}
	return "PostgreSQL 15.1 (mock)", nil
}

func (m *mockDB) ExtensionAvailable(name string) (bool, error) {
	if m.ExtensionAvailableFunc != nil {
		return m.ExtensionAvailableFunc(name)
	}
	return true, nil
}

func (m *mockDB) ExtensionInstalled(name string) (bool, error) {
	if m.ExtensionInstalledFunc != nil {
		return m.ExtensionInstalledFunc(name)
	}
	return true, nil
}

func (m *mockDB) TableExists(name string) (bool, error) {
	if m.TableExistsFunc != nil {
		return m.TableExistsFunc(name)
	}
	return false, nil
}

func (m *mockDB) TableRowCount(name string) (int, error) {
	if m.TableRowCountFunc != nil {
		return m.TableRowCountFunc(name)
	}
	return 0, nil
}

func (m *mockDB) FunctionExists(name string) (bool, error) {
	if m.FunctionExistsFunc != nil {
		return m.FunctionExistsFunc(name)
	}
	return true, nil
}

func (m *mockDB) IndexNames(tables []string, match string) ([]string, error) {
	if m.IndexNamesFunc != nil {
		return m.IndexNamesFunc(tables, match)
	}
	return nil, nil
}

func (m *mockDB) PolicyNames(tables []string) ([]string, error) {
	if m.PolicyNamesFunc != nil {
		return m.PolicyNamesFunc(tables)
	}
	return nil, nil
}

func (m *mockDB) TableDump(table string, limit uint64) ([]map[string]interface{}, error) {
	if m.TableDumpFunc != nil {
		return m.TableDumpFunc(table, limit)
	}
	return nil, nil
}

func (m *mockDB) UpsertIgnore(table, conflictColumn string,
	rows []map[string]interface{}) (int, error) {

	m.mu.Lock()
	m.UpsertCalls = append(m.UpsertCalls, upsertCall{
		Table:          table,
		ConflictColumn: conflictColumn,
		Rows:           rows,
	})
	m.mu.Unlock()

	if m.UpsertIgnoreFunc != nil {
		return m.UpsertIgnoreFunc(table, conflictColumn, rows)
	}
	return len(rows), nil
}
