package migration

import (
	dbsql "database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/labinsight/dbops/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"db/migrations/000_add_pgvector.sql":         {Data: []byte("CREATE EXTENSION IF NOT EXISTS vector;")},
		"db/migrations/001_create_rag_schema.sql":    {Data: []byte("CREATE TABLE rag_documents ();")},
		"db/migrations/002_create_memory_schema.sql": {Data: []byte("CREATE TABLE user_sessions ();")},
		"db/migrations/003_create_functions.sql":     {Data: []byte("CREATE FUNCTION noop() RETURNS void LANGUAGE sql AS $$ $$;")},
	}
}

func newTestRunner(t *testing.T, db DB, fsys fstest.MapFS) *Runner {
	t.Helper()
	return NewRunner(db, &RunnerParam{
		FS:        fsys,
		BackupDir: t.TempDir(),
	})
}

func TestDefaultStepsOrder(t *testing.T) {
	steps := DefaultSteps("db/migrations")

	require.Len(t, steps, 4)
	assert.Equal(t, "000_add_pgvector.sql", steps[0].Name)
	assert.Equal(t, "db/migrations/003_create_functions.sql", steps[3].Path)
}

func TestCheckStepFilesRootedAtAbsoluteDir(t *testing.T) {
	// An absolute migrations directory works when the FS is rooted at it
	// and the step paths are bare file names
	dir := t.TempDir()
	steps := DefaultSteps("")
	for _, s := range steps {
		require.NoError(t, os.WriteFile(filepath.Join(dir, s.Path), []byte("SELECT 1;"), 0o644))
	}

	fsys := os.DirFS(dir)
	require.NoError(t, CheckStepFiles(fsys, steps))

	require.NoError(t, os.Remove(filepath.Join(dir, steps[1].Path)))
	err := CheckStepFiles(fsys, steps)
	require.Error(t, err)
	assert.True(t, e.ContainsError(err, e.MsgMigrationFileDNE))
}

func TestRunStopsAfterFailedStep(t *testing.T) {
	db := &mockDB{}
	db.ExecFunc = func(query string, args ...interface{}) (dbsql.Result, error) {
		if strings.Contains(query, "user_sessions") {
			return nil, fmt.Errorf("syntax error at or near \"CREATE\"")
		}
		return nil, nil
	}

	r := newTestRunner(t, db, testFS())

	sum, err := r.Run()
	require.Error(t, err)
	assert.False(t, sum.OK)

	// The two files before the failure ran, the one after it never did
	require.Len(t, db.ExecCalls, 3)
	assert.NotContains(t, db.ExecCalls[2], "FUNCTION")

	require.Len(t, sum.Steps, 3)
	assert.True(t, sum.Steps[0].OK)
	assert.True(t, sum.Steps[1].OK)
	assert.False(t, sum.Steps[2].OK)
	assert.NotEmpty(t, sum.Steps[2].Err)
}

func TestRunHaltsWithoutVectorExtension(t *testing.T) {
	db := &mockDB{
		ExtensionAvailableFunc: func(name string) (bool, error) {
			return false, nil
		},
	}

	r := newTestRunner(t, db, testFS())

	_, err := r.Run()
	require.Error(t, err)
	assert.True(t, e.ContainsError(err, e.MsgMigrationNoVector))
	assert.Empty(t, db.ExecCalls)
}

func TestRunMissingMigrationFileIsFatal(t *testing.T) {
	fsys := testFS()
	delete(fsys, "db/migrations/002_create_memory_schema.sql")

	db := &mockDB{}
	r := newTestRunner(t, db, fsys)

	_, err := r.Run()
	require.Error(t, err)
	assert.True(t, e.ContainsError(err, e.MsgMigrationFileDNE))
	assert.Empty(t, db.ExecCalls)
}

func TestRunEndToEnd(t *testing.T) {
	rows := make([]map[string]interface{}, 5)
	for i := range rows {
		rows[i] = map[string]interface{}{
			"id":      fmt.Sprintf("doc-%d", i),
			"title":   fmt.Sprintf("Document %d", i),
			"content": "text",
		}
	}

	db := &mockDB{
		TableExistsFunc: func(name string) (bool, error) {
			return name == "rag_documents", nil
		},
		TableDumpFunc: func(table string, limit uint64) ([]map[string]interface{}, error) {
			require.Equal(t, uint64(1000), limit)
			if table == "rag_documents" {
				return rows, nil
			}
			return nil, nil
		},
		TableRowCountFunc: func(name string) (int, error) {
			return 5, nil
		},
		IndexNamesFunc: func(tables []string, match string) ([]string, error) {
			return []string{"rag_documents_embedding_idx"}, nil
		},
		PolicyNamesFunc: func(tables []string) ([]string, error) {
			return []string{"rag_documents.rag_documents_service_read"}, nil
		},
	}

	backupDir := t.TempDir()
	r := NewRunner(db, &RunnerParam{
		FS:        testFS(),
		BackupDir: backupDir,
	})

	sum, err := r.Run()
	require.NoError(t, err)
	assert.True(t, sum.OK)

	// All four schema files ran in order
	require.Len(t, db.ExecCalls, 4)
	assert.Contains(t, db.ExecCalls[0], "vector")

	// Backup captured 5 rows from the one existing table, skipped the others
	require.Len(t, sum.Captured, 3)
	assert.Equal(t, 5, sum.Captured[0].Rows)
	assert.True(t, sum.Captured[1].Skipped)
	assert.True(t, sum.Captured[2].Skipped)

	// The snapshot was persisted to disk
	require.NotEmpty(t, sum.BackupFile)
	_, statErr := os.Stat(sum.BackupFile)
	require.NoError(t, statErr)
	assert.Equal(t, backupDir, filepath.Dir(sum.BackupFile))

	// Replay upserted exactly the captured rows
	require.Len(t, db.UpsertCalls, 1)
	assert.Equal(t, "rag_documents", db.UpsertCalls[0].Table)
	assert.Equal(t, "id", db.UpsertCalls[0].ConflictColumn)
	assert.Len(t, db.UpsertCalls[0].Rows, 5)

	// Validation reflects the post-migration catalog
	require.NotNil(t, sum.Report)
	assert.True(t, sum.Report.VectorEnabled)
	assert.Equal(t, []string{"rag_documents"}, sum.Report.Tables)
	assert.Equal(t, 5, sum.Report.RowCounts["rag_documents"])
	assert.Equal(t, ExpectedFunctions, sum.Report.Functions)
}

func TestRunReplayFailureIsAdvisory(t *testing.T) {
	db := &mockDB{
		TableExistsFunc: func(name string) (bool, error) {
			return name == "rag_documents", nil
		},
		TableDumpFunc: func(table string, limit uint64) ([]map[string]interface{}, error) {
			return []map[string]interface{}{{"id": "doc-0"}}, nil
		},
		UpsertIgnoreFunc: func(table, conflictColumn string,
			rows []map[string]interface{}) (int, error) {
			return 0, fmt.Errorf("duplicate key value violates unique constraint")
		},
	}

	r := newTestRunner(t, db, testFS())

	sum, err := r.Run()
	require.NoError(t, err)
	assert.True(t, sum.OK)

	require.Len(t, sum.Replayed, 3)
	assert.NotEmpty(t, sum.Replayed[0].Err)
}

func TestValidateReport(t *testing.T) {
	db := &mockDB{
		TableExistsFunc: func(name string) (bool, error) {
			return name != "user_context", nil
		},
		TableRowCountFunc: func(name string) (int, error) {
			return 2, nil
		},
		FunctionExistsFunc: func(name string) (bool, error) {
			return name != "log_rag_query", nil
		},
		IndexNamesFunc: func(tables []string, match string) ([]string, error) {
			assert.Equal(t, EmbeddingIndexTables, tables)
			assert.Equal(t, EmbeddingIndexFilter, match)
			return []string{"a_embedding_idx", "b_embedding_idx"}, nil
		},
		PolicyNamesFunc: func(tables []string) ([]string, error) {
			assert.Equal(t, PolicyTables, tables)
			return []string{"user_sessions.user_sessions_owner"}, nil
		},
	}

	rpt := Validate(db)

	assert.True(t, rpt.VectorEnabled)
	assert.Len(t, rpt.Tables, len(ExpectedTables)-1)
	assert.NotContains(t, rpt.Tables, "user_context")
	assert.Equal(t, 2, rpt.RowCounts["rag_documents"])
	assert.Len(t, rpt.Functions, len(ExpectedFunctions)-1)
	assert.Len(t, rpt.Indexes, 2)
	assert.Len(t, rpt.Policies, 1)
}
