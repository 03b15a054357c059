package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConnectionStr(t *testing.T) {
	cp := &ConnParam{
		Host:     "db.abcd1234.supabase.co",
		Port:     "5432",
		User:     "postgres",
		Password: "secret",
		DBName:   "postgres",
	}

	got := GetConnectionStr(cp)
	assert.Equal(t,
		"host=db.abcd1234.supabase.co port=5432 user=postgres password=secret dbname=postgres sslmode=require",
		got)
}

func TestGetConnectionStrWithOptions(t *testing.T) {
	cp := &ConnParam{
		Host:       "localhost",
		Port:       "5432",
		User:       "tester",
		Password:   "pw",
		DBName:     "labinsight_test",
		SSLMode:    "sslmode=disable",
		SearchPath: "search_path=public",
	}

	got := GetConnectionStr(cp)
	assert.Contains(t, got, "sslmode=disable")
	assert.Contains(t, got, "search_path=public")
	assert.NotContains(t, got, "sslmode=require")
}

func TestUpsertIgnoreBuilder(t *testing.T) {
	row := map[string]interface{}{
		"title":   "Thyroid and metabolism",
		"id":      "doc-1",
		"content": "text",
	}

	stmt, bindList, err := upsertIgnoreBuilder("rag_documents", "id", row).ToSql()
	require.NoError(t, err)

	// The conflict clause is what makes replaying a backup idempotent
	assert.Equal(t,
		`INSERT INTO "rag_documents" ("content","id","title") VALUES ($1,$2,$3) ON CONFLICT ("id") DO NOTHING`,
		stmt)
	assert.Equal(t, []interface{}{"text", "doc-1", "Thyroid and metabolism"}, bindList)
}

func TestUpsertIgnoreBuilderQuotesIdentifiers(t *testing.T) {
	row := map[string]interface{}{"user id": "u-1"}

	stmt, _, err := upsertIgnoreBuilder("user sessions", "user id", row).ToSql()
	require.NoError(t, err)

	assert.Contains(t, stmt, `INSERT INTO "user sessions" ("user id")`)
	assert.Contains(t, stmt, `ON CONFLICT ("user id") DO NOTHING`)
}

func TestGetConnParamFromENV(t *testing.T) {
	t.Setenv("DBHOST", "localhost")
	t.Setenv("DBPORT", "5433")
	t.Setenv("DBUSER", "tester")
	t.Setenv("DBPASS", "pw")
	t.Setenv("DBNAME", "labinsight_test")
	t.Setenv("SSLMODE", "disable")
	t.Setenv("DBSEARCHPATH", "")

	cp := GetConnParamFromENV()
	assert.Equal(t, "localhost", cp.Host)
	assert.Equal(t, "5433", cp.Port)
	assert.Equal(t, "tester", cp.User)
	assert.Equal(t, "pw", cp.Password)
	assert.Equal(t, "labinsight_test", cp.DBName)
	assert.Equal(t, "sslmode=disable", cp.SSLMode)
	assert.Empty(t, cp.SearchPath)
}
