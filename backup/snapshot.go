// Package backup captures rows from the pre-migration tables into an
// in-memory snapshot, persists the snapshot to a timestamped JSON file for
// manual recovery, and replays the captured rows into the post-migration
// schema with idempotent upserts.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/labinsight/dbops/e"
	"github.com/rs/zerolog/log"
)

const (
	ECode040101 = e.Code0401 + "01"
	ECode040102 = e.Code0401 + "02"
	ECode040103 = e.Code0401 + "03"

	// RowCap the maximum number of rows captured per table
	RowCap = 1000
)

// Table identifies a table to capture and the column used for conflict
// detection when its rows are replayed
type Table struct {
	Name           string
	ConflictColumn string
}

// DefaultTables the fixed set of tables captured before schema migration
func DefaultTables() []Table {
	return []Table{
		{Name: "rag_documents", ConflictColumn: "id"},
		{Name: "user_sessions", ConflictColumn: "session_id"},
		{Name: "conversation_messages", ConflictColumn: "id"},
	}
}

// Row is a single captured row, mapping column name to value
type Row = map[string]interface{}

// Snapshot is a point in time capture of the configured tables
type Snapshot struct {
	Timestamp string           `json:"timestamp"`
	Tables    map[string][]Row `json:"tables"`
}

// TableResult reports the outcome for one table during capture or replay
type TableResult struct {
	Table   string
	Rows    int
	Skipped bool
	Err     string
}

// DB defines the database operations this package needs. Implemented by
// *sql.Connection.
type DB interface {
	TableExists(name string) (bool, error)
	TableDump(table string, limit uint64) ([]map[string]interface{}, error)
	UpsertIgnore(table, conflictColumn string, rows []map[string]interface{}) (int, error)
}

// Capture selects up to RowCap rows from each table into a snapshot. Tables
// that do not exist are skipped informationally and capture errors degrade to
// a logged warning; the snapshot always comes back usable.
func Capture(db DB, tables []Table) (snap *Snapshot, resList []TableResult) {
	snap = &Snapshot{
		Timestamp: time.Now().Format(time.RFC3339),
		Tables:    map[string][]Row{},
	}

	for _, t := range tables {
		res := TableResult{Table: t.Name}

		exists, err := db.TableExists(t.Name)
		if err != nil {
			res.Err = err.Error()
			log.Warn().Err(err).Msgf("could not check table %s for backup", t.Name)
			resList = append(resList, res)
			continue
		}

		if !exists {
			res.Skipped = true
			log.Info().Msgf("table %s does not exist - skipping backup", t.Name)
			resList = append(resList, res)
			continue
		}

		rows, err := db.TableDump(t.Name, RowCap)
		if err != nil {
			res.Err = err.Error()
			log.Warn().Err(err).Msgf("could not backup %s", t.Name)
			resList = append(resList, res)
			continue
		}

		snap.Tables[t.Name] = rows
		res.Rows = len(rows)
		log.Info().Msgf("backed up %d records from %s", len(rows), t.Name)
		resList = append(resList, res)
	}

	return snap, resList
}

// WriteFile persists the snapshot as indented JSON to a timestamped file in
// dir. The file is retained for manual recovery and never re-read by the
// pipeline itself.
func (s *Snapshot) WriteFile(dir string) (path string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", e.W(err, ECode040101, e.MsgBackupWriteFailed)
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", e.W(err, ECode040102, e.MsgBackupWriteFailed)
	}

	path = filepath.Join(dir,
		fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", e.W(err, ECode040103, e.MsgBackupWriteFailed)
	}

	log.Info().Msgf("backup saved to %s", path)

	return path, nil
}
