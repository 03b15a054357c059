// Package migration drives the database from its current schema state to the
// target Supabase/pgvector schema without losing pre-existing rows, and
// reports whether the target state was reached.
//
// The pipeline is a fixed linear phase sequence: pre-flight checks, data
// backup, ordered schema file execution, data replay, validation, summary.
// Only missing configuration, connectivity/extension failures and schema
// file failures are fatal; everything else degrades to a logged warning.
// There is no retry and no rollback - every statement commits individually.
package migration

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/labinsight/dbops/backup"
	"github.com/labinsight/dbops/e"
	"github.com/labinsight/dbops/migration/model"
	"github.com/rs/zerolog/log"
)

const (
	ECode030101 = e.Code0301 + "01"
	ECode030102 = e.Code0301 + "02"
	ECode030103 = e.Code0301 + "03"
	ECode030104 = e.Code0301 + "04"
)

// DefaultBackupDir where snapshot files are written unless overridden
const DefaultBackupDir = "supabase_migration_backup"

// RunnerParam optional settings for a Runner; zero values take defaults
type RunnerParam struct {
	Steps        []Step
	FS           fs.FS
	BackupDir    string
	BackupTables []backup.Table
}

// Runner executes the migration pipeline. Construct one per run.
type Runner struct {
	db        DB
	fsys      fs.FS
	steps     []Step
	backupDir string
	tables    []backup.Table
}

// Summary is the aggregate outcome of a pipeline run. It is populated as far
// as the run got, so a fatal error still leaves the completed phases visible.
type Summary struct {
	Steps      []model.StepResult
	BackupFile string
	Captured   []backup.TableResult
	Replayed   []backup.TableResult
	Report     *model.Report
	OK         bool
}

// NewRunner initializes a runner, applying defaults for any unset param
func NewRunner(db DB, p *RunnerParam) (r *Runner) {
	if p == nil {
		p = &RunnerParam{}
	}

	r = &Runner{
		db:        db,
		fsys:      p.FS,
		steps:     p.Steps,
		backupDir: p.BackupDir,
		tables:    p.BackupTables,
	}

	if r.fsys == nil {
		r.fsys = os.DirFS(".")
	}
	if len(r.steps) == 0 {
		r.steps = DefaultSteps("db/migrations")
	}
	if r.backupDir == "" {
		r.backupDir = DefaultBackupDir
	}
	if len(r.tables) == 0 {
		r.tables = backup.DefaultTables()
	}

	return r
}

// Run executes the pipeline phases in fixed order. The returned error is
// non-nil only for the fatal conditions: pre-flight failure or a schema step
// failure. Backup, replay and validation shortfalls are reported through the
// summary and the log instead.
func (r *Runner) Run() (sum *Summary, err error) {
	sum = &Summary{}

	log.Info().Msg("=== PHASE 1: PRE-FLIGHT VALIDATION ===")
	if err := r.Preflight(); err != nil {
		return sum, e.W(err, ECode030101)
	}

	log.Info().Msg("=== PHASE 2: DATA BACKUP ===")
	snap := r.backupPhase(sum)

	log.Info().Msg("=== PHASE 3: SCHEMA MIGRATION ===")
	if err := r.ExecuteSteps(sum); err != nil {
		return sum, e.W(err, ECode030102)
	}

	log.Info().Msg("=== PHASE 4: DATA MIGRATION ===")
	sum.Replayed = backup.Replay(r.db, r.tables, snap)

	log.Info().Msg("=== PHASE 5: MIGRATION VALIDATION ===")
	sum.Report = Validate(r.db)

	log.Info().Msg("=== PHASE 6: MIGRATION SUMMARY ===")
	r.logSummary(sum)

	sum.OK = true

	return sum, nil
}

// backupPhase captures the pre-migration rows and persists them. A failed
// file write is advisory - the in-memory snapshot still feeds the replay.
func (r *Runner) backupPhase(sum *Summary) (snap *backup.Snapshot) {
	snap, sum.Captured = backup.Capture(r.db, r.tables)

	path, err := snap.WriteFile(r.backupDir)
	if err != nil {
		log.Warn().Err(err).Msg("backup file was not written - continuing")
		return snap
	}
	sum.BackupFile = path

	return snap
}

// ExecuteSteps runs each schema migration file as a single batch, strictly in
// list order. The first failure aborts; later steps are never attempted.
func (r *Runner) ExecuteSteps(sum *Summary) (err error) {
	for _, s := range r.steps {
		res := model.StepResult{Name: s.Name}

		if err := r.execStep(s); err != nil {
			res.Err = err.Error()
			sum.Steps = append(sum.Steps, res)
			log.Error().Err(err).Msgf("migration failed at %s", s.Name)
			return e.W(err, ECode030103,
				fmt.Sprintf("%s: %s", e.MsgMigrationStepFailed, s.Name))
		}

		res.OK = true
		sum.Steps = append(sum.Steps, res)
		log.Info().Msgf("migration completed: %s", s.Name)
	}

	return nil
}

func (r *Runner) execStep(s Step) (err error) {
	stmt, err := readStep(r.fsys, s)
	if err != nil {
		return e.W(err, ECode030104)
	}

	if _, err := r.db.Exec(stmt); err != nil {
		return err
	}

	return nil
}

func (r *Runner) logSummary(sum *Summary) {
	rpt := sum.Report

	log.Info().Msgf("vector extension enabled: %v", rpt.VectorEnabled)
	log.Info().Msgf("tables created: %d of %d", len(rpt.Tables), len(ExpectedTables))
	log.Info().Msgf("functions created: %d of %d", len(rpt.Functions), len(ExpectedFunctions))
	log.Info().Msgf("vector indexes: %d", len(rpt.Indexes))
	log.Info().Msgf("RLS policies: %d", len(rpt.Policies))

	for _, table := range rpt.Tables {
		log.Info().Msgf("%s: %d records", table, rpt.RowCounts[table])
	}
}
