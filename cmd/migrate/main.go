// Command migrate drives the Supabase/pgvector schema migration pipeline.
// It exits 0 on full success and 1 on any fatal failure, printing a human
// readable summary to standard output and a parallel log file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/labinsight/dbops/config"
	"github.com/labinsight/dbops/migration"
	"github.com/labinsight/dbops/sql"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		migrationsDir = flag.String("migrations", "db/migrations",
			"directory containing the ordered schema migration files")
		backupDir = flag.String("backup-dir", migration.DefaultBackupDir,
			"directory the pre-migration backup file is written to")
		check = flag.Bool("check", false,
			"run environment and connectivity checks only, then exit")
	)
	flag.Parse()

	closeLog := setupLogger()
	defer closeLog()

	cfg := config.LoadFromENV()
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("environment validation failed")
		return 1
	}
	log.Info().Msg("environment validation successful")

	cp, err := cfg.DBConnParam()
	if err != nil {
		log.Error().Err(err).Msg("could not derive database connection parameters")
		return 1
	}

	db, err := sql.NewPostgresConn(cp)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		return 1
	}
	defer db.Close()

	// Root the FS at the migrations directory so the flag also accepts
	// absolute paths; io/fs paths must be unrooted
	r := migration.NewRunner(db, &migration.RunnerParam{
		FS:        os.DirFS(*migrationsDir),
		Steps:     migration.DefaultSteps(""),
		BackupDir: *backupDir,
	})

	if *check {
		if err := r.Preflight(); err != nil {
			log.Error().Err(err).Msg("pre-flight checks failed")
			return 1
		}
		log.Info().Msg("pre-flight checks passed")
		return 0
	}

	if _, err := r.Run(); err != nil {
		log.Error().Err(err).Msg("migration failed - check logs for details")
		return 1
	}

	log.Info().Msg("migration completed successfully")
	return 0
}

// setupLogger mirrors everything to the console and a per-run log file. If
// the file cannot be created the console alone is used.
func setupLogger() (closeLog func()) {
	console := zerolog.ConsoleWriter{Out: os.Stdout}

	name := fmt.Sprintf("supabase_migration_%s.log", time.Now().Format("20060102_150405"))
	f, err := os.Create(name)
	if err != nil {
		log.Logger = zerolog.New(console).With().Timestamp().Logger()
		log.Warn().Err(err).Msg("log file was not created - console only")
		return func() {}
	}

	var w io.Writer = zerolog.MultiLevelWriter(console, f)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	return func() {
		_ = f.Close()
	}
}
