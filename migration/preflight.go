package migration

import (
	"fmt"

	"github.com/labinsight/dbops/e"
	"github.com/rs/zerolog/log"
)

const (
	ECode030201 = e.Code0302 + "01"
	ECode030202 = e.Code0302 + "02"
	ECode030203 = e.Code0302 + "03"
	ECode030204 = e.Code0302 + "04"
)

// VectorExtension the Postgres extension the target schema depends on
const VectorExtension = "vector"

// Preflight runs the fatal precondition checks: database connectivity, the
// availability of the vector extension and the presence of every migration
// file. Any failure here aborts the pipeline before a single statement runs.
func (r *Runner) Preflight() (err error) {
	v, err := r.db.ServerVersion()
	if err != nil {
		return e.W(err, ECode030201, e.MsgMigrationConnFailed)
	}
	log.Info().Msgf("connected - %s", v)

	available, err := r.db.ExtensionAvailable(VectorExtension)
	if err != nil {
		return e.W(err, ECode030202, e.MsgMigrationConnFailed)
	}
	if !available {
		return e.N(ECode030203, fmt.Sprintf("%s - migration cannot proceed",
			e.MsgMigrationNoVector))
	}
	log.Info().Msgf("%s extension is available", VectorExtension)

	if err := CheckStepFiles(r.fsys, r.steps); err != nil {
		return e.W(err, ECode030204)
	}

	return nil
}
