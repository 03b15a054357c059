package migration

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/labinsight/dbops/e"
)

const (
	ECode030301 = e.Code0303 + "01"
	ECode030302 = e.Code0303 + "02"
	ECode030303 = e.Code0303 + "03"
)

// Step is one schema migration file, executed strictly in list order. A
// failure at step i aborts the pipeline without attempting step i+1.
type Step struct {
	Name string
	Path string
}

// DefaultSteps returns the fixed ordered schema migration list, rooted at dir
func DefaultSteps(dir string) (steps []Step) {
	names := []string{
		"000_add_pgvector.sql",
		"001_create_rag_schema.sql",
		"002_create_memory_schema.sql",
		"003_create_functions.sql",
	}

	steps = make([]Step, 0, len(names))
	for _, n := range names {
		steps = append(steps, Step{
			Name: n,
			Path: path.Join(dir, n),
		})
	}

	return steps
}

// CheckStepFiles verifies every step file exists and is readable before any
// of them execute. A missing file is reported as a fatal pipeline error
// rather than surfacing mid-run.
func CheckStepFiles(fsys fs.FS, steps []Step) (err error) {
	for _, s := range steps {
		fi, err := fs.Stat(fsys, s.Path)
		if err != nil {
			return e.N(ECode030301, fmt.Sprintf("%s: %s",
				e.MsgMigrationFileDNE, s.Path))
		}
		if fi.IsDir() {
			return e.N(ECode030302, fmt.Sprintf("%s: %s",
				e.MsgMigrationFileDNE, s.Path))
		}
	}

	return nil
}

// readStep reads the full SQL text of one step
func readStep(fsys fs.FS, s Step) (stmt string, err error) {
	b, err := fs.ReadFile(fsys, s.Path)
	if err != nil {
		return "", e.W(err, ECode030303, fmt.Sprintf("step: %s", s.Path))
	}

	return string(b), nil
}
