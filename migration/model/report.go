package model

// StepResult records the outcome of one schema migration step
type StepResult struct {
	Name string
	OK   bool
	Err  string
}

// Report is the post-migration validation checklist result. It is produced
// once at the end of a run, from catalog reads only, and never mutated
// afterward. There is deliberately no single success flag; callers inspect
// the contents.
type Report struct {
	VectorEnabled bool
	Tables        []string
	RowCounts     map[string]int
	Functions     []string
	Indexes       []string
	Policies      []string
}
