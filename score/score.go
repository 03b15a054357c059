// Package score turns raw validation test output into a weighted confidence
// percentage. Each category parses a fixed file from the results directory;
// a missing or unparsable file scores zero for its category and is noted in
// the details, never treated as fatal.
package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Category names, which double as keys in the weight table
const (
	CategoryDeployment  = "deployment"
	CategorySecurity    = "security"
	CategoryHIPAA       = "hipaa"
	CategoryPerformance = "performance"
	CategoryIntegration = "integration"
)

// Weights maps a category to its share of the overall confidence score
type Weights map[string]float64

// DefaultWeights the fixed weighting used for release sign-off
func DefaultWeights() Weights {
	return Weights{
		CategoryDeployment:  0.20,
		CategorySecurity:    0.20,
		CategoryHIPAA:       0.25,
		CategoryPerformance: 0.20,
		CategoryIntegration: 0.15,
	}
}

// CategoryScore one category's contribution to the overall score
type CategoryScore struct {
	Score        float64
	Weight       float64
	Contribution float64
	Details      []string
}

// Report the weighted scoring result
type Report struct {
	Overall    float64
	Categories map[string]*CategoryScore
}

// Validator analyzes a directory of test result files
type Validator struct {
	dir     string
	weights Weights
}

// NewValidator initializes a validator over the results directory. A nil
// weights table takes the defaults.
func NewValidator(dir string, w Weights) (v *Validator) {
	if w == nil {
		w = DefaultWeights()
	}

	return &Validator{
		dir:     dir,
		weights: w,
	}
}

// Run analyzes every category and combines them into the weighted overall
// confidence score
func (v *Validator) Run() (rpt *Report) {
	rpt = &Report{
		Categories: map[string]*CategoryScore{},
	}

	analyzers := map[string]func() (float64, []string){
		CategoryDeployment:  v.analyzeDeployment,
		CategorySecurity:    v.analyzeSecurity,
		CategoryHIPAA:       v.analyzeHIPAA,
		CategoryPerformance: v.analyzePerformance,
		CategoryIntegration: v.analyzeIntegration,
	}

	for name, analyze := range analyzers {
		score, details := analyze()
		if score > 100 {
			score = 100
		}

		weight := v.weights[name]
		cs := &CategoryScore{
			Score:        score,
			Weight:       weight,
			Contribution: score * weight,
			Details:      details,
		}
		rpt.Categories[name] = cs
		rpt.Overall += cs.Contribution

		log.Info().Msgf("%s: %.1f%% (weight %.0f%%)", name, score, weight*100)
	}

	return rpt
}

// Render formats the report as human readable text
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Overall Confidence Score: %.2f%%\n\n", r.Overall)

	names := make([]string, 0, len(r.Categories))
	for name := range r.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cs := r.Categories[name]
		fmt.Fprintf(&b, "%s - score %.1f%% | weight %.0f%% | contribution %.2f%%\n",
			name, cs.Score, cs.Weight*100, cs.Contribution)
		for _, d := range cs.Details {
			fmt.Fprintf(&b, "  %s\n", d)
		}
		b.WriteString("\n")
	}

	return b.String()
}
