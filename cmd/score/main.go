// Command score computes the weighted confidence score from a directory of
// validation test results and prints the report. With -min set, it exits 1
// when the overall score falls below the threshold.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/labinsight/dbops/score"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		resultsDir = flag.String("results", "./results",
			"directory containing the test result files")
		min = flag.Float64("min", 0,
			"minimum overall score required for a zero exit code")
		out = flag.String("out", "",
			"optional file to write the rendered report to")
	)
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	rpt := score.NewValidator(*resultsDir, nil).Run()

	rendered := rpt.Render()
	fmt.Print(rendered)

	if *out != "" {
		if err := os.WriteFile(*out, []byte(rendered), 0o644); err != nil {
			log.Error().Err(err).Msgf("could not write report to %s", *out)
			return 1
		}
	}

	if rpt.Overall < *min {
		log.Error().Msgf("overall score %.2f%% below required %.2f%%", rpt.Overall, *min)
		return 1
	}

	return 0
}
