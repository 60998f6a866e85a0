package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/atmoslab/pollyxt.report/internal/depolcal"
	"github.com/atmoslab/pollyxt.report/internal/polly/rawfile"
)

// runCalibration lists the depolarisation calibration activity in a set of
// raw files without producing any output artifacts, so an operator can see
// when the rotator ran before committing to a conversion.
func runCalibration(args []string) error {
	fs := flag.NewFlagSet("calibration", flag.ExitOnError)
	var (
		input         = fs.String("input", "", "Raw file or directory of raw files to inspect")
		location      = fs.String("location", "", "Station name (see 'polly2scc locations')")
		locationsFile = fs.String("locations-file", "", "Optional TOML file with custom station definitions")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || *location == "" {
		return fmt.Errorf("calibration: -input and -location are required")
	}

	loc, err := lookupLocation(*location, *locationsFile)
	if err != nil {
		return err
	}
	repo, err := rawfile.ReadDir(*input)
	if err != nil {
		return err
	}

	periods := repo.CalibrationPeriods(loc.DepolZeroState)
	if len(periods) == 0 {
		log.Printf("no calibration activity found in %d raw file(s)", len(repo.Files()))
		return nil
	}

	detector := depolcal.Detector{ZeroState: loc.DepolZeroState}
	for i, p := range periods {
		log.Printf("calibration activity %d: %s to %s (%d sample(s))",
			i, p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339), p.Samples)
	}

	// Run the full detector over the repository-wide angle signal so the
	// listing also says which activity pairs into valid periods.
	var angles []float64
	for _, f := range repo.Files() {
		angles = append(angles, f.CalAngle...)
	}
	valid, degenerate := detector.Detect(angles)
	log.Printf("%d valid calibration period(s), %d degenerate cycle(s)", len(valid), len(degenerate))
	for _, d := range degenerate {
		log.Printf("warning: %s", d)
	}
	return nil
}
