package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/atmoslab/pollyxt.report/internal/polly"
	"github.com/atmoslab/pollyxt.report/internal/polly/rawfile"
	"github.com/atmoslab/pollyxt.report/internal/qc"
	"github.com/atmoslab/pollyxt.report/internal/segment"
)

func runQC(args []string) error {
	fs := flag.NewFlagSet("qc", flag.ExitOnError)
	var (
		input         = fs.String("input", "", "Raw file or directory of raw files to inspect")
		location      = fs.String("location", "", "Station name (see 'polly2scc locations')")
		locationsFile = fs.String("locations-file", "", "Optional TOML file with custom station definitions")
		interval      = fs.Int("interval", 60, "Window length in minutes")
		htmlOut       = fs.String("html", "", "Write a calibration-angle chart to this HTML file")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || *location == "" {
		return fmt.Errorf("qc: -input and -location are required")
	}

	loc, err := lookupLocation(*location, *locationsFile)
	if err != nil {
		return err
	}
	repo, err := rawfile.ReadDir(*input)
	if err != nil {
		return err
	}

	windows, err := segment.PlanWindows(repo.Ranges(), segment.Options{
		Interval: time.Duration(*interval) * time.Minute,
	})
	if err != nil {
		return err
	}

	var kept []segment.Window
	var sets []*polly.SampleSet
	for _, w := range windows {
		set, _ := segment.Stitch(w, repo.Files())
		if set.Empty() {
			continue
		}
		stats := qc.Stats(w, set, loc.DepolZeroState)
		log.Printf("window %d %s: %d sample(s), mean signal %.1f (stddev %.1f), %d calibration sample(s)",
			stats.Index, w, stats.Samples, stats.MeanSignal, stats.StdDevSignal, stats.CalibrationSamples)
		kept = append(kept, w)
		sets = append(sets, set)
	}

	if *htmlOut == "" {
		return nil
	}
	f, err := os.Create(*htmlOut)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()
	if err := qc.RenderAngleChart(f, loc.Name, kept, sets); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	log.Printf("wrote calibration-angle chart to %s", *htmlOut)
	return f.Close()
}
