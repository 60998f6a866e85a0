package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/atmoslab/pollyxt.report/internal/convert"
	"github.com/atmoslab/pollyxt.report/internal/ledger"
	"github.com/atmoslab/pollyxt.report/internal/locations"
	"github.com/atmoslab/pollyxt.report/internal/polly/rawfile"
	"github.com/atmoslab/pollyxt.report/internal/scc"
)

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	var (
		input         = fs.String("input", "", "Raw file or directory of raw files to convert")
		output        = fs.String("output", ".", "Directory to write SCC artifacts into")
		location      = fs.String("location", "", "Station name (see 'polly2scc locations')")
		locationsFile = fs.String("locations-file", "", "Optional TOML file with custom station definitions")
		interval      = fs.Int("interval", 60, "Output window length in minutes")
		startTime     = fs.String("start-time", "", "First window start: HH:MM, HH:MM:SS, XX:MM or YYYY-MM-DD_HH:MM[:SS]")
		endTime       = fs.String("end-time", "", "Output end (single window), same formats as -start-time")
		atmosphere    = fs.String("atmosphere", "standard", "Molecular calculation: automatic, radiosonde, cloudnet or standard")
		noCalibration = fs.Bool("no-calibration", false, "Skip generation of calibration artifacts")
		dbFile        = fs.String("db", "", "Optional SQLite ledger recording runs and artifacts")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" || *location == "" {
		return fmt.Errorf("convert: -input and -location are required")
	}
	if *interval <= 0 {
		return fmt.Errorf("convert: -interval must be positive, got %d", *interval)
	}

	loc, err := lookupLocation(*location, *locationsFile)
	if err != nil {
		return err
	}
	atmos, err := scc.ParseAtmosphere(*atmosphere)
	if err != nil {
		return err
	}

	repo, err := rawfile.ReadDir(*input)
	if err != nil {
		return err
	}
	start, end := repo.TimePeriod()
	log.Printf("indexed %d raw file(s) covering %s to %s",
		len(repo.Files()), start.Format(time.RFC3339), end.Format(time.RFC3339))

	conv := &convert.Converter{
		Location: loc,
		Repo:     repo,
		Writer:   scc.DirWriter{Dir: *output},
	}
	if *dbFile != "" {
		store, err := ledger.Open(*dbFile)
		if err != nil {
			return err
		}
		defer store.Close()
		conv.Ledger = store
	}

	res, err := conv.Run(convert.Options{
		Interval:      time.Duration(*interval) * time.Minute,
		StartTime:     *startTime,
		EndTime:       *endTime,
		Atmosphere:    atmos,
		NoCalibration: *noCalibration,
	})
	if err != nil {
		return err
	}

	for _, a := range res.Artifacts {
		log.Printf("wrote %s (%s) %s to %s", a.MeasurementID, a.Kind,
			a.Start.Format("15:04:05"), a.End.Format("15:04:05"))
	}
	if !res.CoverageStart.IsZero() {
		log.Printf("data span covered: %s to %s",
			res.CoverageStart.Format(time.RFC3339), res.CoverageEnd.Format(time.RFC3339))
	}
	return nil
}

func lookupLocation(name, extraFile string) (locations.Location, error) {
	var all map[string]locations.Location
	var err error
	if extraFile != "" {
		all, err = locations.Load(extraFile)
	} else {
		all, err = locations.Builtin()
	}
	if err != nil {
		return locations.Location{}, err
	}
	return locations.Get(all, name)
}
