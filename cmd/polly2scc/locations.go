package main

import (
	"flag"
	"fmt"
	"sort"

	"github.com/atmoslab/pollyxt.report/internal/locations"
)

func runLocations(args []string) error {
	fs := flag.NewFlagSet("locations", flag.ExitOnError)
	var (
		locationsFile = fs.String("locations-file", "", "Optional TOML file with custom station definitions")
		show          = fs.String("show", "", "Show one station's full configuration")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var all map[string]locations.Location
	var err error
	if *locationsFile != "" {
		all, err = locations.Load(*locationsFile)
	} else {
		all, err = locations.Builtin()
	}
	if err != nil {
		return err
	}

	if *show != "" {
		loc, err := locations.Get(all, *show)
		if err != nil {
			return err
		}
		printLocation(loc)
		return nil
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		loc := all[name]
		fmt.Printf("%-16s scc=%s lat=%.4f lon=%.4f wavelengths=%v\n",
			loc.Name, loc.SCCCode, loc.Lat, loc.Lon, loc.Usable())
	}
	return nil
}

func printLocation(loc locations.Location) {
	fmt.Printf("name: %s\n", loc.Name)
	fmt.Printf("scc_code: %s\n", loc.SCCCode)
	fmt.Printf("lat/lon: %.4f, %.4f (altitude %.0fm)\n", loc.Lat, loc.Lon, loc.AltitudeASL)
	fmt.Printf("configurations: day=%d night=%d\n", loc.DaytimeConfiguration, loc.NighttimeConfiguration)
	fmt.Printf("depol zero state: %g\n", loc.DepolZeroState)
	fmt.Printf("usable wavelengths: %v\n", loc.Usable())
	fmt.Printf("calibration wavelengths: %v\n", loc.CalibrationUsable())
	for _, w := range loc.Usable() {
		cfg, _ := loc.Wavelength(w)
		fmt.Printf("  %s: total idx=%d id=%d, cross idx=%d id=%d",
			w, *cfg.TotalIndex, cfg.TotalChannelID, *cfg.CrossIndex, cfg.CrossChannelID)
		if cfg.Calibration.Complete() {
			fmt.Printf(", calibration ids=%v config=%d", cfg.CalibrationChannelIDs, cfg.CalibrationConfiguration)
		}
		fmt.Println()
	}
}
