// Package scc assembles SCC-format artifacts from merged PollyXT sample
// sets: the per-window measurement artifact and the per-wavelength
// depolarisation calibration artifacts. The on-disk encoding is handled by
// Writer implementations; the remapping logic only produces in-memory
// arrays.
package scc

import (
	"fmt"
	"strings"
	"time"

	"github.com/atmoslab/pollyxt.report/internal/locations"
)

// Kind distinguishes the two artifact flavours.
type Kind string

const (
	KindMeasurement Kind = "measurement"
	KindCalibration Kind = "calibration"
)

// Atmosphere selects the molecular calculation mode on SCC.
type Atmosphere int

const (
	Automatic          Atmosphere = 0
	Radiosonde         Atmosphere = 1
	Cloudnet           Atmosphere = 2
	StandardAtmosphere Atmosphere = 4
)

// ParseAtmosphere parses an atmosphere name as accepted on the command line.
func ParseAtmosphere(s string) (Atmosphere, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "automatic":
		return Automatic, nil
	case "radiosonde":
		return Radiosonde, nil
	case "cloudnet":
		return Cloudnet, nil
	case "standard":
		return StandardAtmosphere, nil
	}
	return 0, fmt.Errorf("unknown atmosphere %q (want automatic, radiosonde, cloudnet or standard)", s)
}

// Artifact is one SCC output file in memory: destination channel arrays plus
// the metadata the writer serialises. Data is indexed [time][channel][bin].
type Artifact struct {
	MeasurementID   string
	Kind            Kind
	ConfigurationID int

	Start time.Time
	End   time.Time

	// Wavelength is set for calibration artifacts only.
	Wavelength locations.Wavelength

	ChannelIDs []int
	Times      []time.Time
	Data       [][][]float64
	Shots      [][]int32

	ZenithAngle    float64
	BackgroundLow  []int
	BackgroundHigh []int
	LRInput        []int
	Temperature    int
	Pressure       int

	MolecularCalc Atmosphere

	// SoundingFileName is set when MolecularCalc is Radiosonde.
	SoundingFileName string

	// Calibration constant height range, calibration artifacts only.
	PolCalibRangeMin float64
	PolCalibRangeMax float64
}

// MeasurementID derives the SCC measurement ID for a window starting at
// start: YYYYMMDD + station code + HHMM.
func MeasurementID(loc locations.Location, start time.Time) string {
	return start.Format("20060102") + loc.SCCCode + start.Format("1504")
}

// CalibrationMeasurementID derives the measurement ID for a calibration
// artifact: YYYYMMDD + station code + HH plus a two-digit wavelength suffix
// (355nm → "35", 532nm → "53").
func CalibrationMeasurementID(loc locations.Location, start time.Time, w locations.Wavelength) string {
	suffix := fmt.Sprintf("%d", int(w))[:2]
	return start.Format("20060102") + loc.SCCCode + start.Format("15") + suffix
}

// configurationID picks the day or night SCC configuration for a window
// start. Daytime configuration applies from 04:00 until 16:00.
func configurationID(loc locations.Location, start time.Time) int {
	if h := start.Hour(); h >= 4 && h < 16 {
		return loc.DaytimeConfiguration
	}
	return loc.NighttimeConfiguration
}
