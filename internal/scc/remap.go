package scc

import (
	"fmt"
	"time"

	"github.com/atmoslab/pollyxt.report/internal/depolcal"
	"github.com/atmoslab/pollyxt.report/internal/locations"
	"github.com/atmoslab/pollyxt.report/internal/polly"
)

// Default calibration constant height range, in metres.
const (
	DefaultPolCalibRangeMin = 1200
	DefaultPolCalibRangeMax = 2500
)

// BuildMeasurement assembles the normal-output artifact for one window.
// Samples flagged by calMask (calibration maneuvers) are physically removed
// from the time axis, not set to a sentinel. For each usable wavelength the
// configured raw total and cross channels are copied verbatim onto their
// destination channel IDs; wavelengths with incomplete total/cross
// configuration are omitted. Returns nil if nothing remains after
// calibration removal, in which case the caller skips the window.
func BuildMeasurement(set *polly.SampleSet, calMask []bool, loc locations.Location, atmos Atmosphere) (*Artifact, error) {
	usable := loc.Usable()
	if len(usable) == 0 {
		return nil, fmt.Errorf("location %s: no wavelength has a usable channel mapping", loc.Name)
	}

	clean := set.Without(calMask)
	if clean.Empty() {
		return nil, nil
	}

	var channelIDs []int
	var rawIdx []int
	for _, w := range usable {
		cfg, _ := loc.Wavelength(w)
		channelIDs = append(channelIDs, cfg.TotalChannelID, cfg.CrossChannelID)
		rawIdx = append(rawIdx, *cfg.TotalIndex, *cfg.CrossIndex)
	}

	data := make([][][]float64, clean.Len())
	shots := make([][]int32, clean.Len())
	for t := range clean.Times {
		row := make([][]float64, len(rawIdx))
		shotRow := make([]int32, len(rawIdx))
		for c, idx := range rawIdx {
			if idx >= len(clean.Signal[t]) {
				return nil, fmt.Errorf("location %s: raw channel index %d out of range (file has %d channels)",
					loc.Name, idx, len(clean.Signal[t]))
			}
			row[c] = clean.Signal[t][idx]
			if idx < len(clean.Shots[t]) {
				shotRow[c] = clean.Shots[t][idx]
			}
		}
		data[t] = row
		shots[t] = shotRow
	}

	start := clean.Times[0]
	id := MeasurementID(loc, start)
	a := &Artifact{
		MeasurementID:   id,
		Kind:            KindMeasurement,
		ConfigurationID: configurationID(loc, start),
		Start:           start,
		End:             clean.Times[clean.Len()-1],
		ChannelIDs:      channelIDs,
		Times:           clean.Times,
		Data:            data,
		Shots:           shots,
		ZenithAngle:     clean.ZenithAngle,
		BackgroundLow:   loc.BackgroundLow,
		BackgroundHigh:  loc.BackgroundHigh,
		LRInput:         loc.LRInput,
		Temperature:     loc.Temperature,
		Pressure:        loc.Pressure,
		MolecularCalc:   atmos,
	}
	if atmos == Radiosonde {
		// The radiosonde file accompanying this measurement; trimming the
		// trailing minutes matches the SCC naming convention.
		a.SoundingFileName = fmt.Sprintf("rs_%s.nc", id[:len(id)-2])
	}
	return a, nil
}

// BuildCalibration assembles one calibration artifact for a wavelength with
// a complete four-channel configuration. The four destination channels are,
// in order: plus45-transmitted, plus45-reflected, minus45-transmitted,
// minus45-reflected. The +45° channels carry the configured raw channels
// restricted to the period's +45° cycle, the -45° channels to the -45°
// cycle; cells outside a channel's own cycle rows stay zero. The artifact's
// time range is the calibration period's, not the enclosing window's.
func BuildCalibration(set *polly.SampleSet, period depolcal.Period, loc locations.Location, w locations.Wavelength) (*Artifact, error) {
	cfg, ok := loc.Wavelength(w)
	if !ok || !cfg.Calibration.Complete() || len(cfg.CalibrationChannelIDs) != 4 {
		return nil, fmt.Errorf("location %s: wavelength %s has no complete calibration configuration", loc.Name, w)
	}

	plus, minus := period.Plus45(), period.Minus45()
	n := plus.Len()
	if n != minus.Len() {
		return nil, fmt.Errorf("calibration cycles not reconciled: +45 has %d samples, -45 has %d", n, minus.Len())
	}
	if n == 0 {
		return nil, fmt.Errorf("calibration period is empty")
	}
	if plus.End > set.Len() || minus.End > set.Len() {
		return nil, fmt.Errorf("calibration cycle range exceeds sample set (%d samples)", set.Len())
	}

	bins := 0
	if len(set.Signal) > 0 && len(set.Signal[0]) > 0 {
		bins = len(set.Signal[0][0])
	}

	times := make([]time.Time, 0, 2*n)
	data := make([][][]float64, 0, 2*n)
	shots := make([][]int32, 0, 2*n)

	appendRows := func(c depolcal.Cycle, txIdx, rxIdx, txCh, rxCh int) {
		for i := c.Start; i < c.End; i++ {
			row := make([][]float64, 4)
			for ch := range row {
				row[ch] = make([]float64, bins)
			}
			row[txCh] = set.Signal[i][txIdx]
			row[rxCh] = set.Signal[i][rxIdx]
			shotRow := make([]int32, 4)
			shotRow[txCh] = set.Shots[i][txIdx]
			shotRow[rxCh] = set.Shots[i][rxIdx]
			times = append(times, set.Times[i])
			data = append(data, row)
			shots = append(shots, shotRow)
		}
	}
	// Rows stay in time order even when the -45° cycle comes first; channel
	// placement follows orientation, not row position.
	for _, c := range []depolcal.Cycle{period.First, period.Second} {
		if c.Orientation == depolcal.Plus45 {
			appendRows(c, *cfg.Calibration.Plus45Transmitted, *cfg.Calibration.Plus45Reflected, 0, 1)
		} else {
			appendRows(c, *cfg.Calibration.Minus45Transmitted, *cfg.Calibration.Minus45Reflected, 2, 3)
		}
	}

	startIdx, endIdx := period.Bounds()
	start := set.Times[startIdx]
	return &Artifact{
		MeasurementID:    CalibrationMeasurementID(loc, start, w),
		Kind:             KindCalibration,
		ConfigurationID:  cfg.CalibrationConfiguration,
		Start:            start,
		End:              set.Times[endIdx-1],
		Wavelength:       w,
		ChannelIDs:       cfg.CalibrationChannelIDs,
		Times:            times,
		Data:             data,
		Shots:            shots,
		ZenithAngle:      set.ZenithAngle,
		BackgroundLow:    []int{0, 0, 0, 0},
		BackgroundHigh:   []int{249, 249, 249, 249},
		Temperature:      loc.Temperature,
		Pressure:         loc.Pressure,
		MolecularCalc:    Automatic,
		PolCalibRangeMin: DefaultPolCalibRangeMin,
		PolCalibRangeMax: DefaultPolCalibRangeMax,
	}, nil
}
