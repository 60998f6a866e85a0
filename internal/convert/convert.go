// Package convert drives the full PollyXT→SCC conversion for one location:
// plan output windows over the raw coverage, stitch each window's samples,
// detect depolarisation calibration periods, remap channels and hand the
// finished artifacts to the writer. Windows are processed one at a time in
// ascending time order.
package convert

import (
	"fmt"
	"log"
	"time"

	"github.com/atmoslab/pollyxt.report/internal/depolcal"
	"github.com/atmoslab/pollyxt.report/internal/ledger"
	"github.com/atmoslab/pollyxt.report/internal/locations"
	"github.com/atmoslab/pollyxt.report/internal/polly"
	"github.com/atmoslab/pollyxt.report/internal/scc"
	"github.com/atmoslab/pollyxt.report/internal/segment"
)

// Options configures one conversion run.
type Options struct {
	// Interval is the output window length. Zero means
	// segment.DefaultInterval.
	Interval time.Duration

	// StartTime / EndTime are the optional window bounds, in the formats
	// accepted by segment.ParseTimeOption.
	StartTime string
	EndTime   string

	// Atmosphere selects the molecular calculation mode stamped into
	// measurement artifacts.
	Atmosphere scc.Atmosphere

	// NoCalibration disables generation of calibration artifacts.
	NoCalibration bool

	// Classifier optionally overrides the cycle orientation rule.
	Classifier depolcal.Classifier
}

// ArtifactInfo describes one emitted artifact.
type ArtifactInfo struct {
	MeasurementID string
	Kind          scc.Kind
	Wavelength    locations.Wavelength
	Path          string
	Start         time.Time
	End           time.Time
}

// Result summarises a completed run.
type Result struct {
	RunID     string
	Artifacts []ArtifactInfo
	Warnings  []segment.Warning

	// Windows is the number of planned windows, including skipped empty
	// ones.
	Windows int

	// CoverageStart/CoverageEnd span the data actually written.
	CoverageStart time.Time
	CoverageEnd   time.Time
}

// Converter runs conversions for one location over one raw repository.
type Converter struct {
	Location locations.Location
	Repo     *polly.Repository
	Writer   scc.Writer

	// Ledger optionally records the run; nil disables recording.
	Ledger *ledger.Store
}

// Run executes the conversion. Configuration errors abort before any window
// is processed; per-window conditions are collected as warnings and the run
// continues.
func (c *Converter) Run(opts Options) (*Result, error) {
	if err := c.Location.Validate(); err != nil {
		return nil, err
	}
	interval := opts.Interval
	if interval == 0 {
		interval = segment.DefaultInterval
	}

	windows, err := segment.PlanWindows(c.Repo.Ranges(), segment.Options{
		Interval: interval,
		Start:    opts.StartTime,
		End:      opts.EndTime,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Windows: len(windows)}
	if c.Ledger != nil {
		run := &ledger.Run{Location: c.Location.Name, Interval: interval}
		if err := c.Ledger.InsertRun(run); err != nil {
			return nil, err
		}
		res.RunID = run.RunID
	}

	detector := depolcal.Detector{ZeroState: c.Location.DepolZeroState, Classify: opts.Classifier}
	calWavelengths := c.Location.CalibrationUsable()

	for _, w := range windows {
		set, warnings := segment.Stitch(w, c.Repo.Files())
		c.record(res, warnings...)
		if set.Empty() {
			// Expected when raw coverage has gaps; no artifact, no warning.
			continue
		}

		periods, degenerate := detector.Detect(set.CalAngle)
		for _, d := range degenerate {
			c.record(res, segment.Warning{WindowIndex: w.Index, Message: d.String()})
		}

		if err := c.emitMeasurement(res, w, set, detector, opts.Atmosphere); err != nil {
			return nil, err
		}

		if opts.NoCalibration {
			continue
		}
		for _, p := range periods {
			for _, wl := range calWavelengths {
				if err := c.emitCalibration(res, w, set, p, wl); err != nil {
					return nil, err
				}
			}
		}
	}

	if c.Ledger != nil {
		if err := c.Ledger.UpdateRunCounts(res.RunID, res.Windows, len(res.Warnings)); err != nil {
			return nil, err
		}
	}
	log.Printf("converted %s: %d artifact(s) over %d window(s), %d warning(s)",
		c.Location.Name, len(res.Artifacts), res.Windows, len(res.Warnings))
	return res, nil
}

func (c *Converter) emitMeasurement(res *Result, w segment.Window, set *polly.SampleSet, d depolcal.Detector, atmos scc.Atmosphere) error {
	artifact, err := scc.BuildMeasurement(set, d.Mask(set.CalAngle), c.Location, atmos)
	if err != nil {
		return fmt.Errorf("window %s: %w", w, err)
	}
	if artifact == nil {
		// Window held only calibration samples.
		return nil
	}
	return c.write(res, w, artifact)
}

func (c *Converter) emitCalibration(res *Result, w segment.Window, set *polly.SampleSet, p depolcal.Period, wl locations.Wavelength) error {
	artifact, err := scc.BuildCalibration(set, p, c.Location, wl)
	if err != nil {
		return fmt.Errorf("window %s: %w", w, err)
	}
	return c.write(res, w, artifact)
}

func (c *Converter) write(res *Result, w segment.Window, artifact *scc.Artifact) error {
	path, err := c.Writer.Write(artifact)
	if err != nil {
		return fmt.Errorf("write artifact %s: %w", artifact.MeasurementID, err)
	}

	info := ArtifactInfo{
		MeasurementID: artifact.MeasurementID,
		Kind:          artifact.Kind,
		Wavelength:    artifact.Wavelength,
		Path:          path,
		Start:         artifact.Start,
		End:           artifact.End,
	}
	res.Artifacts = append(res.Artifacts, info)
	if res.CoverageStart.IsZero() || artifact.Start.Before(res.CoverageStart) {
		res.CoverageStart = artifact.Start
	}
	if artifact.End.After(res.CoverageEnd) {
		res.CoverageEnd = artifact.End
	}

	if c.Ledger != nil {
		rec := &ledger.Artifact{
			RunID:         res.RunID,
			Kind:          string(artifact.Kind),
			MeasurementID: artifact.MeasurementID,
			Wavelength:    int(artifact.Wavelength),
			Path:          path,
			Start:         artifact.Start,
			End:           artifact.End,
		}
		if err := c.Ledger.InsertArtifact(rec); err != nil {
			return err
		}
	}
	return nil
}

// record appends warnings to the result, logs them, and mirrors them into
// the ledger when one is attached.
func (c *Converter) record(res *Result, warnings ...segment.Warning) {
	for _, w := range warnings {
		log.Printf("warning: %s", w)
		res.Warnings = append(res.Warnings, w)
		if c.Ledger != nil {
			if err := c.Ledger.InsertWarning(res.RunID, w.WindowIndex, w.Message); err != nil {
				log.Printf("ledger: record warning: %v", err)
			}
		}
	}
}
