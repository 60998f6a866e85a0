// Package qc produces quick-look diagnostics for a conversion run: summary
// statistics per output window and an HTML chart of the calibration-angle
// signal with the planned window boundaries, for eyeballing cycle detection
// before uploading anything.
package qc

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/atmoslab/pollyxt.report/internal/polly"
	"github.com/atmoslab/pollyxt.report/internal/segment"
)

// WindowStats summarises the signal inside one output window.
type WindowStats struct {
	Index   int
	Start   time.Time
	End     time.Time
	Samples int

	// MeanSignal/StdDevSignal describe the per-sample total signal
	// (summed over channels and bins).
	MeanSignal   float64
	StdDevSignal float64

	// CalibrationSamples counts samples whose calibration angle deviates
	// from the zero state.
	CalibrationSamples int
}

// Stats computes summary statistics for one window's merged sample set.
func Stats(w segment.Window, set *polly.SampleSet, zeroState float64) WindowStats {
	s := WindowStats{Index: w.Index, Start: w.Start, End: w.End, Samples: set.Len()}
	if set.Empty() {
		return s
	}
	totals := make([]float64, set.Len())
	for i, profile := range set.Signal {
		for _, channel := range profile {
			totals[i] += floats.Sum(channel)
		}
	}
	s.MeanSignal, s.StdDevSignal = stat.MeanStdDev(totals, nil)
	for _, a := range set.CalAngle {
		if a != zeroState {
			s.CalibrationSamples++
		}
	}
	return s
}

// RenderAngleChart writes an HTML page charting the calibration-angle signal
// across the run, one series per planned window so boundaries are visible.
func RenderAngleChart(w io.Writer, location string, windows []segment.Window, sets []*polly.SampleSet) error {
	if len(windows) != len(sets) {
		return fmt.Errorf("have %d windows but %d sample sets", len(windows), len(sets))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Depolarisation Calibration Angle", Theme: "dark", Width: "1400px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Calibration angle", Subtitle: fmt.Sprintf("location=%s windows=%d", location, len(windows))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (UTC)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "angle (deg)"}),
	)

	var labels []string
	for _, set := range sets {
		for _, t := range set.Times {
			labels = append(labels, t.Format("15:04:05"))
		}
	}
	line.SetXAxis(labels)

	offset := 0
	for i, set := range sets {
		data := make([]opts.LineData, len(labels))
		for j := range set.CalAngle {
			data[offset+j] = opts.LineData{Value: set.CalAngle[j]}
		}
		offset += set.Len()
		line.AddSeries(windows[i].String(), data)
	}

	return line.Render(w)
}
