package qc

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmoslab/pollyxt.report/internal/polly"
	"github.com/atmoslab/pollyxt.report/internal/segment"
)

func sampleSet(start time.Time, n int, value float64) *polly.SampleSet {
	set := &polly.SampleSet{}
	for i := 0; i < n; i++ {
		set.Times = append(set.Times, start.Add(time.Duration(i)*30*time.Second))
		set.Signal = append(set.Signal, [][]float64{{value, value}, {value, value}})
		set.Shots = append(set.Shots, []int32{600, 600})
		set.CalAngle = append(set.CalAngle, 0)
	}
	return set
}

func TestStats(t *testing.T) {
	start := time.Date(2024, 3, 14, 6, 0, 0, 0, time.UTC)
	w := segment.Window{Start: start, End: start.Add(time.Hour), Index: 3}

	set := sampleSet(start, 10, 2.5)
	set.CalAngle[4] = 45
	set.CalAngle[5] = 45
	set.CalAngle[8] = -45

	s := Stats(w, set, 0)
	assert.Equal(t, 3, s.Index)
	assert.Equal(t, 10, s.Samples)
	assert.Equal(t, 3, s.CalibrationSamples)
	// Four cells of 2.5 per sample, identical everywhere.
	assert.InDelta(t, 10.0, s.MeanSignal, 1e-12)
	assert.InDelta(t, 0.0, s.StdDevSignal, 1e-12)
}

func TestStatsEmptyWindow(t *testing.T) {
	start := time.Date(2024, 3, 14, 6, 0, 0, 0, time.UTC)
	w := segment.Window{Start: start, End: start.Add(time.Hour), Index: 0}

	s := Stats(w, &polly.SampleSet{}, 0)
	assert.Equal(t, 0, s.Samples)
	assert.Zero(t, s.MeanSignal)
	assert.Zero(t, s.CalibrationSamples)
}

func TestRenderAngleChart(t *testing.T) {
	start := time.Date(2024, 3, 14, 6, 0, 0, 0, time.UTC)
	windows := []segment.Window{
		{Start: start, End: start.Add(time.Hour), Index: 0},
		{Start: start.Add(time.Hour), End: start.Add(2 * time.Hour), Index: 1},
	}
	sets := []*polly.SampleSet{
		sampleSet(start, 5, 1),
		sampleSet(start.Add(time.Hour), 5, 1),
	}

	var buf bytes.Buffer
	require.NoError(t, RenderAngleChart(&buf, "antikythera", windows, sets))

	html := buf.String()
	assert.Contains(t, html, "Calibration angle")
	assert.Contains(t, html, "antikythera")
	assert.True(t, strings.Contains(html, "06:00:00"), "sample timestamps label the x axis")
}

func TestRenderAngleChartMismatch(t *testing.T) {
	var buf bytes.Buffer
	err := RenderAngleChart(&buf, "antikythera", []segment.Window{{}}, nil)
	require.Error(t, err)
}
