// Package polly models raw PollyXT instrument recordings in memory: a
// per-sample timestamp axis, per-channel signal profiles, laser shot counts
// and the depolarisation calibration angle. It also provides a Repository
// that indexes a set of raw files so data can be extracted across single-file
// boundaries.
package polly

import (
	"fmt"
	"sort"
	"time"
)

// RawFile holds the variables of interest from one raw PollyXT recording.
// All per-sample slices are aligned 1:1 with Times. Signal is indexed
// [sample][channel][bin].
type RawFile struct {
	Source      string
	Times       []time.Time
	Signal      [][][]float64
	Shots       [][]int32
	CalAngle    []float64
	ZenithAngle float64
}

// Channels returns the number of raw channels in the file, or 0 if empty.
func (f *RawFile) Channels() int {
	if len(f.Signal) == 0 {
		return 0
	}
	return len(f.Signal[0])
}

// Bins returns the number of range bins per profile, or 0 if empty.
func (f *RawFile) Bins() int {
	if len(f.Signal) == 0 || len(f.Signal[0]) == 0 {
		return 0
	}
	return len(f.Signal[0][0])
}

// Range returns the time coverage of the file.
func (f *RawFile) Range() RawTimeRange {
	r := RawTimeRange{Source: f.Source, Times: f.Times}
	if len(f.Times) > 0 {
		r.Start = f.Times[0]
		r.End = f.Times[len(f.Times)-1]
	}
	return r
}

// Validate checks the internal consistency of the file: non-empty, strictly
// increasing timestamps and per-sample slices aligned with the time axis.
func (f *RawFile) Validate() error {
	if len(f.Times) == 0 {
		return fmt.Errorf("raw file %s: no samples", f.Source)
	}
	for i := 1; i < len(f.Times); i++ {
		if !f.Times[i].After(f.Times[i-1]) {
			return fmt.Errorf("raw file %s: timestamps not strictly increasing at sample %d (%s then %s)",
				f.Source, i, f.Times[i-1].Format(time.RFC3339), f.Times[i].Format(time.RFC3339))
		}
	}
	if len(f.Signal) != len(f.Times) {
		return fmt.Errorf("raw file %s: signal has %d profiles for %d timestamps", f.Source, len(f.Signal), len(f.Times))
	}
	if len(f.Shots) != len(f.Times) {
		return fmt.Errorf("raw file %s: shots has %d rows for %d timestamps", f.Source, len(f.Shots), len(f.Times))
	}
	if len(f.CalAngle) != len(f.Times) {
		return fmt.Errorf("raw file %s: calibration angle has %d values for %d timestamps", f.Source, len(f.CalAngle), len(f.Times))
	}
	return nil
}

// RawTimeRange describes the time coverage of one raw file. Times holds the
// full sample timestamp sequence so callers can answer coverage questions
// without re-reading the file.
type RawTimeRange struct {
	Source string
	Start  time.Time
	End    time.Time
	Times  []time.Time
}

// Overlaps reports whether any part of the range falls inside [start, end).
func (r RawTimeRange) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && !r.End.Before(start)
}

// SampleSet is an in-memory slice of measurement data, possibly merged from
// more than one raw source. All per-sample slices are aligned 1:1 with Times,
// which is ascending. A SampleSet is owned by the processing of one output
// window and discarded afterwards.
type SampleSet struct {
	Times       []time.Time
	Signal      [][][]float64
	Shots       [][]int32
	CalAngle    []float64
	ZenithAngle float64
	Sources     []string
}

// Len returns the number of samples in the set.
func (s *SampleSet) Len() int { return len(s.Times) }

// Empty reports whether the set holds no samples.
func (s *SampleSet) Empty() bool { return s == nil || len(s.Times) == 0 }

// Without returns a copy of the set with every sample where drop[i] is true
// removed from the time axis. The mask must be aligned with Times.
func (s *SampleSet) Without(drop []bool) *SampleSet {
	out := &SampleSet{ZenithAngle: s.ZenithAngle, Sources: s.Sources}
	for i := range s.Times {
		if i < len(drop) && drop[i] {
			continue
		}
		out.Times = append(out.Times, s.Times[i])
		out.Signal = append(out.Signal, s.Signal[i])
		out.Shots = append(out.Shots, s.Shots[i])
		out.CalAngle = append(out.CalAngle, s.CalAngle[i])
	}
	return out
}

// Repository indexes a set of raw files, kept sorted by start time. All
// files must share the same channel/bin geometry.
type Repository struct {
	files []*RawFile
}

// NewRepository validates the given files and builds a time-sorted index
// over them.
func NewRepository(files []*RawFile) (*Repository, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no raw files")
	}
	for _, f := range files {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	sorted := make([]*RawFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Times[0].Before(sorted[j].Times[0])
	})
	channels, bins := sorted[0].Channels(), sorted[0].Bins()
	for _, f := range sorted[1:] {
		if f.Channels() != channels || f.Bins() != bins {
			return nil, fmt.Errorf("raw file %s: channel geometry %dx%d does not match %s (%dx%d)",
				f.Source, f.Channels(), f.Bins(), sorted[0].Source, channels, bins)
		}
	}
	return &Repository{files: sorted}, nil
}

// Files returns the indexed raw files in start-time order.
func (r *Repository) Files() []*RawFile { return r.files }

// Ranges returns the time coverage of every indexed file, sorted by start.
func (r *Repository) Ranges() []RawTimeRange {
	out := make([]RawTimeRange, len(r.files))
	for i, f := range r.files {
		out[i] = f.Range()
	}
	return out
}

// CalibrationPeriod is one contiguous group of samples recorded away from
// the calibration zero state, reported as a repository-wide time range.
type CalibrationPeriod struct {
	Start   time.Time
	End     time.Time
	Samples int
}

// CalibrationPeriods returns the contiguous groups of samples whose
// calibration angle deviates from zeroState, across all indexed files in
// ascending time order. Groups are split wherever a zero-state sample
// intervenes, even across file boundaries.
func (r *Repository) CalibrationPeriods(zeroState float64) []CalibrationPeriod {
	type point struct {
		t     time.Time
		angle float64
	}
	var pts []point
	for _, f := range r.files {
		for i, t := range f.Times {
			pts = append(pts, point{t: t, angle: f.CalAngle[i]})
		}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].t.Before(pts[j].t) })

	var out []CalibrationPeriod
	for i := 0; i < len(pts); {
		if pts[i].angle == zeroState {
			i++
			continue
		}
		j := i
		for j < len(pts) && pts[j].angle != zeroState {
			j++
		}
		out = append(out, CalibrationPeriod{Start: pts[i].t, End: pts[j-1].t, Samples: j - i})
		i = j
	}
	return out
}

// TimePeriod returns the first and last timestamp available across all
// indexed files.
func (r *Repository) TimePeriod() (start, end time.Time) {
	start = r.files[0].Times[0]
	end = r.files[0].Times[len(r.files[0].Times)-1]
	for _, f := range r.files[1:] {
		if f.Times[0].Before(start) {
			start = f.Times[0]
		}
		if last := f.Times[len(f.Times)-1]; last.After(end) {
			end = last
		}
	}
	return start, end
}
