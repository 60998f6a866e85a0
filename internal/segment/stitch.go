package segment

import (
	"fmt"
	"sort"
	"time"

	"github.com/atmoslab/pollyxt.report/internal/polly"
)

// Warning records a non-fatal condition encountered while processing one
// output window. Warnings are collected and reported without aborting the
// run.
type Warning struct {
	WindowIndex int
	Message     string
}

func (w Warning) String() string {
	return fmt.Sprintf("window %d: %s", w.WindowIndex, w.Message)
}

// Stitch materialises the merged sample set for one output window. Every raw
// file overlapping [w.Start, w.End) contributes the subset of its samples
// falling inside the window; contributions are merged in ascending timestamp
// order. When two files carry a sample at the same instant the
// first-encountered file wins and a warning is recorded. If no file overlaps
// the window the returned set is empty and the caller skips the window.
func Stitch(w Window, files []*polly.RawFile) (*polly.SampleSet, []Warning) {
	set := &polly.SampleSet{}
	var warnings []Warning
	seen := make(map[int64]string)

	for _, f := range files {
		if !f.Range().Overlaps(w.Start, w.End) {
			continue
		}
		dropped, contributed := 0, 0
		for i, t := range f.Times {
			if t.Before(w.Start) {
				continue
			}
			if !t.Before(w.End) {
				break
			}
			key := t.UnixNano()
			if _, dup := seen[key]; dup {
				dropped++
				continue
			}
			seen[key] = f.Source
			set.Times = append(set.Times, t)
			set.Signal = append(set.Signal, f.Signal[i])
			set.Shots = append(set.Shots, f.Shots[i])
			set.CalAngle = append(set.CalAngle, f.CalAngle[i])
			contributed++
		}
		if dropped > 0 {
			warnings = append(warnings, Warning{
				WindowIndex: w.Index,
				Message:     fmt.Sprintf("%d duplicate timestamp(s) in %s overlap an earlier source; first source wins", dropped, f.Source),
			})
		}
		if contributed > 0 {
			if len(set.Sources) == 0 {
				set.ZenithAngle = f.ZenithAngle
			}
			set.Sources = append(set.Sources, f.Source)
		}
	}

	sortByTime(set)
	return set, warnings
}

// sortByTime restores ascending timestamp order after multi-source
// concatenation. Files are appended whole, so this is a no-op unless two
// sources interleave in time.
func sortByTime(set *polly.SampleSet) {
	if sort.SliceIsSorted(set.Times, func(i, j int) bool { return set.Times[i].Before(set.Times[j]) }) {
		return
	}
	idx := make([]int, len(set.Times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return set.Times[idx[a]].Before(set.Times[idx[b]]) })

	times := make([]time.Time, len(idx))
	signal := make([][][]float64, len(idx))
	shots := make([][]int32, len(idx))
	angles := make([]float64, len(idx))
	for i, j := range idx {
		times[i] = set.Times[j]
		signal[i] = set.Signal[j]
		shots[i] = set.Shots[j]
		angles[i] = set.CalAngle[j]
	}
	set.Times, set.Signal, set.Shots, set.CalAngle = times, signal, shots, angles
}
