// Package depolcal locates depolarisation calibration cycles in the
// calibration-angle signal of a merged sample set. A cycle is a contiguous
// run of samples whose angle deviates from the configured zero state; a
// valid calibration period pairs one +45° cycle with one -45° cycle in
// either order, separated only by zero-state samples.
package depolcal

import "fmt"

// Orientation classifies one calibration cycle.
type Orientation int

const (
	Plus45 Orientation = iota
	Minus45
)

func (o Orientation) String() string {
	switch o {
	case Plus45:
		return "plus45"
	case Minus45:
		return "minus45"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// Guard samples discarded as instrument settling artifacts: the rotator
// needs a couple of profiles to reach +45° and drifts on the way out of
// -45°.
const (
	plus45LeadingGuard   = 2
	minus45TrailingGuard = 3
)

// Cycle is one calibration cycle as a half-open index range [Start, End)
// into the sample axis of the merged set it was detected in.
type Cycle struct {
	Orientation Orientation
	Start       int
	End         int
}

// Len returns the number of samples in the cycle.
func (c Cycle) Len() int { return c.End - c.Start }

func (c Cycle) String() string {
	return fmt.Sprintf("%s[%d,%d)", c.Orientation, c.Start, c.End)
}

// Period is one valid calibration period: a +45° cycle and a -45° cycle,
// adjacent in time, trimmed and reconciled to equal length. First precedes
// Second on the time axis; either orientation may come first.
type Period struct {
	First  Cycle
	Second Cycle
}

// Plus45 returns the period's +45° cycle.
func (p Period) Plus45() Cycle {
	if p.First.Orientation == Plus45 {
		return p.First
	}
	return p.Second
}

// Minus45 returns the period's -45° cycle.
func (p Period) Minus45() Cycle {
	if p.First.Orientation == Minus45 {
		return p.First
	}
	return p.Second
}

// Bounds returns the half-open sample range spanned by the whole period,
// from the first trimmed cycle sample to the end of the second cycle.
func (p Period) Bounds() (start, end int) {
	return p.First.Start, p.Second.End
}

// Degenerate describes a calibration cycle that could not be folded into a
// valid period. Degenerate cycles are excluded from calibration output but
// do not abort processing.
type Degenerate struct {
	Cycle  Cycle
	Reason string
}

func (d Degenerate) String() string {
	return fmt.Sprintf("degenerate calibration cycle %s: %s", d.Cycle, d.Reason)
}

// Classifier decides the orientation of one candidate cycle from its angle
// samples. The threshold test below is a heuristic; deployments with noisy
// rotator readouts can inject their own rule.
type Classifier func(angles []float64) Orientation

// ThresholdClassifier classifies a cycle as +45° when its mean angle lies
// above the zero state and -45° otherwise.
func ThresholdClassifier(zeroState float64) Classifier {
	return func(angles []float64) Orientation {
		var sum float64
		for _, a := range angles {
			sum += a
		}
		if sum/float64(len(angles)) > zeroState {
			return Plus45
		}
		return Minus45
	}
}

// Detector finds calibration periods in a calibration-angle signal.
type Detector struct {
	// ZeroState is the angle value meaning "normal measurement, not
	// calibrating". Samples are part of a cycle iff their angle differs
	// from it.
	ZeroState float64

	// Classify decides cycle orientation. Nil means
	// ThresholdClassifier(ZeroState).
	Classify Classifier
}

// Mask returns a boolean mask aligned with angles, true wherever the sample
// belongs to a calibration maneuver (angle differs from the zero state).
// These samples are removed from the time axis of the normal output.
func (d Detector) Mask(angles []float64) []bool {
	mask := make([]bool, len(angles))
	for i, a := range angles {
		mask[i] = a != d.ZeroState
	}
	return mask
}

// Detect scans the angle signal for calibration cycles, classifies and
// trims them, and pairs them into valid periods. Cycles that cannot be
// paired, or that vanish under guard trimming, are reported as degenerate.
func (d Detector) Detect(angles []float64) ([]Period, []Degenerate) {
	classify := d.Classify
	if classify == nil {
		classify = ThresholdClassifier(d.ZeroState)
	}

	var cycles []Cycle
	var degenerate []Degenerate
	for start := 0; start < len(angles); {
		if angles[start] == d.ZeroState {
			start++
			continue
		}
		end := start
		for end < len(angles) && angles[end] != d.ZeroState {
			end++
		}
		c := Cycle{Orientation: classify(angles[start:end]), Start: start, End: end}
		c = trim(c)
		if c.Len() <= 0 {
			degenerate = append(degenerate, Degenerate{
				Cycle:  Cycle{Orientation: c.Orientation, Start: start, End: end},
				Reason: "cycle vanished under guard trimming",
			})
		} else {
			cycles = append(cycles, c)
		}
		start = end
	}

	var periods []Period
	for i := 0; i < len(cycles); {
		if i+1 < len(cycles) && cycles[i].Orientation != cycles[i+1].Orientation {
			periods = append(periods, reconcile(cycles[i], cycles[i+1]))
			i += 2
			continue
		}
		reason := "no adjacent cycle of opposite orientation to pair with"
		if i+1 < len(cycles) {
			reason = fmt.Sprintf("followed by another %s cycle instead of its opposite", cycles[i].Orientation)
		}
		degenerate = append(degenerate, Degenerate{Cycle: cycles[i], Reason: reason})
		i++
	}
	return periods, degenerate
}

// trim discards guard samples: the first samples of a +45° cycle and the
// last samples of a -45° cycle.
func trim(c Cycle) Cycle {
	switch c.Orientation {
	case Plus45:
		c.Start += plus45LeadingGuard
	case Minus45:
		c.End -= minus45TrailingGuard
	}
	return c
}

// reconcile clips the longer of the two cycles from its trailing end so
// both have equal length, preserving sample alignment for the four-channel
// calibration remap.
func reconcile(first, second Cycle) Period {
	n := first.Len()
	if second.Len() < n {
		n = second.Len()
	}
	first.End = first.Start + n
	second.End = second.Start + n
	return Period{First: first, Second: second}
}
