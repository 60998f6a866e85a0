// Package segment turns raw PollyXT time coverage into the fixed-duration
// output windows required by SCC, and materialises the merged sample set for
// each window, stitching across raw-file boundaries where needed.
package segment

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/atmoslab/pollyxt.report/internal/polly"
)

// DefaultInterval is the output window length used when none is configured.
const DefaultInterval = 60 * time.Minute

// Window is one time-bounded segment of the conversion output. End is
// exclusive. Windows produced by one planning run are ordered by start time
// and pairwise non-overlapping.
type Window struct {
	Start time.Time
	End   time.Time
	Index int
}

// Contains reports whether t falls inside [w.Start, w.End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format("2006-01-02 15:04:05"), w.End.Format("2006-01-02 15:04:05"))
}

// Options controls how raw time coverage is split into output windows.
type Options struct {
	// Interval is the window length. Zero means DefaultInterval.
	Interval time.Duration

	// Start optionally fixes the first window start. Accepted formats:
	// "HH:MM", "HH:MM:SS", "XX:MM" (wildcard hour, literal minute),
	// "YYYY-MM-DD_HH:MM" and "YYYY-MM-DD_HH:MM:SS". Empty means the
	// earliest sample rounded down to an interval boundary from midnight.
	Start string

	// End optionally fixes the end of the output. Same formats as Start.
	// When set, exactly one window [start, end) is produced and Interval
	// is ignored. Requires Start.
	End string
}

var (
	reDateSeconds = regexp.MustCompile(`^\d{4}-[01]\d-[0-3]\d_([01]\d|2[0-3]):[0-5]\d:[0-5]\d$`)
	reDate        = regexp.MustCompile(`^\d{4}-[01]\d-[0-3]\d_([01]\d|2[0-3]):[0-5]\d$`)
	reTimeSeconds = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d:[0-5]\d$`)
	reTime        = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	reWildcard    = regexp.MustCompile(`^XX:[0-5]\d$`)
)

// ParseTimeOption resolves a start/end time option string against an anchor
// timestamp. Clock-only forms ("HH:MM", "HH:MM:SS") resolve to the first
// occurrence of that clock time at or after the anchor. The wildcard form
// "XX:MM" resolves to the first instant whose minute-of-hour matches, at or
// after the anchor. Components the option leaves unspecified inherit the
// anchor's values, so an anchor whose clock already matches resolves to the
// anchor itself. Full date-time forms are taken literally.
func ParseTimeOption(anchor time.Time, s string) (time.Time, error) {
	switch {
	case reDateSeconds.MatchString(s):
		return time.ParseInLocation("2006-01-02_15:04:05", s, anchor.Location())
	case reDate.MatchString(s):
		return time.ParseInLocation("2006-01-02_15:04", s, anchor.Location())
	case reTimeSeconds.MatchString(s):
		hh, _ := strconv.Atoi(s[0:2])
		mm, _ := strconv.Atoi(s[3:5])
		ss, _ := strconv.Atoi(s[6:8])
		return atOrAfter(anchor, hh, mm, ss), nil
	case reTime.MatchString(s):
		hh, _ := strconv.Atoi(s[0:2])
		mm, _ := strconv.Atoi(s[3:5])
		return atOrAfter(anchor, hh, mm, -1), nil
	case reWildcard.MatchString(s):
		mm, _ := strconv.Atoi(s[3:5])
		c := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), anchor.Hour(), mm,
			anchor.Second(), anchor.Nanosecond(), anchor.Location())
		if c.Before(anchor) {
			c = c.Add(time.Hour)
		}
		return c, nil
	}
	return time.Time{}, fmt.Errorf("time option %q is not in XX:MM, HH:MM[:SS] or YYYY-MM-DD_HH:MM[:SS] format", s)
}

// atOrAfter returns the first instant with the given clock time at or after
// the anchor. A negative ss inherits the anchor's seconds, so options given
// at minute precision resolve at the anchor's own granularity instead of
// truncating it.
func atOrAfter(anchor time.Time, hh, mm, ss int) time.Time {
	ns := 0
	if ss < 0 {
		ss, ns = anchor.Second(), anchor.Nanosecond()
	}
	c := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), hh, mm, ss, ns, anchor.Location())
	if c.Before(anchor) {
		c = c.AddDate(0, 0, 1)
	}
	return c
}

// AlignDown rounds t down to an interval boundary counted from midnight of
// the same day. A 60-minute interval aligns to the top of the hour.
func AlignDown(t time.Time, interval time.Duration) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.Add(t.Sub(midnight) / interval * interval)
}

// PlanWindows produces the ordered, non-overlapping output window sequence
// for the given raw time coverage. With no explicit start the sequence is
// aligned to interval boundaries; windows are generated back-to-back until
// no raw sample exists at or after the next window start. With both start
// and end set, exactly one window is produced. An empty coverage yields an
// empty sequence, not an error.
func PlanWindows(ranges []polly.RawTimeRange, opts Options) ([]Window, error) {
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	if interval < 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}
	if opts.End != "" && opts.Start == "" {
		return nil, fmt.Errorf("end time requires a start time")
	}

	var earliest, latest time.Time
	for _, r := range ranges {
		if len(r.Times) == 0 {
			continue
		}
		first, last := r.Times[0], r.Times[len(r.Times)-1]
		if earliest.IsZero() || first.Before(earliest) {
			earliest = first
		}
		if latest.IsZero() || last.After(latest) {
			latest = last
		}
	}
	if earliest.IsZero() {
		return nil, nil
	}

	start := AlignDown(earliest, interval)
	if opts.Start != "" {
		var err error
		start, err = ParseTimeOption(earliest, opts.Start)
		if err != nil {
			return nil, err
		}
		if start.Before(earliest) || start.After(latest) {
			return nil, fmt.Errorf("start time %s is outside the measurement period [%s, %s]",
				start.Format(time.RFC3339), earliest.Format(time.RFC3339), latest.Format(time.RFC3339))
		}
	}

	if opts.End != "" {
		end, err := ParseTimeOption(start, opts.End)
		if err != nil {
			return nil, err
		}
		if !end.After(start) {
			return nil, fmt.Errorf("end time %s is not after start time %s",
				end.Format(time.RFC3339), start.Format(time.RFC3339))
		}
		return []Window{{Start: start, End: end, Index: 0}}, nil
	}

	var windows []Window
	for ws := start; !latest.Before(ws); ws = ws.Add(interval) {
		windows = append(windows, Window{Start: ws, End: ws.Add(interval), Index: len(windows)})
	}
	return windows, nil
}
