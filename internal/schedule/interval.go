// Package schedule holds the pure scheduling core: half-open interval math,
// weekly availability resolution, candidate slot generation and slot ranking.
// Nothing in this package touches storage or transport.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Interval is a half-open time interval [Start, End). Adjacent intervals
// sharing a boundary do not overlap.
type Interval struct {
	Start time.Time
	End   time.Time
}

// IsValid reports whether the interval is well-formed (End after Start).
func (i Interval) IsValid() bool {
	return i.End.After(i.Start)
}

// Overlaps is the canonical conflict test: true iff the two half-open
// intervals share any instant. A session touching but not crossing a boundary
// (i.End == o.Start) does not conflict.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// Contains reports whether inner lies entirely within i.
func (i Interval) Contains(inner Interval) bool {
	return !inner.Start.Before(i.Start) && !inner.End.After(i.End)
}

// Duration returns the interval's length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlap returns the intersection of two half-open intervals, or false when
// they do not overlap.
func Overlap(a, b Interval) (Interval, bool) {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if !start.Before(end) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// ErrBadClock indicates a wall-clock string that is not "HH:MM".
var ErrBadClock = errors.New("invalid wall-clock time, want HH:MM")

// ParseClock converts a wall-clock "HH:MM" string into minutes from midnight.
// "24:00" is accepted as an end-of-day boundary.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, ErrBadClock
	}
	if len(s) != 5 || s[2] != ':' {
		return 0, ErrBadClock
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, ErrBadClock
	}
	return h*60 + m, nil
}

// ClockAt anchors minutes-from-midnight onto the given calendar date in UTC.
func ClockAt(date time.Time, minutes int) time.Time {
	d := date.UTC()
	midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(minutes) * time.Minute)
}

// ClockInterval anchors a wall-clock [startClock, endClock) pair onto a date.
// Returns an error if either clock is malformed or the pair is inverted/empty.
func ClockInterval(date time.Time, startClock, endClock string) (Interval, error) {
	startMin, err := ParseClock(startClock)
	if err != nil {
		return Interval{}, err
	}
	endMin, err := ParseClock(endClock)
	if err != nil {
		return Interval{}, err
	}
	if endMin <= startMin {
		return Interval{}, fmt.Errorf("inverted wall-clock range %s-%s", startClock, endClock)
	}
	return Interval{Start: ClockAt(date, startMin), End: ClockAt(date, endMin)}, nil
}
