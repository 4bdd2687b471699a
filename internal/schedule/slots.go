package schedule

import (
	"errors"
	"sort"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Slot is a fixed-duration candidate booking window for one therapist.
type Slot struct {
	TherapistID primitive.ObjectID
	Start       time.Time
	End         time.Time
}

// Interval returns the slot's occupied interval.
func (s Slot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// ErrBadDuration indicates a non-positive or out-of-bounds slot duration.
var ErrBadDuration = errors.New("slot duration must be positive")

// SlotParams are the inputs to candidate slot generation for a single date.
type SlotParams struct {
	TherapistID primitive.ObjectID
	Date        time.Time
	Duration    time.Duration
	// Availability is the resolved availability for Date (see ResolveAvailability).
	Availability []Interval
	// TimeOff vetoes any slot it overlaps at all.
	TimeOff []domain.TimeOff
	// ActiveSessions are the therapist's (and, for suggestions, the client's)
	// non-cancelled sessions intersecting the date.
	ActiveSessions []Interval
	// Preferences narrows candidate windows; nil means no preference filter.
	Preferences *domain.Preferences
}

// GenerateSlots slices resolved availability into fixed-duration candidate
// slots, honoring client preferences and hard constraints and excluding slots
// occupied by active sessions or time-off. The output is ordered by start
// time and de-duplicated (overlapping availability blocks may otherwise yield
// the same candidate twice).
func GenerateSlots(p SlotParams) ([]Slot, error) {
	if p.Duration <= 0 {
		return nil, ErrBadDuration
	}

	var windows []Interval
	for _, block := range p.Availability {
		for _, w := range preferredWindows(block, p.Date, p.Preferences) {
			w, ok := clipToHardConstraints(w, p.Date, p.Preferences)
			if !ok {
				continue
			}
			// Conservative whole-window veto: an active session that fully
			// contains the window removes it outright.
			if containedByAny(w, p.ActiveSessions) {
				continue
			}
			windows = append(windows, w)
		}
	}

	seen := make(map[int64]struct{})
	var slots []Slot
	for _, w := range windows {
		for start := w.Start; !start.Add(p.Duration).After(w.End); start = start.Add(p.Duration) {
			candidate := Interval{Start: start, End: start.Add(p.Duration)}
			if overlapsAny(candidate, p.ActiveSessions) {
				continue
			}
			if OverlapsTimeOff(candidate, p.TimeOff) {
				continue
			}
			key := candidate.Start.Unix()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			slots = append(slots, Slot{TherapistID: p.TherapistID, Start: candidate.Start, End: candidate.End})
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots, nil
}

// preferredWindows intersects an availability block with each client-preferred
// time range, or returns the block itself when the client specified none.
func preferredWindows(block Interval, date time.Time, prefs *domain.Preferences) []Interval {
	if prefs == nil || len(prefs.PreferredTimeRanges) == 0 {
		return []Interval{block}
	}
	var windows []Interval
	for _, tr := range prefs.PreferredTimeRanges {
		pref, err := ClockInterval(date, tr.StartTime, tr.EndTime)
		if err != nil {
			continue
		}
		if w, ok := Overlap(block, pref); ok {
			windows = append(windows, w)
		}
	}
	return windows
}

// clipToHardConstraints applies noEarlierThan/noLaterThan to a window,
// reporting false when the clipped window is empty or inverted.
func clipToHardConstraints(w Interval, date time.Time, prefs *domain.Preferences) (Interval, bool) {
	if prefs == nil {
		return w, true
	}
	if prefs.NoEarlierThan != "" {
		if min, err := ParseClock(prefs.NoEarlierThan); err == nil {
			if floor := ClockAt(date, min); w.Start.Before(floor) {
				w.Start = floor
			}
		}
	}
	if prefs.NoLaterThan != "" {
		if min, err := ParseClock(prefs.NoLaterThan); err == nil {
			if ceil := ClockAt(date, min); w.End.After(ceil) {
				w.End = ceil
			}
		}
	}
	return w, w.IsValid()
}

func overlapsAny(iv Interval, others []Interval) bool {
	for _, o := range others {
		if iv.Overlaps(o) {
			return true
		}
	}
	return false
}

func containedByAny(iv Interval, others []Interval) bool {
	for _, o := range others {
		if o.Contains(iv) {
			return true
		}
	}
	return false
}
