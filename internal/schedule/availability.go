package schedule

import (
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/domain"
)

// ResolveAvailability computes the therapist's bookable wall-clock intervals
// for one calendar date: every weekly availability block matching the date's
// UTC weekday, minus blocks fully covered by a time-off interval.
//
// Time-off policy (single policy for all paths): a block fully contained by
// time-off is dropped here; any finer-grained candidate that merely overlaps
// time-off is rejected by the slot generator and by WithinAvailability.
// Overlapping source blocks are not merged; duplicate candidates they produce
// are de-duplicated by the slot set.
func ResolveAvailability(profile *domain.TherapistProfile, date time.Time) []Interval {
	day := date.UTC().Weekday()

	var resolved []Interval
	for _, block := range profile.BlocksForWeekday(day) {
		iv, err := ClockInterval(date, block.StartTime, block.EndTime)
		if err != nil {
			// Malformed persisted block; the write path validates, so skip.
			continue
		}
		if coveredByTimeOff(iv, profile.TimeOff) {
			continue
		}
		resolved = append(resolved, iv)
	}
	return resolved
}

// coveredByTimeOff reports whether a time-off interval fully contains iv.
func coveredByTimeOff(iv Interval, timeOff []domain.TimeOff) bool {
	for _, off := range timeOff {
		if (Interval{Start: off.Start, End: off.End}).Contains(iv) {
			return true
		}
	}
	return false
}

// OverlapsTimeOff reports whether iv overlaps any time-off interval at all.
func OverlapsTimeOff(iv Interval, timeOff []domain.TimeOff) bool {
	for _, off := range timeOff {
		if iv.Overlaps(Interval{Start: off.Start, End: off.End}) {
			return true
		}
	}
	return false
}

// WithinAvailability reports whether the proposed interval is bookable against
// the therapist's schedule definition: fully contained in some resolved
// availability block for its date and not overlapping any time-off. Both the
// listing path and the booking-validation path go through this predicate so
// the two can never disagree on what is bookable.
//
// Intervals crossing midnight are never within availability, since blocks are
// anchored to a single date.
func WithinAvailability(profile *domain.TherapistProfile, proposed Interval) bool {
	if !proposed.IsValid() {
		return false
	}
	if OverlapsTimeOff(proposed, profile.TimeOff) {
		return false
	}
	for _, block := range ResolveAvailability(profile, proposed.Start) {
		if block.Contains(proposed) {
			return true
		}
	}
	return false
}

// BlocksOverlap reports whether two wall-clock block definitions on the same
// weekday overlap. Used by the availability write path to enforce the
// no-overlapping-blocks invariant before insert/update.
func BlocksOverlap(a, b domain.AvailabilityBlock) (bool, error) {
	if a.DayOfWeek != b.DayOfWeek {
		return false, nil
	}
	// Anchor both on an arbitrary fixed date; only relative order matters.
	anchor := time.Date(2000, time.January, 2, 0, 0, 0, 0, time.UTC)
	ivA, err := ClockInterval(anchor, a.StartTime, a.EndTime)
	if err != nil {
		return false, err
	}
	ivB, err := ClockInterval(anchor, b.StartTime, b.EndTime)
	if err != nil {
		return false, err
	}
	return ivA.Overlaps(ivB), nil
}
