// Package scheduling decides whether a requested booking slot can be
// scheduled against a same-day set of existing bookings and, when it cannot,
// proposes nearby start times that can. It is pure computation: no storage,
// no clock reads, no mutation of inputs. Callers supply the snapshot of
// existing bookings and the buffer setting on every call.
package scheduling

import "time"

// Interval is a booking time slot: a start instant plus a duration in whole
// minutes. The end is derived and the interval is treated as half-open
// [Start, End).
type Interval struct {
	Start           time.Time
	DurationMinutes int
}

// NewInterval builds an interval from a start time and duration.
func NewInterval(start time.Time, durationMinutes int) Interval {
	return Interval{Start: start, DurationMinutes: durationMinutes}
}

// End returns the exclusive end instant of the interval.
func (iv Interval) End() time.Time {
	return iv.Start.Add(time.Duration(iv.DurationMinutes) * time.Minute)
}

// overlaps reports whether two half-open intervals intersect.
// [s1, e1) and [s2, e2) overlap iff s1 < e2 && s2 < e1, so touching
// endpoints never count as overlap.
func overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}
