package scheduling

import (
	"fmt"
	"time"
)

// ConflictType classifies why a candidate slot is rejected.
type ConflictType string

const (
	// ConflictNone means the candidate is schedulable.
	ConflictNone ConflictType = "NONE"
	// ConflictOverlap means the candidate intersects an existing booking directly.
	ConflictOverlap ConflictType = "OVERLAP"
	// ConflictBufferBefore means the candidate ends inside the turnover window
	// that precedes an existing booking.
	ConflictBufferBefore ConflictType = "BUFFER_BEFORE"
	// ConflictBufferAfter means the candidate starts inside the turnover window
	// that follows an existing booking.
	ConflictBufferAfter ConflictType = "BUFFER_AFTER"
)

// ExistingBooking is one already-accepted booking on the same calendar day.
// Callers must pre-filter to active statuses; cancelled and rejected bookings
// do not belong in the snapshot.
type ExistingBooking struct {
	ID       string
	Interval Interval
}

// Candidate is the slot under evaluation. ExcludeID, when set, names a
// booking to skip during the scan so that an update never conflicts with the
// record it is replacing.
type Candidate struct {
	Interval  Interval
	ExcludeID string
}

// ConflictResult reports the outcome of a conflict check. BookingID names the
// first conflicting booking in input order; Message is a plain-text summary
// that callers may replace with richer presentation text.
type ConflictResult struct {
	HasConflict bool         `json:"has_conflict"`
	Type        ConflictType `json:"conflict_type"`
	BookingID   string       `json:"conflicting_booking_id,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// Check evaluates the candidate against every existing booking under the
// given buffer. Each existing booking claims the widened window
// [start-buffer, end+buffer); the candidate conflicts when it overlaps that
// window under half-open semantics, so a candidate starting exactly at
// end+buffer is fine. The first conflicting booking in input order wins,
// which keeps results reproducible when several bookings conflict.
//
// Check panics when the candidate duration is not positive: the overlap math
// is undefined for empty intervals and such input indicates a caller-side
// validation gap, not a schedulable request.
func Check(candidate Candidate, existing []ExistingBooking, bufferMinutes int) ConflictResult {
	if candidate.Interval.DurationMinutes <= 0 {
		panic(fmt.Sprintf("scheduling: candidate duration must be positive, got %d", candidate.Interval.DurationMinutes))
	}

	buffer := time.Duration(bufferMinutes) * time.Minute
	candStart := candidate.Interval.Start
	candEnd := candidate.Interval.End()

	for _, booking := range existing {
		if candidate.ExcludeID != "" && booking.ID == candidate.ExcludeID {
			continue
		}
		if booking.Interval.DurationMinutes <= 0 {
			panic(fmt.Sprintf("scheduling: booking %s has non-positive duration %d", booking.ID, booking.Interval.DurationMinutes))
		}

		otherStart := booking.Interval.Start
		otherEnd := booking.Interval.End()

		if !overlaps(candStart, candEnd, otherStart.Add(-buffer), otherEnd.Add(buffer)) {
			continue
		}

		result := ConflictResult{HasConflict: true, BookingID: booking.ID}
		switch {
		case overlaps(candStart, candEnd, otherStart, otherEnd):
			result.Type = ConflictOverlap
			result.Message = fmt.Sprintf("requested slot overlaps booking %s (%s-%s)",
				booking.ID, otherStart.Format("15:04"), otherEnd.Format("15:04"))
		case !candEnd.After(otherStart):
			result.Type = ConflictBufferBefore
			result.Message = fmt.Sprintf("requested slot ends within the %d-minute buffer before booking %s (starts %s)",
				bufferMinutes, booking.ID, otherStart.Format("15:04"))
		default:
			result.Type = ConflictBufferAfter
			result.Message = fmt.Sprintf("requested slot starts within the %d-minute buffer after booking %s (ends %s)",
				bufferMinutes, booking.ID, otherEnd.Format("15:04"))
		}
		return result
	}

	return ConflictResult{HasConflict: false, Type: ConflictNone}
}
