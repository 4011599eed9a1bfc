package scheduling

import "time"

// stepMinutes is the granularity of the forward search: trial slots are
// proposed on a 15-minute grid anchored at the candidate start.
const stepMinutes = 15

// Suggest scans forward from the candidate start for alternative start times
// that pass Check against the same snapshot and buffer. The scan advances in
// 15-minute steps and is bounded to the remainder of the candidate's calendar
// day: the last trial considered is the final step whose start still falls on
// the same date. A slot in the past relative to the request is never
// proposed because the scan only moves forward.
//
// The returned slice is strictly increasing, duplicate-free, at most count
// long, and possibly empty when the day offers nothing - an empty result is
// data, not an error.
func Suggest(candidate Candidate, existing []ExistingBooking, bufferMinutes, count int) []time.Time {
	if count <= 0 {
		return nil
	}

	results := make([]time.Time, 0, count)
	year, month, day := candidate.Interval.Start.Date()

	for step := 0; ; step++ {
		start := candidate.Interval.Start.Add(time.Duration(step*stepMinutes) * time.Minute)
		y, m, d := start.Date()
		if y != year || m != month || d != day {
			break
		}

		trial := Candidate{
			Interval:  Interval{Start: start, DurationMinutes: candidate.Interval.DurationMinutes},
			ExcludeID: candidate.ExcludeID,
		}
		if Check(trial, existing, bufferMinutes).HasConflict {
			continue
		}

		results = append(results, start)
		if len(results) == count {
			break
		}
	}

	return results
}
