package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// at builds a timestamp on a fixed reference day.
func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 14, hour, minute, 0, 0, time.UTC)
}

func booking(id string, start time.Time, minutes int) ExistingBooking {
	return ExistingBooking{ID: id, Interval: NewInterval(start, minutes)}
}

func candidate(start time.Time, minutes int) Candidate {
	return Candidate{Interval: NewInterval(start, minutes)}
}

func TestCheckEmptySnapshotNeverConflicts(t *testing.T) {
	for _, buffer := range []int{0, 45, 180} {
		result := Check(candidate(at(9, 0), 60), nil, buffer)
		assert.False(t, result.HasConflict, "buffer=%d", buffer)
		assert.Equal(t, ConflictNone, result.Type)
		assert.Empty(t, result.BookingID)
	}
}

func TestCheckDirectOverlap(t *testing.T) {
	existing := []ExistingBooking{booking("b1", at(14, 0), 120)}

	result := Check(candidate(at(15, 0), 30), existing, 30)
	require.True(t, result.HasConflict)
	assert.Equal(t, ConflictOverlap, result.Type)
	assert.Equal(t, "b1", result.BookingID)
	assert.NotEmpty(t, result.Message)
}

func TestCheckBufferAfterExistingBooking(t *testing.T) {
	// Booking 10:00-12:00, buffer 45. A candidate at 12:00 sits in the
	// turnover window; at 12:45 the gap equals the buffer and is allowed.
	existing := []ExistingBooking{booking("b1", at(10, 0), 120)}

	result := Check(candidate(at(12, 0), 60), existing, 45)
	require.True(t, result.HasConflict)
	assert.Equal(t, ConflictBufferAfter, result.Type)
	assert.Equal(t, "b1", result.BookingID)

	result = Check(candidate(at(12, 45), 60), existing, 45)
	assert.False(t, result.HasConflict)
	assert.Equal(t, ConflictNone, result.Type)
}

func TestCheckBufferBeforeExistingBooking(t *testing.T) {
	existing := []ExistingBooking{booking("b1", at(13, 0), 120)}

	// Ends 12:45, inside the 30-minute window before 13:00.
	result := Check(candidate(at(11, 45), 60), existing, 30)
	require.True(t, result.HasConflict)
	assert.Equal(t, ConflictBufferBefore, result.Type)

	// Ends 12:30, gap exactly equals the buffer.
	result = Check(candidate(at(11, 30), 60), existing, 30)
	assert.False(t, result.HasConflict)
}

func TestCheckAdjacentBookingsWithoutBuffer(t *testing.T) {
	// A ends exactly when the candidate starts: no conflict at buffer 0.
	existing := []ExistingBooking{booking("a", at(9, 0), 120)}

	result := Check(candidate(at(11, 0), 60), existing, 0)
	assert.False(t, result.HasConflict)

	// Any positive buffer turns the zero gap into a turnover violation.
	result = Check(candidate(at(11, 0), 60), existing, 15)
	require.True(t, result.HasConflict)
	assert.Equal(t, ConflictBufferAfter, result.Type)
}

func TestCheckBoundaryIsExclusive(t *testing.T) {
	// Booking ends 11:00, buffer 30: a candidate at 11:30 is clean, one
	// minute earlier is not.
	existing := []ExistingBooking{booking("b1", at(9, 0), 120)}

	assert.False(t, Check(candidate(at(11, 30), 45), existing, 30).HasConflict)

	result := Check(candidate(at(11, 29), 45), existing, 30)
	require.True(t, result.HasConflict)
	assert.Equal(t, ConflictBufferAfter, result.Type)
}

func TestCheckZeroBufferNeverClassifiesBufferZones(t *testing.T) {
	existing := []ExistingBooking{booking("b1", at(10, 0), 120)}

	for minute := 0; minute < 14*60; minute += 15 {
		result := Check(candidate(at(0, 0).Add(time.Duration(minute)*time.Minute), 60), existing, 0)
		if result.HasConflict {
			assert.Equal(t, ConflictOverlap, result.Type, "minute=%d", minute)
		}
	}
}

func TestCheckExcludesOwnBookingOnUpdate(t *testing.T) {
	existing := []ExistingBooking{booking("self", at(10, 0), 120)}

	cand := Candidate{Interval: NewInterval(at(10, 0), 120), ExcludeID: "self"}
	assert.False(t, Check(cand, existing, 45).HasConflict)

	// Without the exclusion the same slot is a direct overlap.
	cand.ExcludeID = ""
	result := Check(cand, existing, 45)
	require.True(t, result.HasConflict)
	assert.Equal(t, ConflictOverlap, result.Type)
}

func TestCheckReportsFirstConflictInInputOrder(t *testing.T) {
	first := booking("first", at(10, 0), 60)
	second := booking("second", at(10, 30), 60)
	cand := candidate(at(10, 15), 60)

	result := Check(cand, []ExistingBooking{first, second}, 0)
	require.True(t, result.HasConflict)
	assert.Equal(t, "first", result.BookingID)

	result = Check(cand, []ExistingBooking{second, first}, 0)
	require.True(t, result.HasConflict)
	assert.Equal(t, "second", result.BookingID)
}

func TestCheckInputOrderDoesNotAffectOutcome(t *testing.T) {
	a := booking("a", at(9, 0), 60)
	b := booking("b", at(12, 0), 60)
	c := booking("c", at(15, 0), 60)
	cand := candidate(at(10, 30), 60)

	forward := Check(cand, []ExistingBooking{a, b, c}, 30)
	reversed := Check(cand, []ExistingBooking{c, b, a}, 30)
	assert.Equal(t, forward.HasConflict, reversed.HasConflict)
	assert.Equal(t, forward.Type, reversed.Type)
}

func TestCheckBufferEffectIsMonotonic(t *testing.T) {
	// Growing the buffer can only turn clean slots into conflicts.
	existing := []ExistingBooking{booking("b1", at(10, 0), 120)}
	cand := candidate(at(13, 0), 60)

	conflicted := false
	for buffer := 0; buffer <= 180; buffer += 15 {
		result := Check(cand, existing, buffer)
		if conflicted {
			assert.True(t, result.HasConflict, "buffer=%d regressed to no conflict", buffer)
		}
		if result.HasConflict {
			conflicted = true
		}
	}
	assert.True(t, conflicted, "expected candidate to conflict at large buffers")
}

func TestCheckDoesNotMutateSnapshot(t *testing.T) {
	existing := []ExistingBooking{
		booking("a", at(9, 0), 60),
		booking("b", at(12, 0), 60),
	}
	snapshot := make([]ExistingBooking, len(existing))
	copy(snapshot, existing)

	Check(candidate(at(10, 0), 60), existing, 45)
	assert.Equal(t, snapshot, existing)
}

func TestCheckPanicsOnNonPositiveDuration(t *testing.T) {
	assert.Panics(t, func() {
		Check(candidate(at(10, 0), 0), nil, 0)
	})
	assert.Panics(t, func() {
		Check(candidate(at(10, 0), -30), nil, 0)
	})
}
