package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestSkipsBlockedWindowAndProposesNextSlots(t *testing.T) {
	// Bookings 09:00-11:00 and 13:00-15:00 with a 30-minute buffer block
	// everything from 11:45 until 15:30 for a one-hour request.
	existing := []ExistingBooking{
		booking("morning", at(9, 0), 120),
		booking("afternoon", at(13, 0), 120),
	}
	cand := candidate(at(11, 45), 60)
	require.True(t, Check(cand, existing, 30).HasConflict)

	got := Suggest(cand, existing, 30, 3)
	require.Len(t, got, 3)
	assert.Equal(t, at(15, 30), got[0])
	assert.Equal(t, at(15, 45), got[1])
	assert.Equal(t, at(16, 0), got[2])
}

func TestSuggestKeepsCandidateStartWhenAlreadyFree(t *testing.T) {
	// 11:30 leaves exactly the 30-minute turnover gap before the 13:00
	// booking, so the original start is itself the first proposal.
	existing := []ExistingBooking{
		booking("morning", at(9, 0), 120),
		booking("afternoon", at(13, 0), 120),
	}

	got := Suggest(candidate(at(11, 30), 60), existing, 30, 1)
	require.Len(t, got, 1)
	assert.Equal(t, at(11, 30), got[0])
}

func TestSuggestEveryProposalPassesCheck(t *testing.T) {
	existing := []ExistingBooking{
		booking("a", at(10, 0), 120),
		booking("b", at(14, 0), 90),
		booking("c", at(17, 0), 60),
	}
	cand := candidate(at(10, 30), 45)

	got := Suggest(cand, existing, 45, 5)
	require.NotEmpty(t, got)
	for _, start := range got {
		trial := Candidate{Interval: NewInterval(start, 45)}
		assert.False(t, Check(trial, existing, 45).HasConflict, "slot %s", start)
	}
}

func TestSuggestOrderingUniquenessAndLowerBound(t *testing.T) {
	existing := []ExistingBooking{booking("a", at(12, 0), 120)}
	cand := candidate(at(11, 0), 120)

	got := Suggest(cand, existing, 60, 8)
	for i, start := range got {
		assert.False(t, start.Before(cand.Interval.Start), "slot %d before candidate start", i)
		if i > 0 {
			assert.True(t, got[i-1].Before(start), "slots not strictly increasing at %d", i)
		}
	}
}

func TestSuggestRespectsCount(t *testing.T) {
	cand := candidate(at(8, 0), 30)

	got := Suggest(cand, nil, 0, 3)
	assert.Len(t, got, 3)

	assert.Nil(t, Suggest(cand, nil, 0, 0))
	assert.Nil(t, Suggest(cand, nil, 0, -1))
}

func TestSuggestStopsAtEndOfDay(t *testing.T) {
	// A booking covering the rest of the day leaves nothing to propose;
	// the empty result is data, not an error.
	existing := []ExistingBooking{booking("all-day", at(0, 0), 24*60 + 180)}

	got := Suggest(candidate(at(18, 0), 60), existing, 45, 3)
	assert.Empty(t, got)
}

func TestSuggestNeverCrossesMidnight(t *testing.T) {
	got := Suggest(candidate(at(23, 0), 30), nil, 0, 10)
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, 14, last.Day(), "proposal crossed into the next day")
	assert.Equal(t, at(23, 45), last)
}

func TestSuggestUsesFifteenMinuteGrid(t *testing.T) {
	got := Suggest(candidate(at(9, 5), 30), nil, 0, 4)
	require.Len(t, got, 4)
	for i, start := range got {
		expected := at(9, 5).Add(time.Duration(i*15) * time.Minute)
		assert.Equal(t, expected, start)
	}
}

func TestSuggestHonoursExcludeID(t *testing.T) {
	existing := []ExistingBooking{booking("self", at(10, 0), 120)}
	cand := Candidate{Interval: NewInterval(at(10, 0), 120), ExcludeID: "self"}

	got := Suggest(cand, existing, 45, 1)
	require.Len(t, got, 1)
	assert.Equal(t, at(10, 0), got[0])
}
