package models

import (
	"time"

	"github.com/venuedesk/venuedesk-api/internal/scheduling"
)

// BookingStatus tracks a booking through its lifecycle.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusApproved  BookingStatus = "APPROVED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusRejected  BookingStatus = "REJECTED"
)

// ActiveBookingStatuses are the statuses that occupy the venue calendar.
// Cancelled and rejected bookings do not block other bookings.
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusApproved,
	BookingStatusCompleted,
}

// BookingType categorizes the kind of engagement booked at the venue.
type BookingType string

const (
	BookingTypeVenueHire   BookingType = "VENUE_HIRE"
	BookingTypeParty       BookingType = "PARTY"
	BookingTypeConference  BookingType = "CONFERENCE"
	BookingTypePerformance BookingType = "PERFORMANCE"
	BookingTypeOther       BookingType = "OTHER"
)

// Booking represents a persisted booking row.
// DurationMinutes is nullable; callers fall back to the configured default
// when computing occupancy.
type Booking struct {
	ID              string        `db:"id" json:"id"`
	CustomerID      string        `db:"customer_id" json:"customer_id"`
	Title           string        `db:"title" json:"title"`
	Type            BookingType   `db:"type" json:"type"`
	Status          BookingStatus `db:"status" json:"status"`
	StartAt         time.Time     `db:"start_at" json:"start_at"`
	DurationMinutes *int          `db:"duration_minutes" json:"duration_minutes,omitempty"`
	Notes           *string       `db:"notes" json:"notes,omitempty"`
	Price           float64       `db:"price" json:"price"`
	CreatedBy       string        `db:"created_by" json:"created_by"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// BookingFilter describes query params for listing bookings.
type BookingFilter struct {
	CustomerID string
	Status     *BookingStatus
	Type       *BookingType
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// BookingConflictError is returned when a requested slot collides with an
// existing booking. It carries the structured conflict plus alternatives so
// handlers can render a 409 payload.
type BookingConflictError struct {
	Conflict    scheduling.ConflictResult `json:"conflict"`
	Suggestions []time.Time               `json:"suggestions"`
}

// Error implements the error interface for conflict errors.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Conflict.Message
}
