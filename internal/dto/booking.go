package dto

import (
	"time"

	"github.com/venuedesk/venuedesk-api/internal/models"
	"github.com/venuedesk/venuedesk-api/internal/scheduling"
)

// CreateBookingRequest captures POST /bookings payload.
type CreateBookingRequest struct {
	CustomerID      string             `json:"customerId" validate:"required,uuid"`
	Title           string             `json:"title" validate:"required,min=2,max=200"`
	Type            models.BookingType `json:"type" validate:"required,oneof=VENUE_HIRE PARTY CONFERENCE PERFORMANCE OTHER"`
	StartAt         time.Time          `json:"startAt" validate:"required"`
	DurationMinutes *int               `json:"durationMinutes,omitempty" validate:"omitempty,min=15,max=600"`
	Notes           *string            `json:"notes,omitempty"`
	Price           float64            `json:"price" validate:"gte=0"`
}

// UpdateBookingRequest captures PUT /bookings/:id payload.
type UpdateBookingRequest struct {
	Title           string             `json:"title" validate:"required,min=2,max=200"`
	Type            models.BookingType `json:"type" validate:"required,oneof=VENUE_HIRE PARTY CONFERENCE PERFORMANCE OTHER"`
	StartAt         time.Time          `json:"startAt" validate:"required"`
	DurationMinutes *int               `json:"durationMinutes,omitempty" validate:"omitempty,min=15,max=600"`
	Notes           *string            `json:"notes,omitempty"`
	Price           float64            `json:"price" validate:"gte=0"`
}

// UpdateBookingStatusRequest transitions a booking's lifecycle status.
type UpdateBookingStatusRequest struct {
	Status models.BookingStatus `json:"status" validate:"required,oneof=PENDING APPROVED COMPLETED CANCELLED REJECTED"`
}

// AvailabilityRequest captures GET /bookings/availability query params.
type AvailabilityRequest struct {
	StartAt         time.Time `form:"startAt" validate:"required"`
	DurationMinutes int       `form:"durationMinutes" validate:"omitempty,min=15,max=600"`
	ExcludeID       string    `form:"excludeId" validate:"omitempty,uuid"`
}

// AvailabilityResponse is the result of a non-persisting conflict check.
type AvailabilityResponse struct {
	Available   bool                       `json:"available"`
	Conflict    *scheduling.ConflictResult `json:"conflict,omitempty"`
	Suggestions []time.Time                `json:"suggestions,omitempty"`
}

// BookingConflictResponse is the 409 payload when a slot is taken.
type BookingConflictResponse struct {
	Conflict    scheduling.ConflictResult `json:"conflict"`
	Suggestions []time.Time               `json:"suggestions"`
}
