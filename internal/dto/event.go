package dto

import (
	"time"

	"github.com/venuedesk/venuedesk-api/internal/models"
)

// CreateEventRequest captures POST /events payload.
type CreateEventRequest struct {
	Title       string                 `json:"title" validate:"required,min=2,max=200"`
	Description *string                `json:"description,omitempty"`
	Visibility  models.EventVisibility `json:"visibility" validate:"required,oneof=PUBLIC PRIVATE"`
	StartAt     time.Time              `json:"startAt" validate:"required"`
	EndAt       time.Time              `json:"endAt" validate:"required"`
	Recurrence  *string                `json:"recurrence,omitempty"`
}

// UpdateEventRequest captures PUT /events/:id payload.
type UpdateEventRequest struct {
	Title       string                 `json:"title" validate:"required,min=2,max=200"`
	Description *string                `json:"description,omitempty"`
	Visibility  models.EventVisibility `json:"visibility" validate:"required,oneof=PUBLIC PRIVATE"`
	StartAt     time.Time              `json:"startAt" validate:"required"`
	EndAt       time.Time              `json:"endAt" validate:"required"`
	Recurrence  *string                `json:"recurrence,omitempty"`
}

// CalendarRequest captures GET /events/calendar query params.
type CalendarRequest struct {
	From time.Time `form:"from"`
	To   time.Time `form:"to"`
}

// CalendarResponse lists expanded occurrences within the window.
type CalendarResponse struct {
	From        time.Time                `json:"from"`
	To          time.Time                `json:"to"`
	Occurrences []models.EventOccurrence `json:"occurrences"`
}
