package models

import "time"

// EventVisibility defines who the event is open to.
type EventVisibility string

const (
	EventVisibilityPublic  EventVisibility = "PUBLIC"
	EventVisibilityPrivate EventVisibility = "PRIVATE"
)

// Event represents a venue event row. Recurrence holds an optional RRULE
// string (RFC 5545) expanded by the calendar listing.
type Event struct {
	ID          string          `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Description *string         `db:"description" json:"description,omitempty"`
	Visibility  EventVisibility `db:"visibility" json:"visibility"`
	StartAt     time.Time       `db:"start_at" json:"start_at"`
	EndAt       time.Time       `db:"end_at" json:"end_at"`
	Recurrence  *string         `db:"recurrence" json:"recurrence,omitempty"`
	CreatedBy   string          `db:"created_by" json:"created_by"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// EventFilter narrows down event listings.
type EventFilter struct {
	Visibility *EventVisibility
	From       *time.Time
	To         *time.Time
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// EventOccurrence is a single expanded occurrence of an event on the calendar.
type EventOccurrence struct {
	EventID string    `json:"event_id"`
	Title   string    `json:"title"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}
