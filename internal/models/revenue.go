package models

import "time"

// RevenueByType aggregates revenue for a single booking type.
type RevenueByType struct {
	Type         BookingType `db:"type" json:"type"`
	BookingCount int         `db:"booking_count" json:"booking_count"`
	Revenue      float64     `db:"revenue" json:"revenue"`
}

// RevenueDaily aggregates revenue for a single calendar day.
type RevenueDaily struct {
	Date         time.Time `db:"date" json:"date"`
	BookingCount int       `db:"booking_count" json:"booking_count"`
	Revenue      float64   `db:"revenue" json:"revenue"`
}

// RevenueSummary is the dashboard aggregate over a date range.
type RevenueSummary struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	TotalRevenue float64         `json:"total_revenue"`
	BookingCount int             `json:"booking_count"`
	AverageValue float64         `json:"average_value"`
	ByType       []RevenueByType `json:"by_type"`
}

// RevenueFilter bounds revenue queries to a date range.
type RevenueFilter struct {
	From time.Time
	To   time.Time
}
