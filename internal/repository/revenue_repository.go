package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/venuedesk/venuedesk-api/internal/models"
)

// RevenueRepository runs aggregation queries for the revenue dashboard.
// Cancelled and rejected bookings are excluded from all aggregates.
type RevenueRepository struct {
	db *sqlx.DB
}

// NewRevenueRepository constructs the repository.
func NewRevenueRepository(db *sqlx.DB) *RevenueRepository {
	return &RevenueRepository{db: db}
}

func activeStatusList() string {
	statuses := make([]string, 0, len(models.ActiveBookingStatuses))
	for _, s := range models.ActiveBookingStatuses {
		statuses = append(statuses, "'"+string(s)+"'")
	}
	return strings.Join(statuses, ", ")
}

// Totals returns the revenue sum and booking count for a date range.
func (r *RevenueRepository) Totals(ctx context.Context, from, to time.Time) (float64, int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(SUM(price), 0) AS revenue, COUNT(*) AS booking_count
FROM bookings WHERE status IN (%s) AND start_at >= $1 AND start_at < $2`, activeStatusList())

	var row struct {
		Revenue      float64 `db:"revenue"`
		BookingCount int     `db:"booking_count"`
	}
	if err := r.db.GetContext(ctx, &row, query, from, to); err != nil {
		return 0, 0, fmt.Errorf("revenue totals: %w", err)
	}
	return row.Revenue, row.BookingCount, nil
}

// ByType aggregates revenue per booking type for a date range.
func (r *RevenueRepository) ByType(ctx context.Context, from, to time.Time) ([]models.RevenueByType, error) {
	query := fmt.Sprintf(`SELECT type, COUNT(*) AS booking_count, COALESCE(SUM(price), 0) AS revenue
FROM bookings WHERE status IN (%s) AND start_at >= $1 AND start_at < $2
GROUP BY type ORDER BY revenue DESC`, activeStatusList())

	var rows []models.RevenueByType
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("revenue by type: %w", err)
	}
	return rows, nil
}

// Daily aggregates revenue per calendar day for a date range.
func (r *RevenueRepository) Daily(ctx context.Context, from, to time.Time) ([]models.RevenueDaily, error) {
	query := fmt.Sprintf(`SELECT DATE_TRUNC('day', start_at) AS date, COUNT(*) AS booking_count, COALESCE(SUM(price), 0) AS revenue
FROM bookings WHERE status IN (%s) AND start_at >= $1 AND start_at < $2
GROUP BY DATE_TRUNC('day', start_at) ORDER BY date ASC`, activeStatusList())

	var rows []models.RevenueDaily
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("revenue daily: %w", err)
	}
	return rows, nil
}
