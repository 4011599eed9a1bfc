package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk-api/internal/models"
)

func bookingRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "customer_id", "title", "type", "status", "start_at", "duration_minutes", "notes", "price", "created_by", "created_at", "updated_at"}).
		AddRow("b1", "c1", "Spring Gala", string(models.BookingTypeParty), string(models.BookingStatusApproved), now, 120, nil, 1500.0, "u1", now, now)
}

func TestBookingFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, customer_id, title, type, status, start_at, duration_minutes, notes, price, created_by, created_at, updated_at FROM bookings WHERE id = $1 LIMIT 1")).
		WithArgs("b1").
		WillReturnRows(bookingRows(now))

	booking, err := repo.FindByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "Spring Gala", booking.Title)
	require.NotNil(t, booking.DurationMinutes)
	assert.Equal(t, 120, *booking.DurationMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingListWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	now := time.Now()
	status := models.BookingStatusApproved
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, customer_id, title, type, status, start_at, duration_minutes, notes, price, created_by, created_at, updated_at FROM bookings WHERE 1=1 AND status = $1 ORDER BY start_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(string(status)).
		WillReturnRows(bookingRows(now))

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE 1=1 AND status = $1")).
		WithArgs(string(status)).
		WillReturnRows(countRows)

	bookings, total, err := repo.List(context.Background(), models.BookingFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingListActiveByDate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	dayStart := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, customer_id, title, type, status, start_at, duration_minutes, notes, price, created_by, created_at, updated_at FROM bookings WHERE status = ANY($1) AND start_at >= $2 AND start_at < $3 ORDER BY start_at ASC, created_at ASC")).
		WithArgs("{PENDING,APPROVED,COMPLETED}", dayStart, dayEnd).
		WillReturnRows(bookingRows(dayStart.Add(10 * time.Hour)))

	bookings, err := repo.ListActiveByDate(context.Background(), dayStart, dayEnd)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(1, 1))

	booking := &models.Booking{
		CustomerID: "c1",
		Title:      "Board offsite",
		Type:       models.BookingTypeConference,
		Status:     models.BookingStatusPending,
		StartAt:    time.Now(),
		Price:      900,
		CreatedBy:  "u1",
	}
	err := repo.Create(context.Background(), booking)
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("b1", string(models.BookingStatusApproved), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpdateStatus(context.Background(), "b1", models.BookingStatusApproved)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
