package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk-api/internal/dto"
	"github.com/venuedesk/venuedesk-api/internal/models"
	"github.com/venuedesk/venuedesk-api/internal/scheduling"
	appErrors "github.com/venuedesk/venuedesk-api/pkg/errors"
)

type bookingRepoStub struct {
	bookings map[string]models.Booking
	active   []models.Booking
	created  *models.Booking
	updated  *models.Booking
	status   models.BookingStatus
	err      error
}

func (s *bookingRepoStub) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	if booking, ok := s.bookings[id]; ok {
		return &booking, nil
	}
	return nil, sql.ErrNoRows
}

func (s *bookingRepoStub) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	result := make([]models.Booking, 0, len(s.bookings))
	for _, booking := range s.bookings {
		result = append(result, booking)
	}
	return result, len(result), nil
}

func (s *bookingRepoStub) ListActiveByDate(ctx context.Context, dayStart, dayEnd time.Time) ([]models.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.active, nil
}

func (s *bookingRepoStub) Create(ctx context.Context, booking *models.Booking) error {
	if s.err != nil {
		return s.err
	}
	booking.ID = "new-booking"
	s.created = booking
	return nil
}

func (s *bookingRepoStub) Update(ctx context.Context, booking *models.Booking) error {
	if s.err != nil {
		return s.err
	}
	s.updated = booking
	return nil
}

func (s *bookingRepoStub) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	if s.err != nil {
		return s.err
	}
	s.status = status
	return nil
}

func (s *bookingRepoStub) Delete(ctx context.Context, id string) error {
	return s.err
}

type customerReaderStub struct {
	customer *models.Customer
	err      error
}

func (s customerReaderStub) FindByID(ctx context.Context, id string) (*models.Customer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.customer, nil
}

type settingsStub struct {
	buffer   int
	duration int
}

func (s settingsStub) GetBookingBufferMinutes(ctx context.Context) (int, error) {
	return s.buffer, nil
}

func (s settingsStub) GetDefaultBookingDurationMinutes(ctx context.Context) (int, error) {
	return s.duration, nil
}

func intPtr(v int) *int {
	return &v
}

func newBookingService(repo *bookingRepoStub, customers customerReaderStub) *BookingService {
	return NewBookingService(repo, customers, settingsStub{buffer: 45, duration: 120}, &auditLoggerStub{}, validator.New(), nil, BookingServiceConfig{})
}

func activeCustomer() *models.Customer {
	return &models.Customer{ID: "8a4f0f5e-54a1-4a50-9b7e-17a0937e3c11", FullName: "Jane Doe", Email: "jane@example.com", Active: true}
}

func TestBookingServiceCreateFreeSlot(t *testing.T) {
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	repo := &bookingRepoStub{
		active: []models.Booking{
			{ID: "existing", StartAt: day.Add(9 * time.Hour), DurationMinutes: intPtr(60)},
		},
	}
	service := newBookingService(repo, customerReaderStub{customer: activeCustomer()})

	req := dto.CreateBookingRequest{
		CustomerID:      activeCustomer().ID,
		Title:           "Spring gala",
		Type:            models.BookingTypeParty,
		StartAt:         day.Add(14 * time.Hour),
		DurationMinutes: intPtr(90),
		Price:           450,
	}
	booking, err := service.Create(context.Background(), req, &models.JWTClaims{UserID: "admin-1"})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "new-booking", booking.ID)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Equal(t, "admin-1", booking.CreatedBy)
}

func TestBookingServiceCreateConflictReturnsSuggestions(t *testing.T) {
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	repo := &bookingRepoStub{
		active: []models.Booking{
			{ID: "existing", StartAt: day.Add(10 * time.Hour), DurationMinutes: intPtr(120)},
		},
	}
	service := newBookingService(repo, customerReaderStub{customer: activeCustomer()})

	req := dto.CreateBookingRequest{
		CustomerID:      activeCustomer().ID,
		Title:           "Board meeting",
		Type:            models.BookingTypeConference,
		StartAt:         day.Add(11 * time.Hour),
		DurationMinutes: intPtr(60),
		Price:           0,
	}
	_, err := service.Create(context.Background(), req, &models.JWTClaims{UserID: "admin-1"})
	require.Error(t, err)

	var conflictErr *models.BookingConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.True(t, conflictErr.Conflict.HasConflict)
	assert.Equal(t, scheduling.ConflictOverlap, conflictErr.Conflict.Type)
	assert.Equal(t, "existing", conflictErr.Conflict.BookingID)
	require.NotEmpty(t, conflictErr.Suggestions)
	for _, suggestion := range conflictErr.Suggestions {
		assert.Equal(t, day.Day(), suggestion.Day())
		assert.True(t, suggestion.After(day.Add(12*time.Hour)))
	}
	assert.Nil(t, repo.created)
}

func TestBookingServiceCreateInactiveCustomer(t *testing.T) {
	customer := activeCustomer()
	customer.Active = false
	service := newBookingService(&bookingRepoStub{}, customerReaderStub{customer: customer})

	req := dto.CreateBookingRequest{
		CustomerID: customer.ID,
		Title:      "Private party",
		Type:       models.BookingTypeParty,
		StartAt:    time.Date(2026, time.March, 10, 18, 0, 0, 0, time.UTC),
	}
	_, err := service.Create(context.Background(), req, &models.JWTClaims{UserID: "admin-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceUpdateExcludesOwnSlot(t *testing.T) {
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	existing := models.Booking{
		ID:              "booking-1",
		CustomerID:      activeCustomer().ID,
		Title:           "Rehearsal",
		Type:            models.BookingTypePerformance,
		Status:          models.BookingStatusApproved,
		StartAt:         day.Add(10 * time.Hour),
		DurationMinutes: intPtr(120),
	}
	repo := &bookingRepoStub{
		bookings: map[string]models.Booking{"booking-1": existing},
		active:   []models.Booking{existing},
	}
	service := newBookingService(repo, customerReaderStub{customer: activeCustomer()})

	// Shift within the booking's own occupied window; only the booking itself
	// occupies the day, so the check must pass.
	req := dto.UpdateBookingRequest{
		Title:           "Rehearsal",
		Type:            models.BookingTypePerformance,
		StartAt:         day.Add(10*time.Hour + 30*time.Minute),
		DurationMinutes: intPtr(120),
		Price:           100,
	}
	updated, err := service.Update(context.Background(), "booking-1", req, &models.JWTClaims{UserID: "admin-1"})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Equal(t, day.Add(10*time.Hour+30*time.Minute), updated.StartAt)
}

func TestBookingServiceUpdateRejectsCancelled(t *testing.T) {
	cancelled := models.Booking{ID: "booking-1", Status: models.BookingStatusCancelled, StartAt: time.Now()}
	repo := &bookingRepoStub{bookings: map[string]models.Booking{"booking-1": cancelled}}
	service := newBookingService(repo, customerReaderStub{customer: activeCustomer()})

	req := dto.UpdateBookingRequest{
		Title:   "Retry",
		Type:    models.BookingTypeOther,
		StartAt: time.Now(),
	}
	_, err := service.Update(context.Background(), "booking-1", req, &models.JWTClaims{UserID: "admin-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceStatusTransitions(t *testing.T) {
	pending := models.Booking{ID: "booking-1", Status: models.BookingStatusPending, StartAt: time.Now()}
	repo := &bookingRepoStub{bookings: map[string]models.Booking{"booking-1": pending}}
	service := newBookingService(repo, customerReaderStub{customer: activeCustomer()})

	booking, err := service.UpdateStatus(context.Background(), "booking-1", models.BookingStatusApproved, &models.JWTClaims{UserID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusApproved, booking.Status)
	assert.Equal(t, models.BookingStatusApproved, repo.status)

	_, err = service.UpdateStatus(context.Background(), "booking-1", models.BookingStatusCompleted, &models.JWTClaims{UserID: "admin-1"})
	require.Error(t, err, "stub still reports PENDING, so skipping APPROVED is rejected")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceCheckAvailability(t *testing.T) {
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	repo := &bookingRepoStub{
		active: []models.Booking{
			{ID: "existing", StartAt: day.Add(10 * time.Hour), DurationMinutes: intPtr(60)},
		},
	}
	service := newBookingService(repo, customerReaderStub{customer: activeCustomer()})

	free, err := service.CheckAvailability(context.Background(), dto.AvailabilityRequest{
		StartAt:         day.Add(15 * time.Hour),
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.True(t, free.Available)
	assert.Nil(t, free.Conflict)

	// Starting inside the 45 minute turnover window after the existing booking.
	taken, err := service.CheckAvailability(context.Background(), dto.AvailabilityRequest{
		StartAt:         day.Add(11*time.Hour + 15*time.Minute),
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.False(t, taken.Available)
	require.NotNil(t, taken.Conflict)
	assert.Equal(t, scheduling.ConflictBufferAfter, taken.Conflict.Type)
	assert.NotEmpty(t, taken.Suggestions)
	assert.Nil(t, repo.created)
}
