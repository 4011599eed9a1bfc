package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/venuedesk/venuedesk-api/internal/dto"
	"github.com/venuedesk/venuedesk-api/internal/models"
	"github.com/venuedesk/venuedesk-api/internal/scheduling"
	appErrors "github.com/venuedesk/venuedesk-api/pkg/errors"
)

type bookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
	ListActiveByDate(ctx context.Context, dayStart, dayEnd time.Time) ([]models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) error
	Update(ctx context.Context, booking *models.Booking) error
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
	Delete(ctx context.Context, id string) error
}

type bookingCustomerReader interface {
	FindByID(ctx context.Context, id string) (*models.Customer, error)
}

type bookingSettings interface {
	GetBookingBufferMinutes(ctx context.Context) (int, error)
	GetDefaultBookingDurationMinutes(ctx context.Context) (int, error)
}

type bookingAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Terminal statuses accept no further transitions; an approval can still be
// completed or cancelled.
var allowedStatusTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusPending:  {models.BookingStatusApproved, models.BookingStatusRejected, models.BookingStatusCancelled},
	models.BookingStatusApproved: {models.BookingStatusCompleted, models.BookingStatusCancelled},
}

// BookingServiceConfig tunes runtime behaviour.
type BookingServiceConfig struct {
	SuggestionCount int
}

// BookingService orchestrates the booking workflow: CRUD, the availability
// check, and lifecycle transitions. Slot validation is advisory; the check
// and the insert are not serialized against concurrent writers.
type BookingService struct {
	repo            bookingRepository
	customers       bookingCustomerReader
	settings        bookingSettings
	audit           bookingAuditLogger
	validator       *validator.Validate
	logger          *zap.Logger
	suggestionCount int
}

// NewBookingService constructs a BookingService.
func NewBookingService(repo bookingRepository, customers bookingCustomerReader, settings bookingSettings, audit bookingAuditLogger, validate *validator.Validate, logger *zap.Logger, cfg BookingServiceConfig) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	count := cfg.SuggestionCount
	if count <= 0 {
		count = 3
	}
	return &BookingService{
		repo:            repo,
		customers:       customers,
		settings:        settings,
		audit:           audit,
		validator:       validate,
		logger:          logger,
		suggestionCount: count,
	}
}

// Get returns a booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// List returns bookings matching the filter with pagination metadata.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return bookings, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Create validates the slot against the same-day occupancy and persists a
// new booking. On a collision it returns *models.BookingConflictError with
// alternative start times.
func (s *BookingService) Create(ctx context.Context, req dto.CreateBookingRequest, actor *models.JWTClaims) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	customer, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}
	if !customer.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "customer is inactive")
	}

	duration, err := s.effectiveDuration(ctx, req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlotFree(ctx, req.StartAt, duration, ""); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		CustomerID:      req.CustomerID,
		Title:           req.Title,
		Type:            req.Type,
		Status:          models.BookingStatusPending,
		StartAt:         req.StartAt,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		Price:           req.Price,
		CreatedBy:       actor.UserID,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.emitAudit(ctx, actor, models.AuditActionBookingCreate, booking.ID, nil, booking)
	return booking, nil
}

// Update re-validates the slot (excluding the booking itself) and persists
// the changes.
func (s *BookingService) Update(ctx context.Context, id string, req dto.UpdateBookingRequest, actor *models.JWTClaims) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusCancelled || booking.Status == models.BookingStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot modify a cancelled or rejected booking")
	}

	duration, err := s.effectiveDuration(ctx, req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlotFree(ctx, req.StartAt, duration, booking.ID); err != nil {
		return nil, err
	}

	previous := *booking
	booking.Title = req.Title
	booking.Type = req.Type
	booking.StartAt = req.StartAt
	booking.DurationMinutes = req.DurationMinutes
	booking.Notes = req.Notes
	booking.Price = req.Price

	if err := s.repo.Update(ctx, booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
	}

	s.emitAudit(ctx, actor, models.AuditActionBookingUpdate, booking.ID, &previous, booking)
	return booking, nil
}

// UpdateStatus transitions a booking through its lifecycle.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, actor *models.JWTClaims) (*models.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(booking.Status, status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot transition booking from %s to %s", booking.Status, status))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking status")
	}

	previous := *booking
	booking.Status = status
	s.emitAudit(ctx, actor, models.AuditActionBookingStatus, booking.ID, &previous, booking)
	return booking, nil
}

// Delete removes a booking.
func (s *BookingService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete booking")
	}
	s.emitAudit(ctx, actor, models.AuditActionBookingDelete, id, booking, nil)
	return nil
}

// CheckAvailability runs the conflict check without persisting anything.
func (s *BookingService) CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		def, err := s.settings.GetDefaultBookingDurationMinutes(ctx)
		if err != nil {
			return nil, err
		}
		duration = def
	}

	conflict, suggestions, err := s.checkSlot(ctx, req.StartAt, duration, req.ExcludeID)
	if err != nil {
		return nil, err
	}
	if conflict == nil {
		return &dto.AvailabilityResponse{Available: true}, nil
	}
	return &dto.AvailabilityResponse{
		Available:   false,
		Conflict:    conflict,
		Suggestions: suggestions,
	}, nil
}

func (s *BookingService) effectiveDuration(ctx context.Context, requested *int) (int, error) {
	if requested != nil && *requested > 0 {
		return *requested, nil
	}
	return s.settings.GetDefaultBookingDurationMinutes(ctx)
}

func (s *BookingService) ensureSlotFree(ctx context.Context, start time.Time, durationMinutes int, excludeID string) error {
	conflict, suggestions, err := s.checkSlot(ctx, start, durationMinutes, excludeID)
	if err != nil {
		return err
	}
	if conflict == nil {
		return nil
	}
	return &models.BookingConflictError{Conflict: *conflict, Suggestions: suggestions}
}

// checkSlot builds the same-day occupancy snapshot and runs the scheduling
// engine. Returns a nil conflict when the slot is free.
func (s *BookingService) checkSlot(ctx context.Context, start time.Time, durationMinutes int, excludeID string) (*scheduling.ConflictResult, []time.Time, error) {
	buffer, err := s.settings.GetBookingBufferMinutes(ctx)
	if err != nil {
		return nil, nil, err
	}
	defaultDuration, err := s.settings.GetDefaultBookingDurationMinutes(ctx)
	if err != nil {
		return nil, nil, err
	}

	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	rows, err := s.repo.ListActiveByDate(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupancy snapshot")
	}

	snapshot := make([]scheduling.ExistingBooking, 0, len(rows))
	for _, row := range rows {
		duration := defaultDuration
		if row.DurationMinutes != nil && *row.DurationMinutes > 0 {
			duration = *row.DurationMinutes
		}
		snapshot = append(snapshot, scheduling.ExistingBooking{
			ID:       row.ID,
			Interval: scheduling.NewInterval(row.StartAt, duration),
		})
	}

	candidate := scheduling.Candidate{
		Interval:  scheduling.NewInterval(start, durationMinutes),
		ExcludeID: excludeID,
	}
	result := scheduling.Check(candidate, snapshot, buffer)
	if !result.HasConflict {
		return nil, nil, nil
	}
	suggestions := scheduling.Suggest(candidate, snapshot, buffer, s.suggestionCount)
	return &result, suggestions, nil
}

func (s *BookingService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, bookingID string, oldBooking, newBooking *models.Booking) {
	if s.audit == nil {
		return
	}
	var oldBytes, newBytes []byte
	if oldBooking != nil {
		oldBytes, _ = json.Marshal(oldBooking)
	}
	if newBooking != nil {
		newBytes, _ = json.Marshal(newBooking)
	}
	log := &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     action,
		Resource:   "booking",
		ResourceID: &bookingID,
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  "system",
		UserAgent:  "booking-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record booking audit", zap.Error(err))
	}
}

func transitionAllowed(from, to models.BookingStatus) bool {
	for _, allowed := range allowedStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
