package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/venuedesk/venuedesk-api/internal/dto"
	"github.com/venuedesk/venuedesk-api/internal/models"
	appErrors "github.com/venuedesk/venuedesk-api/pkg/errors"
)

type eventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	ListInWindow(ctx context.Context, from, to time.Time) ([]models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

// EventServiceConfig tunes runtime behaviour.
type EventServiceConfig struct {
	CalendarWindowDays int
}

// EventService orchestrates venue events and calendar expansion. Recurrence
// is stored as an RFC 5545 RRULE string and expanded at read time.
type EventService struct {
	repo       eventRepository
	validator  *validator.Validate
	logger     *zap.Logger
	windowDays int
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, validate *validator.Validate, logger *zap.Logger, cfg EventServiceConfig) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	windowDays := cfg.CalendarWindowDays
	if windowDays <= 0 {
		windowDays = 90
	}
	return &EventService{repo: repo, validator: validate, logger: logger, windowDays: windowDays}
}

// Get returns an event by id.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// List returns events matching the filter with pagination metadata.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return events, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Create registers a new event.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest, actor *models.JWTClaims) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := validateEventWindow(req.StartAt, req.EndAt); err != nil {
		return nil, err
	}
	if err := validateRecurrence(req.Recurrence); err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Recurrence:  normalizeRecurrence(req.Recurrence),
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// Update modifies an existing event.
func (s *EventService) Update(ctx context.Context, id string, req dto.UpdateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if err := validateEventWindow(req.StartAt, req.EndAt); err != nil {
		return nil, err
	}
	if err := validateRecurrence(req.Recurrence); err != nil {
		return nil, err
	}

	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Visibility = req.Visibility
	event.StartAt = req.StartAt
	event.EndAt = req.EndAt
	event.Recurrence = normalizeRecurrence(req.Recurrence)

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return event, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	return nil
}

// Calendar expands events into occurrences within the requested window,
// sorted by start. A zero To defaults to the configured window length.
func (s *EventService) Calendar(ctx context.Context, req dto.CalendarRequest) (*dto.CalendarResponse, error) {
	from := req.From
	if from.IsZero() {
		now := time.Now().UTC()
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	to := req.To
	if to.IsZero() {
		to = from.AddDate(0, 0, s.windowDays)
	}
	if !to.After(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "calendar window end must be after start")
	}

	events, err := s.repo.ListInWindow(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar events")
	}

	occurrences := make([]models.EventOccurrence, 0, len(events))
	for i := range events {
		expanded, err := s.expand(&events[i], from, to)
		if err != nil {
			s.logger.Warn("skipping event with invalid recurrence",
				zap.String("event_id", events[i].ID), zap.Error(err))
			continue
		}
		occurrences = append(occurrences, expanded...)
	}
	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].StartAt.Before(occurrences[j].StartAt)
	})

	return &dto.CalendarResponse{From: from, To: to, Occurrences: occurrences}, nil
}

func (s *EventService) expand(event *models.Event, from, to time.Time) ([]models.EventOccurrence, error) {
	duration := event.EndAt.Sub(event.StartAt)

	if event.Recurrence == nil || strings.TrimSpace(*event.Recurrence) == "" {
		if event.EndAt.After(from) && event.StartAt.Before(to) {
			return []models.EventOccurrence{{
				EventID: event.ID,
				Title:   event.Title,
				StartAt: event.StartAt,
				EndAt:   event.EndAt,
			}}, nil
		}
		return nil, nil
	}

	opt, err := rrule.StrToROption(*event.Recurrence)
	if err != nil {
		return nil, err
	}
	opt.Dtstart = event.StartAt
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}

	var result []models.EventOccurrence
	for _, start := range rule.Between(from.Add(-duration), to, true) {
		end := start.Add(duration)
		if !end.After(from) || !start.Before(to) {
			continue
		}
		result = append(result, models.EventOccurrence{
			EventID: event.ID,
			Title:   event.Title,
			StartAt: start,
			EndAt:   end,
		})
	}
	return result, nil
}

func validateEventWindow(start, end time.Time) error {
	if !end.After(start) {
		return appErrors.Clone(appErrors.ErrValidation, "event end must be after start")
	}
	return nil
}

func validateRecurrence(recurrence *string) error {
	if recurrence == nil || strings.TrimSpace(*recurrence) == "" {
		return nil
	}
	if _, err := rrule.StrToROption(strings.TrimSpace(*recurrence)); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid recurrence rule")
	}
	return nil
}

func normalizeRecurrence(recurrence *string) *string {
	if recurrence == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*recurrence)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
