package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk-api/internal/dto"
	"github.com/venuedesk/venuedesk-api/internal/models"
	appErrors "github.com/venuedesk/venuedesk-api/pkg/errors"
)

type eventRepoStub struct {
	events  map[string]models.Event
	window  []models.Event
	created *models.Event
	err     error
}

func (s *eventRepoStub) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	if event, ok := s.events[id]; ok {
		return &event, nil
	}
	return nil, sql.ErrNoRows
}

func (s *eventRepoStub) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	result := make([]models.Event, 0, len(s.events))
	for _, event := range s.events {
		result = append(result, event)
	}
	return result, len(result), nil
}

func (s *eventRepoStub) ListInWindow(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.window, nil
}

func (s *eventRepoStub) Create(ctx context.Context, event *models.Event) error {
	if s.err != nil {
		return s.err
	}
	event.ID = "new-event"
	s.created = event
	return nil
}

func (s *eventRepoStub) Update(ctx context.Context, event *models.Event) error {
	return s.err
}

func (s *eventRepoStub) Delete(ctx context.Context, id string) error {
	return s.err
}

func newEventServiceForTest(repo *eventRepoStub) *EventService {
	return NewEventService(repo, validator.New(), nil, EventServiceConfig{})
}

func testStrPtr(value string) *string {
	return &value
}

func TestEventServiceCreateRejectsInvertedWindow(t *testing.T) {
	service := newEventServiceForTest(&eventRepoStub{})
	start := time.Date(2026, time.April, 1, 18, 0, 0, 0, time.UTC)
	req := dto.CreateEventRequest{
		Title:      "Launch night",
		Visibility: models.EventVisibilityPublic,
		StartAt:    start,
		EndAt:      start.Add(-time.Hour),
	}
	_, err := service.Create(context.Background(), req, &models.JWTClaims{UserID: "admin"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventServiceCreateRejectsInvalidRecurrence(t *testing.T) {
	service := newEventServiceForTest(&eventRepoStub{})
	start := time.Date(2026, time.April, 1, 18, 0, 0, 0, time.UTC)
	req := dto.CreateEventRequest{
		Title:      "Weekly quiz",
		Visibility: models.EventVisibilityPublic,
		StartAt:    start,
		EndAt:      start.Add(2 * time.Hour),
		Recurrence: testStrPtr("FREQ=SOMETIMES"),
	}
	_, err := service.Create(context.Background(), req, &models.JWTClaims{UserID: "admin"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventServiceCalendarExpandsRecurrence(t *testing.T) {
	start := time.Date(2026, time.April, 6, 19, 0, 0, 0, time.UTC) // a Monday
	weekly := models.Event{
		ID:         "event-weekly",
		Title:      "Open mic",
		Visibility: models.EventVisibilityPublic,
		StartAt:    start,
		EndAt:      start.Add(3 * time.Hour),
		Recurrence: testStrPtr("FREQ=WEEKLY;COUNT=10"),
	}
	oneOff := models.Event{
		ID:         "event-oneoff",
		Title:      "Wine tasting",
		Visibility: models.EventVisibilityPrivate,
		StartAt:    time.Date(2026, time.April, 10, 17, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, time.April, 10, 20, 0, 0, 0, time.UTC),
	}
	repo := &eventRepoStub{window: []models.Event{weekly, oneOff}}
	service := newEventServiceForTest(repo)

	resp, err := service.Calendar(context.Background(), dto.CalendarRequest{
		From: time.Date(2026, time.April, 6, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.April, 27, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Three Mondays fall inside [Apr 6, Apr 27) plus the one-off.
	require.Len(t, resp.Occurrences, 4)
	assert.Equal(t, "event-weekly", resp.Occurrences[0].EventID)
	assert.Equal(t, start, resp.Occurrences[0].StartAt)
	assert.Equal(t, "event-oneoff", resp.Occurrences[1].EventID)
	assert.Equal(t, start.AddDate(0, 0, 7), resp.Occurrences[2].StartAt)
	assert.Equal(t, start.AddDate(0, 0, 14), resp.Occurrences[3].StartAt)

	for i := 1; i < len(resp.Occurrences); i++ {
		assert.False(t, resp.Occurrences[i].StartAt.Before(resp.Occurrences[i-1].StartAt))
	}
}

func TestEventServiceCalendarSkipsInvalidRecurrence(t *testing.T) {
	start := time.Date(2026, time.April, 6, 19, 0, 0, 0, time.UTC)
	broken := models.Event{
		ID:         "event-broken",
		Title:      "Corrupt rule",
		StartAt:    start,
		EndAt:      start.Add(time.Hour),
		Recurrence: testStrPtr("FREQ=NOPE"),
	}
	valid := models.Event{
		ID:      "event-valid",
		Title:   "Gallery opening",
		StartAt: start.AddDate(0, 0, 1),
		EndAt:   start.AddDate(0, 0, 1).Add(2 * time.Hour),
	}
	repo := &eventRepoStub{window: []models.Event{broken, valid}}
	service := newEventServiceForTest(repo)

	resp, err := service.Calendar(context.Background(), dto.CalendarRequest{
		From: time.Date(2026, time.April, 6, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, time.April, 13, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, resp.Occurrences, 1)
	assert.Equal(t, "event-valid", resp.Occurrences[0].EventID)
}

func TestEventServiceCalendarRejectsInvertedWindow(t *testing.T) {
	service := newEventServiceForTest(&eventRepoStub{})
	from := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)
	_, err := service.Calendar(context.Background(), dto.CalendarRequest{From: from, To: from.AddDate(0, 0, -1)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
