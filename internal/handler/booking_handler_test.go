package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk-api/internal/models"
	"github.com/venuedesk/venuedesk-api/internal/scheduling"
	appErrors "github.com/venuedesk/venuedesk-api/pkg/errors"
)

func TestBookingHandlerConflictEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBookingHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/bookings", nil)
	c.Request = req

	first := time.Date(2026, 4, 6, 12, 45, 0, 0, time.UTC)
	conflictErr := &models.BookingConflictError{
		Conflict: scheduling.ConflictResult{
			HasConflict: true,
			Type:        scheduling.ConflictOverlap,
			BookingID:   "existing",
			Message:     "requested slot overlaps booking existing",
		},
		Suggestions: []time.Time{first, first.Add(15 * time.Minute)},
	}
	handler.respondError(c, conflictErr)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var envelope struct {
		Data struct {
			Conflict    scheduling.ConflictResult `json:"conflict"`
			Suggestions []time.Time               `json:"suggestions"`
		} `json:"data"`
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Conflict.HasConflict)
	assert.Equal(t, scheduling.ConflictOverlap, envelope.Data.Conflict.Type)
	assert.Equal(t, "existing", envelope.Data.Conflict.BookingID)
	require.Len(t, envelope.Data.Suggestions, 2)
	assert.True(t, envelope.Data.Suggestions[0].Equal(first))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrBookingConflict.Code, envelope.Error.Code)
	assert.Equal(t, "requested slot overlaps booking existing", envelope.Error.Message)
}

func TestBookingHandlerNonConflictErrorsPassThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBookingHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/bookings", nil)
	c.Request = req

	handler.respondError(c, appErrors.Clone(appErrors.ErrValidation, "customer is inactive"))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
}
