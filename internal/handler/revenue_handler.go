package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/venuedesk/venuedesk-api/internal/middleware"
	"github.com/venuedesk/venuedesk-api/internal/models"
	"github.com/venuedesk/venuedesk-api/internal/service"
	appErrors "github.com/venuedesk/venuedesk-api/pkg/errors"
	"github.com/venuedesk/venuedesk-api/pkg/response"
)

// RevenueHandler exposes dashboard-ready revenue endpoints.
type RevenueHandler struct {
	revenue *service.RevenueService
}

// NewRevenueHandler constructs the revenue handler.
func NewRevenueHandler(revenue *service.RevenueService) *RevenueHandler {
	return &RevenueHandler{revenue: revenue}
}

// Summary godoc
// @Summary Revenue summary over a date range
// @Tags Revenue
// @Produce json
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /revenue/summary [get]
func (h *RevenueHandler) Summary(c *gin.Context) {
	if h.revenue == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	filter, err := parseRevenueFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.revenue.Summary(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}

// Daily godoc
// @Summary Per-day revenue within a date range
// @Tags Revenue
// @Produce json
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /revenue/daily [get]
func (h *RevenueHandler) Daily(c *gin.Context) {
	if h.revenue == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	filter, err := parseRevenueFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	rows, cacheHit, err := h.revenue.Daily(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, rows, nil, meta)
}

func parseRevenueFilter(c *gin.Context) (models.RevenueFilter, error) {
	var filter models.RevenueFilter
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid from parameter")
		}
		filter.From = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid to parameter")
		}
		filter.To = parsed
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return filter, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}
	return filter, nil
}
