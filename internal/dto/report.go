package dto

import (
	"time"

	"github.com/venuedesk/venuedesk-api/internal/models"
)

// ExportRequest captures POST /reports payload.
type ExportRequest struct {
	Type     models.ExportType   `json:"type" validate:"required,oneof=bookings customers revenue"`
	Format   models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	DateFrom *time.Time          `json:"dateFrom,omitempty"`
	DateTo   *time.Time          `json:"dateTo,omitempty"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
