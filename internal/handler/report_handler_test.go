package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk-api/internal/dto"
	"github.com/venuedesk/venuedesk-api/internal/middleware"
	"github.com/venuedesk/venuedesk-api/internal/models"
	"github.com/venuedesk/venuedesk-api/internal/service"
	appErrors "github.com/venuedesk/venuedesk-api/pkg/errors"
)

type reportServiceMock struct {
	createResp  *dto.ExportJobResponse
	createErr   error
	statusResp  *dto.ExportStatusResponse
	statusErr   error
	downloadFn  func(ctx context.Context, token string) (*service.ReportDownload, error)
	lastActorID string
}

func (m *reportServiceMock) CreateJob(ctx context.Context, req dto.ExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	m.lastActorID = actorID
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createResp, nil
}

func (m *reportServiceMock) GetStatus(ctx context.Context, id, actorID string, role models.UserRole) (*dto.ExportStatusResponse, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.statusResp, nil
}

func (m *reportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error) {
	return m.downloadFn(ctx, token)
}

func TestReportHandlerCreateRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.ExportRequest{Type: models.ExportTypeBookings, Format: models.ExportFormatCSV})
	req, _ := http.NewRequest(http.MethodPost, "/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandlerCreateAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &reportServiceMock{
		createResp: &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued},
	}
	handler := NewReportHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.ExportRequest{Type: models.ExportTypeBookings, Format: models.ExportFormatCSV})
	req, _ := http.NewRequest(http.MethodPost, "/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})

	handler.Create(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "staff-1", mock.lastActorID)

	var envelope struct {
		Data dto.ExportJobResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "job-1", envelope.Data.ID)
	assert.Equal(t, models.ExportStatusQueued, envelope.Data.Status)
}

func TestReportHandlerStatusForwardsError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{statusErr: appErrors.ErrForbidden})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/reports/job-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-2", Role: models.RoleStaff})

	handler.Status(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportHandlerDownloadStreamsFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "bookings_20260406.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,customer\n1,Gala\n"), 0o600))

	handler := NewReportHandler(&reportServiceMock{
		downloadFn: func(ctx context.Context, token string) (*service.ReportDownload, error) {
			if token != "valid-token" {
				return nil, appErrors.ErrForbidden
			}
			file, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			return &service.ReportDownload{
				File:      file,
				Filename:  filepath.Base(path),
				Format:    models.ExportFormatCSV,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/export/valid-token", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "token", Value: "valid-token"}}

	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bookings_20260406.csv")
	assert.Contains(t, w.Body.String(), "Gala")

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	req, _ = http.NewRequest(http.MethodGet, "/export/tampered", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "token", Value: "tampered"}}

	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
