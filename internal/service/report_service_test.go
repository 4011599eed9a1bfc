package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk-api/internal/dto"
	"github.com/venuedesk/venuedesk-api/internal/models"
	"github.com/venuedesk/venuedesk-api/internal/repository"
	appErrors "github.com/venuedesk/venuedesk-api/pkg/errors"
	"github.com/venuedesk/venuedesk-api/pkg/jobs"
	"github.com/venuedesk/venuedesk-api/pkg/storage"
)

type exportJobStoreStub struct {
	jobs    map[string]*models.ExportJob
	updates []repository.UpdateExportJobParams
	err     error
}

func (s *exportJobStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	if s.err != nil {
		return s.err
	}
	if job.ID == "" {
		job.ID = "job-1"
	}
	if s.jobs == nil {
		s.jobs = make(map[string]*models.ExportJob)
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *exportJobStoreStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if s.err != nil {
		return nil, s.err
	}
	if job, ok := s.jobs[id]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *exportJobStoreStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	s.updates = append(s.updates, params)
	if job, ok := s.jobs[id]; ok {
		if params.Status != nil {
			job.Status = *params.Status
		}
		if params.Progress != nil {
			job.Progress = *params.Progress
		}
		if params.ResultURL != nil {
			job.ResultURL = params.ResultURL
		}
		if params.ErrorMessage != nil {
			job.ErrorMessage = params.ErrorMessage
		}
		if params.FinishedAt != nil {
			job.FinishedAt = params.FinishedAt
		}
	}
	return nil
}

func (s *exportJobStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := []models.ExportJob{}
	for _, job := range s.jobs {
		if job.Status == models.ExportStatusQueued {
			result = append(result, *job)
		}
	}
	return result, nil
}

func (s *exportJobStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

type dispatcherStub struct {
	enqueued []jobs.Job
	err      error
}

func (s *dispatcherStub) Enqueue(job jobs.Job) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, job)
	return nil
}

type generatorStub struct {
	result *ExportResult
	err    error
	calls  int
}

func (s *generatorStub) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestReportServiceCreateJobEnqueues(t *testing.T) {
	store := &exportJobStoreStub{}
	queue := &dispatcherStub{}
	service := NewReportService(store, queue, nil, nil, nil, ReportServiceConfig{})

	resp, err := service.CreateJob(context.Background(), dto.ExportRequest{
		Type:   models.ExportTypeBookings,
		Format: models.ExportFormatCSV,
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
}

func TestReportServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := &exportJobStoreStub{}
	queue := &dispatcherStub{err: errors.New("queue stopped")}
	service := NewReportService(store, queue, nil, nil, nil, ReportServiceConfig{})

	_, err := service.CreateJob(context.Background(), dto.ExportRequest{
		Type:   models.ExportTypeRevenue,
		Format: models.ExportFormatPDF,
	}, "admin-1")
	require.Error(t, err)
	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestReportServiceCreateJobRejectsInvertedRange(t *testing.T) {
	service := NewReportService(&exportJobStoreStub{}, &dispatcherStub{}, nil, nil, nil, ReportServiceConfig{})
	from := time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -7)
	_, err := service.CreateJob(context.Background(), dto.ExportRequest{
		Type:     models.ExportTypeBookings,
		Format:   models.ExportFormatCSV,
		DateFrom: &from,
		DateTo:   &to,
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceGetStatusOwnership(t *testing.T) {
	store := &exportJobStoreStub{
		jobs: map[string]*models.ExportJob{
			"job-1": {ID: "job-1", Status: models.ExportStatusProcessing, Progress: 10, CreatedBy: "staff-1"},
		},
	}
	service := NewReportService(store, &dispatcherStub{}, nil, nil, nil, ReportServiceConfig{})

	resp, err := service.GetStatus(context.Background(), "job-1", "staff-1", models.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusProcessing, resp.Status)

	_, err = service.GetStatus(context.Background(), "job-1", "staff-2", models.RoleStaff)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = service.GetStatus(context.Background(), "job-1", "admin-1", models.RoleAdmin)
	require.NoError(t, err)
}

func TestReportWorkerRetriesThenFails(t *testing.T) {
	store := &exportJobStoreStub{
		jobs: map[string]*models.ExportJob{
			"job-1": {ID: "job-1", Type: models.ExportTypeBookings, Status: models.ExportStatusQueued},
		},
	}
	generator := &generatorStub{err: errors.New("dataset query failed")}
	worker := NewReportWorker(store, generator, nil, 3, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, store.jobs["job-1"].Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 3})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusFailed, store.jobs["job-1"].Status)
	assert.Equal(t, 100, store.jobs["job-1"].Progress)
	require.NotNil(t, store.jobs["job-1"].ErrorMessage)
	assert.Equal(t, "dataset query failed", *store.jobs["job-1"].ErrorMessage)
}

func TestReportWorkerMarksFinished(t *testing.T) {
	store := &exportJobStoreStub{
		jobs: map[string]*models.ExportJob{
			"job-1": {ID: "job-1", Type: models.ExportTypeCustomers, Status: models.ExportStatusQueued},
		},
	}
	generator := &generatorStub{result: &ExportResult{URL: "/api/v1/export/token-abc"}}
	worker := NewReportWorker(store, generator, nil, 3, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.NoError(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Equal(t, "/api/v1/export/token-abc", *job.ResultURL)
	require.NotNil(t, job.FinishedAt)
}

func TestReportServiceResolveDownload(t *testing.T) {
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	exporter := NewExportService(nil, nil, nil, files, signer, ExportConfig{}, nil, nil, nil)

	relPath, err := files.Save("bookings_20260510.csv", []byte("ID,Title\n1,Gala\n"))
	require.NoError(t, err)
	token, _, err := signer.Generate("job-1", relPath)
	require.NoError(t, err)

	url := "/api/v1/export/" + token
	store := &exportJobStoreStub{
		jobs: map[string]*models.ExportJob{
			"job-1": {
				ID:        "job-1",
				Type:      models.ExportTypeBookings,
				Params:    models.ExportJobParams{Format: models.ExportFormatCSV},
				Status:    models.ExportStatusFinished,
				Progress:  100,
				ResultURL: &url,
			},
		},
	}
	service := NewReportService(store, &dispatcherStub{}, exporter, nil, nil, ReportServiceConfig{})

	download, err := service.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ExportFormatCSV, download.Format)
	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Gala")

	_, err = service.ResolveDownload(context.Background(), token+"tampered")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
