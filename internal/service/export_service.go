package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/venuedesk/venuedesk-api/internal/models"
	"github.com/venuedesk/venuedesk-api/pkg/export"
	"github.com/venuedesk/venuedesk-api/pkg/storage"
)

type exportBookingReader interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error)
}

type exportCustomerReader interface {
	List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, *models.Pagination, error)
}

type exportRevenueReader interface {
	Totals(ctx context.Context, from, to time.Time) (float64, int, error)
	ByType(ctx context.Context, from, to time.Time) ([]models.RevenueByType, error)
	Daily(ctx context.Context, from, to time.Time) ([]models.RevenueDaily, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds export datasets and persists rendered files.
type ExportService struct {
	bookings  exportBookingReader
	customers exportCustomerReader
	revenue   exportRevenueReader
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(bookings exportBookingReader, customers exportCustomerReader, revenue exportRevenueReader, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		bookings:  bookings,
		customers: customers,
		revenue:   revenue,
		storage:   storage,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate builds the dataset according to the job definition and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	name := fmt.Sprintf("%s_%s.%s", strings.ToLower(string(job.Type)), timestamp, job.Params.Format)
	return name
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ExportTypeBookings:
		return s.buildBookingDataset(ctx, job.Params)
	case models.ExportTypeCustomers:
		return s.buildCustomerDataset(ctx, job.Params)
	case models.ExportTypeRevenue:
		return s.buildRevenueDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func (s *ExportService) buildBookingDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	filter := models.BookingFilter{
		DateFrom: params.DateFrom,
		DateTo:   params.DateTo,
		Page:     1,
		PageSize: exportPageSize,
		SortBy:   "start_at",
	}
	var dataRows []map[string]string
	for {
		rows, pagination, err := s.bookings.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, row := range rows {
			dataRows = append(dataRows, map[string]string{
				"ID":         row.ID,
				"Customer":   row.CustomerID,
				"Title":      row.Title,
				"Type":       string(row.Type),
				"Status":     string(row.Status),
				"Start":      row.StartAt.UTC().Format(time.RFC3339),
				"Duration":   formatDuration(row.DurationMinutes),
				"Price":      fmt.Sprintf("%.2f", row.Price),
				"Created At": row.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		if pagination == nil || filter.Page*filter.PageSize >= pagination.TotalCount {
			break
		}
		filter.Page++
	}
	dataset := export.Dataset{
		Headers: []string{"ID", "Customer", "Title", "Type", "Status", "Start", "Duration", "Price", "Created At"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Bookings Export %s", formatRange(params.DateFrom, params.DateTo))
	return dataset, title, nil
}

func (s *ExportService) buildCustomerDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	filter := models.CustomerFilter{
		Page:     1,
		PageSize: exportPageSize,
		SortBy:   "full_name",
		SortOrder: "ASC",
	}
	var dataRows []map[string]string
	for {
		rows, pagination, err := s.customers.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, row := range rows {
			status := "active"
			if !row.Active {
				status = "inactive"
			}
			dataRows = append(dataRows, map[string]string{
				"ID":        row.ID,
				"Full Name": row.FullName,
				"Email":     row.Email,
				"Phone":     deref(row.Phone),
				"Company":   deref(row.Company),
				"Status":    status,
				"Since":     row.CreatedAt.UTC().Format("2006-01-02"),
			})
		}
		if pagination == nil || filter.Page*filter.PageSize >= pagination.TotalCount {
			break
		}
		filter.Page++
	}
	dataset := export.Dataset{
		Headers: []string{"ID", "Full Name", "Email", "Phone", "Company", "Status", "Since"},
		Rows:    dataRows,
	}
	return dataset, "Customers Export", nil
}

func (s *ExportService) buildRevenueDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	var filter models.RevenueFilter
	if params.DateFrom != nil {
		filter.From = *params.DateFrom
	}
	if params.DateTo != nil {
		filter.To = *params.DateTo
	}
	from, to := normalizeRevenueRange(filter)
	total, count, err := s.revenue.Totals(ctx, from, to)
	if err != nil {
		return export.Dataset{}, "", err
	}
	byType, err := s.revenue.ByType(ctx, from, to)
	if err != nil {
		return export.Dataset{}, "", err
	}
	daily, err := s.revenue.Daily(ctx, from, to)
	if err != nil {
		return export.Dataset{}, "", err
	}

	rows := []map[string]string{
		{"Section": "SUMMARY", "Label": "Total Revenue", "Bookings": fmt.Sprintf("%d", count), "Revenue": fmt.Sprintf("%.2f", total)},
	}
	for _, row := range byType {
		rows = append(rows, map[string]string{
			"Section":  "BY TYPE",
			"Label":    string(row.Type),
			"Bookings": fmt.Sprintf("%d", row.BookingCount),
			"Revenue":  fmt.Sprintf("%.2f", row.Revenue),
		})
	}
	for _, row := range daily {
		rows = append(rows, map[string]string{
			"Section":  "DAILY",
			"Label":    row.Date.UTC().Format("2006-01-02"),
			"Bookings": fmt.Sprintf("%d", row.BookingCount),
			"Revenue":  fmt.Sprintf("%.2f", row.Revenue),
		})
	}

	dataset := export.Dataset{
		Headers: []string{"Section", "Label", "Bookings", "Revenue"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Revenue Export %s", formatRange(params.DateFrom, params.DateTo))
	return dataset, title, nil
}

const exportPageSize = 100

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatDuration(minutes *int) string {
	if minutes == nil {
		return ""
	}
	return fmt.Sprintf("%dm", *minutes)
}

func formatRange(from, to *time.Time) string {
	format := func(t *time.Time) string {
		if t == nil {
			return "all"
		}
		return t.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("%s to %s", format(from), format(to))
}
