package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/venuedesk/venuedesk-api/internal/models"
)

// RevenueRepository describes the persistence layer required by RevenueService.
type RevenueRepository interface {
	Totals(ctx context.Context, from, to time.Time) (float64, int, error)
	ByType(ctx context.Context, from, to time.Time) ([]models.RevenueByType, error)
	Daily(ctx context.Context, from, to time.Time) ([]models.RevenueDaily, error)
}

// RevenueService provides read-optimised access to revenue aggregates with cache integration.
type RevenueService struct {
	repo    RevenueRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewRevenueService constructs a revenue service.
func NewRevenueService(repo RevenueRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *RevenueService {
	return &RevenueService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Summary returns revenue totals and a per-type breakdown for the requested range.
// The boolean indicates whether data originated from cache.
func (s *RevenueService) Summary(ctx context.Context, filter models.RevenueFilter) (*models.RevenueSummary, bool, error) {
	from, to := normalizeRevenueRange(filter)
	cacheKey := makeRevenueCacheKey("summary", formatRevenueTime(from), formatRevenueTime(to))
	var cached models.RevenueSummary
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get revenue summary cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	total, count, err := s.repo.Totals(ctx, from, to)
	if err != nil {
		return nil, false, err
	}
	byType, err := s.repo.ByType(ctx, from, to)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("revenue_summary", time.Since(start))
	}

	summary := &models.RevenueSummary{
		From:         from,
		To:           to,
		TotalRevenue: total,
		BookingCount: count,
		ByType:       byType,
	}
	if count > 0 {
		summary.AverageValue = total / float64(count)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, 0); err != nil && s.logger != nil {
			s.logger.Warn("cache revenue summary", zap.Error(err))
		}
	}
	return summary, false, nil
}

// Daily returns per-day revenue aggregates for the requested range.
func (s *RevenueService) Daily(ctx context.Context, filter models.RevenueFilter) ([]models.RevenueDaily, bool, error) {
	from, to := normalizeRevenueRange(filter)
	cacheKey := makeRevenueCacheKey("daily", formatRevenueTime(from), formatRevenueTime(to))
	var cached []models.RevenueDaily
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get revenue daily cache: %w", err)
		} else if hit {
			return cached, true, nil
		}
	}

	start := time.Now()
	rows, err := s.repo.Daily(ctx, from, to)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("revenue_daily", time.Since(start))
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, rows, 0); err != nil && s.logger != nil {
			s.logger.Warn("cache revenue daily", zap.Error(err))
		}
	}
	return rows, false, nil
}

// Invalidate drops cached revenue aggregates. Called after booking mutations.
func (s *RevenueService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "revenue:*"); err != nil && s.logger != nil {
		s.logger.Warn("invalidate revenue cache", zap.Error(err))
	}
}

// normalizeRevenueRange fills missing bounds with a trailing 30 day window.
func normalizeRevenueRange(filter models.RevenueFilter) (time.Time, time.Time) {
	from, to := filter.From, filter.To
	if to.IsZero() {
		to = time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	return from, to
}

func makeRevenueCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("revenue")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}

func formatRevenueTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
