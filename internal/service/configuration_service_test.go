package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk-api/internal/dto"
	"github.com/venuedesk/venuedesk-api/internal/models"
	appErrors "github.com/venuedesk/venuedesk-api/pkg/errors"
)

type configurationRepoStub struct {
	items map[string]models.Configuration
	err   error
}

func (s *configurationRepoStub) ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := []models.Configuration{}
	for _, key := range keys {
		if cfg, ok := s.items[key]; ok {
			result = append(result, cfg)
		}
	}
	return result, nil
}

func (s *configurationRepoStub) Get(ctx context.Context, key string) (*models.Configuration, error) {
	if s.err != nil {
		return nil, s.err
	}
	if cfg, ok := s.items[key]; ok {
		return &cfg, nil
	}
	return nil, sql.ErrNoRows
}

func (s *configurationRepoStub) Upsert(ctx context.Context, cfg *models.Configuration) error {
	if s.err != nil {
		return s.err
	}
	if s.items == nil {
		s.items = make(map[string]models.Configuration)
	}
	s.items[cfg.Key] = *cfg
	return nil
}

func (s *configurationRepoStub) BulkUpsert(ctx context.Context, cfgs []models.Configuration) error {
	if s.err != nil {
		return s.err
	}
	if s.items == nil {
		s.items = make(map[string]models.Configuration)
	}
	for _, cfg := range cfgs {
		s.items[cfg.Key] = cfg
	}
	return nil
}

type auditLoggerStub struct {
	logs []*models.AuditLog
}

func (a *auditLoggerStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestConfigurationServiceUpdateBoolean(t *testing.T) {
	repo := &configurationRepoStub{}
	audit := &auditLoggerStub{}
	service := NewConfigurationService(repo, audit, validator.New(), nil, ConfigurationServiceConfig{})
	item, err := service.Update(context.Background(), ConfigKeyEnableExportsUI, "true", &models.JWTClaims{UserID: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "true", item.Value)
	assert.Equal(t, "BOOLEAN", item.Type)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionConfigUpdate, audit.logs[0].Action)
}

func TestConfigurationServiceUpdateInvalidKey(t *testing.T) {
	service := NewConfigurationService(&configurationRepoStub{}, &auditLoggerStub{}, validator.New(), nil, ConfigurationServiceConfig{})
	_, err := service.Update(context.Background(), "unknown_key", "abc", &models.JWTClaims{UserID: "admin"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConfigurationServiceUpdateIntegerRange(t *testing.T) {
	service := NewConfigurationService(&configurationRepoStub{}, &auditLoggerStub{}, validator.New(), nil, ConfigurationServiceConfig{})

	item, err := service.Update(context.Background(), ConfigKeyBookingBufferMinutes, "30", &models.JWTClaims{UserID: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "30", item.Value)

	_, err = service.Update(context.Background(), ConfigKeyBookingBufferMinutes, "181", &models.JWTClaims{UserID: "admin"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = service.Update(context.Background(), ConfigKeyBookingBufferMinutes, "soon", &models.JWTClaims{UserID: "admin"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConfigurationServiceBulkUpdateRollbackOnValidation(t *testing.T) {
	repo := &configurationRepoStub{}
	service := NewConfigurationService(repo, &auditLoggerStub{}, validator.New(), nil, ConfigurationServiceConfig{})
	req := dto.BulkUpdateConfigurationRequest{
		Items: []dto.UpdateConfigurationRequest{
			{Key: ConfigKeyEnableCampaignsUI, Value: "true"},
			{Key: "unknown", Value: "value"},
		},
	}
	_, err := service.BulkUpdate(context.Background(), req, &models.JWTClaims{UserID: "admin"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.items, 0)
}

func TestConfigurationServiceListFiltersKeys(t *testing.T) {
	repo := &configurationRepoStub{
		items: map[string]models.Configuration{
			ConfigKeyEnableExportsUI: {Key: ConfigKeyEnableExportsUI, Value: "true", Type: models.ConfigurationTypeBoolean},
			"other_key":              {Key: "other_key", Value: "secret", Type: models.ConfigurationTypeString},
		},
	}
	service := NewConfigurationService(repo, &auditLoggerStub{}, validator.New(), nil, ConfigurationServiceConfig{})
	items, err := service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, len(allowedConfigurationKeys))
	found := false
	for _, item := range items {
		if item.Key == "other_key" {
			t.Fatalf("unexpected key returned: %s", item.Key)
		}
		if item.Key == ConfigKeyEnableExportsUI {
			found = true
			assert.Equal(t, "true", item.Value)
		}
	}
	assert.True(t, found, "expected enable_exports_ui to be present")
}

func TestConfigurationServiceBufferDefaults(t *testing.T) {
	service := NewConfigurationService(&configurationRepoStub{}, &auditLoggerStub{}, validator.New(), nil, ConfigurationServiceConfig{})

	buffer, err := service.GetBookingBufferMinutes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 45, buffer)

	duration, err := service.GetDefaultBookingDurationMinutes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, duration)
}

func TestConfigurationServiceBufferReadsStoredValue(t *testing.T) {
	repo := &configurationRepoStub{
		items: map[string]models.Configuration{
			ConfigKeyBookingBufferMinutes: {
				Key:   ConfigKeyBookingBufferMinutes,
				Value: "60",
				Type:  models.ConfigurationTypeInteger,
			},
		},
	}
	service := NewConfigurationService(repo, &auditLoggerStub{}, validator.New(), nil, ConfigurationServiceConfig{})

	buffer, err := service.GetBookingBufferMinutes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, buffer)
}
