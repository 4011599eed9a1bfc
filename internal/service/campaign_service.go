package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venuedesk/venuedesk-api/internal/dto"
	"github.com/venuedesk/venuedesk-api/internal/models"
	appErrors "github.com/venuedesk/venuedesk-api/pkg/errors"
)

type campaignRepository interface {
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error)
	Create(ctx context.Context, campaign *models.Campaign) error
	Update(ctx context.Context, campaign *models.Campaign) error
	MarkDispatched(ctx context.Context, id string, recipients int, dispatchedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type campaignRecipientLister interface {
	ListActive(ctx context.Context) ([]models.Customer, error)
}

type campaignNotifier interface {
	Send(ctx context.Context, campaign *models.Campaign, customer models.Customer) (bool, error)
}

type campaignAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CampaignService manages marketing campaigns and their dispatch.
type CampaignService struct {
	repo      campaignRepository
	customers campaignRecipientLister
	notifier  campaignNotifier
	audit     campaignAuditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCampaignService constructs a campaign service.
func NewCampaignService(repo campaignRepository, customers campaignRecipientLister, notifier campaignNotifier, audit campaignAuditLogger, validate *validator.Validate, logger *zap.Logger) *CampaignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CampaignService{
		repo:      repo,
		customers: customers,
		notifier:  notifier,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// Get returns a campaign by ID.
func (s *CampaignService) Get(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}
	return campaign, nil
}

// List returns paginated campaigns.
func (s *CampaignService) List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, *models.Pagination, error) {
	campaigns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return campaigns, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Create adds a new draft campaign.
func (s *CampaignService) Create(ctx context.Context, req dto.CreateCampaignRequest, actorID string) (*models.Campaign, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload")
	}
	campaign := &models.Campaign{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Subject:   req.Subject,
		Body:      req.Body,
		Channel:   req.Channel,
		Status:    models.CampaignStatusDraft,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campaign")
	}
	return campaign, nil
}

// Update modifies a draft campaign. Dispatched campaigns are immutable.
func (s *CampaignService) Update(ctx context.Context, id string, req dto.UpdateCampaignRequest) (*models.Campaign, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload")
	}
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "dispatched campaigns cannot be modified")
	}

	campaign.Name = req.Name
	campaign.Subject = req.Subject
	campaign.Body = req.Body
	campaign.Channel = req.Channel

	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update campaign")
	}
	return campaign, nil
}

// Delete removes a draft campaign.
func (s *CampaignService) Delete(ctx context.Context, id string) error {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if campaign.Status != models.CampaignStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "dispatched campaigns cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete campaign")
	}
	return nil
}

// Dispatch sends a draft campaign to all active customers and marks it dispatched.
func (s *CampaignService) Dispatch(ctx context.Context, id string, actorID string, meta models.LoginRequest) (*dto.DispatchCampaignResponse, error) {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "campaign has already been dispatched")
	}

	recipients, err := s.customers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipients")
	}

	delivered := 0
	for _, customer := range recipients {
		sent, err := s.notifier.Send(ctx, campaign, customer)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "campaign delivery aborted")
		}
		if sent {
			delivered++
		}
	}

	dispatchedAt := time.Now().UTC()
	if err := s.repo.MarkDispatched(ctx, campaign.ID, delivered, dispatchedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark campaign dispatched")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{
		"status":          models.CampaignStatusDispatched,
		"recipient_count": delivered,
		"dispatched_at":   dispatchedAt,
	})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionCampaignDispatch,
		Resource:   "campaigns",
		ResourceID: &campaign.ID,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record campaign dispatch audit log", zap.Error(err))
	}

	return &dto.DispatchCampaignResponse{
		CampaignID:     campaign.ID,
		Status:         models.CampaignStatusDispatched,
		RecipientCount: delivered,
	}, nil
}
