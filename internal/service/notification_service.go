package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/venuedesk/venuedesk-api/internal/models"
)

// NotificationService delivers campaign messages to individual recipients.
// Delivery is logged only; wiring a real email or SMS provider happens at the
// transport boundary without changing callers.
type NotificationService struct {
	logger *zap.Logger
}

// NewNotificationService constructs a notification service.
func NewNotificationService(logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{logger: logger}
}

// Send delivers a single campaign message to a customer. The boolean reports
// whether the message was actually delivered; SMS recipients without a phone
// number are skipped.
func (s *NotificationService) Send(ctx context.Context, campaign *models.Campaign, customer models.Customer) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	recipient := customer.Email
	if campaign.Channel == models.CampaignChannelSMS {
		if customer.Phone == nil || *customer.Phone == "" {
			s.logger.Debug("skipping sms recipient without phone",
				zap.String("campaign_id", campaign.ID),
				zap.String("customer_id", customer.ID),
			)
			return false, nil
		}
		recipient = *customer.Phone
	}
	s.logger.Info("campaign message dispatched",
		zap.String("campaign_id", campaign.ID),
		zap.String("channel", string(campaign.Channel)),
		zap.String("recipient", recipient),
		zap.String("subject", campaign.Subject),
	)
	return true, nil
}
