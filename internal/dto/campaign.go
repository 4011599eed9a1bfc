package dto

import "github.com/venuedesk/venuedesk-api/internal/models"

// CreateCampaignRequest captures POST /campaigns payload.
type CreateCampaignRequest struct {
	Name    string                 `json:"name" validate:"required,min=2,max=200"`
	Subject string                 `json:"subject" validate:"required,min=2,max=200"`
	Body    string                 `json:"body" validate:"required"`
	Channel models.CampaignChannel `json:"channel" validate:"required,oneof=EMAIL SMS"`
}

// UpdateCampaignRequest captures PUT /campaigns/:id payload.
type UpdateCampaignRequest struct {
	Name    string                 `json:"name" validate:"required,min=2,max=200"`
	Subject string                 `json:"subject" validate:"required,min=2,max=200"`
	Body    string                 `json:"body" validate:"required"`
	Channel models.CampaignChannel `json:"channel" validate:"required,oneof=EMAIL SMS"`
}

// DispatchCampaignResponse is returned after a campaign has been queued.
type DispatchCampaignResponse struct {
	CampaignID     string                `json:"campaignId"`
	Status         models.CampaignStatus `json:"status"`
	RecipientCount int                   `json:"recipientCount"`
}
