package models

import "time"

// CampaignStatus tracks a marketing campaign through its lifecycle.
type CampaignStatus string

const (
	CampaignStatusDraft      CampaignStatus = "DRAFT"
	CampaignStatusDispatched CampaignStatus = "DISPATCHED"
)

// CampaignChannel is the delivery channel for a campaign.
type CampaignChannel string

const (
	CampaignChannelEmail CampaignChannel = "EMAIL"
	CampaignChannelSMS   CampaignChannel = "SMS"
)

// Campaign represents a marketing campaign row.
type Campaign struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Subject        string          `db:"subject" json:"subject"`
	Body           string          `db:"body" json:"body"`
	Channel        CampaignChannel `db:"channel" json:"channel"`
	Status         CampaignStatus  `db:"status" json:"status"`
	RecipientCount int             `db:"recipient_count" json:"recipient_count"`
	DispatchedAt   *time.Time      `db:"dispatched_at" json:"dispatched_at,omitempty"`
	CreatedBy      string          `db:"created_by" json:"created_by"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// CampaignFilter narrows down campaign listings.
type CampaignFilter struct {
	Status    *CampaignStatus
	Channel   *CampaignChannel
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
