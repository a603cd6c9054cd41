// internal/model/campaign.go
package model

import "time"

const (
	CampaignStatusDraft = "draft"
	CampaignStatusSent  = "sent"
)

type Campaign struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	TemplateID      string     `db:"template_id" json:"template_id"`
	ContactListIDs  []string   `db:"-" json:"contact_list_ids"`
	Status          string     `db:"status" json:"status"`
	TotalRecipients int        `db:"total_recipients" json:"total_recipients"`
	SentCount       int        `db:"sent_count" json:"sent_count"`
	FailedCount     int        `db:"failed_count" json:"failed_count"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	SentAt          *time.Time `db:"sent_at" json:"sent_at,omitempty"`
}

// CampaignDelivery is the single write-back a dispatch run makes to its campaign.
type CampaignDelivery struct {
	Status          string
	SentAt          time.Time
	TotalRecipients int
	SentCount       int
	FailedCount     int
}
