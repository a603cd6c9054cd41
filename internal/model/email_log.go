// internal/model/email_log.go
package model

import "time"

const (
	EmailStatusPending = "pending"
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
	EmailStatusBounced = "bounced"
)

type EmailLogEntry struct {
	ID           string    `db:"id" json:"id"`
	CampaignID   string    `db:"campaign_id" json:"campaign_id,omitempty"`
	ToEmail      string    `db:"to_email" json:"to_email"`
	Subject      string    `db:"subject" json:"subject"`
	Status       string    `db:"status" json:"status"` // pending, sent, failed, bounced
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	Timestamp    time.Time `db:"timestamp" json:"timestamp"`
}
