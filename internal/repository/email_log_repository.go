package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/mailleopard-backend/internal/model"
)

type EmailLogRepositoryInterface interface {
	Append(ctx context.Context, e *model.EmailLogEntry) error
	List(ctx context.Context, limit int, status string) ([]*model.EmailLogEntry, error)
	CountByStatus(ctx context.Context, campaignID string) (map[string]int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type EmailLogRepository struct {
	DB *sql.DB
}

// Append inserts one log row per send attempt
func (r *EmailLogRepository) Append(ctx context.Context, e *model.EmailLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	var campaignID sql.NullString
	if e.CampaignID != "" {
		campaignID = sql.NullString{String: e.CampaignID, Valid: true}
	}

	query := `
		INSERT INTO email_logs (id, campaign_id, to_email, subject, status, error_message, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query, e.ID, campaignID, e.ToEmail, e.Subject, e.Status, e.ErrorMessage, e.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append email log: %w", err)
	}
	return nil
}

// List returns the newest log rows first, optionally filtered by status
func (r *EmailLogRepository) List(ctx context.Context, limit int, status string) ([]*model.EmailLogEntry, error) {
	query := `SELECT id, campaign_id, to_email, subject, status, error_message, timestamp FROM email_logs`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY timestamp DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*model.EmailLogEntry{}
	for rows.Next() {
		var e model.EmailLogEntry
		var campaignID sql.NullString
		if err := rows.Scan(&e.ID, &campaignID, &e.ToEmail, &e.Subject, &e.Status, &e.ErrorMessage, &e.Timestamp); err != nil {
			return nil, err
		}
		e.CampaignID = campaignID.String
		logs = append(logs, &e)
	}
	return logs, rows.Err()
}

func (r *EmailLogRepository) CountByStatus(ctx context.Context, campaignID string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM email_logs WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{model.EmailStatusSent: 0, model.EmailStatusFailed: 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func (r *EmailLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM email_logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up email logs: %w", err)
	}
	return res.RowsAffected()
}

var _ EmailLogRepositoryInterface = (*EmailLogRepository)(nil)
