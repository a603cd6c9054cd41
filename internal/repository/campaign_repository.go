package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByName(ctx context.Context, name string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
	UpdateDelivery(ctx context.Context, name string, d model.CampaignDelivery) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, template_id, status, total_recipients, sent_count, failed_count, created_at, sent_at`

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO campaigns (id, name, template_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, query, c.ID, c.Name, c.TemplateID, c.Status, c.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return appErrors.NewAlreadyExists("campaign", c.Name)
		}
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	for i, listID := range c.ContactListIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO campaign_lists (campaign_id, list_id, position) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			c.ID, listID, i)
		if err != nil {
			return fmt.Errorf("failed to link list %s: %w", listID, err)
		}
	}
	return tx.Commit()
}

func (r *CampaignRepository) GetByName(ctx context.Context, name string) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE name = $1`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, lookupErr(err, "campaign", name)
	}
	if err := r.loadListIDs(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) loadListIDs(ctx context.Context, c *model.Campaign) error {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT list_id FROM campaign_lists WHERE campaign_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	c.ContactListIDs = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		c.ContactListIDs = append(c.ContactListIDs, id)
	}
	return rows.Err()
}

// ListCampaigns returns one page of campaigns (newest first) and the total matching count.
func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// UpdateDelivery writes the outcome of a dispatch run onto the campaign.
func (r *CampaignRepository) UpdateDelivery(ctx context.Context, name string, d model.CampaignDelivery) error {
	query := `
		UPDATE campaigns
		SET status=$1, sent_at=$2, total_recipients=$3, sent_count=$4, failed_count=$5
		WHERE name=$6
	`
	res, err := r.DB.ExecContext(ctx, query, d.Status, d.SentAt, d.TotalRecipients, d.SentCount, d.FailedCount, name)
	if err != nil {
		return fmt.Errorf("failed to update campaign %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCampaignNotFound(name)
	}
	return nil
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.TemplateID, &c.Status, &c.TotalRecipients, &c.SentCount, &c.FailedCount, &c.CreatedAt, &c.SentAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
