// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/model"
	"github.com/unclebandit/mailleopard-backend/internal/queue"
	"github.com/unclebandit/mailleopard-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	ListRepo     repository.ContactListRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	LogRepo      repository.EmailLogRepositoryInterface
	Dispatcher   *Dispatcher
	Queue        queue.Queue
}

type CampaignDetails struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Status          string         `json:"status"`
	TemplateID      string         `json:"template_id"`
	TotalRecipients int            `json:"total_recipients"`
	SentCount       int            `json:"sent_count"`
	FailedCount     int            `json:"failed_count"`
	CreatedAt       time.Time      `json:"created_at"`
	SentAt          *time.Time     `json:"sent_at,omitempty"`
	Stats           map[string]int `json:"stats"`
}

// Preview is a campaign's template rendered for one contact.
type Preview struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"html_body,omitempty"`
}

func (s *CampaignService) RenderPreview(ctx context.Context, campaignName, contactEmail string) (*Preview, error) {
	campaign, err := s.CampaignRepo.GetByName(ctx, campaignName)
	if err != nil {
		return nil, err
	}

	contact, err := s.ContactRepo.GetByEmail(ctx, contactEmail)
	if err != nil {
		return nil, err
	}

	tmpl, err := s.TemplateRepo.GetByID(ctx, campaign.TemplateID)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		To:      contact.Email,
		Subject: Personalize(tmpl.Subject, contact),
		Body:    Personalize(tmpl.Body, contact),
	}
	if tmpl.HTMLBody != "" {
		p.HTMLBody = Personalize(tmpl.HTMLBody, contact)
	}
	return p, nil
}

// SendCampaign runs the dispatch inline and returns its counts.
func (s *CampaignService) SendCampaign(ctx context.Context, name string, attachments []string) (SendResult, error) {
	return s.Dispatcher.SendCampaign(ctx, name, attachments)
}

// EnqueueSend checks the campaign can be sent and hands the run to a worker.
func (s *CampaignService) EnqueueSend(ctx context.Context, name string, attachments []string) error {
	campaign, err := s.CampaignRepo.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if campaign.Status == model.CampaignStatusSent {
		return fmt.Errorf("%w: %s", appErrors.ErrAlreadySent, name)
	}
	if s.Queue == nil {
		return fmt.Errorf("no queue configured for campaign sends")
	}
	return s.Queue.Publish(ctx, queue.TopicCampaignSends, queue.DispatchJob{
		CampaignName: name,
		Attachments:  attachments,
	})
}

// CreateCampaign resolves the template and list names and stores a draft campaign.
func (s *CampaignService) CreateCampaign(ctx context.Context, name, templateName string, listNames []string) (*model.Campaign, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.NewValidation("name", name, "must not be empty")
	}

	tmpl, err := s.TemplateRepo.GetByName(ctx, templateName)
	if err != nil {
		return nil, err
	}

	listIDs := make([]string, 0, len(listNames))
	for _, listName := range listNames {
		l, err := s.ListRepo.GetByName(ctx, listName)
		if err != nil {
			return nil, err
		}
		listIDs = append(listIDs, l.ID)
	}

	c := &model.Campaign{
		Name:           name,
		TemplateID:     tmpl.ID,
		ContactListIDs: listIDs,
		Status:         model.CampaignStatusDraft,
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignStats returns the stored counters plus per-status counts from the email log.
func (s *CampaignService) GetCampaignStats(ctx context.Context, name string) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	counts, err := s.LogRepo.CountByStatus(ctx, campaign.ID)
	if err != nil {
		return nil, err
	}

	stats := map[string]int{
		"total":   0,
		"pending": 0,
		"sent":    0,
		"failed":  0,
		"bounced": 0,
	}
	for status, count := range counts {
		if _, ok := stats[status]; ok {
			stats[status] = count
		}
		stats["total"] += count
	}

	return &CampaignDetails{
		ID:              campaign.ID,
		Name:            campaign.Name,
		Status:          campaign.Status,
		TemplateID:      campaign.TemplateID,
		TotalRecipients: campaign.TotalRecipients,
		SentCount:       campaign.SentCount,
		FailedCount:     campaign.FailedCount,
		CreatedAt:       campaign.CreatedAt,
		SentAt:          campaign.SentAt,
		Stats:           stats,
	}, nil
}
