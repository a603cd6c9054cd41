package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/lock"
	"github.com/unclebandit/mailleopard-backend/internal/logger"
	"github.com/unclebandit/mailleopard-backend/internal/mailer"
	"github.com/unclebandit/mailleopard-backend/internal/metrics"
	"github.com/unclebandit/mailleopard-backend/internal/model"
	"github.com/unclebandit/mailleopard-backend/internal/queue"
)

// Store is the storage a dispatch run reads from and writes to.
// Lookups return an error matching appErrors.ErrNotFound when the record is absent.
type Store interface {
	FindCampaign(ctx context.Context, name string) (*model.Campaign, error)
	FindTemplate(ctx context.Context, id string) (*model.EmailTemplate, error)
	FindContactList(ctx context.Context, id string) (*model.ContactList, error)
	FindContact(ctx context.Context, id string) (*model.Contact, error)
	UpdateCampaignDelivery(ctx context.Context, name string, d model.CampaignDelivery) error
	AppendLog(ctx context.Context, entry *model.EmailLogEntry) error
}

// SendResult is the outcome of one campaign dispatch.
type SendResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Dispatcher sends a campaign to every contact on its lists.
type Dispatcher struct {
	Store     Store
	Transport mailer.Transport
	Locker    lock.Locker // optional
	Queue     queue.Queue // optional, receives campaign.sent events
	Logger    *logger.Logger

	Concurrency int
	LockTTL     time.Duration
	From        string

	now func() time.Time
}

func NewDispatcher(store Store, transport mailer.Transport, locker lock.Locker, q queue.Queue, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		Store:       store,
		Transport:   transport,
		Locker:      locker,
		Queue:       q,
		Logger:      log.WithComponent("dispatcher"),
		Concurrency: 1,
		LockTTL:     30 * time.Minute,
		now:         time.Now,
	}
}

type outcome struct {
	attempted bool
	err       error
}

// SendCampaign delivers the named campaign. Individual recipient failures are
// counted and logged; only lookup, lock and write-back problems fail the run.
func (d *Dispatcher) SendCampaign(ctx context.Context, campaignName string, attachments []string) (SendResult, error) {
	start := time.Now()
	log := d.Logger.WithCampaign(campaignName)

	result, err := d.send(ctx, log, campaignName, attachments)
	metrics.DispatchRuns.WithLabelValues(runOutcome(err)).Inc()
	metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).Msg("campaign dispatch failed")
		return SendResult{}, err
	}

	log.Info().
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Int("total", result.Total).
		Dur("duration", time.Since(start)).
		Msg("campaign dispatched")
	return result, nil
}

func (d *Dispatcher) send(ctx context.Context, log *logger.Logger, campaignName string, attachments []string) (SendResult, error) {
	campaign, err := d.Store.FindCampaign(ctx, campaignName)
	if err != nil {
		return SendResult{}, err
	}
	if campaign.Status == model.CampaignStatusSent {
		return SendResult{}, fmt.Errorf("%w: %s", appErrors.ErrAlreadySent, campaignName)
	}

	if d.Locker != nil {
		release, err := d.Locker.Acquire(ctx, campaignName, d.LockTTL)
		if errors.Is(err, lock.ErrHeld) {
			return SendResult{}, fmt.Errorf("%w: %s", appErrors.ErrDispatchInProgress, campaignName)
		}
		if err != nil {
			return SendResult{}, fmt.Errorf("failed to acquire dispatch lock: %w", err)
		}
		defer release()

		// a run that held the lock before us may have finished the campaign
		campaign, err = d.Store.FindCampaign(ctx, campaignName)
		if err != nil {
			return SendResult{}, err
		}
		if campaign.Status == model.CampaignStatusSent {
			return SendResult{}, fmt.Errorf("%w: %s", appErrors.ErrAlreadySent, campaignName)
		}
	}

	tmpl, err := d.Store.FindTemplate(ctx, campaign.TemplateID)
	if err != nil {
		return SendResult{}, err
	}

	recipients, err := d.resolveRecipients(ctx, campaign)
	if err != nil {
		return SendResult{}, err
	}
	log.Info().Int("recipients", len(recipients)).Msg("recipients resolved")

	outcomes := make([]outcome, len(recipients))
	limit := d.Concurrency
	if limit < 1 {
		limit = 1
	}

	// per-recipient failures are recorded in outcomes, never returned to the group
	var g errgroup.Group
	g.SetLimit(limit)
	for i, contact := range recipients {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = outcome{attempted: true, err: d.deliver(ctx, log, campaign, tmpl, contact, attachments)}
			return nil
		})
	}
	_ = g.Wait()

	result := SendResult{Total: len(recipients)}
	for _, o := range outcomes {
		switch {
		case !o.attempted:
			// cancelled before every recipient was tried; leave the campaign as it was
			return SendResult{}, ctx.Err()
		case o.err != nil:
			result.Failed++
		default:
			result.Sent++
		}
	}
	metrics.EmailsProcessed.WithLabelValues(model.EmailStatusSent).Add(float64(result.Sent))
	metrics.EmailsProcessed.WithLabelValues(model.EmailStatusFailed).Add(float64(result.Failed))

	// every recipient was tried, so the run is recorded even if ctx ended meanwhile
	ctx = context.WithoutCancel(ctx)
	sentAt := d.clock()
	err = d.Store.UpdateCampaignDelivery(ctx, campaign.Name, model.CampaignDelivery{
		Status:          model.CampaignStatusSent,
		SentAt:          sentAt,
		TotalRecipients: result.Total,
		SentCount:       result.Sent,
		FailedCount:     result.Failed,
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to update campaign: %w", err)
	}

	d.publishSent(ctx, log, campaign, result, sentAt)
	return result, nil
}

// resolveRecipients walks the campaign's lists in order and returns each contact
// once, keyed by email. Lists or contacts that no longer exist are skipped.
func (d *Dispatcher) resolveRecipients(ctx context.Context, campaign *model.Campaign) ([]*model.Contact, error) {
	seen := make(map[string]struct{})
	var recipients []*model.Contact

	for _, listID := range campaign.ContactListIDs {
		list, err := d.Store.FindContactList(ctx, listID)
		if errors.Is(err, appErrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, contactID := range list.ContactIDs {
			contact, err := d.Store.FindContact(ctx, contactID)
			if errors.Is(err, appErrors.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if _, dup := seen[contact.Email]; dup {
				continue
			}
			seen[contact.Email] = struct{}{}
			recipients = append(recipients, contact)
		}
	}
	return recipients, nil
}

func (d *Dispatcher) deliver(ctx context.Context, log *logger.Logger, campaign *model.Campaign, tmpl *model.EmailTemplate, contact *model.Contact, attachments []string) error {
	msg := mailer.Message{
		From:        d.From,
		To:          contact.Email,
		Subject:     Personalize(tmpl.Subject, contact),
		TextBody:    Personalize(tmpl.Body, contact),
		Attachments: attachments,
	}
	if tmpl.HTMLBody != "" {
		msg.HTMLBody = Personalize(tmpl.HTMLBody, contact)
	}

	sendErr := d.Transport.Send(ctx, msg)

	entry := &model.EmailLogEntry{
		ID:         uuid.NewString(),
		CampaignID: campaign.ID,
		ToEmail:    contact.Email,
		Subject:    msg.Subject,
		Status:     model.EmailStatusSent,
		Timestamp:  d.clock(),
	}
	if sendErr != nil {
		entry.Status = model.EmailStatusFailed
		entry.ErrorMessage = sendErr.Error()
	}
	log.Delivery(contact.Email, sendErr)

	// an in-flight send still gets its log entry after cancellation
	if err := d.Store.AppendLog(context.WithoutCancel(ctx), entry); err != nil {
		log.Error().Err(err).Str("to", contact.Email).Msg("failed to append email log")
	}
	return sendErr
}

func (d *Dispatcher) publishSent(ctx context.Context, log *logger.Logger, campaign *model.Campaign, result SendResult, sentAt time.Time) {
	if d.Queue == nil {
		return
	}
	event := queue.CampaignSentEvent{
		Type:         "campaign.sent",
		CampaignID:   campaign.ID,
		CampaignName: campaign.Name,
		Sent:         result.Sent,
		Failed:       result.Failed,
		Total:        result.Total,
		SentAt:       sentAt,
	}
	if err := d.Queue.Publish(ctx, queue.TopicCampaignEvents, event); err != nil {
		log.Warn().Err(err).Msg("failed to publish campaign.sent event")
	}
}

func (d *Dispatcher) clock() time.Time {
	if d.now == nil {
		return time.Now().UTC()
	}
	return d.now().UTC()
}

func runOutcome(err error) string {
	switch {
	case err == nil:
		return "completed"
	case errors.Is(err, appErrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, appErrors.ErrAlreadySent):
		return "already_sent"
	case errors.Is(err, appErrors.ErrDispatchInProgress):
		return "in_progress"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
