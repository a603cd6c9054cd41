package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
	"github.com/unclebandit/mailleopard-backend/internal/logger"
	"github.com/unclebandit/mailleopard-backend/internal/queue"
)

// CampaignSender is the part of the dispatcher the worker needs
type CampaignSender interface {
	SendCampaign(ctx context.Context, campaignName string, attachments []string) (SendResult, error)
}

// Worker runs dispatch jobs taken from the campaign_sends queue
type Worker struct {
	Sender CampaignSender
	Logger *logger.Logger
}

// Constructor
func NewWorker(sender CampaignSender, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Nop()
	}
	return &Worker{Sender: sender, Logger: log.WithComponent("worker")}
}

// Start subscribes the worker to the send queue
func (w *Worker) Start(q queue.Queue) error {
	return q.Subscribe(queue.TopicCampaignSends, w.Handle)
}

// Handle processes one job. Jobs that can never succeed (unknown campaign,
// already sent, another run in progress) are logged and dropped.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var job queue.DispatchJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.Logger.Error().Err(err).Bytes("body", body).Msg("invalid dispatch job")
		return nil
	}
	if job.CampaignName == "" {
		w.Logger.Error().Msg("dispatch job without campaign name")
		return nil
	}

	log := w.Logger.WithCampaign(job.CampaignName)
	log.Info().Int("attachments", len(job.Attachments)).Msg("processing dispatch job")

	result, err := w.Sender.SendCampaign(ctx, job.CampaignName, job.Attachments)
	switch {
	case err == nil:
		log.Info().Int("sent", result.Sent).Int("failed", result.Failed).Int("total", result.Total).Msg("dispatch job done")
		return nil
	case errors.Is(err, appErrors.ErrNotFound),
		errors.Is(err, appErrors.ErrAlreadySent),
		errors.Is(err, appErrors.ErrDispatchInProgress):
		log.Warn().Err(err).Msg("dispatch job dropped")
		return nil
	default:
		return fmt.Errorf("dispatch %s: %w", job.CampaignName, err)
	}
}
