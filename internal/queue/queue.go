package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/unclebandit/mailleopard-backend/internal/logger"
)

const (
	// TopicCampaignSends carries DispatchJob requests consumed by the worker
	TopicCampaignSends = "campaign_sends"
	// TopicCampaignEvents carries CampaignSentEvent notifications
	TopicCampaignEvents = "campaign_events"
)

// DispatchJob asks a worker to run one campaign dispatch.
type DispatchJob struct {
	CampaignName string   `json:"campaign_name"`
	Attachments  []string `json:"attachments,omitempty"`
}

// CampaignSentEvent is published once a campaign has been written back as sent.
type CampaignSentEvent struct {
	Type         string    `json:"type"`
	CampaignID   string    `json:"campaign_id"`
	CampaignName string    `json:"campaign_name"`
	Sent         int       `json:"sent"`
	Failed       int       `json:"failed"`
	Total        int       `json:"total"`
	SentAt       time.Time `json:"sent_at"`
}

// Handler receives the JSON body of one message.
type Handler func(ctx context.Context, body []byte) error

// Queue interface
type Queue interface {
	Publish(ctx context.Context, topic string, payload any) error
	Subscribe(topic string, handler Handler) error
}

// InMemoryQueue delivers each published message to every subscriber on its own goroutine.
// A failing handler is logged; the message is not redelivered.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	inflight sync.WaitGroup
	log      *logger.Logger
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(log *logger.Logger) *InMemoryQueue {
	if log == nil {
		log = logger.Nop()
	}
	return &InMemoryQueue{
		handlers: make(map[string][]Handler),
		log:      log.WithComponent("queue"),
	}
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", topic, err)
	}

	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		q.inflight.Add(1)
		go func(h Handler) {
			defer q.inflight.Done()
			// the publisher's request context ends long before the job does
			if err := h(context.WithoutCancel(ctx), body); err != nil {
				q.log.Error().Err(err).Str("topic", topic).Msg("message handler failed")
			}
		}(handler)
	}
	return nil
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every delivered message has been handled.
func (q *InMemoryQueue) Wait() {
	q.inflight.Wait()
}

var _ Queue = (*InMemoryQueue)(nil)
