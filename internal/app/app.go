// Package app wires configuration into the storage, transport, locking and
// queue backends shared by the server, worker and CLI binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/unclebandit/mailleopard-backend/internal/config"
	"github.com/unclebandit/mailleopard-backend/internal/db"
	"github.com/unclebandit/mailleopard-backend/internal/lock"
	"github.com/unclebandit/mailleopard-backend/internal/logger"
	"github.com/unclebandit/mailleopard-backend/internal/mailer"
	"github.com/unclebandit/mailleopard-backend/internal/queue"
	"github.com/unclebandit/mailleopard-backend/internal/repository"
	"github.com/unclebandit/mailleopard-backend/internal/service"
)

type App struct {
	Config *config.Config
	Logger *logger.Logger

	DB      *sql.DB
	Gateway *repository.Gateway
	Queue   queue.Queue

	Dispatcher *service.Dispatcher
	Campaigns  *service.CampaignService
	Contacts   *service.ContactService
	Lists      *service.ListService
	Templates  *service.TemplateService
	Logs       *service.LogService

	redis *redis.Client
	amqp  *queue.AMQPQueue
}

// New connects to PostgreSQL, Redis (when configured) and RabbitMQ (when
// configured) and builds every service on top of them.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: log, DB: database, Gateway: repository.NewGateway(database)}

	transport, err := mailer.New(cfg.Mail, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Redis.Enabled() {
		client, err := lock.NewRedis(cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		locker = lock.NewRedisLocker(client)
	}

	if cfg.AMQP.URL != "" {
		q, err := queue.DialAMQP(cfg.AMQP.URL, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.amqp = q
		a.Queue = q
	} else {
		mem := queue.NewInMemoryQueue(log)
		mem.Subscribe(queue.TopicCampaignEvents, func(_ context.Context, body []byte) error {
			log.Debug().RawJSON("event", body).Msg("campaign event")
			return nil
		})
		a.Queue = mem
	}

	d := service.NewDispatcher(a.Gateway, transport, locker, a.Queue, log)
	d.Concurrency = cfg.Dispatch.Concurrency
	d.LockTTL = cfg.Dispatch.LockTTL
	d.From = cfg.Mail.From
	a.Dispatcher = d

	g := a.Gateway
	a.Campaigns = &service.CampaignService{
		CampaignRepo: g.Campaigns,
		TemplateRepo: g.Templates,
		ListRepo:     g.Lists,
		ContactRepo:  g.Contacts,
		LogRepo:      g.Logs,
		Dispatcher:   d,
		Queue:        a.Queue,
	}
	a.Contacts = service.NewContactService(g.Contacts, g.Lists, log)
	a.Lists = service.NewListService(g.Lists, g.Contacts, log)
	a.Templates = &service.TemplateService{TemplateRepo: g.Templates}
	a.Logs = service.NewLogService(g.Logs, log)

	log.Info().
		Str("mail_provider", cfg.Mail.Provider).
		Bool("redis_lock", a.redis != nil).
		Bool("amqp", a.amqp != nil).
		Int("concurrency", d.Concurrency).
		Msg("application initialized")
	return a, nil
}

// InProcessQueue reports whether dispatch jobs stay inside this process.
func (a *App) InProcessQueue() bool {
	return a.amqp == nil
}

func (a *App) Close() error {
	var firstErr error
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close amqp: %w", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close redis: %w", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
	}
	return firstErr
}
