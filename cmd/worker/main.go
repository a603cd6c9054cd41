package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/mailleopard-backend/internal/app"
	"github.com/unclebandit/mailleopard-backend/internal/config"
	"github.com/unclebandit/mailleopard-backend/internal/logger"
	"github.com/unclebandit/mailleopard-backend/internal/queue"
	"github.com/unclebandit/mailleopard-backend/internal/service"
)

var errNoBroker = errors.New("worker needs a message broker: set CAMPAIGN_AMQP_URL")

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "json").Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.AMQP.URL == "" {
		log.Fatal().Err(errNoBroker).Msg("cannot start worker")
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	if err := startWorker(a.Queue, a.Dispatcher, log); err != nil {
		log.Fatal().Err(err).Msg("failed to register consumer")
	}

	log.Info().Str("queue", queue.TopicCampaignSends).Msg("worker running, waiting for messages")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("worker stopped")
}

func startWorker(q queue.Queue, sender service.CampaignSender, log *logger.Logger) error {
	return service.NewWorker(sender, log).Start(q)
}
