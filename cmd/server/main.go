// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unclebandit/mailleopard-backend/internal/app"
	"github.com/unclebandit/mailleopard-backend/internal/config"
	"github.com/unclebandit/mailleopard-backend/internal/controller"
	"github.com/unclebandit/mailleopard-backend/internal/db"
	"github.com/unclebandit/mailleopard-backend/internal/handler"
	"github.com/unclebandit/mailleopard-backend/internal/logger"
	"github.com/unclebandit/mailleopard-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "json").Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	if err := db.MigrateUp(a.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// without a broker the server runs queued dispatches itself
	if a.InProcessQueue() {
		if err := service.NewWorker(a.Dispatcher, log).Start(a.Queue); err != nil {
			log.Fatal().Err(err).Msg("failed to start in-process worker")
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           newRouter(a, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func newRouter(a *app.App, log *logger.Logger) http.Handler {
	campaignController := &controller.CampaignController{CampaignService: a.Campaigns, Logger: log}
	campaignHandler := &handler.CampaignHandler{Service: a.Campaigns, Logger: log}
	contactHandler := &handler.ContactHandler{Service: a.Contacts}
	listHandler := &handler.ListHandler{Service: a.Lists}
	templateHandler := &handler.TemplateHandler{Service: a.Templates}
	logHandler := &handler.LogHandler{Service: a.Logs}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(handler.RequestLogger(log.WithComponent("http")))

	r.Get("/healthz", handler.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	// Contact routes
	r.Post("/contacts", contactHandler.CreateContact)
	r.Get("/contacts", contactHandler.ListContacts)
	r.Post("/contacts/import", contactHandler.ImportContacts)
	r.Get("/contacts/export", contactHandler.ExportContacts)
	r.Get("/contacts/{email}", contactHandler.GetContact)
	r.Patch("/contacts/{email}", contactHandler.UpdateContact)
	r.Delete("/contacts/{email}", contactHandler.DeleteContact)

	// Contact list routes
	r.Post("/lists", listHandler.CreateList)
	r.Post("/lists/{name}/contacts", listHandler.AddContacts)
	r.Get("/lists/{name}/contacts", listHandler.GetContacts)

	// Template routes
	r.Post("/templates", templateHandler.CreateTemplate)
	r.Get("/templates", templateHandler.ListTemplates)
	r.Get("/templates/{name}", templateHandler.GetTemplate)
	r.Delete("/templates/{name}", templateHandler.DeleteTemplate)

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{name}", campaignHandler.GetCampaignHandlerWithStats)
	r.Post("/campaigns/{name}/send", campaignController.SendCampaign)
	r.Post("/campaigns/{name}/preview", campaignController.PersonalizedPreview)

	// Email log routes
	r.Get("/logs", logHandler.GetLogs)
	r.Delete("/logs", logHandler.CleanupLogs)

	return r
}
