package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gracepointe/serveteam-backend/api/routes"
	"github.com/gracepointe/serveteam-backend/internal/alerts"
	"github.com/gracepointe/serveteam-backend/internal/availability"
	"github.com/gracepointe/serveteam-backend/internal/dispatch"
	"github.com/gracepointe/serveteam-backend/internal/matching"
	"github.com/gracepointe/serveteam-backend/internal/presence"
	"github.com/gracepointe/serveteam-backend/internal/roster"
	"github.com/gracepointe/serveteam-backend/internal/rsvp"
	"github.com/gracepointe/serveteam-backend/pkg/config"
	"github.com/gracepointe/serveteam-backend/pkg/db"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
	"github.com/gracepointe/serveteam-backend/pkg/mailer"
	"github.com/gracepointe/serveteam-backend/pkg/metrics"
	"github.com/gracepointe/serveteam-backend/pkg/migrate"
	"github.com/gracepointe/serveteam-backend/pkg/outbox"
	"github.com/gracepointe/serveteam-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	availabilitySvc, err := availability.NewService(availability.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}

	rosterSvc, err := roster.NewService(roster.NewRepository(dbClient.DB()), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create roster service", err)
		os.Exit(1)
	}

	matchingSvc, err := matching.NewService(matching.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create matching service", err)
		os.Exit(1)
	}

	alertSvc, err := alerts.NewService(alerts.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create alerts service", err)
		os.Exit(1)
	}

	channel, err := mailer.New(cfg.Mailer, cfg.Sendgrid, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mail channel", err)
		os.Exit(1)
	}

	dispatchSvc, err := dispatch.NewService(dispatch.Options{
		Repo:     dispatch.NewRepository(dbClient.DB()),
		Channel:  channel,
		Alerter:  alertSvc,
		Logger:   logg,
		Metrics:  metrics.NewDispatchMetrics(prometheus.DefaultRegisterer),
		BaseURL:  cfg.App.BaseURL,
		LinkCfg:  cfg.ResponseLink,
		Dispatch: cfg.Dispatch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	rsvpSvc, err := rsvp.NewService(roster.NewRepository(dbClient.DB()), rosterSvc, cfg.ResponseLink)
	if err != nil {
		logg.Error(context.Background(), "failed to create rsvp service", err)
		os.Exit(1)
	}

	presenceSvc, err := presence.NewService(presence.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create presence service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Availability: availabilitySvc,
			Roster:       rosterSvc,
			Matching:     matchingSvc,
			Dispatch:     dispatchSvc,
			RSVP:         rsvpSvc,
			Presence:     presenceSvc,
			Alerts:       alertSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
