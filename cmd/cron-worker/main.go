package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gracepointe/serveteam-backend/internal/alerts"
	"github.com/gracepointe/serveteam-backend/internal/cron"
	"github.com/gracepointe/serveteam-backend/internal/dispatch"
	"github.com/gracepointe/serveteam-backend/pkg/config"
	"github.com/gracepointe/serveteam-backend/pkg/db"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
	"github.com/gracepointe/serveteam-backend/pkg/mailer"
	"github.com/gracepointe/serveteam-backend/pkg/metrics"
	"github.com/gracepointe/serveteam-backend/pkg/migrate"
	"github.com/gracepointe/serveteam-backend/pkg/outbox"
	"github.com/gracepointe/serveteam-backend/pkg/redis"
)

const lockKeyFormat = "st:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	registry := cron.NewRegistry()
	registerJobs(logg, registry, cfg, dispatchSvc, alertSvc, dbClient)

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func registerJobs(
	logg *logger.Logger,
	registry *cron.Registry,
	cfg *config.Config,
	dispatchSvc dispatch.Service,
	alertSvc alerts.Service,
	dbClient *db.Client,
) {
	jobs := []struct {
		name  string
		build func() (cron.Job, error)
	}{
		{"dispatch", func() (cron.Job, error) {
			return cron.NewDispatchJob(cron.DispatchJobParams{
				Logger:     logg,
				Dispatcher: dispatchSvc,
				BatchSize:  cfg.Dispatch.BatchSize,
			})
		}},
		{"reminder", func() (cron.Job, error) {
			return cron.NewReminderJob(cron.ReminderJobParams{
				Logger:     logg,
				Dispatcher: dispatchSvc,
			})
		}},
		{"notification retention", func() (cron.Job, error) {
			return cron.NewNotificationRetentionJob(cron.NotificationRetentionJobParams{
				Logger:     logg,
				Dispatcher: dispatchSvc,
			})
		}},
		{"alert retention", func() (cron.Job, error) {
			return cron.NewAlertRetentionJob(cron.AlertRetentionJobParams{
				Logger:    logg,
				Alerts:    alertSvc,
				Retention: cfg.Cron.AlertRetention,
			})
		}},
		{"outbox retention", func() (cron.Job, error) {
			return cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
				Logger:     logg,
				DB:         dbClient,
				Repository: outbox.NewRepository(dbClient.DB()),
			})
		}},
	}

	for _, entry := range jobs {
		job, err := entry.build()
		if err != nil {
			logg.Error(context.Background(), "failed to create "+entry.name+" job", err)
			os.Exit(1)
		}
		registry.Register(job)
	}
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
