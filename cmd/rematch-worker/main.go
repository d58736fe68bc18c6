package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gracepointe/serveteam-backend/internal/alerts"
	"github.com/gracepointe/serveteam-backend/internal/consumers/rematch"
	"github.com/gracepointe/serveteam-backend/internal/dispatch"
	"github.com/gracepointe/serveteam-backend/internal/matching"
	"github.com/gracepointe/serveteam-backend/internal/roster"
	"github.com/gracepointe/serveteam-backend/pkg/config"
	"github.com/gracepointe/serveteam-backend/pkg/db"
	"github.com/gracepointe/serveteam-backend/pkg/instance"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
	"github.com/gracepointe/serveteam-backend/pkg/mailer"
	"github.com/gracepointe/serveteam-backend/pkg/metrics"
	"github.com/gracepointe/serveteam-backend/pkg/outbox"
	"github.com/gracepointe/serveteam-backend/pkg/outbox/idempotency"
	"github.com/gracepointe/serveteam-backend/pkg/pubsub"
	"github.com/gracepointe/serveteam-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "rematch-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "rematch-worker"

	logg = logger.New(logger.Options{
		ServiceName: "rematch-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	systemActor, err := uuid.Parse(cfg.Eventing.SystemActorID)
	if err != nil {
		requireResource(ctx, logg, "system actor id", fmt.Errorf("parse SERVETEAM_EVENTING_SYSTEM_ACTOR_ID: %w", err))
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database client", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	subscription := pubsubClient.SchedulingSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "scheduling subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	rosterSvc, err := roster.NewService(roster.NewRepository(dbClient.DB()), dbClient, outboxSvc)
	requireResource(ctx, logg, "roster service", err)

	matchingSvc, err := matching.NewService(matching.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "matching service", err)

	alertSvc, err := alerts.NewService(alerts.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "alerts service", err)

	channel, err := mailer.New(cfg.Mailer, cfg.Sendgrid, logg)
	requireResource(ctx, logg, "mail channel", err)

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
	requireResource(ctx, logg, "dispatch service", err)

	consumer, err := rematch.NewConsumer(rosterSvc, matchingSvc, dispatchSvc, alertSvc, manager, logg, systemActor)
	requireResource(ctx, logg, "rematch consumer", err)

	worker, err := rematch.NewWorker(subscription, consumer, logg)
	requireResource(ctx, logg, "rematch worker", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(runCtx, "rematch worker ready")

	if err := worker.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "rematch worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
