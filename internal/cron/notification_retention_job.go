package cron

import (
	"context"
	"fmt"

	"github.com/gracepointe/serveteam-backend/pkg/logger"
)

type recordPurger interface {
	PurgeOldRecords(ctx context.Context) (int64, error)
}

// NotificationRetentionJobParams configure the notification retention job.
type NotificationRetentionJobParams struct {
	Logger     *logger.Logger
	Dispatcher recordPurger
}

// NewNotificationRetentionJob prunes sent and failed notification records
// past the dispatcher's retention window.
func NewNotificationRetentionJob(params NotificationRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	return &notificationRetentionJob{
		logg:       params.Logger,
		dispatcher: params.Dispatcher,
	}, nil
}

type notificationRetentionJob struct {
	logg       *logger.Logger
	dispatcher recordPurger
}

func (j *notificationRetentionJob) Name() string { return "notification-retention" }

func (j *notificationRetentionJob) Run(ctx context.Context) error {
	deleted, err := j.dispatcher.PurgeOldRecords(ctx)
	if err != nil {
		return fmt.Errorf("notification retention: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_deleted", deleted), "notification retention complete")
	return nil
}
