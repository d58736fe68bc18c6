package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/gracepointe/serveteam-backend/pkg/logger"
)

const defaultAlertRetentionDays = 60

type alertPurger interface {
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

// AlertRetentionJobParams configure the alert retention job.
type AlertRetentionJobParams struct {
	Logger    *logger.Logger
	Alerts    alertPurger
	Retention int
}

// NewAlertRetentionJob prunes read alerts older than the retention window.
// Unread alerts are never deleted.
func NewAlertRetentionJob(params AlertRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alerts service required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultAlertRetentionDays
	}
	return &alertRetentionJob{
		logg:      params.Logger,
		alerts:    params.Alerts,
		retention: retention,
	}, nil
}

type alertRetentionJob struct {
	logg      *logger.Logger
	alerts    alertPurger
	retention int
}

func (j *alertRetentionJob) Name() string { return "alert-retention" }

func (j *alertRetentionJob) Run(ctx context.Context) error {
	olderThan := time.Duration(j.retention) * 24 * time.Hour
	deleted, err := j.alerts.PurgeRead(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("alert retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "alert retention complete")
	return nil
}
