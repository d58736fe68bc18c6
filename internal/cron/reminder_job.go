package cron

import (
	"context"
	"fmt"

	"github.com/gracepointe/serveteam-backend/pkg/logger"
)

type reminderEnqueuer interface {
	EnqueueDueReminders(ctx context.Context) (int, error)
}

// ReminderJobParams configure the reminder enqueue job.
type ReminderJobParams struct {
	Logger     *logger.Logger
	Dispatcher reminderEnqueuer
}

// NewReminderJob queues reminder notifications for accepted assignments whose
// service date falls inside the dispatcher's lead window.
func NewReminderJob(params ReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	return &reminderJob{
		logg:       params.Logger,
		dispatcher: params.Dispatcher,
	}, nil
}

type reminderJob struct {
	logg       *logger.Logger
	dispatcher reminderEnqueuer
}

func (j *reminderJob) Name() string { return "reminder-enqueue" }

func (j *reminderJob) Run(ctx context.Context) error {
	queued, err := j.dispatcher.EnqueueDueReminders(ctx)
	if err != nil {
		return fmt.Errorf("enqueue due reminders: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "queued", queued), "reminder enqueue complete")
	return nil
}
