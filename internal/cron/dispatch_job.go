package cron

import (
	"context"
	"fmt"

	"github.com/gracepointe/serveteam-backend/internal/dispatch"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
)

const defaultDispatchBatch = 50

type pendingProcessor interface {
	ProcessPending(ctx context.Context, batchSize int) (dispatch.Stats, error)
}

// DispatchJobParams configure the notification dispatch job.
type DispatchJobParams struct {
	Logger     *logger.Logger
	Dispatcher pendingProcessor
	BatchSize  int
}

// NewDispatchJob drains the pending notification queue each cycle.
func NewDispatchJob(params DispatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultDispatchBatch
	}
	return &dispatchJob{
		logg:       params.Logger,
		dispatcher: params.Dispatcher,
		batch:      batch,
	}, nil
}

type dispatchJob struct {
	logg       *logger.Logger
	dispatcher pendingProcessor
	batch      int
}

func (j *dispatchJob) Name() string { return "notification-dispatch" }

func (j *dispatchJob) Run(ctx context.Context) error {
	stats, err := j.dispatcher.ProcessPending(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("process pending notifications: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"sent":    stats.Sent,
		"failed":  stats.Failed,
		"retried": stats.Retried,
	})
	j.logg.Info(logCtx, "notification dispatch complete")
	return nil
}
