package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/gracepointe/serveteam-backend/internal/dispatch"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test"})
}

type fakeDispatcher struct {
	stats      dispatch.Stats
	reminders  int
	purged     int64
	err        error
	batchSizes []int
}

func (f *fakeDispatcher) ProcessPending(ctx context.Context, batchSize int) (dispatch.Stats, error) {
	f.batchSizes = append(f.batchSizes, batchSize)
	return f.stats, f.err
}

func (f *fakeDispatcher) EnqueueDueReminders(ctx context.Context) (int, error) {
	return f.reminders, f.err
}

func (f *fakeDispatcher) PurgeOldRecords(ctx context.Context) (int64, error) {
	return f.purged, f.err
}

func TestDispatchJobProcessesBatch(t *testing.T) {
	dispatcher := &fakeDispatcher{stats: dispatch.Stats{Sent: 3}}
	job, err := NewDispatchJob(DispatchJobParams{Logger: testLogger(), Dispatcher: dispatcher, BatchSize: 10})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "notification-dispatch" {
		t.Fatalf("unexpected name %s", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(dispatcher.batchSizes) != 1 || dispatcher.batchSizes[0] != 10 {
		t.Fatalf("expected batch size 10, got %v", dispatcher.batchSizes)
	}
}

func TestDispatchJobDefaultsBatchSize(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	job, err := NewDispatchJob(DispatchJobParams{Logger: testLogger(), Dispatcher: dispatcher})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if dispatcher.batchSizes[0] != defaultDispatchBatch {
		t.Fatalf("expected default batch, got %d", dispatcher.batchSizes[0])
	}
}

func TestDispatchJobPropagatesError(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("db down")}
	job, _ := NewDispatchJob(DispatchJobParams{Logger: testLogger(), Dispatcher: dispatcher})
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error from failing dispatcher")
	}
}

func TestReminderJobRuns(t *testing.T) {
	dispatcher := &fakeDispatcher{reminders: 4}
	job, err := NewReminderJob(ReminderJobParams{Logger: testLogger(), Dispatcher: dispatcher})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "reminder-enqueue" {
		t.Fatalf("unexpected name %s", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestNotificationRetentionJobRuns(t *testing.T) {
	dispatcher := &fakeDispatcher{purged: 12}
	job, err := NewNotificationRetentionJob(NotificationRetentionJobParams{Logger: testLogger(), Dispatcher: dispatcher})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

type fakeAlertPurger struct {
	olderThan time.Duration
	err       error
}

func (f *fakeAlertPurger) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 2, f.err
}

func TestAlertRetentionJobUsesConfiguredWindow(t *testing.T) {
	purger := &fakeAlertPurger{}
	job, err := NewAlertRetentionJob(AlertRetentionJobParams{Logger: testLogger(), Alerts: purger, Retention: 14})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if purger.olderThan != 14*24*time.Hour {
		t.Fatalf("expected 14 day window, got %s", purger.olderThan)
	}
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutboxRepo struct {
	cutoff  time.Time
	deleted int64
}

func (f *fakeOutboxRepo) DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, nil
}

func TestOutboxRetentionJobComputesCutoff(t *testing.T) {
	repo := &fakeOutboxRepo{deleted: 7}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		DB:         fakeTxRunner{},
		Repository: repo,
		Retention:  10,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return fixed }
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := fixed.Add(-10 * 24 * time.Hour)
	if !repo.cutoff.Equal(want) {
		t.Fatalf("cutoff %s, want %s", repo.cutoff, want)
	}
}
