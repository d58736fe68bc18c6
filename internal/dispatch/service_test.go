package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gracepointe/serveteam-backend/internal/alerts"
	"github.com/gracepointe/serveteam-backend/pkg/config"
	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
	"github.com/gracepointe/serveteam-backend/pkg/mailer"
)

type fakeRepository struct {
	records     map[uuid.UUID]*models.NotificationRecord
	contexts    map[uuid.UUID]*AssignmentContext
	hasReminder bool

	// Simulates another worker winning the guarded pending->sent write.
	forceMarkSentMiss bool

	// When set, LoadAssignmentContext fails with this error.
	contextErr error

	transientFailures int
	failedMarks       int
	sentMarks         int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		records:  make(map[uuid.UUID]*models.NotificationRecord),
		contexts: make(map[uuid.UUID]*AssignmentContext),
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, record *models.NotificationRecord) error {
	record.ID = uuid.New()
	f.records[record.ID] = record
	return nil
}

func (f *fakeRepository) FindPending(ctx context.Context, limit int) ([]models.NotificationRecord, error) {
	var out []models.NotificationRecord
	for _, record := range f.records {
		if record.Status == enums.NotificationStatusPending && len(out) < limit {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (f *fakeRepository) HasReminder(ctx context.Context, assignmentID uuid.UUID) (bool, error) {
	return f.hasReminder, nil
}

func (f *fakeRepository) MarkSent(ctx context.Context, recordID uuid.UUID, now time.Time, providerMessageID string) (bool, error) {
	if f.forceMarkSentMiss {
		return false, nil
	}
	record, ok := f.records[recordID]
	if !ok || record.Status != enums.NotificationStatusPending {
		return false, nil
	}
	record.Status = enums.NotificationStatusSent
	record.Attempts++
	f.sentMarks++
	return true, nil
}

func (f *fakeRepository) RecordTransientFailure(ctx context.Context, recordID uuid.UUID, now time.Time, sendErr string) error {
	if record, ok := f.records[recordID]; ok {
		record.Attempts++
		record.LastError = &sendErr
	}
	f.transientFailures++
	return nil
}

func (f *fakeRepository) MarkFailed(ctx context.Context, recordID uuid.UUID, now time.Time, sendErr string) (bool, error) {
	record, ok := f.records[recordID]
	if !ok || record.Status != enums.NotificationStatusPending {
		return false, nil
	}
	record.Status = enums.NotificationStatusFailed
	record.Attempts++
	record.LastError = &sendErr
	f.failedMarks++
	return true, nil
}

func (f *fakeRepository) LoadAssignmentContext(ctx context.Context, assignmentID uuid.UUID) (*AssignmentContext, error) {
	if f.contextErr != nil {
		return nil, f.contextErr
	}
	return f.contexts[assignmentID], nil
}

func (f *fakeRepository) AcceptedNeedingReminder(ctx context.Context, from, to time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeChannel struct {
	kind    enums.NotificationChannel
	sendFn  func(ctx context.Context, msg mailer.Message) (*mailer.Result, error)
	sent    []mailer.Message
	panicOn bool
}

func (f *fakeChannel) Kind() enums.NotificationChannel {
	if f.kind == "" {
		return enums.NotificationChannelConsole
	}
	return f.kind
}

func (f *fakeChannel) Send(ctx context.Context, msg mailer.Message) (*mailer.Result, error) {
	if f.panicOn {
		panic("provider client exploded")
	}
	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	f.sent = append(f.sent, msg)
	return &mailer.Result{ProviderMessageID: "prov-1"}, nil
}

type fakeAlerter struct {
	raised []alerts.RaiseParams
}

func (f *fakeAlerter) Raise(ctx context.Context, params alerts.RaiseParams) error {
	f.raised = append(f.raised, params)
	return nil
}

func futureContext(assignmentID uuid.UUID) *AssignmentContext {
	return &AssignmentContext{
		Assignment: models.Assignment{ID: assignmentID, VolunteerID: uuid.New(), Status: enums.AssignmentStatusInvited},
		Volunteer:  models.Volunteer{ID: uuid.New(), DisplayName: "Jamie Rivera", Email: "jamie@example.com", Active: true},
		Slot:       models.RoleSlot{ID: uuid.New(), RoleType: "vocalist", RequiredCount: 2},
		Plan: models.ServicePlan{
			ID:          uuid.New(),
			Title:       "Sunday AM",
			ServiceDate: time.Now().UTC().AddDate(0, 0, 14).Truncate(24 * time.Hour),
			Ministry:    enums.MinistryWorship,
		},
	}
}

func newDispatcher(repo Repository, channel mailer.Channel, alerter Alerter) Service {
	svc, err := NewService(Options{
		Repo:    repo,
		Channel: channel,
		Alerter: alerter,
		BaseURL: "https://serve.gracepointe.org",
		LinkCfg: config.ResponseLinkConfig{Secret: "link-secret", TailTTL: 48 * time.Hour},
		Dispatch: config.DispatchConfig{
			BatchSize:   25,
			MaxAttempts: 3,
			SendTimeout: time.Second,
		},
	})
	if err != nil {
		panic(err)
	}
	return svc
}

func TestEnqueueInviteRendersLinks(t *testing.T) {
	repo := newFakeRepository()
	assignmentID := uuid.New()
	repo.contexts[assignmentID] = futureContext(assignmentID)

	svc := newDispatcher(repo, &fakeChannel{}, &fakeAlerter{})

	record, err := svc.Enqueue(context.Background(), assignmentID, enums.NotificationKindInvite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != enums.NotificationStatusPending {
		t.Fatalf("expected pending record")
	}
	if !strings.Contains(record.BodyText, "/api/v1/respond?token=") {
		t.Fatalf("invite body missing response link: %s", record.BodyText)
	}
	if !strings.Contains(record.Subject, "vocalist") {
		t.Fatalf("subject missing role type: %s", record.Subject)
	}
	if record.BodyHTML == "" {
		t.Fatalf("expected html body")
	}
}

func TestEnqueueReminderConflict(t *testing.T) {
	repo := newFakeRepository()
	assignmentID := uuid.New()
	repo.contexts[assignmentID] = futureContext(assignmentID)
	repo.hasReminder = true

	svc := newDispatcher(repo, &fakeChannel{}, &fakeAlerter{})

	_, err := svc.Enqueue(context.Background(), assignmentID, enums.NotificationKindReminder)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate reminder, got %v", err)
	}
}

func TestEnqueueUnknownAssignment(t *testing.T) {
	svc := newDispatcher(newFakeRepository(), &fakeChannel{}, &fakeAlerter{})

	_, err := svc.Enqueue(context.Background(), uuid.New(), enums.NotificationKindInvite)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func enqueueInvite(t *testing.T, svc Service, repo *fakeRepository) *models.NotificationRecord {
	t.Helper()
	assignmentID := uuid.New()
	repo.contexts[assignmentID] = futureContext(assignmentID)
	record, err := svc.Enqueue(context.Background(), assignmentID, enums.NotificationKindInvite)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return record
}

func TestProcessPendingSends(t *testing.T) {
	repo := newFakeRepository()
	channel := &fakeChannel{}
	svc := newDispatcher(repo, channel, &fakeAlerter{})
	record := enqueueInvite(t, svc, repo)

	stats, err := svc.ProcessPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Sent != 1 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if repo.records[record.ID].Status != enums.NotificationStatusSent {
		t.Fatalf("record not marked sent")
	}
	if len(channel.sent) != 1 || channel.sent[0].ToAddress != "jamie@example.com" {
		t.Fatalf("message not delivered to volunteer")
	}
}

func TestProcessPendingRetriesTransient(t *testing.T) {
	repo := newFakeRepository()
	channel := &fakeChannel{
		sendFn: func(ctx context.Context, msg mailer.Message) (*mailer.Result, error) {
			return nil, &mailer.TransientError{Err: errors.New("timeout")}
		},
	}
	alerter := &fakeAlerter{}
	svc := newDispatcher(repo, channel, alerter)
	record := enqueueInvite(t, svc, repo)

	stats, err := svc.ProcessPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Sent != 0 || stats.Failed != 0 || stats.Retried != 1 {
		t.Fatalf("transient failure under cap should count as a retry, got %+v", stats)
	}
	got := repo.records[record.ID]
	if got.Status != enums.NotificationStatusPending {
		t.Fatalf("record should stay pending for retry, got %s", got.Status)
	}
	if got.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", got.Attempts)
	}
	if len(alerter.raised) != 0 {
		t.Fatalf("no alert expected while retries remain")
	}
}

func TestProcessPendingContextLoadErrorStaysRetriable(t *testing.T) {
	repo := newFakeRepository()
	channel := &fakeChannel{}
	alerter := &fakeAlerter{}
	svc := newDispatcher(repo, channel, alerter)
	record := enqueueInvite(t, svc, repo)

	repo.contextErr = errors.New("connection reset by peer")
	stats, err := svc.ProcessPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Sent != 0 || stats.Failed != 0 || stats.Retried != 1 {
		t.Fatalf("store error should leave the record retriable, got %+v", stats)
	}
	got := repo.records[record.ID]
	if got.Status != enums.NotificationStatusPending {
		t.Fatalf("record should stay pending, got %s", got.Status)
	}
	if got.Attempts != 1 {
		t.Fatalf("expected one transient attempt, got %d", got.Attempts)
	}
	if len(alerter.raised) != 0 {
		t.Fatalf("no alert expected for a transient store error")
	}

	// Once the store recovers the same record goes out.
	repo.contextErr = nil
	stats, err = svc.ProcessPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Sent != 1 {
		t.Fatalf("expected recovery send, got %+v", stats)
	}
	if repo.records[record.ID].Status != enums.NotificationStatusSent {
		t.Fatalf("record not marked sent after recovery")
	}
}

func TestProcessPendingFailsAtAttemptCap(t *testing.T) {
	repo := newFakeRepository()
	channel := &fakeChannel{
		sendFn: func(ctx context.Context, msg mailer.Message) (*mailer.Result, error) {
			return nil, &mailer.TransientError{Err: errors.New("timeout")}
		},
	}
	alerter := &fakeAlerter{}
	svc := newDispatcher(repo, channel, alerter)
	record := enqueueInvite(t, svc, repo)

	for i := 0; i < 3; i++ {
		if _, err := svc.ProcessPending(context.Background(), 10); err != nil {
			t.Fatalf("batch %d: %v", i, err)
		}
	}

	got := repo.records[record.ID]
	if got.Status != enums.NotificationStatusFailed {
		t.Fatalf("expected terminal failed status, got %s", got.Status)
	}
	if got.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", got.Attempts)
	}
	if len(alerter.raised) != 1 {
		t.Fatalf("expected exactly one delivery alert, got %d", len(alerter.raised))
	}
	if alerter.raised[0].Kind != enums.AlertKindDeliveryFailed {
		t.Fatalf("unexpected alert kind %s", alerter.raised[0].Kind)
	}
}

func TestProcessPendingPermanentFailureSkipsRetry(t *testing.T) {
	repo := newFakeRepository()
	channel := &fakeChannel{
		sendFn: func(ctx context.Context, msg mailer.Message) (*mailer.Result, error) {
			return nil, &mailer.PermanentError{Err: errors.New("recipient rejected")}
		},
	}
	alerter := &fakeAlerter{}
	svc := newDispatcher(repo, channel, alerter)
	record := enqueueInvite(t, svc, repo)

	stats, err := svc.ProcessPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("permanent failure should be terminal, got %+v", stats)
	}
	if repo.records[record.ID].Status != enums.NotificationStatusFailed {
		t.Fatalf("record should be failed after permanent rejection")
	}
	if len(alerter.raised) != 1 {
		t.Fatalf("expected delivery alert")
	}
}

func TestProcessPendingConcurrentFinisherSkipped(t *testing.T) {
	repo := newFakeRepository()
	channel := &fakeChannel{}
	svc := newDispatcher(repo, channel, &fakeAlerter{})
	enqueueInvite(t, svc, repo)
	repo.forceMarkSentMiss = true

	stats, err := svc.ProcessPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Sent != 0 || stats.Failed != 0 {
		t.Fatalf("losing the guarded write should count as neither sent nor failed, got %+v", stats)
	}
}

func TestProcessPendingCapturesPanic(t *testing.T) {
	repo := newFakeRepository()
	channel := &fakeChannel{panicOn: true}
	alerter := &fakeAlerter{}
	svc := newDispatcher(repo, channel, alerter)
	record := enqueueInvite(t, svc, repo)

	stats, err := svc.ProcessPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("panic must not escape the batch: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("panicking send should count as failed, got %+v", stats)
	}
	got := repo.records[record.ID]
	if got.LastError == nil || !strings.Contains(*got.LastError, "panic") {
		t.Fatalf("panic not captured into record")
	}
}
