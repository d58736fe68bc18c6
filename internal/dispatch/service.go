package dispatch

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/internal/alerts"
	"github.com/gracepointe/serveteam-backend/pkg/auth"
	"github.com/gracepointe/serveteam-backend/pkg/config"
	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
	"github.com/gracepointe/serveteam-backend/pkg/mailer"
	"github.com/gracepointe/serveteam-backend/pkg/metrics"
)

// Stats summarizes one batch run.
type Stats struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Retried int `json:"retried"`
}

// Service creates notification records and drives the delivery retry loop.
type Service interface {
	Enqueue(ctx context.Context, assignmentID uuid.UUID, kind enums.NotificationKind) (*models.NotificationRecord, error)
	ProcessPending(ctx context.Context, batchSize int) (Stats, error)
	EnqueueDueReminders(ctx context.Context) (int, error)
	PurgeOldRecords(ctx context.Context) (int64, error)
}

// Alerter raises leader-facing alerts for terminal failures.
type Alerter interface {
	Raise(ctx context.Context, params alerts.RaiseParams) error
}

type service struct {
	repo    Repository
	channel mailer.Channel
	alerter Alerter
	logg    *logger.Logger
	metrics *metrics.DispatchMetrics

	baseURL      string
	linkCfg      config.ResponseLinkConfig
	maxAttempts  int
	sendTimeout  time.Duration
	reminderLead time.Duration
	retention    time.Duration

	now func() time.Time
}

// Options carries construction dependencies for the dispatcher.
type Options struct {
	Repo     Repository
	Channel  mailer.Channel
	Alerter  Alerter
	Logger   *logger.Logger
	Metrics  *metrics.DispatchMetrics
	BaseURL  string
	LinkCfg  config.ResponseLinkConfig
	Dispatch config.DispatchConfig
}

// NewService wires dispatcher dependencies.
func NewService(opts Options) (Service, error) {
	if opts.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dispatch repository required")
	}
	if opts.Channel == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "delivery channel required")
	}
	if opts.Alerter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "alerter required")
	}

	maxAttempts := opts.Dispatch.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	sendTimeout := opts.Dispatch.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	reminderLead := opts.Dispatch.ReminderLead
	if reminderLead <= 0 {
		reminderLead = 24 * time.Hour
	}
	retentionDays := opts.Dispatch.RecordRetention
	if retentionDays <= 0 {
		retentionDays = 90
	}

	return &service{
		repo:         opts.Repo,
		channel:      opts.Channel,
		alerter:      opts.Alerter,
		logg:         opts.Logger,
		metrics:      opts.Metrics,
		baseURL:      opts.BaseURL,
		linkCfg:      opts.LinkCfg,
		maxAttempts:  maxAttempts,
		sendTimeout:  sendTimeout,
		reminderLead: reminderLead,
		retention:    time.Duration(retentionDays) * 24 * time.Hour,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Enqueue(ctx context.Context, assignmentID uuid.UUID, kind enums.NotificationKind) (*models.NotificationRecord, error) {
	if assignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown notification kind")
	}

	actx, err := s.repo.LoadAssignmentContext(ctx, assignmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment context")
	}
	if actx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
	}

	if kind == enums.NotificationKindReminder {
		exists, err := s.repo.HasReminder(ctx, assignmentID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing reminder")
		}
		if exists {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "reminder already enqueued")
		}
	}

	subject, text, html, err := s.render(kind, actx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render notification")
	}

	record := &models.NotificationRecord{
		AssignmentID: assignmentID,
		Kind:         kind,
		Channel:      s.channel.Kind(),
		Status:       enums.NotificationStatusPending,
		Subject:      subject,
		BodyText:     text,
		BodyHTML:     html,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification record")
	}
	return record, nil
}

func (s *service) render(kind enums.NotificationKind, actx *AssignmentContext) (subject, text, html string, err error) {
	serviceDate := formatServiceDate(actx.Plan.ServiceDate)

	switch kind {
	case enums.NotificationKindInvite:
		acceptURL, declineURL, linkErr := s.responseLinks(actx)
		if linkErr != nil {
			return "", "", "", linkErr
		}
		return renderInvite(inviteData{
			VolunteerName: actx.Volunteer.DisplayName,
			RoleType:      actx.Slot.RoleType,
			PlanTitle:     actx.Plan.Title,
			ServiceDate:   serviceDate,
			AcceptURL:     acceptURL,
			DeclineURL:    declineURL,
		})
	case enums.NotificationKindReminder:
		return renderReminder(reminderData{
			VolunteerName: actx.Volunteer.DisplayName,
			RoleType:      actx.Slot.RoleType,
			PlanTitle:     actx.Plan.Title,
			ServiceDate:   serviceDate,
		})
	default:
		return "", "", "", fmt.Errorf("unknown notification kind %q", kind)
	}
}

func (s *service) responseLinks(actx *AssignmentContext) (acceptURL, declineURL string, err error) {
	now := s.now()
	acceptToken, err := auth.MintResponseLink(s.linkCfg, now, actx.Assignment.ID, actx.Volunteer.ID, enums.AssignmentStatusAccepted, actx.Plan.ServiceDate)
	if err != nil {
		return "", "", fmt.Errorf("mint accept link: %w", err)
	}
	declineToken, err := auth.MintResponseLink(s.linkCfg, now, actx.Assignment.ID, actx.Volunteer.ID, enums.AssignmentStatusDeclined, actx.Plan.ServiceDate)
	if err != nil {
		return "", "", fmt.Errorf("mint decline link: %w", err)
	}
	return s.respondURL(acceptToken), s.respondURL(declineToken), nil
}

func (s *service) respondURL(token string) string {
	return fmt.Sprintf("%s/api/v1/respond?token=%s", s.baseURL, url.QueryEscape(token))
}

// ProcessPending is the retry loop. Safe to invoke repeatedly: a record that
// reached sent is skipped by the guarded status write, and provider failures
// are captured into the record instead of propagating.
func (s *service) ProcessPending(ctx context.Context, batchSize int) (Stats, error) {
	if batchSize <= 0 {
		batchSize = 25
	}

	records, err := s.repo.FindPending(ctx, batchSize)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending notifications")
	}

	var stats Stats
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		switch s.processOne(ctx, record) {
		case outcomeSent:
			stats.Sent++
		case outcomeFailed:
			stats.Failed++
		case outcomeRetry:
			stats.Retried++
		}
	}
	return stats, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSent
	outcomeFailed
	outcomeRetry
)

func (s *service) processOne(ctx context.Context, record models.NotificationRecord) (result outcome) {
	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithFields(ctx, map[string]any{
			"notification_id": record.ID.String(),
			"kind":            string(record.Kind),
		})
	}

	// A panicking channel implementation must not take down the batch.
	defer func() {
		if rec := recover(); rec != nil {
			if s.logg != nil {
				s.logg.Error(logCtx, "panic during notification send", fmt.Errorf("%v", rec))
			}
			s.handleFailure(logCtx, record, fmt.Sprintf("panic: %v", rec), false)
			result = outcomeFailed
		}
	}()

	if record.Status.IsTerminal() {
		return outcomeSkipped
	}

	actx, err := s.repo.LoadAssignmentContext(ctx, record.AssignmentID)
	if err != nil {
		// A store error says nothing about the provider; keep the record
		// retriable instead of burning its attempt budget.
		return s.handleFailure(logCtx, record, "load assignment context: "+err.Error(), true)
	}
	if actx == nil {
		s.handleFailure(logCtx, record, "assignment context unavailable", false)
		return outcomeFailed
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	res, sendErr := s.channel.Send(sendCtx, mailer.Message{
		ToName:    actx.Volunteer.DisplayName,
		ToAddress: actx.Volunteer.Email,
		Subject:   record.Subject,
		TextBody:  record.BodyText,
		HTMLBody:  record.BodyHTML,
	})
	if sendErr == nil {
		providerID := ""
		if res != nil {
			providerID = res.ProviderMessageID
		}
		updated, err := s.repo.MarkSent(ctx, record.ID, s.now(), providerID)
		if err != nil {
			if s.logg != nil {
				s.logg.Error(logCtx, "mark notification sent", err)
			}
			return outcomeFailed
		}
		if !updated {
			// Another worker already finished this record.
			return outcomeSkipped
		}
		s.metrics.IncSent(string(record.Channel), string(record.Kind))
		return outcomeSent
	}

	retryable := !mailer.IsPermanent(sendErr)
	return s.handleFailure(logCtx, record, sendErr.Error(), retryable)
}

func (s *service) handleFailure(ctx context.Context, record models.NotificationRecord, sendErr string, retryable bool) outcome {
	now := s.now()

	if retryable && record.Attempts+1 < s.maxAttempts {
		if err := s.repo.RecordTransientFailure(ctx, record.ID, now, sendErr); err != nil && s.logg != nil {
			s.logg.Error(ctx, "record transient failure", err)
		}
		s.metrics.IncRetried(string(record.Channel), string(record.Kind))
		return outcomeRetry
	}

	marked, err := s.repo.MarkFailed(ctx, record.ID, now, sendErr)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "mark notification failed", err)
		}
		return outcomeFailed
	}
	if !marked {
		return outcomeSkipped
	}
	s.metrics.IncFailed(string(record.Channel), string(record.Kind))
	s.raiseDeliveryAlert(ctx, record, sendErr)
	return outcomeFailed
}

func (s *service) raiseDeliveryAlert(ctx context.Context, record models.NotificationRecord, sendErr string) {
	actx, err := s.repo.LoadAssignmentContext(ctx, record.AssignmentID)
	if err != nil || actx == nil {
		if s.logg != nil {
			s.logg.Error(ctx, "load context for delivery alert", err)
		}
		return
	}

	alertErr := s.alerter.Raise(ctx, alerts.RaiseParams{
		Kind:     enums.AlertKindDeliveryFailed,
		Ministry: actx.Plan.Ministry,
		Title:    fmt.Sprintf("Delivery failed: %s to %s", record.Kind, actx.Volunteer.DisplayName),
		Message:  fmt.Sprintf("Could not deliver the %s for %s (%s): %s", record.Kind, actx.Plan.Title, actx.Slot.RoleType, sendErr),
		Subject:  &record.AssignmentID,
	})
	if alertErr != nil && s.logg != nil {
		s.logg.Error(ctx, "raise delivery alert", alertErr)
	}
}

// EnqueueDueReminders creates reminder records for accepted assignments whose
// service date falls inside the lead window.
func (s *service) EnqueueDueReminders(ctx context.Context) (int, error) {
	now := s.now()
	from := now.Truncate(24 * time.Hour)
	to := now.Add(s.reminderLead).Truncate(24 * time.Hour)

	ids, err := s.repo.AcceptedNeedingReminder(ctx, from, to)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find assignments needing reminders")
	}

	enqueued := 0
	for _, id := range ids {
		if _, err := s.Enqueue(ctx, id, enums.NotificationKindReminder); err != nil {
			appErr := pkgerrors.As(err)
			if appErr != nil && appErr.Code() == pkgerrors.CodeConflict {
				continue
			}
			if s.logg != nil {
				s.logg.Error(ctx, "enqueue reminder", err)
			}
			continue
		}
		enqueued++
	}
	return enqueued, nil
}

// PurgeOldRecords removes terminal notification records past retention.
func (s *service) PurgeOldRecords(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	deleted, err := s.repo.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge notification records")
	}
	return deleted, nil
}
