package rematch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/internal/alerts"
	"github.com/gracepointe/serveteam-backend/internal/matching"
	"github.com/gracepointe/serveteam-backend/internal/roster"
	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
	"github.com/gracepointe/serveteam-backend/pkg/outbox"
	"github.com/gracepointe/serveteam-backend/pkg/outbox/payloads"
)

const rematchConsumerName = "rematch"

type assigner interface {
	AssignVolunteer(ctx context.Context, params roster.AssignParams) (*models.Assignment, error)
}

type matcher interface {
	DefaultPool(ctx context.Context, ministry enums.Ministry) ([]models.Volunteer, error)
	FindCandidates(ctx context.Context, slot matching.SlotContext, pool []models.Volunteer) ([]models.Volunteer, error)
}

type inviteEnqueuer interface {
	Enqueue(ctx context.Context, assignmentID uuid.UUID, kind enums.NotificationKind) (*models.NotificationRecord, error)
}

type alertRaiser interface {
	Raise(ctx context.Context, params alerts.RaiseParams) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer refills role slots vacated by a decline or cancellation. It picks
// the best remaining candidate and sends a fresh invitation, or raises an
// unfilled-slot alert when nobody is left.
type Consumer struct {
	roster      assigner
	matching    matcher
	dispatch    inviteEnqueuer
	alerter     alertRaiser
	manager     idempotencyChecker
	logg        *logger.Logger
	systemActor uuid.UUID
}

// NewConsumer builds the rematch consumer. systemActor attributes the
// automatic re-invitations it creates.
func NewConsumer(rosterSvc assigner, matchingSvc matcher, dispatchSvc inviteEnqueuer, alerter alertRaiser, manager idempotencyChecker, logg *logger.Logger, systemActor uuid.UUID) (*Consumer, error) {
	if rosterSvc == nil {
		return nil, fmt.Errorf("roster service required")
	}
	if matchingSvc == nil {
		return nil, fmt.Errorf("matching service required")
	}
	if dispatchSvc == nil {
		return nil, fmt.Errorf("dispatch service required")
	}
	if alerter == nil {
		return nil, fmt.Errorf("alerter required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if systemActor == uuid.Nil {
		return nil, fmt.Errorf("system actor id required")
	}
	return &Consumer{
		roster:      rosterSvc,
		matching:    matchingSvc,
		dispatch:    dispatchSvc,
		alerter:     alerter,
		manager:     manager,
		logg:        logg,
		systemActor: systemActor,
	}, nil
}

// Process handles one scheduling event. Events that do not vacate a slot are
// acknowledged without action.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if !eventType.VacatesSlot() {
		c.logg.Info(logCtx, "event not handled by rematch consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, rematchConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	var event payloads.AssignmentLifecycleEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode assignment event", err)
		_ = c.manager.Delete(ctx, rematchConsumerName, eventID)
		return err
	}

	if err := c.refillSlot(logCtx, event); err != nil {
		_ = c.manager.Delete(ctx, rematchConsumerName, eventID)
		return err
	}
	return nil
}

func (c *Consumer) refillSlot(ctx context.Context, event payloads.AssignmentLifecycleEvent) error {
	pool, err := c.matching.DefaultPool(ctx, event.Ministry)
	if err != nil {
		return fmt.Errorf("load candidate pool: %w", err)
	}

	candidates, err := c.matching.FindCandidates(ctx, matching.SlotContext{
		RoleSlotID:  event.RoleSlotID,
		ServiceDate: event.ServiceDate,
		Ministry:    event.Ministry,
	}, pool)
	if err != nil {
		return fmt.Errorf("rank candidates: %w", err)
	}

	// The volunteer who just vacated the slot is never re-invited for it.
	next := pickCandidate(candidates, event.VolunteerID)
	if next == nil {
		c.logg.Warn(ctx, "no replacement candidate for vacated slot")
		return c.raiseUnfilled(ctx, event)
	}

	assignment, err := c.roster.AssignVolunteer(ctx, roster.AssignParams{
		RoleSlotID:  event.RoleSlotID,
		VolunteerID: next.ID,
		InvitedBy:   c.systemActor,
	})
	if err != nil {
		return fmt.Errorf("assign replacement volunteer: %w", err)
	}

	if _, err := c.dispatch.Enqueue(ctx, assignment.ID, enums.NotificationKindInvite); err != nil {
		return fmt.Errorf("enqueue replacement invite: %w", err)
	}

	c.logg.Info(c.logg.WithField(ctx, "replacement_volunteer_id", next.ID.String()), "vacated slot refilled")
	return nil
}

func (c *Consumer) raiseUnfilled(ctx context.Context, event payloads.AssignmentLifecycleEvent) error {
	slotID := event.RoleSlotID
	err := c.alerter.Raise(ctx, alerts.RaiseParams{
		Kind:     enums.AlertKindUnfilledSlot,
		Ministry: event.Ministry,
		Title:    "Role slot needs a volunteer",
		Message:  fmt.Sprintf("No available volunteer could be invited for the %s service on %s.", event.Ministry, event.ServiceDate.Format("2006-01-02")),
		Subject:  &slotID,
	})
	if err != nil {
		return fmt.Errorf("raise unfilled slot alert: %w", err)
	}
	return nil
}

func pickCandidate(candidates []models.Volunteer, vacated uuid.UUID) *models.Volunteer {
	for i := range candidates {
		if candidates[i].ID != vacated {
			return &candidates[i]
		}
	}
	return nil
}
