package roster

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
	"github.com/gracepointe/serveteam-backend/pkg/outbox"
	"github.com/gracepointe/serveteam-backend/pkg/outbox/payloads"
	"github.com/gracepointe/serveteam-backend/pkg/pagination"
)

// Service manages service plans, role slots, and assignment lifecycle.
type Service interface {
	CreateServicePlan(ctx context.Context, params CreatePlanParams) (*models.ServicePlan, error)
	CreateRoleSlot(ctx context.Context, params CreateSlotParams) (*models.RoleSlot, error)
	AssignVolunteer(ctx context.Context, params AssignParams) (*models.Assignment, error)
	Transition(ctx context.Context, params TransitionParams) (*models.Assignment, error)
	CancelAssignment(ctx context.Context, assignmentID uuid.UUID, actor Actor) (*models.Assignment, error)
	GetPlan(ctx context.Context, planID uuid.UUID) (*models.ServicePlan, error)
	GetSlotPlan(ctx context.Context, slotID uuid.UUID) (*models.ServicePlan, error)
	ListPlans(ctx context.Context, params ListPlansParams) (*ListPlansResult, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Emitter writes domain events through the transactional outbox.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor identifies the caller for audit and event attribution.
type Actor struct {
	UserID uuid.UUID
	Role   enums.CallerRole
}

// CreatePlanParams carries inputs for a new service plan.
type CreatePlanParams struct {
	Title       string
	ServiceDate time.Time
	Ministry    enums.Ministry
	CreatedBy   uuid.UUID
}

// CreateSlotParams carries inputs for a new role slot.
type CreateSlotParams struct {
	ServicePlanID uuid.UUID
	RoleType      string
	RequiredCount int
}

// AssignParams carries inputs for inviting a volunteer into a slot.
type AssignParams struct {
	RoleSlotID  uuid.UUID
	VolunteerID uuid.UUID
	InvitedBy   uuid.UUID
}

// TransitionParams applies one state machine edge to an assignment.
type TransitionParams struct {
	AssignmentID uuid.UUID
	To           enums.AssignmentStatus
	Actor        Actor
	RespondedAt  *time.Time
}

// ListPlansParams configures pagination and filters for plan listing.
type ListPlansParams struct {
	Ministry *enums.Ministry
	FromDate *time.Time
	Limit    int
	Cursor   string
}

// ListPlansResult wraps returned plans and the cursor for the next page.
type ListPlansResult struct {
	Items  []models.ServicePlan `json:"items"`
	Cursor string               `json:"cursor"`
}

type service struct {
	repo    Repository
	tx      TxRunner
	emitter Emitter
	now     func() time.Time
}

// NewService wires roster dependencies.
func NewService(repo Repository, tx TxRunner, emitter Emitter) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "roster repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		emitter: emitter,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateServicePlan(ctx context.Context, params CreatePlanParams) (*models.ServicePlan, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan title required")
	}
	if params.ServiceDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service date required")
	}
	if !params.Ministry.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown ministry")
	}
	if params.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "created by required")
	}

	plan := &models.ServicePlan{
		Title:       title,
		ServiceDate: params.ServiceDate.UTC().Truncate(24 * time.Hour),
		Ministry:    params.Ministry,
		CreatedBy:   params.CreatedBy,
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create service plan")
	}
	return plan, nil
}

func (s *service) CreateRoleSlot(ctx context.Context, params CreateSlotParams) (*models.RoleSlot, error) {
	if params.ServicePlanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service plan id required")
	}
	roleType := strings.TrimSpace(params.RoleType)
	if roleType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role type required")
	}
	if params.RequiredCount < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "required count must be at least 1")
	}

	plan, err := s.repo.FindPlan(ctx, params.ServicePlanID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find service plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service plan not found")
	}

	slot := &models.RoleSlot{
		ServicePlanID: params.ServicePlanID,
		RoleType:      roleType,
		RequiredCount: params.RequiredCount,
	}
	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create role slot")
	}
	return slot, nil
}

func (s *service) AssignVolunteer(ctx context.Context, params AssignParams) (*models.Assignment, error) {
	if params.RoleSlotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role slot id required")
	}
	if params.VolunteerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "volunteer id required")
	}
	if params.InvitedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invited by required")
	}

	slot, err := s.repo.FindSlot(ctx, params.RoleSlotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find role slot")
	}
	if slot == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "role slot not found")
	}

	volunteer, err := s.repo.FindVolunteer(ctx, params.VolunteerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find volunteer")
	}
	if volunteer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "volunteer not found")
	}
	if !volunteer.Active {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "volunteer is deactivated")
	}

	plan, err := s.repo.FindSlotPlan(ctx, params.RoleSlotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find slot plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service plan not found")
	}

	assignment := &models.Assignment{
		RoleSlotID:  params.RoleSlotID,
		VolunteerID: params.VolunteerID,
		Status:      enums.AssignmentStatusInvited,
		InvitedBy:   params.InvitedBy,
		InvitedAt:   s.now(),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		duplicate, err := txRepo.HasActiveForPair(ctx, params.RoleSlotID, params.VolunteerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check duplicate assignment")
		}
		if duplicate {
			return pkgerrors.New(pkgerrors.CodeConflict, "volunteer already holds an active assignment for this slot")
		}

		active, err := txRepo.CountActiveForSlot(ctx, params.RoleSlotID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active assignments")
		}
		if active >= int64(slot.RequiredCount) {
			return pkgerrors.New(pkgerrors.CodeConflict, "role slot is already fully staffed")
		}

		if err := txRepo.CreateAssignment(ctx, assignment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
		}

		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAssignmentInvited,
			AggregateType: enums.AggregateAssignment,
			AggregateID:   assignment.ID,
			Actor:         &outbox.ActorRef{UserID: params.InvitedBy, Role: string(enums.CallerRoleLeader)},
			Data: payloads.AssignmentLifecycleEvent{
				AssignmentID:  assignment.ID,
				RoleSlotID:    slot.ID,
				ServicePlanID: plan.ID,
				VolunteerID:   params.VolunteerID,
				ServiceDate:   plan.ServiceDate,
				Ministry:      plan.Ministry,
				Status:        enums.AssignmentStatusInvited,
			},
			OccurredAt: assignment.InvitedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *service) Transition(ctx context.Context, params TransitionParams) (*models.Assignment, error) {
	if params.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	if !params.To.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown assignment status")
	}

	assignment, err := s.repo.FindAssignment(ctx, params.AssignmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find assignment")
	}
	if assignment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
	}
	if !assignment.Status.CanTransition(params.To) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed from "+string(assignment.Status))
	}

	return s.applyTransition(ctx, assignment, params.To, params.Actor, params.RespondedAt)
}

// CancelAssignment withdraws an assignment from any active state. Cancelling
// an already cancelled assignment is a no-op.
func (s *service) CancelAssignment(ctx context.Context, assignmentID uuid.UUID, actor Actor) (*models.Assignment, error) {
	if assignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}

	assignment, err := s.repo.FindAssignment(ctx, assignmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find assignment")
	}
	if assignment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
	}
	if assignment.Status == enums.AssignmentStatusCancelled {
		return assignment, nil
	}
	if !assignment.Status.CanTransition(enums.AssignmentStatusCancelled) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment already closed as "+string(assignment.Status))
	}

	return s.applyTransition(ctx, assignment, enums.AssignmentStatusCancelled, actor, nil)
}

func (s *service) applyTransition(ctx context.Context, assignment *models.Assignment, to enums.AssignmentStatus, actor Actor, respondedAt *time.Time) (*models.Assignment, error) {
	plan, err := s.repo.FindSlotPlan(ctx, assignment.RoleSlotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find slot plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service plan not found")
	}

	from := assignment.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		updated, err := txRepo.UpdateStatus(ctx, assignment.ID, from, to, respondedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assignment status")
		}
		if !updated {
			// Lost the race with a concurrent transition.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment state changed concurrently")
		}

		eventType, ok := eventTypeForStatus(to)
		if !ok {
			return nil
		}
		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateAssignment,
			AggregateID:   assignment.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data: payloads.AssignmentLifecycleEvent{
				AssignmentID:  assignment.ID,
				RoleSlotID:    assignment.RoleSlotID,
				ServicePlanID: plan.ID,
				VolunteerID:   assignment.VolunteerID,
				ServiceDate:   plan.ServiceDate,
				Ministry:      plan.Ministry,
				Status:        to,
				RespondedAt:   respondedAt,
			},
			OccurredAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	assignment.Status = to
	if respondedAt != nil {
		assignment.RespondedAt = respondedAt
	}
	return assignment, nil
}

func eventTypeForStatus(status enums.AssignmentStatus) (enums.OutboxEventType, bool) {
	switch status {
	case enums.AssignmentStatusAccepted:
		return enums.EventAssignmentAccepted, true
	case enums.AssignmentStatusDeclined:
		return enums.EventAssignmentDeclined, true
	case enums.AssignmentStatusCancelled:
		return enums.EventAssignmentCancelled, true
	default:
		return "", false
	}
}

func (s *service) GetPlan(ctx context.Context, planID uuid.UUID) (*models.ServicePlan, error) {
	if planID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id required")
	}
	plan, err := s.repo.FindPlan(ctx, planID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find service plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service plan not found")
	}
	return plan, nil
}

// GetSlotPlan returns the plan a role slot belongs to.
func (s *service) GetSlotPlan(ctx context.Context, slotID uuid.UUID) (*models.ServicePlan, error) {
	if slotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slot id required")
	}
	plan, err := s.repo.FindSlotPlan(ctx, slotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find slot plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "role slot not found")
	}
	return plan, nil
}

func (s *service) ListPlans(ctx context.Context, params ListPlansParams) (*ListPlansResult, error) {
	query := ListPlansQuery{
		Ministry: params.Ministry,
		FromDate: params.FromDate,
		Limit:    params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	plans, next, err := s.repo.ListPlans(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list service plans")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListPlansResult{Items: plans, Cursor: cursor}, nil
}
