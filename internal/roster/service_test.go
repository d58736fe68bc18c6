package roster

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
	"github.com/gracepointe/serveteam-backend/pkg/outbox"
	"github.com/gracepointe/serveteam-backend/pkg/pagination"
)

type fakeRepository struct {
	createPlanFn         func(ctx context.Context, plan *models.ServicePlan) error
	findPlanFn           func(ctx context.Context, planID uuid.UUID) (*models.ServicePlan, error)
	listPlansFn          func(ctx context.Context, params ListPlansQuery) ([]models.ServicePlan, *pagination.Cursor, error)
	createSlotFn         func(ctx context.Context, slot *models.RoleSlot) error
	findSlotFn           func(ctx context.Context, slotID uuid.UUID) (*models.RoleSlot, error)
	findSlotPlanFn       func(ctx context.Context, slotID uuid.UUID) (*models.ServicePlan, error)
	createAssignmentFn   func(ctx context.Context, assignment *models.Assignment) error
	findAssignmentFn     func(ctx context.Context, assignmentID uuid.UUID) (*models.Assignment, error)
	countActiveForSlotFn func(ctx context.Context, slotID uuid.UUID) (int64, error)
	hasActiveForPairFn   func(ctx context.Context, slotID, volunteerID uuid.UUID) (bool, error)
	updateStatusFn       func(ctx context.Context, assignmentID uuid.UUID, from, to enums.AssignmentStatus, respondedAt *time.Time) (bool, error)
	findVolunteerFn      func(ctx context.Context, volunteerID uuid.UUID) (*models.Volunteer, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreatePlan(ctx context.Context, plan *models.ServicePlan) error {
	if f.createPlanFn != nil {
		return f.createPlanFn(ctx, plan)
	}
	return nil
}

func (f *fakeRepository) FindPlan(ctx context.Context, planID uuid.UUID) (*models.ServicePlan, error) {
	if f.findPlanFn != nil {
		return f.findPlanFn(ctx, planID)
	}
	return &models.ServicePlan{ID: planID}, nil
}

func (f *fakeRepository) ListPlans(ctx context.Context, params ListPlansQuery) ([]models.ServicePlan, *pagination.Cursor, error) {
	if f.listPlansFn != nil {
		return f.listPlansFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeRepository) CreateSlot(ctx context.Context, slot *models.RoleSlot) error {
	if f.createSlotFn != nil {
		return f.createSlotFn(ctx, slot)
	}
	return nil
}

func (f *fakeRepository) FindSlot(ctx context.Context, slotID uuid.UUID) (*models.RoleSlot, error) {
	if f.findSlotFn != nil {
		return f.findSlotFn(ctx, slotID)
	}
	return &models.RoleSlot{ID: slotID, RequiredCount: 2}, nil
}

func (f *fakeRepository) FindSlotPlan(ctx context.Context, slotID uuid.UUID) (*models.ServicePlan, error) {
	if f.findSlotPlanFn != nil {
		return f.findSlotPlanFn(ctx, slotID)
	}
	return &models.ServicePlan{ID: uuid.New(), Ministry: enums.MinistryWorship}, nil
}

func (f *fakeRepository) CreateAssignment(ctx context.Context, assignment *models.Assignment) error {
	if f.createAssignmentFn != nil {
		return f.createAssignmentFn(ctx, assignment)
	}
	assignment.ID = uuid.New()
	return nil
}

func (f *fakeRepository) FindAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.Assignment, error) {
	if f.findAssignmentFn != nil {
		return f.findAssignmentFn(ctx, assignmentID)
	}
	return nil, nil
}

func (f *fakeRepository) CountActiveForSlot(ctx context.Context, slotID uuid.UUID) (int64, error) {
	if f.countActiveForSlotFn != nil {
		return f.countActiveForSlotFn(ctx, slotID)
	}
	return 0, nil
}

func (f *fakeRepository) HasActiveForPair(ctx context.Context, slotID, volunteerID uuid.UUID) (bool, error) {
	if f.hasActiveForPairFn != nil {
		return f.hasActiveForPairFn(ctx, slotID, volunteerID)
	}
	return false, nil
}

func (f *fakeRepository) UpdateStatus(ctx context.Context, assignmentID uuid.UUID, from, to enums.AssignmentStatus, respondedAt *time.Time) (bool, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, assignmentID, from, to, respondedAt)
	}
	return true, nil
}

func (f *fakeRepository) FindVolunteer(ctx context.Context, volunteerID uuid.UUID) (*models.Volunteer, error) {
	if f.findVolunteerFn != nil {
		return f.findVolunteerFn(ctx, volunteerID)
	}
	return &models.Volunteer{ID: volunteerID, Active: true}, nil
}

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newServiceWith(repo Repository, emitter *fakeEmitter) Service {
	svc, _ := NewService(repo, &fakeTxRunner{}, emitter)
	return svc
}

func TestCreateServicePlanValidation(t *testing.T) {
	svc := newServiceWith(&fakeRepository{}, &fakeEmitter{})

	cases := []struct {
		name   string
		params CreatePlanParams
	}{
		{"empty title", CreatePlanParams{ServiceDate: time.Now(), Ministry: enums.MinistryWorship, CreatedBy: uuid.New()}},
		{"zero date", CreatePlanParams{Title: "Sunday AM", Ministry: enums.MinistryWorship, CreatedBy: uuid.New()}},
		{"bad ministry", CreatePlanParams{Title: "Sunday AM", ServiceDate: time.Now(), Ministry: enums.Ministry("circus"), CreatedBy: uuid.New()}},
		{"missing creator", CreatePlanParams{Title: "Sunday AM", ServiceDate: time.Now(), Ministry: enums.MinistryWorship}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateServicePlan(context.Background(), tc.params)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateServicePlanTruncatesDate(t *testing.T) {
	var created *models.ServicePlan
	repo := &fakeRepository{
		createPlanFn: func(ctx context.Context, plan *models.ServicePlan) error {
			created = plan
			return nil
		},
	}
	svc := newServiceWith(repo, &fakeEmitter{})

	_, err := svc.CreateServicePlan(context.Background(), CreatePlanParams{
		Title:       "Sunday AM",
		ServiceDate: time.Date(2026, time.April, 5, 10, 30, 0, 0, time.UTC),
		Ministry:    enums.MinistryWorship,
		CreatedBy:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil || !created.ServiceDate.Equal(time.Date(2026, time.April, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("service date not truncated")
	}
}

func TestCreateRoleSlotRequiresPositiveCount(t *testing.T) {
	svc := newServiceWith(&fakeRepository{}, &fakeEmitter{})

	_, err := svc.CreateRoleSlot(context.Background(), CreateSlotParams{
		ServicePlanID: uuid.New(),
		RoleType:      "vocalist",
		RequiredCount: 0,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAssignVolunteerHappyPath(t *testing.T) {
	emitter := &fakeEmitter{}
	svc := newServiceWith(&fakeRepository{}, emitter)

	assignment, err := svc.AssignVolunteer(context.Background(), AssignParams{
		RoleSlotID:  uuid.New(),
		VolunteerID: uuid.New(),
		InvitedBy:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignment.Status != enums.AssignmentStatusInvited {
		t.Fatalf("expected invited status, got %s", assignment.Status)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(emitter.events))
	}
	if emitter.events[0].EventType != enums.EventAssignmentInvited {
		t.Fatalf("unexpected event type %s", emitter.events[0].EventType)
	}
}

func TestAssignVolunteerDuplicateGuard(t *testing.T) {
	repo := &fakeRepository{
		hasActiveForPairFn: func(ctx context.Context, slotID, volunteerID uuid.UUID) (bool, error) {
			return true, nil
		},
	}
	svc := newServiceWith(repo, &fakeEmitter{})

	_, err := svc.AssignVolunteer(context.Background(), AssignParams{
		RoleSlotID:  uuid.New(),
		VolunteerID: uuid.New(),
		InvitedBy:   uuid.New(),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestAssignVolunteerCapacityGuard(t *testing.T) {
	repo := &fakeRepository{
		findSlotFn: func(ctx context.Context, slotID uuid.UUID) (*models.RoleSlot, error) {
			return &models.RoleSlot{ID: slotID, RequiredCount: 1}, nil
		},
		countActiveForSlotFn: func(ctx context.Context, slotID uuid.UUID) (int64, error) {
			return 1, nil
		},
	}
	svc := newServiceWith(repo, &fakeEmitter{})

	_, err := svc.AssignVolunteer(context.Background(), AssignParams{
		RoleSlotID:  uuid.New(),
		VolunteerID: uuid.New(),
		InvitedBy:   uuid.New(),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestAssignVolunteerDeactivated(t *testing.T) {
	repo := &fakeRepository{
		findVolunteerFn: func(ctx context.Context, volunteerID uuid.UUID) (*models.Volunteer, error) {
			return &models.Volunteer{ID: volunteerID, Active: false}, nil
		},
	}
	svc := newServiceWith(repo, &fakeEmitter{})

	_, err := svc.AssignVolunteer(context.Background(), AssignParams{
		RoleSlotID:  uuid.New(),
		VolunteerID: uuid.New(),
		InvitedBy:   uuid.New(),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepository{
		findAssignmentFn: func(ctx context.Context, assignmentID uuid.UUID) (*models.Assignment, error) {
			return &models.Assignment{ID: assignmentID, Status: enums.AssignmentStatusDeclined}, nil
		},
	}
	svc := newServiceWith(repo, &fakeEmitter{})

	_, err := svc.Transition(context.Background(), TransitionParams{
		AssignmentID: id,
		To:           enums.AssignmentStatusAccepted,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestTransitionEmitsDeclineEvent(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepository{
		findAssignmentFn: func(ctx context.Context, assignmentID uuid.UUID) (*models.Assignment, error) {
			return &models.Assignment{ID: assignmentID, Status: enums.AssignmentStatusInvited}, nil
		},
	}
	emitter := &fakeEmitter{}
	svc := newServiceWith(repo, emitter)

	respondedAt := time.Now().UTC()
	updated, err := svc.Transition(context.Background(), TransitionParams{
		AssignmentID: id,
		To:           enums.AssignmentStatusDeclined,
		RespondedAt:  &respondedAt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.AssignmentStatusDeclined {
		t.Fatalf("status not updated")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventAssignmentDeclined {
		t.Fatalf("expected decline event, got %+v", emitter.events)
	}
}

func TestTransitionConcurrentLoserFails(t *testing.T) {
	repo := &fakeRepository{
		findAssignmentFn: func(ctx context.Context, assignmentID uuid.UUID) (*models.Assignment, error) {
			return &models.Assignment{ID: assignmentID, Status: enums.AssignmentStatusInvited}, nil
		},
		updateStatusFn: func(ctx context.Context, assignmentID uuid.UUID, from, to enums.AssignmentStatus, respondedAt *time.Time) (bool, error) {
			return false, nil
		},
	}
	svc := newServiceWith(repo, &fakeEmitter{})

	_, err := svc.Transition(context.Background(), TransitionParams{
		AssignmentID: uuid.New(),
		To:           enums.AssignmentStatusAccepted,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for concurrent loser, got %v", err)
	}
}

func TestCancelAssignmentIdempotent(t *testing.T) {
	repo := &fakeRepository{
		findAssignmentFn: func(ctx context.Context, assignmentID uuid.UUID) (*models.Assignment, error) {
			return &models.Assignment{ID: assignmentID, Status: enums.AssignmentStatusCancelled}, nil
		},
	}
	emitter := &fakeEmitter{}
	svc := newServiceWith(repo, emitter)

	assignment, err := svc.CancelAssignment(context.Background(), uuid.New(), Actor{UserID: uuid.New(), Role: enums.CallerRoleLeader})
	if err != nil {
		t.Fatalf("cancel of cancelled should be a no-op, got %v", err)
	}
	if assignment.Status != enums.AssignmentStatusCancelled {
		t.Fatalf("unexpected status %s", assignment.Status)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("no event expected for no-op cancel")
	}
}

func TestCancelAssignmentFromAccepted(t *testing.T) {
	repo := &fakeRepository{
		findAssignmentFn: func(ctx context.Context, assignmentID uuid.UUID) (*models.Assignment, error) {
			return &models.Assignment{ID: assignmentID, Status: enums.AssignmentStatusAccepted}, nil
		},
	}
	emitter := &fakeEmitter{}
	svc := newServiceWith(repo, emitter)

	assignment, err := svc.CancelAssignment(context.Background(), uuid.New(), Actor{UserID: uuid.New(), Role: enums.CallerRoleLeader})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignment.Status != enums.AssignmentStatusCancelled {
		t.Fatalf("expected cancelled, got %s", assignment.Status)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventAssignmentCancelled {
		t.Fatalf("expected cancel event")
	}
}
