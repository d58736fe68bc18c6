package presence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gracepointe/serveteam-backend/internal/availability"
	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
)

// Service records attendance outcomes for accepted assignments.
type Service interface {
	Record(ctx context.Context, params RecordParams) (*models.PresenceRecord, error)
	Get(ctx context.Context, assignmentID uuid.UUID) (*models.PresenceRecord, error)
}

// RecordParams carries an attendance decision for one assignment.
type RecordParams struct {
	AssignmentID uuid.UUID
	Attended     bool
	RecordedBy   uuid.UUID
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   TxRunner

	now func() time.Time
}

// NewService wires attendance recording.
func NewService(repo Repository, tx TxRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "presence repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		repo: repo,
		tx:   tx,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Record writes the attendance outcome and closes the assignment as confirmed
// or absent. Attendance cannot be recorded before the service date arrives.
func (s *service) Record(ctx context.Context, params RecordParams) (*models.PresenceRecord, error) {
	if params.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	if params.RecordedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recorded_by required")
	}

	assignment, err := s.repo.FindAssignment(ctx, params.AssignmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find assignment")
	}
	if assignment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
	}

	existing, err := s.repo.FindByAssignment(ctx, params.AssignmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing attendance")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "attendance already recorded")
	}

	if assignment.Status != enums.AssignmentStatusAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "attendance requires an accepted assignment, have "+string(assignment.Status))
	}

	plan, err := s.repo.FindSlotPlan(ctx, assignment.RoleSlotID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find service plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service plan not found")
	}

	today := availability.TruncateToDate(s.now())
	if plan.ServiceDate.After(today) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "service date has not arrived yet")
	}

	record := &models.PresenceRecord{
		AssignmentID: params.AssignmentID,
		Attended:     params.Attended,
		RecordedBy:   params.RecordedBy,
	}
	to := enums.AssignmentStatusConfirmed
	if !params.Attended {
		to = enums.AssignmentStatusAbsent
	}

	// The record and the status change commit together; a failed close must
	// not leave behind a record that blocks the retry.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Create(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create presence record")
		}
		closed, err := txRepo.CloseAssignment(ctx, params.AssignmentID, enums.AssignmentStatusAccepted, to)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close assignment")
		}
		if !closed {
			// Lost the race with a concurrent transition.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment state changed concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) Get(ctx context.Context, assignmentID uuid.UUID) (*models.PresenceRecord, error) {
	if assignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	record, err := s.repo.FindByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find presence record")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "presence record not found")
	}
	return record, nil
}
