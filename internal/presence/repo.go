package presence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
)

// Repository persists attendance records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, record *models.PresenceRecord) error
	FindByAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.PresenceRecord, error)
	FindAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.Assignment, error)
	FindSlotPlan(ctx context.Context, slotID uuid.UUID) (*models.ServicePlan, error)
	CloseAssignment(ctx context.Context, assignmentID uuid.UUID, from, to enums.AssignmentStatus) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a presence repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, record *models.PresenceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repositoryImpl) FindByAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.PresenceRecord, error) {
	var record models.PresenceRecord
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repositoryImpl) FindAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).Where("id = ?", assignmentID).First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

// CloseAssignment moves the assignment to its attendance outcome only when
// the current status still matches. Returns false when the guard misses.
func (r *repositoryImpl) CloseAssignment(ctx context.Context, assignmentID uuid.UUID, from, to enums.AssignmentStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status = ?", assignmentID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) FindSlotPlan(ctx context.Context, slotID uuid.UUID) (*models.ServicePlan, error) {
	var plan models.ServicePlan
	err := r.db.WithContext(ctx).
		Joins("JOIN role_slots ON role_slots.service_plan_id = service_plans.id").
		Where("role_slots.id = ?", slotID).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}
