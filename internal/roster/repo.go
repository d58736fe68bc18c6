package roster

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	"github.com/gracepointe/serveteam-backend/pkg/pagination"
)

// Repository exposes persistence helpers for plans, slots, and assignments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreatePlan(ctx context.Context, plan *models.ServicePlan) error
	FindPlan(ctx context.Context, planID uuid.UUID) (*models.ServicePlan, error)
	ListPlans(ctx context.Context, params ListPlansQuery) ([]models.ServicePlan, *pagination.Cursor, error)

	CreateSlot(ctx context.Context, slot *models.RoleSlot) error
	FindSlot(ctx context.Context, slotID uuid.UUID) (*models.RoleSlot, error)
	FindSlotPlan(ctx context.Context, slotID uuid.UUID) (*models.ServicePlan, error)

	CreateAssignment(ctx context.Context, assignment *models.Assignment) error
	FindAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.Assignment, error)
	CountActiveForSlot(ctx context.Context, slotID uuid.UUID) (int64, error)
	HasActiveForPair(ctx context.Context, slotID, volunteerID uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, assignmentID uuid.UUID, from, to enums.AssignmentStatus, respondedAt *time.Time) (bool, error)

	FindVolunteer(ctx context.Context, volunteerID uuid.UUID) (*models.Volunteer, error)
}

// ListPlansQuery configures plan listing.
type ListPlansQuery struct {
	Ministry *enums.Ministry
	FromDate *time.Time
	Limit    int
	Cursor   *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a roster repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreatePlan(ctx context.Context, plan *models.ServicePlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *repositoryImpl) FindPlan(ctx context.Context, planID uuid.UUID) (*models.ServicePlan, error) {
	var plan models.ServicePlan
	err := r.db.WithContext(ctx).
		Preload("RoleSlots").
		Preload("RoleSlots.Assignments").
		Where("id = ?", planID).
		First(&plan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repositoryImpl) ListPlans(ctx context.Context, params ListPlansQuery) ([]models.ServicePlan, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.ServicePlan{})
	if params.Ministry != nil {
		query = query.Where("ministry = ?", *params.Ministry)
	}
	if params.FromDate != nil {
		query = query.Where("service_date >= ?", *params.FromDate)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var plans []models.ServicePlan
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&plans).Error; err != nil {
		return nil, nil, err
	}

	if len(plans) > normalized {
		next := plans[normalized]
		plans = plans[:normalized]
		return plans, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return plans, nil, nil
}

func (r *repositoryImpl) CreateSlot(ctx context.Context, slot *models.RoleSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *repositoryImpl) FindSlot(ctx context.Context, slotID uuid.UUID) (*models.RoleSlot, error) {
	var slot models.RoleSlot
	err := r.db.WithContext(ctx).Where("id = ?", slotID).First(&slot).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

func (r *repositoryImpl) FindSlotPlan(ctx context.Context, slotID uuid.UUID) (*models.ServicePlan, error) {
	var plan models.ServicePlan
	err := r.db.WithContext(ctx).
		Joins("JOIN role_slots ON role_slots.service_plan_id = service_plans.id").
		Where("role_slots.id = ?", slotID).
		First(&plan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repositoryImpl) CreateAssignment(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repositoryImpl) FindAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).Where("id = ?", assignmentID).First(&assignment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *repositoryImpl) CountActiveForSlot(ctx context.Context, slotID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("role_slot_id = ? AND status NOT IN ?", slotID, inactiveStatuses()).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) HasActiveForPair(ctx context.Context, slotID, volunteerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("role_slot_id = ? AND volunteer_id = ? AND status NOT IN ?", slotID, volunteerID, inactiveStatuses()).
		Count(&count).Error
	return count > 0, err
}

// UpdateStatus applies a guarded transition. The WHERE clause on the prior
// status makes concurrent conflicting writes lose cleanly instead of
// overwriting each other.
func (r *repositoryImpl) UpdateStatus(ctx context.Context, assignmentID uuid.UUID, from, to enums.AssignmentStatus, respondedAt *time.Time) (bool, error) {
	updates := map[string]any{"status": to}
	if respondedAt != nil {
		updates["responded_at"] = *respondedAt
	}
	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status = ?", assignmentID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) FindVolunteer(ctx context.Context, volunteerID uuid.UUID) (*models.Volunteer, error) {
	var volunteer models.Volunteer
	err := r.db.WithContext(ctx).Where("id = ?", volunteerID).First(&volunteer).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &volunteer, nil
}

func inactiveStatuses() []enums.AssignmentStatus {
	return []enums.AssignmentStatus{
		enums.AssignmentStatusDeclined,
		enums.AssignmentStatusCancelled,
	}
}
