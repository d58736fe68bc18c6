package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
)

// AssignmentContext joins the rows needed to render a notification.
type AssignmentContext struct {
	Assignment models.Assignment
	Volunteer  models.Volunteer
	Slot       models.RoleSlot
	Plan       models.ServicePlan
}

// Repository exposes persistence helpers for notification records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, record *models.NotificationRecord) error
	FindPending(ctx context.Context, limit int) ([]models.NotificationRecord, error)
	HasReminder(ctx context.Context, assignmentID uuid.UUID) (bool, error)

	MarkSent(ctx context.Context, recordID uuid.UUID, now time.Time, providerMessageID string) (bool, error)
	RecordTransientFailure(ctx context.Context, recordID uuid.UUID, now time.Time, sendErr string) error
	MarkFailed(ctx context.Context, recordID uuid.UUID, now time.Time, sendErr string) (bool, error)

	LoadAssignmentContext(ctx context.Context, assignmentID uuid.UUID) (*AssignmentContext, error)
	AcceptedNeedingReminder(ctx context.Context, from, to time.Time) ([]uuid.UUID, error)
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a dispatch repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, record *models.NotificationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repositoryImpl) FindPending(ctx context.Context, limit int) ([]models.NotificationRecord, error) {
	var records []models.NotificationRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.NotificationStatusPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *repositoryImpl) HasReminder(ctx context.Context, assignmentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.NotificationRecord{}).
		Where("assignment_id = ? AND kind = ?", assignmentID, enums.NotificationKindReminder).
		Count(&count).Error
	return count > 0, err
}

// MarkSent is the pending→sent write. Guarding on status keeps a record from
// being double-sent by overlapping batch runs.
func (r *repositoryImpl) MarkSent(ctx context.Context, recordID uuid.UUID, now time.Time, providerMessageID string) (bool, error) {
	updates := map[string]any{
		"status":          enums.NotificationStatusSent,
		"attempts":        gorm.Expr("attempts + 1"),
		"last_attempt_at": now,
	}
	if providerMessageID != "" {
		updates["provider_message_id"] = providerMessageID
	}
	result := r.db.WithContext(ctx).
		Model(&models.NotificationRecord{}).
		Where("id = ? AND status = ?", recordID, enums.NotificationStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) RecordTransientFailure(ctx context.Context, recordID uuid.UUID, now time.Time, sendErr string) error {
	return r.db.WithContext(ctx).
		Model(&models.NotificationRecord{}).
		Where("id = ? AND status = ?", recordID, enums.NotificationStatusPending).
		Updates(map[string]any{
			"attempts":        gorm.Expr("attempts + 1"),
			"last_attempt_at": now,
			"last_error":      truncateError(sendErr),
		}).Error
}

func (r *repositoryImpl) MarkFailed(ctx context.Context, recordID uuid.UUID, now time.Time, sendErr string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.NotificationRecord{}).
		Where("id = ? AND status = ?", recordID, enums.NotificationStatusPending).
		Updates(map[string]any{
			"status":          enums.NotificationStatusFailed,
			"attempts":        gorm.Expr("attempts + 1"),
			"last_attempt_at": now,
			"last_error":      truncateError(sendErr),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) LoadAssignmentContext(ctx context.Context, assignmentID uuid.UUID) (*AssignmentContext, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).Where("id = ?", assignmentID).First(&assignment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	var volunteer models.Volunteer
	if err := r.db.WithContext(ctx).Where("id = ?", assignment.VolunteerID).First(&volunteer).Error; err != nil {
		return nil, err
	}

	var slot models.RoleSlot
	if err := r.db.WithContext(ctx).Where("id = ?", assignment.RoleSlotID).First(&slot).Error; err != nil {
		return nil, err
	}

	var plan models.ServicePlan
	if err := r.db.WithContext(ctx).Where("id = ?", slot.ServicePlanID).First(&plan).Error; err != nil {
		return nil, err
	}

	return &AssignmentContext{
		Assignment: assignment,
		Volunteer:  volunteer,
		Slot:       slot,
		Plan:       plan,
	}, nil
}

// AcceptedNeedingReminder returns accepted assignments for services inside
// the lead window that have no reminder record yet.
func (r *repositoryImpl) AcceptedNeedingReminder(ctx context.Context, from, to time.Time) ([]uuid.UUID, error) {
	var rows []struct {
		ID uuid.UUID
	}
	err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Select("assignments.id").
		Joins("JOIN role_slots ON role_slots.id = assignments.role_slot_id").
		Joins("JOIN service_plans ON service_plans.id = role_slots.service_plan_id").
		Where("assignments.status = ?", enums.AssignmentStatusAccepted).
		Where("service_plans.service_date >= ? AND service_plans.service_date <= ?", from, to).
		Where("NOT EXISTS (SELECT 1 FROM notification_records nr WHERE nr.assignment_id = assignments.id AND nr.kind = ?)", enums.NotificationKindReminder).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *repositoryImpl) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?", []enums.NotificationStatus{
			enums.NotificationStatusSent,
			enums.NotificationStatusFailed,
		}, cutoff).
		Delete(&models.NotificationRecord{})
	return result.RowsAffected, result.Error
}

func truncateError(msg string) string {
	const max = 1024
	if len(msg) > max {
		return msg[:max]
	}
	return msg
}
