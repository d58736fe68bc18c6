package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
)

// Repository exposes the read queries the matcher filters on.
type Repository interface {
	UnavailableOn(ctx context.Context, volunteerIDs []uuid.UUID, date time.Time) (map[uuid.UUID]bool, error)
	ActiveOnDate(ctx context.Context, volunteerIDs []uuid.UUID, date time.Time) (map[uuid.UUID]bool, error)
	LastServedAt(ctx context.Context, volunteerIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)
	ActivePool(ctx context.Context, ministry enums.Ministry) ([]models.Volunteer, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a matching repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) UnavailableOn(ctx context.Context, volunteerIDs []uuid.UUID, date time.Time) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(volunteerIDs))
	if len(volunteerIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		VolunteerID uuid.UUID
	}
	err := r.db.WithContext(ctx).
		Model(&models.AvailabilityWindow{}).
		Select("DISTINCT volunteer_id").
		Where("volunteer_id IN ? AND start_date <= ? AND end_date >= ?", volunteerIDs, date, date).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.VolunteerID] = true
	}
	return out, nil
}

func (r *repositoryImpl) ActiveOnDate(ctx context.Context, volunteerIDs []uuid.UUID, date time.Time) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(volunteerIDs))
	if len(volunteerIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		VolunteerID uuid.UUID
	}
	err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Select("DISTINCT assignments.volunteer_id").
		Joins("JOIN role_slots ON role_slots.id = assignments.role_slot_id").
		Joins("JOIN service_plans ON service_plans.id = role_slots.service_plan_id").
		Where("assignments.volunteer_id IN ?", volunteerIDs).
		Where("service_plans.service_date = ?", date).
		Where("assignments.status NOT IN ?", []enums.AssignmentStatus{
			enums.AssignmentStatusDeclined,
			enums.AssignmentStatusCancelled,
		}).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.VolunteerID] = true
	}
	return out, nil
}

func (r *repositoryImpl) LastServedAt(ctx context.Context, volunteerIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	out := make(map[uuid.UUID]time.Time, len(volunteerIDs))
	if len(volunteerIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		VolunteerID uuid.UUID
		ServedAt    time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&models.PresenceRecord{}).
		Select("assignments.volunteer_id AS volunteer_id, MAX(service_plans.service_date) AS served_at").
		Joins("JOIN assignments ON assignments.id = presence_records.assignment_id").
		Joins("JOIN role_slots ON role_slots.id = assignments.role_slot_id").
		Joins("JOIN service_plans ON service_plans.id = role_slots.service_plan_id").
		Where("assignments.volunteer_id IN ? AND presence_records.attended = ?", volunteerIDs, true).
		Group("assignments.volunteer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.VolunteerID] = row.ServedAt
	}
	return out, nil
}

func (r *repositoryImpl) ActivePool(ctx context.Context, ministry enums.Ministry) ([]models.Volunteer, error) {
	var volunteers []models.Volunteer
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("? = ANY(ministry_tags)", string(ministry)).
		Order("created_at ASC, id ASC").
		Find(&volunteers).Error
	return volunteers, err
}
