package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gracepointe/serveteam-backend/pkg/db/models"
)

// Repository exposes persistence helpers for availability windows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, window *models.AvailabilityWindow) error
	Delete(ctx context.Context, volunteerID, windowID uuid.UUID) (int64, error)
	ListByVolunteer(ctx context.Context, volunteerID uuid.UUID) ([]models.AvailabilityWindow, error)
	CountOverlapping(ctx context.Context, volunteerID uuid.UUID, date time.Time) (int64, error)
	FindVolunteer(ctx context.Context, volunteerID uuid.UUID) (*models.Volunteer, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an availability repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, window *models.AvailabilityWindow) error {
	return r.db.WithContext(ctx).Create(window).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, volunteerID, windowID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND volunteer_id = ?", windowID, volunteerID).
		Delete(&models.AvailabilityWindow{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListByVolunteer(ctx context.Context, volunteerID uuid.UUID) ([]models.AvailabilityWindow, error) {
	var windows []models.AvailabilityWindow
	err := r.db.WithContext(ctx).
		Where("volunteer_id = ?", volunteerID).
		Order("start_date DESC, id DESC").
		Find(&windows).Error
	return windows, err
}

func (r *repositoryImpl) CountOverlapping(ctx context.Context, volunteerID uuid.UUID, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AvailabilityWindow{}).
		Where("volunteer_id = ? AND start_date <= ? AND end_date >= ?", volunteerID, date, date).
		Count(&count).Error
	return count, err
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
