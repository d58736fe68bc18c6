package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	"github.com/gracepointe/serveteam-backend/pkg/pagination"
)

// Repository exposes persistence helpers for leader alerts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, alert *models.Alert) error
	List(ctx context.Context, params listAlertsParams) ([]models.Alert, *pagination.Cursor, error)
	MarkRead(ctx context.Context, ministry enums.Ministry, alertID uuid.UUID, now time.Time) (alertMarkResult, error)
	MarkAllRead(ctx context.Context, ministry enums.Ministry, now time.Time) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an alerts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listAlertsParams struct {
	Ministry   enums.Ministry
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

type alertMarkResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, alert *models.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listAlertsParams) ([]models.Alert, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Alert{}).Where("ministry = ?", params.Ministry)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var alerts []models.Alert
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&alerts).Error; err != nil {
		return nil, nil, err
	}

	if len(alerts) > normalized {
		next := alerts[normalized]
		alerts = alerts[:normalized]
		return alerts, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return alerts, nil, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, ministry enums.Ministry, alertID uuid.UUID, now time.Time) (alertMarkResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id = ? AND ministry = ? AND read_at IS NULL", alertID, ministry).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return alertMarkResult{}, result.Error
	}

	mark := alertMarkResult{Updated: result.RowsAffected > 0}
	if result.RowsAffected > 0 {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id = ? AND ministry = ?", alertID, ministry).
		Count(&count).Error; err != nil {
		return alertMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, ministry enums.Ministry, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("ministry = ? AND read_at IS NULL", ministry).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND created_at < ?", cutoff).
		Delete(&models.Alert{})
	return result.RowsAffected, result.Error
}
