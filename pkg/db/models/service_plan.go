package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/pkg/enums"
)

// ServicePlan represents one service occurrence requiring staffing.
type ServicePlan struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string         `gorm:"type:text;not null"`
	ServiceDate time.Time      `gorm:"column:service_date;type:date;not null;index"`
	Ministry    enums.Ministry `gorm:"type:ministry;not null"`
	CreatedBy   uuid.UUID      `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`

	RoleSlots []RoleSlot `gorm:"foreignKey:ServicePlanID;constraint:OnDelete:CASCADE"`
}
