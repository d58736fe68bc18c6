package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleSlot is one staffing need inside a service plan, e.g. "2 vocalists".
type RoleSlot struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ServicePlanID uuid.UUID `gorm:"column:service_plan_id;type:uuid;not null;index"`
	RoleType      string    `gorm:"column:role_type;type:text;not null"`
	RequiredCount int       `gorm:"column:required_count;not null;default:1"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`

	Assignments []Assignment `gorm:"foreignKey:RoleSlotID;constraint:OnDelete:CASCADE"`
}
