package models

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityWindow marks a date range during which a volunteer is
// unavailable. Windows are immutable once created; edits are delete+insert.
type AvailabilityWindow struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	VolunteerID uuid.UUID `gorm:"column:volunteer_id;type:uuid;not null;index"`
	StartDate   time.Time `gorm:"column:start_date;type:date;not null"`
	EndDate     time.Time `gorm:"column:end_date;type:date;not null"`
	Reason      *string   `gorm:"column:reason"`
	CreatedBy   uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
