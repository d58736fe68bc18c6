package models

import (
	"time"

	"github.com/google/uuid"
)

// PresenceRecord captures actual attendance after the service date, closing
// the assignment lifecycle. At most one per assignment.
type PresenceRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AssignmentID uuid.UUID `gorm:"column:assignment_id;type:uuid;not null;uniqueIndex"`
	Attended     bool      `gorm:"column:attended;not null"`
	RecordedBy   uuid.UUID `gorm:"column:recorded_by;type:uuid;not null"`
	RecordedAt   time.Time `gorm:"column:recorded_at;autoCreateTime"`
}
