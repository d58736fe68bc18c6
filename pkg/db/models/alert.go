package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/pkg/enums"
)

// Alert stores leader-facing dashboard notifications: permanently failed
// deliveries and role slots the matcher could not refill.
type Alert struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Kind      enums.AlertKind `gorm:"type:alert_kind;not null"`
	Ministry  enums.Ministry  `gorm:"type:ministry;not null;index"`
	Title     string          `gorm:"type:text;not null"`
	Message   string          `gorm:"type:text;not null"`
	SubjectID *uuid.UUID      `gorm:"column:subject_id;type:uuid"`
	ReadAt    *time.Time      `gorm:"column:read_at;type:timestamptz"`
	CreatedAt time.Time       `gorm:"column:created_at;type:timestamptz;default:now()"`
}
