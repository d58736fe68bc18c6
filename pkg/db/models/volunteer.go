package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Volunteer mirrors the people-directory record for a person eligible to
// serve. Rows are provisioned by the surrounding platform and never hard
// deleted, only deactivated.
type Volunteer struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PersonID      uuid.UUID      `gorm:"column:person_id;type:uuid;not null;uniqueIndex"`
	DisplayName   string         `gorm:"column:display_name;type:text;not null"`
	Email         string         `gorm:"type:text;not null"`
	Phone         *string        `gorm:"column:phone"`
	Active        bool           `gorm:"column:active;not null;default:true"`
	MinistryTags  pq.StringArray `gorm:"column:ministry_tags;type:text[]"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeactivatedAt *time.Time     `gorm:"column:deactivated_at"`
}
