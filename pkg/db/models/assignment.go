package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/pkg/enums"
)

// Assignment binds one volunteer to one role slot with a response lifecycle.
// At most one active assignment may exist per (role_slot_id, volunteer_id);
// the partial unique index ux_assignments_active_slot_volunteer backs this.
type Assignment struct {
	ID          uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoleSlotID  uuid.UUID              `gorm:"column:role_slot_id;type:uuid;not null;index"`
	VolunteerID uuid.UUID              `gorm:"column:volunteer_id;type:uuid;not null;index"`
	Status      enums.AssignmentStatus `gorm:"type:assignment_status;not null;default:'invited'"`
	InvitedBy   uuid.UUID              `gorm:"column:invited_by;type:uuid;not null"`
	InvitedAt   time.Time              `gorm:"column:invited_at;autoCreateTime"`
	RespondedAt *time.Time             `gorm:"column:responded_at"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`

	Notifications []NotificationRecord `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE"`
}
