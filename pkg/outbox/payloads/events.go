package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/pkg/enums"
)

// AssignmentLifecycleEvent carries the fields every assignment transition
// shares. The event type on the outbox row distinguishes the edge taken.
type AssignmentLifecycleEvent struct {
	AssignmentID  uuid.UUID              `json:"assignment_id"`
	RoleSlotID    uuid.UUID              `json:"role_slot_id"`
	ServicePlanID uuid.UUID              `json:"service_plan_id"`
	VolunteerID   uuid.UUID              `json:"volunteer_id"`
	ServiceDate   time.Time              `json:"service_date"`
	Ministry      enums.Ministry         `json:"ministry"`
	Status        enums.AssignmentStatus `json:"status"`
	RespondedAt   *time.Time             `json:"responded_at,omitempty"`
}
