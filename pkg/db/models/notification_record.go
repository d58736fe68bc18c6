package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/pkg/enums"
)

// NotificationRecord tracks one outbound contact attempt stream for an
// assignment. Terminal once sent, or failed after the attempt cap.
type NotificationRecord struct {
	ID                uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AssignmentID      uuid.UUID                 `gorm:"column:assignment_id;type:uuid;not null;index"`
	Kind              enums.NotificationKind    `gorm:"type:notification_kind;not null"`
	Channel           enums.NotificationChannel `gorm:"type:notification_channel;not null"`
	Status            enums.NotificationStatus  `gorm:"type:notification_status;not null;default:'pending';index"`
	Subject           string                    `gorm:"type:text;not null"`
	BodyText          string                    `gorm:"column:body_text;type:text;not null"`
	BodyHTML          string                    `gorm:"column:body_html;type:text;not null"`
	Attempts          int                       `gorm:"column:attempts;not null;default:0"`
	LastAttemptAt     *time.Time                `gorm:"column:last_attempt_at"`
	LastError         *string                   `gorm:"column:last_error"`
	ProviderMessageID *string                   `gorm:"column:provider_message_id"`
	CreatedAt         time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
