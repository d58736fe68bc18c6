package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	VolunteerID *uuid.UUID
	Role        enums.CallerRole
	Ministries  []enums.Ministry
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued by the identity service.
// VolunteerID is only set for volunteer callers; Ministries scopes leaders.
type AccessTokenClaims struct {
	UserID      uuid.UUID        `json:"user_id"`
	VolunteerID *uuid.UUID       `json:"volunteer_id,omitempty"`
	Role        enums.CallerRole `json:"role"`
	Ministries  []enums.Ministry `json:"ministries,omitempty"`
	jwt.RegisteredClaims
}

// HasMinistry reports whether the caller is scoped to the given ministry.
// Admins always pass; leaders need an explicit grant.
func (c *AccessTokenClaims) HasMinistry(m enums.Ministry) bool {
	if c.Role == enums.CallerRoleAdmin {
		return true
	}
	for _, granted := range c.Ministries {
		if granted == m {
			return true
		}
	}
	return false
}
