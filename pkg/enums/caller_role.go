package enums

import "fmt"

// CallerRole identifies the authenticated actor class carried in JWT claims.
type CallerRole string

const (
	CallerRoleAdmin     CallerRole = "admin"
	CallerRoleLeader    CallerRole = "leader"
	CallerRoleVolunteer CallerRole = "volunteer"
)

var validCallerRoles = []CallerRole{
	CallerRoleAdmin,
	CallerRoleLeader,
	CallerRoleVolunteer,
}

// IsValid checks whether the given role matches the canonical enum.
func (r CallerRole) IsValid() bool {
	for _, candidate := range validCallerRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanManageRoster reports whether the role may create plans, slots and
// assignments or withdraw volunteers.
func (r CallerRole) CanManageRoster() bool {
	return r == CallerRoleAdmin || r == CallerRoleLeader
}

// ParseCallerRole converts raw strings into CallerRole.
func ParseCallerRole(value string) (CallerRole, error) {
	for _, candidate := range validCallerRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid caller role %q", value)
}
