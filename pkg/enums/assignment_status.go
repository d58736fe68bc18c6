package enums

import "fmt"

// AssignmentStatus maps to the assignment_status enum in Postgres.
type AssignmentStatus string

const (
	AssignmentStatusInvited   AssignmentStatus = "invited"
	AssignmentStatusAccepted  AssignmentStatus = "accepted"
	AssignmentStatusDeclined  AssignmentStatus = "declined"
	AssignmentStatusConfirmed AssignmentStatus = "confirmed"
	AssignmentStatusAbsent    AssignmentStatus = "absent"
	AssignmentStatusCancelled AssignmentStatus = "cancelled"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusInvited,
	AssignmentStatusAccepted,
	AssignmentStatusDeclined,
	AssignmentStatusConfirmed,
	AssignmentStatusAbsent,
	AssignmentStatusCancelled,
}

// assignmentTransitions encodes the full response lifecycle. Declined,
// confirmed, absent and cancelled are terminal.
var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentStatusInvited: {
		AssignmentStatusAccepted,
		AssignmentStatusDeclined,
		AssignmentStatusCancelled,
	},
	AssignmentStatusAccepted: {
		AssignmentStatusConfirmed,
		AssignmentStatusAbsent,
		AssignmentStatusCancelled,
	},
}

// IsValid checks whether the given status matches the canonical enum.
func (s AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s AssignmentStatus) CanTransition(next AssignmentStatus) bool {
	for _, candidate := range assignmentTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s AssignmentStatus) IsTerminal() bool {
	return len(assignmentTransitions[s]) == 0 && s.IsValid()
}

// IsActive reports whether the assignment still occupies its role slot.
// Declined and cancelled assignments free the slot.
func (s AssignmentStatus) IsActive() bool {
	switch s {
	case AssignmentStatusDeclined, AssignmentStatusCancelled:
		return false
	}
	return s.IsValid()
}

// ParseAssignmentStatus converts raw strings into AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
