package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateAssignment OutboxAggregateType = "assignment"
	AggregateRoleSlot   OutboxAggregateType = "role_slot"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateAssignment,
	AggregateRoleSlot,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventAssignmentInvited   OutboxEventType = "assignment_invited"
	EventAssignmentAccepted  OutboxEventType = "assignment_accepted"
	EventAssignmentDeclined  OutboxEventType = "assignment_declined"
	EventAssignmentCancelled OutboxEventType = "assignment_cancelled"
)

var validOutboxEventTypes = []OutboxEventType{
	EventAssignmentInvited,
	EventAssignmentAccepted,
	EventAssignmentDeclined,
	EventAssignmentCancelled,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// VacatesSlot reports whether the event frees a role slot position and
// should trigger re-matching.
func (e OutboxEventType) VacatesSlot() bool {
	return e == EventAssignmentDeclined || e == EventAssignmentCancelled
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
