package enums

import "fmt"

// AlertKind maps to the alert_kind enum in Postgres.
type AlertKind string

const (
	AlertKindDeliveryFailed AlertKind = "delivery_failed"
	AlertKindUnfilledSlot   AlertKind = "unfilled_slot"
)

var validAlertKinds = []AlertKind{
	AlertKindDeliveryFailed,
	AlertKindUnfilledSlot,
}

// IsValid checks whether the given kind matches the canonical enum.
func (a AlertKind) IsValid() bool {
	for _, candidate := range validAlertKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAlertKind converts raw strings into AlertKind.
func ParseAlertKind(value string) (AlertKind, error) {
	for _, candidate := range validAlertKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert kind %q", value)
}
