package enums

import "fmt"

// Ministry maps to the ministry enum in Postgres.
type Ministry string

const (
	MinistryWorship     Ministry = "worship"
	MinistryKids        Ministry = "kids"
	MinistryHospitality Ministry = "hospitality"
	MinistryProduction  Ministry = "production"
	MinistryPrayer      Ministry = "prayer"
)

var validMinistries = []Ministry{
	MinistryWorship,
	MinistryKids,
	MinistryHospitality,
	MinistryProduction,
	MinistryPrayer,
}

// IsValid checks whether the given ministry matches the canonical enum.
func (m Ministry) IsValid() bool {
	for _, candidate := range validMinistries {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMinistry converts raw strings into Ministry.
func ParseMinistry(value string) (Ministry, error) {
	for _, candidate := range validMinistries {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ministry %q", value)
}
