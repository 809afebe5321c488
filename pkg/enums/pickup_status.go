package enums

import "fmt"

// PickupStatus tracks the lifecycle of a pickup request.
type PickupStatus string

const (
	PickupStatusPending   PickupStatus = "pending"
	PickupStatusAssigned  PickupStatus = "assigned"
	PickupStatusCollected PickupStatus = "collected"
	PickupStatusRecycled  PickupStatus = "recycled"
	PickupStatusCancelled PickupStatus = "cancelled"
)

var validPickupStatuses = []PickupStatus{
	PickupStatusPending,
	PickupStatusAssigned,
	PickupStatusCollected,
	PickupStatusRecycled,
	PickupStatusCancelled,
}

// String implements fmt.Stringer.
func (s PickupStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PickupStatus.
func (s PickupStatus) IsValid() bool {
	for _, candidate := range validPickupStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave this status.
func (s PickupStatus) IsTerminal() bool {
	return s == PickupStatusRecycled || s == PickupStatusCancelled
}

// ParsePickupStatus converts raw input into a PickupStatus.
func ParsePickupStatus(value string) (PickupStatus, error) {
	for _, candidate := range validPickupStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pickup status %q", value)
}
