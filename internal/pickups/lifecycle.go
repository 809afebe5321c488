package pickups

import (
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
)

// transitions is the authoritative table of allowed status moves. Anything
// outside the table is a state conflict, including moves out of a terminal
// status.
var transitions = map[enums.PickupStatus][]enums.PickupStatus{
	enums.PickupStatusPending:   {enums.PickupStatusAssigned, enums.PickupStatusCancelled},
	enums.PickupStatusAssigned:  {enums.PickupStatusCollected, enums.PickupStatusCancelled},
	enums.PickupStatusCollected: {enums.PickupStatusRecycled},
}

// operatorTargets are the statuses only collection-side roles may drive.
var operatorTargets = map[enums.PickupStatus]bool{
	enums.PickupStatusAssigned:  true,
	enums.PickupStatusCollected: true,
	enums.PickupStatusRecycled:  true,
}

// CanTransition reports whether the move from one status to another is allowed.
func CanTransition(from, to enums.PickupStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from the given one.
func NextStatuses(from enums.PickupStatus) []enums.PickupStatus {
	next := transitions[from]
	out := make([]enums.PickupStatus, len(next))
	copy(out, next)
	return out
}

// RequiresOperator reports whether the target status may only be set by
// admin or ngo actors. Cancellation is the exception, the requester may
// cancel their own pickup.
func RequiresOperator(target enums.PickupStatus) bool {
	return operatorTargets[target]
}
