package pickups

import (
	"testing"

	"github.com/ecocycle/ecocycle-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to enums.PickupStatus }{
		{enums.PickupStatusPending, enums.PickupStatusAssigned},
		{enums.PickupStatusPending, enums.PickupStatusCancelled},
		{enums.PickupStatusAssigned, enums.PickupStatusCollected},
		{enums.PickupStatusAssigned, enums.PickupStatusCancelled},
		{enums.PickupStatusCollected, enums.PickupStatusRecycled},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to enums.PickupStatus }{
		{enums.PickupStatusPending, enums.PickupStatusCollected},
		{enums.PickupStatusPending, enums.PickupStatusRecycled},
		{enums.PickupStatusAssigned, enums.PickupStatusRecycled},
		{enums.PickupStatusCollected, enums.PickupStatusCancelled},
		{enums.PickupStatusCollected, enums.PickupStatusPending},
		{enums.PickupStatusRecycled, enums.PickupStatusPending},
		{enums.PickupStatusRecycled, enums.PickupStatusCollected},
		{enums.PickupStatusCancelled, enums.PickupStatusPending},
		{enums.PickupStatusCancelled, enums.PickupStatusAssigned},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestTerminalStatusesHaveNoSuccessors(t *testing.T) {
	for _, status := range []enums.PickupStatus{enums.PickupStatusRecycled, enums.PickupStatusCancelled} {
		if next := NextStatuses(status); len(next) != 0 {
			t.Errorf("expected no successors for %s, got %v", status, next)
		}
		if !status.IsTerminal() {
			t.Errorf("expected %s to be terminal", status)
		}
	}
}

func TestRequiresOperator(t *testing.T) {
	for _, status := range []enums.PickupStatus{enums.PickupStatusAssigned, enums.PickupStatusCollected, enums.PickupStatusRecycled} {
		if !RequiresOperator(status) {
			t.Errorf("expected %s to require an operator", status)
		}
	}
	if RequiresOperator(enums.PickupStatusCancelled) {
		t.Error("cancellation must stay open to the requester")
	}
}
