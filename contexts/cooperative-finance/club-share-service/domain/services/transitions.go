package services

import (
	"coopshares/contexts/cooperative-finance/club-share-service/domain/entities"
	domainerrors "coopshares/contexts/cooperative-finance/club-share-service/domain/errors"
)

// allowedTransitions is the closed transition table for allocation status.
// Writes outside this table are rejected, so free-form status strings can
// never reach the store.
var allowedTransitions = map[entities.AllocationStatus][]entities.AllocationStatus{
	entities.AllocationStatusPendingInvitation: {
		entities.AllocationStatusPendingConsent,
	},
	entities.AllocationStatusPendingConsent: {
		entities.AllocationStatusPendingConsent,
		entities.AllocationStatusAccepted,
		entities.AllocationStatusRejected,
		entities.AllocationStatusPendingInvitation,
	},
	entities.AllocationStatusAccepted: {
		entities.AllocationStatusPendingRelease,
		entities.AllocationStatusReleasedPartially,
		entities.AllocationStatusReleasedFully,
		entities.AllocationStatusPendingInvitation,
	},
	entities.AllocationStatusRejected: {
		entities.AllocationStatusPendingInvitation,
	},
	entities.AllocationStatusPendingRelease: {
		entities.AllocationStatusPendingRelease,
		entities.AllocationStatusReleasedPartially,
		entities.AllocationStatusReleasedFully,
	},
	entities.AllocationStatusReleasedPartially: {
		entities.AllocationStatusPendingRelease,
		entities.AllocationStatusReleasedPartially,
		entities.AllocationStatusReleasedFully,
	},
	entities.AllocationStatusReleasedFully: {},
}

func CanTransition(from, to entities.AllocationStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates the move and returns the target status.
func Transition(from, to entities.AllocationStatus) (entities.AllocationStatus, error) {
	if !CanTransition(from, to) {
		return from, domainerrors.ErrInvalidStatusTransition
	}
	return to, nil
}

// ReleaseEligible reports whether a release run may act on the allocation.
// Any other status is skipped by the release engine, never errored.
func ReleaseEligible(status entities.AllocationStatus) bool {
	switch status {
	case entities.AllocationStatusAccepted,
		entities.AllocationStatusPendingRelease,
		entities.AllocationStatusReleasedPartially:
		return true
	default:
		return false
	}
}

// Resettable reports whether an administrative reset back to
// pending_invitation is allowed. Release-path states are excluded because
// shares may already have moved.
func Resettable(status entities.AllocationStatus) bool {
	switch status {
	case entities.AllocationStatusPendingInvitation,
		entities.AllocationStatusPendingConsent,
		entities.AllocationStatusAccepted,
		entities.AllocationStatusRejected:
		return true
	default:
		return false
	}
}

func IsTerminal(status entities.AllocationStatus) bool {
	return len(allowedTransitions[status]) == 0
}
