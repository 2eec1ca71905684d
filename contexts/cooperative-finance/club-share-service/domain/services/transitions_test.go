package services

import (
	"errors"
	"testing"

	"coopshares/contexts/cooperative-finance/club-share-service/domain/entities"
	domainerrors "coopshares/contexts/cooperative-finance/club-share-service/domain/errors"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from entities.AllocationStatus
		to   entities.AllocationStatus
		want bool
	}{
		{"invitation to consent", entities.AllocationStatusPendingInvitation, entities.AllocationStatusPendingConsent, true},
		{"invitation straight to accepted", entities.AllocationStatusPendingInvitation, entities.AllocationStatusAccepted, false},
		{"consent re-send self loop", entities.AllocationStatusPendingConsent, entities.AllocationStatusPendingConsent, true},
		{"consent to accepted", entities.AllocationStatusPendingConsent, entities.AllocationStatusAccepted, true},
		{"consent to rejected", entities.AllocationStatusPendingConsent, entities.AllocationStatusRejected, true},
		{"consent reset", entities.AllocationStatusPendingConsent, entities.AllocationStatusPendingInvitation, true},
		{"accepted to pending release", entities.AllocationStatusAccepted, entities.AllocationStatusPendingRelease, true},
		{"accepted to fully released", entities.AllocationStatusAccepted, entities.AllocationStatusReleasedFully, true},
		{"accepted reset", entities.AllocationStatusAccepted, entities.AllocationStatusPendingInvitation, true},
		{"rejected reset", entities.AllocationStatusRejected, entities.AllocationStatusPendingInvitation, true},
		{"rejected to accepted without reset", entities.AllocationStatusRejected, entities.AllocationStatusAccepted, false},
		{"pending release repeat tranche", entities.AllocationStatusPendingRelease, entities.AllocationStatusPendingRelease, true},
		{"pending release reset refused", entities.AllocationStatusPendingRelease, entities.AllocationStatusPendingInvitation, false},
		{"partial to fully released", entities.AllocationStatusReleasedPartially, entities.AllocationStatusReleasedFully, true},
		{"partial reset refused", entities.AllocationStatusReleasedPartially, entities.AllocationStatusPendingInvitation, false},
		{"fully released is terminal", entities.AllocationStatusReleasedFully, entities.AllocationStatusPendingRelease, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestTransitionRejectsInvalidMove(t *testing.T) {
	status, err := Transition(entities.AllocationStatusReleasedFully, entities.AllocationStatusPendingInvitation)
	if !errors.Is(err, domainerrors.ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
	}
	if status != entities.AllocationStatusReleasedFully {
		t.Fatalf("failed transition must return the current status, got %s", status)
	}

	status, err = Transition(entities.AllocationStatusPendingConsent, entities.AllocationStatusAccepted)
	if err != nil {
		t.Fatalf("valid transition failed: %v", err)
	}
	if status != entities.AllocationStatusAccepted {
		t.Fatalf("expected accepted, got %s", status)
	}
}

func TestReleaseEligible(t *testing.T) {
	eligible := []entities.AllocationStatus{
		entities.AllocationStatusAccepted,
		entities.AllocationStatusPendingRelease,
		entities.AllocationStatusReleasedPartially,
	}
	for _, status := range eligible {
		if !ReleaseEligible(status) {
			t.Fatalf("%s should be release eligible", status)
		}
	}
	ineligible := []entities.AllocationStatus{
		entities.AllocationStatusPendingInvitation,
		entities.AllocationStatusPendingConsent,
		entities.AllocationStatusRejected,
		entities.AllocationStatusReleasedFully,
	}
	for _, status := range ineligible {
		if ReleaseEligible(status) {
			t.Fatalf("%s should not be release eligible", status)
		}
	}
}

func TestResettable(t *testing.T) {
	if !Resettable(entities.AllocationStatusRejected) {
		t.Fatalf("rejected should be resettable")
	}
	if Resettable(entities.AllocationStatusPendingRelease) {
		t.Fatalf("pending_release must not be resettable")
	}
	if Resettable(entities.AllocationStatusReleasedFully) {
		t.Fatalf("released_fully must not be resettable")
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(entities.AllocationStatusReleasedFully) {
		t.Fatalf("released_fully should be terminal")
	}
	if IsTerminal(entities.AllocationStatusAccepted) {
		t.Fatalf("accepted should not be terminal")
	}
}
