package commands

import (
	"context"
	"testing"
	"time"

	"coopshares/contexts/cooperative-finance/club-share-service/adapters/memory"
	"coopshares/contexts/cooperative-finance/club-share-service/domain/entities"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func seedMember(t *testing.T, store *memory.Store, id, name, email, accountID string) {
	t.Helper()
	if err := store.CreateMember(context.Background(), entities.ClubMember{
		ID:            id,
		Name:          name,
		Email:         email,
		UserAccountID: accountID,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}); err != nil {
		t.Fatalf("seed member %s: %v", id, err)
	}
}

func seedAllocation(
	t *testing.T,
	store *memory.Store,
	id, memberID string,
	shares int64,
	status entities.AllocationStatus,
	batchRef string,
) {
	t.Helper()
	if err := store.CreateAllocation(context.Background(), entities.ClubShareAllocation{
		ID:              id,
		MemberID:        memberID,
		AllocatedShares: shares,
		Status:          status,
		ImportBatchRef:  batchRef,
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	}); err != nil {
		t.Fatalf("seed allocation %s: %v", id, err)
	}
}

func seedHolding(
	t *testing.T,
	store *memory.Store,
	id, allocationID, memberID string,
	quantity, released int64,
	status entities.HoldingStatus,
) {
	t.Helper()
	if err := store.CreateHolding(context.Background(), entities.ClubShareHoldingAccount{
		ID:             id,
		AllocationID:   allocationID,
		MemberID:       memberID,
		SharesQuantity: quantity,
		SharesReleased: released,
		Status:         status,
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}); err != nil {
		t.Fatalf("seed holding %s: %v", id, err)
	}
}
