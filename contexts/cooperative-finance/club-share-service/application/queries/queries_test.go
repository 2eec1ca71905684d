package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"coopshares/contexts/cooperative-finance/club-share-service/adapters/memory"
	"coopshares/contexts/cooperative-finance/club-share-service/domain/entities"
	domainerrors "coopshares/contexts/cooperative-finance/club-share-service/domain/errors"
)

var queryNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func seedQueryMember(t *testing.T, store *memory.Store, id, name, email string) {
	t.Helper()
	if err := store.CreateMember(context.Background(), entities.ClubMember{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: queryNow,
		UpdatedAt: queryNow,
	}); err != nil {
		t.Fatalf("seed member %s: %v", id, err)
	}
}

func seedQueryAllocation(
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
		CreatedAt:       queryNow,
		UpdatedAt:       queryNow,
	}); err != nil {
		t.Fatalf("seed allocation %s: %v", id, err)
	}
}

func seedQueryHolding(
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
		CreatedAt:      queryNow,
		UpdatedAt:      queryNow,
	}); err != nil {
		t.Fatalf("seed holding %s: %v", id, err)
	}
}

func TestGetAllocationJoinsMemberAndHolding(t *testing.T) {
	store := memory.NewStore()
	uc := UseCase{Repository: store}
	seedQueryMember(t, store, "m-1", "Ade Bello", "ade@example.com")
	seedQueryAllocation(t, store, "a-1", "m-1", 100, entities.AllocationStatusAccepted, "batch-1")
	seedQueryHolding(t, store, "h-1", "a-1", "m-1", 100, 25, entities.HoldingStatusPartiallyReleased)

	view, err := uc.GetAllocation(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("get allocation failed: %v", err)
	}
	if view.Member.Email != "ade@example.com" {
		t.Fatalf("member not joined: %+v", view.Member)
	}
	if view.Holding == nil || view.Holding.SharesReleased != 25 {
		t.Fatalf("holding not joined: %+v", view.Holding)
	}
	if view.Holding.SharesRemaining() != 75 {
		t.Fatalf("expected 75 remaining, got %d", view.Holding.SharesRemaining())
	}
}

func TestGetAllocationWithoutHolding(t *testing.T) {
	store := memory.NewStore()
	uc := UseCase{Repository: store}
	seedQueryMember(t, store, "m-1", "Ade Bello", "ade@example.com")
	seedQueryAllocation(t, store, "a-1", "m-1", 100, entities.AllocationStatusPendingInvitation, "batch-1")

	view, err := uc.GetAllocation(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("get allocation failed: %v", err)
	}
	if view.Holding != nil {
		t.Fatalf("expected no holding, got %+v", view.Holding)
	}
}

func TestGetAllocationNotFound(t *testing.T) {
	store := memory.NewStore()
	uc := UseCase{Repository: store}

	if _, err := uc.GetAllocation(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrAllocationNotFound) {
		t.Fatalf("expected ErrAllocationNotFound, got %v", err)
	}
}

func TestListBatchUnknownReference(t *testing.T) {
	store := memory.NewStore()
	uc := UseCase{Repository: store}

	if _, err := uc.ListBatch(context.Background(), "no-such-batch"); !errors.Is(err, domainerrors.ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
}

func TestBatchSummaryAggregates(t *testing.T) {
	store := memory.NewStore()
	uc := UseCase{Repository: store}
	seedQueryMember(t, store, "m-1", "Ade Bello", "ade@example.com")
	seedQueryMember(t, store, "m-2", "Bisi Musa", "bisi@example.com")
	seedQueryMember(t, store, "m-3", "Cara Osei", "cara@example.com")
	seedQueryAllocation(t, store, "a-1", "m-1", 100, entities.AllocationStatusAccepted, "batch-1")
	seedQueryAllocation(t, store, "a-2", "m-2", 250, entities.AllocationStatusPendingRelease, "batch-1")
	seedQueryAllocation(t, store, "a-3", "m-3", 50, entities.AllocationStatusRejected, "batch-1")
	seedQueryHolding(t, store, "h-1", "a-1", "m-1", 100, 0, entities.HoldingStatusHolding)
	seedQueryHolding(t, store, "h-2", "a-2", "m-2", 250, 80, entities.HoldingStatusPartiallyReleased)

	summary, err := uc.BatchSummary(context.Background(), "batch-1")
	if err != nil {
		t.Fatalf("batch summary failed: %v", err)
	}
	if summary.TotalAllocations != 3 || summary.TotalShares != 400 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if summary.SharesReleased != 80 || summary.SharesRemaining != 270 {
		t.Fatalf("unexpected release aggregates: %+v", summary)
	}
	if summary.StatusCounts[entities.AllocationStatusAccepted] != 1 ||
		summary.StatusCounts[entities.AllocationStatusPendingRelease] != 1 ||
		summary.StatusCounts[entities.AllocationStatusRejected] != 1 {
		t.Fatalf("unexpected status counts: %+v", summary.StatusCounts)
	}
}

func TestListReleaseLogsRequiresAllocation(t *testing.T) {
	store := memory.NewStore()
	uc := UseCase{Repository: store}

	if _, err := uc.ListReleaseLogs(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrAllocationNotFound) {
		t.Fatalf("expected ErrAllocationNotFound, got %v", err)
	}
}

func TestListReleaseLogsReturnsHistory(t *testing.T) {
	store := memory.NewStore()
	uc := UseCase{Repository: store}
	seedQueryMember(t, store, "m-1", "Ade Bello", "ade@example.com")
	seedQueryAllocation(t, store, "a-1", "m-1", 100, entities.AllocationStatusPendingRelease, "batch-1")
	for i, id := range []string{"l-1", "l-2"} {
		if err := store.AppendReleaseLog(context.Background(), entities.ClubShareReleaseLog{
			ID:             id,
			AllocationID:   "a-1",
			SharesReleased: int64(10 * (i + 1)),
			Trigger:        entities.ReleaseTriggerBulk,
			SnapshotAt:     queryNow,
			CreatedAt:      queryNow,
		}); err != nil {
			t.Fatalf("seed log %s: %v", id, err)
		}
	}

	logs, err := uc.ListReleaseLogs(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("list release logs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
}
