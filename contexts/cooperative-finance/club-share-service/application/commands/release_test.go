package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"coopshares/contexts/cooperative-finance/club-share-service/adapters/memory"
	"coopshares/contexts/cooperative-finance/club-share-service/domain/entities"
	domainerrors "coopshares/contexts/cooperative-finance/club-share-service/domain/errors"
	"coopshares/contexts/cooperative-finance/club-share-service/ports"
)

func newReleaseUseCase(store *memory.Store) (ReleaseUseCase, *memory.TradingLedger) {
	trading := &memory.TradingLedger{}
	return ReleaseUseCase{
		Repository: store,
		Trading:    trading,
		Outbox:     store,
		Clock:      fixedClock{now: testNow},
		IDGen:      store,
	}, trading
}

func seedAcceptedPool(t *testing.T, store *memory.Store) {
	t.Helper()
	seedMember(t, store, "m-1", "Ade Bello", "ade@example.com", "acct-1")
	seedMember(t, store, "m-2", "Bisi Musa", "bisi@example.com", "acct-2")
	seedMember(t, store, "m-3", "Cara Osei", "cara@example.com", "acct-3")
	seedAllocation(t, store, "a-1", "m-1", 100, entities.AllocationStatusAccepted, "batch-1")
	seedAllocation(t, store, "a-2", "m-2", 250, entities.AllocationStatusAccepted, "batch-1")
	seedAllocation(t, store, "a-3", "m-3", 650, entities.AllocationStatusAccepted, "batch-1")
	seedHolding(t, store, "h-1", "a-1", "m-1", 100, 0, entities.HoldingStatusHolding)
	seedHolding(t, store, "h-2", "a-2", "m-2", 250, 0, entities.HoldingStatusHolding)
	seedHolding(t, store, "h-3", "a-3", "m-3", 650, 0, entities.HoldingStatusHolding)
}

func TestBulkReleaseFloorRounding(t *testing.T) {
	store := memory.NewStore()
	uc, _ := newReleaseUseCase(store)
	seedAcceptedPool(t, store)

	outcome, err := uc.BulkRelease(context.Background(), BulkReleaseCommand{
		ActorID:  "admin-1",
		Quantity: 333,
	})
	if err != nil {
		t.Fatalf("bulk release failed: %v", err)
	}
	if outcome.Candidates != 3 || outcome.Succeeded != 3 || outcome.Failed != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	// floor(100/1000*333)=33, floor(250/1000*333)=83, floor(650/1000*333)=216.
	// Sum is 332; the single leftover share stays in escrow.
	expected := map[string]int64{"a-1": 33, "a-2": 83, "a-3": 216}
	var total int64
	for allocationID, want := range expected {
		holding, err := store.GetHoldingByAllocation(context.Background(), allocationID)
		if err != nil {
			t.Fatalf("holding lookup %s: %v", allocationID, err)
		}
		if holding.SharesReleased != want {
			t.Fatalf("allocation %s released %d, want %d", allocationID, holding.SharesReleased, want)
		}
		if holding.Status != entities.HoldingStatusPartiallyReleased {
			t.Fatalf("allocation %s holding status %s", allocationID, holding.Status)
		}
		total += holding.SharesReleased

		allocation, _ := store.GetAllocation(context.Background(), allocationID)
		if allocation.Status != entities.AllocationStatusPendingRelease {
			t.Fatalf("allocation %s status %s, want pending_release", allocationID, allocation.Status)
		}

		logs, err := store.ListReleaseLogsByAllocation(context.Background(), allocationID)
		if err != nil || len(logs) != 1 {
			t.Fatalf("expected one release log for %s, got %d (err %v)", allocationID, len(logs), err)
		}
		if logs[0].PoolTotal != 1000 || logs[0].RequestedQuantity != 333 {
			t.Fatalf("log snapshot wrong for %s: %+v", allocationID, logs[0])
		}
		if logs[0].Trigger != entities.ReleaseTriggerBulk {
			t.Fatalf("log trigger wrong for %s: %s", allocationID, logs[0].Trigger)
		}
	}
	if total != 332 {
		t.Fatalf("expected 332 released in total (1 retained), got %d", total)
	}
}

func TestBulkReleaseExactRatiosLoseNothing(t *testing.T) {
	cases := []struct {
		name     string
		shares   []int64
		quantity int64
		want     []int64
	}{
		// 700/1000 of 90 is exactly 63; float division would floor it to 62.
		{"seven tenths of ninety", []int64{700, 300}, 90, []int64{63, 27}},
		{"eleventh pool divides evenly", []int64{3, 8}, 55, []int64{15, 40}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore()
			uc, _ := newReleaseUseCase(store)
			for i, shares := range tc.shares {
				memberID := fmt.Sprintf("m-%d", i+1)
				allocationID := fmt.Sprintf("a-%d", i+1)
				seedMember(t, store, memberID, fmt.Sprintf("Member %d", i+1), fmt.Sprintf("member%d@example.com", i+1), "")
				seedAllocation(t, store, allocationID, memberID, shares, entities.AllocationStatusAccepted, "batch-1")
				seedHolding(t, store, fmt.Sprintf("h-%d", i+1), allocationID, memberID, shares, 0, entities.HoldingStatusHolding)
			}

			outcome, err := uc.BulkRelease(context.Background(), BulkReleaseCommand{Quantity: tc.quantity})
			if err != nil {
				t.Fatalf("bulk release failed: %v", err)
			}
			if outcome.Succeeded != len(tc.shares) {
				t.Fatalf("unexpected outcome: %+v", outcome)
			}

			var total int64
			for i, want := range tc.want {
				holding, err := store.GetHoldingByAllocation(context.Background(), fmt.Sprintf("a-%d", i+1))
				if err != nil {
					t.Fatalf("holding lookup a-%d: %v", i+1, err)
				}
				if holding.SharesReleased != want {
					t.Fatalf("allocation a-%d released %d, want %d", i+1, holding.SharesReleased, want)
				}
				total += holding.SharesReleased
			}
			if total != tc.quantity {
				t.Fatalf("exact ratios must release the full quantity, got %d of %d", total, tc.quantity)
			}
		})
	}
}

func TestBulkReleaseInvalidQuantity(t *testing.T) {
	store := memory.NewStore()
	uc, _ := newReleaseUseCase(store)

	if _, err := uc.BulkRelease(context.Background(), BulkReleaseCommand{Quantity: 0}); !errors.Is(err, domainerrors.ErrInvalidReleaseQuantity) {
		t.Fatalf("expected ErrInvalidReleaseQuantity, got %v", err)
	}
}

func TestBulkReleaseEmptyPool(t *testing.T) {
	store := memory.NewStore()
	uc, _ := newReleaseUseCase(store)
	seedMember(t, store, "m-1", "Ade Bello", "ade@example.com", "")
	seedAllocation(t, store, "a-1", "m-1", 100, entities.AllocationStatusPendingInvitation, "batch-1")

	if _, err := uc.BulkRelease(context.Background(), BulkReleaseCommand{Quantity: 10}); !errors.Is(err, domainerrors.ErrEmptyReleasePool) {
		t.Fatalf("expected ErrEmptyReleasePool, got %v", err)
	}
}

func TestBulkReleaseSkipsZeroFloorShares(t *testing.T) {
	store := memory.NewStore()
	uc, _ := newReleaseUseCase(store)
	seedMember(t, store, "m-1", "Ade Bello", "ade@example.com", "")
	seedMember(t, store, "m-2", "Bisi Musa", "bisi@example.com", "")
	seedAllocation(t, store, "a-1", "m-1", 1, entities.AllocationStatusAccepted, "batch-1")
	seedAllocation(t, store, "a-2", "m-2", 999, entities.AllocationStatusAccepted, "batch-1")
	seedHolding(t, store, "h-1", "a-1", "m-1", 1, 0, entities.HoldingStatusHolding)
	seedHolding(t, store, "h-2", "a-2", "m-2", 999, 0, entities.HoldingStatusHolding)

	outcome, err := uc.BulkRelease(context.Background(), BulkReleaseCommand{Quantity: 100})
	if err != nil {
		t.Fatalf("bulk release failed: %v", err)
	}
	// floor(1/1000*100)=0 so the small member is skipped untouched.
	if outcome.Skipped != 1 || outcome.Succeeded != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	holding, _ := store.GetHoldingByAllocation(context.Background(), "a-1")
	if holding.SharesReleased != 0 || holding.Status != entities.HoldingStatusHolding {
		t.Fatalf("skipped holding must stay untouched: %+v", holding)
	}
	allocation, _ := store.GetAllocation(context.Background(), "a-1")
	if allocation.Status != entities.AllocationStatusAccepted {
		t.Fatalf("skipped allocation must keep its status, got %s", allocation.Status)
	}
}

func TestBulkReleaseCapsAtRemainingEscrow(t *testing.T) {
	store := memory.NewStore()
	uc, _ := newReleaseUseCase(store)
	seedMember(t, store, "m-1", "Ade Bello", "ade@example.com", "")
	seedAllocation(t, store, "a-1", "m-1", 100, entities.AllocationStatusReleasedPartially, "batch-1")
	seedHolding(t, store, "h-1", "a-1", "m-1", 100, 90, entities.HoldingStatusPartiallyReleased)

	outcome, err := uc.BulkRelease(context.Background(), BulkReleaseCommand{Quantity: 50})
	if err != nil {
		t.Fatalf("bulk release failed: %v", err)
	}
	if outcome.Succeeded != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	holding, _ := store.GetHoldingByAllocation(context.Background(), "a-1")
	if holding.SharesReleased != 100 || holding.Status != entities.HoldingStatusFullyReleased {
		t.Fatalf("release must cap at remaining escrow: %+v", holding)
	}
	logs, _ := store.ListReleaseLogsByAllocation(context.Background(), "a-1")
	if len(logs) != 1 || logs[0].SharesReleased != 10 {
		t.Fatalf("expected a 10-share tranche log, got %+v", logs)
	}
}

func TestBulkReleaseCreatesMissingHolding(t *testing.T) {
	store := memory.NewStore()
	uc, _ := newReleaseUseCase(store)
	seedMember(t, store, "m-1", "Ade Bello", "ade@example.com", "")
	seedAllocation(t, store, "a-1", "m-1", 200, entities.AllocationStatusAccepted, "batch-1")

	outcome, err := uc.BulkRelease(context.Background(), BulkReleaseCommand{Quantity: 50})
	if err != nil {
		t.Fatalf("bulk release failed: %v", err)
	}
	if outcome.Succeeded != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	holding, err := store.GetHoldingByAllocation(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("holding should have been created: %v", err)
	}
	if holding.SharesQuantity != 200 || holding.SharesReleased != 50 {
		t.Fatalf("created holding wrong: %+v", holding)
	}
}

func TestManualFullRelease(t *testing.T) {
	store := memory.NewStore()
	uc, trading := newReleaseUseCase(store)
	seedMember(t, store, "m-1", "Ade Bello", "ade@example.com", "acct-1")
	seedAllocation(t, store, "a-1", "m-1", 100, entities.AllocationStatusReleasedPartially, "batch-1")
	seedHolding(t, store, "h-1", "a-1", "m-1", 100, 40, entities.HoldingStatusPartiallyReleased)

	outcome, err := uc.ManualFullRelease(context.Background(), ManualReleaseCommand{
		ActorID:       "admin-1",
		AllocationIDs: []string{"a-1"},
		Reason:        "board approval 2026-03",
	})
	if err != nil {
		t.Fatalf("manual release failed: %v", err)
	}
	if outcome.Succeeded != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	if len(trading.Created) != 1 {
		t.Fatalf("expected one tradable holding, got %d", len(trading.Created))
	}
	if trading.Created[0].UserAccountID != "acct-1" || trading.Created[0].Shares != 60 || trading.Created[0].CostBasis != 0 {
		t.Fatalf("tradable holding wrong: %+v", trading.Created[0])
	}

	holding, _ := store.GetHoldingByAllocation(context.Background(), "a-1")
	if holding.SharesReleased != 100 || holding.Status != entities.HoldingStatusFullyReleased {
		t.Fatalf("holding not fully released: %+v", holding)
	}
	allocation, _ := store.GetAllocation(context.Background(), "a-1")
	if allocation.Status != entities.AllocationStatusReleasedFully {
		t.Fatalf("allocation status %s, want released_fully", allocation.Status)
	}

	logs, _ := store.ListReleaseLogsByAllocation(context.Background(), "a-1")
	if len(logs) != 1 {
		t.Fatalf("expected one log, got %d", len(logs))
	}
	if logs[0].Trigger != entities.ReleaseTriggerAdmin || logs[0].TradableHoldingRef == "" {
		t.Fatalf("manual log wrong: %+v", logs[0])
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("outbox list failed: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "clubshares.holding.released" {
		t.Fatalf("expected a holding released event in the outbox, got %+v", pending)
	}
}

func TestManualFullReleaseRerunSkips(t *testing.T) {
	store := memory.NewStore()
	uc, trading := newReleaseUseCase(store)
	seedMember(t, store, "m-1", "Ade Bello", "ade@example.com", "acct-1")
	seedAllocation(t, store, "a-1", "m-1", 100, entities.AllocationStatusAccepted, "batch-1")
	seedHolding(t, store, "h-1", "a-1", "m-1", 100, 0, entities.HoldingStatusHolding)

	cmd := ManualReleaseCommand{AllocationIDs: []string{"a-1"}}
	if _, err := uc.ManualFullRelease(context.Background(), cmd); err != nil {
		t.Fatalf("first manual release failed: %v", err)
	}
	outcome, err := uc.ManualFullRelease(context.Background(), cmd)
	if err != nil {
		t.Fatalf("second manual release failed: %v", err)
	}
	if outcome.Skipped != 1 || outcome.Succeeded != 0 {
		t.Fatalf("re-run must skip, got %+v", outcome)
	}
	if len(trading.Created) != 1 {
		t.Fatalf("re-run must not create another tradable holding, got %d", len(trading.Created))
	}
	logs, _ := store.ListReleaseLogsByAllocation(context.Background(), "a-1")
	if len(logs) != 1 {
		t.Fatalf("re-run must not append another log, got %d", len(logs))
	}
}

func TestManualFullReleaseRequiresUserAccount(t *testing.T) {
	store := memory.NewStore()
	uc, trading := newReleaseUseCase(store)
	seedMember(t, store, "m-1", "Ade Bello", "ade@example.com", "")
	seedMember(t, store, "m-2", "Bisi Musa", "bisi@example.com", "acct-2")
	seedAllocation(t, store, "a-1", "m-1", 100, entities.AllocationStatusAccepted, "batch-1")
	seedAllocation(t, store, "a-2", "m-2", 100, entities.AllocationStatusAccepted, "batch-1")
	seedHolding(t, store, "h-1", "a-1", "m-1", 100, 0, entities.HoldingStatusHolding)
	seedHolding(t, store, "h-2", "a-2", "m-2", 100, 0, entities.HoldingStatusHolding)

	outcome, err := uc.ManualFullRelease(context.Background(), ManualReleaseCommand{
		AllocationIDs: []string{"a-1", "a-2"},
	})
	if err != nil {
		t.Fatalf("manual release failed: %v", err)
	}
	// The unlinked member fails as a unit; the other one still settles.
	if outcome.Failed != 1 || outcome.Succeeded != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(trading.Created) != 1 {
		t.Fatalf("expected one tradable holding, got %d", len(trading.Created))
	}
	allocation, _ := store.GetAllocation(context.Background(), "a-1")
	if allocation.Status != entities.AllocationStatusAccepted {
		t.Fatalf("failed unit must leave its allocation unchanged, got %s", allocation.Status)
	}
}

type failingOutbox struct {
	err error
}

func (f failingOutbox) AppendOutbox(context.Context, ports.EventEnvelope) error {
	return f.err
}

func TestManualFullReleaseOutboxFailureStillSucceeds(t *testing.T) {
	store := memory.NewStore()
	uc, trading := newReleaseUseCase(store)
	uc.Outbox = failingOutbox{err: errors.New("outbox unavailable")}
	seedMember(t, store, "m-1", "Ade Bello", "ade@example.com", "acct-1")
	seedAllocation(t, store, "a-1", "m-1", 100, entities.AllocationStatusAccepted, "batch-1")
	seedHolding(t, store, "h-1", "a-1", "m-1", 100, 0, entities.HoldingStatusHolding)

	outcome, err := uc.ManualFullRelease(context.Background(), ManualReleaseCommand{
		AllocationIDs: []string{"a-1"},
	})
	if err != nil {
		t.Fatalf("manual release failed: %v", err)
	}
	// The shares moved, so the unit is a success even though the event
	// announcement was lost.
	if outcome.Succeeded != 1 || outcome.Failed != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(trading.Created) != 1 {
		t.Fatalf("expected one tradable holding, got %d", len(trading.Created))
	}
	allocation, _ := store.GetAllocation(context.Background(), "a-1")
	if allocation.Status != entities.AllocationStatusReleasedFully {
		t.Fatalf("allocation status %s, want released_fully", allocation.Status)
	}
}

func TestManualFullReleaseTradingFailure(t *testing.T) {
	store := memory.NewStore()
	uc, trading := newReleaseUseCase(store)
	trading.Err = errors.New("ledger offline")
	seedMember(t, store, "m-1", "Ade Bello", "ade@example.com", "acct-1")
	seedAllocation(t, store, "a-1", "m-1", 100, entities.AllocationStatusAccepted, "batch-1")
	seedHolding(t, store, "h-1", "a-1", "m-1", 100, 0, entities.HoldingStatusHolding)

	outcome, err := uc.ManualFullRelease(context.Background(), ManualReleaseCommand{
		AllocationIDs: []string{"a-1"},
	})
	if err != nil {
		t.Fatalf("manual release failed: %v", err)
	}
	if outcome.Failed != 1 {
		t.Fatalf("expected the unit to fail, got %+v", outcome)
	}
	holding, _ := store.GetHoldingByAllocation(context.Background(), "a-1")
	if holding.SharesReleased != 0 {
		t.Fatalf("ledger failure must not move escrow: %+v", holding)
	}
	logs, _ := store.ListReleaseLogsByAllocation(context.Background(), "a-1")
	if len(logs) != 0 {
		t.Fatalf("ledger failure must not write logs, got %d", len(logs))
	}
}
