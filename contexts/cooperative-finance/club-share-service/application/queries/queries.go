package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "coopshares/contexts/cooperative-finance/club-share-service/application"
	"coopshares/contexts/cooperative-finance/club-share-service/domain/entities"
	domainerrors "coopshares/contexts/cooperative-finance/club-share-service/domain/errors"
	"coopshares/contexts/cooperative-finance/club-share-service/ports"
)

type UseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

// AllocationView joins an allocation with its member and, when present, its
// holding account.
type AllocationView struct {
	Allocation entities.ClubShareAllocation
	Member     entities.ClubMember
	Holding    *entities.ClubShareHoldingAccount
}

// BatchSummary aggregates one import batch for reporting.
type BatchSummary struct {
	BatchReference   string
	TotalAllocations int
	StatusCounts     map[entities.AllocationStatus]int
	TotalShares      int64
	SharesReleased   int64
	SharesRemaining  int64
}

func (uc UseCase) GetAllocation(ctx context.Context, allocationID string) (AllocationView, error) {
	allocation, err := uc.Repository.GetAllocation(ctx, strings.TrimSpace(allocationID))
	if err != nil {
		return AllocationView{}, err
	}
	member, err := uc.Repository.GetMember(ctx, allocation.MemberID)
	if err != nil {
		return AllocationView{}, err
	}
	view := AllocationView{Allocation: allocation, Member: member}
	holding, err := uc.Repository.GetHoldingByAllocation(ctx, allocation.ID)
	if err == nil {
		view.Holding = &holding
	} else if !errors.Is(err, domainerrors.ErrHoldingNotFound) {
		return AllocationView{}, err
	}
	return view, nil
}

func (uc UseCase) ListBatch(ctx context.Context, batchRef string) ([]entities.ClubShareAllocation, error) {
	allocations, err := uc.Repository.ListAllocationsByBatch(ctx, strings.TrimSpace(batchRef))
	if err != nil {
		return nil, err
	}
	if len(allocations) == 0 {
		return nil, domainerrors.ErrBatchNotFound
	}
	return allocations, nil
}

func (uc UseCase) BatchSummary(ctx context.Context, batchRef string) (BatchSummary, error) {
	logger := application.ResolveLogger(uc.Logger)
	allocations, err := uc.ListBatch(ctx, batchRef)
	if err != nil {
		return BatchSummary{}, err
	}

	summary := BatchSummary{
		BatchReference:   strings.TrimSpace(batchRef),
		TotalAllocations: len(allocations),
		StatusCounts:     make(map[entities.AllocationStatus]int),
	}
	for _, allocation := range allocations {
		summary.StatusCounts[allocation.Status]++
		summary.TotalShares += allocation.AllocatedShares

		holding, err := uc.Repository.GetHoldingByAllocation(ctx, allocation.ID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrHoldingNotFound) {
				continue
			}
			logger.Warn("batch summary holding lookup failed",
				"event", "club_share_batch_summary_holding_lookup_failed",
				"module", "cooperative-finance/club-share-service",
				"layer", "application",
				"batch_ref", summary.BatchReference,
				"allocation_id", allocation.ID,
				"error", err.Error(),
			)
			continue
		}
		summary.SharesReleased += holding.SharesReleased
		summary.SharesRemaining += holding.SharesRemaining()
	}
	return summary, nil
}

func (uc UseCase) ListReleaseLogs(ctx context.Context, allocationID string) ([]entities.ClubShareReleaseLog, error) {
	if _, err := uc.Repository.GetAllocation(ctx, strings.TrimSpace(allocationID)); err != nil {
		return nil, err
	}
	return uc.Repository.ListReleaseLogsByAllocation(ctx, strings.TrimSpace(allocationID))
}
