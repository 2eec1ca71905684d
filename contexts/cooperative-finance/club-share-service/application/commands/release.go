package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"sort"
	"strings"

	application "coopshares/contexts/cooperative-finance/club-share-service/application"
	"coopshares/contexts/cooperative-finance/club-share-service/domain/entities"
	domainerrors "coopshares/contexts/cooperative-finance/club-share-service/domain/errors"
	"coopshares/contexts/cooperative-finance/club-share-service/domain/services"
	"coopshares/contexts/cooperative-finance/club-share-service/ports"
)

const holdingReleasedEventType = "clubshares.holding.released"

type BulkReleaseCommand struct {
	ActorID  string
	Quantity int64
	Reason   string
}

type ManualReleaseCommand struct {
	ActorID       string
	AllocationIDs []string
	Reason        string
}

type ReleaseUseCase struct {
	Repository ports.Repository
	Trading    ports.TradingLedger
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// releaseEligibleStatuses is the pool a release run reads. Anything else is
// skipped, not errored.
var releaseEligibleStatuses = []entities.AllocationStatus{
	entities.AllocationStatusAccepted,
	entities.AllocationStatusPendingRelease,
	entities.AllocationStatusReleasedPartially,
}

// BulkRelease distributes cmd.Quantity proportionally across the eligible
// pool using floor rounding. The pool total is the sum of full allocated
// quantities, not the fractions still held. The floor shortfall is retained,
// never redistributed. Each member is an independent unit of work.
func (uc ReleaseUseCase) BulkRelease(ctx context.Context, cmd BulkReleaseCommand) (BatchOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	if cmd.Quantity <= 0 {
		return BatchOutcome{}, domainerrors.ErrInvalidReleaseQuantity
	}

	pool, err := uc.Repository.ListAllocationsByStatus(ctx, releaseEligibleStatuses)
	if err != nil {
		logger.Error("bulk release pool load failed",
			"event", "club_share_bulk_release_pool_load_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"error", err.Error(),
		)
		return BatchOutcome{}, err
	}

	var poolTotal int64
	for _, allocation := range pool {
		poolTotal += allocation.AllocatedShares
	}
	if poolTotal <= 0 {
		return BatchOutcome{}, domainerrors.ErrEmptyReleasePool
	}

	// Member-id order is the only ordering guarantee of a bulk run.
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].MemberID == pool[j].MemberID {
			return pool[i].ID < pool[j].ID
		}
		return pool[i].MemberID < pool[j].MemberID
	})

	outcome := BatchOutcome{Candidates: len(pool)}
	for _, candidate := range pool {
		ratio := float64(candidate.AllocatedShares) / float64(poolTotal)
		share := floorShare(candidate.AllocatedShares, cmd.Quantity, poolTotal)
		if share <= 0 {
			outcome.Skipped++
			continue
		}
		if err := uc.releaseTranche(ctx, candidate.ID, share, ratio, poolTotal, cmd); err != nil {
			if err == errUnitSkipped {
				outcome.Skipped++
				continue
			}
			outcome.Failed++
			logger.Error("bulk release member unit failed",
				"event", "club_share_bulk_release_unit_failed",
				"module", "cooperative-finance/club-share-service",
				"layer", "application",
				"allocation_id", candidate.ID,
				"member_id", candidate.MemberID,
				"error", err.Error(),
			)
			continue
		}
		outcome.Succeeded++
	}

	logger.Info("bulk release completed",
		"event", "club_share_bulk_release_completed",
		"module", "cooperative-finance/club-share-service",
		"layer", "application",
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"requested_quantity", cmd.Quantity,
		"pool_total", poolTotal,
		"candidates", outcome.Candidates,
		"succeeded", outcome.Succeeded,
		"failed", outcome.Failed,
		"skipped", outcome.Skipped,
	)
	return outcome, nil
}

// errUnitSkipped marks a per-member unit that found nothing to do after the
// pre-mutation recheck.
var errUnitSkipped = fmt.Errorf("release unit skipped")

// floorShare is floor(allocated*quantity/poolTotal) in integer arithmetic.
// Float division can land a hair below an exact ratio and lose a whole
// share to the floor; the float ratio is kept only for the audit snapshot.
// Products beyond int64 fall back to big.Int.
func floorShare(allocated, quantity, poolTotal int64) int64 {
	if allocated <= 0 || quantity <= 0 || poolTotal <= 0 {
		return 0
	}
	if allocated <= math.MaxInt64/quantity {
		return allocated * quantity / poolTotal
	}
	product := new(big.Int).Mul(big.NewInt(allocated), big.NewInt(quantity))
	return product.Quo(product, big.NewInt(poolTotal)).Int64()
}

func (uc ReleaseUseCase) releaseTranche(
	ctx context.Context,
	allocationID string,
	share int64,
	ratio float64,
	poolTotal int64,
	cmd BulkReleaseCommand,
) error {
	// Re-read immediately before mutating: a concurrent rollback or release
	// run degrades to a skip instead of releasing from a stale allocation.
	allocation, err := uc.Repository.GetAllocation(ctx, allocationID)
	if err != nil {
		return err
	}
	if !services.ReleaseEligible(allocation.Status) {
		return errUnitSkipped
	}

	now := resolveNow(uc.Clock)
	holding, err := uc.Repository.GetHoldingByAllocation(ctx, allocation.ID)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrHoldingNotFound) {
			return err
		}
		holdingID, idErr := uc.IDGen.NewID(ctx)
		if idErr != nil {
			return idErr
		}
		holding = entities.ClubShareHoldingAccount{
			ID:             holdingID,
			AllocationID:   allocation.ID,
			MemberID:       allocation.MemberID,
			SharesQuantity: allocation.AllocatedShares,
			Status:         entities.HoldingStatusHolding,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := uc.Repository.CreateHolding(ctx, holding); err != nil {
			return err
		}
	}

	remaining := holding.SharesRemaining()
	if remaining <= 0 {
		return errUnitSkipped
	}
	if share > remaining {
		share = remaining
	}

	logID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if err := uc.Repository.AppendReleaseLog(ctx, entities.ClubShareReleaseLog{
		ID:                logID,
		AllocationID:      allocation.ID,
		HoldingAccountID:  holding.ID,
		SharesReleased:    share,
		ReleasePercent:    float64(share) / float64(allocation.AllocatedShares) * 100,
		Trigger:           entities.ReleaseTriggerBulk,
		Reason:            strings.TrimSpace(cmd.Reason),
		PoolTotal:         poolTotal,
		RequestedQuantity: cmd.Quantity,
		MemberRatio:       ratio,
		SnapshotAt:        now,
		ActorID:           strings.TrimSpace(cmd.ActorID),
		CreatedAt:         now,
	}); err != nil {
		return err
	}

	holding.SharesReleased += share
	if holding.SharesRemaining() == 0 {
		holding.Status = entities.HoldingStatusFullyReleased
	} else {
		holding.Status = entities.HoldingStatusPartiallyReleased
	}
	holding.UpdatedAt = now
	if err := uc.Repository.UpdateHolding(ctx, holding); err != nil {
		return err
	}

	nextStatus, err := services.Transition(allocation.Status, entities.AllocationStatusPendingRelease)
	if err != nil {
		return err
	}
	allocation.Status = nextStatus
	allocation.UpdatedAt = now
	return uc.Repository.UpdateAllocation(ctx, allocation)
}

// ManualFullRelease settles the full remaining holding of each selected
// allocation into a tradable balance at zero cost basis. Allocations already
// fully released are skipped without writing anything.
func (uc ReleaseUseCase) ManualFullRelease(ctx context.Context, cmd ManualReleaseCommand) (BatchOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	outcome := BatchOutcome{Candidates: len(cmd.AllocationIDs)}
	for _, allocationID := range cmd.AllocationIDs {
		if err := uc.settleAllocation(ctx, strings.TrimSpace(allocationID), cmd); err != nil {
			if err == errUnitSkipped {
				outcome.Skipped++
				continue
			}
			outcome.Failed++
			logger.Error("manual release unit failed",
				"event", "club_share_manual_release_unit_failed",
				"module", "cooperative-finance/club-share-service",
				"layer", "application",
				"allocation_id", strings.TrimSpace(allocationID),
				"error", err.Error(),
			)
			continue
		}
		outcome.Succeeded++
	}

	logger.Info("manual release completed",
		"event", "club_share_manual_release_completed",
		"module", "cooperative-finance/club-share-service",
		"layer", "application",
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"candidates", outcome.Candidates,
		"succeeded", outcome.Succeeded,
		"failed", outcome.Failed,
		"skipped", outcome.Skipped,
	)
	return outcome, nil
}

func (uc ReleaseUseCase) settleAllocation(ctx context.Context, allocationID string, cmd ManualReleaseCommand) error {
	allocation, err := uc.Repository.GetAllocation(ctx, allocationID)
	if err != nil {
		return err
	}
	if allocation.Status == entities.AllocationStatusReleasedFully {
		return errUnitSkipped
	}
	if !services.ReleaseEligible(allocation.Status) {
		return errUnitSkipped
	}

	member, err := uc.Repository.GetMember(ctx, allocation.MemberID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(member.UserAccountID) == "" {
		return domainerrors.ErrMemberAccountMissing
	}

	holding, err := uc.Repository.GetHoldingByAllocation(ctx, allocation.ID)
	if err != nil {
		return err
	}
	remaining := holding.SharesRemaining()
	if remaining <= 0 {
		return errUnitSkipped
	}

	tradableRef, err := uc.Trading.CreateTradableHolding(ctx, member.UserAccountID, remaining, 0)
	if err != nil {
		return fmt.Errorf("%w: %s", domainerrors.ErrTradingLedgerUnavailable, err)
	}

	now := resolveNow(uc.Clock)
	logID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if err := uc.Repository.AppendReleaseLog(ctx, entities.ClubShareReleaseLog{
		ID:                 logID,
		AllocationID:       allocation.ID,
		HoldingAccountID:   holding.ID,
		SharesReleased:     remaining,
		ReleasePercent:     100,
		Trigger:            entities.ReleaseTriggerAdmin,
		Reason:             strings.TrimSpace(cmd.Reason),
		PoolTotal:          remaining,
		RequestedQuantity:  remaining,
		MemberRatio:        1,
		SnapshotAt:         now,
		TradableHoldingRef: tradableRef,
		ActorID:            strings.TrimSpace(cmd.ActorID),
		CreatedAt:          now,
	}); err != nil {
		return err
	}

	holding.SharesReleased = holding.SharesQuantity
	holding.Status = entities.HoldingStatusFullyReleased
	holding.UpdatedAt = now
	if err := uc.Repository.UpdateHolding(ctx, holding); err != nil {
		return err
	}

	nextStatus, err := services.Transition(allocation.Status, entities.AllocationStatusReleasedFully)
	if err != nil {
		return err
	}
	allocation.Status = nextStatus
	allocation.UpdatedAt = now
	if err := uc.Repository.UpdateAllocation(ctx, allocation); err != nil {
		return err
	}

	// The shares have already moved at this point. A failed outbox append
	// only delays the announcement and must not report the unit as failed.
	uc.emitHoldingReleased(ctx, allocation, member, holding, tradableRef, remaining)
	return nil
}

// emitHoldingReleased hands the completed holding to the trading subsystem
// through the module outbox. Failures are logged, never propagated, since
// the structural release has already committed.
func (uc ReleaseUseCase) emitHoldingReleased(
	ctx context.Context,
	allocation entities.ClubShareAllocation,
	member entities.ClubMember,
	holding entities.ClubShareHoldingAccount,
	tradableRef string,
	shares int64,
) {
	logger := application.ResolveLogger(uc.Logger)
	if uc.Outbox == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		logger.Error("holding released event id failed",
			"event", "club_share_holding_released_outbox_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"allocation_id", allocation.ID,
			"error", err.Error(),
		)
		return
	}
	payload, err := json.Marshal(map[string]any{
		"allocation_id":        allocation.ID,
		"member_id":            member.ID,
		"user_account_id":      member.UserAccountID,
		"holding_account_id":   holding.ID,
		"tradable_holding_ref": tradableRef,
		"shares":               shares,
	})
	if err != nil {
		logger.Error("holding released payload encode failed",
			"event", "club_share_holding_released_outbox_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"allocation_id", allocation.ID,
			"error", err.Error(),
		)
		return
	}
	if err := uc.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:       eventID,
		EventType:     holdingReleasedEventType,
		SourceService: "club-share-service",
		OccurredAt:    resolveNow(uc.Clock),
		SchemaVersion: 1,
		PartitionKey:  allocation.ID,
		Data:          payload,
	}); err != nil {
		logger.Error("holding released outbox append failed",
			"event", "club_share_holding_released_outbox_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"allocation_id", allocation.ID,
			"error", err.Error(),
		)
	}
}
