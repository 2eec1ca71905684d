package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "coopshares/contexts/cooperative-finance/club-share-service/application"
	domainerrors "coopshares/contexts/cooperative-finance/club-share-service/domain/errors"
	"coopshares/contexts/cooperative-finance/club-share-service/ports"
)

type DeleteBatchCommand struct {
	ActorID        string
	BatchReference string
}

type RollbackResult struct {
	LogsDeleted        int64
	HoldingsDeleted    int64
	AllocationsDeleted int64
	MembersDeleted     int64
}

type RollbackUseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

// deletionStep is one entry of the ordered deletion plan. The order of the
// plan is the referential-integrity contract: logs before holdings before
// allocations. Non-fatal steps warn and continue; fatal steps abort the
// whole rollback.
type deletionStep struct {
	name  string
	fatal bool
	run   func(ctx context.Context) (int64, error)
}

// DeleteBatch reverses an entire import batch. Release logs are disposable
// audit detail, so their deletion soft-fails; holding accounts and
// allocations are structural and hard-fail. Members left with zero
// allocations anywhere in the system are removed as orphans.
func (uc RollbackUseCase) DeleteBatch(ctx context.Context, cmd DeleteBatchCommand) (RollbackResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	batchRef := strings.TrimSpace(cmd.BatchReference)

	allocations, err := uc.Repository.ListAllocationsByBatch(ctx, batchRef)
	if err != nil {
		return RollbackResult{}, err
	}
	if len(allocations) == 0 {
		return RollbackResult{}, domainerrors.ErrBatchNotFound
	}

	allocationIDs := make([]string, 0, len(allocations))
	memberIDs := make([]string, 0, len(allocations))
	seenMembers := make(map[string]struct{}, len(allocations))
	for _, allocation := range allocations {
		allocationIDs = append(allocationIDs, allocation.ID)
		if _, seen := seenMembers[allocation.MemberID]; !seen {
			seenMembers[allocation.MemberID] = struct{}{}
			memberIDs = append(memberIDs, allocation.MemberID)
		}
	}

	var result RollbackResult
	plan := []deletionStep{
		{
			name:  "release_logs",
			fatal: false,
			run: func(ctx context.Context) (int64, error) {
				return uc.Repository.DeleteReleaseLogsByAllocations(ctx, allocationIDs)
			},
		},
		{
			name:  "holding_accounts",
			fatal: true,
			run: func(ctx context.Context) (int64, error) {
				return uc.Repository.DeleteHoldingsByAllocations(ctx, allocationIDs)
			},
		},
		{
			name:  "allocations",
			fatal: true,
			run: func(ctx context.Context) (int64, error) {
				return uc.Repository.DeleteAllocationsByBatch(ctx, batchRef)
			},
		},
	}

	for _, step := range plan {
		deleted, err := step.run(ctx)
		if err != nil {
			if step.fatal {
				logger.Error("batch rollback structural delete failed",
					"event", "club_share_rollback_structural_delete_failed",
					"module", "cooperative-finance/club-share-service",
					"layer", "application",
					"batch_ref", batchRef,
					"step", step.name,
					"error", err.Error(),
				)
				return result, fmt.Errorf("%w: delete %s: %s", domainerrors.ErrIntegrityViolation, step.name, err)
			}
			logger.Warn("batch rollback audit delete failed",
				"event", "club_share_rollback_audit_delete_failed",
				"module", "cooperative-finance/club-share-service",
				"layer", "application",
				"batch_ref", batchRef,
				"step", step.name,
				"error", err.Error(),
			)
			continue
		}
		switch step.name {
		case "release_logs":
			result.LogsDeleted = deleted
		case "holding_accounts":
			result.HoldingsDeleted = deleted
		case "allocations":
			result.AllocationsDeleted = deleted
		}
	}

	for _, memberID := range memberIDs {
		count, err := uc.Repository.CountAllocationsByMember(ctx, memberID)
		if err != nil {
			logger.Warn("batch rollback orphan check failed",
				"event", "club_share_rollback_orphan_check_failed",
				"module", "cooperative-finance/club-share-service",
				"layer", "application",
				"batch_ref", batchRef,
				"member_id", memberID,
				"error", err.Error(),
			)
			continue
		}
		if count > 0 {
			continue
		}
		if err := uc.Repository.DeleteMember(ctx, memberID); err != nil {
			logger.Warn("batch rollback orphan member delete failed",
				"event", "club_share_rollback_orphan_delete_failed",
				"module", "cooperative-finance/club-share-service",
				"layer", "application",
				"batch_ref", batchRef,
				"member_id", memberID,
				"error", err.Error(),
			)
			continue
		}
		result.MembersDeleted++
	}

	logger.Info("batch rollback completed",
		"event", "club_share_rollback_completed",
		"module", "cooperative-finance/club-share-service",
		"layer", "application",
		"batch_ref", batchRef,
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"allocations_deleted", result.AllocationsDeleted,
		"holdings_deleted", result.HoldingsDeleted,
		"logs_deleted", result.LogsDeleted,
		"members_deleted", result.MembersDeleted,
	)
	return result, nil
}
