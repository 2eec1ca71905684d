package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "coopshares/contexts/cooperative-finance/club-share-service/application"
	"coopshares/contexts/cooperative-finance/club-share-service/application/commands"
	"coopshares/contexts/cooperative-finance/club-share-service/application/queries"
	httptransport "coopshares/contexts/cooperative-finance/club-share-service/transport/http"
)

type Handler struct {
	Importer commands.ImportUseCase
	Consent  commands.ConsentUseCase
	Release  commands.ReleaseUseCase
	Rollback commands.RollbackUseCase
	Queries  queries.UseCase
	Logger   *slog.Logger
}

func (h Handler) ImportBatchHandler(
	ctx context.Context,
	actorID string,
	req httptransport.ImportRequest,
) (httptransport.ImportResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	rows := make([]commands.RawAllocationRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, commands.RawAllocationRow{
			MemberName:      row.MemberName,
			Email:           row.Email,
			Phone:           row.Phone,
			AllocatedShares: row.AllocatedShares,
			TransferFeePaid: row.TransferFeePaid,
			DebtSettled:     row.DebtSettled,
			DebtRejected:    row.DebtRejected,
			TotalCost:       row.TotalCost,
			CostPerShare:    row.CostPerShare,
		})
	}

	result, err := h.Importer.ImportBatch(ctx, commands.ImportBatchCommand{
		ActorID:    actorID,
		BatchLabel: req.BatchLabel,
		Rows:       rows,
	})
	if err != nil {
		logger.Warn("club share http import failed",
			"event", "club_share_http_import_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "adapter",
			"batch_label", strings.TrimSpace(req.BatchLabel),
			"error", err.Error(),
		)
		return httptransport.ImportResponse{}, err
	}

	resp := httptransport.ImportResponse{
		BatchReference: result.BatchReference,
		Succeeded:      result.Succeeded,
		Failed:         result.Failed,
	}
	for _, rowErr := range result.RowErrors {
		resp.RowErrors = append(resp.RowErrors, httptransport.RowErrorDTO{
			Index:    rowErr.Index,
			Messages: rowErr.Messages,
		})
	}
	logger.Info("club share http import completed",
		"event", "club_share_http_import_completed",
		"module", "cooperative-finance/club-share-service",
		"layer", "adapter",
		"batch_ref", result.BatchReference,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return resp, nil
}

func (h Handler) SendInvitationHandler(ctx context.Context, actorID, allocationID string) error {
	logger := application.ResolveLogger(h.Logger)
	if err := h.Consent.SendInvitation(ctx, commands.SendInvitationCommand{
		ActorID:      actorID,
		AllocationID: allocationID,
	}); err != nil {
		logger.Warn("club share http send invitation failed",
			"event", "club_share_http_send_invitation_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "adapter",
			"allocation_id", strings.TrimSpace(allocationID),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (h Handler) SendBulkInvitationsHandler(
	ctx context.Context,
	actorID string,
	req httptransport.BulkInvitationsRequest,
) (httptransport.BatchOutcomeResponse, error) {
	outcome, err := h.Consent.SendBulkInvitations(ctx, commands.BulkInvitationsCommand{
		ActorID:       actorID,
		AllocationIDs: req.AllocationIDs,
	})
	if err != nil {
		return httptransport.BatchOutcomeResponse{}, err
	}
	return batchOutcomeResponse(outcome), nil
}

func (h Handler) RecordDecisionHandler(
	ctx context.Context,
	actorID, allocationID string,
	req httptransport.DecisionRequest,
) error {
	return h.Consent.RecordDecision(ctx, commands.RecordDecisionCommand{
		ActorID:      actorID,
		AllocationID: allocationID,
		Accepted:     req.Accepted,
		Reason:       req.Reason,
	})
}

func (h Handler) ResetAllocationHandler(ctx context.Context, actorID, allocationID string) error {
	return h.Consent.ResetAllocation(ctx, commands.ResetAllocationCommand{
		ActorID:      actorID,
		AllocationID: allocationID,
	})
}

func (h Handler) BulkReleaseHandler(
	ctx context.Context,
	actorID string,
	req httptransport.BulkReleaseRequest,
) (httptransport.BatchOutcomeResponse, error) {
	outcome, err := h.Release.BulkRelease(ctx, commands.BulkReleaseCommand{
		ActorID:  actorID,
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		return httptransport.BatchOutcomeResponse{}, err
	}
	return batchOutcomeResponse(outcome), nil
}

func (h Handler) ManualReleaseHandler(
	ctx context.Context,
	actorID string,
	req httptransport.ManualReleaseRequest,
) (httptransport.BatchOutcomeResponse, error) {
	outcome, err := h.Release.ManualFullRelease(ctx, commands.ManualReleaseCommand{
		ActorID:       actorID,
		AllocationIDs: req.AllocationIDs,
		Reason:        req.Reason,
	})
	if err != nil {
		return httptransport.BatchOutcomeResponse{}, err
	}
	return batchOutcomeResponse(outcome), nil
}

func (h Handler) DeleteBatchHandler(
	ctx context.Context,
	actorID, batchRef string,
) (httptransport.RollbackResponse, error) {
	result, err := h.Rollback.DeleteBatch(ctx, commands.DeleteBatchCommand{
		ActorID:        actorID,
		BatchReference: batchRef,
	})
	if err != nil {
		return httptransport.RollbackResponse{}, err
	}
	return httptransport.RollbackResponse{
		BatchReference:     strings.TrimSpace(batchRef),
		LogsDeleted:        result.LogsDeleted,
		HoldingsDeleted:    result.HoldingsDeleted,
		AllocationsDeleted: result.AllocationsDeleted,
		MembersDeleted:     result.MembersDeleted,
	}, nil
}

func (h Handler) GetAllocationHandler(ctx context.Context, allocationID string) (httptransport.AllocationDTO, error) {
	view, err := h.Queries.GetAllocation(ctx, allocationID)
	if err != nil {
		return httptransport.AllocationDTO{}, err
	}
	return allocationDTO(view), nil
}

func (h Handler) ListBatchHandler(ctx context.Context, batchRef string) (httptransport.BatchListResponse, error) {
	allocations, err := h.Queries.ListBatch(ctx, batchRef)
	if err != nil {
		return httptransport.BatchListResponse{}, err
	}
	resp := httptransport.BatchListResponse{
		BatchReference: strings.TrimSpace(batchRef),
		Allocations:    make([]httptransport.BatchAllocationDTO, 0, len(allocations)),
	}
	for _, allocation := range allocations {
		resp.Allocations = append(resp.Allocations, httptransport.BatchAllocationDTO{
			ID:              allocation.ID,
			MemberID:        allocation.MemberID,
			AllocatedShares: allocation.AllocatedShares,
			Status:          string(allocation.Status),
		})
	}
	return resp, nil
}

func (h Handler) BatchSummaryHandler(ctx context.Context, batchRef string) (httptransport.BatchSummaryResponse, error) {
	summary, err := h.Queries.BatchSummary(ctx, batchRef)
	if err != nil {
		return httptransport.BatchSummaryResponse{}, err
	}
	counts := make(map[string]int, len(summary.StatusCounts))
	for status, count := range summary.StatusCounts {
		counts[string(status)] = count
	}
	return httptransport.BatchSummaryResponse{
		BatchReference:   summary.BatchReference,
		TotalAllocations: summary.TotalAllocations,
		StatusCounts:     counts,
		TotalShares:      summary.TotalShares,
		SharesReleased:   summary.SharesReleased,
		SharesRemaining:  summary.SharesRemaining,
	}, nil
}

func (h Handler) ListReleaseLogsHandler(ctx context.Context, allocationID string) (httptransport.ReleaseLogListResponse, error) {
	logs, err := h.Queries.ListReleaseLogs(ctx, allocationID)
	if err != nil {
		return httptransport.ReleaseLogListResponse{}, err
	}
	resp := httptransport.ReleaseLogListResponse{
		AllocationID: strings.TrimSpace(allocationID),
		Logs:         make([]httptransport.ReleaseLogDTO, 0, len(logs)),
	}
	for _, log := range logs {
		resp.Logs = append(resp.Logs, httptransport.ReleaseLogDTO{
			ID:                 log.ID,
			AllocationID:       log.AllocationID,
			HoldingAccountID:   log.HoldingAccountID,
			SharesReleased:     log.SharesReleased,
			ReleasePercent:     log.ReleasePercent,
			Trigger:            string(log.Trigger),
			Reason:             log.Reason,
			PoolTotal:          log.PoolTotal,
			RequestedQuantity:  log.RequestedQuantity,
			MemberRatio:        log.MemberRatio,
			SnapshotAt:         log.SnapshotAt.Format(time.RFC3339),
			TradableHoldingRef: log.TradableHoldingRef,
			ActorID:            log.ActorID,
		})
	}
	return resp, nil
}

func batchOutcomeResponse(outcome commands.BatchOutcome) httptransport.BatchOutcomeResponse {
	return httptransport.BatchOutcomeResponse{
		Candidates: outcome.Candidates,
		Succeeded:  outcome.Succeeded,
		Failed:     outcome.Failed,
		Skipped:    outcome.Skipped,
	}
}

func allocationDTO(view queries.AllocationView) httptransport.AllocationDTO {
	dto := httptransport.AllocationDTO{
		ID: view.Allocation.ID,
		Member: httptransport.MemberDTO{
			ID:            view.Member.ID,
			Name:          view.Member.Name,
			Email:         view.Member.Email,
			Phone:         view.Member.Phone,
			UserAccountID: view.Member.UserAccountID,
		},
		AllocatedShares: view.Allocation.AllocatedShares,
		TransferFeePaid: view.Allocation.TransferFeePaid,
		DebtSettled:     view.Allocation.DebtSettled,
		DebtRejected:    view.Allocation.DebtRejected,
		TotalCost:       view.Allocation.TotalCost,
		CostPerShare:    view.Allocation.CostPerShare,
		Status:          string(view.Allocation.Status),
		RejectionReason: view.Allocation.RejectionReason,
		ImportBatchRef:  view.Allocation.ImportBatchRef,
	}
	if view.Allocation.ConsentDeadline != nil {
		dto.ConsentDeadline = view.Allocation.ConsentDeadline.UTC().Format(time.RFC3339)
	}
	if view.Holding != nil {
		dto.Holding = &httptransport.HoldingDTO{
			ID:              view.Holding.ID,
			SharesQuantity:  view.Holding.SharesQuantity,
			SharesReleased:  view.Holding.SharesReleased,
			SharesRemaining: view.Holding.SharesRemaining(),
			Status:          string(view.Holding.Status),
		}
	}
	return dto
}
