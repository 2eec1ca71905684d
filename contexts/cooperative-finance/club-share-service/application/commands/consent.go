package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "coopshares/contexts/cooperative-finance/club-share-service/application"
	"coopshares/contexts/cooperative-finance/club-share-service/domain/entities"
	domainerrors "coopshares/contexts/cooperative-finance/club-share-service/domain/errors"
	"coopshares/contexts/cooperative-finance/club-share-service/domain/services"
	"coopshares/contexts/cooperative-finance/club-share-service/ports"
)

const consentDeadlineWindow = 30 * 24 * time.Hour

const consentTemplateType = "club_share_consent_invitation"

type SendInvitationCommand struct {
	ActorID      string
	AllocationID string
}

type BulkInvitationsCommand struct {
	ActorID       string
	AllocationIDs []string
}

type RecordDecisionCommand struct {
	ActorID      string
	AllocationID string
	Accepted     bool
	Reason       string
}

type ResetAllocationCommand struct {
	ActorID      string
	AllocationID string
}

type ConsentUseCase struct {
	Repository ports.Repository
	Notifier   ports.Notifier
	Clock      ports.Clock
	// DeadlineWindow overrides the default 30-day consent deadline when set.
	DeadlineWindow time.Duration
	Logger         *slog.Logger
}

func (uc ConsentUseCase) deadlineWindow() time.Duration {
	if uc.DeadlineWindow > 0 {
		return uc.DeadlineWindow
	}
	return consentDeadlineWindow
}

// SendInvitation dispatches a consent notification and, only after the
// dispatcher confirms it, moves the allocation to pending_consent with a
// 30-day deadline. A dispatcher failure leaves the allocation untouched so
// state and notification can never disagree.
func (uc ConsentUseCase) SendInvitation(ctx context.Context, cmd SendInvitationCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	allocationID := strings.TrimSpace(cmd.AllocationID)

	allocation, err := uc.Repository.GetAllocation(ctx, allocationID)
	if err != nil {
		logger.Warn("consent invitation allocation lookup failed",
			"event", "club_share_consent_invitation_lookup_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"allocation_id", allocationID,
			"error", err.Error(),
		)
		return err
	}
	member, err := uc.Repository.GetMember(ctx, allocation.MemberID)
	if err != nil {
		logger.Warn("consent invitation member lookup failed",
			"event", "club_share_consent_invitation_member_lookup_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"allocation_id", allocationID,
			"member_id", allocation.MemberID,
			"error", err.Error(),
		)
		return err
	}
	if strings.TrimSpace(member.Email) == "" {
		logger.Warn("consent invitation member email missing",
			"event", "club_share_consent_invitation_email_missing",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"allocation_id", allocationID,
			"member_id", member.ID,
		)
		return domainerrors.ErrMemberEmailMissing
	}

	nextStatus, err := services.Transition(allocation.Status, entities.AllocationStatusPendingConsent)
	if err != nil {
		logger.Warn("consent invitation invalid state",
			"event", "club_share_consent_invitation_invalid_state",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"allocation_id", allocationID,
			"status", allocation.Status,
		)
		return err
	}

	if uc.Notifier == nil {
		logger.Error("consent invitation dispatcher not configured",
			"event", "club_share_consent_invitation_no_dispatcher",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"allocation_id", allocationID,
		)
		return domainerrors.ErrNotificationFailed
	}
	if err := uc.Notifier.Send(ctx, member.Email, "email", consentTemplateType, map[string]any{
		"allocation_id":     allocation.ID,
		"member_name":       member.Name,
		"allocated_shares":  allocation.AllocatedShares,
		"transfer_fee_paid": allocation.TransferFeePaid,
		"debt_settled":      allocation.DebtSettled,
		"total_cost":        allocation.TotalCost,
		"cost_per_share":    allocation.CostPerShare,
	}); err != nil {
		logger.Error("consent invitation dispatch failed",
			"event", "club_share_consent_invitation_dispatch_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"allocation_id", allocationID,
			"member_id", member.ID,
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %s", domainerrors.ErrNotificationFailed, err)
	}

	now := resolveNow(uc.Clock)
	deadline := now.Add(uc.deadlineWindow())
	allocation.Status = nextStatus
	allocation.ConsentDeadline = &deadline
	allocation.UpdatedAt = now
	if err := uc.Repository.UpdateAllocation(ctx, allocation); err != nil {
		logger.Error("consent invitation state update failed",
			"event", "club_share_consent_invitation_state_update_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"allocation_id", allocationID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("consent invitation sent",
		"event", "club_share_consent_invitation_sent",
		"module", "cooperative-finance/club-share-service",
		"layer", "application",
		"allocation_id", allocationID,
		"member_id", member.ID,
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"consent_deadline", deadline.Format(time.RFC3339),
	)
	return nil
}

// SendBulkInvitations issues invitations sequentially and continues past
// individual failures. Not transactional across the list.
func (uc ConsentUseCase) SendBulkInvitations(ctx context.Context, cmd BulkInvitationsCommand) (BatchOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	outcome := BatchOutcome{Candidates: len(cmd.AllocationIDs)}
	for _, allocationID := range cmd.AllocationIDs {
		if err := uc.SendInvitation(ctx, SendInvitationCommand{
			ActorID:      cmd.ActorID,
			AllocationID: allocationID,
		}); err != nil {
			outcome.Failed++
			continue
		}
		outcome.Succeeded++
	}
	logger.Info("bulk consent invitations completed",
		"event", "club_share_bulk_invitations_completed",
		"module", "cooperative-finance/club-share-service",
		"layer", "application",
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"candidates", outcome.Candidates,
		"succeeded", outcome.Succeeded,
		"failed", outcome.Failed,
	)
	return outcome, nil
}

// RecordDecision stores the member's reply as relayed by an administrator.
func (uc ConsentUseCase) RecordDecision(ctx context.Context, cmd RecordDecisionCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	allocationID := strings.TrimSpace(cmd.AllocationID)

	allocation, err := uc.Repository.GetAllocation(ctx, allocationID)
	if err != nil {
		return err
	}

	target := entities.AllocationStatusAccepted
	if !cmd.Accepted {
		target = entities.AllocationStatusRejected
	}
	nextStatus, err := services.Transition(allocation.Status, target)
	if err != nil {
		logger.Warn("consent decision invalid state",
			"event", "club_share_consent_decision_invalid_state",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"allocation_id", allocationID,
			"status", allocation.Status,
			"target_status", target,
		)
		return err
	}

	allocation.Status = nextStatus
	if cmd.Accepted {
		allocation.RejectionReason = ""
	} else {
		allocation.RejectionReason = strings.TrimSpace(cmd.Reason)
	}
	allocation.UpdatedAt = resolveNow(uc.Clock)
	if err := uc.Repository.UpdateAllocation(ctx, allocation); err != nil {
		return err
	}

	logger.Info("consent decision recorded",
		"event", "club_share_consent_decision_recorded",
		"module", "cooperative-finance/club-share-service",
		"layer", "application",
		"allocation_id", allocationID,
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"accepted", cmd.Accepted,
	)
	return nil
}

// ResetAllocation is the administrative override that sends an allocation
// back to pending_invitation, clearing the deadline and rejection reason.
func (uc ConsentUseCase) ResetAllocation(ctx context.Context, cmd ResetAllocationCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	allocationID := strings.TrimSpace(cmd.AllocationID)

	allocation, err := uc.Repository.GetAllocation(ctx, allocationID)
	if err != nil {
		return err
	}
	if !services.Resettable(allocation.Status) {
		logger.Warn("allocation reset refused",
			"event", "club_share_allocation_reset_refused",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"allocation_id", allocationID,
			"status", allocation.Status,
		)
		return domainerrors.ErrInvalidStatusTransition
	}

	allocation.Status = entities.AllocationStatusPendingInvitation
	allocation.ConsentDeadline = nil
	allocation.RejectionReason = ""
	allocation.UpdatedAt = resolveNow(uc.Clock)
	if err := uc.Repository.UpdateAllocation(ctx, allocation); err != nil {
		return err
	}

	logger.Info("allocation reset",
		"event", "club_share_allocation_reset",
		"module", "cooperative-finance/club-share-service",
		"layer", "application",
		"allocation_id", allocationID,
		"actor_id", strings.TrimSpace(cmd.ActorID),
	)
	return nil
}
