package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	application "coopshares/contexts/cooperative-finance/club-share-service/application"
	"coopshares/contexts/cooperative-finance/club-share-service/domain/entities"
	domainerrors "coopshares/contexts/cooperative-finance/club-share-service/domain/errors"
	"coopshares/contexts/cooperative-finance/club-share-service/ports"
)

// RawAllocationRow carries one unparsed import record. Numeric fields arrive
// as strings and may contain thousands separators.
type RawAllocationRow struct {
	MemberName      string
	Email           string
	Phone           string
	AllocatedShares string
	TransferFeePaid string
	DebtSettled     string
	DebtRejected    string
	TotalCost       string
	CostPerShare    string
}

type ImportBatchCommand struct {
	ActorID    string
	BatchLabel string
	Rows       []RawAllocationRow
}

// RowError collects every validation or commit failure for a single row.
type RowError struct {
	Index    int
	Messages []string
}

type ImportResult struct {
	BatchReference string
	Succeeded      int
	Failed         int
	RowErrors      []RowError
}

type ImportUseCase struct {
	Repository ports.Repository
	Accounts   ports.AccountProvisioner
	Notifier   ports.Notifier
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

type parsedRow struct {
	memberName      string
	email           string
	phone           string
	allocatedShares int64
	transferFeePaid float64
	debtSettled     float64
	debtRejected    float64
	totalCost       float64
	costPerShare    float64
}

// ImportBatch validates and ingests the rows as one traceable unit. Rows are
// committed independently; a failed row is counted and reported, never rolled
// back against rows already committed in the same invocation.
func (uc ImportUseCase) ImportBatch(ctx context.Context, cmd ImportBatchCommand) (ImportResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	label := strings.TrimSpace(cmd.BatchLabel)
	if label == "" || len(cmd.Rows) == 0 {
		logger.Warn("club share import invalid input",
			"event", "club_share_import_invalid_input",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"batch_label", label,
			"row_count", len(cmd.Rows),
		)
		return ImportResult{}, domainerrors.ErrInvalidAllocationInput
	}

	now := resolveNow(uc.Clock)
	// Timestamp suffix keeps the reference unique across repeated imports of
	// the same caller-supplied label.
	result := ImportResult{
		BatchReference: label + "-" + now.Format("20060102150405"),
	}

	// Tracks members already offered provisioning in this run so the side
	// effect fires at most once per member.
	provisioned := make(map[string]struct{})

	for index, raw := range cmd.Rows {
		row, messages := parseRow(raw)
		if len(messages) > 0 {
			result.Failed++
			result.RowErrors = append(result.RowErrors, RowError{Index: index, Messages: messages})
			logger.Warn("club share import row rejected",
				"event", "club_share_import_row_rejected",
				"module", "cooperative-finance/club-share-service",
				"layer", "application",
				"batch_ref", result.BatchReference,
				"row_index", index,
				"error_count", len(messages),
			)
			continue
		}
		if err := uc.commitRow(ctx, result.BatchReference, cmd.ActorID, row, provisioned); err != nil {
			result.Failed++
			result.RowErrors = append(result.RowErrors, RowError{Index: index, Messages: []string{err.Error()}})
			logger.Error("club share import row commit failed",
				"event", "club_share_import_row_commit_failed",
				"module", "cooperative-finance/club-share-service",
				"layer", "application",
				"batch_ref", result.BatchReference,
				"row_index", index,
				"error", err.Error(),
			)
			continue
		}
		result.Succeeded++
	}

	logger.Info("club share import completed",
		"event", "club_share_import_completed",
		"module", "cooperative-finance/club-share-service",
		"layer", "application",
		"batch_ref", result.BatchReference,
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

func (uc ImportUseCase) commitRow(
	ctx context.Context,
	batchRef string,
	actorID string,
	row parsedRow,
	provisioned map[string]struct{},
) error {
	now := resolveNow(uc.Clock)

	member, found, err := uc.Repository.FindMemberByNaturalKey(ctx, row.memberName, row.email, row.phone)
	if err != nil {
		return err
	}
	if !found {
		memberID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		member = entities.ClubMember{
			ID:        memberID,
			Name:      row.memberName,
			Email:     row.email,
			Phone:     row.phone,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := uc.Repository.CreateMember(ctx, member); err != nil {
			return err
		}
	}

	if member.UserAccountID == "" {
		if _, done := provisioned[member.ID]; !done {
			provisioned[member.ID] = struct{}{}
			uc.provisionAccount(ctx, &member)
		}
	}

	allocationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	allocation := entities.ClubShareAllocation{
		ID:              allocationID,
		MemberID:        member.ID,
		AllocatedShares: row.allocatedShares,
		TransferFeePaid: row.transferFeePaid,
		DebtSettled:     row.debtSettled,
		DebtRejected:    row.debtRejected,
		TotalCost:       row.totalCost,
		CostPerShare:    row.costPerShare,
		Status:          entities.AllocationStatusPendingInvitation,
		ImportBatchRef:  batchRef,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.Repository.CreateAllocation(ctx, allocation); err != nil {
		return err
	}

	holdingID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	holding := entities.ClubShareHoldingAccount{
		ID:             holdingID,
		AllocationID:   allocation.ID,
		MemberID:       member.ID,
		SharesQuantity: row.allocatedShares,
		SharesReleased: 0,
		Status:         entities.HoldingStatusHolding,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return uc.Repository.CreateHolding(ctx, holding)
}

// provisionAccount requests an account and activation notification for a
// member without one. Failures are logged and never fail the row.
func (uc ImportUseCase) provisionAccount(ctx context.Context, member *entities.ClubMember) {
	logger := application.ResolveLogger(uc.Logger)
	if uc.Accounts == nil {
		return
	}

	accountID, err := uc.Accounts.CreateAccount(ctx, member.Name, member.Email, member.Phone)
	if err != nil {
		logger.Warn("club share import account provisioning failed",
			"event", "club_share_import_account_provisioning_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"member_id", member.ID,
			"error", err.Error(),
		)
		return
	}
	member.UserAccountID = accountID
	member.UpdatedAt = resolveNow(uc.Clock)
	if err := uc.Repository.UpdateMember(ctx, *member); err != nil {
		logger.Warn("club share import member account link failed",
			"event", "club_share_import_member_account_link_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"member_id", member.ID,
			"account_id", accountID,
			"error", err.Error(),
		)
		return
	}

	token, err := uc.Accounts.GenerateActivationToken(ctx, accountID)
	if err != nil {
		logger.Warn("club share import activation token failed",
			"event", "club_share_import_activation_token_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"member_id", member.ID,
			"account_id", accountID,
			"error", err.Error(),
		)
		return
	}
	if uc.Notifier == nil {
		return
	}
	recipient := member.Email
	channel := "email"
	if recipient == "" {
		recipient = member.Phone
		channel = "sms"
	}
	if err := uc.Notifier.Send(ctx, recipient, channel, "account_activation", map[string]any{
		"member_name":      member.Name,
		"activation_token": token,
	}); err != nil {
		logger.Warn("club share import activation notification failed",
			"event", "club_share_import_activation_notification_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "application",
			"member_id", member.ID,
			"account_id", accountID,
			"error", err.Error(),
		)
	}
}

func parseRow(raw RawAllocationRow) (parsedRow, []string) {
	var messages []string
	row := parsedRow{
		memberName: strings.TrimSpace(raw.MemberName),
		email:      strings.TrimSpace(raw.Email),
		phone:      strings.TrimSpace(raw.Phone),
	}

	if row.memberName == "" {
		messages = append(messages, "member_name is required")
	}
	if row.email == "" && row.phone == "" {
		messages = append(messages, "email or phone is required")
	}

	shares, err := parseShareQuantity(raw.AllocatedShares)
	if err != nil {
		messages = append(messages, err.Error())
	} else {
		row.allocatedShares = shares
	}

	monetary := []struct {
		name  string
		raw   string
		field *float64
	}{
		{"transfer_fee_paid", raw.TransferFeePaid, &row.transferFeePaid},
		{"debt_settled", raw.DebtSettled, &row.debtSettled},
		{"debt_rejected", raw.DebtRejected, &row.debtRejected},
		{"total_cost", raw.TotalCost, &row.totalCost},
		{"cost_per_share", raw.CostPerShare, &row.costPerShare},
	}
	for _, field := range monetary {
		amount, err := parseMonetaryAmount(field.name, field.raw)
		if err != nil {
			messages = append(messages, err.Error())
			continue
		}
		*field.field = amount
	}

	return row, messages
}

func parseShareQuantity(raw string) (int64, error) {
	cleaned := stripSeparators(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("allocated_shares is required")
	}
	shares, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("allocated_shares is not a valid integer: %q", strings.TrimSpace(raw))
	}
	if shares <= 0 {
		return 0, fmt.Errorf("allocated_shares must be greater than zero")
	}
	return shares, nil
}

func parseMonetaryAmount(name, raw string) (float64, error) {
	cleaned := stripSeparators(raw)
	if cleaned == "" {
		return 0, nil
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid amount: %q", name, strings.TrimSpace(raw))
	}
	if amount < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	return amount, nil
}

// stripSeparators removes thousands separators so "1,250" and "1 250" both
// parse as 1250.
func stripSeparators(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, ",", "")
	return strings.ReplaceAll(value, " ", "")
}
