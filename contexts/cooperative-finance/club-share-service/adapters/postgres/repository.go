package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"coopshares/contexts/cooperative-finance/club-share-service/domain/entities"
	domainerrors "coopshares/contexts/cooperative-finance/club-share-service/domain/errors"
	"coopshares/contexts/cooperative-finance/club-share-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateMember(ctx context.Context, member entities.ClubMember) error {
	row := clubMemberModelFromEntity(member)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			r.logWarn("club_share_repo_create_member_unique_conflict",
				"member_id", row.ID,
				"email", row.Email,
			)
			return domainerrors.ErrIntegrityViolation
		}
		return r.logError("club_share_repo_create_member_failed", err,
			"member_id", row.ID,
		)
	}
	return nil
}

func (r *Repository) UpdateMember(ctx context.Context, member entities.ClubMember) error {
	row := clubMemberModelFromEntity(member)
	result := r.db.WithContext(ctx).
		Model(&clubMemberModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"name":            row.Name,
			"email":           row.Email,
			"phone":           row.Phone,
			"user_account_id": row.UserAccountID,
			"updated_at":      row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("club_share_repo_update_member_failed", result.Error,
			"member_id", row.ID,
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("club_share_repo_update_member_not_found",
			"member_id", row.ID,
		)
		return domainerrors.ErrMemberNotFound
	}
	return nil
}

func (r *Repository) GetMember(ctx context.Context, memberID string) (entities.ClubMember, error) {
	var row clubMemberModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(memberID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ClubMember{}, domainerrors.ErrMemberNotFound
		}
		return entities.ClubMember{}, r.logError("club_share_repo_get_member_failed", err,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) FindMemberByNaturalKey(ctx context.Context, name, email, phone string) (entities.ClubMember, bool, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)

	query := r.db.WithContext(ctx).Model(&clubMemberModel{})
	var conditions []string
	var args []any
	if name != "" {
		conditions = append(conditions, "LOWER(name) = LOWER(?)")
		args = append(args, name)
	}
	if email != "" {
		conditions = append(conditions, "LOWER(email) = LOWER(?)")
		args = append(args, email)
	}
	if phone != "" {
		conditions = append(conditions, "phone = ?")
		args = append(args, phone)
	}
	if len(conditions) == 0 {
		return entities.ClubMember{}, false, nil
	}

	var row clubMemberModel
	err := query.
		Where(strings.Join(conditions, " OR "), args...).
		Order("created_at ASC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ClubMember{}, false, nil
		}
		return entities.ClubMember{}, false, r.logError("club_share_repo_find_member_failed", err,
			"email", email,
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) DeleteMember(ctx context.Context, memberID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(memberID)).
		Delete(&clubMemberModel{})
	if result.Error != nil {
		return r.logError("club_share_repo_delete_member_failed", result.Error,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("club_share_repo_delete_member_not_found",
			"member_id", strings.TrimSpace(memberID),
		)
		return domainerrors.ErrMemberNotFound
	}
	return nil
}

func (r *Repository) CountAllocationsByMember(ctx context.Context, memberID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&clubShareAllocationModel{}).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		Count(&count).
		Error; err != nil {
		return 0, r.logError("club_share_repo_count_allocations_by_member_failed", err,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return count, nil
}

func (r *Repository) CreateAllocation(ctx context.Context, allocation entities.ClubShareAllocation) error {
	if strings.TrimSpace(allocation.ID) == "" ||
		strings.TrimSpace(allocation.MemberID) == "" ||
		allocation.AllocatedShares <= 0 {
		r.logWarn("club_share_repo_create_allocation_invalid_input",
			"allocation_id", strings.TrimSpace(allocation.ID),
			"member_id", strings.TrimSpace(allocation.MemberID),
			"allocated_shares", allocation.AllocatedShares,
		)
		return domainerrors.ErrInvalidAllocationInput
	}

	row := clubShareAllocationModelFromEntity(allocation)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			r.logWarn("club_share_repo_create_allocation_unique_conflict",
				"allocation_id", row.ID,
				"member_id", row.MemberID,
			)
			return domainerrors.ErrAllocationExists
		}
		return r.logError("club_share_repo_create_allocation_failed", err,
			"allocation_id", row.ID,
			"member_id", row.MemberID,
		)
	}
	return nil
}

func (r *Repository) UpdateAllocation(ctx context.Context, allocation entities.ClubShareAllocation) error {
	row := clubShareAllocationModelFromEntity(allocation)
	result := r.db.WithContext(ctx).
		Model(&clubShareAllocationModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"status":           row.Status,
			"consent_deadline": row.ConsentDeadline,
			"rejection_reason": row.RejectionReason,
			"updated_at":       row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("club_share_repo_update_allocation_failed", result.Error,
			"allocation_id", row.ID,
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("club_share_repo_update_allocation_not_found",
			"allocation_id", row.ID,
		)
		return domainerrors.ErrAllocationNotFound
	}
	return nil
}

func (r *Repository) GetAllocation(ctx context.Context, allocationID string) (entities.ClubShareAllocation, error) {
	var row clubShareAllocationModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(allocationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ClubShareAllocation{}, domainerrors.ErrAllocationNotFound
		}
		return entities.ClubShareAllocation{}, r.logError("club_share_repo_get_allocation_failed", err,
			"allocation_id", strings.TrimSpace(allocationID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListAllocationsByStatus(ctx context.Context, statuses []entities.AllocationStatus) ([]entities.ClubShareAllocation, error) {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	var rows []clubShareAllocationModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", values).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("club_share_repo_list_allocations_by_status_failed", err,
			"statuses", strings.Join(values, ","),
		)
	}
	allocations := make([]entities.ClubShareAllocation, 0, len(rows))
	for _, row := range rows {
		allocations = append(allocations, row.toEntity())
	}
	return allocations, nil
}

func (r *Repository) ListAllocationsByBatch(ctx context.Context, batchRef string) ([]entities.ClubShareAllocation, error) {
	var rows []clubShareAllocationModel
	if err := r.db.WithContext(ctx).
		Where("import_batch_ref = ?", strings.TrimSpace(batchRef)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("club_share_repo_list_allocations_by_batch_failed", err,
			"batch_ref", strings.TrimSpace(batchRef),
		)
	}
	allocations := make([]entities.ClubShareAllocation, 0, len(rows))
	for _, row := range rows {
		allocations = append(allocations, row.toEntity())
	}
	return allocations, nil
}

func (r *Repository) DeleteAllocationsByBatch(ctx context.Context, batchRef string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("import_batch_ref = ?", strings.TrimSpace(batchRef)).
		Delete(&clubShareAllocationModel{})
	if result.Error != nil {
		return 0, r.logError("club_share_repo_delete_allocations_by_batch_failed", result.Error,
			"batch_ref", strings.TrimSpace(batchRef),
		)
	}
	return result.RowsAffected, nil
}

func (r *Repository) CreateHolding(ctx context.Context, holding entities.ClubShareHoldingAccount) error {
	row := clubShareHoldingModelFromEntity(holding)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			r.logWarn("club_share_repo_create_holding_unique_conflict",
				"holding_id", row.ID,
				"allocation_id", row.AllocationID,
			)
			return domainerrors.ErrIntegrityViolation
		}
		return r.logError("club_share_repo_create_holding_failed", err,
			"holding_id", row.ID,
			"allocation_id", row.AllocationID,
		)
	}
	return nil
}

func (r *Repository) UpdateHolding(ctx context.Context, holding entities.ClubShareHoldingAccount) error {
	row := clubShareHoldingModelFromEntity(holding)
	result := r.db.WithContext(ctx).
		Model(&clubShareHoldingModel{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"shares_released": row.SharesReleased,
			"status":          row.Status,
			"updated_at":      row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("club_share_repo_update_holding_failed", result.Error,
			"holding_id", row.ID,
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("club_share_repo_update_holding_not_found",
			"holding_id", row.ID,
		)
		return domainerrors.ErrHoldingNotFound
	}
	return nil
}

func (r *Repository) GetHoldingByAllocation(ctx context.Context, allocationID string) (entities.ClubShareHoldingAccount, error) {
	var row clubShareHoldingModel
	err := r.db.WithContext(ctx).
		Where("allocation_id = ?", strings.TrimSpace(allocationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ClubShareHoldingAccount{}, domainerrors.ErrHoldingNotFound
		}
		return entities.ClubShareHoldingAccount{}, r.logError("club_share_repo_get_holding_failed", err,
			"allocation_id", strings.TrimSpace(allocationID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) DeleteHoldingsByAllocations(ctx context.Context, allocationIDs []string) (int64, error) {
	if len(allocationIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("allocation_id IN ?", allocationIDs).
		Delete(&clubShareHoldingModel{})
	if result.Error != nil {
		return 0, r.logError("club_share_repo_delete_holdings_failed", result.Error,
			"allocation_count", len(allocationIDs),
		)
	}
	return result.RowsAffected, nil
}

func (r *Repository) AppendReleaseLog(ctx context.Context, log entities.ClubShareReleaseLog) error {
	row := clubShareReleaseLogModelFromEntity(log)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("club_share_repo_append_release_log_failed", err,
			"log_id", row.ID,
			"allocation_id", row.AllocationID,
		)
	}
	return nil
}

func (r *Repository) ListReleaseLogsByAllocation(ctx context.Context, allocationID string) ([]entities.ClubShareReleaseLog, error) {
	var rows []clubShareReleaseLogModel
	if err := r.db.WithContext(ctx).
		Where("allocation_id = ?", strings.TrimSpace(allocationID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("club_share_repo_list_release_logs_failed", err,
			"allocation_id", strings.TrimSpace(allocationID),
		)
	}
	logs := make([]entities.ClubShareReleaseLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, row.toEntity())
	}
	return logs, nil
}

func (r *Repository) DeleteReleaseLogsByAllocations(ctx context.Context, allocationIDs []string) (int64, error) {
	if len(allocationIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("allocation_id IN ?", allocationIDs).
		Delete(&clubShareReleaseLogModel{})
	if result.Error != nil {
		return 0, r.logError("club_share_repo_delete_release_logs_failed", result.Error,
			"allocation_count", len(allocationIDs),
		)
	}
	return result.RowsAffected, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("club_share_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := clubShareOutboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if createResult.Error != nil {
		return r.logError("club_share_repo_append_outbox_insert_failed", createResult.Error,
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing clubShareOutboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).
		Error; err != nil {
		return r.logError("club_share_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		r.logWarn("club_share_repo_append_outbox_payload_conflict",
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
		return domainerrors.ErrIntegrityViolation
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []clubShareOutboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("club_share_repo_list_pending_outbox_failed", err,
			"limit", limit,
		)
	}
	messages := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return messages, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&clubShareOutboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("club_share_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("club_share_repo_mark_outbox_published_not_found",
			"outbox_id", strings.TrimSpace(outboxID),
		)
		return domainerrors.ErrIntegrityViolation
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "cooperative-finance/club-share-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("club share repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+5)
	fields = append(fields,
		"event", event,
		"module", "cooperative-finance/club-share-service",
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	r.logger.Warn("club share repository warning", fields...)
}

type clubMemberModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Name          string    `gorm:"column:name"`
	Email         string    `gorm:"column:email"`
	Phone         string    `gorm:"column:phone"`
	UserAccountID string    `gorm:"column:user_account_id"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (clubMemberModel) TableName() string {
	return "club_members"
}

func clubMemberModelFromEntity(member entities.ClubMember) clubMemberModel {
	return clubMemberModel{
		ID:            strings.TrimSpace(member.ID),
		Name:          strings.TrimSpace(member.Name),
		Email:         strings.TrimSpace(member.Email),
		Phone:         strings.TrimSpace(member.Phone),
		UserAccountID: strings.TrimSpace(member.UserAccountID),
		CreatedAt:     member.CreatedAt.UTC(),
		UpdatedAt:     member.UpdatedAt.UTC(),
	}
}

func (m clubMemberModel) toEntity() entities.ClubMember {
	return entities.ClubMember{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		Phone:         m.Phone,
		UserAccountID: m.UserAccountID,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type clubShareAllocationModel struct {
	ID              string     `gorm:"column:id;primaryKey"`
	MemberID        string     `gorm:"column:member_id"`
	AllocatedShares int64      `gorm:"column:allocated_shares"`
	TransferFeePaid float64    `gorm:"column:transfer_fee_paid"`
	DebtSettled     float64    `gorm:"column:debt_settled"`
	DebtRejected    float64    `gorm:"column:debt_rejected"`
	TotalCost       float64    `gorm:"column:total_cost"`
	CostPerShare    float64    `gorm:"column:cost_per_share"`
	Status          string     `gorm:"column:status"`
	ConsentDeadline *time.Time `gorm:"column:consent_deadline"`
	RejectionReason string     `gorm:"column:rejection_reason"`
	ImportBatchRef  string     `gorm:"column:import_batch_ref"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (clubShareAllocationModel) TableName() string {
	return "club_share_allocations"
}

func clubShareAllocationModelFromEntity(allocation entities.ClubShareAllocation) clubShareAllocationModel {
	return clubShareAllocationModel{
		ID:              strings.TrimSpace(allocation.ID),
		MemberID:        strings.TrimSpace(allocation.MemberID),
		AllocatedShares: allocation.AllocatedShares,
		TransferFeePaid: allocation.TransferFeePaid,
		DebtSettled:     allocation.DebtSettled,
		DebtRejected:    allocation.DebtRejected,
		TotalCost:       allocation.TotalCost,
		CostPerShare:    allocation.CostPerShare,
		Status:          string(allocation.Status),
		ConsentDeadline: normalizeOptionalTime(allocation.ConsentDeadline),
		RejectionReason: strings.TrimSpace(allocation.RejectionReason),
		ImportBatchRef:  strings.TrimSpace(allocation.ImportBatchRef),
		CreatedAt:       allocation.CreatedAt.UTC(),
		UpdatedAt:       allocation.UpdatedAt.UTC(),
	}
}

func (m clubShareAllocationModel) toEntity() entities.ClubShareAllocation {
	return entities.ClubShareAllocation{
		ID:              m.ID,
		MemberID:        m.MemberID,
		AllocatedShares: m.AllocatedShares,
		TransferFeePaid: m.TransferFeePaid,
		DebtSettled:     m.DebtSettled,
		DebtRejected:    m.DebtRejected,
		TotalCost:       m.TotalCost,
		CostPerShare:    m.CostPerShare,
		Status:          entities.AllocationStatus(m.Status),
		ConsentDeadline: normalizeOptionalTime(m.ConsentDeadline),
		RejectionReason: m.RejectionReason,
		ImportBatchRef:  m.ImportBatchRef,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type clubShareHoldingModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	AllocationID   string    `gorm:"column:allocation_id"`
	MemberID       string    `gorm:"column:member_id"`
	SharesQuantity int64     `gorm:"column:shares_quantity"`
	SharesReleased int64     `gorm:"column:shares_released"`
	Status         string    `gorm:"column:status"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (clubShareHoldingModel) TableName() string {
	return "club_share_holding_accounts"
}

func clubShareHoldingModelFromEntity(holding entities.ClubShareHoldingAccount) clubShareHoldingModel {
	return clubShareHoldingModel{
		ID:             strings.TrimSpace(holding.ID),
		AllocationID:   strings.TrimSpace(holding.AllocationID),
		MemberID:       strings.TrimSpace(holding.MemberID),
		SharesQuantity: holding.SharesQuantity,
		SharesReleased: holding.SharesReleased,
		Status:         string(holding.Status),
		CreatedAt:      holding.CreatedAt.UTC(),
		UpdatedAt:      holding.UpdatedAt.UTC(),
	}
}

func (m clubShareHoldingModel) toEntity() entities.ClubShareHoldingAccount {
	return entities.ClubShareHoldingAccount{
		ID:             m.ID,
		AllocationID:   m.AllocationID,
		MemberID:       m.MemberID,
		SharesQuantity: m.SharesQuantity,
		SharesReleased: m.SharesReleased,
		Status:         entities.HoldingStatus(m.Status),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type clubShareReleaseLogModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	AllocationID       string    `gorm:"column:allocation_id"`
	HoldingAccountID   string    `gorm:"column:holding_account_id"`
	SharesReleased     int64     `gorm:"column:shares_released"`
	ReleasePercent     float64   `gorm:"column:release_percent"`
	Trigger            string    `gorm:"column:release_trigger"`
	Reason             string    `gorm:"column:reason"`
	PoolTotal          int64     `gorm:"column:pool_total"`
	RequestedQuantity  int64     `gorm:"column:requested_quantity"`
	MemberRatio        float64   `gorm:"column:member_ratio"`
	SnapshotAt         time.Time `gorm:"column:snapshot_at"`
	TradableHoldingRef string    `gorm:"column:tradable_holding_ref"`
	ActorID            string    `gorm:"column:actor_id"`
	CreatedAt          time.Time `gorm:"column:created_at"`
}

func (clubShareReleaseLogModel) TableName() string {
	return "club_share_release_logs"
}

func clubShareReleaseLogModelFromEntity(log entities.ClubShareReleaseLog) clubShareReleaseLogModel {
	return clubShareReleaseLogModel{
		ID:                 strings.TrimSpace(log.ID),
		AllocationID:       strings.TrimSpace(log.AllocationID),
		HoldingAccountID:   strings.TrimSpace(log.HoldingAccountID),
		SharesReleased:     log.SharesReleased,
		ReleasePercent:     log.ReleasePercent,
		Trigger:            string(log.Trigger),
		Reason:             strings.TrimSpace(log.Reason),
		PoolTotal:          log.PoolTotal,
		RequestedQuantity:  log.RequestedQuantity,
		MemberRatio:        log.MemberRatio,
		SnapshotAt:         log.SnapshotAt.UTC(),
		TradableHoldingRef: strings.TrimSpace(log.TradableHoldingRef),
		ActorID:            strings.TrimSpace(log.ActorID),
		CreatedAt:          log.CreatedAt.UTC(),
	}
}

func (m clubShareReleaseLogModel) toEntity() entities.ClubShareReleaseLog {
	return entities.ClubShareReleaseLog{
		ID:                 m.ID,
		AllocationID:       m.AllocationID,
		HoldingAccountID:   m.HoldingAccountID,
		SharesReleased:     m.SharesReleased,
		ReleasePercent:     m.ReleasePercent,
		Trigger:            entities.ReleaseTrigger(m.Trigger),
		Reason:             m.Reason,
		PoolTotal:          m.PoolTotal,
		RequestedQuantity:  m.RequestedQuantity,
		MemberRatio:        m.MemberRatio,
		SnapshotAt:         m.SnapshotAt.UTC(),
		TradableHoldingRef: m.TradableHoldingRef,
		ActorID:            m.ActorID,
		CreatedAt:          m.CreatedAt.UTC(),
	}
}

type clubShareOutboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (clubShareOutboxModel) TableName() string {
	return "club_share_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	t := value.UTC()
	return &t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
