package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ImportRowRequest struct {
	MemberName      string `json:"member_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	AllocatedShares string `json:"allocated_shares"`
	TransferFeePaid string `json:"transfer_fee_paid"`
	DebtSettled     string `json:"debt_settled"`
	DebtRejected    string `json:"debt_rejected"`
	TotalCost       string `json:"total_cost"`
	CostPerShare    string `json:"cost_per_share"`
}

type ImportRequest struct {
	BatchLabel string             `json:"batch_label"`
	Rows       []ImportRowRequest `json:"rows"`
}

type RowErrorDTO struct {
	Index    int      `json:"index"`
	Messages []string `json:"messages"`
}

type ImportResponse struct {
	BatchReference string        `json:"batch_reference"`
	Succeeded      int           `json:"succeeded"`
	Failed         int           `json:"failed"`
	RowErrors      []RowErrorDTO `json:"row_errors,omitempty"`
}

type BulkInvitationsRequest struct {
	AllocationIDs []string `json:"allocation_ids"`
}

type DecisionRequest struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type BulkReleaseRequest struct {
	Quantity int64  `json:"quantity"`
	Reason   string `json:"reason,omitempty"`
}

type ManualReleaseRequest struct {
	AllocationIDs []string `json:"allocation_ids"`
	Reason        string   `json:"reason,omitempty"`
}

type BatchOutcomeResponse struct {
	Candidates int `json:"candidates"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

type RollbackResponse struct {
	BatchReference     string `json:"batch_reference"`
	LogsDeleted        int64  `json:"logs_deleted"`
	HoldingsDeleted    int64  `json:"holdings_deleted"`
	AllocationsDeleted int64  `json:"allocations_deleted"`
	MembersDeleted     int64  `json:"members_deleted"`
}

type MemberDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	UserAccountID string `json:"user_account_id,omitempty"`
}

type HoldingDTO struct {
	ID              string `json:"id"`
	SharesQuantity  int64  `json:"shares_quantity"`
	SharesReleased  int64  `json:"shares_released"`
	SharesRemaining int64  `json:"shares_remaining"`
	Status          string `json:"status"`
}

type AllocationDTO struct {
	ID              string      `json:"id"`
	Member          MemberDTO   `json:"member"`
	AllocatedShares int64       `json:"allocated_shares"`
	TransferFeePaid float64     `json:"transfer_fee_paid"`
	DebtSettled     float64     `json:"debt_settled"`
	DebtRejected    float64     `json:"debt_rejected"`
	TotalCost       float64     `json:"total_cost"`
	CostPerShare    float64     `json:"cost_per_share"`
	Status          string      `json:"status"`
	ConsentDeadline string      `json:"consent_deadline,omitempty"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	ImportBatchRef  string      `json:"import_batch_ref"`
	Holding         *HoldingDTO `json:"holding,omitempty"`
}

type BatchAllocationDTO struct {
	ID              string `json:"id"`
	MemberID        string `json:"member_id"`
	AllocatedShares int64  `json:"allocated_shares"`
	Status          string `json:"status"`
}

type BatchListResponse struct {
	BatchReference string               `json:"batch_reference"`
	Allocations    []BatchAllocationDTO `json:"allocations"`
}

type BatchSummaryResponse struct {
	BatchReference   string         `json:"batch_reference"`
	TotalAllocations int            `json:"total_allocations"`
	StatusCounts     map[string]int `json:"status_counts"`
	TotalShares      int64          `json:"total_shares"`
	SharesReleased   int64          `json:"shares_released"`
	SharesRemaining  int64          `json:"shares_remaining"`
}

type ReleaseLogDTO struct {
	ID                 string  `json:"id"`
	AllocationID       string  `json:"allocation_id"`
	HoldingAccountID   string  `json:"holding_account_id"`
	SharesReleased     int64   `json:"shares_released"`
	ReleasePercent     float64 `json:"release_percent"`
	Trigger            string  `json:"trigger"`
	Reason             string  `json:"reason,omitempty"`
	PoolTotal          int64   `json:"pool_total"`
	RequestedQuantity  int64   `json:"requested_quantity"`
	MemberRatio        float64 `json:"member_ratio"`
	SnapshotAt         string  `json:"snapshot_at"`
	TradableHoldingRef string  `json:"tradable_holding_ref,omitempty"`
	ActorID            string  `json:"actor_id,omitempty"`
}

type ReleaseLogListResponse struct {
	AllocationID string          `json:"allocation_id"`
	Logs         []ReleaseLogDTO `json:"logs"`
}
