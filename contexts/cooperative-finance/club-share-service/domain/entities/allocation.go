package entities

import "time"

type AllocationStatus string

const (
	AllocationStatusPendingInvitation AllocationStatus = "pending_invitation"
	AllocationStatusPendingConsent    AllocationStatus = "pending_consent"
	AllocationStatusAccepted          AllocationStatus = "accepted"
	AllocationStatusRejected          AllocationStatus = "rejected"
	AllocationStatusPendingRelease    AllocationStatus = "pending_release"
	AllocationStatusReleasedPartially AllocationStatus = "released_partially"
	AllocationStatusReleasedFully     AllocationStatus = "released_fully"
)

// ClubShareAllocation is one debt-to-share conversion record.
// AllocatedShares is fixed at creation; release only consumes it.
type ClubShareAllocation struct {
	ID              string
	MemberID        string
	AllocatedShares int64
	TransferFeePaid float64
	DebtSettled     float64
	DebtRejected    float64
	TotalCost       float64
	CostPerShare    float64
	Status          AllocationStatus
	ConsentDeadline *time.Time
	RejectionReason string
	ImportBatchRef  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
