package entities

import "time"

type HoldingStatus string

const (
	HoldingStatusHolding           HoldingStatus = "holding"
	HoldingStatusPartiallyReleased HoldingStatus = "partially_released"
	HoldingStatusFullyReleased     HoldingStatus = "fully_released"
)

// ClubShareHoldingAccount is the escrow record tracking how many of an
// allocation's shares are still held versus already released.
type ClubShareHoldingAccount struct {
	ID             string
	AllocationID   string
	MemberID       string
	SharesQuantity int64
	SharesReleased int64
	Status         HoldingStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SharesRemaining is always SharesQuantity minus SharesReleased, never below zero.
func (h ClubShareHoldingAccount) SharesRemaining() int64 {
	remaining := h.SharesQuantity - h.SharesReleased
	if remaining < 0 {
		return 0
	}
	return remaining
}
