package entities

import "time"

type ReleaseTrigger string

const (
	ReleaseTriggerBulk  ReleaseTrigger = "bulk_release"
	ReleaseTriggerAdmin ReleaseTrigger = "manual_admin"
)

// ClubShareReleaseLog is the immutable audit row written for every release
// event. The snapshot fields capture the ratio inputs of the triggering run.
type ClubShareReleaseLog struct {
	ID                 string
	AllocationID       string
	HoldingAccountID   string
	SharesReleased     int64
	ReleasePercent     float64
	Trigger            ReleaseTrigger
	Reason             string
	PoolTotal          int64
	RequestedQuantity  int64
	MemberRatio        float64
	SnapshotAt         time.Time
	TradableHoldingRef string
	ActorID            string
	CreatedAt          time.Time
}
