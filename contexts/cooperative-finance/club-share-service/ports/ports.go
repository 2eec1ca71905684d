package ports

import (
	"context"
	"time"

	"coopshares/contexts/cooperative-finance/club-share-service/domain/entities"
	"coopshares/internal/shared/events"
)

// Repository is the persistence collaborator for the club share ledger.
// Delete methods return the number of rows removed so rollback can report
// exact counts.
type Repository interface {
	CreateMember(ctx context.Context, member entities.ClubMember) error
	UpdateMember(ctx context.Context, member entities.ClubMember) error
	GetMember(ctx context.Context, memberID string) (entities.ClubMember, error)
	FindMemberByNaturalKey(ctx context.Context, name, email, phone string) (entities.ClubMember, bool, error)
	DeleteMember(ctx context.Context, memberID string) error
	CountAllocationsByMember(ctx context.Context, memberID string) (int64, error)

	CreateAllocation(ctx context.Context, allocation entities.ClubShareAllocation) error
	UpdateAllocation(ctx context.Context, allocation entities.ClubShareAllocation) error
	GetAllocation(ctx context.Context, allocationID string) (entities.ClubShareAllocation, error)
	ListAllocationsByStatus(ctx context.Context, statuses []entities.AllocationStatus) ([]entities.ClubShareAllocation, error)
	ListAllocationsByBatch(ctx context.Context, batchRef string) ([]entities.ClubShareAllocation, error)
	DeleteAllocationsByBatch(ctx context.Context, batchRef string) (int64, error)

	CreateHolding(ctx context.Context, holding entities.ClubShareHoldingAccount) error
	UpdateHolding(ctx context.Context, holding entities.ClubShareHoldingAccount) error
	GetHoldingByAllocation(ctx context.Context, allocationID string) (entities.ClubShareHoldingAccount, error)
	DeleteHoldingsByAllocations(ctx context.Context, allocationIDs []string) (int64, error)

	AppendReleaseLog(ctx context.Context, log entities.ClubShareReleaseLog) error
	ListReleaseLogsByAllocation(ctx context.Context, allocationID string) ([]entities.ClubShareReleaseLog, error)
	DeleteReleaseLogsByAllocations(ctx context.Context, allocationIDs []string) (int64, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Notifier is the external notification dispatcher. A nil error means the
// dispatcher confirmed delivery to the channel.
type Notifier interface {
	Send(ctx context.Context, recipient, channel, templateType string, templateData map[string]any) error
}

// AccountProvisioner is the external identity collaborator used by the
// importer's one-time account provisioning path.
type AccountProvisioner interface {
	CreateAccount(ctx context.Context, name, email, phone string) (string, error)
	GenerateActivationToken(ctx context.Context, accountID string) (string, error)
}

// TradingLedger is the external share-trading subsystem that receives fully
// released holdings as tradable balances.
type TradingLedger interface {
	CreateTradableHolding(ctx context.Context, userAccountID string, shares int64, costBasis float64) (string, error)
}

// EventEnvelope reuses the repository's canonical envelope contract.
type EventEnvelope = events.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
