package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"coopshares/contexts/cooperative-finance/club-share-service/domain/entities"
	domainerrors "coopshares/contexts/cooperative-finance/club-share-service/domain/errors"
	"coopshares/contexts/cooperative-finance/club-share-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

type Store struct {
	mu sync.RWMutex

	members     map[string]entities.ClubMember
	allocations map[string]entities.ClubShareAllocation
	holdings    map[string]entities.ClubShareHoldingAccount
	releaseLogs []entities.ClubShareReleaseLog
	outbox      map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		members:     make(map[string]entities.ClubMember),
		allocations: make(map[string]entities.ClubShareAllocation),
		holdings:    make(map[string]entities.ClubShareHoldingAccount),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) CreateMember(_ context.Context, member entities.ClubMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[member.ID] = member
	return nil
}

func (s *Store) UpdateMember(_ context.Context, member entities.ClubMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[member.ID]; !exists {
		return domainerrors.ErrMemberNotFound
	}
	s.members[member.ID] = member
	return nil
}

func (s *Store) GetMember(_ context.Context, memberID string) (entities.ClubMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, exists := s.members[strings.TrimSpace(memberID)]
	if !exists {
		return entities.ClubMember{}, domainerrors.ErrMemberNotFound
	}
	return member, nil
}

func (s *Store) FindMemberByNaturalKey(_ context.Context, name, email, phone string) (entities.ClubMember, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	for _, member := range s.members {
		if name != "" && strings.EqualFold(member.Name, name) {
			return member, true, nil
		}
		if email != "" && strings.EqualFold(member.Email, email) {
			return member, true, nil
		}
		if phone != "" && member.Phone == phone {
			return member, true, nil
		}
	}
	return entities.ClubMember{}, false, nil
}

func (s *Store) DeleteMember(_ context.Context, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[memberID]; !exists {
		return domainerrors.ErrMemberNotFound
	}
	delete(s.members, memberID)
	return nil
}

func (s *Store) CountAllocationsByMember(_ context.Context, memberID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, allocation := range s.allocations {
		if allocation.MemberID == memberID {
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateAllocation(_ context.Context, allocation entities.ClubShareAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.allocations[allocation.ID]; exists {
		return domainerrors.ErrAllocationExists
	}
	if _, exists := s.members[allocation.MemberID]; !exists {
		return domainerrors.ErrMemberNotFound
	}
	s.allocations[allocation.ID] = allocation
	return nil
}

func (s *Store) UpdateAllocation(_ context.Context, allocation entities.ClubShareAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.allocations[allocation.ID]; !exists {
		return domainerrors.ErrAllocationNotFound
	}
	s.allocations[allocation.ID] = allocation
	return nil
}

func (s *Store) GetAllocation(_ context.Context, allocationID string) (entities.ClubShareAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allocation, exists := s.allocations[strings.TrimSpace(allocationID)]
	if !exists {
		return entities.ClubShareAllocation{}, domainerrors.ErrAllocationNotFound
	}
	return allocation, nil
}

func (s *Store) ListAllocationsByStatus(_ context.Context, statuses []entities.AllocationStatus) ([]entities.ClubShareAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[entities.AllocationStatus]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}
	allocations := make([]entities.ClubShareAllocation, 0)
	for _, allocation := range s.allocations {
		if _, ok := wanted[allocation.Status]; ok {
			allocations = append(allocations, allocation)
		}
	}
	sort.Slice(allocations, func(i, j int) bool {
		return allocations[i].ID < allocations[j].ID
	})
	return allocations, nil
}

func (s *Store) ListAllocationsByBatch(_ context.Context, batchRef string) ([]entities.ClubShareAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allocations := make([]entities.ClubShareAllocation, 0)
	for _, allocation := range s.allocations {
		if allocation.ImportBatchRef == strings.TrimSpace(batchRef) {
			allocations = append(allocations, allocation)
		}
	}
	sort.Slice(allocations, func(i, j int) bool {
		return allocations[i].CreatedAt.Before(allocations[j].CreatedAt)
	})
	return allocations, nil
}

func (s *Store) DeleteAllocationsByBatch(_ context.Context, batchRef string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, allocation := range s.allocations {
		if allocation.ImportBatchRef == strings.TrimSpace(batchRef) {
			delete(s.allocations, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) CreateHolding(_ context.Context, holding entities.ClubShareHoldingAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.allocations[holding.AllocationID]; !exists {
		return domainerrors.ErrAllocationNotFound
	}
	s.holdings[holding.ID] = holding
	return nil
}

func (s *Store) UpdateHolding(_ context.Context, holding entities.ClubShareHoldingAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.holdings[holding.ID]; !exists {
		return domainerrors.ErrHoldingNotFound
	}
	s.holdings[holding.ID] = holding
	return nil
}

func (s *Store) GetHoldingByAllocation(_ context.Context, allocationID string) (entities.ClubShareHoldingAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, holding := range s.holdings {
		if holding.AllocationID == strings.TrimSpace(allocationID) {
			return holding, nil
		}
	}
	return entities.ClubShareHoldingAccount{}, domainerrors.ErrHoldingNotFound
}

func (s *Store) DeleteHoldingsByAllocations(_ context.Context, allocationIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]struct{}, len(allocationIDs))
	for _, id := range allocationIDs {
		wanted[id] = struct{}{}
	}
	var deleted int64
	for id, holding := range s.holdings {
		if _, ok := wanted[holding.AllocationID]; ok {
			delete(s.holdings, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) AppendReleaseLog(_ context.Context, log entities.ClubShareReleaseLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.allocations[log.AllocationID]; !exists {
		return domainerrors.ErrAllocationNotFound
	}
	s.releaseLogs = append(s.releaseLogs, log)
	return nil
}

func (s *Store) ListReleaseLogsByAllocation(_ context.Context, allocationID string) ([]entities.ClubShareReleaseLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]entities.ClubShareReleaseLog, 0)
	for _, log := range s.releaseLogs {
		if log.AllocationID == strings.TrimSpace(allocationID) {
			logs = append(logs, log)
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})
	return logs, nil
}

func (s *Store) DeleteReleaseLogsByAllocations(_ context.Context, allocationIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]struct{}, len(allocationIDs))
	for _, id := range allocationIDs {
		wanted[id] = struct{}{}
	}
	kept := s.releaseLogs[:0]
	var deleted int64
	for _, log := range s.releaseLogs {
		if _, ok := wanted[log.AllocationID]; ok {
			deleted++
			continue
		}
		kept = append(kept, log)
	}
	s.releaseLogs = kept
	return deleted, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := s.outbox[outboxID]; exists {
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		OutboxID:     outboxID,
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRecord, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.PublishedAt == nil {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
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

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrIntegrityViolation
	}
	timestamp := publishedAt.UTC()
	row.PublishedAt = &timestamp
	s.outbox[outboxID] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.Repository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
