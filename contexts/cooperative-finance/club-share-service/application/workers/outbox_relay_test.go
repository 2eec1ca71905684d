package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coopshares/contexts/cooperative-finance/club-share-service/adapters/memory"
	"coopshares/contexts/cooperative-finance/club-share-service/ports"
)

type capturingPublisher struct {
	err       error
	published []ports.EventEnvelope
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

func appendEnvelope(t *testing.T, store *memory.Store, eventID string) {
	t.Helper()
	if err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:       eventID,
		EventType:     "clubshares.holding.released",
		SourceService: "club-share-service",
		OccurredAt:    time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
		SchemaVersion: 1,
		PartitionKey:  "a-1",
		Data:          json.RawMessage(`{"allocation_id":"a-1"}`),
	}); err != nil {
		t.Fatalf("append outbox %s: %v", eventID, err)
	}
}

func TestOutboxRelayPublishesAndAcknowledges(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	appendEnvelope(t, store, "evt-1")
	appendEnvelope(t, store, "evt-2")

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.published))
	}
	if publisher.published[0].EventType != "clubshares.holding.released" {
		t.Fatalf("envelope relayed unchanged, got %+v", publisher.published[0])
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("acknowledged rows must not stay pending, got %d", len(pending))
	}
}

func TestOutboxRelayLeavesRowsPendingOnPublishFailure(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturingPublisher{err: errors.New("broker unavailable")}
	relay := OutboxRelay{Outbox: store, Publisher: publisher}

	appendEnvelope(t, store, "evt-1")

	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish failure to surface")
	}
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("failed rows must stay pending for the next cycle, got %d", len(pending))
	}
}

func TestOutboxRelayEmptyQueue(t *testing.T) {
	store := memory.NewStore()
	relay := OutboxRelay{Outbox: store, Publisher: &capturingPublisher{}}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("empty cycle must be a no-op, got %v", err)
	}
}
