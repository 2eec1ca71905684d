package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "coopshares/contexts/cooperative-finance/club-share-service/application"
	"coopshares/contexts/cooperative-finance/club-share-service/ports"
)

// OutboxRelay drains pending outbox rows and publishes them to the event
// bus, handing completed holdings to the trading subsystem.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("outbox list pending failed",
			"event", "club_share_outbox_list_failed",
			"module", "cooperative-finance/club-share-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	var firstErr error
	for _, message := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			logger.Error("outbox payload decode failed",
				"event", "club_share_outbox_decode_failed",
				"module", "cooperative-finance/club-share-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := r.Publisher.Publish(ctx, message.EventType, envelope); err != nil {
			logger.Error("outbox publish failed",
				"event", "club_share_outbox_publish_failed",
				"module", "cooperative-finance/club-share-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"event_type", message.EventType,
				"error", err.Error(),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		now := time.Now().UTC()
		if r.Clock != nil {
			now = r.Clock.Now().UTC()
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, message.OutboxID, now); err != nil {
			logger.Error("outbox acknowledge failed",
				"event", "club_share_outbox_ack_failed",
				"module", "cooperative-finance/club-share-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if len(pending) > 0 {
		logger.Info("outbox relay cycle completed",
			"event", "club_share_outbox_relay_completed",
			"module", "cooperative-finance/club-share-service",
			"layer", "worker",
			"relayed_count", len(pending),
		)
	}
	return firstErr
}
