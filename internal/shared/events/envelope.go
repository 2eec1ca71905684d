package events

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical event shape emitted by this repository.
// Module outboxes persist marshalled envelopes; the worker relay publishes
// them unchanged to the message bus.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	SourceService string          `json:"source_service"`
	OccurredAt    time.Time       `json:"occurred_at_utc"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}
