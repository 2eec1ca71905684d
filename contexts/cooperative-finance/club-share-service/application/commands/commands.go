package commands

import (
	"time"

	"coopshares/contexts/cooperative-finance/club-share-service/ports"
)

// BatchOutcome reports the per-unit results of a batch-shaped operation.
// Batch operations never return an all-or-nothing result; every unit is
// counted exactly once.
type BatchOutcome struct {
	Candidates int
	Succeeded  int
	Failed     int
	Skipped    int
}

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
