package interfaces

import (
	"context"

	"news-impact-engine/internal/types"
)

// SnapshotSource exposes the last published snapshot, or nil before the
// first cycle.
type SnapshotSource interface {
	Latest() *types.Snapshot
}

// Pipeline runs ingestion cycles and exposes the last published result.
type Pipeline interface {
	SnapshotSource

	// RunCycle fetches, scores and publishes one batch of articles
	RunCycle(ctx context.Context) (*types.Snapshot, error)
}
