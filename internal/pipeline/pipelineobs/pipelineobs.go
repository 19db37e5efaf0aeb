package pipelineobs

import (
	"context"
	"time"

	"news-impact-engine/internal/interfaces"
	"news-impact-engine/internal/logger"
	"news-impact-engine/internal/trace"
	"news-impact-engine/internal/types"
)

type observablePipeline struct {
	pipeline interfaces.Pipeline
}

var _ interfaces.Pipeline = (*observablePipeline)(nil)

func Wrap(p interfaces.Pipeline) interfaces.Pipeline {
	return &observablePipeline{
		pipeline: p,
	}
}

func (op *observablePipeline) RunCycle(ctx context.Context) (*types.Snapshot, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.RunCycle")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting news cycle")

	snap, err := op.pipeline.RunCycle(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "News cycle failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "News cycle completed",
		"cycle_id", snap.CycleID,
		"source", snap.Source,
		"articles", len(snap.Articles),
		"degraded", snap.Degraded,
		"recoveries", len(snap.Recoveries),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return snap, nil
}

func (op *observablePipeline) Latest() *types.Snapshot {
	return op.pipeline.Latest()
}
