package interfaces

import (
	"context"

	"news-impact-engine/internal/types"
)

// MarketFeed supplies the current prediction markets. The pipeline only reads it.
type MarketFeed interface {
	Markets(ctx context.Context) ([]types.MarketSnapshot, error)
}
