package interfaces

import (
	"context"
	"time"

	"news-impact-engine/internal/types"
)

// NewsFetcher returns normalized articles published since a point in time.
type NewsFetcher interface {
	Fetch(ctx context.Context, query string, since time.Time) ([]types.Article, error)
}
