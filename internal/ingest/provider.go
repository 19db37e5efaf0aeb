package ingest

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured marks a provider that cannot be used as configured.
// It is never retried.
var ErrNotConfigured = errors.New("provider not configured")

// Query describes one search against a news provider.
type Query struct {
	Terms    string
	Since    time.Time
	Until    time.Time
	PageSize int
}

// RawArticle is a provider record before validation and normalization.
type RawArticle struct {
	Title       string
	Description string
	Content     string
	URL         string
	SourceName  string
	Author      string
	PublishedAt string
}

// Provider is an upstream source of raw articles.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]RawArticle, error)
}
