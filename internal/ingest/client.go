package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"news-impact-engine/internal/api"
	"news-impact-engine/internal/logger"
	"news-impact-engine/internal/types"
)

// IngestionError means no provider could be reached after all retries.
type IngestionError struct {
	Attempts int
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("news ingestion failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// ClientConfig holds fetch behaviour
type ClientConfig struct {
	PageSize       int
	RequestTimeout time.Duration
	RetryCount     int
	RetryDelay     time.Duration
	Enrich         bool
	MaxEnrich      int
}

// DefaultClientConfig returns default fetch configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PageSize:       50,
		RequestTimeout: 30 * time.Second,
		RetryCount:     3,
		RetryDelay:     time.Second,
		MaxEnrich:      10,
	}
}

// Client fetches and normalizes articles from an ordered list of providers.
type Client struct {
	providers []Provider
	limiter   *RateLimiter
	fetcher   ContentFetcher
	cfg       ClientConfig
	now       func() time.Time
}

// NewClient creates an ingestion client. The first provider is primary; the
// rest are tried in order when it yields nothing.
func NewClient(cfg ClientConfig, limiter *RateLimiter, providers ...Provider) *Client {
	if cfg.RetryCount < 1 {
		cfg.RetryCount = 1
	}
	return &Client{
		providers: providers,
		limiter:   limiter,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithContentFetcher enables enrichment of truncated bodies.
func (c *Client) WithContentFetcher(f ContentFetcher) *Client {
	c.fetcher = f
	return c
}

// Fetch returns deduplicated articles published since the given time.
func (c *Client) Fetch(ctx context.Context, query string, since time.Time) ([]types.Article, error) {
	q := Query{
		Terms:    query,
		Since:    since,
		Until:    c.now(),
		PageSize: c.cfg.PageSize,
	}

	var errs []error
	attempts := 0
	for _, p := range c.providers {
		raws, n, err := c.searchWithRetry(ctx, p, q)
		attempts += n
		if err != nil {
			logger.ErrorWithErr(ctx, "News provider failed", err, "provider", p.Name(), "attempts", n)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		articles := c.normalizeAll(ctx, p.Name(), raws)
		if len(articles) > 0 {
			c.enrich(ctx, raws, articles)
			logger.Info(ctx, "Fetched news articles", "provider", p.Name(), "articles", len(articles))
			return articles, nil
		}
		logger.Info(ctx, "Provider returned no usable articles, trying next", "provider", p.Name())
	}

	if len(errs) > 0 && len(errs) == len(c.providers) {
		return nil, &IngestionError{Attempts: attempts, Err: errors.Join(errs...)}
	}
	return []types.Article{}, nil
}

// searchWithRetry acquires the limiter before every attempt and waits a
// fixed delay between attempts.
func (c *Client) searchWithRetry(ctx context.Context, p Provider, q Query) ([]RawArticle, int, error) {
	var lastErr error
	attempt := 0
	for attempt < c.cfg.RetryCount {
		attempt++

		if c.limiter != nil {
			if err := c.limiter.Acquire(ctx); err != nil {
				return nil, attempt, err
			}
		}

		actx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		raws, err := p.Search(actx, q)
		cancel()
		if err == nil {
			return raws, attempt, nil
		}

		lastErr = err
		if errors.Is(err, ErrNotConfigured) || !api.Retryable(err) || ctx.Err() != nil {
			break
		}
		if attempt < c.cfg.RetryCount {
			logger.Warn(ctx, "News request failed, retrying", "provider", p.Name(), "attempt", attempt, "error", err)
			if err := api.Sleep(ctx, c.cfg.RetryDelay); err != nil {
				break
			}
		}
	}
	return nil, attempt, lastErr
}

func (c *Client) normalizeAll(ctx context.Context, provider string, raws []RawArticle) []types.Article {
	seen := make(map[string]struct{}, len(raws))
	out := make([]types.Article, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		a, err := Normalize(raw)
		if err != nil {
			skipped++
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	if skipped > 0 {
		logger.Warn(ctx, "Skipped malformed articles", "provider", provider, "skipped", skipped, "kept", len(out))
	}
	return out
}

// enrich replaces truncated bodies with scraped page text, bounded by MaxEnrich.
func (c *Client) enrich(ctx context.Context, raws []RawArticle, articles []types.Article) {
	if !c.cfg.Enrich || c.fetcher == nil {
		return
	}

	truncated := make(map[string]bool, len(raws))
	for _, r := range raws {
		if isTruncated(r.Content) {
			truncated[r.URL] = true
		}
	}

	done := 0
	for i := range articles {
		if done >= c.cfg.MaxEnrich || ctx.Err() != nil {
			return
		}
		if !truncated[articles[i].URL] {
			continue
		}
		done++
		if body := c.fetcher.FetchContent(ctx, articles[i].URL); body != "" {
			articles[i].Body = body
		}
	}
}
