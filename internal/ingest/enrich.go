package ingest

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"news-impact-engine/internal/logger"
)

// ContentFetcher retrieves the full body of an article page.
type ContentFetcher interface {
	FetchContent(ctx context.Context, articleURL string) string
}

// Enricher scrapes article pages for the paragraphs a provider truncated.
type Enricher struct {
	timeout   time.Duration
	userAgent string
}

// NewEnricher creates a colly-backed enricher
func NewEnricher(timeout time.Duration) *Enricher {
	return &Enricher{
		timeout:   timeout,
		userAgent: "Mozilla/5.0 (compatible; news-impact-engine/0.3)",
	}
}

// FetchContent returns the article text, or "" when the page has none.
func (e *Enricher) FetchContent(ctx context.Context, articleURL string) string {
	if ctx.Err() != nil {
		return ""
	}

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.AllowedDomains(hostOf(articleURL)),
	)
	c.SetRequestTimeout(e.timeout)

	var paragraphs []string
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("User-Agent", e.userAgent)
	})

	c.OnHTML("article, div.article-body, div.content-body, div.story-content", func(el *colly.HTMLElement) {
		el.ForEach("p", func(_ int, p *colly.HTMLElement) {
			text := strings.TrimSpace(p.Text)
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Debug(ctx, "Article page fetch failed", "url", articleURL, "status", r.StatusCode, "error", err)
	})

	if err := c.Visit(articleURL); err != nil {
		logger.Debug(ctx, "Article enrichment skipped", "url", articleURL, "error", err)
		return ""
	}
	c.Wait()

	return strings.Join(paragraphs, "\n\n")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
