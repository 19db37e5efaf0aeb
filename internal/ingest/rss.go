package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"news-impact-engine/internal/logger"
	"news-impact-engine/internal/textutil"
)

// RSSProvider reads a fixed list of feeds and filters items by the query terms.
type RSSProvider struct {
	feeds  []string
	parser *gofeed.Parser
}

// NewRSSProvider creates a provider over the given feed URLs.
func NewRSSProvider(feeds []string) *RSSProvider {
	return &RSSProvider{
		feeds:  feeds,
		parser: gofeed.NewParser(),
	}
}

func (p *RSSProvider) Name() string { return "rss" }

// Search fails only when every feed fails.
func (p *RSSProvider) Search(ctx context.Context, q Query) ([]RawArticle, error) {
	terms := queryTerms(q.Terms)

	var out []RawArticle
	var errs []error
	for _, feedURL := range p.feeds {
		feed, err := p.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			logger.Warn(ctx, "RSS feed failed", "feed", feedURL, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", feedURL, err))
			continue
		}
		out = append(out, itemsFromFeed(feed, terms, q.Since)...)
	}

	if len(errs) > 0 && len(errs) == len(p.feeds) {
		return nil, errors.Join(errs...)
	}
	if q.PageSize > 0 && len(out) > q.PageSize {
		out = out[:q.PageSize]
	}
	return out, nil
}

func itemsFromFeed(feed *gofeed.Feed, terms []string, since time.Time) []RawArticle {
	var out []RawArticle
	for _, item := range feed.Items {
		if len(terms) > 0 && !textutil.NewDoc(item.Title+" "+item.Description).HasAny(terms) {
			continue
		}

		var published string
		if item.PublishedParsed != nil {
			if !since.IsZero() && item.PublishedParsed.Before(since) {
				continue
			}
			published = item.PublishedParsed.UTC().Format(time.RFC3339)
		}

		var author string
		if item.Author != nil {
			author = item.Author.Name
		}

		out = append(out, RawArticle{
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
			URL:         item.Link,
			SourceName:  feed.Title,
			Author:      author,
			PublishedAt: published,
		})
	}
	return out
}

// queryTerms splits a boolean query like "fed OR bitcoin" into its terms.
func queryTerms(q string) []string {
	var terms []string
	for _, part := range strings.Split(q, " OR ") {
		part = strings.Trim(strings.TrimSpace(part), `"()`)
		if part != "" {
			terms = append(terms, part)
		}
	}
	return terms
}
