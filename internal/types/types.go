package types

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"time"
)

// Article is a normalized news item. Ingestion fields are immutable; the
// scoring stages fill in the derived fields.
type Article struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	Source       string    `json:"source"`
	SourceDomain string    `json:"source_domain"`
	Author       string    `json:"author,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	URL          string    `json:"url"`
	Category     string    `json:"category"`
	Tags         []string  `json:"tags,omitempty"`

	// Nil until sentiment analysis has completed for this article.
	SentimentScore      *float64 `json:"sentiment_score,omitempty"`
	SentimentMagnitude  float64  `json:"sentiment_magnitude"`
	Subjectivity        float64  `json:"subjectivity"`
	CredibilityScore    float64  `json:"credibility_score"`
	RelevanceScore      float64  `json:"relevance_score"`
	CorrelatedMarketIDs []string `json:"correlated_market_ids,omitempty"`
	ImpactScore         float64  `json:"impact_score"`

	Degraded bool `json:"degraded,omitempty"`
}

// ArticleID derives the stable identifier of an article from its title and URL.
func ArticleID(title, url string) string {
	sum := md5.Sum([]byte(title + url))
	return hex.EncodeToString(sum[:])
}

// Sentiment returns the polarity and whether it has been computed.
func (a *Article) Sentiment() (float64, bool) {
	if a.SentimentScore == nil {
		return 0, false
	}
	return *a.SentimentScore, true
}

// SetSentiment records the sentiment stage output.
func (a *Article) SetSentiment(polarity, magnitude, subjectivity float64) {
	p := polarity
	a.SentimentScore = &p
	a.SentimentMagnitude = magnitude
	a.Subjectivity = subjectivity
}

// Text is the content scored by the analysis stages.
func (a *Article) Text() string {
	if a.Body == "" {
		return a.Title
	}
	return a.Title + " " + a.Body
}

// Clone returns a deep copy so scored articles never alias cached ones.
func (a Article) Clone() Article {
	c := a
	if a.Tags != nil {
		c.Tags = append([]string(nil), a.Tags...)
	}
	if a.CorrelatedMarketIDs != nil {
		c.CorrelatedMarketIDs = append([]string(nil), a.CorrelatedMarketIDs...)
	}
	if a.SentimentScore != nil {
		s := *a.SentimentScore
		c.SentimentScore = &s
	}
	return c
}

// SetTags stores the tag set deduplicated and sorted.
func (a *Article) SetTags(tags []string) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	a.Tags = out
}

// Age is the time elapsed since publication.
func (a *Article) Age(now time.Time) time.Duration {
	return now.Sub(a.PublishedAt)
}

// Direction of the predicted market move.
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// Horizon is the expected time until the impact materializes.
type Horizon string

const (
	Horizon1h  Horizon = "1h"
	Horizon6h  Horizon = "6h"
	Horizon24h Horizon = "24h"
	Horizon7d  Horizon = "7d"
)

// ImpactRecord is the prediction for one article and one market.
type ImpactRecord struct {
	ArticleID  string    `json:"article_id"`
	MarketID   string    `json:"market_id"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Magnitude  float64   `json:"magnitude"`
	Horizon    Horizon   `json:"horizon"`
	Reasoning  string    `json:"reasoning"`
	Fallback   bool      `json:"fallback,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MarketSnapshot is a read-only view of a prediction market.
type MarketSnapshot struct {
	ID          string  `json:"id" yaml:"id"`
	Question    string  `json:"question" yaml:"question"`
	Category    string  `json:"category" yaml:"category"`
	SubCategory string  `json:"sub_category,omitempty" yaml:"sub_category"`
	Probability float64 `json:"probability" yaml:"probability"`
	Volume      float64 `json:"volume" yaml:"volume"`
	Status      string  `json:"status,omitempty" yaml:"status"`
}

// Active reports whether the market takes part in correlation.
func (m MarketSnapshot) Active() bool {
	return m.Status == "" || m.Status == "active"
}

// Match is one market correlated with an article.
type Match struct {
	MarketID string  `json:"market_id"`
	Score    float64 `json:"score"`
}

// Article categories.
const (
	CategoryPolitics   = "politics"
	CategoryEconomy    = "economy"
	CategoryTechnology = "technology"
	CategoryCrypto     = "crypto"
	CategoryStocks     = "stocks"
	CategoryClimate    = "climate"
	CategoryGeneral    = "general"
)

// CategoryInfo describes a category exposed to the dashboard.
type CategoryInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Categories is the fixed list served by the query surface.
var Categories = []CategoryInfo{
	{ID: CategoryCrypto, Name: "Cryptocurrency"},
	{ID: CategoryPolitics, Name: "Politics"},
	{ID: CategoryTechnology, Name: "Technology"},
	{ID: CategoryEconomy, Name: "Economy"},
	{ID: CategoryStocks, Name: "Stocks"},
	{ID: CategoryClimate, Name: "Climate"},
	{ID: CategoryGeneral, Name: "General"},
}

// Breaking-news thresholds.
const (
	BreakingMaxAge    = time.Hour
	BreakingMinImpact = 0.5
)

// IsBreaking is the single definition of a breaking article.
func IsBreaking(a *Article, now time.Time) bool {
	return a.Age(now) < BreakingMaxAge && a.ImpactScore > BreakingMinImpact
}

// SortByPublished orders articles newest first, ties broken by ID.
func SortByPublished(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		if !articles[i].PublishedAt.Equal(articles[j].PublishedAt) {
			return articles[i].PublishedAt.After(articles[j].PublishedAt)
		}
		return articles[i].ID < articles[j].ID
	})
}
