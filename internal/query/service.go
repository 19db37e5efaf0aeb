// Package query answers dashboard reads from the latest published snapshot.
// It never triggers fetching or scoring.
package query

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"news-impact-engine/internal/impact"
	"news-impact-engine/internal/interfaces"
	"news-impact-engine/internal/sentiment"
	"news-impact-engine/internal/types"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// HighImpactAbove is the article impact score counted as high impact.
	HighImpactAbove = 0.7
	// MaxKeyArticles caps the contributors listed in a market rollup.
	MaxKeyArticles = 5
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownMarket   = errors.New("unknown market")
	ErrNotFound        = errors.New("article not found")
)

type SentimentView struct {
	Score     float64 `json:"score"`
	Label     string  `json:"label"`
	Magnitude float64 `json:"magnitude"`
}

type ImpactView struct {
	Score              float64         `json:"score"`
	Confidence         float64         `json:"confidence"`
	PredictedDirection types.Direction `json:"predicted_direction"`
	Horizon            types.Horizon   `json:"horizon,omitempty"`
}

// ArticleView is one feed entry.
type ArticleView struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Source         string        `json:"source"`
	PublishedAt    time.Time     `json:"published_at"`
	URL            string        `json:"url"`
	Category       string        `json:"category"`
	Tags           []string      `json:"tags,omitempty"`
	Sentiment      SentimentView `json:"sentiment"`
	Impact         ImpactView    `json:"impact"`
	Credibility    float64       `json:"credibility"`
	Relevance      float64       `json:"relevance"`
	RelatedMarkets []string      `json:"related_markets"`
	IsBreaking     bool          `json:"is_breaking"`
	Degraded       bool          `json:"degraded,omitempty"`
}

// ArticleDetail adds the body and every impact record to a feed entry.
type ArticleDetail struct {
	ArticleView
	Body    string               `json:"body"`
	Author  string               `json:"author,omitempty"`
	Impacts []types.ImpactRecord `json:"impacts"`
}

type Feed struct {
	Articles    []ArticleView `json:"articles"`
	Total       int           `json:"total"`
	Degraded    bool          `json:"degraded"`
	Source      string        `json:"source"`
	GeneratedAt time.Time     `json:"generated_at"`
}

type SentimentSummary struct {
	OverallSentiment float64   `json:"overall_sentiment"`
	PositiveCount    int       `json:"positive_count"`
	NegativeCount    int       `json:"negative_count"`
	NeutralCount     int       `json:"neutral_count"`
	HighImpactCount  int       `json:"high_impact_count"`
	BreakingCount    int       `json:"breaking_count"`
	TotalArticles    int       `json:"total_articles"`
	Degraded         bool      `json:"degraded"`
	GeneratedAt      time.Time `json:"generated_at"`
}

type KeyArticle struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Source     string          `json:"source"`
	Sentiment  string          `json:"sentiment"`
	Impact     float64         `json:"impact"`
	Direction  types.Direction `json:"direction"`
	Confidence float64         `json:"confidence"`
	URL        string          `json:"url"`
}

// MarketImpact aggregates every impact record referencing one market.
type MarketImpact struct {
	MarketID           string          `json:"market_id"`
	Question           string          `json:"question,omitempty"`
	OverallSentiment   float64         `json:"overall_sentiment"`
	ImpactScore        float64         `json:"impact_score"`
	ArticleCount       int             `json:"article_count"`
	PredictedDirection types.Direction `json:"predicted_direction"`
	Confidence         float64         `json:"confidence"`
	KeyArticles        []KeyArticle    `json:"key_articles"`
	Degraded           bool            `json:"degraded"`
}

type Service struct {
	src interfaces.SnapshotSource
	now func() time.Time
}

func NewService(src interfaces.SnapshotSource) *Service {
	return &Service{src: src, now: time.Now}
}

// WithClock replaces the time source used for breaking-news checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	return &Service{src: s.src, now: now}
}

func (s *Service) snapshot() (*types.Snapshot, error) {
	snap := s.src.Latest()
	if snap == nil {
		return nil, types.ErrNoData
	}
	return snap, nil
}

// Feed returns the newest articles, optionally limited to one category.
// An empty category or "all" means every category.
func (s *Service) Feed(category string, limit int) (*Feed, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "all" {
		category = ""
	}
	if category != "" && !knownCategory(category) {
		return nil, ErrUnknownCategory
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := &Feed{
		Articles:    []ArticleView{},
		Degraded:    snap.Degraded,
		Source:      snap.Source,
		GeneratedAt: snap.PublishedAt,
	}
	for i := range snap.Articles {
		a := &snap.Articles[i]
		if category != "" && a.Category != category {
			continue
		}
		out.Total++
		if len(out.Articles) < limit {
			out.Articles = append(out.Articles, viewOf(a, snap.Impacts[a.ID], now))
		}
	}
	return out, nil
}

func (s *Service) SentimentSummary() (*SentimentSummary, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	now := s.now()
	sum := &SentimentSummary{
		TotalArticles: len(snap.Articles),
		Degraded:      snap.Degraded,
		GeneratedAt:   snap.PublishedAt,
	}

	var total float64
	for i := range snap.Articles {
		a := &snap.Articles[i]
		polarity, _ := a.Sentiment()
		total += polarity

		switch sentiment.Label(polarity) {
		case "positive":
			sum.PositiveCount++
		case "negative":
			sum.NegativeCount++
		default:
			sum.NeutralCount++
		}
		if a.ImpactScore > HighImpactAbove {
			sum.HighImpactCount++
		}
		if types.IsBreaking(a, now) {
			sum.BreakingCount++
		}
	}
	if len(snap.Articles) > 0 {
		sum.OverallSentiment = round(total / float64(len(snap.Articles)))
	}
	return sum, nil
}

// MarketImpact rolls up the records for marketID. A known market without
// records yields a neutral, empty rollup.
func (s *Service) MarketImpact(marketID string) (*MarketImpact, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	out := &MarketImpact{
		MarketID:           marketID,
		PredictedDirection: types.DirectionNeutral,
		KeyArticles:        []KeyArticle{},
		Degraded:           snap.Degraded,
	}
	known := false
	for _, m := range snap.Markets {
		if m.ID == marketID {
			known = true
			out.Question = m.Question
			break
		}
	}

	records := snap.ImpactsForMarket(marketID)
	if len(records) == 0 {
		if !known {
			return nil, ErrUnknownMarket
		}
		return out, nil
	}

	var sentimentSum, confidenceSum float64
	keys := make([]KeyArticle, 0, len(records))
	for _, r := range records {
		a, ok := snap.Article(r.ArticleID)
		if !ok {
			continue
		}
		polarity, _ := a.Sentiment()
		sentimentSum += polarity
		confidenceSum += r.Confidence
		if r.Magnitude > out.ImpactScore {
			out.ImpactScore = r.Magnitude
		}
		keys = append(keys, KeyArticle{
			ID:         a.ID,
			Title:      a.Title,
			Source:     a.Source,
			Sentiment:  sentiment.Label(polarity),
			Impact:     r.Magnitude,
			Direction:  r.Direction,
			Confidence: r.Confidence,
			URL:        a.URL,
		})
	}
	if len(keys) == 0 {
		return out, nil
	}

	n := float64(len(keys))
	out.ArticleCount = len(keys)
	out.OverallSentiment = round(sentimentSum / n)
	out.Confidence = round(confidenceSum / n)
	out.PredictedDirection = impact.Direction(out.OverallSentiment, out.Confidence)

	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Impact > keys[j].Impact
	})
	if len(keys) > MaxKeyArticles {
		keys = keys[:MaxKeyArticles]
	}
	out.KeyArticles = keys
	return out, nil
}

func (s *Service) Categories() []types.CategoryInfo {
	return append([]types.CategoryInfo(nil), types.Categories...)
}

func (s *Service) Article(id string) (*ArticleDetail, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	a, ok := snap.Article(id)
	if !ok {
		return nil, ErrNotFound
	}
	records := snap.Impacts[a.ID]
	if records == nil {
		records = []types.ImpactRecord{}
	}
	return &ArticleDetail{
		ArticleView: viewOf(a, records, s.now()),
		Body:        a.Body,
		Author:      a.Author,
		Impacts:     records,
	}, nil
}

// Breaking returns the breaking articles of snap, newest first.
func Breaking(snap *types.Snapshot, now time.Time) []ArticleView {
	if snap == nil {
		return nil
	}
	var out []ArticleView
	for i := range snap.Articles {
		a := &snap.Articles[i]
		if types.IsBreaking(a, now) {
			out = append(out, viewOf(a, snap.Impacts[a.ID], now))
		}
	}
	return out
}

// viewOf summarizes an article. Its impact confidence and direction come from
// the record for its best-correlated market.
func viewOf(a *types.Article, records []types.ImpactRecord, now time.Time) ArticleView {
	polarity, _ := a.Sentiment()
	v := ArticleView{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Summary,
		Source:      a.Source,
		PublishedAt: a.PublishedAt,
		URL:         a.URL,
		Category:    a.Category,
		Tags:        a.Tags,
		Sentiment: SentimentView{
			Score:     polarity,
			Label:     sentiment.Label(polarity),
			Magnitude: a.SentimentMagnitude,
		},
		Impact: ImpactView{
			Score:              a.ImpactScore,
			PredictedDirection: types.DirectionNeutral,
		},
		Credibility:    a.CredibilityScore,
		Relevance:      a.RelevanceScore,
		RelatedMarkets: append([]string{}, a.CorrelatedMarketIDs...),
		IsBreaking:     types.IsBreaking(a, now),
		Degraded:       a.Degraded,
	}
	if len(records) > 0 {
		top := records[0]
		v.Impact.Confidence = top.Confidence
		v.Impact.PredictedDirection = top.Direction
		v.Impact.Horizon = top.Horizon
	}
	return v
}

func knownCategory(id string) bool {
	for _, c := range types.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
