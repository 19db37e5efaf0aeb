package query

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"news-impact-engine/internal/types"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type staticSource struct {
	snap *types.Snapshot
}

func (s staticSource) Latest() *types.Snapshot { return s.snap }

func scoredArticle(id, category string, age time.Duration, polarity, impactScore float64, markets ...string) types.Article {
	a := types.Article{
		ID:                  id,
		Title:               "Title " + id,
		Body:                "Body " + id,
		Source:              "Reuters",
		URL:                 "https://example.com/" + id,
		Category:            category,
		PublishedAt:         now.Add(-age),
		ImpactScore:         impactScore,
		CorrelatedMarketIDs: markets,
	}
	a.SetSentiment(polarity, 0.8, 0.4)
	if len(markets) > 0 {
		a.RelevanceScore = 0.9
	}
	return a
}

func record(articleID, marketID string, dir types.Direction, confidence, magnitude float64) types.ImpactRecord {
	return types.ImpactRecord{
		ArticleID:  articleID,
		MarketID:   marketID,
		Direction:  dir,
		Confidence: confidence,
		Magnitude:  magnitude,
		Horizon:    types.Horizon1h,
		CreatedAt:  now,
	}
}

func testSnapshot() *types.Snapshot {
	return &types.Snapshot{
		CycleID:     "c1",
		PublishedAt: now,
		Source:      types.SourceLive,
		Articles: []types.Article{
			scoredArticle("fed", types.CategoryEconomy, 10*time.Minute, -0.44, 0.726, "fed-cut"),
			scoredArticle("btc", types.CategoryCrypto, 30*time.Minute, 0.5, 0.8, "btc-100k"),
			scoredArticle("chip", types.CategoryTechnology, 5*time.Hour, 0, 0.3),
		},
		Impacts: map[string][]types.ImpactRecord{
			"fed": {record("fed", "fed-cut", types.DirectionDown, 0.9, 0.726)},
			"btc": {record("btc", "btc-100k", types.DirectionUp, 0.8, 0.8)},
		},
		Markets: []types.MarketSnapshot{
			{ID: "fed-cut", Question: "Will the Fed cut rates in June?", Category: "economy"},
			{ID: "btc-100k", Question: "Will Bitcoin reach $100k?", Category: "crypto"},
			{ID: "quiet", Question: "Will it rain in Lisbon?", Category: "climate"},
		},
	}
}

func newTestService(snap *types.Snapshot) *Service {
	return NewService(staticSource{snap: snap}).WithClock(func() time.Time { return now })
}

func TestNoData(t *testing.T) {
	s := newTestService(nil)

	if _, err := s.Feed("", 10); !errors.Is(err, types.ErrNoData) {
		t.Errorf("Feed: expected ErrNoData, got %v", err)
	}
	if _, err := s.SentimentSummary(); !errors.Is(err, types.ErrNoData) {
		t.Errorf("SentimentSummary: expected ErrNoData, got %v", err)
	}
	if _, err := s.MarketImpact("fed-cut"); !errors.Is(err, types.ErrNoData) {
		t.Errorf("MarketImpact: expected ErrNoData, got %v", err)
	}
	if _, err := s.Article("fed"); !errors.Is(err, types.ErrNoData) {
		t.Errorf("Article: expected ErrNoData, got %v", err)
	}
	if len(s.Categories()) == 0 {
		t.Error("Categories must not depend on data")
	}
}

func TestFeed(t *testing.T) {
	s := newTestService(testSnapshot())

	tests := []struct {
		name     string
		category string
		limit    int
		wantIDs  []string
		wantTot  int
	}{
		{"all", "", 0, []string{"fed", "btc", "chip"}, 3},
		{"all keyword", "ALL", 0, []string{"fed", "btc", "chip"}, 3},
		{"limited", "", 2, []string{"fed", "btc"}, 3},
		{"category", "crypto", 10, []string{"btc"}, 1},
		{"empty category", "climate", 10, []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed, err := s.Feed(tt.category, tt.limit)
			if err != nil {
				t.Fatalf("Feed failed: %v", err)
			}
			if feed.Total != tt.wantTot {
				t.Errorf("Expected total %d, got %d", tt.wantTot, feed.Total)
			}
			if len(feed.Articles) != len(tt.wantIDs) {
				t.Fatalf("Expected %d articles, got %d", len(tt.wantIDs), len(feed.Articles))
			}
			for i, id := range tt.wantIDs {
				if feed.Articles[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, feed.Articles[i].ID)
				}
			}
		})
	}
}

func TestFeedUnknownCategory(t *testing.T) {
	if _, err := newTestService(testSnapshot()).Feed("sports", 10); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Expected ErrUnknownCategory, got %v", err)
	}
}

func TestFeedEntryFields(t *testing.T) {
	feed, err := newTestService(testSnapshot()).Feed("", 0)
	if err != nil {
		t.Fatal(err)
	}

	fed := feed.Articles[0]
	if !fed.IsBreaking {
		t.Error("Expected fresh high-impact article to be breaking")
	}
	if fed.Sentiment.Label != "negative" {
		t.Errorf("Expected negative label, got %s", fed.Sentiment.Label)
	}
	if fed.Impact.PredictedDirection != types.DirectionDown || fed.Impact.Confidence != 0.9 {
		t.Errorf("Expected impact from top record, got %+v", fed.Impact)
	}
	if len(fed.RelatedMarkets) != 1 || fed.RelatedMarkets[0] != "fed-cut" {
		t.Errorf("Unexpected related markets %v", fed.RelatedMarkets)
	}

	chip := feed.Articles[2]
	if chip.IsBreaking {
		t.Error("Old article must not be breaking")
	}
	if chip.Impact.PredictedDirection != types.DirectionNeutral {
		t.Errorf("Expected neutral without records, got %s", chip.Impact.PredictedDirection)
	}
	if chip.RelatedMarkets == nil {
		t.Error("Expected empty, non-nil related markets")
	}
}

func TestSentimentSummary(t *testing.T) {
	sum, err := newTestService(testSnapshot()).SentimentSummary()
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(sum.OverallSentiment-0.02) > 1e-9 {
		t.Errorf("Expected overall 0.02, got %v", sum.OverallSentiment)
	}
	if sum.PositiveCount != 1 || sum.NegativeCount != 1 || sum.NeutralCount != 1 {
		t.Errorf("Unexpected label counts %+v", sum)
	}
	if sum.HighImpactCount != 2 {
		t.Errorf("Expected 2 high impact, got %d", sum.HighImpactCount)
	}
	if sum.BreakingCount != 2 {
		t.Errorf("Expected 2 breaking, got %d", sum.BreakingCount)
	}
	if sum.TotalArticles != 3 {
		t.Errorf("Expected 3 total, got %d", sum.TotalArticles)
	}
}

func TestMarketImpact(t *testing.T) {
	s := newTestService(testSnapshot())

	mi, err := s.MarketImpact("fed-cut")
	if err != nil {
		t.Fatal(err)
	}
	if mi.ArticleCount != 1 || mi.OverallSentiment != -0.44 || mi.Confidence != 0.9 {
		t.Errorf("Unexpected rollup %+v", mi)
	}
	if mi.PredictedDirection != types.DirectionDown {
		t.Errorf("Expected down, got %s", mi.PredictedDirection)
	}
	if mi.ImpactScore != 0.726 {
		t.Errorf("Expected impact 0.726, got %v", mi.ImpactScore)
	}
	if mi.Question == "" || len(mi.KeyArticles) != 1 || mi.KeyArticles[0].ID != "fed" {
		t.Errorf("Unexpected key articles %+v", mi.KeyArticles)
	}
}

func TestMarketImpactWithoutRecords(t *testing.T) {
	s := newTestService(testSnapshot())

	mi, err := s.MarketImpact("quiet")
	if err != nil {
		t.Fatal(err)
	}
	if mi.ArticleCount != 0 || mi.PredictedDirection != types.DirectionNeutral || len(mi.KeyArticles) != 0 {
		t.Errorf("Expected empty neutral rollup, got %+v", mi)
	}

	if _, err := s.MarketImpact("nope"); !errors.Is(err, ErrUnknownMarket) {
		t.Errorf("Expected ErrUnknownMarket, got %v", err)
	}
}

func TestMarketImpactTopFive(t *testing.T) {
	snap := &types.Snapshot{
		PublishedAt: now,
		Impacts:     map[string][]types.ImpactRecord{},
		Markets:     []types.MarketSnapshot{{ID: "m"}},
	}
	for i := 0; i < 7; i++ {
		id := fmt.Sprintf("a%d", i)
		magnitude := 0.1 * float64(i+1)
		snap.Articles = append(snap.Articles, scoredArticle(id, types.CategoryEconomy, time.Duration(i)*time.Minute, 0.5, magnitude, "m"))
		snap.Impacts[id] = []types.ImpactRecord{record(id, "m", types.DirectionUp, 0.8, magnitude)}
	}

	mi, err := newTestService(snap).MarketImpact("m")
	if err != nil {
		t.Fatal(err)
	}
	if mi.ArticleCount != 7 {
		t.Errorf("Expected 7 contributing articles, got %d", mi.ArticleCount)
	}
	if len(mi.KeyArticles) != MaxKeyArticles {
		t.Fatalf("Expected %d key articles, got %d", MaxKeyArticles, len(mi.KeyArticles))
	}
	for i := 1; i < len(mi.KeyArticles); i++ {
		if mi.KeyArticles[i].Impact > mi.KeyArticles[i-1].Impact {
			t.Errorf("Key articles not ordered by impact: %+v", mi.KeyArticles)
		}
	}
	if mi.KeyArticles[0].ID != "a6" {
		t.Errorf("Expected strongest article first, got %s", mi.KeyArticles[0].ID)
	}
	if mi.PredictedDirection != types.DirectionUp {
		t.Errorf("Expected up, got %s", mi.PredictedDirection)
	}
}

func TestArticle(t *testing.T) {
	s := newTestService(testSnapshot())

	d, err := s.Article("fed")
	if err != nil {
		t.Fatal(err)
	}
	if d.Body != "Body fed" || len(d.Impacts) != 1 || !d.IsBreaking {
		t.Errorf("Unexpected detail %+v", d)
	}

	chip, err := s.Article("chip")
	if err != nil {
		t.Fatal(err)
	}
	if chip.Impacts == nil {
		t.Error("Expected empty, non-nil impacts")
	}

	if _, err := s.Article("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBreaking(t *testing.T) {
	got := Breaking(testSnapshot(), now)
	if len(got) != 2 || got[0].ID != "fed" || got[1].ID != "btc" {
		t.Errorf("Expected fed and btc, got %+v", got)
	}
	if Breaking(nil, now) != nil {
		t.Error("Expected nil for no snapshot")
	}
}
