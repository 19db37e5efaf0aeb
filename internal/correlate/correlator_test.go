package correlate

import (
	"testing"
	"time"

	"news-impact-engine/internal/types"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fedArticle(age time.Duration) *types.Article {
	return &types.Article{
		ID:          "fed",
		Title:       "Fed Signals Rate Cut",
		Body:        "The fed is weighing a rate cut",
		Category:    types.CategoryEconomy,
		PublishedAt: now.Add(-age),
	}
}

func markets() []types.MarketSnapshot {
	return []types.MarketSnapshot{
		{ID: "m-fed", Question: "Will Fed cut rates in Q2?", Category: "economy", Status: "active"},
		{ID: "m-gdp", Question: "Will GDP growth exceed 3%?", Category: "economy"},
		{ID: "m-btc", Question: "Will Bitcoin reach $100k?", Category: "crypto", Status: "active"},
		{ID: "m-closed", Question: "Will the Fed hike in March?", Category: "economy", Status: "resolved"},
	}
}

func TestCorrelateFedExample(t *testing.T) {
	a := fedArticle(0)
	matches, err := New().Correlate(a, markets(), now)
	if err != nil {
		t.Fatal(err)
	}

	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %+v", matches)
	}
	if matches[0].MarketID != "m-fed" {
		t.Errorf("Expected m-fed first, got %s", matches[0].MarketID)
	}
	// keyword 0.4 + category 0.3 + fresh 0.2
	if matches[0].Score != 0.9 {
		t.Errorf("Expected 0.9, got %v", matches[0].Score)
	}
	if matches[1].MarketID != "m-gdp" || matches[1].Score != 0.5 {
		t.Errorf("Expected m-gdp at 0.5, got %+v", matches[1])
	}
}

func TestCorrelateSentimentBonusAndCap(t *testing.T) {
	a := fedArticle(0)
	a.SetSentiment(-0.44, 1.0, 0.5)

	matches, _ := New().Correlate(a, markets(), now)
	if matches[0].Score != 1.0 {
		t.Errorf("Expected capped 1.0, got %v", matches[0].Score)
	}
	if matches[0].Score < 0.7 {
		t.Errorf("Expected at least keyword + category, got %v", matches[0].Score)
	}
}

func TestCorrelateAgeBonus(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want float64
	}{
		{30 * time.Minute, 0.9},
		{3 * time.Hour, 0.8},
		{12 * time.Hour, 0.7},
	}
	for _, tt := range tests {
		matches, _ := New().Correlate(fedArticle(tt.age), markets()[:1], now)
		if len(matches) != 1 || matches[0].Score != tt.want {
			t.Errorf("Age %s: expected %v, got %+v", tt.age, tt.want, matches)
		}
	}
}

func TestCorrelateNoTopicalMatch(t *testing.T) {
	a := &types.Article{
		Title:       "Local team wins championship",
		Category:    types.CategoryGeneral,
		PublishedAt: now,
	}
	a.SetSentiment(0.9, 1, 1)

	matches, _ := New().Correlate(a, markets(), now)
	if len(matches) != 0 {
		t.Errorf("Expected no matches without a topical link, got %+v", matches)
	}
}

func TestCorrelateMonotonic(t *testing.T) {
	a := fedArticle(2 * time.Hour)
	base := []types.MarketSnapshot{{ID: "m", Question: "Will the economy contract?", Category: "economy"}}
	withKeyword := []types.MarketSnapshot{{ID: "m", Question: "Will the economy contract after the Fed decision?", Category: "economy"}}

	c := New()
	before, _ := c.Correlate(a, base, now)
	after, _ := c.Correlate(a, withKeyword, now)

	if len(before) != 1 || len(after) != 1 {
		t.Fatalf("Expected both to match, got %+v and %+v", before, after)
	}
	if after[0].Score < before[0].Score {
		t.Errorf("Adding a keyword pattern lowered the score: %v -> %v", before[0].Score, after[0].Score)
	}
}

func TestCorrelateCategoryOnly(t *testing.T) {
	matches := New().CorrelateCategoryOnly(fedArticle(0), markets(), now)

	for _, m := range matches {
		if m.Score != 0.5 {
			t.Errorf("Expected category + fresh only (0.5), got %v for %s", m.Score, m.MarketID)
		}
	}
	if len(matches) != 2 || matches[0].MarketID != "m-fed" {
		t.Errorf("Expected ties broken by ID, got %+v", matches)
	}
}

func TestApplyMatches(t *testing.T) {
	a := fedArticle(0)
	ApplyMatches(a, []types.Match{{MarketID: "x", Score: 0.8}, {MarketID: "y", Score: 0.4}})

	if a.RelevanceScore != 0.8 {
		t.Errorf("Expected relevance 0.8, got %v", a.RelevanceScore)
	}
	if len(a.CorrelatedMarketIDs) != 2 || a.CorrelatedMarketIDs[0] != "x" {
		t.Errorf("Unexpected ids %v", a.CorrelatedMarketIDs)
	}
}

func TestWithGroups(t *testing.T) {
	c := New().WithGroups(KeywordGroup{Keyword: "opec", Patterns: []string{"oil price"}})
	a := &types.Article{Title: "OPEC agrees output deal", Category: types.CategoryGeneral, PublishedAt: now}

	matches, _ := c.Correlate(a, []types.MarketSnapshot{{ID: "oil", Question: "Will the oil price top $100?"}}, now)
	if len(matches) != 1 || matches[0].Score != 0.6 {
		t.Errorf("Expected custom group match at 0.6, got %+v", matches)
	}
}
