package ingest

import (
	"testing"
	"time"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Federal Reserve Signals Potential Interest Rate Cut", "economy"},
		{"Bitcoin Surges to New Monthly High", "crypto"},
		{"Presidential Election Polls Tighten", "politics"},
		{"Apple Unveils New AI Features", "technology"},
		{"Quarterly earnings beat estimates", "stocks"},
		{"Carbon emissions hit record", "climate"},
		{"Local team wins championship", "general"},
		{"Officials said nothing new", "general"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got, _ := Categorize(tt.title, "")
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCategorizeTags(t *testing.T) {
	_, tags := Categorize("Bitcoin rallies", "Ethereum follows as the Fed holds rates")
	want := map[string]bool{"bitcoin": true, "ethereum": true, "fed": true}
	for _, tag := range tags {
		delete(want, tag)
	}
	if len(want) != 0 {
		t.Errorf("Missing tags %v in %v", want, tags)
	}
}

func TestNormalizeDeterministicID(t *testing.T) {
	raw := RawArticle{Title: "Fed holds", URL: "https://reuters.com/x", PublishedAt: "2024-05-01T10:00:00Z"}
	a, err := Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Normalize(raw)

	if a.ID != b.ID {
		t.Error("Expected identical IDs on re-ingest")
	}
	if a.Source != "reuters.com" {
		t.Errorf("Expected domain as source fallback, got %s", a.Source)
	}
	if !a.PublishedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected timestamp %s", a.PublishedAt)
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  RawArticle
	}{
		{"no title", RawArticle{URL: "https://a.com", PublishedAt: "2024-05-01T10:00:00Z"}},
		{"relative url", RawArticle{Title: "x", URL: "/news/1", PublishedAt: "2024-05-01T10:00:00Z"}},
		{"bad scheme", RawArticle{Title: "x", URL: "ftp://a.com/1", PublishedAt: "2024-05-01T10:00:00Z"}},
		{"no timestamp", RawArticle{Title: "x", URL: "https://a.com/1"}},
		{"removed", RawArticle{Title: "[Removed]", URL: "https://removed.com", PublishedAt: "2024-05-01T10:00:00Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Normalize(tt.raw); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestNormalizeStripsTruncationMarker(t *testing.T) {
	a, err := Normalize(RawArticle{
		Title:       "Tesla beats",
		URL:         "https://bloomberg.com/t",
		PublishedAt: "2024-05-01T10:00:00Z",
		Content:     "Tesla reported record deliveries [+2311 chars]",
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.Body != "Tesla reported record deliveries" {
		t.Errorf("Unexpected body %q", a.Body)
	}
}

func TestSyntheticArticles(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := SyntheticArticles(now)
	b := SyntheticArticles(now)

	if len(a) != 8 {
		t.Fatalf("Expected 8 synthetic articles, got %d", len(a))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("Expected deterministic IDs at %d", i)
		}
		if !a[i].Degraded {
			t.Errorf("Expected synthetic article %d to be marked degraded", i)
		}
		if i > 0 && a[i].PublishedAt.After(a[i-1].PublishedAt) {
			t.Errorf("Expected newest-first ordering at %d", i)
		}
	}
	if a[0].Title != "Bitcoin Surges to New Monthly High" {
		t.Errorf("Expected newest article first, got %s", a[0].Title)
	}
}
