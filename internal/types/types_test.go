package types

import (
	"errors"
	"testing"
	"time"
)

func TestArticleIDDeterministic(t *testing.T) {
	a := ArticleID("Fed signals rate cut", "https://reuters.com/a")
	b := ArticleID("Fed signals rate cut", "https://reuters.com/a")
	c := ArticleID("Fed signals rate cut", "https://reuters.com/b")

	if a != b {
		t.Errorf("Expected identical IDs, got %s and %s", a, b)
	}
	if a == c {
		t.Error("Expected different URLs to produce different IDs")
	}
	if len(a) != 32 {
		t.Errorf("Expected 32 hex chars, got %d", len(a))
	}
}

func TestIsBreaking(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		age    time.Duration
		impact float64
		want   bool
	}{
		{"fresh and impactful", 30 * time.Minute, 0.6, true},
		{"fresh but weak", 30 * time.Minute, 0.5, false},
		{"old and impactful", 2 * time.Hour, 0.9, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Article{PublishedAt: now.Add(-tt.age), ImpactScore: tt.impact}
			if got := IsBreaking(a, now); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSetTagsSortedUnique(t *testing.T) {
	var a Article
	a.SetTags([]string{"fed", "crypto", "fed", "", "bitcoin"})

	want := []string{"bitcoin", "crypto", "fed"}
	if len(a.Tags) != len(want) {
		t.Fatalf("Expected %d tags, got %v", len(want), a.Tags)
	}
	for i := range want {
		if a.Tags[i] != want[i] {
			t.Errorf("Expected tag %s at %d, got %s", want[i], i, a.Tags[i])
		}
	}
}

func TestSortByPublished(t *testing.T) {
	now := time.Now()
	articles := []Article{
		{ID: "b", PublishedAt: now.Add(-time.Hour)},
		{ID: "c", PublishedAt: now},
		{ID: "a", PublishedAt: now.Add(-time.Hour)},
	}
	SortByPublished(articles)

	if articles[0].ID != "c" || articles[1].ID != "a" || articles[2].ID != "b" {
		t.Errorf("Unexpected order: %s %s %s", articles[0].ID, articles[1].ID, articles[2].ID)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	a := Article{Tags: []string{"x"}}
	a.SetSentiment(0.5, 0.3, 0.1)

	c := a.Clone()
	c.Tags[0] = "y"
	*c.SentimentScore = -1

	if a.Tags[0] != "x" {
		t.Error("Expected original tags untouched")
	}
	if s, _ := a.Sentiment(); s != 0.5 {
		t.Errorf("Expected original sentiment 0.5, got %v", s)
	}
}

func TestStageError(t *testing.T) {
	cause := errors.New("timeout")
	err := error(NewStageError(StageCorrelation, cause))

	if !errors.Is(err, cause) {
		t.Error("Expected StageError to unwrap to its cause")
	}
	stage, ok := StageOf(err)
	if !ok || stage != StageCorrelation {
		t.Errorf("Expected correlation stage, got %v (%v)", stage, ok)
	}
}
