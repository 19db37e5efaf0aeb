package markets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `markets:
  - id: fed-cut-june
    question: Will the Fed cut rates in June?
    category: economy
    probability: 0.42
  - id: btc-100k
    question: Will Bitcoin close above $100k this year?
    category: crypto
    status: active
  - id: old-election
    question: Will the incumbent win?
    category: politics
    status: resolved
`

func TestFileFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markets.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := NewFileFeed(path).Markets(context.Background())
	if err != nil {
		t.Fatalf("Markets failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 active markets, got %d", len(list))
	}
	if list[0].ID != "fed-cut-june" || list[0].Probability != 0.42 {
		t.Errorf("Unexpected first market %+v", list[0])
	}
}

func TestFileFeedMissing(t *testing.T) {
	if _, err := NewFileFeed(filepath.Join(t.TempDir(), "nope.yaml")).Markets(context.Background()); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFileFeedDuplicateID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markets.yaml")
	doc := "markets:\n  - id: a\n  - id: a\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileFeed(path).Markets(context.Background()); err == nil {
		t.Error("Expected duplicate id error")
	}
}

func TestHTTPFeed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"array", `[{"id":"m1","question":"Q?","category":"economy"},{"id":"m2","status":"closed"}]`},
		{"object", `{"markets":[{"id":"m1","question":"Q?","category":"economy"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			list, err := NewHTTPFeed(srv.URL, time.Second).Markets(context.Background())
			if err != nil {
				t.Fatalf("Markets failed: %v", err)
			}
			if len(list) != 1 || list[0].ID != "m1" {
				t.Errorf("Expected only m1, got %+v", list)
			}
		})
	}
}

func TestHTTPFeedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewHTTPFeed(srv.URL, time.Second).Markets(context.Background()); err == nil {
		t.Error("Expected error for 404")
	}
}

func TestStatic(t *testing.T) {
	s := Static{{ID: "a"}, {ID: "b", Status: "resolved"}}
	list, _ := s.Markets(context.Background())
	if len(list) != 1 || list[0].ID != "a" {
		t.Errorf("Expected only active market, got %+v", list)
	}
}
