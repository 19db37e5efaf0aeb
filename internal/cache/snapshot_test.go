package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"news-impact-engine/internal/types"
)

// Runs only against a live server: REDIS_TEST_ADDR=localhost:6379 go test ./internal/cache
func TestRedisSnapshotsRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	r, err := NewRedisSnapshots(ctx, addr, time.Minute)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer r.Close()

	published := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := r.Save(ctx, []types.Article{{ID: "a", Title: "Fed holds", PublishedAt: published}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	snap, err := r.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snap.Articles) != 1 || snap.Articles[0].Title != "Fed holds" || !snap.Articles[0].PublishedAt.Equal(published) {
		t.Errorf("Unexpected snapshot %+v", snap)
	}
}

func TestNewRedisSnapshotsUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if _, err := NewRedisSnapshots(ctx, "127.0.0.1:1", time.Minute); err == nil {
		t.Fatal("Expected connection error")
	}
}
