package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"news-impact-engine/internal/logger"
	"news-impact-engine/internal/types"
)

// ErrNoSnapshot means no last-known-good article list has been saved.
var ErrNoSnapshot = errors.New("no article snapshot")

// Snapshot is a saved article list.
type Snapshot struct {
	SavedAt  time.Time       `json:"saved_at"`
	Articles []types.Article `json:"articles"`
}

// SnapshotStore persists the last successfully fetched article list so a
// restart can still serve data when the provider is down.
type SnapshotStore interface {
	Save(ctx context.Context, articles []types.Article) error
	Load(ctx context.Context) (*Snapshot, error)
	Close() error
}

const snapshotKey = "news:articles:last-good"

// RedisSnapshots stores the snapshot as JSON under a single Redis key.
type RedisSnapshots struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshots connects to addr and verifies the connection.
func NewRedisSnapshots(ctx context.Context, addr string, ttl time.Duration) (*RedisSnapshots, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info(ctx, "Connected to Redis snapshot store", "addr", addr)
	return &RedisSnapshots{client: client, ttl: ttl}, nil
}

func (r *RedisSnapshots) Save(ctx context.Context, articles []types.Article) error {
	data, err := json.Marshal(Snapshot{SavedAt: time.Now().UTC(), Articles: articles})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *RedisSnapshots) Load(ctx context.Context) (*Snapshot, error) {
	data, err := r.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func (r *RedisSnapshots) Close() error {
	return r.client.Close()
}

// MemorySnapshots keeps the snapshot in process.
type MemorySnapshots struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{}
}

func (m *MemorySnapshots) Save(_ context.Context, articles []types.Article) error {
	cp := make([]types.Article, len(articles))
	for i := range articles {
		cp[i] = articles[i].Clone()
	}
	m.mu.Lock()
	m.snap = &Snapshot{SavedAt: time.Now().UTC(), Articles: cp}
	m.mu.Unlock()
	return nil
}

func (m *MemorySnapshots) Load(_ context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return nil, ErrNoSnapshot
	}
	return m.snap, nil
}

func (m *MemorySnapshots) Close() error { return nil }
