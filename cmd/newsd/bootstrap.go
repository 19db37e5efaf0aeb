package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"news-impact-engine/internal/cache"
	"news-impact-engine/internal/credibility"
	"news-impact-engine/internal/ingest"
	"news-impact-engine/internal/interfaces"
	"news-impact-engine/internal/logger"
	"news-impact-engine/internal/markets"
	"news-impact-engine/internal/pipeline"
	"news-impact-engine/internal/pipeline/pipelineobs"
	"news-impact-engine/internal/server"
	"news-impact-engine/internal/store"
	"news-impact-engine/internal/trace"
)

// app holds the wired components of one process.
type app struct {
	engine    *pipeline.Engine
	pipeline  interfaces.Pipeline
	server    *server.Server
	snapshots cache.SnapshotStore
}

func (a *app) Close() {
	if err := a.snapshots.Close(); err != nil {
		logger.Warn(context.Background(), "Failed to close snapshot store", "error", err)
	}
}

// initializeSystem initializes logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

func initializeApp(ctx context.Context, cfg *store.Config) (*app, error) {
	feed, err := initializeMarkets(ctx, cfg)
	if err != nil {
		return nil, err
	}
	snapshots := initializeSnapshots(ctx, cfg)

	eng, err := pipeline.New(pipeline.ConfigFrom(cfg), pipeline.Deps{
		Fetcher:     initializeFetcher(ctx, cfg),
		Markets:     feed,
		Snapshots:   snapshots,
		Credibility: credibility.NewScorer(nil),
	})
	if err != nil {
		_ = snapshots.Close()
		return nil, err
	}

	// Wrap with observability middleware
	p := pipelineobs.Wrap(eng)

	srv := server.NewServer(p, server.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Version:        version,
		RefreshTimeout: cfg.Pipeline.CycleBudget.D(),
		CacheStats:     eng.CacheStats,
	})
	eng.OnPublish(srv.PublishBreaking)

	return &app{engine: eng, pipeline: p, server: srv, snapshots: snapshots}, nil
}

// initializeFetcher builds the ingestion client: NewsAPI first, RSS feeds
// as the secondary provider.
func initializeFetcher(ctx context.Context, cfg *store.Config) interfaces.NewsFetcher {
	var providers []ingest.Provider
	if cfg.News.APIKey != "" {
		providers = append(providers, ingest.NewNewsAPIProvider(
			cfg.News.BaseURL,
			cfg.News.APIKey,
			cfg.News.Language,
			cfg.News.Domains,
			cfg.News.RequestTimeout.D(),
		))
	} else {
		logger.Warn(ctx, "NEWS_API_KEY not set - NewsAPI provider disabled")
	}
	if len(cfg.News.RSSFeeds) > 0 {
		providers = append(providers, ingest.NewRSSProvider(cfg.News.RSSFeeds))
	}
	if len(providers) == 0 {
		logger.Warn(ctx, "No news providers configured - cycles will run on fallback data")
	}

	client := ingest.NewClient(ingest.ClientConfig{
		PageSize:       cfg.News.PageSize,
		RequestTimeout: cfg.News.RequestTimeout.D(),
		RetryCount:     cfg.News.RetryCount,
		RetryDelay:     cfg.News.RetryDelay.D(),
		Enrich:         cfg.News.Enrich,
		MaxEnrich:      ingest.DefaultClientConfig().MaxEnrich,
	}, ingest.NewRateLimiter(cfg.News.RateLimit.MaxRequests, cfg.RateWindow()), providers...)

	if cfg.News.Enrich {
		client = client.WithContentFetcher(ingest.NewEnricher(cfg.News.RequestTimeout.D()))
		logger.Info(ctx, "Article enrichment enabled")
	}
	return client
}

// initializeMarkets picks the market feed: a URL wins over a file.
func initializeMarkets(ctx context.Context, cfg *store.Config) (interfaces.MarketFeed, error) {
	switch {
	case cfg.Markets.URL != "":
		logger.Info(ctx, "Using HTTP market feed", "url", cfg.Markets.URL)
		return markets.NewHTTPFeed(cfg.Markets.URL, cfg.News.RequestTimeout.D()), nil
	case cfg.Markets.File != "":
		if _, err := os.Stat(cfg.Markets.File); err != nil {
			return nil, fmt.Errorf("markets file: %w", err)
		}
		logger.Info(ctx, "Using market file", "file", cfg.Markets.File)
		return markets.NewFileFeed(cfg.Markets.File), nil
	default:
		logger.Warn(ctx, "No market feed configured - articles will not be correlated")
		return markets.Static(nil), nil
	}
}

// initializeSnapshots connects to Redis when configured and falls back to
// process memory otherwise.
func initializeSnapshots(ctx context.Context, cfg *store.Config) cache.SnapshotStore {
	if cfg.Cache.RedisAddr == "" {
		return cache.NewMemorySnapshots()
	}
	r, err := cache.NewRedisSnapshots(ctx, cfg.Cache.RedisAddr, cfg.Cache.SnapshotTTL.D())
	if err != nil {
		logger.Warn(ctx, "Redis unavailable - using in-memory snapshots",
			"addr", cfg.Cache.RedisAddr, "error", err)
		return cache.NewMemorySnapshots()
	}
	logger.Info(ctx, "Using Redis snapshot store", "addr", cfg.Cache.RedisAddr)
	return r
}
