// Package pipeline runs fetch, analysis, correlation and prediction as one
// cycle and publishes the result. Every stage has a fallback, so a cycle
// publishes whenever any article data is available.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"news-impact-engine/internal/cache"
	"news-impact-engine/internal/correlate"
	"news-impact-engine/internal/credibility"
	"news-impact-engine/internal/impact"
	"news-impact-engine/internal/ingest"
	"news-impact-engine/internal/interfaces"
	"news-impact-engine/internal/logger"
	"news-impact-engine/internal/sentiment"
	"news-impact-engine/internal/trace"
	"news-impact-engine/internal/types"
)

// Deps are the engine's collaborators. Fetcher and Markets are required; the
// scorers default to the built-in implementations.
type Deps struct {
	Fetcher     interfaces.NewsFetcher
	Markets     interfaces.MarketFeed
	Snapshots   cache.SnapshotStore
	Sentiment   interfaces.SentimentScorer
	Credibility interfaces.CredibilityScorer
	Correlator  interfaces.MarketCorrelator
	Predictor   interfaces.ImpactPredictor

	// Synthetic is the last-resort article set. Defaults to the built-in
	// samples; use NoSynthetic to disable it.
	Synthetic func(now time.Time) []types.Article
	Now       func() time.Time
}

// NoSynthetic disables the synthetic article fallback.
func NoSynthetic(time.Time) []types.Article { return nil }

// Listener is called after every publish with the new snapshot.
type Listener func(ctx context.Context, snap *types.Snapshot)

type Engine struct {
	cfg  Config
	deps Deps

	articles     *cache.Store[[]types.Article]
	sentiments   *cache.Store[sentiment.Result]
	correlations *cache.Store[[]types.Match]
	impacts      *cache.Store[[]types.ImpactRecord]

	cycles singleflight.Group
	latest atomic.Pointer[types.Snapshot]

	mu        sync.RWMutex
	state     State
	listeners []Listener
}

var _ interfaces.Pipeline = (*Engine)(nil)

func New(cfg Config, deps Deps) (*Engine, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("pipeline: news fetcher is required")
	}
	if deps.Markets == nil {
		return nil, errors.New("pipeline: market feed is required")
	}
	if deps.Snapshots == nil {
		deps.Snapshots = cache.NewMemorySnapshots()
	}
	if deps.Sentiment == nil {
		deps.Sentiment = sentiment.NewAnalyzer()
	}
	if deps.Credibility == nil {
		deps.Credibility = credibility.NewScorer(nil)
	}
	if deps.Correlator == nil {
		deps.Correlator = correlate.New()
	}
	if deps.Predictor == nil {
		deps.Predictor = impact.NewPredictor()
	}
	if deps.Synthetic == nil {
		deps.Synthetic = ingest.SyntheticArticles
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	cfg.applyDefaults()

	clock := cache.WithClock(deps.Now)
	return &Engine{
		cfg:          cfg,
		deps:         deps,
		articles:     cache.New[[]types.Article]("articles", cfg.ArticlesTTL, cache.KeepStale(), clock),
		sentiments:   cache.New[sentiment.Result]("sentiment", cfg.SentimentTTL, clock),
		correlations: cache.New[[]types.Match]("correlation", cfg.CorrelationTTL, clock),
		impacts:      cache.New[[]types.ImpactRecord]("impact", cfg.ImpactTTL, clock),
		state:        StateIdle,
	}, nil
}

// CacheStats reports every cache tier in pipeline order.
func (e *Engine) CacheStats() []cache.Stats {
	return []cache.Stats{
		e.articles.Stats(),
		e.sentiments.Stats(),
		e.correlations.Stats(),
		e.impacts.Stats(),
	}
}

// OnPublish registers l to run after each published cycle.
func (e *Engine) OnPublish(l Listener) {
	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()
}

// State reports where the current cycle is, or StateIdle between cycles.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) setState(ctx context.Context, s State) {
	e.mu.Lock()
	prev := e.state
	e.state = s
	e.mu.Unlock()
	if prev != s {
		logger.Debug(ctx, "Pipeline state changed", "from", string(prev), "to", string(s))
	}
}

// Latest returns the last published snapshot. Callers must not modify it.
func (e *Engine) Latest() *types.Snapshot {
	return e.latest.Load()
}

// RunCycle runs one cycle, or waits for the one already in flight. The cycle
// is bounded by the cycle budget rather than by ctx, so a caller giving up
// does not degrade the result for the others.
func (e *Engine) RunCycle(ctx context.Context) (*types.Snapshot, error) {
	ch := e.cycles.DoChan("cycle", func() (any, error) {
		snap, err := e.runCycle(context.WithoutCancel(ctx))
		return snap, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*types.Snapshot), nil
	}
}

// Start runs a cycle immediately and then on every interval until ctx is done.
func (e *Engine) Start(ctx context.Context, interval time.Duration) {
	go e.sentiments.RunJanitor(ctx, interval)
	go e.correlations.RunJanitor(ctx, interval)
	go e.impacts.RunJanitor(ctx, interval)

	e.runScheduled(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Pipeline scheduler stopped")
			return
		case <-ticker.C:
			e.runScheduled(ctx)
		}
	}
}

func (e *Engine) runScheduled(ctx context.Context) {
	if _, err := e.RunCycle(ctx); err != nil && ctx.Err() == nil {
		logger.ErrorWithErr(ctx, "Scheduled cycle produced no data", err)
	}
}

func (e *Engine) runCycle(parent context.Context) (*types.Snapshot, error) {
	ctx, cancel := context.WithTimeout(parent, e.cfg.CycleBudget)
	defer cancel()

	c := &cycle{id: uuid.NewString(), started: e.deps.Now()}
	ctx, span := trace.StartStage(ctx, c.id, "cycle")
	defer span.End()

	timer := logger.StartOperation(ctx, "pipeline_cycle", "cycle_id", c.id)
	defer e.setState(ctx, StateIdle)

	e.setState(ctx, StateFetching)
	articles, source := e.fetch(ctx, c)
	if len(articles) == 0 {
		timer.EndWithError(types.ErrNoData)
		return nil, types.NewStageError(types.StageIngestion, types.ErrNoData)
	}

	e.setState(ctx, StateAnalyzing)
	e.analyze(ctx, c, articles)

	e.setState(ctx, StateCorrelating)
	markets := e.correlate(ctx, c, articles)

	e.setState(ctx, StatePredicting)
	impacts := e.predict(ctx, c, articles)

	snap := e.publish(ctx, c, source, articles, impacts, markets)
	timer.End("articles", len(snap.Articles), "recoveries", len(snap.Recoveries), "source", source)
	return snap, nil
}

func (e *Engine) publish(ctx context.Context, c *cycle, source string, articles []types.Article, impacts map[string][]types.ImpactRecord, markets []types.MarketSnapshot) *types.Snapshot {
	articles = dedupe(articles)
	types.SortByPublished(articles)

	snap := &types.Snapshot{
		CycleID:     c.id,
		StartedAt:   c.started,
		PublishedAt: e.deps.Now(),
		Source:      source,
		Degraded:    c.degraded,
		Articles:    articles,
		Impacts:     impacts,
		Markets:     markets,
		Recoveries:  c.snapshotRecoveries(),
	}
	e.latest.Store(snap)
	e.setState(ctx, StatePublished)

	logger.Info(ctx, "Cycle published",
		"cycle_id", c.id,
		"articles", len(articles),
		"markets", len(markets),
		"source", source,
		"degraded", c.degraded,
		"recoveries", len(snap.Recoveries),
	)

	e.mu.RLock()
	listeners := append([]Listener(nil), e.listeners...)
	e.mu.RUnlock()
	for _, l := range listeners {
		notify(ctx, l, snap)
	}
	return snap
}

func notify(ctx context.Context, l Listener, snap *types.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Publish listener panicked", "panic", r)
		}
	}()
	l(ctx, snap)
}

// cycle carries per-cycle bookkeeping shared by the stage workers.
type cycle struct {
	id       string
	started  time.Time
	degraded bool

	mu         sync.Mutex
	recoveries []types.Recovery
}

func (c *cycle) record(ctx context.Context, stage types.Stage, articleID string, cause error, fallback string) {
	r := types.Recovery{
		Stage:     stage,
		ArticleID: articleID,
		Cause:     cause.Error(),
		Fallback:  fallback,
		At:        time.Now().UTC(),
	}
	c.mu.Lock()
	c.recoveries = append(c.recoveries, r)
	c.mu.Unlock()

	logger.Recovery(ctx, string(stage), r.Cause, fallback, "cycle_id", c.id, "article_id", articleID)
}

func (c *cycle) snapshotRecoveries() []types.Recovery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Recovery(nil), c.recoveries...)
}

func dedupe(articles []types.Article) []types.Article {
	seen := make(map[string]bool, len(articles))
	out := articles[:0]
	for _, a := range articles {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out
}
