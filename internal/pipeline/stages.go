package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"news-impact-engine/internal/cache"
	"news-impact-engine/internal/correlate"
	"news-impact-engine/internal/impact"
	"news-impact-engine/internal/logger"
	"news-impact-engine/internal/sentiment"
	"news-impact-engine/internal/trace"
	"news-impact-engine/internal/types"
)

const snapshotIOTimeout = 5 * time.Second

// Fallback names recorded with each recovery.
const (
	fallbackKeywordOnly  = "keyword-only"
	fallbackCategoryOnly = "category-only"
	fallbackHeuristic    = "fixed-heuristic"
	fallbackPrevMarkets  = "previous-markets"
	fallbackNoMarkets    = "no-markets"
)

var errEmptyFetch = errors.New("provider returned no articles")

// fetch returns the cycle's working copy of the article list and where it
// came from: fresh cache, live provider, or one of the fallbacks.
func (e *Engine) fetch(ctx context.Context, c *cycle) ([]types.Article, string) {
	ctx, span := trace.StartStage(ctx, c.id, string(types.StageIngestion))
	defer span.End()

	key := cache.Key("articles", e.cfg.Query)
	if cached, ok := e.articles.Get(key); ok {
		return cloneAll(cached, false), types.SourceCache
	}

	fctx, cancel := context.WithTimeout(ctx, e.cfg.FetchBudget)
	defer cancel()

	since := c.started.Add(-e.cfg.Lookback)
	fetched, err := e.articles.GetOrCompute(fctx, key, func(ctx context.Context) ([]types.Article, error) {
		list, err := e.deps.Fetcher.Fetch(ctx, e.cfg.Query, since)
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, errEmptyFetch
		}
		return dedupe(cloneAll(list, false)), nil
	})
	if err == nil {
		e.saveSnapshot(ctx, fetched)
		return cloneAll(fetched, false), types.SourceLive
	}

	return e.recoverArticles(ctx, c, key, types.NewStageError(types.StageIngestion, err))
}

// recoverArticles walks the fetch fallbacks in order: stale cache, persisted
// snapshot, synthetic samples. Whatever it returns is marked degraded.
func (e *Engine) recoverArticles(ctx context.Context, c *cycle, key string, cause error) ([]types.Article, string) {
	e.setState(ctx, StateRecovery)
	c.degraded = true

	if entry, ok := e.articles.Stale(key); ok && len(entry.Value) > 0 {
		c.record(ctx, types.StageIngestion, "", cause, types.SourceStale)
		return cloneAll(entry.Value, true), types.SourceStale
	}

	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotIOTimeout)
	defer cancel()
	snap, err := e.deps.Snapshots.Load(lctx)
	switch {
	case err == nil && len(snap.Articles) > 0:
		c.record(ctx, types.StageIngestion, "", cause, types.SourceSnapshot)
		return dedupe(cloneAll(snap.Articles, true)), types.SourceSnapshot
	case err != nil && !errors.Is(err, cache.ErrNoSnapshot):
		logger.ErrorWithErr(ctx, "Failed to load article snapshot", err)
	}

	if synthetic := e.deps.Synthetic(c.started); len(synthetic) > 0 {
		c.record(ctx, types.StageIngestion, "", cause, types.SourceSynthetic)
		return cloneAll(synthetic, true), types.SourceSynthetic
	}

	logger.ErrorWithErr(ctx, "No article data available", cause, "cycle_id", c.id)
	return nil, ""
}

func (e *Engine) saveSnapshot(ctx context.Context, articles []types.Article) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotIOTimeout)
	defer cancel()
	if err := e.deps.Snapshots.Save(sctx, articles); err != nil {
		logger.Warn(ctx, "Failed to save article snapshot", "error", err)
	}
}

// analyze scores credibility and sentiment for every article.
func (e *Engine) analyze(ctx context.Context, c *cycle, articles []types.Article) {
	ctx, span := trace.StartStage(ctx, c.id, string(types.StageAnalysis))
	defer span.End()

	sctx, cancel := context.WithTimeout(ctx, e.cfg.AnalyzeBudget)
	defer cancel()

	e.forEach(sctx, articles,
		func(ctx context.Context, a *types.Article) error {
			a.CredibilityScore = e.deps.Credibility.Score(a.SourceDomain, a.Source)

			text := a.Text()
			res, err := e.sentiments.GetOrCompute(ctx, cache.Key("sentiment", text), func(context.Context) (sentiment.Result, error) {
				return e.deps.Sentiment.Score(text)
			})
			if err != nil {
				return err
			}
			a.SetSentiment(res.Polarity, res.Magnitude, res.Subjectivity)
			return nil
		},
		func(a *types.Article, err error) {
			res := e.deps.Sentiment.KeywordOnly(a.Text())
			a.SetSentiment(res.Polarity, res.Magnitude, res.Subjectivity)
			c.record(ctx, types.StageAnalysis, a.ID, types.NewStageError(types.StageAnalysis, err), fallbackKeywordOnly)
		},
	)
}

// loadMarkets reads the market feed, falling back to the markets of the
// previous snapshot. It runs inside the correlation budget.
func (e *Engine) loadMarkets(ctx context.Context, c *cycle) []types.MarketSnapshot {
	markets, err := e.deps.Markets.Markets(ctx)
	if err == nil {
		return markets
	}

	e.setState(ctx, StateRecovery)
	cause := types.NewStageError(types.StageCorrelation, fmt.Errorf("market feed: %w", err))
	if prev := e.latest.Load(); prev != nil && len(prev.Markets) > 0 {
		c.record(ctx, types.StageCorrelation, "", cause, fallbackPrevMarkets)
		return prev.Markets
	}
	c.record(ctx, types.StageCorrelation, "", cause, fallbackNoMarkets)
	return nil
}

// correlate loads the markets and links every article to the ones it
// could move. Market loading and matching share one stage budget.
func (e *Engine) correlate(ctx context.Context, c *cycle, articles []types.Article) []types.MarketSnapshot {
	ctx, span := trace.StartStage(ctx, c.id, string(types.StageCorrelation))
	defer span.End()

	sctx, cancel := context.WithTimeout(ctx, e.cfg.CorrelateBudget)
	defer cancel()

	markets := e.loadMarkets(sctx, c)

	version := marketsVersion(markets)
	e.forEach(sctx, articles,
		func(ctx context.Context, a *types.Article) error {
			matches, err := e.correlations.GetOrCompute(ctx, correlationKey(a, version, c.started), func(context.Context) ([]types.Match, error) {
				return e.deps.Correlator.Correlate(a, markets, c.started)
			})
			if err != nil {
				return err
			}
			correlate.ApplyMatches(a, matches)
			return nil
		},
		func(a *types.Article, err error) {
			correlate.ApplyMatches(a, e.deps.Correlator.CorrelateCategoryOnly(a, markets, c.started))
			c.record(ctx, types.StageCorrelation, a.ID, types.NewStageError(types.StageCorrelation, err), fallbackCategoryOnly)
		},
	)
	return markets
}

// predict produces impact records per article and market, keyed by article ID.
func (e *Engine) predict(ctx context.Context, c *cycle, articles []types.Article) map[string][]types.ImpactRecord {
	ctx, span := trace.StartStage(ctx, c.id, string(types.StagePrediction))
	defer span.End()

	sctx, cancel := context.WithTimeout(ctx, e.cfg.PredictBudget)
	defer cancel()

	perArticle := make([][]types.ImpactRecord, len(articles))
	e.forEachIndexed(sctx, articles,
		func(ctx context.Context, i int, a *types.Article) error {
			a.ImpactScore = e.deps.Predictor.ArticleScore(a, len(a.CorrelatedMarketIDs), c.started)
			if len(a.CorrelatedMarketIDs) == 0 {
				return nil
			}
			records, err := e.impacts.GetOrCompute(ctx, impactKey(a, c.started), func(context.Context) ([]types.ImpactRecord, error) {
				return e.deps.Predictor.Predict(a, a.CorrelatedMarketIDs, c.started)
			})
			if err != nil {
				return err
			}
			perArticle[i] = records
			return nil
		},
		func(i int, a *types.Article, err error) {
			records := make([]types.ImpactRecord, 0, len(a.CorrelatedMarketIDs))
			for _, id := range a.CorrelatedMarketIDs {
				records = append(records, e.deps.Predictor.Fallback(a.ID, id, c.started))
			}
			perArticle[i] = records
			c.record(ctx, types.StagePrediction, a.ID, types.NewStageError(types.StagePrediction, err), fallbackHeuristic)
		},
	)

	out := make(map[string][]types.ImpactRecord, len(articles))
	for i, records := range perArticle {
		if len(records) == 0 {
			continue
		}
		out[articles[i].ID] = records
		for _, r := range records {
			if r.Direction != types.DirectionNeutral {
				logger.Impact(ctx, r.ArticleID, r.MarketID, string(r.Direction), r.Confidence, string(r.Horizon), "cycle_id", c.id)
			}
		}
	}
	return out
}

func (e *Engine) forEach(ctx context.Context, articles []types.Article, task func(context.Context, *types.Article) error, fallback func(*types.Article, error)) {
	e.forEachIndexed(ctx, articles,
		func(ctx context.Context, _ int, a *types.Article) error { return task(ctx, a) },
		func(_ int, a *types.Article, err error) { fallback(a, err) },
	)
}

// forEachIndexed runs task for every article on at most cfg.Workers
// goroutines. A task that errors, panics or starts after the stage budget ran
// out is handed to fallback instead; one article never fails the batch.
func (e *Engine) forEachIndexed(ctx context.Context, articles []types.Article, task func(context.Context, int, *types.Article) error, fallback func(int, *types.Article, error)) {
	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)

	for i := range articles {
		a := &articles[i]
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "Fallback panicked", "article_id", a.ID, "panic", r)
				}
			}()
			if err := runTask(ctx, i, a, task); err != nil {
				fallback(i, a, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func runTask(ctx context.Context, i int, a *types.Article, task func(context.Context, int, *types.Article) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stage budget exceeded: %w", err)
	}
	return task(ctx, i, a)
}

// Cache keys include every input the cached value depends on, with article
// age reduced to its recency bucket.

func correlationKey(a *types.Article, marketsVersion string, now time.Time) string {
	polarity, _ := a.Sentiment()
	return cache.Key("correlation", a.ID, a.Category, marketsVersion,
		formatFloat(impact.TimeFactor(a.Age(now))),
		formatFloat(polarity))
}

func impactKey(a *types.Article, now time.Time) string {
	polarity, _ := a.Sentiment()
	return cache.Key("impact", a.ID, strings.Join(a.CorrelatedMarketIDs, ","),
		formatFloat(polarity),
		formatFloat(a.SentimentMagnitude),
		formatFloat(a.CredibilityScore),
		formatFloat(impact.TimeFactor(a.Age(now))))
}

func marketsVersion(markets []types.MarketSnapshot) string {
	parts := make([]string, 0, len(markets)*4)
	for _, m := range markets {
		parts = append(parts, m.ID, m.Question, m.Category, m.Status)
	}
	return cache.Key("markets", parts...)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func cloneAll(articles []types.Article, degraded bool) []types.Article {
	out := make([]types.Article, len(articles))
	for i := range articles {
		out[i] = articles[i].Clone()
		if degraded {
			out[i].Degraded = true
		}
	}
	return out
}
