package pipeline

import (
	"time"

	"news-impact-engine/internal/store"
)

// Config bounds one cycle and sizes the cache tiers.
type Config struct {
	Query    string
	Lookback time.Duration
	Workers  int

	CycleBudget     time.Duration
	FetchBudget     time.Duration
	AnalyzeBudget   time.Duration
	CorrelateBudget time.Duration
	PredictBudget   time.Duration

	ArticlesTTL    time.Duration
	SentimentTTL   time.Duration
	CorrelationTTL time.Duration
	ImpactTTL      time.Duration
}

func DefaultConfig() Config {
	return Config{
		Query:           "politics OR economy OR technology OR crypto",
		Lookback:        24 * time.Hour,
		Workers:         8,
		CycleBudget:     2 * time.Minute,
		FetchBudget:     90 * time.Second,
		AnalyzeBudget:   10 * time.Second,
		CorrelateBudget: 10 * time.Second,
		PredictBudget:   10 * time.Second,
		ArticlesTTL:     15 * time.Minute,
		SentimentTTL:    30 * time.Minute,
		CorrelationTTL:  60 * time.Minute,
		ImpactTTL:       10 * time.Minute,
	}
}

// ConfigFrom maps the loaded application config onto the pipeline.
func ConfigFrom(cfg *store.Config) Config {
	return Config{
		Query:           cfg.News.Query,
		Lookback:        cfg.News.Lookback.D(),
		Workers:         cfg.Pipeline.Workers,
		CycleBudget:     cfg.Pipeline.CycleBudget.D(),
		FetchBudget:     cfg.Pipeline.FetchBudget.D(),
		AnalyzeBudget:   cfg.Pipeline.AnalyzeBudget.D(),
		CorrelateBudget: cfg.Pipeline.CorrelateBudget.D(),
		PredictBudget:   cfg.Pipeline.PredictBudget.D(),
		ArticlesTTL:     cfg.Cache.ArticlesTTL.D(),
		SentimentTTL:    cfg.Cache.SentimentTTL.D(),
		CorrelationTTL:  cfg.Cache.CorrelationTTL.D(),
		ImpactTTL:       cfg.Cache.ImpactTTL.D(),
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Query == "" {
		c.Query = d.Query
	}
	if c.Lookback <= 0 {
		c.Lookback = d.Lookback
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.CycleBudget <= 0 {
		c.CycleBudget = d.CycleBudget
	}
	if c.FetchBudget <= 0 {
		c.FetchBudget = d.FetchBudget
	}
	if c.AnalyzeBudget <= 0 {
		c.AnalyzeBudget = d.AnalyzeBudget
	}
	if c.CorrelateBudget <= 0 {
		c.CorrelateBudget = d.CorrelateBudget
	}
	if c.PredictBudget <= 0 {
		c.PredictBudget = d.PredictBudget
	}
	if c.ArticlesTTL <= 0 {
		c.ArticlesTTL = d.ArticlesTTL
	}
	if c.SentimentTTL <= 0 {
		c.SentimentTTL = d.SentimentTTL
	}
	if c.CorrelationTTL <= 0 {
		c.CorrelationTTL = d.CorrelationTTL
	}
	if c.ImpactTTL <= 0 {
		c.ImpactTTL = d.ImpactTTL
	}
}
