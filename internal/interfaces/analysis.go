package interfaces

import (
	"time"

	"news-impact-engine/internal/sentiment"
	"news-impact-engine/internal/types"
)

type SentimentScorer interface {
	Score(text string) (sentiment.Result, error)
	// KeywordOnly is the degraded path used when Score fails
	KeywordOnly(text string) sentiment.Result
}

type CredibilityScorer interface {
	Score(sourceDomain, sourceName string) float64
}

type MarketCorrelator interface {
	Correlate(a *types.Article, markets []types.MarketSnapshot, now time.Time) ([]types.Match, error)
	CorrelateCategoryOnly(a *types.Article, markets []types.MarketSnapshot, now time.Time) []types.Match
}

type ImpactPredictor interface {
	Predict(a *types.Article, marketIDs []string, now time.Time) ([]types.ImpactRecord, error)
	ArticleScore(a *types.Article, correlated int, now time.Time) float64
	Fallback(articleID, marketID string, now time.Time) types.ImpactRecord
}
