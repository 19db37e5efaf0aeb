// Package impact turns a scored article into per-market impact predictions
// with a fixed, auditable formula.
package impact

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"news-impact-engine/internal/types"
)

// ErrPrediction is returned when inputs are outside their valid ranges.
var ErrPrediction = errors.New("impact prediction failed")

// Predictor is stateless and safe for concurrent use.
type Predictor struct{}

// NewPredictor creates a predictor
func NewPredictor() *Predictor {
	return &Predictor{}
}

// Scores holds the intermediate values of one prediction.
type Scores struct {
	SentimentImpact float64
	TimeFactor      float64
	RelevanceBoost  float64
	ImpactScore     float64
	Confidence      float64
}

// Predict returns one record per market, in the given market order.
func (p *Predictor) Predict(a *types.Article, marketIDs []string, now time.Time) ([]types.ImpactRecord, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil article", ErrPrediction)
	}
	polarity, _ := a.Sentiment()
	if err := validate(polarity, a.SentimentMagnitude, a.CredibilityScore); err != nil {
		return nil, err
	}

	sc := Compute(polarity, a.SentimentMagnitude, a.CredibilityScore, a.Age(now), len(marketIDs))
	direction := Direction(polarity, sc.Confidence)
	horizon := HorizonFor(sc.ImpactScore)
	reasoning := reasoningFor(polarity, a.CredibilityScore, len(marketIDs), sc.ImpactScore)

	records := make([]types.ImpactRecord, 0, len(marketIDs))
	for _, id := range marketIDs {
		records = append(records, types.ImpactRecord{
			ArticleID:  a.ID,
			MarketID:   id,
			Direction:  direction,
			Confidence: sc.Confidence,
			Magnitude:  sc.ImpactScore,
			Horizon:    horizon,
			Reasoning:  reasoning,
			CreatedAt:  now,
		})
	}
	return records, nil
}

// ArticleScore is the article-level impact score used for breaking and
// high-impact classification.
func (p *Predictor) ArticleScore(a *types.Article, correlated int, now time.Time) float64 {
	polarity, _ := a.Sentiment()
	return Compute(polarity, a.SentimentMagnitude, a.CredibilityScore, a.Age(now), correlated).ImpactScore
}

// Fallback is the fixed heuristic record used when prediction fails.
func (p *Predictor) Fallback(articleID, marketID string, now time.Time) types.ImpactRecord {
	return types.ImpactRecord{
		ArticleID:  articleID,
		MarketID:   marketID,
		Direction:  types.DirectionNeutral,
		Confidence: fallbackConfidence,
		Magnitude:  fallbackMagnitude,
		Horizon:    types.Horizon7d,
		Reasoning:  "fallback heuristic",
		Fallback:   true,
		CreatedAt:  now,
	}
}

// Compute applies the scoring formula.
func Compute(polarity, magnitude, credibility float64, age time.Duration, correlated int) Scores {
	var sc Scores
	sc.SentimentImpact = math.Abs(polarity) * magnitude
	sc.TimeFactor = TimeFactor(age)
	sc.RelevanceBoost = math.Min(relevanceBoostCap, relevancePerMarket*float64(correlated))
	sc.ImpactScore = round(clamp01(
		sentimentWeight*sc.SentimentImpact +
			credibilityWeight*credibility +
			timeWeight*sc.TimeFactor +
			sc.RelevanceBoost))
	sc.Confidence = round(clamp01(
		sc.ImpactScore +
			confidenceCredibilityWeight*credibility +
			confidenceMagnitudeWeight*magnitude))
	return sc
}

// TimeFactor weights recency.
func TimeFactor(age time.Duration) float64 {
	for _, tf := range timeFactors {
		if age < tf.below {
			return tf.factor
		}
	}
	return staleTimeFactor
}

// Direction is up or down only for clear sentiment with enough confidence.
func Direction(polarity, confidence float64) types.Direction {
	switch {
	case polarity > directionMinSentiment && confidence > directionMinConfidence:
		return types.DirectionUp
	case polarity < -directionMinSentiment && confidence > directionMinConfidence:
		return types.DirectionDown
	default:
		return types.DirectionNeutral
	}
}

// HorizonFor maps an impact score to when the move is expected.
func HorizonFor(impactScore float64) types.Horizon {
	switch {
	case impactScore > horizon1hAbove:
		return types.Horizon1h
	case impactScore > horizon6hAbove:
		return types.Horizon6h
	case impactScore > horizon24hAbove:
		return types.Horizon24h
	default:
		return types.Horizon7d
	}
}

func reasoningFor(polarity, credibility float64, correlated int, impactScore float64) string {
	var reasons []string
	switch {
	case polarity > directionMinSentiment:
		reasons = append(reasons, "positive sentiment detected")
	case polarity < -directionMinSentiment:
		reasons = append(reasons, "negative sentiment detected")
	}
	switch {
	case credibility > highCredibility:
		reasons = append(reasons, "high credibility source")
	case credibility < lowCredibility:
		reasons = append(reasons, "lower credibility source")
	}
	if correlated > manyMarkets {
		reasons = append(reasons, "multiple market correlations")
	}
	switch {
	case impactScore > highImpact:
		reasons = append(reasons, "high impact potential")
	case impactScore < lowImpact:
		reasons = append(reasons, "low impact potential")
	}
	if len(reasons) == 0 {
		return "baseline analysis"
	}
	return strings.Join(reasons, "; ")
}

func validate(polarity, magnitude, credibility float64) error {
	for name, v := range map[string]float64{"sentiment": polarity, "magnitude": magnitude, "credibility": credibility} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrPrediction, name)
		}
	}
	if polarity < -1 || polarity > 1 {
		return fmt.Errorf("%w: sentiment %v out of range", ErrPrediction, polarity)
	}
	if magnitude < 0 || magnitude > 1 || credibility < 0 || credibility > 1 {
		return fmt.Errorf("%w: magnitude %v or credibility %v out of range", ErrPrediction, magnitude, credibility)
	}
	return nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
