package impact

import "time"

// Impact score weights.
const (
	sentimentWeight   = 0.4
	credibilityWeight = 0.3
	timeWeight        = 0.2

	relevancePerMarket = 0.05
	relevanceBoostCap  = 0.2
)

// Confidence weights.
const (
	confidenceCredibilityWeight = 0.2
	confidenceMagnitudeWeight   = 0.1
)

// Direction thresholds.
const (
	directionMinSentiment  = 0.1
	directionMinConfidence = 0.5
)

// Horizon thresholds on the impact score.
const (
	horizon1hAbove  = 0.7
	horizon6hAbove  = 0.5
	horizon24hAbove = 0.3
)

// Reasoning thresholds.
const (
	highCredibility = 0.8
	lowCredibility  = 0.6
	manyMarkets     = 2
	highImpact      = 0.7
	lowImpact       = 0.3
)

// Fallback record values.
const (
	fallbackConfidence = 0.2
	fallbackMagnitude  = 0.1
)

// timeFactors maps article age to recency weight, first match wins.
var timeFactors = []struct {
	below  time.Duration
	factor float64
}{
	{time.Hour, 1.0},
	{6 * time.Hour, 0.8},
	{24 * time.Hour, 0.6},
	{72 * time.Hour, 0.4},
}

const staleTimeFactor = 0.2
