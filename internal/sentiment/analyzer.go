// Package sentiment scores article text with a weighted lexicon followed by
// a market keyword adjustment. Scoring is pure: identical text always yields
// an identical Result.
package sentiment

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"news-impact-engine/internal/textutil"
)

// ErrAnalysis is returned for text the base estimator cannot score.
var ErrAnalysis = errors.New("sentiment analysis failed")

// Result is the scored sentiment of one text.
type Result struct {
	Polarity          float64 `json:"polarity"`
	Subjectivity      float64 `json:"subjectivity"`
	Magnitude         float64 `json:"magnitude"`
	PositiveCount     int     `json:"positive_count"`
	NegativeCount     int     `json:"negative_count"`
	MarketMovingCount int     `json:"market_moving_count"`
}

// Label buckets polarity into positive, negative or neutral.
func (r Result) Label() string {
	return Label(r.Polarity)
}

// Label buckets a polarity value.
func Label(polarity float64) string {
	switch {
	case polarity > 0.1:
		return "positive"
	case polarity < -0.1:
		return "negative"
	default:
		return "neutral"
	}
}

// Analyzer is stateless and safe for concurrent use.
type Analyzer struct{}

// NewAnalyzer creates an analyzer over the built-in lexicons
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Score runs the base estimator and then the keyword pass.
func (a *Analyzer) Score(text string) (Result, error) {
	if !utf8.ValidString(text) {
		return Result{}, errors.Join(ErrAnalysis, errors.New("invalid utf-8"))
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, errors.Join(ErrAnalysis, errors.New("empty text"))
	}

	tokens := textutil.Tokenize(text)
	if len(tokens) == 0 {
		return Result{}, errors.Join(ErrAnalysis, errors.New("no scorable tokens"))
	}

	polarity, subjectivity := baseEstimate(tokens)
	r := keywordPass(tokens, polarity)
	r.Subjectivity = subjectivity
	return r, nil
}

// KeywordOnly skips the base estimator. It never fails.
func (a *Analyzer) KeywordOnly(text string) Result {
	return keywordPass(textutil.Tokenize(strings.ToValidUTF8(text, " ")), 0)
}

// baseEstimate averages the signed weights of polar tokens.
func baseEstimate(tokens []string) (polarity, subjectivity float64) {
	var sum float64
	polar, opinion := 0, 0
	hedged := false
	boost := 1.0

	for _, tok := range tokens {
		if intensifiers[tok] {
			boost = intensifierBoost
			opinion++
			continue
		}
		if hedges[tok] {
			hedged = true
			opinion++
		}
		if w, ok := weightOf(tok, bullishWeights); ok {
			sum += w * boost
			polar++
		} else if w, ok := weightOf(tok, bearishWeights); ok {
			sum -= w * boost
			polar++
		}
		boost = 1.0
	}

	if polar > 0 {
		polarity = clamp(sum/float64(polar), -1, 1)
		if hedged {
			polarity *= hedgeDamping
		}
	}

	share := float64(polar+opinion) / float64(len(tokens))
	subjectivity = clamp(share/subjectivitySaturation, 0, 1)
	return polarity, subjectivity
}

func keywordPass(tokens []string, polarity float64) Result {
	pos := countTerms(tokens, positiveTerms)
	neg := countTerms(tokens, negativeTerms)
	movers := countTerms(tokens, marketMovingTerms)

	polarity = clamp(polarity+keywordPolarityStep*float64(pos-neg), -1, 1)
	return Result{
		Polarity:          round(polarity),
		Magnitude:         round(math.Min(1.0, magnitudeBase+magnitudePerMover*float64(movers))),
		PositiveCount:     pos,
		NegativeCount:     neg,
		MarketMovingCount: movers,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round trims float noise so equal inputs compare equal downstream.
func round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
