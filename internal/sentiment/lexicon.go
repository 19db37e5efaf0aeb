package sentiment

import "strings"

// Keyword-pass adjustment weights.
const (
	keywordPolarityStep = 0.1
	magnitudeBase       = 0.3
	magnitudePerMover   = 0.2

	// Intensifiers scale the next polar term.
	intensifierBoost = 1.3
	// Hedging language damps the base polarity.
	hedgeDamping = 0.8
	// Subjectivity saturates when this share of tokens is opinionated.
	subjectivitySaturation = 0.25
)

// Base estimator weights.
var bullishWeights = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "rallied": 0.6, "rallies": 0.6,
	"surge": 0.7, "surges": 0.7, "surged": 0.7, "soar": 0.7, "soars": 0.7,
	"jump": 0.5, "jumps": 0.5, "gain": 0.4, "gains": 0.4, "rise": 0.3,
	"rises": 0.3, "upbeat": 0.5, "positive": 0.4, "growth": 0.4,
	"upgrade": 0.6, "outperform": 0.6, "strong": 0.4, "recovery": 0.5,
	"breakthrough": 0.6, "record": 0.4, "beat": 0.5, "beats": 0.5,
	"exceed": 0.5, "exceeded": 0.5, "optimism": 0.5, "boost": 0.4,
	"boosting": 0.4, "approval": 0.4, "success": 0.5, "successfully": 0.4,
	"improved": 0.4, "win": 0.4, "wins": 0.4,
}

var bearishWeights = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "plunges": 0.7,
	"slump": 0.6, "negative": 0.4, "downgrade": 0.6, "weak": 0.4,
	"decline": 0.5, "declines": 0.5, "loss": 0.4, "losses": 0.4,
	"selloff": 0.7, "fall": 0.4, "falls": 0.4, "fell": 0.4, "drop": 0.4,
	"drops": 0.4, "correction": 0.5, "default": 0.7, "fraud": 0.8,
	"scandal": 0.7, "investigation": 0.5, "cut": 0.3, "cuts": 0.3,
	"miss": 0.5, "misses": 0.5, "warning": 0.5, "concern": 0.3,
	"concerns": 0.3, "layoffs": 0.5, "recession": 0.6, "uncertainty": 0.3,
	"fears": 0.4, "slowing": 0.3,
}

var intensifiers = map[string]bool{
	"very": true, "extremely": true, "highly": true, "significantly": true,
	"dramatically": true, "sharply": true, "strongly": true,
}

var hedges = map[string]bool{
	"signals": true, "may": true, "might": true, "could": true,
	"potential": true, "potentially": true, "considering": true,
	"weighs": true, "weighing": true, "expected": true, "likely": true,
}

// Keyword-pass lexicons. Matching accepts inflected forms.
var (
	positiveTerms = []string{
		"surge", "rally", "gain", "rise", "boost", "record", "strong",
		"beat", "exceed", "growth",
	}
	negativeTerms = []string{
		"fall", "drop", "decline", "crash", "loss", "weak", "miss",
		"disappoint", "concern", "risk", "cut",
	}
	marketMovingTerms = []string{
		"fed", "rate", "cut", "raise", "policy", "announcement",
		"breakthrough", "scandal", "merger", "acquisition",
	}
)

// Suffixes stripped when looking a token up. Order matters: longer
// suffixes first so "losses" is tried as "loss" before "losse".
var suffixes = []string{"ers", "ing", "ies", "ied", "es", "ed", "er", "s", "d"}

// stems returns token followed by its candidate base forms. Suffixes that
// start a new syllable (ed, ing, er, ers) also try restoring a dropped
// final e and undoubling a final consonant, so "rising" yields "rise" and
// "dropped" yields "drop".
func stems(token string) []string {
	out := []string{token}
	for _, suf := range suffixes {
		base, ok := strings.CutSuffix(token, suf)
		if !ok || len(base) < 2 {
			continue
		}
		switch suf {
		case "ies", "ied":
			out = append(out, base+"y")
		case "ed", "ing", "er", "ers":
			out = append(out, base, base+"e")
			if n := len(base); n >= 3 && base[n-1] == base[n-2] && !isVowel(base[n-1]) {
				out = append(out, base[:n-1])
			}
		default:
			out = append(out, base)
		}
	}
	return out
}

func isVowel(c byte) bool {
	return strings.IndexByte("aeiouy", c) >= 0
}

// matchesTerm reports whether token is term or an inflection of it.
func matchesTerm(token, term string) bool {
	for _, s := range stems(token) {
		if s == term {
			return true
		}
	}
	return false
}

// weightOf looks token up in weights, falling back to its base forms.
func weightOf(token string, weights map[string]float64) (float64, bool) {
	if w, ok := weights[token]; ok {
		return w, true
	}
	for _, s := range stems(token)[1:] {
		if w, ok := weights[s]; ok {
			return w, true
		}
	}
	return 0, false
}

func countTerms(tokens []string, terms []string) int {
	n := 0
	for _, tok := range tokens {
		for _, term := range terms {
			if matchesTerm(tok, term) {
				n++
				break
			}
		}
	}
	return n
}
