package correlate

import "time"

// Correlation weights. The total is capped at maxScore.
const (
	keywordWeight   = 0.4
	categoryWeight  = 0.3
	veryFreshBonus  = 0.2
	freshBonus      = 0.1
	sentimentBonus  = 0.1
	maxScore        = 1.0
	veryFreshAge    = time.Hour
	freshAge        = 6 * time.Hour
	strongSentiment = 0.3
)

// KeywordGroup links a keyword found in article text to the question
// substrings that identify markets about the same subject.
type KeywordGroup struct {
	Keyword  string
	Patterns []string
}

var defaultGroups = []KeywordGroup{
	{"fed", []string{"fed", "federal reserve", "interest rate", "interest rates", "rate cut", "cut rates", "rate hike", "raise rates"}},
	{"federal reserve", []string{"fed", "federal reserve", "interest rate", "interest rates", "cut rates", "raise rates"}},
	{"bitcoin", []string{"bitcoin", "btc"}},
	{"ethereum", []string{"ethereum", "eth"}},
	{"crypto", []string{"crypto", "cryptocurrency", "bitcoin", "ethereum"}},
	{"tesla", []string{"tesla", "tsla", "electric vehicle"}},
	{"apple", []string{"apple", "aapl", "iphone"}},
	{"election", []string{"election", "president", "presidential", "win the"}},
	{"recession", []string{"recession", "gdp", "economy"}},
	{"inflation", []string{"inflation", "cpi"}},
	{"oil", []string{"oil", "crude", "opec"}},
	{"ai", []string{"ai", "artificial intelligence", "openai"}},
	{"layoffs", []string{"layoffs", "unemployment", "jobs"}},
}

// categoryGroups maps an article category to the market categories it can move.
var categoryGroups = map[string][]string{
	"politics":   {"politics", "elections", "government"},
	"economy":    {"economy", "economics", "finance", "markets"},
	"technology": {"technology", "tech", "science"},
	"crypto":     {"crypto", "cryptocurrency", "blockchain"},
	"stocks":     {"stocks", "finance", "markets", "economy"},
	"climate":    {"climate", "environment", "science"},
}
