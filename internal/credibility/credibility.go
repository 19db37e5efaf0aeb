// Package credibility assigns a fixed trust weight to news sources.
package credibility

import (
	"math"
	"strings"
)

const (
	// DefaultWeight applies to unknown domains.
	DefaultWeight = 0.5
	// TopTierBonus applies when the source name is on the allow-list.
	TopTierBonus = 0.1
)

var domainWeights = map[string]float64{
	"reuters.com":       1.0,
	"bloomberg.com":     0.95,
	"apnews.com":        0.95,
	"ft.com":            0.9,
	"wsj.com":           0.9,
	"bbc.com":           0.9,
	"bbc.co.uk":         0.9,
	"cnbc.com":          0.9,
	"economist.com":     0.9,
	"nytimes.com":       0.85,
	"theguardian.com":   0.85,
	"marketwatch.com":   0.85,
	"finance.yahoo.com": 0.8,
	"coindesk.com":      0.8,
	"cnn.com":           0.8,
	"thestreet.com":     0.75,
	"techcrunch.com":    0.75,
	"decrypt.co":        0.75,
	"cointelegraph.com": 0.7,
}

var topTier = []string{
	"reuters",
	"bloomberg",
	"associated press",
	"financial times",
	"wall street journal",
	"bbc",
}

// Scorer looks up source weights. The zero value is not usable; call NewScorer.
type Scorer struct {
	weights map[string]float64
}

// NewScorer creates a scorer over the built-in table plus any overrides.
func NewScorer(overrides map[string]float64) *Scorer {
	w := make(map[string]float64, len(domainWeights)+len(overrides))
	for d, v := range domainWeights {
		w[d] = v
	}
	for d, v := range overrides {
		w[normalizeDomain(d)] = math.Max(0, math.Min(1, v))
	}
	return &Scorer{weights: w}
}

// Score returns the weight for a domain, with the top-tier name bonus.
func (s *Scorer) Score(sourceDomain, sourceName string) float64 {
	score := s.DomainWeight(sourceDomain)
	if IsTopTier(sourceName) {
		score = math.Min(1.0, score+TopTierBonus)
	}
	return score
}

// DomainWeight looks up a domain, falling back to its parent domains.
func (s *Scorer) DomainWeight(domain string) float64 {
	d := normalizeDomain(domain)
	for d != "" {
		if w, ok := s.weights[d]; ok {
			return w
		}
		i := strings.IndexByte(d, '.')
		if i < 0 {
			break
		}
		d = d[i+1:]
		if !strings.Contains(d, ".") {
			break
		}
	}
	return DefaultWeight
}

// IsTopTier reports whether name contains an allow-listed outlet.
func IsTopTier(name string) bool {
	n := strings.ToLower(name)
	for _, t := range topTier {
		if strings.Contains(n, t) {
			return true
		}
	}
	return false
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}
