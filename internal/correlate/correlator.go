// Package correlate scores how strongly an article relates to each market.
//
// Scoring is O(articles x markets x keyword groups). That is fine for tens of
// articles and markets; larger corpora would need an inverted keyword index.
package correlate

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"news-impact-engine/internal/textutil"
	"news-impact-engine/internal/types"
)

// Correlator is immutable after construction and safe for concurrent use.
type Correlator struct {
	groups     []KeywordGroup
	categories map[string][]string
}

// New creates a correlator with the built-in keyword and category tables.
func New() *Correlator {
	return &Correlator{groups: defaultGroups, categories: categoryGroups}
}

// WithGroups adds keyword groups on top of the built-in table.
func (c *Correlator) WithGroups(groups ...KeywordGroup) *Correlator {
	merged := make([]KeywordGroup, 0, len(c.groups)+len(groups))
	merged = append(merged, c.groups...)
	merged = append(merged, groups...)
	return &Correlator{groups: merged, categories: c.categories}
}

// Correlate returns matching active markets sorted by score, highest first.
func (c *Correlator) Correlate(a *types.Article, markets []types.MarketSnapshot, now time.Time) ([]types.Match, error) {
	if a == nil {
		return nil, errors.New("correlate: nil article")
	}
	return c.correlate(a, markets, now, true), nil
}

// CorrelateCategoryOnly skips keyword-group matching.
func (c *Correlator) CorrelateCategoryOnly(a *types.Article, markets []types.MarketSnapshot, now time.Time) []types.Match {
	if a == nil {
		return nil
	}
	return c.correlate(a, markets, now, false)
}

func (c *Correlator) correlate(a *types.Article, markets []types.MarketSnapshot, now time.Time, useKeywords bool) []types.Match {
	var articleKeywords []string
	if useKeywords {
		articleKeywords = c.articleKeywords(a)
	}

	var out []types.Match
	for _, m := range markets {
		if !m.Active() || m.ID == "" {
			continue
		}
		if s := c.score(a, m, articleKeywords, now, useKeywords); s > 0 {
			out = append(out, types.Match{MarketID: m.ID, Score: s})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].MarketID < out[j].MarketID
	})
	return out
}

// articleKeywords returns the groups whose keyword appears in the article.
func (c *Correlator) articleKeywords(a *types.Article) []string {
	doc := textutil.NewDoc(a.Text() + " " + a.Summary)
	var hits []string
	for _, g := range c.groups {
		if doc.Has(g.Keyword) {
			hits = append(hits, g.Keyword)
		}
	}
	return hits
}

// score adds the topical terms and, only when one of them matched, the
// freshness and sentiment bonuses.
func (c *Correlator) score(a *types.Article, m types.MarketSnapshot, keywords []string, now time.Time, useKeywords bool) float64 {
	var s float64

	if useKeywords && c.keywordMatch(keywords, m.Question) {
		s += keywordWeight
	}
	if c.categoryMatch(a.Category, m.Category) {
		s += categoryWeight
	}
	if s == 0 {
		return 0
	}

	age := a.Age(now)
	switch {
	case age < veryFreshAge:
		s += veryFreshBonus
	case age < freshAge:
		s += freshBonus
	}

	if polarity, ok := a.Sentiment(); ok && math.Abs(polarity) > strongSentiment {
		s += sentimentBonus
	}

	return math.Round(math.Min(maxScore, s)*1e6) / 1e6
}

func (c *Correlator) keywordMatch(keywords []string, question string) bool {
	if len(keywords) == 0 {
		return false
	}
	q := textutil.NewDoc(question)
	for _, kw := range keywords {
		for _, g := range c.groups {
			if g.Keyword == kw && q.HasAny(g.Patterns) {
				return true
			}
		}
	}
	return false
}

func (c *Correlator) categoryMatch(articleCategory, marketCategory string) bool {
	mc := strings.ToLower(strings.TrimSpace(marketCategory))
	if mc == "" {
		return false
	}
	for _, allowed := range c.categories[strings.ToLower(articleCategory)] {
		if allowed == mc {
			return true
		}
	}
	return false
}

// ApplyMatches records matches on the article: the ordered market IDs and
// the best score as relevance.
func ApplyMatches(a *types.Article, matches []types.Match) {
	a.CorrelatedMarketIDs = make([]string, 0, len(matches))
	a.RelevanceScore = 0
	for _, m := range matches {
		a.CorrelatedMarketIDs = append(a.CorrelatedMarketIDs, m.MarketID)
		if m.Score > a.RelevanceScore {
			a.RelevanceScore = m.Score
		}
	}
}
