package types

import "time"

// Data provenance of a published article list.
const (
	SourceLive      = "live"
	SourceCache     = "cache"
	SourceStale     = "stale-cache"
	SourceSnapshot  = "snapshot"
	SourceSynthetic = "synthetic"
)

// Recovery records one stage failure that a fallback absorbed.
type Recovery struct {
	Stage     Stage     `json:"stage"`
	ArticleID string    `json:"article_id,omitempty"`
	Cause     string    `json:"cause"`
	Fallback  string    `json:"fallback"`
	At        time.Time `json:"at"`
}

// Snapshot is the published output of one pipeline cycle.
type Snapshot struct {
	CycleID     string                    `json:"cycle_id"`
	StartedAt   time.Time                 `json:"started_at"`
	PublishedAt time.Time                 `json:"published_at"`
	Source      string                    `json:"source"`
	Degraded    bool                      `json:"degraded"`
	Articles    []Article                 `json:"articles"`
	Impacts     map[string][]ImpactRecord `json:"impacts"`
	Markets     []MarketSnapshot          `json:"markets"`
	Recoveries  []Recovery                `json:"recoveries,omitempty"`
}

// Article returns the article with the given ID.
func (s *Snapshot) Article(id string) (*Article, bool) {
	for i := range s.Articles {
		if s.Articles[i].ID == id {
			return &s.Articles[i], true
		}
	}
	return nil, false
}

// ImpactsForMarket returns every record referencing marketID.
func (s *Snapshot) ImpactsForMarket(marketID string) []ImpactRecord {
	var out []ImpactRecord
	for _, a := range s.Articles {
		for _, r := range s.Impacts[a.ID] {
			if r.MarketID == marketID {
				out = append(out, r)
			}
		}
	}
	return out
}
