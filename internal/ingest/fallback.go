package ingest

import (
	"time"

	"news-impact-engine/internal/types"
)

type sample struct {
	title  string
	body   string
	source string
	url    string
	author string
	age    time.Duration
}

var samples = []sample{
	{
		title:  "Federal Reserve Signals Potential Interest Rate Cut",
		body:   "The Federal Reserve indicated it may cut interest rates at its next meeting as inflation shows signs of cooling. Markets rallied on the news.",
		source: "Reuters",
		url:    "https://www.reuters.com/markets/us/fed-signals-rate-cut",
		author: "Economic Reporter",
		age:    2 * time.Hour,
	},
	{
		title:  "Bitcoin Surges to New Monthly High",
		body:   "Bitcoin prices surged past resistance levels as institutional adoption continues to grow. Analysts see strong momentum for crypto markets.",
		source: "CoinDesk",
		url:    "https://www.coindesk.com/markets/bitcoin-surges-monthly-high",
		author: "Crypto Analyst",
		age:    time.Hour,
	},
	{
		title:  "Tesla Reports Strong Quarterly Earnings",
		body:   "Tesla exceeded analyst expectations with record deliveries and improved margins in its latest quarterly earnings report.",
		source: "Bloomberg",
		url:    "https://www.bloomberg.com/news/tesla-quarterly-earnings",
		author: "Tech Reporter",
		age:    3 * time.Hour,
	},
	{
		title:  "Apple Unveils New AI Features",
		body:   "Apple announced a breakthrough set of AI features for the iPhone, boosting investor confidence ahead of the holiday season.",
		source: "CNBC",
		url:    "https://www.cnbc.com/apple-unveils-ai-features",
		author: "Tech Correspondent",
		age:    4 * time.Hour,
	},
	{
		title:  "Oil Prices Drop Amid Global Economic Concerns",
		body:   "Crude oil prices fell sharply as concerns over slowing global growth and weak demand weighed on energy markets.",
		source: "MarketWatch",
		url:    "https://www.marketwatch.com/story/oil-prices-drop",
		author: "Energy Reporter",
		age:    5 * time.Hour,
	},
	{
		title:  "Presidential Election Polls Tighten in Key States",
		body:   "New polling data shows the presidential election race tightening in battleground states, raising uncertainty over future policy.",
		source: "Associated Press",
		url:    "https://apnews.com/article/election-polls-tighten",
		author: "Political Desk",
		age:    6 * time.Hour,
	},
	{
		title:  "Ethereum Upgrade Completes Successfully",
		body:   "The Ethereum network completed a major upgrade, with developers reporting strong performance and lower transaction fees.",
		source: "Decrypt",
		url:    "https://decrypt.co/ethereum-upgrade-completes",
		author: "Blockchain Reporter",
		age:    8 * time.Hour,
	},
	{
		title:  "Tech Giants Announce Layoffs as Growth Slows",
		body:   "Several large technology companies announced layoffs, citing weak demand and concern over a slowing economy.",
		source: "The Wall Street Journal",
		url:    "https://www.wsj.com/tech/layoffs-growth-slows",
		author: "Business Desk",
		age:    10 * time.Hour,
	},
}

// SyntheticArticles returns the deterministic last-resort article set,
// stamped relative to now.
func SyntheticArticles(now time.Time) []types.Article {
	out := make([]types.Article, 0, len(samples))
	for _, s := range samples {
		category, tags := Categorize(s.title, s.body)
		a := types.Article{
			ID:           types.ArticleID(s.title, s.url),
			Title:        s.title,
			Body:         s.body,
			Summary:      s.body,
			Source:       s.source,
			SourceDomain: SourceDomain(s.url),
			Author:       s.author,
			PublishedAt:  now.Add(-s.age).UTC(),
			URL:          s.url,
			Category:     category,
			Degraded:     true,
		}
		a.SetTags(tags)
		out = append(out, a)
	}
	types.SortByPublished(out)
	return out
}
