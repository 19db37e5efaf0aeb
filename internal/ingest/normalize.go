package ingest

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"news-impact-engine/internal/textutil"
	"news-impact-engine/internal/types"
)

var (
	errMissingTitle   = errors.New("missing title")
	errMissingURL     = errors.New("missing or invalid url")
	errBadTimestamp   = errors.New("unparseable timestamp")
	errRemovedArticle = errors.New("removed by provider")
)

// categoryKeywords is checked in order; the first category with a hit wins.
var categoryKeywords = []struct {
	category string
	terms    []string
}{
	{types.CategoryCrypto, []string{"bitcoin", "crypto", "cryptocurrency", "ethereum", "blockchain", "defi", "btc", "eth"}},
	{types.CategoryPolitics, []string{"election", "president", "congress", "senate", "government", "policy", "polls", "vote"}},
	{types.CategoryEconomy, []string{"fed", "federal reserve", "inflation", "gdp", "recession", "interest rate", "interest rates", "economy", "oil", "unemployment"}},
	{types.CategoryStocks, []string{"stock", "stocks", "earnings", "revenue", "profit", "share price", "shares"}},
	{types.CategoryTechnology, []string{"apple", "tesla", "microsoft", "google", "ai", "tech", "layoffs", "iphone"}},
	{types.CategoryClimate, []string{"climate", "carbon", "emissions", "temperature", "renewable"}},
}

// Categorize picks a category from the title (falling back to the body) and
// returns every matched keyword as a tag.
func Categorize(title, body string) (string, []string) {
	titleDoc := textutil.NewDoc(title)
	fullDoc := textutil.NewDoc(title + " " + body)

	category := ""
	for _, ck := range categoryKeywords {
		if titleDoc.HasAny(ck.terms) {
			category = ck.category
			break
		}
	}
	if category == "" {
		for _, ck := range categoryKeywords {
			if fullDoc.HasAny(ck.terms) {
				category = ck.category
				break
			}
		}
	}
	if category == "" {
		category = types.CategoryGeneral
	}

	var tags []string
	for _, ck := range categoryKeywords {
		tags = append(tags, fullDoc.Matching(ck.terms)...)
	}
	return category, tags
}

var truncatedSuffix = regexp.MustCompile(`\s*\[\+\d+ chars\]\s*$`)

// cleanHTML strips markup and collapses whitespace.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
		if err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// isTruncated reports whether provider content was cut short.
func isTruncated(content string) bool {
	return truncatedSuffix.MatchString(content)
}

// SourceDomain returns the host of rawURL without a leading "www.".
func SourceDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errBadTimestamp
}

// Normalize validates a raw record and converts it into an Article.
func Normalize(raw RawArticle) (types.Article, error) {
	title := cleanHTML(raw.Title)
	if title == "" {
		return types.Article{}, errMissingTitle
	}
	if title == "[Removed]" {
		return types.Article{}, errRemovedArticle
	}

	u, err := url.Parse(strings.TrimSpace(raw.URL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return types.Article{}, errMissingURL
	}
	link := u.String()

	published, err := parseTimestamp(raw.PublishedAt)
	if err != nil {
		return types.Article{}, err
	}

	summary := cleanHTML(raw.Description)
	body := cleanHTML(truncatedSuffix.ReplaceAllString(raw.Content, ""))
	if body == "" {
		body = summary
	}

	source := strings.TrimSpace(raw.SourceName)
	domain := SourceDomain(link)
	if source == "" {
		source = domain
	}

	category, tags := Categorize(title, body)

	a := types.Article{
		ID:           types.ArticleID(title, link),
		Title:        title,
		Body:         body,
		Summary:      summary,
		Source:       source,
		SourceDomain: domain,
		Author:       strings.TrimSpace(raw.Author),
		PublishedAt:  published,
		URL:          link,
		Category:     category,
	}
	a.SetTags(tags)
	return a, nil
}
