package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"news-impact-engine/internal/api"
)

// NewsAPIProvider searches a NewsAPI-compatible /v2/everything endpoint.
type NewsAPIProvider struct {
	client   *api.Client
	apiKey   string
	language string
	domains  []string
}

// NewNewsAPIProvider creates a provider against baseURL.
func NewNewsAPIProvider(baseURL, apiKey, language string, domains []string, timeout time.Duration) *NewsAPIProvider {
	return &NewsAPIProvider{
		client: api.NewClient(
			api.WithBaseURL(strings.TrimRight(baseURL, "/")),
			api.WithTimeout(timeout),
			api.WithHeader("Accept", "application/json"),
			api.WithLogging(true),
		),
		apiKey:   apiKey,
		language: language,
		domains:  domains,
	}
}

func (p *NewsAPIProvider) Name() string { return "newsapi" }

type newsAPIResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

// Search runs one request. Retrying is left to the caller.
func (p *NewsAPIProvider) Search(ctx context.Context, q Query) ([]RawArticle, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("newsapi: missing API key: %w", ErrNotConfigured)
	}

	params := url.Values{}
	params.Set("apiKey", p.apiKey)
	params.Set("q", q.Terms)
	params.Set("language", p.language)
	params.Set("sortBy", "publishedAt")
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if !q.Since.IsZero() {
		params.Set("from", q.Since.UTC().Format(time.RFC3339))
	}
	if !q.Until.IsZero() {
		params.Set("to", q.Until.UTC().Format(time.RFC3339))
	}
	if len(p.domains) > 0 {
		params.Set("domains", strings.Join(p.domains, ","))
	}

	resp, err := p.client.GET(ctx, "/v2/everything", params)
	if err != nil {
		return nil, err
	}

	var body newsAPIResponse
	if err := resp.ParseJSON(&body); err != nil {
		return nil, err
	}
	if body.Status == "error" {
		return nil, fmt.Errorf("newsapi %s: %s", body.Code, body.Message)
	}

	out := make([]RawArticle, 0, len(body.Articles))
	for _, a := range body.Articles {
		out = append(out, RawArticle{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			SourceName:  a.Source.Name,
			Author:      a.Author,
			PublishedAt: a.PublishedAt,
		})
	}
	return out, nil
}
