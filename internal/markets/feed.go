// Package markets supplies the prediction markets that articles are correlated
// against. Feeds are read-only.
package markets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"news-impact-engine/internal/api"
	"news-impact-engine/internal/interfaces"
	"news-impact-engine/internal/types"
)

var (
	_ interfaces.MarketFeed = Static(nil)
	_ interfaces.MarketFeed = (*FileFeed)(nil)
	_ interfaces.MarketFeed = (*HTTPFeed)(nil)
)

type document struct {
	Markets []types.MarketSnapshot `json:"markets" yaml:"markets"`
}

// Static serves a fixed market list.
type Static []types.MarketSnapshot

func (s Static) Markets(context.Context) ([]types.MarketSnapshot, error) {
	return activeOnly(s), nil
}

// FileFeed reads markets from a YAML file on every call, so edits are picked
// up by the next pipeline cycle.
type FileFeed struct {
	path string
}

func NewFileFeed(path string) *FileFeed {
	return &FileFeed{path: path}
}

func (f *FileFeed) Markets(context.Context) ([]types.MarketSnapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read markets file: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse markets file %s: %w", f.path, err)
	}
	if err := validate(doc.Markets); err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return activeOnly(doc.Markets), nil
}

// HTTPFeed fetches markets as JSON from a remote endpoint. The body may be a
// bare array or an object with a "markets" field.
type HTTPFeed struct {
	client *api.Client
	url    string
	retry  *api.RetryConfig
}

func NewHTTPFeed(url string, timeout time.Duration) *HTTPFeed {
	return &HTTPFeed{
		client: api.NewClient(api.WithTimeout(timeout)),
		url:    url,
		retry: &api.RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			Multiplier:  1,
		},
	}
}

func (h *HTTPFeed) Markets(ctx context.Context) ([]types.MarketSnapshot, error) {
	req := api.NewRequest(http.MethodGet, h.url).WithContext(ctx).WithHeader("Accept", "application/json")
	resp, err := h.client.DoWithRetry(req, h.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch markets: %w", err)
	}

	list, err := decodeJSON(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := validate(list); err != nil {
		return nil, err
	}
	return activeOnly(list), nil
}

func decodeJSON(body []byte) ([]types.MarketSnapshot, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var list []types.MarketSnapshot
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("failed to parse markets: %w", err)
		}
		return list, nil
	}
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse markets: %w", err)
	}
	return doc.Markets, nil
}

func validate(list []types.MarketSnapshot) error {
	seen := make(map[string]bool, len(list))
	for i, m := range list {
		if m.ID == "" {
			return fmt.Errorf("market %d has no id", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate market id %q", m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

func activeOnly(list []types.MarketSnapshot) []types.MarketSnapshot {
	out := make([]types.MarketSnapshot, 0, len(list))
	for _, m := range list {
		if m.Active() {
			out = append(out, m)
		}
	}
	return out
}
