package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	News struct {
		APIKey         string   `yaml:"api_key"`
		BaseURL        string   `yaml:"base_url"`
		Query          string   `yaml:"query"`
		Language       string   `yaml:"language"`
		PageSize       int      `yaml:"page_size"`
		Domains        []string `yaml:"domains"`
		RSSFeeds       []string `yaml:"rss_feeds"`
		RequestTimeout Duration `yaml:"request_timeout"`
		RetryCount     int      `yaml:"retry_count"`
		RetryDelay     Duration `yaml:"retry_delay"`
		Lookback       Duration `yaml:"lookback"`
		Enrich         bool     `yaml:"enrich"`
		RateLimit      struct {
			MaxRequests   int `yaml:"max_requests"`
			WindowSeconds int `yaml:"window_seconds"`
		} `yaml:"rate_limit"`
	} `yaml:"news"`
	Cache struct {
		ArticlesTTL    Duration `yaml:"articles_ttl"`
		SentimentTTL   Duration `yaml:"sentiment_ttl"`
		CorrelationTTL Duration `yaml:"correlation_ttl"`
		ImpactTTL      Duration `yaml:"impact_ttl"`
		RedisAddr      string   `yaml:"redis_addr"`
		SnapshotTTL    Duration `yaml:"snapshot_ttl"`
	} `yaml:"cache"`
	Pipeline struct {
		Interval        Duration `yaml:"interval"`
		CycleBudget     Duration `yaml:"cycle_budget"`
		FetchBudget     Duration `yaml:"fetch_budget"`
		AnalyzeBudget   Duration `yaml:"analyze_budget"`
		CorrelateBudget Duration `yaml:"correlate_budget"`
		PredictBudget   Duration `yaml:"predict_budget"`
		Workers         int      `yaml:"workers"`
	} `yaml:"pipeline"`
	Markets struct {
		File string `yaml:"file"`
		URL  string `yaml:"url"`
	} `yaml:"markets"`
	HTTP struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
}

// Duration is a time.Duration that reads from YAML strings like "15m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration {
	return time.Duration(d)
}

// parseDuration accepts Go duration syntax or a bare number of seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.News.BaseURL == "" {
		c.News.BaseURL = "https://newsapi.org"
	}
	if c.News.Query == "" {
		c.News.Query = "politics OR economy OR technology OR crypto"
	}
	if c.News.Language == "" {
		c.News.Language = "en"
	}
	if c.News.PageSize == 0 {
		c.News.PageSize = 50
	}
	if c.News.RequestTimeout == 0 {
		c.News.RequestTimeout = Duration(30 * time.Second)
	}
	if c.News.RetryCount == 0 {
		c.News.RetryCount = 3
	}
	if c.News.RetryDelay == 0 {
		c.News.RetryDelay = Duration(time.Second)
	}
	if c.News.Lookback == 0 {
		c.News.Lookback = Duration(24 * time.Hour)
	}
	if c.News.RateLimit.MaxRequests == 0 {
		c.News.RateLimit.MaxRequests = 100
	}
	if c.News.RateLimit.WindowSeconds == 0 {
		c.News.RateLimit.WindowSeconds = 3600
	}

	if c.Cache.ArticlesTTL == 0 {
		c.Cache.ArticlesTTL = Duration(15 * time.Minute)
	}
	if c.Cache.SentimentTTL == 0 {
		c.Cache.SentimentTTL = Duration(30 * time.Minute)
	}
	if c.Cache.CorrelationTTL == 0 {
		c.Cache.CorrelationTTL = Duration(60 * time.Minute)
	}
	if c.Cache.ImpactTTL == 0 {
		c.Cache.ImpactTTL = Duration(10 * time.Minute)
	}
	if c.Cache.SnapshotTTL == 0 {
		c.Cache.SnapshotTTL = Duration(24 * time.Hour)
	}

	if c.Pipeline.Interval == 0 {
		c.Pipeline.Interval = Duration(5 * time.Minute)
	}
	if c.Pipeline.CycleBudget == 0 {
		c.Pipeline.CycleBudget = Duration(2 * time.Minute)
	}
	if c.Pipeline.FetchBudget == 0 {
		c.Pipeline.FetchBudget = Duration(90 * time.Second)
	}
	if c.Pipeline.AnalyzeBudget == 0 {
		c.Pipeline.AnalyzeBudget = Duration(10 * time.Second)
	}
	if c.Pipeline.CorrelateBudget == 0 {
		c.Pipeline.CorrelateBudget = Duration(10 * time.Second)
	}
	if c.Pipeline.PredictBudget == 0 {
		c.Pipeline.PredictBudget = Duration(10 * time.Second)
	}
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = 8
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *Duration) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = Duration(d)
		return nil
	}

	str("NEWS_API_KEY", &c.News.APIKey)
	str("NEWS_API_BASE_URL", &c.News.BaseURL)
	str("NEWS_QUERY", &c.News.Query)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("MARKETS_FILE", &c.Markets.File)
	str("MARKETS_URL", &c.Markets.URL)
	str("HTTP_ADDR", &c.HTTP.Addr)

	return errors.Join(
		num("NEWS_RATE_MAX_REQUESTS", &c.News.RateLimit.MaxRequests),
		num("NEWS_RATE_WINDOW_SECONDS", &c.News.RateLimit.WindowSeconds),
		num("NEWS_RETRY_COUNT", &c.News.RetryCount),
		dur("NEWS_REQUEST_TIMEOUT", &c.News.RequestTimeout),
		dur("NEWS_RETRY_DELAY", &c.News.RetryDelay),
		dur("CACHE_TTL_ARTICLES", &c.Cache.ArticlesTTL),
		dur("CACHE_TTL_SENTIMENT", &c.Cache.SentimentTTL),
		dur("CACHE_TTL_CORRELATION", &c.Cache.CorrelationTTL),
		dur("CACHE_TTL_IMPACT", &c.Cache.ImpactTTL),
	)
}

func (c *Config) Validate() error {
	if c.News.RateLimit.MaxRequests < 1 {
		return fmt.Errorf("news.rate_limit.max_requests must be positive, got %d", c.News.RateLimit.MaxRequests)
	}
	if c.News.RateLimit.WindowSeconds < 1 {
		return fmt.Errorf("news.rate_limit.window_seconds must be positive, got %d", c.News.RateLimit.WindowSeconds)
	}
	if c.News.RetryCount < 1 {
		return fmt.Errorf("news.retry_count must be at least 1, got %d", c.News.RetryCount)
	}
	if c.News.PageSize < 1 || c.News.PageSize > 100 {
		return fmt.Errorf("news.page_size must be between 1-100, got %d", c.News.PageSize)
	}
	if c.Pipeline.Workers < 1 {
		return errors.New("pipeline.workers must be positive")
	}
	if c.Pipeline.Interval <= 0 {
		return fmt.Errorf("pipeline.interval must be positive, got %s", c.Pipeline.Interval.D())
	}
	stages := c.Pipeline.FetchBudget + c.Pipeline.AnalyzeBudget + c.Pipeline.CorrelateBudget + c.Pipeline.PredictBudget
	if stages > c.Pipeline.CycleBudget {
		return fmt.Errorf("stage budgets (%s) exceed pipeline.cycle_budget (%s)", stages.D(), c.Pipeline.CycleBudget.D())
	}
	for name, ttl := range map[string]Duration{
		"articles":    c.Cache.ArticlesTTL,
		"sentiment":   c.Cache.SentimentTTL,
		"correlation": c.Cache.CorrelationTTL,
		"impact":      c.Cache.ImpactTTL,
	} {
		if ttl <= 0 {
			return fmt.Errorf("cache.%s_ttl must be positive", name)
		}
	}
	return nil
}

// LoadConfig reads path (a missing file means defaults), applies
// environment overrides, then validates.
func LoadConfig(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, fmt.Errorf("environment override: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

// RateWindow returns the rate limit window as a duration.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.News.RateLimit.WindowSeconds) * time.Second
}
