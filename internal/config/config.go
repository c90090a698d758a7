// Package config provides environment-driven configuration for the pipeline.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mkessler/leadpulse/internal/types"
)

// Default category weights. They sum to 1.0 so the derived intent score stays
// within [0,1]; the aggregator does not clamp the weighted sum, so operators
// overriding weights own the resulting bound.
var defaultWeights = map[types.Category]float64{
	types.CategoryCodeActivity:        0.25,
	types.CategoryForumDiscussion:     0.20,
	types.CategoryNewsMention:         0.20,
	types.CategoryCompanyIntelligence: 0.15,
	types.CategoryTechStack:           0.10,
	types.CategorySecurityEndpoint:    0.10,
}

// Config holds all runtime configuration. Source credentials are optional: a
// missing key disables the corresponding collector rather than failing startup.
type Config struct {
	DatabaseURL string `validate:"required"`
	Port        int    `validate:"min=1,max=65535"`

	// Service auth for the HTTP API.
	APIKey    string
	JWTSecret string `validate:"omitempty,min=32"`

	// External source credentials.
	GitHubToken     string
	NewsAPIKey      string
	LogoDevAPIKey   string
	BuiltWithAPIKey string
	RedditUserAgent string

	// Per-request timeout for outbound calls to external sources.
	RequestTimeout time.Duration

	// UseBrowser enables the headless-browser fallback for JS-rendered sites.
	UseBrowser bool

	// Scoring settings.
	Weights             map[types.Category]float64
	HighIntentThreshold float64 `validate:"min=0,max=1"`
	RecentWindowDays    int     `validate:"min=1"`
}

// FromEnv builds a Config from environment variables, applying defaults for
// everything but DATABASE_URL.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Port:                8080,
		APIKey:              os.Getenv("API_KEY"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		GitHubToken:         os.Getenv("GITHUB_TOKEN"),
		NewsAPIKey:          os.Getenv("NEWS_API_KEY"),
		LogoDevAPIKey:       os.Getenv("LOGO_DEV_API_KEY"),
		BuiltWithAPIKey:     os.Getenv("BUILTWITH_API_KEY"),
		RedditUserAgent:     "leadpulse/1.0",
		RequestTimeout:      15 * time.Second,
		HighIntentThreshold: 0.7,
		RecentWindowDays:    30,
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("REDDIT_USER_AGENT"); v != "" {
		cfg.RedditUserAgent = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if v := os.Getenv("USE_BROWSER"); v != "" {
		cfg.UseBrowser = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("HIGH_INTENT_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse HIGH_INTENT_THRESHOLD: %w", err)
		}
		cfg.HighIntentThreshold = f
	}
	if v := os.Getenv("RECENT_WINDOW_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RECENT_WINDOW_DAYS: %w", err)
		}
		cfg.RecentWindowDays = n
	}

	weights, err := weightsFromEnv()
	if err != nil {
		return nil, err
	}
	cfg.Weights = weights

	return cfg, nil
}

// weightsFromEnv starts from the defaults and applies per-category overrides of
// the form SCORING_WEIGHT_CODE_ACTIVITY=0.3. Negative weights are rejected.
func weightsFromEnv() (map[types.Category]float64, error) {
	weights := DefaultWeights()
	for _, cat := range types.Categories() {
		key := "SCORING_WEIGHT_" + strings.ToUpper(strings.ReplaceAll(string(cat), "-", "_"))
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", key, err)
		}
		if w < 0 {
			return nil, fmt.Errorf("%s must be non-negative, got %v", key, w)
		}
		weights[cat] = w
	}
	return weights, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.RequestTimeout < time.Second {
		return fmt.Errorf("config error: request timeout must be at least 1s, got %s", c.RequestTimeout)
	}
	for cat, w := range c.Weights {
		if !cat.Valid() {
			return fmt.Errorf("config error: unknown weight category %q", cat)
		}
		if w < 0 {
			return fmt.Errorf("config error: weight for %s must be non-negative", cat)
		}
	}
	return nil
}

// DefaultWeights returns a copy of the built-in category weights.
func DefaultWeights() map[types.Category]float64 {
	weights := make(map[types.Category]float64, len(defaultWeights))
	for cat, w := range defaultWeights {
		weights[cat] = w
	}
	return weights
}
