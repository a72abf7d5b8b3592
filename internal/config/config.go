// Package config provides configuration loading and validation for the service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings. Values are read from the environment;
// a .env file is loaded by main before Load is called.
type Config struct {
	// Server
	Port     int    // PORT
	BotAuth  string // BOT_AUTH, static bearer token for the HTTP API

	// Document store
	DatabaseURL string // DATABASE_URL

	// OpenAI-compatible services
	OpenAIAPIKey    string // OPENAI_API_KEY
	OpenAIBaseURL   string // OPENAI_PROXY
	EmbeddingModel  string // EMBEDDING_MODEL
	CompletionModel string // COMPLETION_MODEL

	// Page rendering
	SplashURL  string // SPLASH_URL, server-side rendering proxy (optional)
	UseBrowser bool   // USE_BROWSER, headless Chrome fallback for SPA sites

	// Chunking and answering
	MaxChunkSize   int     // MAX_CHUNK_SIZE, characters per chunk
	MaxTokens      int     // MAX_TOKENS, context token budget for answers
	MatchThreshold float64 // MATCH_THRESHOLD, minimum cosine similarity
	MatchCount     int     // MATCH_COUNT, candidates returned by the store

	// Crawling
	CrawlMaxDepth int           // CRAWL_MAX_DEPTH
	CrawlWorkers  int           // CRAWL_WORKERS, concurrent branches per crawl
	CrawlTimeout  time.Duration // CRAWL_TIMEOUT, deadline for a whole crawl
	FetchTimeout  time.Duration // FETCH_TIMEOUT, deadline per page fetch
}

// Load reads configuration from the environment, applying defaults for
// everything except credentials. Missing required values are reported by
// Validate, not here, so read-only commands can run with a partial config.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            3000,
		BotAuth:         os.Getenv("BOT_AUTH"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   "https://api.openai.com/v1",
		EmbeddingModel:  "text-embedding-ada-002",
		CompletionModel: "gpt-3.5-turbo-16k",
		SplashURL:       os.Getenv("SPLASH_URL"),
		MaxChunkSize:    1000,
		MaxTokens:       2000,
		MatchThreshold:  0.1,
		MatchCount:      3,
		CrawlMaxDepth:   3,
		CrawlWorkers:    8,
		CrawlTimeout:    5 * time.Minute,
		FetchTimeout:    30 * time.Second,
	}

	if v := os.Getenv("OPENAI_PROXY"); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := os.Getenv("COMPLETION_MODEL"); v != "" {
		cfg.CompletionModel = v
	}
	if v := os.Getenv("USE_BROWSER"); v != "" {
		useBrowser, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid USE_BROWSER %q: %w", v, err)
		}
		cfg.UseBrowser = useBrowser
	}

	intVars := []struct {
		env string
		dst *int
	}{
		{"PORT", &cfg.Port},
		{"MAX_CHUNK_SIZE", &cfg.MaxChunkSize},
		{"MAX_TOKENS", &cfg.MaxTokens},
		{"MATCH_COUNT", &cfg.MatchCount},
		{"CRAWL_MAX_DEPTH", &cfg.CrawlMaxDepth},
		{"CRAWL_WORKERS", &cfg.CrawlWorkers},
	}
	for _, v := range intVars {
		raw := os.Getenv(v.env)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", v.env, raw, err)
		}
		*v.dst = n
	}

	if raw := os.Getenv("MATCH_THRESHOLD"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MATCH_THRESHOLD %q: %w", raw, err)
		}
		cfg.MatchThreshold = f
	}

	durVars := []struct {
		env string
		dst *time.Duration
	}{
		{"CRAWL_TIMEOUT", &cfg.CrawlTimeout},
		{"FETCH_TIMEOUT", &cfg.FetchTimeout},
	}
	for _, v := range durVars {
		raw := os.Getenv(v.env)
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", v.env, raw, err)
		}
		*v.dst = d
	}

	return cfg, nil
}

// Validate checks that the configuration has sane values. Credential
// requirements are enforced separately per command via the Require* helpers.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT must be in (0, 65535], got %d", c.Port)
	}
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("config error: MAX_CHUNK_SIZE must be positive")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("config error: MAX_TOKENS must be positive")
	}
	if c.MatchThreshold < 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("config error: MATCH_THRESHOLD must be in [0, 1]")
	}
	if c.MatchCount <= 0 {
		return fmt.Errorf("config error: MATCH_COUNT must be positive")
	}
	if c.CrawlMaxDepth < 0 {
		return fmt.Errorf("config error: CRAWL_MAX_DEPTH must be non-negative")
	}
	if c.CrawlWorkers <= 0 {
		return fmt.Errorf("config error: CRAWL_WORKERS must be positive")
	}
	return nil
}

// RequireDatabase returns an error if no document store is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return nil
}

// RequireOpenAI returns an error if no embedding/completion credentials are set.
func (c *Config) RequireOpenAI() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	return nil
}

// RequireBotAuth returns an error if the HTTP API token is not set.
func (c *Config) RequireBotAuth() error {
	if c.BotAuth == "" {
		return fmt.Errorf("BOT_AUTH environment variable is required")
	}
	return nil
}
