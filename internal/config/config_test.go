package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "text-embedding-ada-002", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-3.5-turbo-16k", cfg.CompletionModel)
	assert.Equal(t, 1000, cfg.MaxChunkSize)
	assert.Equal(t, 2000, cfg.MaxTokens)
	assert.InDelta(t, 0.1, cfg.MatchThreshold, 1e-9)
	assert.Equal(t, 3, cfg.MatchCount)
	assert.Equal(t, 3, cfg.CrawlMaxDepth)
	assert.Equal(t, 5*time.Minute, cfg.CrawlTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("OPENAI_PROXY", "http://localhost:9999/v1")
	t.Setenv("MATCH_THRESHOLD", "0.42")
	t.Setenv("CRAWL_MAX_DEPTH", "2")
	t.Setenv("CRAWL_TIMEOUT", "90s")
	t.Setenv("USE_BROWSER", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:9999/v1", cfg.OpenAIBaseURL)
	assert.InDelta(t, 0.42, cfg.MatchThreshold, 1e-9)
	assert.Equal(t, 2, cfg.CrawlMaxDepth)
	assert.Equal(t, 90*time.Second, cfg.CrawlTimeout)
	assert.True(t, cfg.UseBrowser)
}

func TestLoad_InvalidInt(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestValidate_Ranges(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.MatchThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg.MatchThreshold = 0.1
	cfg.MaxChunkSize = 0
	assert.Error(t, cfg.Validate())
}

func TestRequire_Helpers(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireDatabase())
	assert.Error(t, cfg.RequireOpenAI())
	assert.Error(t, cfg.RequireBotAuth())

	cfg.DatabaseURL = "postgres://localhost/chat"
	cfg.OpenAIAPIKey = "sk-test"
	cfg.BotAuth = "token"
	assert.NoError(t, cfg.RequireDatabase())
	assert.NoError(t, cfg.RequireOpenAI())
	assert.NoError(t, cfg.RequireBotAuth())
}
