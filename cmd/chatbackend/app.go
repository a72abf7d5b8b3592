package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mrnigelalford/chatBackend/internal/answer"
	"github.com/mrnigelalford/chatBackend/internal/chunker"
	"github.com/mrnigelalford/chatBackend/internal/config"
	"github.com/mrnigelalford/chatBackend/internal/crawler"
	"github.com/mrnigelalford/chatBackend/internal/ingest"
	"github.com/mrnigelalford/chatBackend/internal/llm"
	"github.com/mrnigelalford/chatBackend/internal/store"
)

// newLogger builds the process logger.
func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

// loadConfig loads and validates configuration from the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newCrawler builds the site crawler from config.
func newCrawler(cfg *config.Config, log *zap.Logger) *crawler.Crawler {
	return crawler.New(crawler.Config{
		Workers:      cfg.CrawlWorkers,
		FetchTimeout: cfg.FetchTimeout,
	}, log)
}

// newChunker builds the page fetch-and-split pipeline from config.
func newChunker(cfg *config.Config, log *zap.Logger) *chunker.Chunker {
	return chunker.New(chunker.Config{
		MaxChunkSize: cfg.MaxChunkSize,
		SplashURL:    cfg.SplashURL,
		UseBrowser:   cfg.UseBrowser,
		FetchTimeout: cfg.FetchTimeout,
	}, log)
}

// newClient builds the OpenAI-compatible embedding/completion client.
func newClient(cfg *config.Config) (*llm.OpenAI, error) {
	if err := cfg.RequireOpenAI(); err != nil {
		return nil, err
	}
	return llm.NewOpenAI(llm.Config{
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		EmbeddingModel:  cfg.EmbeddingModel,
		CompletionModel: cfg.CompletionModel,
	})
}

// connectStore opens the document store.
func connectStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store.Store, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	st, err := store.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}
	return st, nil
}

// newIngestor builds the embedding pipeline on top of the store and client.
func newIngestor(cfg *config.Config, st *store.Store, client llm.Client, log *zap.Logger) *ingest.Pipeline {
	return ingest.New(st, newChunker(cfg, log), client, log)
}

// newAnswerer builds the question answering generator.
func newAnswerer(cfg *config.Config, st *store.Store, client llm.Client, log *zap.Logger) *answer.Generator {
	return answer.New(st, client, answer.NewTiktokenCounter(), answer.Config{
		MatchThreshold: cfg.MatchThreshold,
		MatchCount:     cfg.MatchCount,
		MaxTokens:      cfg.MaxTokens,
	}, log)
}
