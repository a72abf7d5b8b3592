// Package ingest runs the crawl-to-embedding pipeline: pending discovered
// URLs are chunked, embedded, persisted, and stamped so re-runs are no-ops.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mrnigelalford/chatBackend/internal/chunker"
	"github.com/mrnigelalford/chatBackend/internal/store"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	PendingURLs(ctx context.Context, projectID string) ([]string, error)
	InsertChunk(ctx context.Context, projectID string, chunk store.Chunk) error
	StampEmbedded(ctx context.Context, projectID string, urls []string, at time.Time) error
}

// Chunker fetches pages and splits them into bounded chunks, reporting the
// URLs it could not fetch.
type Chunker interface {
	GetDocuments(ctx context.Context, urls []string) (docs []chunker.Document, failed []string)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Pipeline wires the chunker and embedder to the document store.
type Pipeline struct {
	store    Store
	chunker  Chunker
	embedder Embedder
	log      *zap.Logger
}

// New creates an ingestion pipeline.
func New(s Store, c Chunker, e Embedder, log *zap.Logger) *Pipeline {
	return &Pipeline{store: s, chunker: c, embedder: e, log: log}
}

// SetEmbeddings embeds every chunk of the project's un-embedded URLs and
// stamps them processed. A URL already stamped is excluded from the pending
// set, so re-running is a no-op. An embedding failure skips that chunk and
// the pipeline moves on; a URL that could not be fetched at all is left
// un-stamped so the next run retries it.
func (p *Pipeline) SetEmbeddings(ctx context.Context, projectID string) error {
	urls, err := p.store.PendingURLs(ctx, projectID)
	if err != nil {
		return fmt.Errorf("reading pending URLs for %s: %w", projectID, err)
	}
	if len(urls) == 0 {
		p.log.Info("no pending URLs to embed", zap.String("project", projectID))
		return nil
	}

	p.log.Info("embedding project pages",
		zap.String("project", projectID),
		zap.Int("urls", len(urls)),
	)

	docs, failed := p.chunker.GetDocuments(ctx, urls)
	var saved int
	for _, doc := range docs {
		content := strings.ReplaceAll(doc.Body, "\n", " ")
		embedding, err := p.embedder.Embed(ctx, content)
		if err != nil {
			p.log.Warn("skipping chunk, embedding failed",
				zap.String("url", doc.URL), zap.Error(err))
			continue
		}

		err = p.store.InsertChunk(ctx, projectID, store.Chunk{
			URL:       doc.URL,
			Content:   content,
			Embedding: embedding,
		})
		if err != nil {
			p.log.Error("failed to persist chunk",
				zap.String("url", doc.URL), zap.Error(err))
			continue
		}
		saved++
	}

	processed := urls
	if len(failed) > 0 {
		p.log.Warn("leaving unreachable URLs un-stamped for retry",
			zap.String("project", projectID),
			zap.Strings("urls", failed),
		)
		unreachable := make(map[string]struct{}, len(failed))
		for _, u := range failed {
			unreachable[u] = struct{}{}
		}
		processed = make([]string, 0, len(urls)-len(failed))
		for _, u := range urls {
			if _, ok := unreachable[u]; !ok {
				processed = append(processed, u)
			}
		}
	}
	if len(processed) > 0 {
		if err := p.store.StampEmbedded(ctx, projectID, processed, time.Now()); err != nil {
			return fmt.Errorf("stamping embedded URLs for %s: %w", projectID, err)
		}
	}

	p.log.Info("embedding complete",
		zap.String("project", projectID),
		zap.Int("chunks", saved),
		zap.Int("failed_urls", len(failed)),
	)
	return nil
}
