// Package chunker turns crawled pages into bounded-size text chunks ready for
// embedding. The main article text is extracted per page, then split with the
// recursive character splitter so sentence boundaries are preferred over hard
// cuts.
package chunker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mrnigelalford/chatBackend/internal/fetch"
)

// maxConcurrentFetches bounds how many pages are fetched in flight at once.
const maxConcurrentFetches = 10

// Document is one bounded chunk of a page's text.
type Document struct {
	URL  string
	Body string
}

// Config holds chunking and rendering settings.
type Config struct {
	// MaxChunkSize is the chunk upper bound in characters.
	MaxChunkSize int
	// SplashURL, when set, routes page fetches through a Splash rendering
	// proxy instead of hitting the page directly.
	SplashURL string
	// UseBrowser enables the headless-browser fallback for pages whose plain
	// HTML yields too little text.
	UseBrowser bool
	// FetchTimeout applies per page fetch.
	FetchTimeout time.Duration
}

// Chunker fetches pages and splits their text into chunks.
type Chunker struct {
	cfg      Config
	opts     *fetch.Options
	splitter textsplitter.RecursiveCharacter
	log      *zap.Logger
}

// New creates a Chunker. MaxChunkSize defaults to 1000 characters.
func New(cfg Config, log *zap.Logger) *Chunker {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = 1000
	}
	opts := fetch.DefaultOptions()
	if cfg.FetchTimeout > 0 {
		opts.Timeout = cfg.FetchTimeout
	}
	return &Chunker{
		cfg:  cfg,
		opts: opts,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.MaxChunkSize),
			textsplitter.WithChunkOverlap(0),
			textsplitter.WithSeparators([]string{"\n\n", "\n", ".", "!", "?", " ", ""}),
			textsplitter.WithKeepSeparator(true),
		),
		log: log,
	}
}

// FetchDocuments retrieves one page and returns its text as ordered chunks.
// A page without extractable article content yields an empty slice, not an
// error.
func (c *Chunker) FetchDocuments(ctx context.Context, pageURL string) ([]Document, error) {
	fetchURL := pageURL
	if c.cfg.SplashURL != "" {
		rendered, err := fetch.RenderURL(c.cfg.SplashURL, pageURL)
		if err != nil {
			return nil, err
		}
		fetchURL = rendered
	}

	result, err := fetch.URL(ctx, fetchURL, c.opts)
	if err != nil {
		return nil, err
	}

	text, err := fetch.ExtractMainText(result.HTML)
	if err != nil {
		return nil, fmt.Errorf("extracting text from %s: %w", pageURL, err)
	}

	if c.cfg.UseBrowser && fetch.ShouldUseBrowser(text) {
		html, err := fetch.RenderHTML(ctx, pageURL, c.opts.Timeout)
		if err != nil {
			c.log.Warn("browser rendering failed, using plain HTML",
				zap.String("url", pageURL), zap.Error(err))
		} else if rendered, err := fetch.ExtractMainText(html); err == nil && rendered != "" {
			text = rendered
		}
	}

	if text == "" {
		return nil, nil
	}

	parts, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text from %s: %w", pageURL, err)
	}

	docs := make([]Document, 0, len(parts))
	for _, part := range parts {
		docs = append(docs, Document{URL: pageURL, Body: part})
	}
	return docs, nil
}

// GetDocuments fetches many URLs with at most maxConcurrentFetches in flight
// and flattens the results. Chunk order is preserved within each URL. A URL
// that fails to fetch is logged, skipped, and reported in failed so callers
// can retry it later; an empty page is a success with no chunks.
func (c *Chunker) GetDocuments(ctx context.Context, urls []string) (docs []Document, failed []string) {
	perURL := make([][]Document, len(urls))
	failures := make([]bool, len(urls))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, pageURL := range urls {
		g.Go(func() error {
			chunks, err := c.FetchDocuments(gctx, pageURL)
			if err != nil {
				c.log.Warn("skipping page", zap.String("url", pageURL), zap.Error(err))
				mu.Lock()
				failures[i] = true
				mu.Unlock()
				return nil
			}
			mu.Lock()
			perURL[i] = chunks
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i, chunks := range perURL {
		if failures[i] {
			failed = append(failed, urls[i])
			continue
		}
		docs = append(docs, chunks...)
	}
	return docs, failed
}
