// Package server provides the HTTP API: crawl and embedding kickoff plus
// question answering, all behind a static bot token.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mrnigelalford/chatBackend/internal/crawler"
)

// Crawler discovers the reachable pages of a site.
type Crawler interface {
	Crawl(ctx context.Context, seedURL string, maxDepth int) (*crawler.Result, error)
}

// Ingestor embeds a project's pending URLs.
type Ingestor interface {
	SetEmbeddings(ctx context.Context, projectID string) error
}

// Answerer resolves a question against a project's documents.
type Answerer interface {
	Answer(ctx context.Context, projectID, question string) (string, error)
}

// Store is the slice of persistence the handlers touch directly.
type Store interface {
	EnsureProject(ctx context.Context, projectID string) error
	SetDocumentURLs(ctx context.Context, projectID string, urls []string) (int64, error)
}

// Config holds server configuration.
type Config struct {
	Port int
	// BotAuth is the static bearer token every request must carry.
	BotAuth string
	// MaxDepth bounds crawl recursion when a request does not set its own.
	MaxDepth int
	// JobTimeout bounds each background crawl or embedding job.
	JobTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	httpServer *http.Server
	crawler    Crawler
	ingestor   Ingestor
	answerer   Answerer
	store      Store
	cfg        Config
	validate   *validator.Validate
	log        *zap.Logger

	jobs sync.WaitGroup
}

// New creates a server. Crawl and embedding requests return immediately and
// run in the background; Wait blocks until those jobs drain.
func New(cfg Config, c Crawler, i Ingestor, a Answerer, st Store, log *zap.Logger) *Server {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	s := &Server{
		crawler:  c,
		ingestor: i,
		answerer: a,
		store:    st,
		cfg:      cfg,
		validate: validator.New(),
		log:      log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /crawl", s.handleCrawl)
	mux.HandleFunc("POST /embeddings", s.handleEmbeddings)
	mux.HandleFunc("POST /questions", s.handleQuestion)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withAuth(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, including auth.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens until ctx is cancelled, then shuts down gracefully and
// waits for in-flight background jobs.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.jobs.Wait()
	s.log.Info("server stopped")
	return nil
}

// Wait blocks until all background crawl and embedding jobs finish.
func (s *Server) Wait() {
	s.jobs.Wait()
}

// background runs fn with the configured job timeout, detached from the
// request that started it.
func (s *Server) background(name, projectID string, fn func(ctx context.Context) error) {
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.Error("background job failed",
				zap.String("job", name),
				zap.String("project", projectID),
				zap.Error(err),
			)
			return
		}
		s.log.Info("background job finished",
			zap.String("job", name),
			zap.String("project", projectID),
		)
	}()
}
