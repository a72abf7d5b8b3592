// Package store provides PostgreSQL persistence for discovered URLs, text
// chunks with embeddings, and question records. All tables are namespaced per
// project, Supabase style: {project}_external_urls, {project}_documents,
// {project}_questions.
package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"go.uber.org/zap"
)

// DefaultEmbeddingDim matches the text-embedding-ada-002 vector width.
const DefaultEmbeddingDim = 1536

// projectRe constrains project identifiers after lower-casing, since they are
// interpolated into table names.
var projectRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

// Store wraps a PostgreSQL connection pool with pgvector support.
type Store struct {
	pool         *pgxpool.Pool
	embeddingDim int
	log          *zap.Logger
}

// Option adjusts store construction.
type Option func(*Store)

// WithEmbeddingDim overrides the vector width used when creating project
// tables.
func WithEmbeddingDim(dim int) Option {
	return func(s *Store) { s.embeddingDim = dim }
}

// Connect establishes a connection pool to the database and registers the
// pgvector types on every connection.
func Connect(ctx context.Context, databaseURL string, log *zap.Logger, opts ...Option) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{pool: pool, embeddingDim: DefaultEmbeddingDim, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// NormalizeProject lower-cases a project identifier and validates that it is
// safe to use as a table-name prefix.
func NormalizeProject(projectID string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(projectID))
	if !projectRe.MatchString(normalized) {
		return "", fmt.Errorf("invalid project ID %q", projectID)
	}
	return normalized, nil
}

// EnsureProject creates the project's tables and the pgvector extension if
// they do not exist yet.
func (s *Store) EnsureProject(ctx context.Context, projectID string) error {
	project, err := NormalizeProject(projectID)
	if err != nil {
		return err
	}

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_external_urls (
			url text PRIMARY KEY,
			last_embed_date timestamptz
		)`, project),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_documents (
			id uuid PRIMARY KEY,
			url text NOT NULL,
			content text NOT NULL,
			embedding vector(%d) NOT NULL,
			gpt_response text
		)`, project, s.embeddingDim),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_questions (
			id uuid PRIMARY KEY,
			question text NOT NULL,
			embedding vector(%d) NOT NULL
		)`, project, s.embeddingDim),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to provision project %s: %w", project, err)
		}
	}
	return nil
}

// table builds a namespaced table name from an already-normalized project.
func table(project, suffix string) string {
	return project + "_" + suffix
}
