package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// Chunk is one bounded piece of page text with its embedding.
type Chunk struct {
	ID        uuid.UUID
	URL       string
	Content   string
	Embedding []float32
}

// DocumentMatch is a similarity-ranked chunk returned by MatchDocuments.
type DocumentMatch struct {
	ID          uuid.UUID
	URL         string
	Content     string
	Similarity  float64
	GPTResponse *string
}

// SetDocumentURLs bulk-upserts discovered URLs for a project. Duplicates are
// ignored, not overwritten, so re-crawling never resets embed stamps.
// Returns the number of newly inserted URLs.
func (s *Store) SetDocumentURLs(ctx context.Context, projectID string, urls []string) (int64, error) {
	project, err := NormalizeProject(projectID)
	if err != nil {
		return 0, err
	}
	if len(urls) == 0 {
		return 0, nil
	}

	sql := fmt.Sprintf(
		`INSERT INTO %s (url) VALUES ($1) ON CONFLICT (url) DO NOTHING`,
		table(project, "external_urls"),
	)
	batch := &pgx.Batch{}
	for _, u := range urls {
		batch.Queue(sql, u)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	var inserted int64
	for range urls {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to upsert URLs: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// PendingURLs returns the project's URLs that have not been embedded yet.
func (s *Store) PendingURLs(ctx context.Context, projectID string) ([]string, error) {
	project, err := NormalizeProject(projectID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT url FROM %s WHERE last_embed_date IS NULL`,
		table(project, "external_urls"),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// InsertChunk persists one chunk row. A zero ID is assigned a fresh UUID.
func (s *Store) InsertChunk(ctx context.Context, projectID string, chunk Chunk) error {
	project, err := NormalizeProject(projectID)
	if err != nil {
		return err
	}
	id := chunk.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, url, content, embedding) VALUES ($1, $2, $3, $4)`,
		table(project, "documents"),
	), id, chunk.URL, chunk.Content, pgvector.NewVector(chunk.Embedding))
	if err != nil {
		return fmt.Errorf("failed to insert chunk for %s: %w", chunk.URL, err)
	}
	return nil
}

// StampEmbedded marks the given URLs as embedded at the given time so the
// ingestion pipeline does not reprocess them.
func (s *Store) StampEmbedded(ctx context.Context, projectID string, urls []string, at time.Time) error {
	project, err := NormalizeProject(projectID)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return nil
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET last_embed_date = $1 WHERE url = ANY($2)`,
		table(project, "external_urls"),
	), at, urls)
	if err != nil {
		return fmt.Errorf("failed to stamp embedded URLs: %w", err)
	}
	return nil
}

// MatchDocuments returns up to count chunks ranked by cosine similarity to
// the given embedding, keeping only those above the threshold.
func (s *Store) MatchDocuments(ctx context.Context, projectID string, embedding []float32, threshold float64, count int) ([]DocumentMatch, error) {
	project, err := NormalizeProject(projectID)
	if err != nil {
		return nil, err
	}

	vec := pgvector.NewVector(embedding)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, url, content, gpt_response, 1 - (embedding <=> $1) AS similarity
		 FROM %s
		 WHERE 1 - (embedding <=> $1) > $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		table(project, "documents"),
	), vec, threshold, count)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar documents: %w", err)
	}
	defer rows.Close()

	var matches []DocumentMatch
	for rows.Next() {
		var m DocumentMatch
		if err := rows.Scan(&m.ID, &m.URL, &m.Content, &m.GPTResponse, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan document match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// SetChunkResponse caches a generated answer onto the matched chunk.
func (s *Store) SetChunkResponse(ctx context.Context, projectID string, id uuid.UUID, response string) error {
	project, err := NormalizeProject(projectID)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET gpt_response = $1 WHERE id = $2`,
		table(project, "documents"),
	), response, id)
	if err != nil {
		return fmt.Errorf("failed to cache answer: %w", err)
	}
	return nil
}
