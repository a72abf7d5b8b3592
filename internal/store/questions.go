package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// Question is a previously asked question with its embedding, kept so
// repeated questions skip the embedding service.
type Question struct {
	ID        uuid.UUID
	Question  string
	Embedding []float32
}

// QuestionEmbedding looks up a stored question by fuzzy (substring) match on
// its text. Returns nil without error when no question matches.
func (s *Store) QuestionEmbedding(ctx context.Context, projectID, question string) (*Question, error) {
	project, err := NormalizeProject(projectID)
	if err != nil {
		return nil, err
	}

	var (
		q   Question
		vec pgvector.Vector
	)
	err = s.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT id, question, embedding FROM %s
		 WHERE question ILIKE '%%' || $1 || '%%'
		 LIMIT 1`,
		table(project, "questions"),
	), question).Scan(&q.ID, &q.Question, &vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up question: %w", err)
	}

	q.Embedding = vec.Slice()
	return &q, nil
}

// SaveQuestion persists a new question record with its embedding.
func (s *Store) SaveQuestion(ctx context.Context, projectID, question string, embedding []float32) error {
	project, err := NormalizeProject(projectID)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, question, embedding) VALUES ($1, $2, $3)`,
		table(project, "questions"),
	), uuid.New(), question, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to save question: %w", err)
	}
	return nil
}
