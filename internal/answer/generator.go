// Package answer turns a user question into a grounded response: it reuses
// or computes the question embedding, finds the best-matching document chunk,
// serves the cached answer when one exists, and otherwise asks the completion
// model with the chunk as context.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrnigelalford/chatBackend/internal/llm"
	"github.com/mrnigelalford/chatBackend/internal/store"
)

// TokenBudgetExceededMessage is returned verbatim when the matched context
// is too large to send to the completion model.
const TokenBudgetExceededMessage = "token count exceeded"

const systemPrompt = `You are a helpful assistant. When given CONTEXT you answer questions using only that information, and you always format your output in markdown. You include code snippets if relevant. If you are unsure and the answer is not explicitly written in the CONTEXT provided, you say "Sorry, I don't know how to help with that."  If the CONTEXT includes source URLs include them under a SOURCES heading at the end of your response. Always include all of the relevant source urls from the CONTEXT, but never list a URL more than once (ignore trailing forward slashes when comparing for uniqueness). Never include URLs that are not in the CONTEXT sections. Never make up URLs.`

const assistantExample = "example text\n\n```js\nfunction HomePage() {\n  return <div>test</div>\n}\n\nexport default HomePage\n```\n\nSOURCES: https://test.com"

// Store is the persistence surface the generator needs.
type Store interface {
	QuestionEmbedding(ctx context.Context, projectID, question string) (*store.Question, error)
	SaveQuestion(ctx context.Context, projectID, question string, embedding []float32) error
	MatchDocuments(ctx context.Context, projectID string, embedding []float32, threshold float64, count int) ([]store.DocumentMatch, error)
	SetChunkResponse(ctx context.Context, projectID string, id uuid.UUID, response string) error
}

// TokenCounter reports how many model tokens a piece of text encodes to.
type TokenCounter interface {
	Count(text string) (int, error)
}

// Config bounds retrieval and the completion budget.
type Config struct {
	// MatchThreshold is the minimum cosine similarity for a chunk to count
	// as a match.
	MatchThreshold float64
	// MatchCount is how many candidate chunks to retrieve. Only the best is
	// used as context.
	MatchCount int
	// MaxTokens caps both the context size and the completion length.
	MaxTokens int
}

// Generator answers questions against a project's embedded documents.
type Generator struct {
	store   Store
	client  llm.Client
	counter TokenCounter
	cfg     Config
	log     *zap.Logger
}

// New creates an answer generator.
func New(s Store, client llm.Client, counter TokenCounter, cfg Config, log *zap.Logger) *Generator {
	return &Generator{store: s, client: client, counter: counter, cfg: cfg, log: log}
}

// Answer resolves a question for a project. Previously asked questions reuse
// their stored embedding, and a matched chunk that already carries a cached
// response short-circuits the completion call entirely.
func (g *Generator) Answer(ctx context.Context, projectID, question string) (string, error) {
	embedding, err := g.questionEmbedding(ctx, projectID, question)
	if err != nil {
		return "", err
	}

	matches, err := g.store.MatchDocuments(ctx, projectID, embedding, g.cfg.MatchThreshold, g.cfg.MatchCount)
	if err != nil {
		return "", fmt.Errorf("matching documents: %w", err)
	}

	var match *store.DocumentMatch
	if len(matches) > 0 {
		match = &matches[0]
	}

	if match != nil && match.GPTResponse != nil && *match.GPTResponse != "" {
		g.log.Info("serving cached answer",
			zap.String("project", projectID),
			zap.String("url", match.URL),
		)
		return *match.GPTResponse, nil
	}

	var contextText string
	if match != nil {
		tokens, err := g.counter.Count(match.Content)
		if err != nil {
			return "", fmt.Errorf("counting context tokens: %w", err)
		}
		if tokens > g.cfg.MaxTokens {
			return TokenBudgetExceededMessage, nil
		}
		contextText = strings.TrimSpace(match.Content) + "\nSOURCE: " + match.URL + "\n---\n"
	}

	userPrompt := "CONTEXT:\n" + contextText + "\n\nUSER QUESTION:\n" + question

	response, err := g.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleAssistant, Content: assistantExample},
		{Role: llm.RoleUser, Content: userPrompt},
	}, g.cfg.MaxTokens)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	// Historical cached rows carried a stray leading "undefined" from the
	// previous stream reassembly; strip only that, the word is legitimate
	// inside an answer.
	response = strings.TrimPrefix(response, "undefined")

	if match != nil {
		if err := g.store.SetChunkResponse(ctx, projectID, match.ID, response); err != nil {
			return "", fmt.Errorf("caching answer: %w", err)
		}
	}
	return response, nil
}

// questionEmbedding returns the stored embedding for a previously asked
// question, or embeds and persists a new one.
func (g *Generator) questionEmbedding(ctx context.Context, projectID, question string) ([]float32, error) {
	stored, err := g.store.QuestionEmbedding(ctx, projectID, question)
	if err != nil {
		return nil, fmt.Errorf("looking up question: %w", err)
	}
	if stored != nil && len(stored.Embedding) > 0 {
		g.log.Debug("reusing stored question embedding",
			zap.String("project", projectID),
			zap.String("question", stored.Question),
		)
		return stored.Embedding, nil
	}

	embedding, err := g.client.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if err := g.store.SaveQuestion(ctx, projectID, question, embedding); err != nil {
		return nil, fmt.Errorf("saving question: %w", err)
	}
	return embedding, nil
}
