// Package llm wraps the OpenAI-compatible embedding and completion services
// behind a small client interface.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Message is one turn of a chat completion prompt.
type Message struct {
	Role    Role
	Content string
}

// Client is an abstraction over the embedding and completion providers.
type Client interface {
	// Embed turns text into a fixed-dimension vector. Newlines are normalized
	// to spaces before submission.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Complete runs a chat completion with deterministic decoding and returns
	// the full response text, consuming the stream if one is delivered.
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
}

// Config configures the OpenAI-compatible client.
type Config struct {
	APIKey          string
	BaseURL         string
	EmbeddingModel  string
	CompletionModel string
}

// OpenAI implements Client against any OpenAI-compatible endpoint.
type OpenAI struct {
	llm      *openai.LLM
	embedder *embeddings.EmbedderImpl
}

// NewOpenAI creates a client for the configured endpoint. One underlying
// connection serves both the embedding and the completion model.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.CompletionModel),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &OpenAI{llm: client, embedder: embedder}, nil
}

// Embed returns the embedding vector for the given text.
func (c *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	normalized := strings.ReplaceAll(text, "\n", " ")
	vector, err := c.embedder.EmbedQuery(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	return vector, nil
}

// Complete invokes the completion model with temperature 0, top_p 1 and no
// penalties. Streamed deltas are accumulated into a single string.
func (c *OpenAI) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	var stream strings.Builder
	resp, err := c.llm.GenerateContent(ctx, content,
		llms.WithTemperature(0),
		llms.WithTopP(1),
		llms.WithFrequencyPenalty(0),
		llms.WithPresencePenalty(0),
		llms.WithMaxTokens(maxTokens),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			stream.Write(chunk)
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	if stream.Len() > 0 {
		return stream.String(), nil
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func chatMessageType(role Role) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
