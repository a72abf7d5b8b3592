package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrnigelalford/chatBackend/internal/llm"
	"github.com/mrnigelalford/chatBackend/internal/store"
)

type fakeAnswerStore struct {
	question  *store.Question
	questions []string
	matches   []store.DocumentMatch
	cached    map[uuid.UUID]string
	matchErr  error
}

func (f *fakeAnswerStore) QuestionEmbedding(_ context.Context, _, question string) (*store.Question, error) {
	if f.question != nil && strings.Contains(strings.ToLower(f.question.Question), strings.ToLower(question)) {
		return f.question, nil
	}
	return nil, nil
}

func (f *fakeAnswerStore) SaveQuestion(_ context.Context, _ string, question string, _ []float32) error {
	f.questions = append(f.questions, question)
	return nil
}

func (f *fakeAnswerStore) MatchDocuments(_ context.Context, _ string, _ []float32, _ float64, _ int) ([]store.DocumentMatch, error) {
	return f.matches, f.matchErr
}

func (f *fakeAnswerStore) SetChunkResponse(_ context.Context, _ string, id uuid.UUID, response string) error {
	if f.cached == nil {
		f.cached = map[uuid.UUID]string{}
	}
	f.cached[id] = response
	return nil
}

type fakeClient struct {
	embedCalls    int
	completeCalls int
	response      string
	lastMessages  []llm.Message
}

func (f *fakeClient) Embed(_ context.Context, _ string) ([]float32, error) {
	f.embedCalls++
	return []float32{0.5, 0.5}, nil
}

func (f *fakeClient) Complete(_ context.Context, messages []llm.Message, _ int) (string, error) {
	f.completeCalls++
	f.lastMessages = messages
	return f.response, nil
}

type fixedCounter int

func (c fixedCounter) Count(string) (int, error) { return int(c), nil }

func testConfig() Config {
	return Config{MatchThreshold: 0.1, MatchCount: 3, MaxTokens: 2000}
}

func strPtr(s string) *string { return &s }

func TestAnswerServesCachedResponse(t *testing.T) {
	st := &fakeAnswerStore{
		matches: []store.DocumentMatch{{
			ID:          uuid.New(),
			URL:         "https://example.com/docs",
			Content:     "Deploy with the CLI.",
			GPTResponse: strPtr("Run the deploy command."),
		}},
	}
	client := &fakeClient{}
	g := New(st, client, fixedCounter(10), testConfig(), zap.NewNop())

	got, err := g.Answer(context.Background(), "docs", "how do I deploy?")
	require.NoError(t, err)
	assert.Equal(t, "Run the deploy command.", got)
	assert.Zero(t, client.completeCalls, "cached answer must not trigger a completion")
}

func TestAnswerGeneratesAndCaches(t *testing.T) {
	id := uuid.New()
	st := &fakeAnswerStore{
		matches: []store.DocumentMatch{{
			ID:      id,
			URL:     "https://example.com/docs",
			Content: "  Deploy with the CLI.  ",
		}},
	}
	client := &fakeClient{response: "Use the CLI.\n\nSOURCES: https://example.com/docs"}
	g := New(st, client, fixedCounter(10), testConfig(), zap.NewNop())

	got, err := g.Answer(context.Background(), "docs", "how do I deploy?")
	require.NoError(t, err)
	assert.Equal(t, client.response, got)
	assert.Equal(t, client.response, st.cached[id])

	require.Len(t, client.lastMessages, 3)
	assert.Equal(t, llm.RoleSystem, client.lastMessages[0].Role)
	assert.Equal(t, llm.RoleAssistant, client.lastMessages[1].Role)
	user := client.lastMessages[2]
	assert.Equal(t, llm.RoleUser, user.Role)
	assert.Contains(t, user.Content, "CONTEXT:\nDeploy with the CLI.\nSOURCE: https://example.com/docs\n---\n")
	assert.Contains(t, user.Content, "USER QUESTION:\nhow do I deploy?")
}

func TestAnswerTokenBudgetExceeded(t *testing.T) {
	st := &fakeAnswerStore{
		matches: []store.DocumentMatch{{
			ID:      uuid.New(),
			URL:     "https://example.com/big",
			Content: "enormous page",
		}},
	}
	client := &fakeClient{}
	g := New(st, client, fixedCounter(2001), testConfig(), zap.NewNop())

	got, err := g.Answer(context.Background(), "docs", "what?")
	require.NoError(t, err)
	assert.Equal(t, TokenBudgetExceededMessage, got)
	assert.Zero(t, client.completeCalls)
	assert.Empty(t, st.cached)
}

func TestAnswerNoMatchUsesEmptyContext(t *testing.T) {
	st := &fakeAnswerStore{}
	client := &fakeClient{response: "Sorry, I don't know how to help with that."}
	g := New(st, client, fixedCounter(10), testConfig(), zap.NewNop())

	got, err := g.Answer(context.Background(), "docs", "off topic?")
	require.NoError(t, err)
	assert.Equal(t, client.response, got)
	assert.Equal(t, 1, client.completeCalls)
	assert.Empty(t, st.cached, "nothing to cache without a matched chunk")
	assert.Contains(t, client.lastMessages[2].Content, "CONTEXT:\n\n")
}

func TestAnswerReusesStoredQuestionEmbedding(t *testing.T) {
	st := &fakeAnswerStore{
		question: &store.Question{
			ID:        uuid.New(),
			Question:  "How do I deploy my contract?",
			Embedding: []float32{0.9, 0.1},
		},
	}
	client := &fakeClient{response: "answer"}
	g := New(st, client, fixedCounter(10), testConfig(), zap.NewNop())

	_, err := g.Answer(context.Background(), "docs", "how do i deploy")
	require.NoError(t, err)
	assert.Zero(t, client.embedCalls, "stored question embedding must be reused")
	assert.Empty(t, st.questions)
}

func TestAnswerSavesNewQuestion(t *testing.T) {
	st := &fakeAnswerStore{}
	client := &fakeClient{response: "answer"}
	g := New(st, client, fixedCounter(10), testConfig(), zap.NewNop())

	_, err := g.Answer(context.Background(), "docs", "brand new question")
	require.NoError(t, err)
	assert.Equal(t, 1, client.embedCalls)
	assert.Equal(t, []string{"brand new question"}, st.questions)
}

func TestAnswerStripsLeadingUndefinedArtifact(t *testing.T) {
	st := &fakeAnswerStore{}
	client := &fakeClient{response: "undefinedHello there"}
	g := New(st, client, fixedCounter(10), testConfig(), zap.NewNop())

	got, err := g.Answer(context.Background(), "docs", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there", got)
}

func TestAnswerKeepsUndefinedInsideContent(t *testing.T) {
	id := uuid.New()
	st := &fakeAnswerStore{
		matches: []store.DocumentMatch{{
			ID:      id,
			URL:     "https://example.com/api",
			Content: "getItem returns undefined for missing keys.",
		}},
	}
	response := "The function returns undefined if the key is missing.\n\nSOURCES: https://example.com/api"
	client := &fakeClient{response: response}
	g := New(st, client, fixedCounter(10), testConfig(), zap.NewNop())

	got, err := g.Answer(context.Background(), "docs", "what does getItem return?")
	require.NoError(t, err)
	assert.Equal(t, response, got)
	assert.Equal(t, response, st.cached[id], "cached answer must keep the word too")
}

func TestAnswerPropagatesMatchError(t *testing.T) {
	st := &fakeAnswerStore{matchErr: errors.New("connection refused")}
	g := New(st, &fakeClient{}, fixedCounter(10), testConfig(), zap.NewNop())

	_, err := g.Answer(context.Background(), "docs", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matching documents")
}
