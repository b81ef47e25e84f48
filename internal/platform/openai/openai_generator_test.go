package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/kotoba-learn/kotoba-api/internal/config"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/generation"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChatClient struct {
	calls   int
	reqs    []goopenai.ChatCompletionRequest
	replies []func() (goopenai.ChatCompletionResponse, error)
}

func (m *mockChatClient) CreateChatCompletion(
	ctx context.Context,
	req goopenai.ChatCompletionRequest,
) (goopenai.ChatCompletionResponse, error) {
	idx := m.calls
	m.calls++
	m.reqs = append(m.reqs, req)
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	return m.replies[idx]()
}

func reply(content string, finish goopenai.FinishReason) func() (goopenai.ChatCompletionResponse, error) {
	return func() (goopenai.ChatCompletionResponse, error) {
		return goopenai.ChatCompletionResponse{Choices: []goopenai.ChatCompletionChoice{{
			Message:      goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: content},
			FinishReason: finish,
		}}}, nil
	}
}

func replyErr(err error) func() (goopenai.ChatCompletionResponse, error) {
	return func() (goopenai.ChatCompletionResponse, error) {
		return goopenai.ChatCompletionResponse{}, err
	}
}

func newTestGenerator(t *testing.T, client chatClient) *Generator {
	t.Helper()
	tmpl, err := generation.LoadPromptTemplate("")
	require.NoError(t, err)
	return newGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)), tmpl, client, "gpt-test",
		generation.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond})
}

var params = generation.Params{
	Category:      domain.CategoryBusiness,
	ChapterNumber: 3,
	TotalChapters: 4,
}

func TestGenerateDecodesJSONReply(t *testing.T) {
	t.Parallel()

	client := &mockChatClient{replies: []func() (goopenai.ChatCompletionResponse, error){
		reply("```json\n{\"title\":\"会議\",\"examples\":[{\"japanese\":\"始めましょう。\"}]}\n```", goopenai.FinishReasonStop),
	}}
	g := newTestGenerator(t, client)

	chapter, err := g.Generate(context.Background(), params)

	require.NoError(t, err)
	assert.Equal(t, "会議", *chapter.Title)
	assert.Len(t, chapter.Examples, 1)

	require.Len(t, client.reqs, 1)
	req := client.reqs[0]
	assert.Equal(t, "gpt-test", req.Model)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, goopenai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[1].Content, "chapter 3 of 4")
}

func TestGenerateErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		replies   []func() (goopenai.ChatCompletionResponse, error)
		wantErr   error
		wantCalls int
	}{
		{
			name:      "rate limit is retried",
			replies:   []func() (goopenai.ChatCompletionResponse, error){replyErr(&goopenai.APIError{HTTPStatusCode: http.StatusTooManyRequests})},
			wantErr:   generation.ErrTransientFailure,
			wantCalls: 2,
		},
		{
			name:      "transport error is retried",
			replies:   []func() (goopenai.ChatCompletionResponse, error){replyErr(errors.New("connection reset"))},
			wantErr:   generation.ErrTransientFailure,
			wantCalls: 2,
		},
		{
			name:      "bad request is permanent",
			replies:   []func() (goopenai.ChatCompletionResponse, error){replyErr(&goopenai.APIError{HTTPStatusCode: http.StatusBadRequest})},
			wantErr:   generation.ErrGenerationFailed,
			wantCalls: 1,
		},
		{
			name:      "bad api key is permanent",
			replies:   []func() (goopenai.ChatCompletionResponse, error){replyErr(&goopenai.APIError{HTTPStatusCode: http.StatusUnauthorized})},
			wantErr:   generation.ErrGenerationFailed,
			wantCalls: 1,
		},
		{
			name:      "content filter is permanent",
			replies:   []func() (goopenai.ChatCompletionResponse, error){reply("", goopenai.FinishReasonContentFilter)},
			wantErr:   generation.ErrContentBlocked,
			wantCalls: 1,
		},
		{
			name: "no choices",
			replies: []func() (goopenai.ChatCompletionResponse, error){func() (goopenai.ChatCompletionResponse, error) {
				return goopenai.ChatCompletionResponse{}, nil
			}},
			wantErr:   generation.ErrInvalidResponse,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockChatClient{replies: tt.replies}
			g := newTestGenerator(t, client)

			_, err := g.Generate(context.Background(), params)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCalls, client.calls)
		})
	}
}

func TestNewGeneratorValidation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewGenerator(logger, config.LLMConfig{ModelName: "m"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	g, err := NewGenerator(logger, config.LLMConfig{
		OpenAIAPIKey:  "sk-test",
		OpenAIBaseURL: "http://localhost:11434/v1",
		ModelName:     "m",
	})
	require.NoError(t, err)
	assert.NotNil(t, g)
}
