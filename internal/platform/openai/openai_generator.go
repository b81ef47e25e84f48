package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/kotoba-learn/kotoba-api/internal/config"
	"github.com/kotoba-learn/kotoba-api/internal/generation"
	goopenai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are an experienced Japanese language teacher who writes structured " +
	"textbook chapters. Always answer with a single JSON object."

// chatClient is the subset of the go-openai client used here.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Generator implements generation.Generator over the chat completion API.
type Generator struct {
	logger         *slog.Logger
	promptTemplate *template.Template
	client         chatClient
	model          string
	retry          generation.RetryConfig
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator builds a Generator from the LLM configuration. OpenAIBaseURL
// overrides the default endpoint for compatible providers.
func NewGenerator(logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	tmpl, err := generation.LoadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	clientConfig := goopenai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}

	return newGenerator(logger, tmpl, goopenai.NewClientWithConfig(clientConfig), cfg.ModelName,
		generation.RetryConfig{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
		}), nil
}

func newGenerator(
	logger *slog.Logger,
	tmpl *template.Template,
	client chatClient,
	model string,
	retry generation.RetryConfig,
) *Generator {
	return &Generator{
		logger:         logger.With("component", "openai_generator", "model", model),
		promptTemplate: tmpl,
		client:         client,
		model:          model,
		retry:          retry,
	}
}

// Generate implements generation.Generator.
func (g *Generator) Generate(ctx context.Context, params generation.Params) (*generation.RawChapter, error) {
	prompt, err := generation.RenderPrompt(g.promptTemplate, params)
	if err != nil {
		return nil, err
	}

	req := goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	}

	var chapter *generation.RawChapter
	err = generation.CallWithRetry(ctx, g.logger, g.retry, func(ctx context.Context) error {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classifyError(err)
		}

		if len(resp.Choices) == 0 {
			return fmt.Errorf("%w: no choices in response", generation.ErrInvalidResponse)
		}

		choice := resp.Choices[0]
		if choice.FinishReason == goopenai.FinishReasonContentFilter {
			return fmt.Errorf("%w: content filtered", generation.ErrContentBlocked)
		}

		chapter, err = generation.DecodeChapter(choice.Message.Content)
		return err
	})
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "Chat completion chapter generated",
		"chapter_number", params.ChapterNumber,
		"vocabulary_count", len(chapter.Vocabulary),
		"example_count", len(chapter.Examples))

	return chapter, nil
}

// classifyError maps client errors onto generation errors by HTTP status.
func classifyError(err error) error {
	status := 0

	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	return generation.ClassifyStatus(status, err)
}
